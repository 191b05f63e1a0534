package ir

import (
	"strings"
	"testing"
)

func TestEnvironmentToLines(t *testing.T) {
	env := NewEnvironment("f")
	env.AddLocal("a", IntRPrimitive, -1, true)
	env.AddLocal("b", IntRPrimitive, -1, false)
	env.AddLocal("c", BoolRPrimitive, -1, false)
	env.AddLocal("d", IntRPrimitive, -1, false)

	got := env.ToLines()
	want := []string{
		"a, b :: int",
		"c :: bool",
		"d :: int",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("ToLines() =\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestEnvironmentTemps(t *testing.T) {
	env := NewEnvironment("f")
	r0 := env.AddTemp(IntRPrimitive)
	r1 := env.AddTemp(BoolRPrimitive)
	if r0.Name() != "r0" || r1.Name() != "r1" {
		t.Errorf("temp names = %q, %q, want r0, r1", r0.Name(), r1.Name())
	}
	op := NewLoadInt(5)
	env.AddOp(op)
	if op.Name() != "r2" {
		t.Errorf("op name = %q, want r2", op.Name())
	}
	if env.IndexOf(op) != 2 {
		t.Errorf("IndexOf(op) = %d, want 2", env.IndexOf(op))
	}
}

func TestOpToStr(t *testing.T) {
	env := NewEnvironment("f")
	n := env.AddLocal("n", IntRPrimitive, -1, true)
	b0 := NewBasicBlock()
	b1 := NewBasicBlock()
	b0.Label = 1
	b1.Label = 2

	load := NewLoadInt(1)
	env.AddOp(load) // r0

	cls := NewClassIR("C", "mod")
	cls.AddAttribute("x", IntRPrimitive)
	self := env.AddLocal("self", NewRInstance(cls), -1, true)

	tup := NewTupleSet([]Value{n, n}, -1)
	env.AddOp(tup) // r1
	tget := NewTupleGet(tup, 0, -1)
	env.AddOp(tget) // r2

	getattr := NewGetAttr(self, "x", -1)
	env.AddOp(getattr) // r3

	fn := env.AddLocal("g", ObjectRPrimitive, -1, false)
	pycall := NewPyCall(fn, []Value{n}, -1)
	env.AddOp(pycall) // r4

	boxed := NewBox(n)
	env.AddOp(boxed) // r5

	cast := NewCast(boxed, ListRPrimitive, -1)
	env.AddOp(cast) // r6

	static := NewLoadStatic(ObjectRPrimitive, "foo", "mod", NamespaceStatic, -1)
	env.AddOp(static) // r7

	branch := NewBranch(n, b0, b1, BranchBool, -1)
	errBranch := NewBranch(load, b0, b1, BranchIsError, -1)
	errBranch.Traceback = &TracebackEntry{Function: "f", Line: 3}
	negated := NewBranch(load, b0, b1, BranchBool, -1)
	negated.Negated = true

	tests := []struct {
		name string
		op   Op
		want string
	}{
		{"goto", NewGoto(b0), "goto L1"},
		{"branch bool", branch, "if n goto L1 else goto L2 :: bool"},
		{"branch error", errBranch, "if is_error(r0) goto L1 (error at f:3) else goto L2"},
		{"branch negated", negated, "if not r0 goto L1 else goto L2 :: bool"},
		{"return", NewReturn(n), "return n"},
		{"unreachable", NewUnreachable(), "unreachable"},
		{"assign", NewAssign(fn, n), "g = n"},
		{"load int", load, "r0 = 1"},
		{"load error value", NewLoadErrorValue(IntRPrimitive), "? = <error> :: int"},
		{"inc ref int", NewIncRef(n), "inc_ref n :: int"},
		{"dec ref object", NewDecRef(fn), "dec_ref g"},
		{"call", NewCall(IntRPrimitive, "mod.g", []Value{n}, -1), "? = g(n)"},
		{"tuple set", tup, "r1 = (n, n)"},
		{"tuple get", tget, "r2 = r1[0]"},
		{"get attr", getattr, "r3 = self.x"},
		{"set attr", NewSetAttr(self, "x", n, -1), "self.x = n; ? = is_error"},
		{"py call", pycall, "r4 = g(n) :: object"},
		{"box", boxed, "r5 = box(int, n)"},
		{"cast", cast, "r6 = cast(list, r5)"},
		{"load static", static, "r7 = mod.foo :: static"},
		{"raise", NewRaiseStandardError(ValueErrorClass, "oops", -1), "raise ValueError('oops')"},
		{"raise bare", NewRaiseStandardErrorBare("KeyError", -1), "raise KeyError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op.ToStr(env); got != tt.want {
				t.Errorf("ToStr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatFuncHidesFallthroughGoto(t *testing.T) {
	env := NewEnvironment("f")
	n := env.AddLocal("n", IntRPrimitive, -1, true)

	b1 := NewBasicBlock()
	b1.Ops = append(b1.Ops, NewReturn(n))
	b0 := NewBasicBlock()
	b0.Ops = append(b0.Ops, NewGoto(b1))

	sig := NewFuncSignature([]RuntimeArg{{Name: "n", Type: IntRPrimitive}}, IntRPrimitive)
	fn := NewFuncIR("f", "", "mod", sig, []*BasicBlock{b0, b1}, env)

	got := FormatFunc(fn)
	want := []string{
		"def f(n):",
		"    n :: int",
		"L0:",
		"L1:",
		"    return n",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("FormatFunc() =\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestFormatBlocksFlagsMissingTerminator(t *testing.T) {
	env := NewEnvironment("f")
	b := NewBasicBlock()
	op := NewLoadInt(1)
	env.AddOp(op)
	b.Ops = append(b.Ops, op)

	lines := FormatBlocks([]*BasicBlock{b}, env)
	found := false
	for _, line := range lines {
		if strings.Contains(line, "MISSING BLOCK EXIT OPCODE") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing terminator not flagged:\n%s", strings.Join(lines, "\n"))
	}
}
