package exceptions

import (
	"strings"
	"testing"

	"pyrite/internal/ir"
)

func checkWellFormed(t *testing.T, fn *ir.FuncIR) {
	t.Helper()
	inFunc := make(map[*ir.BasicBlock]bool)
	for _, block := range fn.Blocks {
		inFunc[block] = true
	}
	for _, block := range fn.Blocks {
		term := block.Terminator()
		if term == nil || !ir.IsTerminator(term) {
			t.Fatalf("block does not end in a terminator")
		}
		for i, op := range block.Ops {
			if ir.IsTerminator(op) && i != len(block.Ops)-1 {
				t.Fatalf("terminator mid-block at index %d", i)
			}
			switch o := op.(type) {
			case *ir.Goto:
				if !inFunc[o.Target] {
					t.Fatalf("goto targets a block outside the function")
				}
			case *ir.Branch:
				if !inFunc[o.True] || !inFunc[o.False] {
					t.Fatalf("branch targets a block outside the function")
				}
			}
			for _, src := range op.Sources() {
				if reg, ok := src.(*ir.Register); ok && fn.Env.IndexOf(reg) < 0 {
					t.Fatalf("op references register %s not in the environment", reg.Name())
				}
			}
		}
	}
}

// fallibleCallFunc builds f() -> int with body r0 = g(); return r0, where g
// may raise.
func fallibleCallFunc() *ir.FuncIR {
	env := ir.NewEnvironment("f")
	call := ir.NewCall(ir.IntRPrimitive, "g", nil, 3)
	env.AddOp(call)

	b0 := ir.NewBasicBlock()
	b0.Ops = append(b0.Ops, call, ir.NewReturn(call))

	sig := ir.NewFuncSignature(nil, ir.IntRPrimitive)
	return ir.NewFuncIR("f", "", "mod", sig, []*ir.BasicBlock{b0}, env)
}

func TestInsertExceptionHandlingSplitsAtFallibleCall(t *testing.T) {
	fn := fallibleCallFunc()
	InsertExceptionHandling(fn)
	checkWellFormed(t, fn)

	got := strings.Join(ir.FormatFunc(fn), "\n")
	want := strings.Join([]string{
		"def f():",
		"    r0, r1 :: int",
		"L0:",
		"    r0 = g()",
		"    if is_error(r0) goto L2 (error at f:3) else goto L1",
		"L1:",
		"    return r0",
		"L2:",
		"    r1 = <error> :: int",
		"    return r1",
	}, "\n")
	if got != want {
		t.Errorf("split IR:\n%s\nwant:\n%s", got, want)
	}
}

func TestInsertExceptionHandlingIdempotent(t *testing.T) {
	fn := fallibleCallFunc()
	InsertExceptionHandling(fn)
	once := strings.Join(ir.FormatFunc(fn), "\n")
	InsertExceptionHandling(fn)
	twice := strings.Join(ir.FormatFunc(fn), "\n")
	if once != twice {
		t.Errorf("pass is not idempotent:\nonce:\n%s\ntwice:\n%s", once, twice)
	}
}

func TestInsertExceptionHandlingNoFallibleOps(t *testing.T) {
	env := ir.NewEnvironment("f")
	n := env.AddLocal("n", ir.IntRPrimitive, -1, true)
	b0 := ir.NewBasicBlock()
	b0.Ops = append(b0.Ops, ir.NewReturn(n))
	sig := ir.NewFuncSignature([]ir.RuntimeArg{{Name: "n", Type: ir.IntRPrimitive}}, ir.IntRPrimitive)
	fn := ir.NewFuncIR("f", "", "mod", sig, []*ir.BasicBlock{b0}, env)

	InsertExceptionHandling(fn)
	if len(fn.Blocks) != 1 {
		t.Errorf("got %d blocks, want the function untouched", len(fn.Blocks))
	}
}

func TestInsertExceptionHandlingUsesBlockHandler(t *testing.T) {
	env := ir.NewEnvironment("f")
	handlerReg := ir.NewLoadInt(0)
	env.AddOp(handlerReg)
	handler := ir.NewBasicBlock()
	handler.Ops = append(handler.Ops, handlerReg, ir.NewReturn(handlerReg))

	call := ir.NewCall(ir.IntRPrimitive, "g", nil, 5)
	env.AddOp(call)
	b0 := ir.NewBasicBlock()
	b0.ErrorHandler = handler
	b0.Ops = append(b0.Ops, call, ir.NewReturn(call))

	sig := ir.NewFuncSignature(nil, ir.IntRPrimitive)
	fn := ir.NewFuncIR("f", "", "mod", sig, []*ir.BasicBlock{b0, handler}, env)

	InsertExceptionHandling(fn)
	checkWellFormed(t, fn)

	var errBranch *ir.Branch
	for _, op := range fn.Blocks[0].Ops {
		if branch, ok := op.(*ir.Branch); ok && branch.Op == ir.BranchIsError {
			errBranch = branch
		}
	}
	if errBranch == nil {
		t.Fatalf("no error-check branch inserted")
	}
	gotOps := errBranch.True.Ops
	if len(gotOps) == 0 || gotOps[0] != handlerReg {
		t.Errorf("error branch must target the installed handler, not the default")
	}
}

func TestFallibleOpWithFalseErrorKind(t *testing.T) {
	env := ir.NewEnvironment("f")
	raise := ir.NewRaiseStandardError(ir.ValueErrorClass, "bad", 7)
	env.AddOp(raise)
	ret := ir.NewLoadInt(0)
	env.AddOp(ret)

	b0 := ir.NewBasicBlock()
	b0.Ops = append(b0.Ops, raise, ret, ir.NewReturn(ret))

	sig := ir.NewFuncSignature(nil, ir.IntRPrimitive)
	fn := ir.NewFuncIR("f", "", "mod", sig, []*ir.BasicBlock{b0}, env)

	InsertExceptionHandling(fn)
	checkWellFormed(t, fn)

	branch, ok := fn.Blocks[0].Terminator().(*ir.Branch)
	if !ok {
		t.Fatalf("first fragment must end in the error-check branch")
	}
	if branch.Op != ir.BranchBool || !branch.Negated {
		t.Errorf("false error kind checks the negated boolean result")
	}
}
