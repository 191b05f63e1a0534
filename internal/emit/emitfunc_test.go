package emit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyrite/internal/exceptions"
	"pyrite/internal/ir"
	"pyrite/internal/refcount"
)

func TestGenerateNativeFunctionStraightLine(t *testing.T) {
	// f(n: int) -> int: return n, after refcount insertion.
	env := ir.NewEnvironment("f")
	n := env.AddLocal("n", ir.IntRPrimitive, -1, true)
	b0 := ir.NewBasicBlock()
	b0.Ops = append(b0.Ops, ir.NewReturn(n))
	sig := ir.NewFuncSignature([]ir.RuntimeArg{{Name: "n", Type: ir.IntRPrimitive}}, ir.IntRPrimitive)
	fn := ir.NewFuncIR("f", "", "mod", sig, []*ir.BasicBlock{b0}, env)
	refcount.InsertRefCountOpcodes(fn)

	emitter := NewEmitter(NewEmitterContext(), env)
	GenerateNativeFunction(fn, emitter, "mod.py", "mod")
	out := emitter.String()

	assert.Contains(t, out, "CPyTagged CPyDef_mod___f(CPyTagged cpy_r_n) {")
	assert.Contains(t, out, "CPyL0: ;")
	assert.Contains(t, out, "CPyTagged_IncRef(cpy_r_n);")
	assert.Contains(t, out, "return cpy_r_n;")
}

func TestGenerateNativeFunctionErrorPath(t *testing.T) {
	env := ir.NewEnvironment("f")
	call := ir.NewCall(ir.IntRPrimitive, "g", nil, 3)
	env.AddOp(call)
	b0 := ir.NewBasicBlock()
	b0.Ops = append(b0.Ops, call, ir.NewReturn(call))
	sig := ir.NewFuncSignature(nil, ir.IntRPrimitive)
	fn := ir.NewFuncIR("f", "", "mod", sig, []*ir.BasicBlock{b0}, env)

	exceptions.InsertExceptionHandling(fn)
	refcount.InsertRefCountOpcodes(fn)

	emitter := NewEmitter(NewEmitterContext(), env)
	GenerateNativeFunction(fn, emitter, "mod.py", "mod")
	out := emitter.String()

	assert.Contains(t, out, "cpy_r_r0 = CPyDef_g();")
	assert.Contains(t, out, "unlikely(cpy_r_r0 == CPY_INT_TAG)")
	assert.Contains(t, out, `CPy_AddTraceback("mod.py", "f", 3, CPyStatic_mod___globals);`)
	assert.Contains(t, out, "cpy_r_r1 = CPY_INT_TAG;")
}

func TestTupleStructDeclaration(t *testing.T) {
	ctx := NewEmitterContext()
	emitter := NewEmitter(ctx, nil)
	tup := ir.NewRTuple(ir.IntRPrimitive, ir.BoolRPrimitive)
	emitter.DeclareTupleStruct(tup)
	// Deduplicated by struct name.
	emitter.DeclareTupleStruct(ir.NewRTuple(ir.IntRPrimitive, ir.BoolRPrimitive))

	lines := ctx.DeclarationLines()
	joined := strings.Join(lines, "\n")
	assert.Equal(t, strings.Count(joined, "typedef struct"), 1)
	assert.Contains(t, joined, "typedef struct tuple_T2IC {")
	assert.Contains(t, joined, "CPyTagged f0;")
	assert.Contains(t, joined, "char f1;")
}

func TestEmitIncDecRef(t *testing.T) {
	tests := []struct {
		name string
		typ  ir.RType
		inc  []string
		dec  []string
	}{
		{
			name: "tagged int",
			typ:  ir.IntRPrimitive,
			inc:  []string{"CPyTagged_IncRef(x);"},
			dec:  []string{"CPyTagged_DecRef(x);"},
		},
		{
			name: "object",
			typ:  ir.ObjectRPrimitive,
			inc:  []string{"Py_INCREF(x);"},
			dec:  []string{"Py_DECREF(x);"},
		},
		{
			name: "bool",
			typ:  ir.BoolRPrimitive,
			inc:  nil,
			dec:  nil,
		},
		{
			name: "tuple recurses per element",
			typ:  ir.NewRTuple(ir.IntRPrimitive, ir.ObjectRPrimitive),
			inc:  []string{"CPyTagged_IncRef(x.f0);", "Py_INCREF(x.f1);"},
			dec:  []string{"CPyTagged_DecRef(x.f0);", "Py_DECREF(x.f1);"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEmitter(NewEmitterContext(), nil)
			e.EmitIncRef("x", tt.typ)
			require.Len(t, e.Fragments(), len(tt.inc))
			for i, want := range tt.inc {
				assert.Equal(t, want+"\n", e.Fragments()[i])
			}

			e = NewEmitter(NewEmitterContext(), nil)
			e.EmitDecRef("x", tt.typ)
			require.Len(t, e.Fragments(), len(tt.dec))
			for i, want := range tt.dec {
				assert.Equal(t, want+"\n", e.Fragments()[i])
			}
		})
	}
}

func TestVarsNeedingInitAreInitialized(t *testing.T) {
	// if c: x = 1
	// return x  -- x may arrive at the return undefined.
	env := ir.NewEnvironment("f")
	c := env.AddLocal("c", ir.BoolRPrimitive, -1, true)
	x := env.AddLocal("x", ir.ObjectRPrimitive, -1, false)

	l2 := ir.NewBasicBlock()
	l2.Ops = append(l2.Ops, ir.NewReturn(x))
	l1 := ir.NewBasicBlock()
	static := ir.NewLoadStatic(ir.ObjectRPrimitive, "one", "mod", ir.NamespaceStatic, -1)
	env.AddOp(static)
	l1.Ops = append(l1.Ops, static, ir.NewAssign(x, static), ir.NewGoto(l2))
	l0 := ir.NewBasicBlock()
	l0.Ops = append(l0.Ops, ir.NewBranch(c, l1, l2, ir.BranchBool, -1))

	sig := ir.NewFuncSignature([]ir.RuntimeArg{{Name: "c", Type: ir.BoolRPrimitive}}, ir.ObjectRPrimitive)
	fn := ir.NewFuncIR("f", "", "mod", sig, []*ir.BasicBlock{l0, l1, l2}, env)

	emitter := NewEmitter(NewEmitterContext(), env)
	GenerateNativeFunction(fn, emitter, "mod.py", "mod")
	out := emitter.String()

	assert.Contains(t, out, "PyObject *cpy_r_x = NULL;")
}

func TestPrimitiveOpEmission(t *testing.T) {
	env := ir.NewEnvironment("f")
	a := env.AddLocal("a", ir.IntRPrimitive, -1, true)
	b := env.AddLocal("b", ir.IntRPrimitive, -1, true)
	desc := &ir.OpDescription{
		Name:       "+",
		ArgTypes:   []ir.RType{ir.IntRPrimitive, ir.IntRPrimitive},
		ResultType: ir.IntRPrimitive,
		ErrorKind:  ir.ErrNever,
		FormatStr:  "{dest} = {args[0]} + {args[1]} :: int",
		Emit: func(e ir.EmitterInterface, args []string, dest string) {
			e.EmitLine(dest + " = CPyTagged_Add(" + args[0] + ", " + args[1] + ");")
		},
	}
	op := ir.NewPrimitiveOp([]ir.Value{a, b}, desc, -1)
	env.AddOp(op)

	b0 := ir.NewBasicBlock()
	b0.Ops = append(b0.Ops, op, ir.NewReturn(op))
	sig := ir.NewFuncSignature([]ir.RuntimeArg{
		{Name: "a", Type: ir.IntRPrimitive},
		{Name: "b", Type: ir.IntRPrimitive},
	}, ir.IntRPrimitive)
	fn := ir.NewFuncIR("f", "", "mod", sig, []*ir.BasicBlock{b0}, env)

	emitter := NewEmitter(NewEmitterContext(), env)
	GenerateNativeFunction(fn, emitter, "mod.py", "mod")
	assert.Contains(t, emitter.String(), "cpy_r_r0 = CPyTagged_Add(cpy_r_a, cpy_r_b);")
}
