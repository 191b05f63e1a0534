package primitives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyrite/internal/ir"
)

func TestIntArithmeticMatching(t *testing.T) {
	r := NewRegistry()

	desc := r.FindBinaryOp("+", []ir.RType{ir.IntRPrimitive, ir.IntRPrimitive})
	require.NotNil(t, desc)
	assert.Equal(t, ir.ErrNever, desc.ErrorKind)
	assert.Equal(t, "{dest} = {args[0]} + {args[1]} :: int", desc.FormatStr)
	assert.True(t, ir.IsIntRPrimitive(desc.ResultType))

	cmp := r.FindBinaryOp("<", []ir.RType{ir.IntRPrimitive, ir.IntRPrimitive})
	require.NotNil(t, cmp)
	assert.True(t, ir.IsBoolRPrimitive(cmp.ResultType))

	neg := r.FindUnaryOp("-", ir.IntRPrimitive)
	require.NotNil(t, neg)
	assert.Same(t, r.IntNegOp, neg)
}

func TestStrConcatMatching(t *testing.T) {
	r := NewRegistry()
	desc := r.FindBinaryOp("+", []ir.RType{ir.StrRPrimitive, ir.StrRPrimitive})
	require.NotNil(t, desc)
	assert.Equal(t, ir.ErrMagic, desc.ErrorKind)
	assert.True(t, ir.IsStrRPrimitive(desc.ResultType))
}

func TestPriorityBreaksTies(t *testing.T) {
	r := NewRegistry()

	// A short-int index picks the short-index variant at priority 2.
	short := r.FindMethodOp("__getitem__", []ir.RType{ir.ListRPrimitive, ir.ShortIntRPrimitive})
	require.NotNil(t, short)
	assert.Equal(t, 2, short.Priority)

	// A general int index does not fit the short-int formals.
	full := r.FindMethodOp("__getitem__", []ir.RType{ir.ListRPrimitive, ir.IntRPrimitive})
	require.NotNil(t, full)
	assert.Equal(t, 0, full.Priority)
}

func TestSubtypeMatching(t *testing.T) {
	r := NewRegistry()

	// bool operands reach the int ops through subtyping.
	desc := r.FindBinaryOp("+", []ir.RType{ir.BoolRPrimitive, ir.BoolRPrimitive})
	require.NotNil(t, desc)
	assert.True(t, ir.IsIntRPrimitive(desc.ResultType))

	// A list is accepted where an arbitrary object is expected.
	in := r.FindBinaryOp("in", []ir.RType{ir.ListRPrimitive, ir.DictRPrimitive})
	require.NotNil(t, in)
	assert.Equal(t, "{dest} = {args[0]} in {args[1]} :: dict", in.FormatStr)
}

func TestNoMatch(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.FindBinaryOp("+", []ir.RType{ir.ListRPrimitive, ir.IntRPrimitive}))
	assert.Nil(t, r.FindBinaryOp("@", []ir.RType{ir.IntRPrimitive, ir.IntRPrimitive}))
	assert.Nil(t, r.FindMethodOp("append", []ir.RType{ir.DictRPrimitive, ir.ObjectRPrimitive}))
}

func TestVarArgMatching(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r.NewListOp)
	assert.True(t, r.NewListOp.IsVarArg)

	env := ir.NewEnvironment("f")
	a := env.AddLocal("a", ir.ObjectRPrimitive, -1, true)
	b := env.AddLocal("b", ir.ObjectRPrimitive, -1, true)
	op := ir.NewPrimitiveOp([]ir.Value{a, b}, r.NewListOp, -1)
	env.AddOp(op)
	assert.Equal(t, "r0 = [a, b]", op.ToStr(env))
}

func TestNameRefOps(t *testing.T) {
	r := NewRegistry()
	none := r.FindNameRefOp("builtins.None")
	require.NotNil(t, none)
	assert.True(t, ir.IsNoneRPrimitive(none.ResultType))

	lst := r.FindNameRefOp("builtins.list")
	require.NotNil(t, lst)
	assert.True(t, lst.IsBorrowed)

	assert.Nil(t, r.FindNameRefOp("builtins.nothing"))
}

func TestAmbiguousRegistrationPanics(t *testing.T) {
	r := NewRegistry()
	spec := OpSpec{
		Name:       "+",
		ArgTypes:   []ir.RType{ir.IntRPrimitive, ir.IntRPrimitive},
		ResultType: ir.IntRPrimitive,
		ErrorKind:  ir.ErrNever,
		Emit:       SimpleEmit("{dest} = 0;"),
	}
	assert.Panics(t, func() { r.BinaryOp(spec) })

	// A different priority disambiguates.
	spec.Priority = 3
	assert.NotPanics(t, func() { r.BinaryOp(spec) })
}

func TestPrimitiveOpToStr(t *testing.T) {
	r := NewRegistry()
	env := ir.NewEnvironment("f")
	a := env.AddLocal("a", ir.IntRPrimitive, -1, true)
	b := env.AddLocal("b", ir.IntRPrimitive, -1, true)

	add := r.FindBinaryOp("+", []ir.RType{ir.IntRPrimitive, ir.IntRPrimitive})
	op := ir.NewPrimitiveOp([]ir.Value{a, b}, add, -1)
	env.AddOp(op)
	assert.Equal(t, "r0 = a + b :: int", op.ToStr(env))

	dict := ir.NewPrimitiveOp(nil, r.NewDictOp, -1)
	env.AddOp(dict)
	assert.Equal(t, "r1 = {}", dict.ToStr(env))
}

func TestVoidPrimitiveOp(t *testing.T) {
	r := NewRegistry()
	op := ir.NewPrimitiveOp(nil, r.ClearExceptionOp, -1)
	assert.True(t, op.IsVoid())
	assert.Equal(t, ir.ErrNever, op.ErrorKind())

	env := ir.NewEnvironment("f")
	env.AddOp(op) // void ops are not recorded
	assert.Equal(t, "clear_exception", op.ToStr(env))
	assert.Empty(t, env.Regs())
}
