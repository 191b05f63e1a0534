package primitives

import (
	"fmt"

	"pyrite/internal/ir"
)

func intBinaryOp(r *Registry, op, cFunc string, resultType ir.RType) {
	r.BinaryOp(OpSpec{
		Name:       op,
		ArgTypes:   []ir.RType{ir.IntRPrimitive, ir.IntRPrimitive},
		ResultType: resultType,
		ErrorKind:  ir.ErrNever,
		FormatStr:  fmt.Sprintf("{dest} = {args[0]} %s {args[1]} :: int", op),
		Emit:       SimpleEmit(fmt.Sprintf("{dest} = %s({args[0]}, {args[1]});", cFunc)),
	})
}

func intCompareOp(r *Registry, op, cFunc string) {
	intBinaryOp(r, op, cFunc, ir.BoolRPrimitive)
}

func registerIntOps(r *Registry) {
	intBinaryOp(r, "+", "CPyTagged_Add", ir.IntRPrimitive)
	intBinaryOp(r, "-", "CPyTagged_Subtract", ir.IntRPrimitive)
	intBinaryOp(r, "*", "CPyTagged_Multiply", ir.IntRPrimitive)
	intBinaryOp(r, "//", "CPyTagged_FloorDivide", ir.IntRPrimitive)
	intBinaryOp(r, "%", "CPyTagged_Remainder", ir.IntRPrimitive)

	intCompareOp(r, "==", "CPyTagged_IsEq")
	intCompareOp(r, "!=", "CPyTagged_IsNe")
	intCompareOp(r, "<", "CPyTagged_IsLt")
	intCompareOp(r, "<=", "CPyTagged_IsLe")
	intCompareOp(r, ">", "CPyTagged_IsGt")
	intCompareOp(r, ">=", "CPyTagged_IsGe")

	r.IntNegOp = r.UnaryOp(OpSpec{
		Name:       "-",
		ArgTypes:   []ir.RType{ir.IntRPrimitive},
		ResultType: ir.IntRPrimitive,
		ErrorKind:  ir.ErrNever,
		FormatStr:  "{dest} = -{args[0]} :: int",
		Emit:       SimpleEmit("{dest} = CPyTagged_Negate({args[0]});"),
	})
}
