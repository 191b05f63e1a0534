package primitives

import "pyrite/internal/ir"

func registerDictOps(r *Registry) {
	r.MethodOp(OpSpec{
		Name:       "__getitem__",
		ArgTypes:   []ir.RType{ir.DictRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.ObjectRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       SimpleEmit("{dest} = CPyDict_GetItem({args[0]}, {args[1]});"),
	})

	r.MethodOp(OpSpec{
		Name:       "__setitem__",
		ArgTypes:   []ir.RType{ir.DictRPrimitive, ir.ObjectRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrFalse,
		Emit:       SimpleEmit("{dest} = CPyDict_SetItem({args[0]}, {args[1]}, {args[2]}) >= 0;"),
	})

	r.BinaryOp(OpSpec{
		Name:       "in",
		ArgTypes:   []ir.RType{ir.ObjectRPrimitive, ir.DictRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrMagic,
		FormatStr:  "{dest} = {args[0]} in {args[1]} :: dict",
		Emit:       NegativeIntEmit("{dest} = PyDict_Contains({args[1]}, {args[0]});"),
	})

	r.MethodOp(OpSpec{
		Name:       "update",
		ArgTypes:   []ir.RType{ir.DictRPrimitive, ir.DictRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrFalse,
		Emit:       SimpleEmit("{dest} = CPyDict_Update({args[0]}, {args[1]}) != -1;"),
		Priority:   2,
	})

	r.MethodOp(OpSpec{
		Name:       "update",
		ArgTypes:   []ir.RType{ir.DictRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrFalse,
		Emit:       SimpleEmit("{dest} = CPyDict_UpdateFromSeq({args[0]}, {args[1]}) != -1;"),
	})

	r.NewDictOp = r.FuncOp(OpSpec{
		Name:       "builtins.dict",
		ArgTypes:   []ir.RType{},
		ResultType: ir.DictRPrimitive,
		ErrorKind:  ir.ErrMagic,
		FormatStr:  "{dest} = {{}}",
		Emit:       SimpleEmit("{dest} = PyDict_New();"),
	})
}
