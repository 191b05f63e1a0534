package primitives

// Exception-related primitive ops.

import "pyrite/internal/ir"

func registerExcOps(r *Registry) {
	// Raising through a value-producing op is a little hokey, but it lets
	// the exception-splitting pass treat raises like any other failure.
	r.RaiseExceptionOp = r.CustomOp(OpSpec{
		Name:       "raise_exception",
		ArgTypes:   []ir.RType{ir.ObjectRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrFalse,
		FormatStr:  "raise_exception({args[0]}, {args[1]}); {dest} = 0",
		Emit:       SimpleEmit("PyErr_SetObject({args[0]}, {args[1]}); {dest} = 0;"),
	})

	r.ClearExceptionOp = r.CustomOp(OpSpec{
		Name:       "clear_exception",
		ArgTypes:   []ir.RType{},
		ResultType: ir.VoidRType,
		ErrorKind:  ir.ErrNever,
		FormatStr:  "clear_exception",
		Emit:       SimpleEmit("PyErr_Clear();"),
	})

	r.NoErrOccurredOp = r.FuncOp(OpSpec{
		Name:       "no_err_occurred",
		ArgTypes:   []ir.RType{},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrFalse,
		Emit:       SimpleEmit("{dest} = (PyErr_Occurred() == NULL);"),
	})

	r.ErrorCatchOp = r.CustomOp(OpSpec{
		Name:       "err_catch",
		ArgTypes:   []ir.RType{},
		ResultType: ir.ExcRTuple,
		ErrorKind:  ir.ErrNever,
		FormatStr:  "{dest} = err_catch",
		Emit:       SimpleEmit("CPy_CatchError(&{dest}.f0, &{dest}.f1, &{dest}.f2);"),
	})

	r.ClearExcInfoOp = r.CustomOp(OpSpec{
		Name:       "clear_exc_info",
		ArgTypes:   []ir.RType{},
		ResultType: ir.VoidRType,
		ErrorKind:  ir.ErrNever,
		FormatStr:  "clear_exc_info",
		Emit:       SimpleEmit("PyErr_SetExcInfo(NULL, NULL, NULL);"),
	})
}
