package primitives

import (
	"fmt"

	"pyrite/internal/ir"
)

func emitSetLen(e ir.EmitterInterface, args []string, dest string) {
	temp := e.TempName()
	e.EmitDeclaration(fmt.Sprintf("Py_ssize_t %s;", temp))
	e.EmitLine(fmt.Sprintf("%s = PySet_GET_SIZE(%s);", temp, args[0]))
	e.EmitLine(fmt.Sprintf("%s = CPyTagged_ShortFromSsize_t(%s);", dest, temp))
}

func registerSetOps(r *Registry) {
	r.NewSetOp = r.FuncOp(OpSpec{
		Name:       "builtins.set",
		ArgTypes:   []ir.RType{},
		ResultType: ir.SetRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       SimpleEmit("{dest} = PySet_New(NULL);"),
	})

	r.FuncOp(OpSpec{
		Name:       "builtins.set",
		ArgTypes:   []ir.RType{ir.ObjectRPrimitive},
		ResultType: ir.SetRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       CallEmit("PySet_New"),
	})

	r.FuncOp(OpSpec{
		Name:       "builtins.frozenset",
		ArgTypes:   []ir.RType{ir.ObjectRPrimitive},
		ResultType: ir.ObjectRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       CallEmit("PyFrozenSet_New"),
	})

	r.FuncOp(OpSpec{
		Name:       "builtins.len",
		ArgTypes:   []ir.RType{ir.SetRPrimitive},
		ResultType: ir.IntRPrimitive,
		ErrorKind:  ir.ErrNever,
		Emit:       emitSetLen,
	})

	r.BinaryOp(OpSpec{
		Name:       "in",
		ArgTypes:   []ir.RType{ir.ObjectRPrimitive, ir.SetRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrMagic,
		FormatStr:  "{dest} = {args[0]} in {args[1]} :: set",
		Emit:       NegativeIntEmit("{dest} = PySet_Contains({args[1]}, {args[0]});"),
	})

	r.MethodOp(OpSpec{
		Name:       "remove",
		ArgTypes:   []ir.RType{ir.SetRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrFalse,
		Emit:       CallEmit("CPySet_Remove"),
	})

	r.MethodOp(OpSpec{
		Name:       "discard",
		ArgTypes:   []ir.RType{ir.SetRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrFalse,
		Emit:       CallNegativeBoolEmit("PySet_Discard"),
	})

	r.MethodOp(OpSpec{
		Name:       "add",
		ArgTypes:   []ir.RType{ir.SetRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrFalse,
		Emit:       CallNegativeBoolEmit("PySet_Add"),
	})

	// Not a public API but looks like it should be fine.
	r.MethodOp(OpSpec{
		Name:       "update",
		ArgTypes:   []ir.RType{ir.SetRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrFalse,
		Emit:       CallNegativeBoolEmit("_PySet_Update"),
	})

	r.MethodOp(OpSpec{
		Name:       "clear",
		ArgTypes:   []ir.RType{ir.SetRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrFalse,
		Emit:       CallNegativeBoolEmit("PySet_Clear"),
	})

	r.MethodOp(OpSpec{
		Name:       "pop",
		ArgTypes:   []ir.RType{ir.SetRPrimitive},
		ResultType: ir.ObjectRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       CallEmit("PySet_Pop"),
	})
}
