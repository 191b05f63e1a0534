package primitives

import (
	"fmt"

	"pyrite/internal/ir"
)

func strCompareEmit(comparison string) ir.EmitCallback {
	return func(e ir.EmitterInterface, args []string, dest string) {
		temp := e.TempName()
		e.EmitDeclaration(fmt.Sprintf("int %s;", temp))
		e.EmitLines(
			fmt.Sprintf("%s = PyUnicode_Compare(%s, %s);", temp, args[0], args[1]),
			fmt.Sprintf("if (%s == -1 && PyErr_Occurred())", temp),
			fmt.Sprintf("    %s = 2;", dest),
			"else",
			fmt.Sprintf("    %s = (%s %s);", dest, temp, comparison))
	}
}

func registerStrOps(r *Registry) {
	r.NameRefOp(OpSpec{
		Name:       "builtins.str",
		ResultType: ir.ObjectRPrimitive,
		ErrorKind:  ir.ErrNever,
		Emit:       SimpleEmit("{dest} = (PyObject *)&PyUnicode_Type;"),
		IsBorrowed: true,
	})

	r.FuncOp(OpSpec{
		Name:       "builtins.str",
		ArgTypes:   []ir.RType{ir.ObjectRPrimitive},
		ResultType: ir.StrRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       SimpleEmit("{dest} = PyObject_Str({args[0]});"),
	})

	r.BinaryOp(OpSpec{
		Name:       "+",
		ArgTypes:   []ir.RType{ir.StrRPrimitive, ir.StrRPrimitive},
		ResultType: ir.StrRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       SimpleEmit("{dest} = PyUnicode_Concat({args[0]}, {args[1]});"),
	})

	r.MethodOp(OpSpec{
		Name:       "join",
		ArgTypes:   []ir.RType{ir.StrRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.StrRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       SimpleEmit("{dest} = PyUnicode_Join({args[0]}, {args[1]});"),
	})

	// PyUnicode_Append reuses the left operand when its refcount is 1, the
	// same trick the interpreter plays.
	r.BinaryOp(OpSpec{
		Name:       "+=",
		ArgTypes:   []ir.RType{ir.StrRPrimitive, ir.StrRPrimitive},
		ResultType: ir.StrRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       SimpleEmit("{dest} = {args[0]}; PyUnicode_Append(&{dest}, {args[1]});"),
	})

	r.BinaryOp(OpSpec{
		Name:       "==",
		ArgTypes:   []ir.RType{ir.StrRPrimitive, ir.StrRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       strCompareEmit("== 0"),
	})

	r.BinaryOp(OpSpec{
		Name:       "!=",
		ArgTypes:   []ir.RType{ir.StrRPrimitive, ir.StrRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       strCompareEmit("!= 0"),
	})
}
