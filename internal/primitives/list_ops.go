package primitives

import (
	"fmt"

	"pyrite/internal/ir"
)

func emitNewList(e ir.EmitterInterface, args []string, dest string) {
	e.EmitLine(fmt.Sprintf("%s = PyList_New(%d); ", dest, len(args)))
	e.EmitLine(fmt.Sprintf("if (likely(%s != NULL)) {", dest))
	for i, arg := range args {
		e.EmitLine(fmt.Sprintf("PyList_SET_ITEM(%s, %d, %s);", dest, i, arg))
	}
	e.EmitLine("}")
}

func emitListMultiply(e ir.EmitterInterface, dest, lst, num string) {
	temp := e.TempName()
	e.EmitDeclaration(fmt.Sprintf("Py_ssize_t %s;", temp))
	e.EmitLines(
		fmt.Sprintf("%s = CPyTagged_AsSsize_t(%s);", temp, num),
		fmt.Sprintf("if (%s == -1 && PyErr_Occurred())", temp),
		"    CPyError_OutOfMemory();",
		fmt.Sprintf("%s = PySequence_Repeat(%s, %s);", dest, lst, temp))
}

func emitListLen(e ir.EmitterInterface, args []string, dest string) {
	temp := e.TempName()
	e.EmitDeclaration(fmt.Sprintf("Py_ssize_t %s;", temp))
	e.EmitLine(fmt.Sprintf("%s = PyList_GET_SIZE(%s);", temp, args[0]))
	e.EmitLine(fmt.Sprintf("%s = CPyTagged_ShortFromSsize_t(%s);", dest, temp))
}

func registerListOps(r *Registry) {
	r.NameRefOp(OpSpec{
		Name:       "builtins.list",
		ResultType: ir.ObjectRPrimitive,
		ErrorKind:  ir.ErrNever,
		Emit:       SimpleEmit("{dest} = (PyObject *)&PyList_Type;"),
		IsBorrowed: true,
	})

	r.FuncOp(OpSpec{
		Name:       "builtins.list",
		ArgTypes:   []ir.RType{ir.ObjectRPrimitive},
		ResultType: ir.ListRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       CallEmit("PySequence_List"),
	})

	r.NewListOp = r.CustomOp(OpSpec{
		Name:       "new_list",
		ArgTypes:   []ir.RType{ir.ObjectRPrimitive},
		ResultType: ir.ListRPrimitive,
		IsVarArg:   true,
		ErrorKind:  ir.ErrMagic,
		FormatStr:  "{dest} = [{comma_args}]",
		Emit:       emitNewList,
	})

	r.MethodOp(OpSpec{
		Name:       "__getitem__",
		ArgTypes:   []ir.RType{ir.ListRPrimitive, ir.IntRPrimitive},
		ResultType: ir.ObjectRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       CallEmit("CPyList_GetItem"),
	})

	// Version for indices known to be short: no tagged-int check, but the
	// list bounds are still checked.
	r.MethodOp(OpSpec{
		Name:       "__getitem__",
		ArgTypes:   []ir.RType{ir.ListRPrimitive, ir.ShortIntRPrimitive},
		ResultType: ir.ObjectRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       CallEmit("CPyList_GetItemShort"),
		Priority:   2,
	})

	// Unsafe: assumes the index is a non-negative short integer in bounds
	// for the list.
	r.ListGetItemUnsafeOp = r.CustomOp(OpSpec{
		Name:       "__getitem__",
		ArgTypes:   []ir.RType{ir.ListRPrimitive, ir.ShortIntRPrimitive},
		ResultType: ir.ObjectRPrimitive,
		ErrorKind:  ir.ErrNever,
		FormatStr:  "{dest} = {args[0]}[{args[1]}] :: unsafe list",
		Emit:       SimpleEmit("{dest} = CPyList_GetItemUnsafe({args[0]}, {args[1]});"),
	})

	r.MethodOp(OpSpec{
		Name:       "__setitem__",
		ArgTypes:   []ir.RType{ir.ListRPrimitive, ir.IntRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrFalse,
		Emit:       CallEmit("CPyList_SetItem"),
	})

	r.MethodOp(OpSpec{
		Name:       "append",
		ArgTypes:   []ir.RType{ir.ListRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrFalse,
		Emit:       CallNegativeBoolEmit("PyList_Append"),
	})

	r.MethodOp(OpSpec{
		Name:       "extend",
		ArgTypes:   []ir.RType{ir.ListRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.ObjectRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       SimpleEmit("{dest} = _PyList_Extend((PyListObject *) {args[0]}, {args[1]});"),
	})

	r.MethodOp(OpSpec{
		Name:       "pop",
		ArgTypes:   []ir.RType{ir.ListRPrimitive},
		ResultType: ir.ObjectRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       CallEmit("CPyList_PopLast"),
	})

	r.MethodOp(OpSpec{
		Name:       "pop",
		ArgTypes:   []ir.RType{ir.ListRPrimitive, ir.IntRPrimitive},
		ResultType: ir.ObjectRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       CallEmit("CPyList_Pop"),
	})

	r.MethodOp(OpSpec{
		Name:       "count",
		ArgTypes:   []ir.RType{ir.ListRPrimitive, ir.ObjectRPrimitive},
		ResultType: ir.ShortIntRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       CallEmit("CPyList_Count"),
	})

	r.BinaryOp(OpSpec{
		Name:       "*",
		ArgTypes:   []ir.RType{ir.ListRPrimitive, ir.IntRPrimitive},
		ResultType: ir.ListRPrimitive,
		ErrorKind:  ir.ErrMagic,
		FormatStr:  "{dest} = {args[0]} * {args[1]} :: list",
		Emit: func(e ir.EmitterInterface, args []string, dest string) {
			emitListMultiply(e, dest, args[0], args[1])
		},
	})

	r.BinaryOp(OpSpec{
		Name:       "*",
		ArgTypes:   []ir.RType{ir.IntRPrimitive, ir.ListRPrimitive},
		ResultType: ir.ListRPrimitive,
		ErrorKind:  ir.ErrMagic,
		FormatStr:  "{dest} = {args[0]} * {args[1]} :: list",
		Emit: func(e ir.EmitterInterface, args []string, dest string) {
			emitListMultiply(e, dest, args[1], args[0])
		},
	})

	r.FuncOp(OpSpec{
		Name:       "builtins.len",
		ArgTypes:   []ir.RType{ir.ListRPrimitive},
		ResultType: ir.ShortIntRPrimitive,
		ErrorKind:  ir.ErrNever,
		Emit:       emitListLen,
	})
}
