package primitives

// Varying-length tuple ops, for tuples represented as boxed objects
// (the tuple primitive, not fixed-length tuple structs).

import (
	"fmt"

	"pyrite/internal/ir"
)

func emitTupleLen(e ir.EmitterInterface, args []string, dest string) {
	temp := e.TempName()
	e.EmitDeclaration(fmt.Sprintf("Py_ssize_t %s;", temp))
	e.EmitLine(fmt.Sprintf("%s = PyTuple_GET_SIZE(%s);", temp, args[0]))
	e.EmitLine(fmt.Sprintf("%s = CPyTagged_ShortFromSsize_t(%s);", dest, temp))
}

func emitNewTuple(e ir.EmitterInterface, args []string, dest string) {
	line := fmt.Sprintf("%s = PyTuple_Pack(%d", dest, len(args))
	for _, arg := range args {
		line += ", " + arg
	}
	e.EmitLine(line + ");")
}

func registerTupleOps(r *Registry) {
	r.MethodOp(OpSpec{
		Name:       "__getitem__",
		ArgTypes:   []ir.RType{ir.TupleRPrimitive, ir.IntRPrimitive},
		ResultType: ir.ObjectRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       CallEmit("CPySequenceTuple_GetItem"),
	})

	r.NewTupleOp = r.CustomOp(OpSpec{
		Name:       "new_tuple",
		ArgTypes:   []ir.RType{ir.ObjectRPrimitive},
		ResultType: ir.TupleRPrimitive,
		IsVarArg:   true,
		ErrorKind:  ir.ErrMagic,
		FormatStr:  "{dest} = ({comma_args}) :: tuple",
		Emit:       emitNewTuple,
	})

	r.FuncOp(OpSpec{
		Name:       "builtins.len",
		ArgTypes:   []ir.RType{ir.TupleRPrimitive},
		ResultType: ir.IntRPrimitive,
		ErrorKind:  ir.ErrNever,
		Emit:       emitTupleLen,
	})

	r.FuncOp(OpSpec{
		Name:       "builtins.tuple",
		ArgTypes:   []ir.RType{ir.ListRPrimitive},
		ResultType: ir.TupleRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       CallEmit("PyList_AsTuple"),
		Priority:   2,
	})

	r.FuncOp(OpSpec{
		Name:       "builtins.tuple",
		ArgTypes:   []ir.RType{ir.ObjectRPrimitive},
		ResultType: ir.TupleRPrimitive,
		ErrorKind:  ir.ErrMagic,
		Emit:       CallEmit("PySequence_Tuple"),
	})
}
