package primitives

import (
	"fmt"

	"pyrite/internal/ir"
)

func emitNone(e ir.EmitterInterface, args []string, dest string) {
	e.EmitLines(
		fmt.Sprintf("%s = Py_None;", dest),
		fmt.Sprintf("Py_INCREF(%s);", dest))
}

func registerMiscOps(r *Registry) {
	r.NameRefOp(OpSpec{
		Name:       "builtins.None",
		ResultType: ir.NoneRPrimitive,
		ErrorKind:  ir.ErrNever,
		Emit:       emitNone,
	})

	r.NameRefOp(OpSpec{
		Name:       "builtins.True",
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrNever,
		Emit:       SimpleEmit("{dest} = 1;"),
	})

	r.NameRefOp(OpSpec{
		Name:       "builtins.False",
		ResultType: ir.BoolRPrimitive,
		ErrorKind:  ir.ErrNever,
		Emit:       SimpleEmit("{dest} = 0;"),
	})
}
