package primitives

import (
	"fmt"

	"pyrite/internal/ir"
)

// SimpleEmit renders a single C line from a template with {dest} and
// {args[N]} placeholders.
func SimpleEmit(template string) ir.EmitCallback {
	return func(e ir.EmitterInterface, args []string, dest string) {
		e.EmitLine(ir.FormatDescStr(template, args, dest))
	}
}

// CallEmit renders a plain C call: dest = fn(args...).
func CallEmit(fn string) ir.EmitCallback {
	return func(e ir.EmitterInterface, args []string, dest string) {
		e.EmitLine(ir.FormatDescStr(fmt.Sprintf("{dest} = %s({comma_args});", fn), args, dest))
	}
}

// CallNegativeBoolEmit renders a call to a C function that reports failure
// with a negative result: dest = fn(args...) >= 0.
func CallNegativeBoolEmit(fn string) ir.EmitCallback {
	return func(e ir.EmitterInterface, args []string, dest string) {
		e.EmitLine(ir.FormatDescStr(fmt.Sprintf("{dest} = %s({comma_args}) >= 0;", fn), args, dest))
	}
}

// NegativeIntEmit wraps a call returning int where a negative value means an
// error occurred; the boolean destination gets the error sentinel in that
// case.
func NegativeIntEmit(template string) ir.EmitCallback {
	return func(e ir.EmitterInterface, args []string, dest string) {
		temp := e.TempName()
		e.EmitDeclaration(fmt.Sprintf("int %s;", temp))
		e.EmitLine(ir.FormatDescStr(template, args, temp))
		e.EmitLines(
			fmt.Sprintf("if (%s < 0)", temp),
			fmt.Sprintf("    %s = %s;", dest, ir.ErrorValue(ir.BoolRPrimitive)),
			"else",
			fmt.Sprintf("    %s = %s;", dest, temp))
	}
}
