// Package emit generates C source from the final IR. It consumes the IR
// after exception splitting and reference-count insertion; the ops by then
// carry explicit control flow and ownership, so emission is a per-op
// translation.
package emit

import (
	"fmt"
	"strings"

	"pyrite/internal/ir"
)

// C name prefixes shared by all generated code.
const (
	RegPrefix    = "cpy_r_"
	NativePrefix = "CPyDef_"
	StaticPrefix = "CPyStatic_"
	TypePrefix   = "CPyType_"
	ModulePrefix = "CPyModule_"
)

// HeaderDeclaration is a C declaration hoisted to the module header, with
// the struct names it depends on.
type HeaderDeclaration struct {
	Dependencies map[string]struct{}
	Body         []string
}

// EmitterContext is the emitter state shared for an entire module: the temp
// counter and the header declarations, keyed by the C identifier each one
// declares.
type EmitterContext struct {
	tempCounter  int
	Declarations map[string]*HeaderDeclaration
	declOrder    []string
}

func NewEmitterContext() *EmitterContext {
	return &EmitterContext{Declarations: make(map[string]*HeaderDeclaration)}
}

// DeclarationLines returns the accumulated header declarations in insertion
// order.
func (c *EmitterContext) DeclarationLines() []string {
	var lines []string
	for _, name := range c.declOrder {
		lines = append(lines, c.Declarations[name].Body...)
	}
	return lines
}

// Emitter is a helper for C code generation.
type Emitter struct {
	Context *EmitterContext
	Env     *ir.Environment

	fragments []string
	indent    int
}

func NewEmitter(context *EmitterContext, env *ir.Environment) *Emitter {
	if env == nil {
		env = ir.NewEnvironment("")
	}
	return &Emitter{Context: context, Env: env}
}

func (e *Emitter) Indent() { e.indent += 4 }

func (e *Emitter) Dedent() {
	e.indent -= 4
	if e.indent < 0 {
		panic("emitter dedented past the margin")
	}
}

func (e *Emitter) Label(block *ir.BasicBlock) string {
	return fmt.Sprintf("CPyL%d", block.Label)
}

func (e *Emitter) Reg(v ir.Value) string {
	return RegPrefix + v.Name()
}

func (e *Emitter) EmitLine(line string) {
	if strings.HasPrefix(line, "}") {
		e.Dedent()
	}
	e.fragments = append(e.fragments, strings.Repeat(" ", e.indent)+line+"\n")
	if strings.HasSuffix(line, "{") {
		e.Indent()
	}
}

func (e *Emitter) EmitLines(lines ...string) {
	for _, line := range lines {
		e.EmitLine(line)
	}
}

// EmitLabel writes a block label; the extra semicolon avoids an error when
// the next line declares a temp var.
func (e *Emitter) EmitLabel(block *ir.BasicBlock) {
	e.fragments = append(e.fragments, fmt.Sprintf("%s: ;\n", e.Label(block)))
}

func (e *Emitter) EmitFromEmitter(other *Emitter) {
	e.fragments = append(e.fragments, other.fragments...)
}

func (e *Emitter) TempName() string {
	e.Context.tempCounter++
	return fmt.Sprintf("__tmp%d", e.Context.tempCounter)
}

func (e *Emitter) Fragments() []string { return e.fragments }

func (e *Emitter) String() string { return strings.Join(e.fragments, "") }

func (e *Emitter) CType(t ir.RType) string { return ir.CTypeFor(t) }

// CTypeSpaced is the C type with a trailing space unless it ends in '*'.
func (e *Emitter) CTypeSpaced(t ir.RType) string {
	ctype := e.CType(t)
	if strings.HasSuffix(ctype, "*") {
		return ctype
	}
	return ctype + " "
}

func (e *Emitter) CErrorValue(t ir.RType) string { return ir.ErrorValue(t) }

// DeclareTupleStruct hoists the C struct declaration of a fixed-length
// tuple type, deduplicating by struct name.
func (e *Emitter) DeclareTupleStruct(t *ir.RTuple) {
	name := t.StructName()
	if _, done := e.Context.Declarations[name]; done {
		return
	}
	deps := make(map[string]struct{})
	body := []string{fmt.Sprintf("typedef struct %s {", name)}
	for i, typ := range t.Types() {
		if nested, ok := typ.(*ir.RTuple); ok {
			deps[nested.StructName()] = struct{}{}
			e.DeclareTupleStruct(nested)
		}
		body = append(body, fmt.Sprintf("    %sf%d;", e.CTypeSpaced(typ), i))
	}
	body = append(body, fmt.Sprintf("} %s;", name))
	e.Context.Declarations[name] = &HeaderDeclaration{Dependencies: deps, Body: body}
	e.Context.declOrder = append(e.Context.declOrder, name)
}

// EmitIncRef increments the reference count of the C expression dest. For
// composite unboxed structures the counts of each component are incremented
// recursively; pointerless unboxed values need nothing.
func (e *Emitter) EmitIncRef(dest string, t ir.RType) {
	switch {
	case ir.IsIntRPrimitive(t):
		e.EmitLine(fmt.Sprintf("CPyTagged_IncRef(%s);", dest))
	case isTuple(t):
		for i, item := range t.(*ir.RTuple).Types() {
			e.EmitIncRef(fmt.Sprintf("%s.f%d", dest, i), item)
		}
	case !t.IsUnboxed():
		e.EmitLine(fmt.Sprintf("Py_INCREF(%s);", dest))
	}
}

// EmitDecRef decrements the reference count of the C expression dest,
// mirroring EmitIncRef.
func (e *Emitter) EmitDecRef(dest string, t ir.RType) {
	switch {
	case ir.IsIntRPrimitive(t):
		e.EmitLine(fmt.Sprintf("CPyTagged_DecRef(%s);", dest))
	case isTuple(t):
		for i, item := range t.(*ir.RTuple).Types() {
			e.EmitDecRef(fmt.Sprintf("%s.f%d", dest, i), item)
		}
	case !t.IsUnboxed():
		e.EmitLine(fmt.Sprintf("Py_DECREF(%s);", dest))
	}
}

func isTuple(t ir.RType) bool {
	_, ok := t.(*ir.RTuple)
	return ok
}

// TupleUndefinedCheckCond renders the error check of a tuple struct value:
// the first element is compared against its sentinel.
func (e *Emitter) TupleUndefinedCheckCond(t *ir.RTuple, expr, compare string) string {
	if len(t.Types()) == 0 {
		return fmt.Sprintf("%s.empty %s 1", expr, compare)
	}
	item := t.Types()[0]
	return fmt.Sprintf("%s.f0 %s %s", expr, compare, ir.ErrorValue(item))
}

// StaticName renders the C name of a static, optionally namespaced by
// module.
func StaticName(identifier, moduleName string) string {
	if moduleName != "" {
		return StaticPrefix + moduleName + "___" + identifier
	}
	return StaticPrefix + identifier
}

// NativeFunctionName renders the C name of a compiled function.
func NativeFunctionName(fn *ir.FuncIR) string {
	name := fn.Name
	if fn.ClassName != "" {
		name = fn.ClassName + "___" + name
	}
	return NativePrefix + fn.ModuleName + "___" + name
}
