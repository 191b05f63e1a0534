package emit

import (
	"fmt"
	"strings"

	"pyrite/internal/analysis"
	"pyrite/internal/ir"
)

// Whether to insert debug asserts for all error handling, to quickly catch
// errors propagating without exceptions set.
const debugErrors = false

// NativeFunctionHeader renders the C signature of a compiled function.
func NativeFunctionHeader(fn *ir.FuncIR, e *Emitter) string {
	var args []string
	for _, arg := range fn.Args() {
		args = append(args, fmt.Sprintf("%s%s%s", e.CTypeSpaced(arg.Type), RegPrefix, arg.Name))
	}
	argList := strings.Join(args, ", ")
	if argList == "" {
		argList = "void"
	}
	return fmt.Sprintf("%s%s(%s)", e.CTypeSpaced(fn.RetType()), NativeFunctionName(fn), argList)
}

// GenerateNativeFunction emits the complete C body of a function into the
// given emitter. Locals that are not definitely assigned on entry are
// initialized to their undefined value so error paths can release them
// safely.
func GenerateNativeFunction(fn *ir.FuncIR, emitter *Emitter, sourcePath, moduleName string) {
	declarations := NewEmitter(emitter.Context, fn.Env)
	body := NewEmitter(emitter.Context, fn.Env)
	visitor := &functionEmitter{
		body:         body,
		declarations: declarations,
		env:          fn.Env,
		sourcePath:   sourcePath,
		moduleName:   moduleName,
	}

	declarations.EmitLine(fmt.Sprintf("%s {", NativeFunctionHeader(fn, emitter)))
	body.Indent()

	needsInit := varsNeedingInit(fn)
	argCount := len(fn.Args())
	for i, r := range fn.Env.Regs() {
		if tt, ok := r.Type().(*ir.RTuple); ok {
			emitter.DeclareTupleStruct(tt)
		}
		if i < argCount {
			continue
		}
		init := ""
		if needsInit.Contains(r) {
			init = fmt.Sprintf(" = %s", ir.UndefinedValue(r.Type()))
		}
		declarations.EmitLine(fmt.Sprintf("%s%s%s%s;", declarations.CTypeSpaced(r.Type()), RegPrefix, r.Name(), init))
	}

	for i, block := range fn.Blocks {
		block.Label = i
	}
	for _, block := range fn.Blocks {
		body.EmitLabel(block)
		for _, op := range block.Ops {
			visitor.emitOp(op)
		}
	}
	body.EmitLine("}")

	emitter.EmitFromEmitter(declarations)
	emitter.EmitFromEmitter(body)
}

// varsNeedingInit returns the registers that may be read while still
// undefined on some path, per the undefined-register analysis.
func varsNeedingInit(fn *ir.FuncIR) analysis.ValueSet {
	cfg := analysis.GetCFG(fn.Blocks)
	initial := analysis.NewValueSet()
	for _, reg := range fn.ArgRegs() {
		initial.Add(reg)
	}
	undef := analysis.AnalyzeUndefinedRegs(fn.Blocks, cfg, fn.Env, initial)
	needed := analysis.NewValueSet()
	for _, block := range fn.Blocks {
		for i, op := range block.Ops {
			key := analysis.OpKey{Block: block, Index: i}
			for _, src := range op.Sources() {
				if undef.Before[key].Contains(src) {
					needed.Add(src)
				}
			}
		}
	}
	return needed
}

// functionEmitter lowers IR ops to C one at a time. It also backs the
// primitive-op emit callbacks.
type functionEmitter struct {
	body         *Emitter
	declarations *Emitter
	env          *ir.Environment
	sourcePath   string
	moduleName   string
}

var _ ir.EmitterInterface = (*functionEmitter)(nil)

func (f *functionEmitter) Reg(v ir.Value) string { return f.body.Reg(v) }
func (f *functionEmitter) CErrorValue(t ir.RType) string { return f.body.CErrorValue(t) }
func (f *functionEmitter) TempName() string { return f.body.TempName() }
func (f *functionEmitter) EmitLine(line string) { f.body.EmitLine(line) }
func (f *functionEmitter) EmitLines(lines ...string) { f.body.EmitLines(lines...) }
func (f *functionEmitter) EmitDeclaration(line string) { f.declarations.EmitLine(line) }

func (f *functionEmitter) label(block *ir.BasicBlock) string { return f.body.Label(block) }

func (f *functionEmitter) emitOp(op ir.Op) {
	switch o := op.(type) {
	case *ir.Goto:
		f.EmitLine(fmt.Sprintf("goto %s;", f.label(o.Target)))
	case *ir.Branch:
		f.emitBranch(o)
	case *ir.Return:
		f.EmitLine(fmt.Sprintf("return %s;", f.Reg(o.Reg)))
	case *ir.Unreachable:
		f.EmitLine("CPy_Unreachable();")
	case *ir.Assign:
		f.EmitLine(fmt.Sprintf("%s = %s;", f.Reg(o.Dest), f.Reg(o.Src)))
	case *ir.LoadInt:
		// Literals load in tagged representation.
		f.EmitLine(fmt.Sprintf("%s = %d;", f.Reg(o), o.Value*2))
	case *ir.LoadErrorValue:
		f.emitLoadErrorValue(o)
	case *ir.GetAttr:
		f.EmitLine(fmt.Sprintf("%s = %s(%s);", f.Reg(o),
			nativeGetterName(o.ClassType.Class(), o.Attr), f.Reg(o.Obj)))
	case *ir.SetAttr:
		f.EmitLine(fmt.Sprintf("%s = %s(%s, %s);", f.Reg(o),
			nativeSetterName(o.ClassType.Class(), o.Attr), f.Reg(o.Obj), f.Reg(o.Src)))
	case *ir.LoadStatic:
		f.emitLoadStatic(o)
	case *ir.TupleGet:
		f.EmitLine(fmt.Sprintf("%s = %s.f%d;", f.Reg(o), f.Reg(o.Src), o.Index))
		f.body.EmitIncRef(f.Reg(o), o.Type())
	case *ir.TupleSet:
		for i, item := range o.Items {
			f.EmitLine(fmt.Sprintf("%s.f%d = %s;", f.Reg(o), i, f.Reg(item)))
			f.body.EmitIncRef(fmt.Sprintf("%s.f%d", f.Reg(o), i), item.Type())
		}
	case *ir.Call:
		f.emitCall(o)
	case *ir.MethodCall:
		f.emitMethodCall(o)
	case *ir.PyCall:
		f.emitPyCall(o)
	case *ir.PyMethodCall:
		f.emitPyMethodCall(o)
	case *ir.PrimitiveOp:
		f.emitPrimitiveOp(o)
	case *ir.IncRef:
		f.body.EmitIncRef(f.Reg(o.Src), o.Src.Type())
	case *ir.DecRef:
		f.body.EmitDecRef(f.Reg(o.Src), o.Src.Type())
	case *ir.Cast:
		f.emitCast(o)
	case *ir.Box:
		f.emitBox(o)
	case *ir.Unbox:
		f.emitUnbox(o)
	case *ir.RaiseStandardError:
		f.emitRaiseStandardError(o)
	default:
		panic(fmt.Sprintf("unsupported op in C emission: %T", op))
	}
}

func (f *functionEmitter) emitBranch(op *ir.Branch) {
	neg := ""
	if op.Negated {
		neg = "!"
	}
	var cond string
	switch op.Op {
	case ir.BranchBool:
		cond = neg + f.Reg(op.Left)
	case ir.BranchIsNone:
		compare := "=="
		if op.Negated {
			compare = "!="
		}
		cond = fmt.Sprintf("%s %s Py_None", f.Reg(op.Left), compare)
	case ir.BranchIsError:
		compare := "=="
		if op.Negated {
			compare = "!="
		}
		if tt, ok := op.Left.Type().(*ir.RTuple); ok {
			cond = f.body.TupleUndefinedCheckCond(tt, f.Reg(op.Left), compare)
		} else {
			cond = fmt.Sprintf("%s %s %s", f.Reg(op.Left), compare, f.CErrorValue(op.Left.Type()))
		}
	default:
		panic("invalid branch")
	}

	// Error checks are marked unlikely for the C compiler.
	if op.Traceback != nil {
		cond = fmt.Sprintf("unlikely(%s)", cond)
	}

	f.EmitLine(fmt.Sprintf("if (%s) {", cond))
	if op.Traceback != nil {
		f.EmitLine(fmt.Sprintf("CPy_AddTraceback(\"%s\", \"%s\", %d, %s);",
			strings.ReplaceAll(f.sourcePath, "\\", "\\\\"),
			op.Traceback.Function, op.Traceback.Line,
			StaticName("globals", f.moduleName)))
		if debugErrors {
			f.EmitLine(`assert(PyErr_Occurred() != NULL && "failure w/o err!");`)
		}
	}
	f.EmitLines(
		fmt.Sprintf("goto %s;", f.label(op.True)),
		"} else",
		fmt.Sprintf("    goto %s;", f.label(op.False)))
}

func (f *functionEmitter) emitLoadErrorValue(op *ir.LoadErrorValue) {
	if tt, ok := op.Type().(*ir.RTuple); ok {
		for i, item := range tt.Types() {
			f.EmitLine(fmt.Sprintf("%s.f%d = %s;", f.Reg(op), i, ir.ErrorValue(item)))
		}
		return
	}
	f.EmitLine(fmt.Sprintf("%s = %s;", f.Reg(op), ir.ErrorValue(op.Type())))
}

func (f *functionEmitter) emitLoadStatic(op *ir.LoadStatic) {
	var name string
	switch op.Namespace {
	case ir.NamespaceType:
		name = fmt.Sprintf("(PyObject *)%s%s", TypePrefix, op.Identifier)
	case ir.NamespaceModule:
		name = ModulePrefix + op.Identifier
	default:
		name = StaticName(op.Identifier, op.ModuleName)
	}
	f.EmitLine(fmt.Sprintf("%s = %s;", f.Reg(op), name))
}

func (f *functionEmitter) emitCall(op *ir.Call) {
	args := make([]string, len(op.Args))
	for i, arg := range op.Args {
		args[i] = f.Reg(arg)
	}
	fn := NativePrefix + strings.ReplaceAll(op.Fn, ".", "___")
	f.EmitLine(fmt.Sprintf("%s = %s(%s);", f.Reg(op), fn, strings.Join(args, ", ")))
}

func (f *functionEmitter) emitMethodCall(op *ir.MethodCall) {
	// Always a direct call to the receiver class's native method; the
	// vtable is not consulted.
	args := []string{f.Reg(op.Obj)}
	for _, arg := range op.Args {
		args = append(args, f.Reg(arg))
	}
	cls := op.ReceiverType.Class()
	fn := fmt.Sprintf("%s%s___%s___%s", NativePrefix, cls.ModuleName, cls.Name, op.Method)
	f.EmitLine(fmt.Sprintf("%s = %s(%s);", f.Reg(op), fn, strings.Join(args, ", ")))
}

func (f *functionEmitter) emitPyCall(op *ir.PyCall) {
	args := make([]string, len(op.Args))
	for i, arg := range op.Args {
		args[i] = f.Reg(arg)
	}
	all := strings.Join(append([]string{f.Reg(op.Function)}, args...), ", ")
	f.EmitLine(fmt.Sprintf("%s = PyObject_CallFunctionObjArgs(%s, NULL);", f.Reg(op), all))
}

func (f *functionEmitter) emitPyMethodCall(op *ir.PyMethodCall) {
	args := make([]string, len(op.Args))
	for i, arg := range op.Args {
		args[i] = f.Reg(arg)
	}
	all := strings.Join(append([]string{f.Reg(op.Obj), f.Reg(op.Method)}, args...), ", ")
	f.EmitLine(fmt.Sprintf("%s = PyObject_CallMethodObjArgs(%s, NULL);", f.Reg(op), all))
}

func (f *functionEmitter) emitPrimitiveOp(op *ir.PrimitiveOp) {
	args := make([]string, len(op.Args))
	for i, arg := range op.Args {
		args[i] = f.Reg(arg)
	}
	dest := ""
	if !op.IsVoid() {
		dest = f.Reg(op)
	}
	op.Desc.Emit(f, args, dest)
}

func (f *functionEmitter) emitCast(op *ir.Cast) {
	src, dest := f.Reg(op.Src), f.Reg(op)
	var check string
	switch t := op.Type().(type) {
	case *ir.RInstance:
		check = fmt.Sprintf("PyObject_TypeCheck(%s, %s%s)", src, TypePrefix, t.Class().Name)
	case *ir.ROptional:
		f.EmitLine(fmt.Sprintf("%s = %s;", dest, src))
		return
	default:
		switch {
		case ir.IsListRPrimitive(op.Type()):
			check = fmt.Sprintf("PyList_Check(%s)", src)
		case ir.IsDictRPrimitive(op.Type()):
			check = fmt.Sprintf("PyDict_Check(%s)", src)
		case ir.IsStrRPrimitive(op.Type()):
			check = fmt.Sprintf("PyUnicode_Check(%s)", src)
		case ir.IsTupleRPrimitive(op.Type()):
			check = fmt.Sprintf("PyTuple_Check(%s)", src)
		case ir.IsSetRPrimitive(op.Type()):
			check = fmt.Sprintf("PySet_Check(%s)", src)
		case ir.IsNoneRPrimitive(op.Type()):
			check = fmt.Sprintf("%s == Py_None", src)
		default:
			f.EmitLine(fmt.Sprintf("%s = %s;", dest, src))
			return
		}
	}
	f.EmitLines(
		fmt.Sprintf("if (%s)", check),
		fmt.Sprintf("    %s = %s;", dest, src),
		"else {",
		fmt.Sprintf("    CPy_TypeError(\"%s\"); %s = NULL;", op.Type(), dest),
		"}")
}

func (f *functionEmitter) emitBox(op *ir.Box) {
	src, dest := f.Reg(op.Src), f.Reg(op)
	switch t := op.Src.Type().(type) {
	case *ir.RTuple:
		f.EmitLine(fmt.Sprintf("%s = PyTuple_New(%d);", dest, len(t.Types())))
		f.EmitLine(fmt.Sprintf("if (unlikely(%s == NULL))", dest))
		f.EmitLine("    CPyError_OutOfMemory();")
		for i, item := range t.Types() {
			inner := f.TempName()
			f.EmitDeclaration(fmt.Sprintf("PyObject *%s;", inner))
			f.emitBoxItem(inner, fmt.Sprintf("%s.f%d", src, i), item)
			f.EmitLine(fmt.Sprintf("PyTuple_SET_ITEM(%s, %d, %s);", dest, i, inner))
		}
	default:
		f.emitBoxItem(dest, src, op.Src.Type())
	}
}

func (f *functionEmitter) emitBoxItem(dest, src string, t ir.RType) {
	switch {
	case ir.IsIntRPrimitive(t) || ir.IsShortIntRPrimitive(t):
		f.EmitLine(fmt.Sprintf("%s = CPyTagged_StealAsObject(%s);", dest, src))
	case ir.IsBoolRPrimitive(t):
		f.EmitLine(fmt.Sprintf("%s = PyBool_FromLong(%s);", dest, src))
	default:
		f.EmitLine(fmt.Sprintf("%s = %s;", dest, src))
	}
}

func (f *functionEmitter) emitUnbox(op *ir.Unbox) {
	src, dest := f.Reg(op.Src), f.Reg(op)
	switch {
	case ir.IsIntRPrimitive(op.Type()):
		f.EmitLines(
			fmt.Sprintf("if (likely(PyLong_Check(%s)))", src),
			fmt.Sprintf("    %s = CPyTagged_FromObject(%s);", dest, src),
			"else {",
			fmt.Sprintf("    CPy_TypeError(\"int\"); %s = %s;", dest, ir.ErrorValue(op.Type())),
			"}")
	case ir.IsBoolRPrimitive(op.Type()):
		f.EmitLines(
			fmt.Sprintf("if (likely(PyBool_Check(%s)))", src),
			fmt.Sprintf("    %s = (%s == Py_True);", dest, src),
			"else {",
			fmt.Sprintf("    CPy_TypeError(\"bool\"); %s = %s;", dest, ir.ErrorValue(op.Type())),
			"}")
	default:
		f.EmitLine(fmt.Sprintf("%s = %s;", dest, src))
	}
}

func (f *functionEmitter) emitRaiseStandardError(op *ir.RaiseStandardError) {
	if op.HasMsg {
		f.EmitLine(fmt.Sprintf("PyErr_SetString(PyExc_%s, \"%s\"); %s = 0;",
			op.ClassName, op.Message, f.Reg(op)))
	} else {
		f.EmitLine(fmt.Sprintf("PyErr_SetNone(PyExc_%s); %s = 0;", op.ClassName, f.Reg(op)))
	}
}

func nativeGetterName(cls *ir.ClassIR, attribute string) string {
	return fmt.Sprintf("native_%s_get%s", cls.Name, attribute)
}

func nativeSetterName(cls *ir.ClassIR, attribute string) string {
	return fmt.Sprintf("native_%s_set%s", cls.Name, attribute)
}
