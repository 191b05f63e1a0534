package ir

import (
	"fmt"
	"strings"
)

// Error kinds: how an op signals failure.
const (
	// ErrNever means the op never generates an exception.
	ErrNever = iota
	// ErrMagic means the op stores the result type's error sentinel in its
	// result register on exception.
	ErrMagic
	// ErrFalse means the op produces a false boolean result on exception.
	ErrFalse
)

// NoTracebackLineNo marks ops whose failure should not produce a traceback
// entry.
const NoTracebackLineNo = -1

// Op is a single IR operation. Every op is also a Value: register ops are
// typed by their result, the rest are void.
type Op interface {
	Value
	ErrorKind() int
	Sources() []Value
}

// RegisterOp is an operation that can be written as r1 = f(r2, ..., rn): it
// takes some values, performs an operation, and its result (if any) is the
// op value itself.
type RegisterOp interface {
	Op
	isRegisterOp()
}

type registerOp struct {
	value
}

func (*registerOp) isRegisterOp() {}

// CanRaise reports whether the op may raise an exception.
func CanRaise(op Op) bool { return op.ErrorKind() != ErrNever }

// IsTerminator reports whether op ends a basic block.
func IsTerminator(op Op) bool {
	switch op.(type) {
	case *Goto, *Branch, *Return, *Unreachable:
		return true
	}
	return false
}

// UniqueSources returns op's sources with duplicates removed, preserving
// order.
func UniqueSources(op Op) []Value {
	var result []Value
	for _, src := range op.Sources() {
		seen := false
		for _, r := range result {
			if r == src {
				seen = true
				break
			}
		}
		if !seen {
			result = append(result, src)
		}
	}
	return result
}

// Goto is an unconditional jump.
type Goto struct {
	value
	Target *BasicBlock
}

func NewGoto(target *BasicBlock) *Goto {
	op := &Goto{Target: target}
	op.value = newValue(-1)
	return op
}

func (op *Goto) ErrorKind() int { return ErrNever }
func (op *Goto) Sources() []Value { return nil }

func (op *Goto) ToStr(env *Environment) string {
	return env.Format("goto %l", op.Target)
}

// Branch test variants.
const (
	// BranchBool tests a boolean value.
	BranchBool = 100
	// BranchIsNone tests an object value against None.
	BranchIsNone = 101
	// BranchIsError checks for the magic error sentinel; works for
	// arbitrary types.
	BranchIsError = 102
)

// TracebackEntry is attached to error-check branches so the back-end can
// assemble stack-trace entries (function name, line number).
type TracebackEntry struct {
	Function string
	Line     int
}

// Branch: if [not] r1 goto 1 else goto 2.
//
// Branch ops must not raise an exception. If a comparison, for example, can
// raise an exception, it needs to split into two ops and only the first one
// may fail.
type Branch struct {
	value
	Left    Value
	True    *BasicBlock
	False   *BasicBlock
	Op      int
	Negated bool

	// Traceback, if set, means the true label should generate a traceback
	// entry.
	Traceback *TracebackEntry
}

func NewBranch(left Value, trueTarget, falseTarget *BasicBlock, op int, line int) *Branch {
	b := &Branch{Left: left, True: trueTarget, False: falseTarget, Op: op}
	b.value = newValue(line)
	return b
}

func (op *Branch) ErrorKind() int { return ErrNever }
func (op *Branch) Sources() []Value { return []Value{op.Left} }

func (op *Branch) Invert() {
	op.True, op.False = op.False, op.True
	op.Negated = !op.Negated
}

var branchOpNames = map[int][2]string{
	BranchBool:    {"%r", "bool"},
	BranchIsNone:  {"%r is None", "object"},
	BranchIsError: {"is_error(%r)", ""},
}

func (op *Branch) ToStr(env *Environment) string {
	names := branchOpNames[op.Op]
	condFmt, typ := names[0], names[1]
	if op.Negated {
		condFmt = "not " + condFmt
	}
	cond := env.Format(condFmt, op.Left)
	tb := ""
	if op.Traceback != nil {
		tb = fmt.Sprintf(" (error at %s:%d)", op.Traceback.Function, op.Traceback.Line)
	}
	s := env.Format(fmt.Sprintf("if %s goto %%l%s else goto %%l", cond, tb), op.True, op.False)
	if typ != "" {
		s += " :: " + typ
	}
	return s
}

// Return exits the function with a value.
type Return struct {
	value
	Reg Value
}

func NewReturn(reg Value) *Return {
	op := &Return{Reg: reg}
	op.value = newValue(-1)
	return op
}

func (op *Return) ErrorKind() int { return ErrNever }
func (op *Return) Sources() []Value { return []Value{op.Reg} }

func (op *Return) ToStr(env *Environment) string {
	return env.Format("return %r", op.Reg)
}

// Unreachable ends blocks that cannot fall through, such as the end of a
// function the front-end has proven never completes normally. It leaves a
// note in the IR and keeps the block formatter honest; it is not generally
// processed by visitors.
type Unreachable struct {
	value
}

func NewUnreachable() *Unreachable {
	op := &Unreachable{}
	op.value = newValue(-1)
	return op
}

func (op *Unreachable) ErrorKind() int { return ErrNever }
func (op *Unreachable) Sources() []Value { return nil }

func (op *Unreachable) ToStr(env *Environment) string { return "unreachable" }

// IncRef increments the reference count of a value.
type IncRef struct {
	registerOp
	Src Value
}

func NewIncRef(src Value) *IncRef {
	if !src.Type().IsRefCounted() {
		panic("inc_ref on non-refcounted value")
	}
	op := &IncRef{Src: src}
	op.value = newValue(-1)
	return op
}

func (op *IncRef) ErrorKind() int { return ErrNever }
func (op *IncRef) Sources() []Value { return []Value{op.Src} }

func (op *IncRef) ToStr(env *Environment) string {
	s := env.Format("inc_ref %r", op.Src)
	if IsBoolRPrimitive(op.Src.Type()) || IsIntRPrimitive(op.Src.Type()) {
		s += " :: " + shortName(op.Src.Type().Name())
	}
	return s
}

// DecRef decrements the reference count of a value.
type DecRef struct {
	registerOp
	Src Value
}

func NewDecRef(src Value) *DecRef {
	if !src.Type().IsRefCounted() {
		panic("dec_ref on non-refcounted value")
	}
	op := &DecRef{Src: src}
	op.value = newValue(-1)
	return op
}

func (op *DecRef) ErrorKind() int { return ErrNever }
func (op *DecRef) Sources() []Value { return []Value{op.Src} }

func (op *DecRef) ToStr(env *Environment) string {
	s := env.Format("dec_ref %r", op.Src)
	if IsBoolRPrimitive(op.Src.Type()) || IsIntRPrimitive(op.Src.Type()) {
		s += " :: " + shortName(op.Src.Type().Name())
	}
	return s
}

// Call is a native call f(arg, ...). The call target can be a module-level
// function or a class.
type Call struct {
	registerOp
	Fn   string
	Args []Value
}

func NewCall(retType RType, fn string, args []Value, line int) *Call {
	op := &Call{Fn: fn, Args: args}
	op.value = newValue(line)
	op.typ = retType
	return op
}

func (op *Call) ErrorKind() int { return ErrMagic }
func (op *Call) Sources() []Value { return append([]Value(nil), op.Args...) }

func (op *Call) ToStr(env *Environment) string {
	args := make([]string, len(op.Args))
	for i, arg := range op.Args {
		args[i] = arg.Name()
	}
	name := op.Fn
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[idx+1:]
	}
	s := fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
	if !op.IsVoid() {
		s = env.Format("%r = ", op) + s
	}
	return s
}

// MethodCall is a native method call obj.m(arg, ...) dispatched through the
// receiver's vtable or directly.
type MethodCall struct {
	registerOp
	Obj    Value
	Method string
	Args   []Value

	ReceiverType *RInstance
}

func NewMethodCall(retType RType, obj Value, method string, args []Value, line int) *MethodCall {
	recv, ok := obj.Type().(*RInstance)
	if !ok {
		panic("methods can only be called on instances")
	}
	op := &MethodCall{Obj: obj, Method: method, Args: args, ReceiverType: recv}
	op.value = newValue(line)
	op.typ = retType
	return op
}

func (op *MethodCall) ErrorKind() int { return ErrMagic }

func (op *MethodCall) Sources() []Value {
	return append(append([]Value(nil), op.Args...), op.Obj)
}

func (op *MethodCall) ToStr(env *Environment) string {
	args := make([]string, len(op.Args))
	for i, arg := range op.Args {
		args[i] = arg.Name()
	}
	s := env.Format("%r.%s(%s)", op.Obj, op.Method, strings.Join(args, ", "))
	if !op.IsVoid() {
		s = env.Format("%r = ", op) + s
	}
	return s
}

// Generic-runtime interoperability ops are prefixed with Py. They act as a
// replacement for native ops and call into the generic runtime rather than
// compiled native code, e.g. to call builtins.

// PyCall is a generic-runtime call f(arg, ...).
type PyCall struct {
	registerOp
	Function Value
	Args     []Value
}

func NewPyCall(function Value, args []Value, line int) *PyCall {
	op := &PyCall{Function: function, Args: args}
	op.value = newValue(line)
	op.typ = ObjectRPrimitive
	return op
}

func (op *PyCall) ErrorKind() int { return ErrMagic }

func (op *PyCall) Sources() []Value {
	return append(append([]Value(nil), op.Args...), op.Function)
}

func (op *PyCall) ToStr(env *Environment) string {
	args := make([]string, len(op.Args))
	for i, arg := range op.Args {
		args[i] = arg.Name()
	}
	s := env.Format("%r(%s)", op.Function, strings.Join(args, ", "))
	if !op.IsVoid() {
		s = env.Format("%r = ", op) + s
	}
	return s + " :: object"
}

// PyMethodCall is a generic-runtime method call obj.m(arg, ...).
type PyMethodCall struct {
	registerOp
	Obj    Value
	Method Value
	Args   []Value
}

func NewPyMethodCall(obj, method Value, args []Value, line int) *PyMethodCall {
	op := &PyMethodCall{Obj: obj, Method: method, Args: args}
	op.value = newValue(line)
	op.typ = ObjectRPrimitive
	return op
}

func (op *PyMethodCall) ErrorKind() int { return ErrMagic }

func (op *PyMethodCall) Sources() []Value {
	return append(append([]Value(nil), op.Args...), op.Obj, op.Method)
}

func (op *PyMethodCall) ToStr(env *Environment) string {
	args := make([]string, len(op.Args))
	for i, arg := range op.Args {
		args[i] = arg.Name()
	}
	s := env.Format("%r.%r(%s)", op.Obj, op.Method, strings.Join(args, ", "))
	if !op.IsVoid() {
		s = env.Format("%r = ", op) + s
	}
	return s + " :: object"
}

// Assign copies a value into a destination register. It only moves a
// reference and does not create a new one.
type Assign struct {
	value
	Dest *Register
	Src  Value
}

func NewAssign(dest *Register, src Value) *Assign {
	op := &Assign{Dest: dest, Src: src}
	op.value = newValue(-1)
	return op
}

func (op *Assign) ErrorKind() int { return ErrNever }
func (op *Assign) Sources() []Value { return []Value{op.Src} }

func (op *Assign) ToStr(env *Environment) string {
	return env.Format("%r = %r", op.Dest, op.Src)
}

// LoadInt loads an integer literal.
type LoadInt struct {
	registerOp
	Value int64
}

func NewLoadInt(v int64) *LoadInt {
	op := &LoadInt{Value: v}
	op.value = newValue(-1)
	op.typ = IntRPrimitive
	return op
}

func (op *LoadInt) ErrorKind() int { return ErrNever }
func (op *LoadInt) Sources() []Value { return nil }

func (op *LoadInt) ToStr(env *Environment) string {
	return env.Format("%r = %d", op, op.Value)
}

// LoadErrorValue loads the error sentinel of a type.
type LoadErrorValue struct {
	registerOp
}

func NewLoadErrorValue(typ RType) *LoadErrorValue {
	op := &LoadErrorValue{}
	op.value = newValue(-1)
	op.typ = typ
	return op
}

func (op *LoadErrorValue) ErrorKind() int { return ErrNever }
func (op *LoadErrorValue) Sources() []Value { return nil }

func (op *LoadErrorValue) ToStr(env *Environment) string {
	return env.Format("%r = <error> :: %s", op, op.typ)
}

// Namespaces for static values.
const (
	// NamespaceStatic is the default namespace for statics and variables.
	NamespaceStatic = "static"
	// NamespaceType holds pointers to native type objects.
	NamespaceType = "type"
	// NamespaceModule holds module objects.
	NamespaceModule = "module"
)

// LoadStatic loads a C static variable or pointer. The namespace for statics
// is shared for the entire compilation unit; a module name provides
// additional namespacing. The loaded reference is borrowed by default.
type LoadStatic struct {
	registerOp
	Identifier string
	ModuleName string
	Namespace  string

	// Ann, if set, is pretty-printed alongside the load.
	Ann interface{}
}

func NewLoadStatic(typ RType, identifier, moduleName, namespace string, line int) *LoadStatic {
	if namespace == "" {
		namespace = NamespaceStatic
	}
	op := &LoadStatic{Identifier: identifier, ModuleName: moduleName, Namespace: namespace}
	op.value = newValue(line)
	op.typ = typ
	op.borrowed = true
	return op
}

func (op *LoadStatic) ErrorKind() int { return ErrNever }
func (op *LoadStatic) Sources() []Value { return nil }

func (op *LoadStatic) ToStr(env *Environment) string {
	name := op.Identifier
	if op.ModuleName != "" {
		name = op.ModuleName + "." + name
	}
	ann := ""
	if op.Ann != nil {
		ann = fmt.Sprintf("  (%v)", op.Ann)
	}
	return env.Format("%r = %s :: %s%s", op, name, op.Namespace, ann)
}

// GetAttr reads obj.attr of a native object.
type GetAttr struct {
	registerOp
	Obj  Value
	Attr string

	ClassType *RInstance
}

func NewGetAttr(obj Value, attr string, line int) *GetAttr {
	cls, ok := obj.Type().(*RInstance)
	if !ok {
		panic(fmt.Sprintf("attribute access not supported: %s", obj.Type()))
	}
	op := &GetAttr{Obj: obj, Attr: attr, ClassType: cls}
	op.value = newValue(line)
	op.typ = cls.AttrType(attr)
	return op
}

func (op *GetAttr) ErrorKind() int { return ErrMagic }
func (op *GetAttr) Sources() []Value { return []Value{op.Obj} }

func (op *GetAttr) ToStr(env *Environment) string {
	return env.Format("%r = %r.%s", op, op.Obj, op.Attr)
}

// SetAttr writes obj.attr of a native object; its boolean result indicates
// success.
type SetAttr struct {
	registerOp
	Obj  Value
	Attr string
	Src  Value

	ClassType *RInstance
}

func NewSetAttr(obj Value, attr string, src Value, line int) *SetAttr {
	cls, ok := obj.Type().(*RInstance)
	if !ok {
		panic(fmt.Sprintf("attribute access not supported: %s", obj.Type()))
	}
	op := &SetAttr{Obj: obj, Attr: attr, Src: src, ClassType: cls}
	op.value = newValue(line)
	op.typ = BoolRPrimitive
	return op
}

func (op *SetAttr) ErrorKind() int { return ErrFalse }
func (op *SetAttr) Sources() []Value { return []Value{op.Obj, op.Src} }

func (op *SetAttr) ToStr(env *Environment) string {
	return env.Format("%r.%s = %r; %r = is_error", op.Obj, op.Attr, op.Src, op)
}

// TupleSet packs values into a fixed-length tuple.
type TupleSet struct {
	registerOp
	Items []Value

	TupleType *RTuple
}

func NewTupleSet(items []Value, line int) *TupleSet {
	types := make([]RType, len(items))
	for i, item := range items {
		types[i] = item.Type()
	}
	op := &TupleSet{Items: items, TupleType: NewRTuple(types...)}
	op.value = newValue(line)
	op.typ = op.TupleType
	return op
}

func (op *TupleSet) ErrorKind() int { return ErrNever }
func (op *TupleSet) Sources() []Value { return append([]Value(nil), op.Items...) }

func (op *TupleSet) ToStr(env *Environment) string {
	items := make([]string, len(op.Items))
	for i, item := range op.Items {
		items[i] = item.Name()
	}
	return env.Format("%r = (%s)", op, strings.Join(items, ", "))
}

// TupleGet reads element n of a fixed-length tuple.
type TupleGet struct {
	registerOp
	Src   Value
	Index int
}

func NewTupleGet(src Value, index, line int) *TupleGet {
	tt, ok := src.Type().(*RTuple)
	if !ok {
		panic("TupleGet only operates on tuples")
	}
	op := &TupleGet{Src: src, Index: index}
	op.value = newValue(line)
	op.typ = tt.Types()[index]
	return op
}

func (op *TupleGet) ErrorKind() int { return ErrNever }
func (op *TupleGet) Sources() []Value { return []Value{op.Src} }

func (op *TupleGet) ToStr(env *Environment) string {
	return env.Format("%r = %r[%d]", op, op.Src, op.Index)
}

// Cast performs a runtime type check without representation or value
// conversion. It does not touch reference counts.
type Cast struct {
	registerOp
	Src Value
}

func NewCast(src Value, typ RType, line int) *Cast {
	op := &Cast{Src: src}
	op.value = newValue(line)
	op.typ = typ
	return op
}

func (op *Cast) ErrorKind() int { return ErrMagic }
func (op *Cast) Sources() []Value { return []Value{op.Src} }

func (op *Cast) ToStr(env *Environment) string {
	return env.Format("%r = cast(%s, %r)", op, op.typ, op.Src)
}

// Box converts from a potentially unboxed representation to an object.
// Only supported for types with an unboxed representation.
type Box struct {
	registerOp
	Src Value
}

func NewBox(src Value) *Box {
	op := &Box{Src: src}
	op.value = newValue(-1)
	op.typ = ObjectRPrimitive
	return op
}

func (op *Box) ErrorKind() int { return ErrNever }
func (op *Box) Sources() []Value { return []Value{op.Src} }

func (op *Box) ToStr(env *Environment) string {
	return env.Format("%r = box(%s, %r)", op, op.Src.Type(), op.Src)
}

// Unbox is similar to a cast, but also changes to a (potentially) unboxed
// runtime representation. Only supported for types with an unboxed
// representation.
type Unbox struct {
	registerOp
	Src Value
}

func NewUnbox(src Value, typ RType, line int) *Unbox {
	op := &Unbox{Src: src}
	op.value = newValue(line)
	op.typ = typ
	return op
}

func (op *Unbox) ErrorKind() int { return ErrMagic }
func (op *Unbox) Sources() []Value { return []Value{op.Src} }

func (op *Unbox) ToStr(env *Environment) string {
	return env.Format("%r = unbox(%s, %r)", op, op.typ, op.Src)
}

// RaiseStandardError raises a built-in exception with an optional error
// string. A separate op keeps the emitted C small and idiomatic.
type RaiseStandardError struct {
	registerOp
	ClassName string
	Message   string
	HasMsg    bool
}

// Well-known exception class names.
const ValueErrorClass = "ValueError"

func NewRaiseStandardError(className, message string, line int) *RaiseStandardError {
	op := &RaiseStandardError{ClassName: className, Message: message, HasMsg: true}
	op.value = newValue(line)
	op.typ = BoolRPrimitive
	return op
}

func NewRaiseStandardErrorBare(className string, line int) *RaiseStandardError {
	op := &RaiseStandardError{ClassName: className}
	op.value = newValue(line)
	op.typ = BoolRPrimitive
	return op
}

func (op *RaiseStandardError) ErrorKind() int { return ErrFalse }
func (op *RaiseStandardError) Sources() []Value { return nil }

func (op *RaiseStandardError) ToStr(env *Environment) string {
	if op.HasMsg {
		return fmt.Sprintf("raise %s('%s')", op.ClassName, op.Message)
	}
	return fmt.Sprintf("raise %s", op.ClassName)
}
