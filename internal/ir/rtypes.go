// Package ir defines the register-based intermediate representation that the
// compiler middle-end operates on: runtime types, values and registers, ops,
// basic blocks and function IR.
//
// Ops operate on abstract registers in a register machine. Each register has
// a type and a name, recorded in a per-function environment. A register can
// hold local variables, intermediate values of expressions, condition flags
// and literals.
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// RType is a runtime type descriptor. Types are erased and concrete; there
// are no generics at this level.
type RType interface {
	// Name is the fully qualified type name (e.g. "builtins.int").
	Name() string
	// IsUnboxed reports whether values are represented inline rather than
	// as pointers to heap objects.
	IsUnboxed() bool
	// IsRefCounted reports whether values of the type participate in
	// reference counting. For unboxed types this asks whether the unboxed
	// representation itself carries counted references.
	IsRefCounted() bool
	// CType is the C representation consumed by the back-end.
	CType() string
	// CUndefined is the C-representation error sentinel: the bit pattern
	// an ERR_MAGIC op stores in its result register to signal failure.
	CUndefined() string

	fmt.Stringer
}

func shortName(name string) string {
	return strings.TrimPrefix(name, "builtins.")
}

// RPrimitive is a primitive type such as 'object' or 'int'. These often have
// custom primitive ops associated with them.
type RPrimitive struct {
	name       string
	unboxed    bool
	refcounted bool
	ctype      string
	cUndefined string
}

func NewRPrimitive(name string, isUnboxed, isRefCounted bool, ctype string) *RPrimitive {
	p := &RPrimitive{
		name:       name,
		unboxed:    isUnboxed,
		refcounted: isRefCounted,
		ctype:      ctype,
	}
	switch ctype {
	case "CPyTagged":
		p.cUndefined = "CPY_INT_TAG"
	case "PyObject *":
		p.cUndefined = "NULL"
	case "char":
		p.cUndefined = "2"
	default:
		panic(fmt.Sprintf("unrecognized ctype: %q", ctype))
	}
	return p
}

func (p *RPrimitive) Name() string { return p.name }
func (p *RPrimitive) IsUnboxed() bool { return p.unboxed }
func (p *RPrimitive) IsRefCounted() bool { return p.refcounted }
func (p *RPrimitive) CType() string { return p.ctype }
func (p *RPrimitive) CUndefined() string { return p.cUndefined }
func (p *RPrimitive) String() string { return shortName(p.name) }

// Used to represent arbitrary objects and dynamically typed values.
var ObjectRPrimitive = NewRPrimitive("builtins.object", false, true, "PyObject *")

// Integers use a tagged representation.
var IntRPrimitive = NewRPrimitive("builtins.int", true, true, "CPyTagged")

// Integers known to fit in the tag, so they never carry a counted heap
// reference.
var ShortIntRPrimitive = NewRPrimitive("short_int", true, false, "CPyTagged")

var FloatRPrimitive = NewRPrimitive("builtins.float", false, true, "PyObject *")

var BoolRPrimitive = NewRPrimitive("builtins.bool", true, false, "char")

var NoneRPrimitive = NewRPrimitive("builtins.None", false, true, "PyObject *")

var ListRPrimitive = NewRPrimitive("builtins.list", false, true, "PyObject *")

var DictRPrimitive = NewRPrimitive("builtins.dict", false, true, "PyObject *")

var SetRPrimitive = NewRPrimitive("builtins.set", false, true, "PyObject *")

// At the C layer, str is referred to as unicode.
var StrRPrimitive = NewRPrimitive("builtins.str", false, true, "PyObject *")

// Tuple of an arbitrary length (boxed; contrast with RTuple).
var TupleRPrimitive = NewRPrimitive("builtins.tuple", false, true, "PyObject *")

func isPrimitiveNamed(t RType, name string) bool {
	p, ok := t.(*RPrimitive)
	return ok && p.name == name
}

func IsIntRPrimitive(t RType) bool { return isPrimitiveNamed(t, "builtins.int") }
func IsShortIntRPrimitive(t RType) bool { return isPrimitiveNamed(t, "short_int") }
func IsFloatRPrimitive(t RType) bool { return isPrimitiveNamed(t, "builtins.float") }
func IsBoolRPrimitive(t RType) bool { return isPrimitiveNamed(t, "builtins.bool") }
func IsObjectRPrimitive(t RType) bool { return isPrimitiveNamed(t, "builtins.object") }
func IsNoneRPrimitive(t RType) bool { return isPrimitiveNamed(t, "builtins.None") }
func IsListRPrimitive(t RType) bool { return isPrimitiveNamed(t, "builtins.list") }
func IsDictRPrimitive(t RType) bool { return isPrimitiveNamed(t, "builtins.dict") }
func IsSetRPrimitive(t RType) bool { return isPrimitiveNamed(t, "builtins.set") }
func IsStrRPrimitive(t RType) bool { return isPrimitiveNamed(t, "builtins.str") }
func IsTupleRPrimitive(t RType) bool { return isPrimitiveNamed(t, "builtins.tuple") }

// RTuple is a fixed-length unboxed tuple, represented as a C struct.
type RTuple struct {
	types      []RType
	refcounted bool
}

func NewRTuple(types ...RType) *RTuple {
	t := &RTuple{types: types}
	for _, typ := range types {
		if typ.IsRefCounted() {
			t.refcounted = true
			break
		}
	}
	return t
}

func (t *RTuple) Name() string { return "tuple" }
func (t *RTuple) IsUnboxed() bool { return true }
func (t *RTuple) IsRefCounted() bool { return t.refcounted }
func (t *RTuple) Types() []RType { return t.types }

// CType is the synthesized struct name; the emitter declares the struct
// itself, deduplicating structurally equal tuple types by this name.
func (t *RTuple) CType() string { return t.StructName() }

func (t *RTuple) StructName() string {
	var sb strings.Builder
	sb.WriteString("tuple_T")
	sb.WriteString(strconv.Itoa(len(t.types)))
	for _, typ := range t.types {
		sb.WriteString(typeCode(typ))
	}
	return sb.String()
}

func typeCode(t RType) string {
	if tt, ok := t.(*RTuple); ok {
		return tt.StructName()
	}
	switch t.CType() {
	case "CPyTagged":
		return "I"
	case "char":
		return "C"
	default:
		return "O"
	}
}

// CUndefined of a tuple struct is checked through its first element; the
// emitter only ever compares that field against this sentinel.
func (t *RTuple) CUndefined() string {
	if len(t.types) == 0 {
		return "NULL"
	}
	return t.types[0].CUndefined()
}

func (t *RTuple) String() string {
	parts := make([]string, len(t.types))
	for i, typ := range t.types {
		parts[i] = typ.String()
	}
	return "tuple[" + strings.Join(parts, ", ") + "]"
}

// The runtime representation of a caught exception: (type, value, traceback).
var ExcRTuple = NewRTuple(ObjectRPrimitive, ObjectRPrimitive, ObjectRPrimitive)

// RInstance is an instance of a user-defined class (compiled to a C
// extension class).
type RInstance struct {
	class *ClassIR
}

func NewRInstance(class *ClassIR) *RInstance {
	return &RInstance{class: class}
}

func (t *RInstance) Name() string { return t.class.Name }
func (t *RInstance) IsUnboxed() bool { return false }
func (t *RInstance) IsRefCounted() bool { return true }
func (t *RInstance) CType() string { return "PyObject *" }
func (t *RInstance) CUndefined() string { return "NULL" }
func (t *RInstance) String() string { return shortName(t.class.Name) }
func (t *RInstance) Class() *ClassIR { return t.class }

func (t *RInstance) AttrType(name string) RType { return t.class.AttrType(name) }

func (t *RInstance) GetterIndex(name string) int { return t.class.VTableEntry(name) }
func (t *RInstance) SetterIndex(name string) int { return t.GetterIndex(name) + 1 }
func (t *RInstance) MethodIndex(name string) int { return t.class.VTableEntry(name) }

// ROptional wraps a value type; always boxed.
type ROptional struct {
	value RType
}

func NewROptional(value RType) *ROptional { return &ROptional{value: value} }

func (t *ROptional) Name() string { return "optional" }
func (t *ROptional) IsUnboxed() bool { return false }
func (t *ROptional) IsRefCounted() bool { return true }
func (t *ROptional) CType() string { return "PyObject *" }
func (t *ROptional) CUndefined() string { return "NULL" }
func (t *ROptional) ValueType() RType { return t.value }
func (t *ROptional) String() string { return "optional[" + t.value.String() + "]" }

// RVoid is the unit type of ops that produce no value.
type RVoid struct{}

var VoidRType = &RVoid{}

func (t *RVoid) Name() string { return "void" }
func (t *RVoid) IsUnboxed() bool { return false }
func (t *RVoid) IsRefCounted() bool { return false }
func (t *RVoid) CType() string { return "void" }
func (t *RVoid) CUndefined() string { return "" }
func (t *RVoid) String() string { return "void" }

// ErrorValue returns the C error sentinel for a type.
func ErrorValue(t RType) string { return t.CUndefined() }

// UndefinedValue is the bit pattern used to initialize locals that are not
// definitely assigned on every path. It coincides with the error sentinel.
func UndefinedValue(t RType) string { return t.CUndefined() }

// CTypeFor maps any non-void RType to its C representation. The mapping is
// total; the back-end relies on it.
func CTypeFor(t RType) string { return t.CType() }
