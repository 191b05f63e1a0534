// Package primitives defines the registry of primitive operations: an
// extensible table keyed by operator/method/function name mapping operand
// types to op descriptions. The AST lowerer consults it when selecting ops;
// the registry itself is pure data plus a matching rule.
//
// The registry is populated explicitly at construction time by the
// categorized register* functions; there is no hidden global registration.
package primitives

import (
	"fmt"
	"sort"
	"strings"

	"pyrite/internal/ir"
)

// OpSpec carries the fields of a registration. Name is the operator symbol,
// method name, or fully qualified function name depending on the
// registration kind.
type OpSpec struct {
	Name       string
	ArgTypes   []ir.RType
	ResultType ir.RType
	IsVarArg   bool
	ErrorKind  int
	FormatStr  string
	Emit       ir.EmitCallback
	Priority   int
	IsBorrowed bool
}

// Registry holds all registered primitive op descriptions, grouped by how
// the lowerer looks them up.
type Registry struct {
	binary   map[string][]*ir.OpDescription
	unary    map[string][]*ir.OpDescription
	funcs    map[string][]*ir.OpDescription
	methods  map[string][]*ir.OpDescription
	nameRefs map[string]*ir.OpDescription

	// Standalone descriptions the lowerer addresses directly.
	NewListOp        *ir.OpDescription
	NewTupleOp       *ir.OpDescription
	NewSetOp         *ir.OpDescription
	NewDictOp        *ir.OpDescription
	ListGetItemUnsafeOp *ir.OpDescription
	IntNegOp         *ir.OpDescription
	RaiseExceptionOp *ir.OpDescription
	ClearExceptionOp *ir.OpDescription
	NoErrOccurredOp  *ir.OpDescription
	ErrorCatchOp     *ir.OpDescription
	ClearExcInfoOp   *ir.OpDescription
}

// NewRegistry builds the full registry of primitive ops.
func NewRegistry() *Registry {
	r := &Registry{
		binary:   make(map[string][]*ir.OpDescription),
		unary:    make(map[string][]*ir.OpDescription),
		funcs:    make(map[string][]*ir.OpDescription),
		methods:  make(map[string][]*ir.OpDescription),
		nameRefs: make(map[string]*ir.OpDescription),
	}
	registerIntOps(r)
	registerStrOps(r)
	registerListOps(r)
	registerDictOps(r)
	registerSetOps(r)
	registerTupleOps(r)
	registerMiscOps(r)
	registerExcOps(r)
	return r
}

func (r *Registry) newDesc(s OpSpec) *ir.OpDescription {
	return &ir.OpDescription{
		Name:       s.Name,
		ArgTypes:   s.ArgTypes,
		ResultType: s.ResultType,
		IsVarArg:   s.IsVarArg,
		ErrorKind:  s.ErrorKind,
		FormatStr:  s.FormatStr,
		Emit:       s.Emit,
		Priority:   s.Priority,
		IsBorrowed: s.IsBorrowed,
	}
}

func (r *Registry) add(table map[string][]*ir.OpDescription, desc *ir.OpDescription) *ir.OpDescription {
	for _, existing := range table[desc.Name] {
		if existing.Priority == desc.Priority && sameFormals(existing, desc) {
			panic(fmt.Sprintf("ambiguous primitive op %q: duplicate signature at priority %d",
				desc.Name, desc.Priority))
		}
	}
	entries := append(table[desc.Name], desc)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority > entries[j].Priority
	})
	table[desc.Name] = entries
	return desc
}

func sameFormals(a, b *ir.OpDescription) bool {
	if len(a.ArgTypes) != len(b.ArgTypes) || a.IsVarArg != b.IsVarArg {
		return false
	}
	for i := range a.ArgTypes {
		if !ir.IsSameType(a.ArgTypes[i], b.ArgTypes[i]) {
			return false
		}
	}
	return true
}

// BinaryOp registers a primitive binary operator.
func (r *Registry) BinaryOp(s OpSpec) *ir.OpDescription {
	if s.FormatStr == "" {
		s.FormatStr = fmt.Sprintf("{dest} = {args[0]} %s {args[1]}", s.Name)
	}
	return r.add(r.binary, r.newDesc(s))
}

// UnaryOp registers a primitive unary operator.
func (r *Registry) UnaryOp(s OpSpec) *ir.OpDescription {
	if s.FormatStr == "" {
		s.FormatStr = fmt.Sprintf("{dest} = %s{args[0]}", s.Name)
	}
	return r.add(r.unary, r.newDesc(s))
}

// FuncOp registers a primitive that replaces a function call such as
// builtins.len.
func (r *Registry) FuncOp(s OpSpec) *ir.OpDescription {
	if s.FormatStr == "" {
		short := s.Name
		if idx := strings.LastIndexByte(short, '.'); idx >= 0 {
			short = short[idx+1:]
		}
		s.FormatStr = fmt.Sprintf("{dest} = %s({comma_args})", short)
	}
	return r.add(r.funcs, r.newDesc(s))
}

// MethodOp registers a primitive that replaces a method call. The receiver
// is the first argument type.
func (r *Registry) MethodOp(s OpSpec) *ir.OpDescription {
	if s.FormatStr == "" {
		rest := make([]string, 0, len(s.ArgTypes)-1)
		for i := 1; i < len(s.ArgTypes); i++ {
			rest = append(rest, fmt.Sprintf("{args[%d]}", i))
		}
		s.FormatStr = fmt.Sprintf("{dest} = {args[0]}.%s(%s)", s.Name, strings.Join(rest, ", "))
	}
	return r.add(r.methods, r.newDesc(s))
}

// NameRefOp registers a primitive that loads a built-in name.
func (r *Registry) NameRefOp(s OpSpec) *ir.OpDescription {
	if s.FormatStr == "" {
		s.FormatStr = fmt.Sprintf("{dest} = %s", shortDotted(s.Name))
	}
	if _, dup := r.nameRefs[s.Name]; dup {
		panic(fmt.Sprintf("duplicate name ref op %q", s.Name))
	}
	desc := r.newDesc(s)
	r.nameRefs[s.Name] = desc
	return desc
}

// CustomOp builds a standalone description addressed directly by the
// lowerer rather than matched by name.
func (r *Registry) CustomOp(s OpSpec) *ir.OpDescription {
	if s.FormatStr == "" {
		s.FormatStr = fmt.Sprintf("{dest} = %s({comma_args})", s.Name)
	}
	return r.newDesc(s)
}

func shortDotted(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// Matching. The first description whose formals accept the candidate's
// argument types wins; descriptions are kept ordered by priority (highest
// first), insertion order breaking ties within a priority.

func match(descs []*ir.OpDescription, argTypes []ir.RType) *ir.OpDescription {
	for _, desc := range descs {
		if desc.IsVarArg {
			if len(argTypes) < len(desc.ArgTypes) {
				continue
			}
		} else if len(argTypes) != len(desc.ArgTypes) {
			continue
		}
		ok := true
		for i := range desc.ArgTypes {
			if !ir.IsSubtype(argTypes[i], desc.ArgTypes[i]) {
				ok = false
				break
			}
		}
		if ok {
			return desc
		}
	}
	return nil
}

// FindBinaryOp matches a binary operator against operand types; nil when no
// primitive applies.
func (r *Registry) FindBinaryOp(op string, argTypes []ir.RType) *ir.OpDescription {
	return match(r.binary[op], argTypes)
}

// FindUnaryOp matches a unary operator against its operand type.
func (r *Registry) FindUnaryOp(op string, argType ir.RType) *ir.OpDescription {
	return match(r.unary[op], []ir.RType{argType})
}

// FindFuncOp matches a function call against argument types.
func (r *Registry) FindFuncOp(name string, argTypes []ir.RType) *ir.OpDescription {
	return match(r.funcs[name], argTypes)
}

// FindMethodOp matches a method call; the receiver type leads the argument
// types.
func (r *Registry) FindMethodOp(name string, argTypes []ir.RType) *ir.OpDescription {
	return match(r.methods[name], argTypes)
}

// FindNameRefOp resolves a built-in name load.
func (r *Registry) FindNameRefOp(name string) *ir.OpDescription {
	return r.nameRefs[name]
}

// AllDescriptions returns every registered description sorted by name; used
// for introspection.
func (r *Registry) AllDescriptions() []*ir.OpDescription {
	var all []*ir.OpDescription
	for _, table := range []map[string][]*ir.OpDescription{r.binary, r.unary, r.funcs, r.methods} {
		for _, descs := range table {
			all = append(all, descs...)
		}
	}
	for _, desc := range r.nameRefs {
		all = append(all, desc)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].Priority > all[j].Priority
	})
	return all
}
