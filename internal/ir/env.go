package ir

import (
	"fmt"
	"strings"
)

// Environment maintains the register symbol table of a function and manages
// temp generation. Registers are allocated from it monotonically; there are
// no deletions. Insertion order is stable and drives pretty-printing.
type Environment struct {
	FuncName string

	indexes   map[Value]int
	order     []Value
	symtable  map[string]*Register
	tempIndex int
}

func NewEnvironment(name string) *Environment {
	return &Environment{
		FuncName: name,
		indexes:  make(map[Value]int),
		symtable: make(map[string]*Register),
	}
}

// Regs returns every registered value in insertion order.
func (e *Environment) Regs() []Value { return e.order }

// IndexOf returns the insertion index of a value, or -1 if it was never
// registered.
func (e *Environment) IndexOf(v Value) int {
	idx, ok := e.indexes[v]
	if !ok {
		return -1
	}
	return idx
}

// Add registers a value under the given display name.
func (e *Environment) Add(v Value, name string) {
	v.setName(name)
	e.indexes[v] = len(e.order)
	e.order = append(e.order, v)
}

// AddLocal creates a register for a source symbol. Argument registers are
// borrowed on entry.
func (e *Environment) AddLocal(name string, typ RType, line int, isArg bool) *Register {
	reg := NewRegister(typ, line, isArg, "")
	e.symtable[name] = reg
	e.Add(reg, name)
	return reg
}

// Lookup resolves a source symbol to its register.
func (e *Environment) Lookup(name string) *Register {
	reg, ok := e.symtable[name]
	if !ok {
		panic(fmt.Sprintf("no register for symbol %q", name))
	}
	return reg
}

// AddTemp allocates a fresh unnamed register; temporaries are named rN.
func (e *Environment) AddTemp(typ RType) *Register {
	reg := NewRegister(typ, -1, false, "")
	e.Add(reg, fmt.Sprintf("r%d", e.tempIndex))
	e.tempIndex++
	return reg
}

// AddOp records an op value for pretty-printing. Void ops produce no usable
// value and are skipped.
func (e *Environment) AddOp(op Op) {
	if op.IsVoid() {
		return
	}
	e.Add(op, fmt.Sprintf("r%d", e.tempIndex))
	e.tempIndex++
}

// Format renders an op line. Supported verbs: %r (value name), %d (int),
// %f (float), %l (block label), %s (string).
func (e *Environment) Format(format string, args ...interface{}) string {
	var sb strings.Builder
	i := 0
	argIdx := 0
	for i < len(format) {
		n := strings.IndexByte(format[i:], '%')
		if n < 0 {
			sb.WriteString(format[i:])
			break
		}
		n += i
		sb.WriteString(format[i:n])
		if n+1 >= len(format) {
			break
		}
		spec := format[n+1]
		arg := args[argIdx]
		argIdx++
		switch spec {
		case 'r':
			sb.WriteString(arg.(Value).Name())
		case 'd':
			sb.WriteString(fmt.Sprintf("%d", arg))
		case 'f':
			sb.WriteString(fmt.Sprintf("%f", arg))
		case 'l':
			if block, ok := arg.(*BasicBlock); ok {
				sb.WriteString(fmt.Sprintf("L%d", block.Label))
			} else {
				sb.WriteString(fmt.Sprintf("L%v", arg))
			}
		case 's':
			sb.WriteString(fmt.Sprint(arg))
		default:
			panic(fmt.Sprintf("invalid format sequence %%%c", spec))
		}
		i = n + 2
	}
	return sb.String()
}

// ToLines renders the environment header, grouping consecutive registers
// that share a type onto one line.
func (e *Environment) ToLines() []string {
	var result []string
	regs := e.order
	i := 0
	for i < len(regs) {
		i0 := i
		group := []string{regs[i0].Name()}
		for i+1 < len(regs) && IsSameType(regs[i+1].Type(), regs[i0].Type()) {
			i++
			group = append(group, regs[i].Name())
		}
		i++
		result = append(result, fmt.Sprintf("%s :: %s", strings.Join(group, ", "), regs[i0].Type()))
	}
	return result
}
