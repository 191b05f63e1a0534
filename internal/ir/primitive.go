package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// EmitterInterface is the surface an op-description emit callback sees of
// the C emitter.
type EmitterInterface interface {
	Reg(v Value) string
	CErrorValue(t RType) string
	TempName() string
	EmitLine(line string)
	EmitLines(lines ...string)
	EmitDeclaration(line string)
}

// EmitCallback generates the C code of one primitive op. args and dest are
// already rendered C expressions.
type EmitCallback func(emitter EmitterInterface, args []string, dest string)

// OpDescription describes one primitive operation: how it is matched, how
// it fails, how it prints and how it is emitted. Descriptions are contributed
// to a registry by categorized modules; the IR treats them as data.
type OpDescription struct {
	Name       string
	ArgTypes   []RType
	ResultType RType // nil means no result (boolean error flag only)
	IsVarArg   bool
	ErrorKind  int
	FormatStr  string
	Emit       EmitCallback
	// Priority resolves matching ambiguities; highest wins.
	Priority int
	// IsBorrowed marks descriptions whose result is borrowed (name refs to
	// static objects).
	IsBorrowed bool
}

// PrimitiveOp is a registry-driven operation on specific operand types:
// reg = op(reg, ...). The details are defined by its description.
type PrimitiveOp struct {
	registerOp
	Args []Value
	Desc *OpDescription

	errorKind int
}

func NewPrimitiveOp(args []Value, desc *OpDescription, line int) *PrimitiveOp {
	if !desc.IsVarArg && len(args) != len(desc.ArgTypes) {
		panic(fmt.Sprintf("primitive op %q: got %d args, want %d", desc.Name, len(args), len(desc.ArgTypes)))
	}
	op := &PrimitiveOp{Args: args, Desc: desc, errorKind: desc.ErrorKind}
	op.value = newValue(line)
	if desc.ResultType == nil {
		if desc.ErrorKind != ErrFalse {
			panic("primitive op without a result must use the false error kind")
		}
		op.typ = BoolRPrimitive
	} else {
		op.typ = desc.ResultType
	}
	op.borrowed = desc.IsBorrowed
	return op
}

func (op *PrimitiveOp) ErrorKind() int { return op.errorKind }
func (op *PrimitiveOp) Sources() []Value { return append([]Value(nil), op.Args...) }

func (op *PrimitiveOp) ToStr(env *Environment) string {
	args := make([]string, len(op.Args))
	for i, arg := range op.Args {
		args[i] = arg.Name()
	}
	dest := ""
	if !op.IsVoid() {
		dest = op.Name()
	}
	return FormatDescStr(op.Desc.FormatStr, args, dest)
}

// FormatDescStr expands an op-description template. Recognized placeholders:
// {dest}, {args[N]}, {comma_args}, and {{ / }} for literal braces.
func FormatDescStr(template string, args []string, dest string) string {
	var sb strings.Builder
	i := 0
	for i < len(template) {
		c := template[i]
		if c != '{' && c != '}' {
			sb.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(template) && template[i+1] == c {
			sb.WriteByte(c)
			i += 2
			continue
		}
		end := strings.IndexByte(template[i:], '}')
		if c == '}' || end < 0 {
			panic(fmt.Sprintf("malformed op format string: %q", template))
		}
		end += i
		field := template[i+1 : end]
		switch {
		case field == "dest":
			sb.WriteString(dest)
		case field == "comma_args":
			sb.WriteString(strings.Join(args, ", "))
		case strings.HasPrefix(field, "args[") && strings.HasSuffix(field, "]"):
			n, err := strconv.Atoi(field[5 : len(field)-1])
			if err != nil || n < 0 || n >= len(args) {
				panic(fmt.Sprintf("bad arg reference %q in format string %q", field, template))
			}
			sb.WriteString(args[n])
		default:
			panic(fmt.Sprintf("unknown placeholder %q in format string %q", field, template))
		}
		i = end + 1
	}
	return sb.String()
}
