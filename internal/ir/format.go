package ir

import (
	"fmt"
	"strings"
)

// FormatBlocks renders blocks in the canonical one-line-per-op form. It
// assigns block labels by position first. A trailing goto that just falls
// through to the lexically next block is hidden.
func FormatBlocks(blocks []*BasicBlock, env *Environment) []string {
	for i, block := range blocks {
		block.Label = i
	}

	var lines []string
	for i, block := range blocks {
		lines = append(lines, env.Format("%l:", block))
		ops := block.Ops
		if len(ops) > 0 {
			if g, ok := ops[len(ops)-1].(*Goto); ok && i+1 < len(blocks) && g.Target == blocks[i+1] {
				ops = ops[:len(ops)-1]
			}
		}
		for _, op := range ops {
			lines = append(lines, "    "+op.ToStr(env))
		}
		if term := block.Terminator(); term == nil || !IsTerminator(term) {
			// Each basic block needs to exit somewhere.
			lines = append(lines, "    [MISSING BLOCK EXIT OPCODE]")
		}
	}
	return lines
}

// FormatFunc renders a function: header, environment, then blocks. This is
// the golden textual form of the IR.
func FormatFunc(fn *FuncIR) []string {
	var lines []string
	clsPrefix := ""
	if fn.ClassName != "" {
		clsPrefix = fn.ClassName + "."
	}
	argNames := make([]string, len(fn.Args()))
	for i, arg := range fn.Args() {
		argNames[i] = arg.Name
	}
	lines = append(lines, fmt.Sprintf("def %s%s(%s):", clsPrefix, fn.Name, strings.Join(argNames, ", ")))
	for _, line := range fn.Env.ToLines() {
		lines = append(lines, "    "+line)
	}
	lines = append(lines, FormatBlocks(fn.Blocks, fn.Env)...)
	return lines
}
