package analysis

import (
	"fmt"

	"pyrite/internal/ir"
)

// CFG is a control-flow graph over basic blocks. Block 0 is always assumed
// to be the entry point; there must be a non-empty set of exits.
type CFG struct {
	Succ  map[*ir.BasicBlock][]*ir.BasicBlock
	Pred  map[*ir.BasicBlock][]*ir.BasicBlock
	Exits map[*ir.BasicBlock]struct{}
}

// GetCFG calculates the basic-block control-flow graph. Branch contributes
// both targets, Goto its target; Return and Unreachable contribute no
// successors and mark exits. Panics on a block without a terminator or a
// function without exits; those indicate front-end bugs, not user errors.
func GetCFG(blocks []*ir.BasicBlock) *CFG {
	succ := make(map[*ir.BasicBlock][]*ir.BasicBlock, len(blocks))
	pred := make(map[*ir.BasicBlock][]*ir.BasicBlock, len(blocks))
	exits := make(map[*ir.BasicBlock]struct{})
	for _, block := range blocks {
		last := block.Terminator()
		if last == nil {
			panic("empty basic block in CFG construction")
		}
		var next []*ir.BasicBlock
		switch t := last.(type) {
		case *ir.Branch:
			next = []*ir.BasicBlock{t.True, t.False}
		case *ir.Goto:
			next = []*ir.BasicBlock{t.Target}
		case *ir.Return, *ir.Unreachable:
			exits[block] = struct{}{}
		default:
			panic(fmt.Sprintf("basic block does not end in a terminator: %T", last))
		}
		succ[block] = next
		if _, ok := pred[block]; !ok {
			pred[block] = nil
		}
	}
	for _, prev := range blocks {
		for _, next := range succ[prev] {
			pred[next] = append(pred[next], prev)
		}
	}
	if len(exits) == 0 {
		panic("control-flow graph has no exits")
	}
	return &CFG{Succ: succ, Pred: pred, Exits: exits}
}
