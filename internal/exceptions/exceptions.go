// Package exceptions inserts error checks after ops.
//
// When initially building the IR, the code doesn't perform error checks for
// exceptions. This transform inserts all required checks afterwards. Each op
// describes how it indicates an error condition (if at all).
//
// Basic blocks are split on each error check since branches can only be
// placed at the end of a basic block.
package exceptions

import (
	"fmt"

	"pyrite/internal/ir"
)

// InsertExceptionHandling rewrites fn so that no fallible op appears
// mid-block: each is followed by a branch on its error indicator, routed to
// the op's own error handler or to a synthesized function-level handler that
// returns the error value. Applying the transform twice is a no-op.
func InsertExceptionHandling(fn *ir.FuncIR) {
	// Generate the default error block only if some op may raise without
	// an existing check. If an op fails without its own handler, control
	// branches here; the block just returns an error value.
	var errorBlock *ir.BasicBlock
	for _, block := range fn.Blocks {
		if hasUncheckedRaise(block) {
			errorBlock = addHandlerBlock(fn)
			break
		}
	}
	if errorBlock != nil {
		fn.Blocks = splitBlocksAtErrors(fn.Blocks, errorBlock, fn.Name)
	}
}

// hasUncheckedRaise reports whether any fallible op in the block is not yet
// followed by its error-check branch. Checked ops keep the transform
// idempotent.
func hasUncheckedRaise(block *ir.BasicBlock) bool {
	for i, op := range block.Ops {
		if !ir.CanRaise(op) {
			continue
		}
		if i+1 < len(block.Ops) && isErrorCheck(op, block.Ops[i+1]) {
			continue
		}
		return true
	}
	return false
}

func isErrorCheck(op ir.Op, next ir.Op) bool {
	branch, ok := next.(*ir.Branch)
	return ok && branch.Left == op
}

func addHandlerBlock(fn *ir.FuncIR) *ir.BasicBlock {
	block := ir.NewBasicBlock()
	fn.Blocks = append(fn.Blocks, block)
	op := ir.NewLoadErrorValue(fn.RetType())
	block.Ops = append(block.Ops, op)
	fn.Env.AddOp(op)
	block.Ops = append(block.Ops, ir.NewReturn(op))
	return block
}

func splitBlocksAtErrors(blocks []*ir.BasicBlock,
	defaultErrorHandler *ir.BasicBlock,
	funcName string) []*ir.BasicBlock {

	var newBlocks []*ir.BasicBlock
	mapping := make(map[*ir.BasicBlock]*ir.BasicBlock)
	partial := make(map[*ir.Branch]struct{})

	// First split blocks on ops that may raise.
	for _, block := range blocks {
		ops := block.Ops
		i0 := 0
		i := 0
		nextBlock := ir.NewBasicBlock()
		for i < len(ops)-1 {
			op := ops[i]
			if _, isRegOp := op.(ir.RegisterOp); isRegOp && ir.CanRaise(op) && !isErrorCheck(op, ops[i+1]) {
				newBlocks = append(newBlocks, nextBlock)
				newBlock := nextBlock
				nextBlock = ir.NewBasicBlock()
				newBlock.Ops = append(newBlock.Ops, ops[i0:i+1]...)

				var variant int
				var negated bool
				switch op.ErrorKind() {
				case ir.ErrMagic:
					// Op stores an error sentinel that depends on
					// its result type.
					variant = ir.BranchIsError
					negated = false
				case ir.ErrFalse:
					// Op produces a C false value on error.
					variant = ir.BranchBool
					negated = true
				default:
					panic(fmt.Sprintf("unknown error kind %d", op.ErrorKind()))
				}

				// Void ops can't generate errors since an error is
				// always indicated by a special value stored in a
				// register.
				if op.IsVoid() {
					panic("void op generating errors?")
				}

				errorLabel := block.ErrorHandler
				if errorLabel == nil {
					errorLabel = defaultErrorHandler
				}
				branch := ir.NewBranch(op, errorLabel, nextBlock, variant, op.Line())
				branch.Negated = negated
				if op.Line() != ir.NoTracebackLineNo {
					branch.Traceback = &ir.TracebackEntry{Function: funcName, Line: op.Line()}
				}
				// Only the handler label of these branches is
				// rewritten during fixup below.
				partial[branch] = struct{}{}
				newBlock.Ops = append(newBlock.Ops, branch)
				if i0 == 0 {
					mapping[block] = newBlock
				}
				i++
				i0 = i
			} else {
				i++
			}
		}
		newBlocks = append(newBlocks, nextBlock)
		nextBlock.Ops = append(nextBlock.Ops, ops[i0:]...)
		if i0 == 0 {
			mapping[block] = nextBlock
		}
	}

	// Adjust all jump targets to reflect the new blocks. Branches created
	// above are partial: their false label is a fresh split fragment that
	// is already final and has no entry in the block map, so only the true
	// (handler) side may refer to an original block and get remapped.
	for _, block := range newBlocks {
		for _, op := range block.Ops {
			switch t := op.(type) {
			case *ir.Goto:
				t.Target = mapping[t.Target]
			case *ir.Branch:
				if _, ok := partial[t]; !ok {
					t.False = mapping[t.False]
				}
				t.True = mapping[t.True]
			}
		}
	}
	return newBlocks
}
