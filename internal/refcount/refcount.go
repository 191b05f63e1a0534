// Package refcount inserts reference count inc/dec ops into a function.
//
// This transformation happens towards the end of compilation. Before it,
// reference count management is not explicitly handled at all; postponing
// the pass keeps the earlier passes simpler as they don't have to update
// reference count ops.
//
// The approach is to decrement reference counts soon after a value is no
// longer live, to quickly free memory, though there are no strict
// guarantees other than that local variables are freed before return.
//
// Function arguments are a little special. They are initially considered
// borrowed from the caller and their reference counts don't need to be
// decremented before returning. An assignment to a borrowed value turns it
// into a regular, owned reference that needs to be freed before return.
package refcount

import (
	"pyrite/internal/analysis"
	"pyrite/internal/ir"
)

// InsertRefCountOpcodes inserts inc_ref and dec_ref ops into a function so
// that reference counts are balanced on every control path. This is the
// entry point to this package; it expects the post-exception-splitting IR.
func InsertRefCountOpcodes(fn *ir.FuncIR) {
	cfg := analysis.GetCFG(fn.Blocks)
	args := analysis.NewValueSet()
	for _, reg := range fn.ArgRegs() {
		args.Add(reg)
	}
	live := analysis.AnalyzeLiveRegs(fn.Blocks, cfg)
	borrow := analysis.AnalyzeBorrowedArguments(fn.Blocks, cfg, args)

	// Bridge blocks are appended while iterating, so walk a snapshot.
	orig := append([]*ir.BasicBlock(nil), fn.Blocks...)
	for _, block := range orig {
		switch block.Terminator().(type) {
		case *ir.Branch, *ir.Goto:
			insertBranchIncAndDecrefs(block, fn, live.Before, borrow.Before, borrow.After)
		}
		transformBlock(block, live.Before, live.After, borrow.Before, fn.Env)
	}
}

// moveParts extracts the (dest, src) pair of a pure-move op: one that just
// copies or steals a reference and doesn't create a new one.
func moveParts(op ir.Op) (dest, src ir.Value, ok bool) {
	switch o := op.(type) {
	case *ir.Assign:
		return o.Dest, o.Src, true
	case *ir.Cast:
		return o, o.Src, true
	case *ir.Box:
		return o, o.Src, true
	}
	return nil, nil, false
}

func transformBlock(block *ir.BasicBlock,
	preLive, postLive, preBorrow analysis.AnalysisDict,
	env *ir.Environment) {

	oldOps := block.Ops
	var ops []ir.Op
	appendIncRef := func(v ir.Value) {
		if v.Type().IsRefCounted() {
			ops = append(ops, ir.NewIncRef(v))
		}
	}
	appendDecRef := func(v ir.Value) {
		if v.Type().IsRefCounted() {
			ops = append(ops, ir.NewDecRef(v))
		}
	}

	for i, op := range oldOps {
		key := analysis.OpKey{Block: block, Index: i}
		if dest, src, isMove := moveParts(op); isMove {
			// Retain the source if it stays live or is borrowed;
			// otherwise its reference is stolen by the move.
			if postLive[key].Contains(src) || preBorrow[key].Contains(src) {
				appendIncRef(src)
			}
			// Overwriting an owned live value releases it first.
			if !preBorrow[key].Contains(dest) && preLive[key].Contains(dest) {
				appendDecRef(dest)
			}
			ops = append(ops, op)
			if !postLive[key].Contains(dest) {
				appendDecRef(dest)
			}
		} else if _, isRegOp := op.(ir.RegisterOp); isRegOp {
			// These ops construct a new reference.
			var dest ir.Value
			if !op.IsVoid() {
				dest = op
			}
			var tmp *ir.Register
			if dest != nil && !preBorrow[key].Contains(dest) && preLive[key].Contains(dest) {
				if !valueIn(op.Sources(), dest) {
					appendDecRef(dest)
				} else {
					// The old value is also an operand; it cannot
					// be released before the op runs.
					tmp = env.AddTemp(dest.Type())
					ops = append(ops, ir.NewAssign(tmp, dest))
				}
			}
			ops = append(ops, op)
			for _, src := range ir.UniqueSources(op) {
				// Release sources that won't be live afterwards.
				if !postLive[key].Contains(src) && !preBorrow[key].Contains(src) && src != dest {
					appendDecRef(src)
				}
			}
			if _, isLoadStatic := op.(*ir.LoadStatic); isLoadStatic {
				// LoadStatic produces a borrowed value; retain it to
				// make it owned.
				appendIncRef(dest)
			}
			if dest != nil && !postLive[key].Contains(dest) {
				appendDecRef(dest)
			}
			if tmp != nil {
				appendDecRef(tmp)
			}
		} else if ret, isReturn := op.(*ir.Return); isReturn && preBorrow[key].Contains(ret.Reg) {
			// The return op hands the caller a new reference.
			appendIncRef(ret.Reg)
			ops = append(ops, op)
		} else {
			ops = append(ops, op)
		}
	}
	block.Ops = ops
}

func valueIn(vals []ir.Value, v ir.Value) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

// insertBranchIncAndDecrefs inserts inc_refs and/or dec_refs on the edges
// out of a branch or goto.
//
// Registers that become dead across an edge are dec_ref'd there; registers
// that stop being borrowed across an edge are inc_ref'd there (they become
// owned at the target). The true and false targets of a branch may have
// different live and borrowed sets, so new blocks are spliced onto edges
// that need reference count adjustments.
//
// Example needing an inc_ref on one edge:
//
//	def f(a: int) -> int:
//	    if a:
//	        a = 1
//	    return a  # a is borrowed if the condition was false, owned if true
func insertBranchIncAndDecrefs(block *ir.BasicBlock,
	fn *ir.FuncIR,
	preLive, preBorrow, postBorrow analysis.AnalysisDict) {

	prevKey := analysis.OpKey{Block: block, Index: len(block.Ops) - 1}
	sourceLive := preLive[prevKey]
	sourceBorrowed := postBorrow[prevKey]
	switch term := block.Terminator().(type) {
	case *ir.Branch:
		trueOps := append(
			afterBranchDecrefs(term.True, preLive, sourceBorrowed, sourceLive, fn.Env),
			afterBranchIncrefs(term.True, preBorrow, sourceBorrowed, fn.Env)...)
		if len(trueOps) > 0 {
			term.True = addBlock(trueOps, fn, term.True)
		}
		falseOps := append(
			afterBranchDecrefs(term.False, preLive, sourceBorrowed, sourceLive, fn.Env),
			afterBranchIncrefs(term.False, preBorrow, sourceBorrowed, fn.Env)...)
		if len(falseOps) > 0 {
			term.False = addBlock(falseOps, fn, term.False)
		}
	case *ir.Goto:
		newOps := afterBranchIncrefs(term.Target, preBorrow, sourceBorrowed, fn.Env)
		if len(newOps) > 0 {
			term.Target = addBlock(newOps, fn, term.Target)
		}
	}
}

func afterBranchDecrefs(target *ir.BasicBlock,
	preLive analysis.AnalysisDict,
	sourceBorrowed, sourceLive analysis.ValueSet,
	env *ir.Environment) []ir.Op {

	targetPreLive := preLive[analysis.OpKey{Block: target, Index: 0}]
	var ops []ir.Op
	for _, reg := range sourceLive.SortedByEnv(env) {
		if !targetPreLive.Contains(reg) && !sourceBorrowed.Contains(reg) && reg.Type().IsRefCounted() {
			ops = append(ops, ir.NewDecRef(reg))
		}
	}
	return ops
}

func afterBranchIncrefs(target *ir.BasicBlock,
	preBorrow analysis.AnalysisDict,
	sourceBorrowed analysis.ValueSet,
	env *ir.Environment) []ir.Op {

	targetBorrowed := preBorrow[analysis.OpKey{Block: target, Index: 0}]
	var ops []ir.Op
	for _, reg := range sourceBorrowed.SortedByEnv(env) {
		if !targetBorrowed.Contains(reg) && reg.Type().IsRefCounted() {
			ops = append(ops, ir.NewIncRef(reg))
		}
	}
	return ops
}

func addBlock(ops []ir.Op, fn *ir.FuncIR, target *ir.BasicBlock) *ir.BasicBlock {
	block := ir.NewBasicBlock()
	block.Ops = append(block.Ops, ops...)
	block.Ops = append(block.Ops, ir.NewGoto(target))
	fn.Blocks = append(fn.Blocks, block)
	return block
}
