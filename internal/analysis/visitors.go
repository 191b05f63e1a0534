package analysis

import "pyrite/internal/ir"

// destination returns the register or op value written by op, or nil when
// the op writes nothing. Assign writes its destination register; a non-void
// register op writes itself.
func destination(op ir.Op) ir.Value {
	switch o := op.(type) {
	case *ir.Assign:
		return o.Dest
	case *ir.Goto, *ir.Branch, *ir.Return, *ir.Unreachable:
		return nil
	default:
		if o.IsVoid() {
			return nil
		}
		return o
	}
}

var emptyGK = GenAndKill{Gen: NewValueSet(), Kill: NewValueSet()}

type maybeDefinedVisitor struct{}

func (maybeDefinedVisitor) OpGenKill(op ir.Op) GenAndKill {
	if dest := destination(op); dest != nil {
		return GenAndKill{Gen: NewValueSet(dest), Kill: NewValueSet()}
	}
	return emptyGK
}

// AnalyzeMaybeDefinedRegs calculates potentially defined registers at each
// CFG location: those that have a value along some path from the initial
// location.
func AnalyzeMaybeDefinedRegs(blocks []*ir.BasicBlock, cfg *CFG, initialDefined ValueSet) AnalysisResult {
	return RunAnalysis(blocks, cfg, maybeDefinedVisitor{}, initialDefined, MaybeAnalysis, false, nil)
}

type mustDefinedVisitor struct{}

func (mustDefinedVisitor) OpGenKill(op ir.Op) GenAndKill {
	if dest := destination(op); dest != nil {
		return GenAndKill{Gen: NewValueSet(dest), Kill: NewValueSet()}
	}
	return emptyGK
}

// AnalyzeMustDefinedRegs calculates always-defined registers at each CFG
// location: those that have a value along all paths from the initial
// location. The transfer function matches the maybe analysis; only the meet
// (intersection) and the universe differ.
func AnalyzeMustDefinedRegs(blocks []*ir.BasicBlock, cfg *CFG, initialDefined ValueSet, regs []ir.Value) AnalysisResult {
	return RunAnalysis(blocks, cfg, mustDefinedVisitor{}, initialDefined, MustAnalysis, false, NewValueSet(regs...))
}

type borrowedArgumentsVisitor struct {
	args ValueSet
}

func (v borrowedArgumentsVisitor) OpGenKill(op ir.Op) GenAndKill {
	if dest := destination(op); dest != nil && v.args.Contains(dest) {
		return GenAndKill{Gen: NewValueSet(), Kill: NewValueSet(dest)}
	}
	return emptyGK
}

// AnalyzeBorrowedArguments calculates the arguments that can still use
// references borrowed from the caller. An assignment to an argument means
// it is no longer borrowed.
func AnalyzeBorrowedArguments(blocks []*ir.BasicBlock, cfg *CFG, args ValueSet) AnalysisResult {
	return RunAnalysis(blocks, cfg, borrowedArgumentsVisitor{args: args}, args, MustAnalysis, false, args)
}

type undefinedVisitor struct{}

func (undefinedVisitor) OpGenKill(op ir.Op) GenAndKill {
	if dest := destination(op); dest != nil {
		return GenAndKill{Gen: NewValueSet(), Kill: NewValueSet(dest)}
	}
	return emptyGK
}

// AnalyzeUndefinedRegs calculates potentially undefined registers at each
// CFG location: those with an undefined value along some path from the
// entry. The emitter uses this to decide which locals need initialization.
func AnalyzeUndefinedRegs(blocks []*ir.BasicBlock, cfg *CFG, env *ir.Environment, initialDefined ValueSet) AnalysisResult {
	initialUndefined := NewValueSet()
	for _, reg := range env.Regs() {
		if !initialDefined.Contains(reg) {
			initialUndefined.Add(reg)
		}
	}
	return RunAnalysis(blocks, cfg, undefinedVisitor{}, initialUndefined, MaybeAnalysis, false, nil)
}

type livenessVisitor struct{}

func (livenessVisitor) OpGenKill(op ir.Op) GenAndKill {
	switch op.(type) {
	case *ir.Goto, *ir.Unreachable:
		return emptyGK
	case *ir.Branch, *ir.Return:
		return GenAndKill{Gen: NewValueSet(op.Sources()...), Kill: NewValueSet()}
	}
	gen := NewValueSet(op.Sources()...)
	kill := NewValueSet()
	if dest := destination(op); dest != nil {
		kill.Add(dest)
	}
	return GenAndKill{Gen: gen, Kill: kill}
}

// AnalyzeLiveRegs calculates live registers at each CFG location: those
// that can be read along some CFG path starting from the location.
func AnalyzeLiveRegs(blocks []*ir.BasicBlock, cfg *CFG) AnalysisResult {
	return RunAnalysis(blocks, cfg, livenessVisitor{}, NewValueSet(), MaybeAnalysis, true, nil)
}
