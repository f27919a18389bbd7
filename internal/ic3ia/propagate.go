package ic3ia

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/funvibe/mcheck/internal/solver"
	"github.com/funvibe/mcheck/internal/term"
)

// propagate implements spec.md §4.2.b's Propagate phase: for each adjacent
// pair of frames, bottom up, partition_absrelind decides which of the
// lower frame's own clauses also hold one step further under the lower
// frame alone and pushes those up; a level whose own store empties out
// entirely means that frame and the one above it have become identical —
// the fixpoint the main loop is waiting for.
func (e *Engine) propagate(ctx context.Context) (fixpoint bool, outcome Outcome) {
	log := e.logger()
	top := e.frames.Top()

	for i := int64(1); i < top; i++ {
		select {
		case <-ctx.Done():
			return false, Outcome{Kind: InternalInconsistency, Err: ctx.Err()}
		default:
		}

		clauses := e.frames.ClausesAt(i)

		// An already-empty own-store trivially satisfies partitionAbsRelInd
		// (nothing to test, nothing kept) and falls straight into the
		// fixpoint branch below — this is what lets a level that never
		// received a blocked clause (e.g. a trivially true property, or one
		// whose own store was fully propagated away on a prior pass)
		// terminate the run instead of extending frames forever. Level 0 is
		// excluded from this loop entirely (it never holds clauses), so this
		// never fires spuriously on the very first pass.
		keep, propagated, err := e.partitionAbsRelInd(e.frames.Full(i), clauses)
		if err != nil {
			return false, Outcome{Kind: InternalInconsistency, Err: fmt.Errorf("ic3ia: propagate at level %d: %w", i, err)}
		}
		for _, g := range propagated {
			e.frames.AddClause(i+1, g)
		}
		e.frames.SetClausesAt(i, keep)

		if len(keep) == 0 {
			log.Debug("frame converged during propagation", zap.Int64("level", i))
			return true, Outcome{Kind: Success}
		}
	}

	return false, Outcome{Kind: Success}
}

// partitionAbsRelInd implements spec.md §4.2.b's partition_absrelind:
// repeatedly test the conjunction of the remaining candidate clauses for
// relative induction against fiFull, using the model on SAT to read off
// per-clause valuations: a clause whose primed copy is false in the model
// must stay, the rest are retried on the shrunken remainder. An Unsat
// result means everything left propagates at once.
//
// Open question (spec.md §9): the source recurses assuming the remaining
// set strictly shrinks each round. If a SAT round moves nothing to keep
// (every remaining clause' reads true), that is not an error, but looping
// again would never make progress; such clauses are classified must-stay
// immediately instead of retried.
func (e *Engine) partitionAbsRelInd(fiFull *term.Term, clauses []*term.Term) (keep, propagate []*term.Term, err error) {
	remaining := append([]*term.Term{}, clauses...)
	h0, h1 := e.alpha.Coupling(0), e.alpha.Coupling(1)
	tGamma := e.gamma.CloneTerm(e.transRel)
	ePi0, ePi1 := e.ePiAt(0), e.ePiAt(1)

	for len(remaining) > 0 {
		primed := make([]*term.Term, len(remaining))
		for i, cl := range remaining {
			primed[i] = e.store.Bump(cl, 1)
		}
		c := e.store.And(remaining...)
		notCPrime := e.store.Not(e.store.Bump(c, 1))

		res, mdl := e.gatedCheck([]*term.Term{fiFull, c, h0, h1, tGamma, ePi0, ePi1, notCPrime}, primed)
		if res == solver.Unknown {
			return nil, nil, fmt.Errorf("ic3ia: partition_absrelind: solver returned unknown")
		}
		if res == solver.Unsat {
			propagate = append(propagate, remaining...)
			return keep, propagate, nil
		}

		var stillRemaining []*term.Term
		progressed := false
		for i, cl := range remaining {
			if mdl.TermValue(primed[i]) {
				stillRemaining = append(stillRemaining, cl)
			} else {
				keep = append(keep, cl)
				progressed = true
			}
		}
		if !progressed {
			keep = append(keep, stillRemaining...)
			return keep, propagate, nil
		}
		remaining = stillRemaining
	}
	return keep, propagate, nil
}
