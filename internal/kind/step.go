package kind

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/funvibe/mcheck/internal/solver"
	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys"
)

// splitClosure implements spec.md §4.1's split-closure sub-procedure: it
// determines, among unknowns, which survive a single relative-induction
// check at e.k under the optimistic assumption that optimistics already
// hold, repeating with a fresh activation literal each round until the
// query is unsatisfiable or every unknown has been moved to falsifiable.
func (e *Engine) splitClosure(ctx context.Context, unknowns, optimistics []transys.Property, assumptions []*term.Term) (unfalsifiable, falsifiable []transys.Property, err error) {
	log := e.logger().With(zap.Int64("k", e.k))
	remaining := append([]transys.Property{}, unknowns...)
	var falsifiableAccum []transys.Property

	for len(remaining) > 0 {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		// 1. N = ¬(⋀ remaining)@k
		negLits := make([]*term.Term, len(remaining))
		for i, p := range remaining {
			negLits[i] = e.store.Bump(p.Term, e.k)
		}
		n := e.store.Not(e.store.And(negLits...))

		// 2. M = ⋀ optimistics@k
		optLits := make([]*term.Term, len(optimistics))
		for i, p := range optimistics {
			optLits[i] = e.store.Bump(p.Term, e.k)
		}
		m := e.store.And(optLits...)

		// 3-4. Fresh activation literal gating N ∧ M.
		af := e.actlits.Fresh()
		e.sv.AssertTerm(e.store.Implies(af.Term, e.store.And(n, m)))

		roundAssumptions := append(append([]*term.Term{}, assumptions...), af.Term)

		moved, sat, compressed, err := e.resolveRound(remaining, roundAssumptions)
		if err != nil {
			return nil, nil, err
		}
		if compressed {
			// A compression constraint was asserted under af; retry the
			// same round before touching remaining.
			moved, sat, compressed, err = e.resolveRound(remaining, roundAssumptions)
			if err != nil {
				return nil, nil, err
			}
			if compressed {
				return nil, nil, fmt.Errorf("kind: path compression did not converge at k=%d", e.k)
			}
		}
		if !sat {
			// Unsat: everything left in remaining is unfalsifiable.
			log.Debug("split-closure round unsat, closure reached", zap.Int("unfalsifiable_round", len(remaining)))
			break
		}
		if len(moved) == 0 {
			// Sat but nothing evaluated false: a defensive backstop against
			// an encoding asymmetry between N and the per-property
			// evaluation; treat as closure rather than loop forever.
			log.Warn("split-closure: sat CTI falsified no candidate, treating remainder as unfalsifiable")
			break
		}

		movedNames := make(map[string]bool, len(moved))
		for _, p := range moved {
			movedNames[p.Name] = true
		}
		falsifiableAccum = append(falsifiableAccum, moved...)
		next := remaining[:0:0]
		for _, p := range remaining {
			if !movedNames[p.Name] {
				next = append(next, p)
			}
		}
		remaining = next
	}

	return remaining, falsifiableAccum, nil
}

// resolveRound performs one check-sat-assuming call. On Unsat it returns
// (nil, false, false, nil) meaning the round's candidates are all unfalsifiable.
// On Sat it attempts path compression; if compression yields a non-empty
// constraint set it asserts the conjunction and reports compressed=true so
// the caller re-checks before evaluating anything. Otherwise it evaluates
// every candidate at offset e.k against the CTI and returns those that
// evaluate false.
func (e *Engine) resolveRound(candidates []transys.Property, assumptions []*term.Term) (moved []transys.Property, sat bool, compressed bool, err error) {
	res := e.sv.CheckSatAssumingAndGetValues(assumptions, func(mdl solver.Model) {
		constraints := e.compressor.Compress(e.k, func(name string) {})
		if len(constraints) > 0 {
			e.sv.AssertTerm(e.store.And(constraints...))
			compressed = true
			return
		}
		for _, p := range candidates {
			if !mdl.TermValue(e.store.Bump(p.Term, e.k)) {
				moved = append(moved, p)
			}
		}
	}, nil, nil)
	if res == solver.Unsat {
		return nil, false, false, nil
	}
	if res == solver.Unknown {
		return nil, false, false, fmt.Errorf("kind: solver returned unknown at k=%d", e.k)
	}
	return moved, true, compressed, nil
}
