package ic3ia

import (
	"context"
	"fmt"

	"github.com/funvibe/mcheck/internal/solver"
	"github.com/funvibe/mcheck/internal/term"
)

// block implements spec.md §4.2.a: repeatedly find and block bad cubes at
// the topmost frame F_k until either the frame is clear (Unsat) or
// blocking bottoms out in a genuine, concretizable counterexample.
func (e *Engine) block(ctx context.Context, k int64) Outcome {
	for {
		select {
		case <-ctx.Done():
			return Outcome{Kind: InternalInconsistency, Err: ctx.Err()}
		default:
		}

		fk := e.frames.Full(k)
		h0 := e.alpha.Coupling(0)
		abvarTerms0 := e.abvarTermsAt(0)

		res, mdl := e.gatedCheck([]*term.Term{fk, h0, e.store.Not(e.pPrime)}, abvarTerms0)
		if res == solver.Unknown {
			return Outcome{Kind: InternalInconsistency, Err: fmt.Errorf("ic3ia: solver returned unknown while searching frame %d for bad cubes", k)}
		}
		if res == solver.Unsat {
			return Outcome{Kind: Success}
		}

		cube := extractCube(e.store, mdl, abvarTerms0)
		terminal, isTerminal := e.recblock(ctx, cube, k)
		if isTerminal {
			return terminal
		}
		// Otherwise a blocking clause was added or the abstraction grew;
		// re-query F_k from the top of this loop.
	}
}

// blockObligation is one pending proof obligation in recblock's explicit
// worklist (spec.md §9: recursion here must be stack-neutral).
type blockObligation struct {
	cube  []*term.Term // the bad cube to block, as literals
	level int64
	path  []*term.Term // cubes-as-conjunctions, most recent first
}

// recblock is spec.md §4.2.a's recblock, rewritten as an explicit worklist
// instead of recursive descent. It returns (outcome, true) when a terminal
// Failure/InternalInconsistency is reached, or (_, false) to tell block to
// re-run its top-frame query (either a clause was learned, or refinement
// grew the abstraction).
func (e *Engine) recblock(ctx context.Context, cube []*term.Term, level int64) (Outcome, bool) {
	worklist := []blockObligation{{cube: cube, level: level, path: []*term.Term{e.store.And(cube...)}}}

	for len(worklist) > 0 {
		select {
		case <-ctx.Done():
			return Outcome{Kind: InternalInconsistency, Err: ctx.Err()}, true
		default:
		}

		ob := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if ob.level == 0 {
			outcome := e.refine(ctx, ob.path)
			if outcome.Kind == Failure || outcome.Kind == InternalInconsistency {
				return outcome, true
			}
			// Refinement grew the abstraction without finding a real
			// counterexample; abandon the rest of this worklist and let
			// block re-query F_k under the enlarged Π.
			return Outcome{}, false
		}

		j := ob.level - 1
		fJ := e.frames.Full(j)
		notC := e.store.Not(e.store.And(ob.cube...))

		inductive, cti, err := e.absRelInd(fJ, notC)
		if err != nil {
			return Outcome{Kind: InternalInconsistency, Err: err}, true
		}

		if inductive {
			g := e.generalize(ob.cube, fJ)
			clause := e.store.Not(e.store.And(g...))
			e.frames.AddClause(ob.level, clause)
			continue
		}

		// Not inductive: block the CTI at the lower level first, then
		// retry this obligation (pushed back underneath it, LIFO).
		newPath := append([]*term.Term{e.store.And(cti...)}, ob.path...)
		worklist = append(worklist, ob, blockObligation{cube: cti, level: j, path: newPath})
	}

	return Outcome{}, false
}

// absRelInd checks whether ¬cube (passed as c) is inductive relative to
// frame f (spec.md §4.2.a's absRelInd). Returns (true, nil, nil) on unsat
// (c is relatively inductive); (false, cti, nil) on sat, with cti the bad
// cube extracted from next-state abvar valuations, re-expressed at offset
// 0 like every other cube this engine passes around.
func (e *Engine) absRelInd(f, c *term.Term) (inductive bool, cti []*term.Term, err error) {
	h0 := e.alpha.Coupling(0)
	h1 := e.alpha.Coupling(1)
	tGamma := e.gamma.CloneTerm(e.transRel)
	ePi0 := e.ePiAt(0)
	ePi1 := e.ePiAt(1)
	cPrime := e.store.Bump(c, 1)
	notCPrime := e.store.Not(cPrime)
	abvarTerms1 := e.abvarTermsAt(1)

	res, mdl := e.gatedCheck([]*term.Term{f, c, h0, h1, tGamma, ePi0, ePi1, notCPrime}, abvarTerms1)
	if res == solver.Unknown {
		return false, nil, fmt.Errorf("ic3ia: solver returned unknown in absRelInd")
	}
	if res == solver.Unsat {
		return true, nil, nil
	}
	cubeAt1 := extractCube(e.store, mdl, abvarTerms1)
	cubeAt0 := make([]*term.Term, len(cubeAt1))
	for i, lit := range cubeAt1 {
		cubeAt0[i] = e.store.Bump(lit, -1)
	}
	return false, cubeAt0, nil
}

// generalize drops literals from cube one at a time, keeping a drop only
// when the reduced clause's negation is still relatively inductive against
// f (spec.md §4.2.a). The empty cube is never produced (it would yield an
// unsound ⊥ clause).
func (e *Engine) generalize(cube []*term.Term, f *term.Term) []*term.Term {
	current := append([]*term.Term{}, cube...)
	for i := 0; i < len(current); i++ {
		if len(current) == 1 {
			break
		}
		reduced := make([]*term.Term, 0, len(current)-1)
		reduced = append(reduced, current[:i]...)
		reduced = append(reduced, current[i+1:]...)

		notReduced := e.store.Not(e.store.And(reduced...))
		inductive, _, err := e.absRelInd(f, notReduced)
		if err == nil && inductive {
			current = reduced
			i--
		}
	}
	return current
}
