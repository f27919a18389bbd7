package ic3ia

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/funvibe/mcheck/internal/solver"
	"github.com/funvibe/mcheck/internal/term"
)

// refine implements spec.md §4.2's counterexample refinement: simulate
// checks whether the abstract path is concretizable (a real
// counterexample); if not, interpolate grows the abstraction with new
// predicates extracted from a Craig interpolation sequence over the path.
// path is ordered ascending in time, path[i] the cube discovered at offset
// i, path[len(path)-1] the original bad cube found at the top frame.
func (e *Engine) refine(ctx context.Context, path []*term.Term) Outcome {
	k := int64(len(path) - 1)
	e.ensureOffsets(k)

	if outcome, real := e.simulate(path, k); real {
		return outcome
	} else if outcome.Kind == InternalInconsistency {
		return outcome
	}

	return e.interpolateAndGrow(path, k)
}

// simulate checks SAT of ⋀_i path_i@i ∧ ⋀_i H@i ∧ ⋀_i T@i (spec.md §4.2's
// "simulate" step). terminal=true means the return value is terminal (a real
// counterexample or an internal error); terminal=false means simulation found
// the path spurious and refinement should proceed to interpolation.
func (e *Engine) simulate(path []*term.Term, k int64) (outcome Outcome, terminal bool) {
	var conjuncts []*term.Term
	for i := int64(0); i <= k; i++ {
		conjuncts = append(conjuncts, e.store.Bump(path[i], i))
		conjuncts = append(conjuncts, e.alpha.Coupling(i))
	}
	for i := int64(0); i < k; i++ {
		conjuncts = append(conjuncts, e.store.Bump(e.transRel, i))
	}

	res, mdl := e.gatedCheck(conjuncts, nil)
	if res == solver.Unknown {
		return Outcome{Kind: InternalInconsistency, Err: fmt.Errorf("ic3ia: solver returned unknown during simulate")}, true
	}
	if res == solver.Sat {
		trace := e.sys.PathFromModel(mdl, k)
		return Outcome{Kind: Failure, Trace: trace}, true
	}
	return Outcome{}, false
}

// interpolateAndGrow builds the interpolation sequence A_0..A_k, retrieves
// interpolants J_0..J_{k-1}, and grows Π/α with whatever predicates they
// contribute (spec.md §4.2 steps 2-3). It always returns Kind: Success to
// mean "not a real counterexample, abstraction grown, retry block" unless
// an InternalInconsistency is hit along the way.
func (e *Engine) interpolateAndGrow(path []*term.Term, k int64) Outcome {
	e.sv.Push()
	defer e.sv.Pop()

	names := make([]string, 0, k+1)
	for i := int64(0); i <= k; i++ {
		concretized := e.alpha.Concretize(path[i])
		var ai *term.Term
		if i == 0 {
			ai = concretized
		} else {
			ai = e.store.And(e.store.Bump(e.transRel, i-1), e.store.Bump(concretized, i))
		}
		name := fmt.Sprintf("A%d", i)
		e.sv.AssertNamedTerm(name, ai)
		names = append(names, name)
	}

	res := e.sv.CheckSatAssuming(nil, nil, nil)
	if res == solver.Sat {
		return Outcome{Kind: InternalInconsistency, Err: fmt.Errorf("ic3ia: interpolation sequence unexpectedly sat after simulate ruled sat out")}
	}
	if res == solver.Unknown {
		return Outcome{Kind: InternalInconsistency, Err: fmt.Errorf("ic3ia: solver returned unknown while checking the interpolation sequence")}
	}

	itps, err := e.sv.GetInterpolants(names)
	if err != nil {
		return Outcome{Kind: InternalInconsistency, Err: fmt.Errorf("ic3ia: interpolation failed: %w", err)}
	}

	var newPreds []*term.Term
	for i, j := range itps {
		unbumped := e.store.Bump(j, -int64(i))
		switch unbumped {
		case e.store.True():
			continue
		case e.store.False():
			// Open question (spec.md §9): the source leaves ⊥ behavior
			// unspecified. A ⊥ interpolant means the query was already
			// unsat at that split point; treat it like ⊤ (drop) and log
			// the anomaly rather than injecting a contradictory predicate.
			e.logger().Warn("refinement interpolant was unsatisfiable, dropping like a trivial interpolant", zap.Int("split_index", i))
			continue
		}
		newPreds = append(newPreds, unbumped)
	}

	added := e.alpha.Update(newPreds)
	e.declareAbvarsAcrossOffsets(added)
	e.pi = append(e.pi, newPreds...)

	return Outcome{Kind: Success}
}
