// Package ic3ia implements the IC3-with-Implicit-Abstraction engine
// (spec.md §4.2): a predicate-abstracted frame sequence, relative-induction
// checking, recursive blocking via an explicit worklist, counterexample
// refinement by interpolation, and frame propagation. One Engine proves or
// refutes invariance of exactly one property, owning its solver exclusively
// for its lifetime, matching the outer driver's "IC3IA invoked per
// property" control flow (spec.md §2).
//
// Block, absRelInd, and propagate are all phrased over a fixed
// current/next offset pair (0, 1): the frame index they reason about is
// bookkeeping over which clause sets apply, not an additional SMT time
// coordinate. Counterexample refinement is the exception: reconstructing
// and interpolating a concrete trace of length k genuinely needs every
// state variable, clone, and abvar declared at each offset 0..k, which
// refine declares through ensureOffsets before building the trace; Run
// itself declares nothing new when it extends the frame sequence.
package ic3ia

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/funvibe/mcheck/internal/actlit"
	"github.com/funvibe/mcheck/internal/config"
	"github.com/funvibe/mcheck/internal/eventbus"
	"github.com/funvibe/mcheck/internal/solver"
	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys"
)

// Engine is one IC3IA run against a single property.
type Engine struct {
	store   *term.Store
	sys     transys.System
	sv      solver.Solver
	bus     eventbus.Bus
	cfg     config.Config
	log     *zap.Logger
	runID   uuid.UUID
	actlits *actlit.Registry

	propName string
	propTerm *term.Term // P, at offset 0
	initTerm *term.Term // I, at offset 0
	transRel *term.Term // T, between offsets 0 and 1

	pi     []*term.Term // Π, the tracked predicate set
	alpha  *AbvarMap
	gamma  *CloneMap
	frames *Frames

	maxOffset int64 // highest offset declared so far, kept current by ensureOffsets

	iPrime, pPrime *term.Term // α(I), α(P), at offset 0
}

func (e *Engine) logger() *zap.Logger {
	return e.log.With(zap.String("run_id", e.runID.String()), zap.String("engine", "ic3ia"), zap.String("property", e.propName))
}

// New constructs an IC3IA engine for one property and runs Setup
// (spec.md §4.2's numbered Setup steps 1-7). prop must be one of the
// entries sys.PropsListOfBound0() returns; its Term is P at offset 0.
func New(store *term.Store, sys transys.System, sv solver.Solver, bus eventbus.Bus, cfg config.Config, log *zap.Logger, prop transys.Property) (*Engine, Outcome) {
	e := &Engine{
		store:    store,
		sys:      sys,
		sv:       sv,
		bus:      bus,
		cfg:      cfg,
		log:      log,
		runID:    uuid.New(),
		propName: prop.Name,
		propTerm: prop.Term,
		alpha:    NewAbvarMap(store),
		gamma:    NewCloneMap(store),
	}
	e.actlits = actlit.NewRegistry(store, sv.DeclareFun)

	sys.DeclareAndDefineOfBounds(sv, 0, 1)
	e.initTerm = sys.InitOfBound(0)
	e.transRel = sys.TransOfBound(1)

	return e, e.setup()
}

// setup runs spec.md §4.2's Setup steps 1-7, returning a non-Success
// Outcome only if the initial check itself already settles the property.
func (e *Engine) setup() Outcome {
	log := e.logger()

	// 1-2. Seed Π = {I, P}, grow α over their atoms.
	e.pi = []*term.Term{e.initTerm, e.propTerm}
	added := e.alpha.Update(e.pi)
	e.declareAbvars(added)

	// 4. Clone map over every state variable of T ∪ Π, declared at 0 and 1.
	allTerms := append(append([]*term.Term{}, e.pi...), e.transRel)
	e.cloneVarsOf(allTerms)

	// 5. Helper term sets.
	e.iPrime = e.alpha.Abstract(e.initTerm)
	e.pPrime = e.alpha.Abstract(e.propTerm)

	// 6. Check I ∧ H ⊨ P via SAT(H ∧ I' ∧ ¬P').
	h0 := e.alpha.Coupling(0)
	res, _ := e.gatedCheck([]*term.Term{h0, e.iPrime, e.store.Not(e.pPrime)}, nil)
	if res == solver.Sat {
		log.Info("initial check falsified the property directly")
		e.bus.PropStatus(transys.Status{Kind: transys.False}, e.sys, e.propName)
		return Outcome{Kind: Failure}
	}
	if res == solver.Unknown {
		return Outcome{Kind: InternalInconsistency, Err: fmt.Errorf("ic3ia: solver returned unknown on the initial check")}
	}

	// 7. F = [F_0, F_1] = [∅, [I']].
	e.frames = NewFrames(e.store, e.iPrime)
	e.maxOffset = 1
	log.Debug("setup complete", zap.Int("predicates", len(e.pi)), zap.Int("abvars", len(e.alpha.Vars())))
	// Success here only means "setup did not already settle the property";
	// callers must still invoke Run for the main loop's real verdict.
	return Outcome{Kind: Success}
}

// Resume reconstructs an Engine from a previously persisted predicate set
// and frame sequence (SPEC_FULL.md §3's checkpoint store) instead of
// running Setup's from-scratch derivation. Π is replayed through Update so
// α is rebuilt deterministically from the same atoms; the frame sequence
// is installed verbatim.
func Resume(store *term.Store, sys transys.System, sv solver.Solver, bus eventbus.Bus, cfg config.Config, log *zap.Logger, prop transys.Property, pi []*term.Term, frames *Frames) (*Engine, Outcome) {
	e := &Engine{
		store:    store,
		sys:      sys,
		sv:       sv,
		bus:      bus,
		cfg:      cfg,
		log:      log,
		runID:    uuid.New(),
		propName: prop.Name,
		propTerm: prop.Term,
		alpha:    NewAbvarMap(store),
		gamma:    NewCloneMap(store),
	}
	e.actlits = actlit.NewRegistry(store, sv.DeclareFun)

	sys.DeclareAndDefineOfBounds(sv, 0, 1)
	e.initTerm = sys.InitOfBound(0)
	e.transRel = sys.TransOfBound(1)

	e.pi = append([]*term.Term{}, pi...)
	added := e.alpha.Update(e.pi)
	e.declareAbvars(added)
	allTerms := append(append([]*term.Term{}, e.pi...), e.transRel)
	e.cloneVarsOf(allTerms)

	e.iPrime = e.alpha.Abstract(e.initTerm)
	e.pPrime = e.alpha.Abstract(e.propTerm)

	e.frames = frames
	e.maxOffset = 1
	if top := frames.Top(); top > e.maxOffset {
		e.ensureOffsets(top)
	}

	e.logger().Info("resumed from checkpoint", zap.Int("predicates", len(e.pi)), zap.Int64("frame_top", frames.Top()))
	return e, Outcome{Kind: Success}
}

// Snapshot returns the current predicate set and frame sequence, in the
// shape SPEC_FULL.md §3's checkpoint store persists (internal/checkpoint's
// IC3IASnapshot.Predicates/.Frames). It is safe to call at any point in the
// engine's lifetime, including after Run returns early on context
// cancellation.
func (e *Engine) Snapshot() (pi []*term.Term, frames [][]*term.Term) {
	return append([]*term.Term{}, e.pi...), e.frames.Levels()
}

// declareAbvars declares each newly minted abvar StateVar at offsets 0 and
// 1 (spec.md §4.2 Setup step 3).
func (e *Engine) declareAbvars(added []*statevar.StateVar) {
	for _, sv := range added {
		e.sv.DeclareFun(statevar.At(sv, 0))
		e.sv.DeclareFun(statevar.At(sv, 1))
	}
}

// cloneVarsOf declares clones of every free variable appearing in terms, at
// offsets 0 and 1 (spec.md §4.2 Setup step 4).
func (e *Engine) cloneVarsOf(terms []*term.Term) {
	for _, t := range terms {
		for _, v := range term.FreeVars(t) {
			cl := e.gamma.Clone(v.SV)
			e.sv.DeclareFun(statevar.At(cl, 0))
			e.sv.DeclareFun(statevar.At(cl, 1))
		}
	}
}

// ensureOffsets declares system state variables, clones, and abvars at
// every offset up to hi, growing e.maxOffset monotonically. Refinement
// calls this before reconstructing a concrete trace of length k; it is a
// no-op once hi is already covered.
func (e *Engine) ensureOffsets(hi int64) {
	if hi <= e.maxOffset {
		return
	}
	e.sys.DeclareAndDefineOfBounds(e.sv, e.maxOffset+1, hi)
	for _, sv := range e.alpha.Vars() {
		for o := e.maxOffset + 1; o <= hi; o++ {
			e.sv.DeclareFun(statevar.At(sv, o))
		}
	}
	for _, sv := range e.gamma.Vars() {
		for o := e.maxOffset + 1; o <= hi; o++ {
			e.sv.DeclareFun(statevar.At(sv, o))
		}
	}
	e.maxOffset = hi
}

// declareAbvarsAcrossOffsets declares newly-minted abvars (grown mid-run by
// refinement) at every offset already in use, 0..e.maxOffset, per spec.md
// §4.2's refinement step 3 ("declare new abvars at every offset 0..k").
func (e *Engine) declareAbvarsAcrossOffsets(added []*statevar.StateVar) {
	for _, sv := range added {
		for o := int64(0); o <= e.maxOffset; o++ {
			e.sv.DeclareFun(statevar.At(sv, o))
		}
	}
}

// Run drives the main loop (spec.md §4.2 "Main loop") until a terminal
// Outcome is reached: Success (fixpoint), Failure (concretizable
// counterexample), InternalInconsistency, or FrameBoundExceeded.
func (e *Engine) Run(ctx context.Context) Outcome {
	log := e.logger()
	for {
		select {
		case <-ctx.Done():
			return Outcome{Kind: InternalInconsistency, Err: ctx.Err()}
		default:
		}

		k := e.frames.Top()
		if e.cfg.MaxFrame > 0 && k > e.cfg.MaxFrame {
			log.Warn("max frame bound reached, stopping with property unresolved", zap.Int64("frame", k))
			e.bus.PropStatus(transys.Status{Kind: transys.Unknown}, e.sys, e.propName)
			return Outcome{Kind: FrameBoundExceeded}
		}

		outcome := e.block(ctx, k)
		if outcome.Kind == Failure {
			log.Info("property falsified", zap.Int64("frame", k))
			e.bus.PropStatus(transys.Status{Kind: transys.False, Witness: outcome.Trace}, e.sys, e.propName)
			return outcome
		}
		if outcome.Kind == InternalInconsistency {
			log.Error("internal inconsistency during block", zap.Error(outcome.Err))
			return outcome
		}

		fixpoint, outcome2 := e.propagate(ctx)
		if outcome2.Kind == InternalInconsistency {
			log.Error("internal inconsistency during propagate", zap.Error(outcome2.Err))
			return outcome2
		}
		if fixpoint {
			log.Info("fixpoint reached, property is invariant", zap.Int64("frame", e.frames.Top()))
			e.bus.PropStatus(transys.Status{Kind: transys.Invariant}, e.sys, e.propName)
			return Outcome{Kind: Success}
		}

		e.frames.ExtendTop()
		log.Debug("frame sequence extended", zap.Int64("new_top", e.frames.Top()))
	}
}

// ePiAt builds E_Π = ⋀ { p ↔ γ(p) | p ∈ Π } (predicate-level coupling to
// the clone world), bumped wholesale to offset.
func (e *Engine) ePiAt(offset int64) *term.Term {
	eqs := make([]*term.Term, len(e.pi))
	for i, p := range e.pi {
		eqs[i] = e.store.Eq(p, e.gamma.CloneTerm(p))
	}
	conj := e.store.And(eqs...)
	if offset == 0 {
		return conj
	}
	return e.store.Bump(conj, offset)
}

// abvarTermsAt returns every currently-known abvar's term at offset.
func (e *Engine) abvarTermsAt(offset int64) []*term.Term {
	vars := e.alpha.Vars()
	out := make([]*term.Term, len(vars))
	for i, sv := range vars {
		out[i] = e.store.VarTerm(statevar.At(sv, offset))
	}
	return out
}

// extractCube reads off a literal per abvar term from a satisfying model:
// the term itself if true, its negation otherwise (spec.md §4.2.a step 3).
func extractCube(store *term.Store, mdl solver.Model, abvarTerms []*term.Term) []*term.Term {
	lits := make([]*term.Term, len(abvarTerms))
	for i, t := range abvarTerms {
		if mdl.TermValue(t) {
			lits[i] = t
		} else {
			lits[i] = store.Not(t)
		}
	}
	return lits
}

// gatedCheck asserts a_i → conjunct[i] for a fresh actlit per conjunct
// (spec.md's "assumptions are built by gating each conjunct with a fresh
// activation literal", reused by the initial check, absRelInd,
// partition_absrelind, and simulate) and performs one check-sat-assuming
// requesting valuations of termsToEvaluate.
func (e *Engine) gatedCheck(conjuncts []*term.Term, termsToEvaluate []*term.Term) (solver.CheckResult, solver.Model) {
	assumptions := make([]*term.Term, 0, len(conjuncts))
	for _, c := range conjuncts {
		af := e.actlits.Fresh()
		e.sv.AssertTerm(e.store.Implies(af.Term, c))
		assumptions = append(assumptions, af.Term)
	}
	var mdl solver.Model
	res := e.sv.CheckSatAssumingAndGetValues(assumptions, func(m solver.Model) { mdl = m }, nil, termsToEvaluate)
	return res, mdl
}
