// Package kind implements the k-induction step engine (spec.md §4.1): an
// inductive-step loop with activation literals, path compression,
// closure-based property splitting, and backtracking when concurrently
// falsified properties invalidate optimistic assumptions.
package kind

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/funvibe/mcheck/internal/actlit"
	"github.com/funvibe/mcheck/internal/config"
	"github.com/funvibe/mcheck/internal/eventbus"
	"github.com/funvibe/mcheck/internal/solver"
	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys"
)

// Engine is the k-induction step engine. It owns one solver exclusively
// for its lifetime and cooperates with other techniques only through the
// event bus (spec.md §5).
type Engine struct {
	store      *term.Store
	sys        transys.System
	sv         solver.Solver
	bus        eventbus.Bus
	compressor transys.Compressor
	actlits    *actlit.Registry
	cfg        config.Config
	log        *zap.Logger
	runID      uuid.UUID

	k           int64
	invariants  []*term.Term
	optimistics []transys.Property
	unknowns    []transys.Property
}

// New builds and initializes a k-induction engine per spec.md §4.1's
// "Initialization" paragraph: declares offset-0 state, installs a
// canonical actlit per initial property, and seeds unknowns from the
// transition system's property list.
func New(store *term.Store, sys transys.System, sv solver.Solver, bus eventbus.Bus, compressor transys.Compressor, cfg config.Config, log *zap.Logger) *Engine {
	if compressor == nil {
		compressor = transys.NoCompression{}
	}
	e := &Engine{
		store:      store,
		sys:        sys,
		sv:         sv,
		bus:        bus,
		compressor: compressor,
		cfg:        cfg,
		log:        log,
		runID:      uuid.New(),
		k:          1,
	}
	e.actlits = actlit.NewRegistry(store, sv.DeclareFun)

	sys.DeclareAndDefineOfBounds(sv, 0, 0)
	e.unknowns = sys.PropsListOfBound0()
	for _, p := range e.unknowns {
		e.actlits.Canonical(p.Term)
	}
	return e
}

// Resume reconstructs an engine from a previously persisted step state
// (SPEC_FULL.md §3's checkpoint store) instead of New's from-scratch
// initialization: optimisticNames/unknownNames partition the transition
// system's current property list, invariants are replayed onto the fresh
// solver at every offset 0..k-1, trans is replayed for bounds 1..k-1, and
// each remaining property is re-asserted under its canonical actlit at
// offsets 0..k-2 — exactly the solver-visible state stepIteration would have built up by
// the time it was last checkpointed, about to run iteration k.
func Resume(store *term.Store, sys transys.System, sv solver.Solver, bus eventbus.Bus, compressor transys.Compressor, cfg config.Config, log *zap.Logger, k int64, invariants []*term.Term, optimisticNames, unknownNames map[string]bool) *Engine {
	if compressor == nil {
		compressor = transys.NoCompression{}
	}
	e := &Engine{
		store:      store,
		sys:        sys,
		sv:         sv,
		bus:        bus,
		compressor: compressor,
		cfg:        cfg,
		log:        log,
		runID:      uuid.New(),
		k:          k,
		invariants: append([]*term.Term{}, invariants...),
	}
	e.actlits = actlit.NewRegistry(store, sv.DeclareFun)

	sys.DeclareAndDefineOfBounds(sv, 0, k)
	for _, p := range sys.PropsListOfBound0() {
		e.actlits.Canonical(p.Term)
		switch {
		case optimisticNames[p.Name]:
			e.optimistics = append(e.optimistics, p)
		case unknownNames[p.Name]:
			e.unknowns = append(e.unknowns, p)
		}
	}

	for _, inv := range e.invariants {
		e.sv.AssertTerm(e.store.Bump(inv, 0))
	}
	for i := int64(1); i < k; i++ {
		e.sv.AssertTerm(e.sys.TransOfBound(i))
		for _, inv := range e.invariants {
			e.sv.AssertTerm(e.store.Bump(inv, i))
		}
	}
	for _, p := range append(append([]transys.Property{}, e.unknowns...), e.optimistics...) {
		a := e.actlits.Canonical(p.Term)
		for i := int64(0); i <= k-2; i++ {
			e.sv.AssertTerm(e.store.Implies(a.Term, e.store.Bump(p.Term, i)))
		}
	}

	e.logger().Info("resumed from checkpoint", zap.Int64("k", k),
		zap.Int("optimistics", len(e.optimistics)), zap.Int("unknowns", len(e.unknowns)))
	return e
}

// Snapshot returns the engine's current step state in the shape
// SPEC_FULL.md §3's checkpoint store persists (internal/checkpoint's
// KindSnapshot fields). Safe to call at any point, including after Run
// returns early on context cancellation, so a caller can checkpoint
// whatever progress was made even on an incomplete run.
func (e *Engine) Snapshot() (k int64, invariants []*term.Term, optimisticNames, unknownNames []string) {
	opt := make([]string, len(e.optimistics))
	for i, p := range e.optimistics {
		opt[i] = p.Name
	}
	unk := make([]string, len(e.unknowns))
	for i, p := range e.unknowns {
		unk[i] = p.Name
	}
	return e.k, append([]*term.Term{}, e.invariants...), opt, unk
}

func (e *Engine) logger() *zap.Logger {
	return e.log.With(zap.String("run_id", e.runID.String()), zap.String("engine", "kind"))
}

// Run drives the engine to completion: either every property is
// eventually published Invariant/False (by this engine or another
// technique), or ctx is canceled.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if e.cfg.MaxStep > 0 && e.k > e.cfg.MaxStep {
			e.logger().Warn("max step bound reached, stopping with properties unresolved", zap.Int64("k", e.k))
			return nil
		}

		if len(e.unknowns) == 0 {
			if len(e.optimistics) == 0 {
				e.logger().Debug("no properties remain to check")
				return nil
			}
			done, err := e.confirm(ctx, e.k-1)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			continue
		}

		retreat, err := e.stepIteration(ctx)
		if err != nil {
			return err
		}
		if retreat {
			continue
		}
		e.k++
	}
}

// stepIteration runs spec.md §4.1's numbered step for the current e.k.
// It returns retreat=true when optimism was tainted and e.k was
// decremented in place (the caller must re-enter at the new e.k without
// incrementing).
func (e *Engine) stepIteration(ctx context.Context) (retreat bool, err error) {
	log := e.logger().With(zap.Int64("k", e.k))

	// 1. Poll events.
	events := e.bus.Recv()

	// 2. Filter unknowns and optimistics by dropping resolved properties.
	resolved := make(map[string]bool, len(events.NewValids)+len(events.NewFalsifieds))
	falsifiedHere := make(map[string]bool, len(events.NewFalsifieds))
	for _, n := range events.NewValids {
		resolved[n] = true
	}
	for _, n := range events.NewFalsifieds {
		resolved[n] = true
		falsifiedHere[n] = true
	}
	anyFalsifiedOfOurs := false
	e.unknowns, anyFalsifiedOfOurs = dropResolved(e.unknowns, resolved, falsifiedHere, anyFalsifiedOfOurs)
	var falsifiedAmongOptimistic bool
	e.optimistics, falsifiedAmongOptimistic = dropResolved(e.optimistics, resolved, falsifiedHere, false)
	anyFalsified := anyFalsifiedOfOurs || falsifiedAmongOptimistic

	// 3. Assert new invariants and branch.
	for _, inv := range events.NewInvariants {
		for i := int64(0); i <= e.k-1; i++ {
			e.sv.AssertTerm(e.store.Bump(inv, i))
		}
		e.invariants = append(e.invariants, inv)
	}

	if anyFalsified {
		log.Info("optimism tainted by concurrent falsification, backtracking",
			zap.Int("reverted_optimistics", len(e.optimistics)))
		e.unknowns = append(e.unknowns, e.optimistics...)
		e.optimistics = nil
		if e.k > 1 {
			e.k--
		}
		return true, nil
	}

	e.sys.DeclareAndDefineOfBounds(e.sv, e.k, e.k)
	trans := e.sys.TransOfBound(e.k)
	e.sv.AssertTerm(trans)
	for _, inv := range e.invariants {
		e.sv.AssertTerm(e.store.Bump(inv, e.k))
	}

	// 4. Positive-actlit guarded implications at offset k-1.
	candidates := append(append([]transys.Property{}, e.unknowns...), e.optimistics...)
	assumptions := make([]*term.Term, 0, len(candidates))
	for _, p := range candidates {
		a := e.actlits.Canonical(p.Term)
		e.sv.AssertTerm(e.store.Implies(a.Term, e.store.Bump(p.Term, e.k-1)))
		assumptions = append(assumptions, a.Term)
	}

	// 5. Split-closure.
	unfalsifiable, falsifiable, err := e.splitClosure(ctx, e.unknowns, e.optimistics, assumptions)
	if err != nil {
		return false, err
	}

	// 6. Promote.
	e.optimistics = unfalsifiable
	e.unknowns = falsifiable
	log.Debug("step iteration complete",
		zap.Int("unfalsifiable", len(unfalsifiable)), zap.Int("falsifiable", len(falsifiable)))
	return false, nil
}

func dropResolved(props []transys.Property, resolved, falsified map[string]bool, anyFalsifiedSoFar bool) ([]transys.Property, bool) {
	out := props[:0:0]
	anyFalsified := anyFalsifiedSoFar
	for _, p := range props {
		if resolved[p.Name] {
			if falsified[p.Name] {
				anyFalsified = true
			}
			continue
		}
		out = append(out, p)
	}
	return out, anyFalsified
}

// confirm implements the termination "confirm" phase: poll until every
// optimistic property is either removed (falsified upstream) or has
// attained KTrue(threshold) from the companion BMC-style technique. done
// is true when the engine's work for this run is over (success or nothing
// left); when done is false the caller must restart the main loop (a
// fresh falsification arrived mid-confirmation).
func (e *Engine) confirm(ctx context.Context, threshold int64) (done bool, err error) {
	confirmedK := make(map[string]int64)
	log := e.logger().With(zap.Int64("threshold_k", threshold))
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		events := e.bus.Recv()
		resolved := make(map[string]bool, len(events.NewValids)+len(events.NewFalsifieds))
		falsified := make(map[string]bool, len(events.NewFalsifieds))
		for _, n := range events.NewValids {
			resolved[n] = true
		}
		for _, n := range events.NewFalsifieds {
			resolved[n] = true
			falsified[n] = true
		}
		var anyFalsified bool
		e.optimistics, anyFalsified = dropResolved(e.optimistics, resolved, falsified, false)
		if anyFalsified {
			log.Info("falsification arrived during confirmation, restarting")
			e.unknowns = append(e.unknowns, e.optimistics...)
			e.optimistics = nil
			if threshold+1 < e.k {
				e.k = threshold + 1
			}
			return false, nil
		}

		for name, k := range events.NewKTrue {
			if cur, ok := confirmedK[name]; !ok || k > cur {
				confirmedK[name] = k
			}
		}

		if len(e.optimistics) == 0 {
			return true, nil
		}

		allConfirmed := true
		for _, p := range e.optimistics {
			if confirmedK[p.Name] < threshold {
				allConfirmed = false
				break
			}
		}
		if allConfirmed {
			for _, p := range e.optimistics {
				e.bus.PropStatus(transys.Status{Kind: transys.Invariant}, e.sys, p.Name)
				log.Info("property confirmed invariant", zap.String("property", p.Name))
			}
			e.optimistics = nil
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(e.cfg.ConfirmPollInterval()):
		}
	}
}
