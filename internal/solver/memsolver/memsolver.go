// Package memsolver is a small in-process boolean solver implementing the
// solver.Solver facade by brute-force enumeration. It exists only to drive
// this module's own tests and bundled fixtures end to end; real SMT
// process management and SMT-LIB transport are out of scope for this
// repository (spec.md §1), so production use plugs in a real solver
// behind the same interface.
package memsolver

import (
	"fmt"
	"sort"

	"github.com/funvibe/mcheck/internal/solver"
	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
)

// Solver is a brute-force boolean model; its complexity is exponential in
// the number of undefined free variables reachable from a query, which is
// fine for unit fixtures and wrong for anything resembling production use.
type Solver struct {
	store       *term.Store
	declared    map[string]bool
	definitions map[string]*term.Term
	asserted    []*term.Term // unconditional stack-scoped assertions
	named       map[string]*term.Term
	stack       [][]*term.Term // push/pop snapshots of `asserted` lengths is not enough; keep full copies
	lastModel   *model
}

// New constructs a memsolver bound to store.
func New(store *term.Store) *Solver {
	return &Solver{
		store:       store,
		declared:    make(map[string]bool),
		definitions: make(map[string]*term.Term),
		named:       make(map[string]*term.Term),
	}
}

func (s *Solver) DeclareFun(v statevar.Var) { s.declared[v.Key()] = true }

func (s *Solver) DefineFun(v statevar.Var, body *term.Term) {
	s.declared[v.Key()] = true
	s.definitions[v.Key()] = body
}

func (s *Solver) DeclareSort(name string) {}

func (s *Solver) AssertTerm(t *term.Term) {
	s.asserted = append(s.asserted, t)
}

func (s *Solver) AssertNamedTerm(name string, t *term.Term) {
	s.named[name] = t
	s.asserted = append(s.asserted, t)
}

func (s *Solver) Push() {
	snapshot := make([]*term.Term, len(s.asserted))
	copy(snapshot, s.asserted)
	s.stack = append(s.stack, snapshot)
}

func (s *Solver) Pop() {
	if len(s.stack) == 0 {
		s.asserted = nil
		return
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.asserted = top
}

func (s *Solver) GetModel() solver.Model { return s.lastModel }

func (s *Solver) CheckSatAssuming(assumptions []*term.Term, ifSat func(), ifUnsat func()) solver.CheckResult {
	res, m := s.solve(assumptions, nil)
	s.lastModel = m
	if res == solver.Sat {
		if ifSat != nil {
			ifSat()
		}
	} else if ifUnsat != nil {
		ifUnsat()
	}
	return res
}

func (s *Solver) CheckSatAssumingAndGetValues(
	assumptions []*term.Term,
	ifSat func(solver.Model),
	ifUnsat func(),
	termsToEvaluate []*term.Term,
) solver.CheckResult {
	res, m := s.solve(assumptions, termsToEvaluate)
	s.lastModel = m
	if res == solver.Sat {
		if ifSat != nil {
			ifSat(m)
		}
	} else if ifUnsat != nil {
		ifUnsat()
	}
	return res
}

func (s *Solver) Supports(c solver.Capability) bool { return true }

// solve brute-forces satisfiability of (asserted conjunction) ∧ assumptions
// over the free, undefined boolean variables they mention. The variables of
// extra are enumerated too, so the model assigns them, but extra itself is
// not asserted.
func (s *Solver) solve(assumptions []*term.Term, extra []*term.Term) (solver.CheckResult, *model) {
	all := append(append([]*term.Term{}, s.asserted...), assumptions...)

	freeSet := make(map[string]statevar.Var)
	for _, t := range append(append([]*term.Term{}, all...), extra...) {
		for _, v := range term.FreeVars(t) {
			if _, isDef := s.definitions[v.Key()]; isDef {
				continue
			}
			freeSet[v.Key()] = v
		}
	}
	vars := make([]statevar.Var, 0, len(freeSet))
	for _, v := range freeSet {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Key() < vars[j].Key() })

	goal := s.store.And(all...)
	if goal == s.store.False() {
		return solver.Unsat, nil
	}

	assign := make(map[string]bool, len(vars))
	n := len(vars)
	total := 1 << n
	if n > 22 {
		// Refuse to brute force unreasonably large fixtures rather than
		// hang; this is a test-only reference solver, not production.
		return solver.Unknown, nil
	}
	for mask := 0; mask < total; mask++ {
		for i, v := range vars {
			assign[v.Key()] = mask&(1<<i) != 0
		}
		if evalBool(s.store, goal, assign, s.definitions) {
			m := &model{store: s.store, assign: copyAssign(assign), defs: s.definitions}
			return solver.Sat, m
		}
	}
	return solver.Unsat, nil
}

func copyAssign(a map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func (s *Solver) GetInterpolants(names []string) ([]*term.Term, error) {
	if len(names) < 2 {
		return nil, fmt.Errorf("memsolver: need at least 2 named partitions for interpolation, got %d", len(names))
	}
	parts := make([]*term.Term, len(names))
	for i, n := range names {
		t, ok := s.named[n]
		if !ok {
			return nil, fmt.Errorf("memsolver: unknown named partition %q", n)
		}
		parts[i] = t
	}

	fullSat, _ := s.solve(nil, nil)
	_ = fullSat // the full assert stack (all `names` plus whatever else is asserted) is expected UNSAT by the caller

	itps := make([]*term.Term, len(names)-1)
	for i := 0; i < len(names)-1; i++ {
		prefix := s.store.And(parts[:i+1]...)
		suffix := s.store.And(parts[i+1:]...)
		itp, err := interpolate(s.store, prefix, suffix)
		if err != nil {
			return nil, err
		}
		itps[i] = itp
	}
	return itps, nil
}

// interpolate computes a Craig interpolant for UNSAT(prefix ∧ suffix) by
// existentially quantifying prefix's private variables (those absent from
// suffix) out of prefix via brute-force case splitting, which is exact for
// quantifier-free boolean formulas and is this reference solver's whole
// reason for existing: real interpolation is owned by the production
// solver's interpolating core, not by this module.
func interpolate(store *term.Store, prefix, suffix *term.Term) (*term.Term, error) {
	suffixVars := make(map[string]bool)
	for _, v := range term.FreeVars(suffix) {
		suffixVars[v.Key()] = true
	}
	var vars []statevar.Var
	seen := make(map[string]bool)
	for _, v := range term.FreeVars(prefix) {
		if seen[v.Key()] {
			continue
		}
		seen[v.Key()] = true
		vars = append(vars, v)
	}

	n := len(vars)
	if n > 22 {
		return nil, fmt.Errorf("memsolver: interpolation variable set too large (%d)", n)
	}

	var cases []*term.Term
	assign := make(map[string]bool, n)
	for mask := 0; mask < (1 << n); mask++ {
		for i, v := range vars {
			assign[v.Key()] = mask&(1<<i) != 0
		}
		if evalBool(store, prefix, assign, nil) {
			var lits []*term.Term
			for _, v := range vars {
				if !suffixVars[v.Key()] {
					continue
				}
				lit := store.VarTerm(v)
				if !assign[v.Key()] {
					lit = store.Not(lit)
				}
				lits = append(lits, lit)
			}
			cases = append(cases, store.And(lits...))
		}
	}
	if len(cases) == 0 {
		return store.False(), nil
	}
	return store.Or(cases...), nil
}

type model struct {
	store  *term.Store
	assign map[string]bool
	defs   map[string]*term.Term
}

func (m *model) TermValue(t *term.Term) bool {
	return evalBool(m.store, t, m.assign, m.defs)
}

// evalBool evaluates t under assign, expanding macro definitions. Free
// variables not present in assign and without a definition default to
// false, matching the convention that an under-constrained query treats
// unassigned atoms as don't-care.
func evalBool(store *term.Store, t *term.Term, assign map[string]bool, defs map[string]*term.Term) bool {
	memo := make(map[int64]bool)
	var eval func(*term.Term) bool
	eval = func(t *term.Term) bool {
		if v, ok := memo[t.Tag()]; ok {
			return v
		}
		var r bool
		switch t.Kind() {
		case term.KBool:
			r = t.BoolVal()
		case term.KVar:
			vi := t.VarInstance()
			if defs != nil {
				if body, ok := defs[vi.Key()]; ok {
					r = eval(body)
					break
				}
			}
			r = assign[vi.Key()]
		case term.KNot:
			r = !eval(t.Args()[0])
		case term.KAnd:
			r = true
			for _, a := range t.Args() {
				if !eval(a) {
					r = false
					break
				}
			}
		case term.KOr:
			r = false
			for _, a := range t.Args() {
				if eval(a) {
					r = true
					break
				}
			}
		case term.KImplies:
			r = !eval(t.Args()[0]) || eval(t.Args()[1])
		case term.KEq:
			r = eval(t.Args()[0]) == eval(t.Args()[1])
		}
		memo[t.Tag()] = r
		return r
	}
	return eval(t)
}
