package ic3ia

import (
	"fmt"

	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
)

// AbvarMap is the abstraction layer's abvar map α (spec.md §4.2): a
// bijective, monotonically-growing map from concrete predicate atoms to
// fresh boolean abstraction variables. Atoms are canonicalized to an
// offset-0 pattern before lookup so the same atom shape seen at different
// time offsets shares one underlying StateVar, instantiated per offset the
// same way any other state variable is.
type AbvarMap struct {
	store *term.Store

	patternToVar map[int64]*statevar.StateVar
	varToPattern map[*statevar.StateVar]*term.Term
	order        []*statevar.StateVar
}

// NewAbvarMap constructs an empty abvar map bound to store.
func NewAbvarMap(store *term.Store) *AbvarMap {
	return &AbvarMap{
		store:        store,
		patternToVar: make(map[int64]*statevar.StateVar),
		varToPattern: make(map[*statevar.StateVar]*term.Term),
	}
}

// baseOffsetAndPattern canonicalizes atom to (offset of its free vars,
// atom bumped to offset 0). This module's atoms are always offset-uniform
// by construction: they are extracted from predicates built at a single
// symbolic time, never from a two-state relation directly.
func baseOffsetAndPattern(store *term.Store, atom *term.Term) (int64, *term.Term) {
	vars := term.FreeVars(atom)
	if len(vars) == 0 {
		return 0, atom
	}
	base := vars[0].Offset.Int64()
	return base, store.Bump(atom, -base)
}

// Update implements update_abvar_map: collect atoms from every predicate in
// preds, deduplicate, drop anything already in dom(α), and allocate a fresh
// abvar for each genuinely new atom pattern. Returns the newly minted
// StateVars (for the caller to declare at whatever offsets are in play) so
// repeated calls with the same preds are idempotent (spec.md §8).
func (m *AbvarMap) Update(preds []*term.Term) []*statevar.StateVar {
	var added []*statevar.StateVar
	for _, p := range preds {
		for _, atom := range term.Atoms(p) {
			_, pattern := baseOffsetAndPattern(m.store, atom)
			if _, ok := m.patternToVar[pattern.Tag()]; ok {
				continue
			}
			scope := append(append([]string{}, scopeOfAtom(atom)...), "abv")
			sv := statevar.New(fmt.Sprintf("abv_%d", pattern.Tag()), scope, statevar.Bool)
			m.patternToVar[pattern.Tag()] = sv
			m.varToPattern[sv] = pattern
			m.order = append(m.order, sv)
			added = append(added, sv)
		}
	}
	return added
}

func scopeOfAtom(atom *term.Term) []string {
	vars := term.FreeVars(atom)
	if len(vars) == 0 {
		return nil
	}
	return vars[0].SV.Scope
}

// AbVarFor returns the abvar term coupled to atom at atom's own offset, or
// nil if atom's pattern has not been added to α yet.
func (m *AbvarMap) AbVarFor(atom *term.Term) *term.Term {
	base, pattern := baseOffsetAndPattern(m.store, atom)
	sv, ok := m.patternToVar[pattern.Tag()]
	if !ok {
		return nil
	}
	return m.store.VarTerm(statevar.At(sv, base))
}

// Abstract replaces every atom of t that is already in dom(α) with its
// abvar term (α applied structurally, t otherwise unchanged). Atoms not yet
// in α are left as-is; callers call Update first to avoid silently leaving
// concrete atoms behind.
func (m *AbvarMap) Abstract(t *term.Term) *term.Term {
	atoms := term.Atoms(t)
	repl := make(map[int64]*term.Term, len(atoms))
	for _, a := range atoms {
		if av := m.AbVarFor(a); av != nil {
			repl[a.Tag()] = av
		}
	}
	return m.store.Rewrite(t, repl)
}

// Concretize is the inverse of Abstract: every free abvar instance in t is
// replaced by its preimage atom at the same offset. Non-abvar variables
// pass through unchanged. concretize(Abstract(t)) == t for any t built only
// from atoms already in dom(α) (spec.md §8's round-trip property).
func (m *AbvarMap) Concretize(t *term.Term) *term.Term {
	vars := term.FreeVars(t)
	repl := make(map[int64]*term.Term, len(vars))
	for _, v := range vars {
		pattern, ok := m.varToPattern[v.SV]
		if !ok {
			continue
		}
		repl[m.store.VarTerm(v).Tag()] = m.store.Bump(pattern, v.Offset.Int64())
	}
	return m.store.Rewrite(t, repl)
}

// Coupling builds H = ⋀ { a = α[a] | a ∈ dom(α) } at whatever offset each
// dom atom naturally lives at (abvars and their atoms share an offset by
// construction), optionally bumped wholesale by extraOffset (used to build
// H' = H bumped by 1 for the primed half of a relative-induction query).
func (m *AbvarMap) Coupling(extraOffset int64) *term.Term {
	eqs := make([]*term.Term, 0, len(m.order))
	for _, sv := range m.order {
		pattern := m.varToPattern[sv]
		// The pattern is offset-0; every abvar declared for it lives at the
		// same offsets the underlying atom was observed at, but since H is
		// meant to cover "every atom currently in dom(α)" independent of
		// which specific offset triggered its creation, we couple at offset
		// 0 and let the caller bump the whole conjunction to each offset in
		// play (mirroring how I', T, and P' are themselves built at offset
		// 0 and bumped).
		atomAt0 := pattern
		abvarAt0 := m.store.VarTerm(statevar.At(sv, 0))
		eqs = append(eqs, m.store.Eq(atomAt0, abvarAt0))
	}
	h := m.store.And(eqs...)
	if extraOffset == 0 {
		return h
	}
	return m.store.Bump(h, extraOffset)
}

// Vars returns every abvar StateVar currently in dom(α), in insertion
// order, for declaration bookkeeping.
func (m *AbvarMap) Vars() []*statevar.StateVar {
	return append([]*statevar.StateVar{}, m.order...)
}

// CloneMap is γ: StateVar → StateVar (spec.md §3's "cloned variables"): a
// total, injective, memoized function built once per property, used to
// embed the concrete transition relation T alongside its abstraction
// within a single solver context.
type CloneMap struct {
	store  *term.Store
	clones map[*statevar.StateVar]*statevar.StateVar
	order  []*statevar.StateVar
}

// NewCloneMap constructs an empty clone map bound to store.
func NewCloneMap(store *term.Store) *CloneMap {
	return &CloneMap{store: store, clones: make(map[*statevar.StateVar]*statevar.StateVar)}
}

// Clone returns sv's clone, minting one on first use.
func (c *CloneMap) Clone(sv *statevar.StateVar) *statevar.StateVar {
	if cl, ok := c.clones[sv]; ok {
		return cl
	}
	scope := append(append([]string{}, sv.Scope...), "cln")
	cl := statevar.New(sv.Name, scope, sv.T)
	c.clones[sv] = cl
	c.order = append(c.order, cl)
	return cl
}

// CloneTerm rewrites every free Var in t to its clone, at the same offset.
func (c *CloneMap) CloneTerm(t *term.Term) *term.Term {
	vars := term.FreeVars(t)
	repl := make(map[int64]*term.Term, len(vars))
	for _, v := range vars {
		cl := c.Clone(v.SV)
		repl[c.store.VarTerm(v).Tag()] = c.store.VarTerm(statevar.Var{SV: cl, Offset: v.Offset})
	}
	return c.store.Rewrite(t, repl)
}

// Vars returns every clone StateVar minted so far, in insertion order.
func (c *CloneMap) Vars() []*statevar.StateVar {
	return append([]*statevar.StateVar{}, c.order...)
}
