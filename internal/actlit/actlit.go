// Package actlit generates activation literals: fresh boolean
// uninterpreted 0-ary symbols used to gate SMT assertions so every
// assertion is of the form `a -> phi` and never needs retraction. Per
// spec.md §9, the fresh-literal counter is owned by a per-engine Registry,
// never a process-wide global.
package actlit

import (
	"fmt"

	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
)

// Lit is an activation literal: a declared 0-ary boolean StateVar plus its
// interned term, always at offset 0 (activation literals are timeless).
type Lit struct {
	SV   *statevar.StateVar
	Term *term.Term
}

// Registry owns the canonical and fresh activation-literal namespaces for
// one engine/solver session.
type Registry struct {
	store      *term.Store
	canonical  map[int64]*Lit
	freshCount int64
	onDeclare  func(statevar.Var)
}

// NewRegistry constructs a Registry backed by store. onDeclare, if
// non-nil, is invoked once per newly minted activation literal so the
// caller can forward the declaration to the solver facade.
func NewRegistry(store *term.Store, onDeclare func(statevar.Var)) *Registry {
	return &Registry{
		store:     store,
		canonical: make(map[int64]*Lit),
		onDeclare: onDeclare,
	}
}

// Canonical returns the reproducible activation literal for t, declaring it
// on first use: actlit_<tag(t)>. Calling Canonical twice for the same term
// returns the same Lit.
func (r *Registry) Canonical(t *term.Term) *Lit {
	if l, ok := r.canonical[t.Tag()]; ok {
		return l
	}
	sv := statevar.New(fmt.Sprintf("actlit_%d", t.Tag()), nil, statevar.Bool)
	v := statevar.At(sv, 0)
	l := &Lit{SV: sv, Term: r.store.VarTerm(v)}
	r.canonical[t.Tag()] = l
	if r.onDeclare != nil {
		r.onDeclare(v)
	}
	return l
}

// Fresh mints a new, unique activation literal: fresh_actlit_<n>. Each call
// advances the monotonic counter; fresh literals are never reused, which is
// what makes backtracking cost-free — stale ones are simply never assumed
// again.
func (r *Registry) Fresh() *Lit {
	n := r.freshCount
	r.freshCount++
	sv := statevar.New(fmt.Sprintf("fresh_actlit_%d", n), nil, statevar.Bool)
	v := statevar.At(sv, 0)
	l := &Lit{SV: sv, Term: r.store.VarTerm(v)}
	if r.onDeclare != nil {
		r.onDeclare(v)
	}
	return l
}
