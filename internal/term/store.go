package term

import (
	"sort"
	"sync"

	"github.com/funvibe/mcheck/internal/statevar"
)

// Store is an engine-owned interning pool: terms are arena-allocated
// values, and a term's Tag is its index of interning into this pool. There
// is no global table; every engine constructs its own Store.
type Store struct {
	mu      sync.Mutex
	nextTag int64
	byKey   map[string]*Term

	trueTerm  *Term
	falseTerm *Term
}

// NewStore allocates an empty, engine-owned term pool.
func NewStore() *Store {
	s := &Store{byKey: make(map[string]*Term)}
	s.trueTerm = s.intern(&Term{kind: KBool, boolVal: true})
	s.falseTerm = s.intern(&Term{kind: KBool, boolVal: false})
	return s
}

func (s *Store) intern(t *Term) *Term {
	k := t.key()
	if existing, ok := s.byKey[k]; ok {
		return existing
	}
	t.tag = s.nextTag
	s.nextTag++
	s.byKey[k] = t
	return t
}

func (s *Store) internLocked(t *Term) *Term {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intern(t)
}

// True returns the canonical boolean-true term.
func (s *Store) True() *Term { return s.trueTerm }

// False returns the canonical boolean-false term.
func (s *Store) False() *Term { return s.falseTerm }

// Bool returns the canonical term for a boolean literal.
func (s *Store) Bool(b bool) *Term {
	if b {
		return s.trueTerm
	}
	return s.falseTerm
}

// VarTerm returns the (interned) term for a state-variable instance.
func (s *Store) VarTerm(v statevar.Var) *Term {
	return s.internLocked(&Term{kind: KVar, v: v})
}

// Not builds ¬a, collapsing double negation and boolean constants.
func (s *Store) Not(a *Term) *Term {
	switch {
	case a == s.trueTerm:
		return s.falseTerm
	case a == s.falseTerm:
		return s.trueTerm
	case a.kind == KNot:
		return a.args[0]
	}
	return s.internLocked(&Term{kind: KNot, args: []*Term{a}})
}

// And builds a conjunction, flattening nested conjunctions, dropping
// duplicate and `true` conjuncts, and short-circuiting to `false` if any
// conjunct is `false`.
func (s *Store) And(args ...*Term) *Term {
	flat := s.flatten(KAnd, args, s.falseTerm, s.trueTerm)
	if flat == nil {
		return s.falseTerm
	}
	switch len(flat) {
	case 0:
		return s.trueTerm
	case 1:
		return flat[0]
	}
	return s.internLocked(&Term{kind: KAnd, args: flat})
}

// Or builds a disjunction, dual to And.
func (s *Store) Or(args ...*Term) *Term {
	flat := s.flatten(KOr, args, s.trueTerm, s.falseTerm)
	if flat == nil {
		return s.trueTerm
	}
	switch len(flat) {
	case 0:
		return s.falseTerm
	case 1:
		return flat[0]
	}
	return s.internLocked(&Term{kind: KOr, args: flat})
}

// flatten splices nested same-kind operands, drops the identity element
// (idElem) and dedupes by tag, sorting the result for canonical hash-cons
// keys (And/Or are commutative). Returns nil if absorbElem is present.
func (s *Store) flatten(kind Kind, args []*Term, absorbElem, idElem *Term) []*Term {
	seen := make(map[int64]bool)
	var out []*Term
	var walk func(*Term)
	walk = func(t *Term) {
		if t == absorbElem {
			return
		}
		if t.kind == kind {
			for _, a := range t.args {
				walk(a)
			}
			return
		}
		if t == idElem {
			return
		}
		if !seen[t.tag] {
			seen[t.tag] = true
			out = append(out, t)
		}
	}
	for _, a := range args {
		if a == absorbElem {
			return nil
		}
	}
	for _, a := range args {
		walk(a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].tag < out[j].tag })
	return out
}

// Implies builds a → b.
func (s *Store) Implies(a, b *Term) *Term {
	if a == s.falseTerm || b == s.trueTerm {
		return s.trueTerm
	}
	if a == s.trueTerm {
		return b
	}
	return s.internLocked(&Term{kind: KImplies, args: []*Term{a, b}})
}

// Eq builds a = b (boolean iff when a, b are formulas), sorted by tag since
// equality is symmetric.
func (s *Store) Eq(a, b *Term) *Term {
	if a.tag > b.tag {
		a, b = b, a
	}
	if a == b {
		return s.trueTerm
	}
	return s.internLocked(&Term{kind: KEq, args: []*Term{a, b}})
}

// Bump shifts every free state-variable instance's offset by k, returning
// an interned result. Bumping by k then by -k returns the original term
// (round-trip property in spec.md §8).
func (s *Store) Bump(t *Term, k int64) *Term {
	if k == 0 {
		return t
	}
	memo := make(map[int64]*Term)
	return s.bump(t, k, memo)
}

func (s *Store) bump(t *Term, k int64, memo map[int64]*Term) *Term {
	if r, ok := memo[t.tag]; ok {
		return r
	}
	var r *Term
	switch t.kind {
	case KBool:
		r = t
	case KVar:
		r = s.VarTerm(t.v.Bumped(k))
	case KNot:
		r = s.Not(s.bump(t.args[0], k, memo))
	case KAnd:
		r = s.And(s.bumpAll(t.args, k, memo)...)
	case KOr:
		r = s.Or(s.bumpAll(t.args, k, memo)...)
	case KImplies:
		r = s.Implies(s.bump(t.args[0], k, memo), s.bump(t.args[1], k, memo))
	case KEq:
		r = s.Eq(s.bump(t.args[0], k, memo), s.bump(t.args[1], k, memo))
	default:
		r = t
	}
	memo[t.tag] = r
	return r
}

func (s *Store) bumpAll(args []*Term, k int64, memo map[int64]*Term) []*Term {
	out := make([]*Term, len(args))
	for i, a := range args {
		out[i] = s.bump(a, k, memo)
	}
	return out
}

// FreeVars returns the deduplicated set of Var instances appearing
// anywhere in t, including inside atoms.
func FreeVars(t *Term) []statevar.Var {
	seen := make(map[string]bool)
	var out []statevar.Var
	var walk func(*Term)
	walk = func(t *Term) {
		switch t.kind {
		case KVar:
			if !seen[t.v.Key()] {
				seen[t.v.Key()] = true
				out = append(out, t.v)
			}
		default:
			for _, a := range t.args {
				walk(a)
			}
		}
	}
	walk(t)
	return out
}

// Atoms returns the deduplicated set of atomic sub-terms (Var leaves and
// Eq nodes) reachable from t via a bottom-up traversal that does not
// recurse below an atom once found — the abstraction layer's predicate set
// is built from exactly these.
func Atoms(t *Term) []*Term {
	seen := make(map[int64]bool)
	var out []*Term
	var walk func(*Term)
	walk = func(t *Term) {
		if t.IsAtom() {
			if !seen[t.tag] {
				seen[t.tag] = true
				out = append(out, t)
			}
			return
		}
		for _, a := range t.args {
			walk(a)
		}
	}
	walk(t)
	return out
}

// Rewrite substitutes every occurrence of a key term (matched by Tag) for
// its mapped replacement, rebuilding compound terms bottom-up through this
// Store so the result stays interned. Used for abvar coupling/concretize.
func (s *Store) Rewrite(t *Term, repl map[int64]*Term) *Term {
	memo := make(map[int64]*Term)
	return s.rewrite(t, repl, memo)
}

func (s *Store) rewrite(t *Term, repl map[int64]*Term, memo map[int64]*Term) *Term {
	if r, ok := repl[t.tag]; ok {
		return r
	}
	if r, ok := memo[t.tag]; ok {
		return r
	}
	var r *Term
	switch t.kind {
	case KBool, KVar:
		r = t
	case KNot:
		r = s.Not(s.rewrite(t.args[0], repl, memo))
	case KAnd:
		args := make([]*Term, len(t.args))
		for i, a := range t.args {
			args[i] = s.rewrite(a, repl, memo)
		}
		r = s.And(args...)
	case KOr:
		args := make([]*Term, len(t.args))
		for i, a := range t.args {
			args[i] = s.rewrite(a, repl, memo)
		}
		r = s.Or(args...)
	case KImplies:
		r = s.Implies(s.rewrite(t.args[0], repl, memo), s.rewrite(t.args[1], repl, memo))
	case KEq:
		r = s.Eq(s.rewrite(t.args[0], repl, memo), s.rewrite(t.args[1], repl, memo))
	default:
		r = t
	}
	memo[t.tag] = r
	return r
}
