// Package transys declares the TransitionSystem the engines consume
// (spec.md §3/§6): an external supplier of init/trans terms at a given
// bound, the property list, logic string, declaration bounds, and
// concrete-trace materialization. Parsing a dataflow language into one is
// explicitly out of scope for this repository.
package transys

import (
	"github.com/funvibe/mcheck/internal/solver"
	"github.com/funvibe/mcheck/internal/term"
)

// Trace is an opaque, structured counterexample path. This module emits
// it as-is; presenting it in any external witness format is a non-goal
// (spec.md §1).
type Trace any

// StatusKind is the property-status lattice: Unknown ⊑ KTrue(k) ⊑
// KTrue(k+1) ⊑ Invariant, with False an absorbing sibling of the upper
// branch.
type StatusKind int

const (
	Unknown StatusKind = iota
	KTrue
	Invariant
	False
)

// Status is a property's current position in the lattice. K is only
// meaningful when Kind == KTrue. Witness is only meaningful when
// Kind == False.
type Status struct {
	Kind    StatusKind
	K       int64
	Witness Trace
}

// Geq reports whether s is at or above other in the lattice. False is
// treated as incomparable to the Unknown/KTrue/Invariant chain except to
// itself, matching spec.md §3's "absorbing sibling" description.
func (s Status) Geq(other StatusKind) bool {
	if s.Kind == False || other == False {
		return s.Kind == other
	}
	return s.Kind >= other
}

func (s Status) String() string {
	switch s.Kind {
	case Unknown:
		return "unknown"
	case KTrue:
		return "k-true"
	case Invariant:
		return "invariant"
	case False:
		return "false"
	default:
		return "?"
	}
}

// Property is a (name, term-over-offset-0) pair.
type Property struct {
	Name string
	Term *term.Term
}

// System is the external transition-system accessor (spec.md §3/§6).
type System interface {
	// InitOfBound returns I instantiated at offset k.
	InitOfBound(k int64) *term.Term
	// TransOfBound returns the two-state relation between k-1 and k.
	TransOfBound(k int64) *term.Term
	// PropsListOfBound0 returns the property list at offset 0
	// (spec.md's `props_list_of_bound(0)`).
	PropsListOfBound0() []Property
	// GetLogic reports the SMT-LIB logic string the solver should be
	// configured with.
	GetLogic() string
	// DeclareAndDefineOfBounds declares/defines every symbol (state
	// variables and uninterpreted-function definitions) needed for
	// offsets in [lo, hi] onto s.
	DeclareAndDefineOfBounds(s solver.Solver, lo, hi int64)
	// PathFromModel materializes a concrete trace of length k from a
	// satisfying model.
	PathFromModel(m solver.Model, k int64) Trace
}

// Compressor is the path-compression oracle (spec.md §2 item 5): given the
// symbolic path induced at step k and a declaration callback, it either
// reports no compression ([]nil) or a set of additional constraints ruling
// out loop structure.
type Compressor interface {
	Compress(k int64, declare func(name string)) []*term.Term
}

// NoCompression is the trivial oracle: it never compresses.
type NoCompression struct{}

func (NoCompression) Compress(k int64, declare func(name string)) []*term.Term { return nil }
