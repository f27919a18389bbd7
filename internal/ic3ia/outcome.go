package ic3ia

import (
	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys"
)

// OutcomeKind is spec.md §7's error taxonomy, re-expressed as a tagged
// result instead of an exception: Success/Failure/InternalInconsistency
// are the three the spec names, plus FrameBoundExceeded (SPEC_FULL.md
// §5.2's supplement for a configured MaxFrame bound).
type OutcomeKind int

const (
	Success OutcomeKind = iota
	Failure
	InternalInconsistency
	FrameBoundExceeded
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case InternalInconsistency:
		return "internal-inconsistency"
	case FrameBoundExceeded:
		return "frame-bound-exceeded"
	default:
		return "?"
	}
}

// Outcome is what Run returns: exactly one of the four taxonomy members,
// never a panic. Trace is populated only for Failure; Err only for
// InternalInconsistency.
type Outcome struct {
	Kind  OutcomeKind
	Trace transys.Trace
	Err   error
}

// counterexample is the internal-only "Counterexample(path)" control
// outcome (spec.md §7): it never escapes the engine boundary, so it is not
// a member of Outcome. No function returns it: recblock handles an
// obligation that reaches level 0 by calling refine on its path directly.
type counterexample struct {
	path []*term.Term // most-recently-discovered cube first, per spec.md §3
}
