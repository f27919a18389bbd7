// Package solver specifies the incremental SMT session the engines drive.
// Process management, SMT-LIB printing/parsing, and interpolation
// transport belong to whatever concrete Solver a deployment plugs in; this
// package owns only the interface (spec.md §6) plus the small result
// types the engines pattern-match on.
package solver

import (
	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
)

// CheckResult is the outcome of a check-sat-assuming query.
type CheckResult int

const (
	Unsat CheckResult = iota
	Sat
	Unknown
)

// Model lets a caller read back term valuations after a Sat result.
type Model interface {
	// TermValue evaluates t (typically a bare Var instance or one of the
	// terms requested via CheckSatAssumingAndGetValues, but any boolean
	// term is accepted) against the model produced by the last
	// satisfiable check.
	TermValue(t *term.Term) bool
}

// Solver is the facade the engines drive. A Solver instance is owned
// exclusively by one engine for the engine's lifetime (spec.md §5); no
// solver is shared across goroutines.
type Solver interface {
	// DeclareFun declares the symbol for one (state-variable, offset)
	// instance. Distinct offsets of the same StateVar are distinct SMT
	// symbols, which is why declaration is per-Var, not per-StateVar.
	DeclareFun(v statevar.Var)
	// DefineFun installs v as a macro equal to body (spec.md's
	// "uninterpreted-function definitions").
	DefineFun(v statevar.Var, body *term.Term)
	DeclareSort(name string)

	AssertTerm(t *term.Term)
	AssertNamedTerm(name string, t *term.Term)

	Push()
	Pop()

	// CheckSatAssuming invokes ifSat or ifUnsat with the result before any
	// later query disturbs solver state, and returns the same result for
	// the caller's own control flow.
	CheckSatAssuming(assumptions []*term.Term, ifSat func(), ifUnsat func()) CheckResult

	// CheckSatAssumingAndGetValues additionally extracts, on Sat, the
	// valuations of termsToEvaluate.
	CheckSatAssumingAndGetValues(
		assumptions []*term.Term,
		ifSat func(Model),
		ifUnsat func(),
		termsToEvaluate []*term.Term,
	) CheckResult

	GetModel() Model

	// GetInterpolants returns one interpolant per adjacent pair of the
	// previously asserted named partitions (Craig interpolation over an
	// UNSAT assert-named sequence), used by IC3IA's refine step.
	GetInterpolants(names []string) ([]*term.Term, error)
}

// Capability flags a caller can check before relying on a feature: every
// Solver supports produce_assignments; produce_cores and
// produce_interpolants are required only by IC3IA.
type Capability int

const (
	ProduceAssignments Capability = iota
	ProduceCores
	ProduceInterpolants
)

// CapableSolver is implemented by Solvers that can report their
// capabilities; engines that need produce_interpolants fail fast if it is
// not advertised rather than discovering it mid-refinement.
type CapableSolver interface {
	Solver
	Supports(c Capability) bool
}
