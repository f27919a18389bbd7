// Package statevar declares the named, scoped, typed state variables a
// transition system is defined over, and the (StateVar, offset) instances
// ("Var") that terms are built from.
package statevar

import (
	"fmt"
	"math/big"
	"strings"
)

// Type is the sort of a state variable. bool must be first-class; integers
// and reals are tracked but uninterpreted by this package (the solver
// facade gives them meaning).
type Type int

const (
	Bool Type = iota
	Int
	Real
)

func (t Type) String() string {
	switch t {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Real:
		return "real"
	default:
		return "?"
	}
}

// StateVar is an immutable, process-lifetime declaration. Two StateVars are
// the same variable iff they are the same pointer; StateVars are never
// copied by value once declared.
type StateVar struct {
	Name    string
	Scope   []string
	T       Type
	IsInput bool
	IsConst bool
}

// New declares a fresh state variable. Scope is a sequence of name segments,
// e.g. []string{"top", "abv"} for an abstraction-variable scope.
func New(name string, scope []string, t Type) *StateVar {
	sc := make([]string, len(scope))
	copy(sc, scope)
	return &StateVar{Name: name, Scope: sc, T: t}
}

// Input marks the declaration as an input (non-state) variable.
func (s *StateVar) Input() *StateVar {
	s.IsInput = true
	return s
}

// Const marks the declaration as a constant (time-invariant) variable.
func (s *StateVar) Const() *StateVar {
	s.IsConst = true
	return s
}

// QualifiedName renders scope.segment1.segment2.name, the name the solver
// facade declares the symbol under at a given offset.
func (s *StateVar) QualifiedName() string {
	if len(s.Scope) == 0 {
		return s.Name
	}
	return strings.Join(s.Scope, ".") + "." + s.Name
}

// Var is a (StateVar, offset) instance. Offset is arbitrary precision
// because bump-by-k is applied repeatedly across unboundedly many
// induction/frame steps.
type Var struct {
	SV     *StateVar
	Offset *big.Int
}

// At constructs a Var at a concrete small integer offset.
func At(sv *StateVar, offset int64) Var {
	return Var{SV: sv, Offset: big.NewInt(offset)}
}

// Bumped returns the same variable at Offset+k.
func (v Var) Bumped(k int64) Var {
	return Var{SV: v.SV, Offset: new(big.Int).Add(v.Offset, big.NewInt(k))}
}

// Key is a stable string identity for use as a map key / intern key.
func (v Var) Key() string {
	return fmt.Sprintf("%p@%s", v.SV, v.Offset.String())
}

func (v Var) String() string {
	return fmt.Sprintf("%s@%s", v.SV.QualifiedName(), v.Offset.String())
}
