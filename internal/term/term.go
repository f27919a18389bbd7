// Package term implements the persistent, structurally hash-consed
// expression tree every component in this module builds on: boolean
// combinators over Var leaves, with a stable integer Tag such that
// Tag(t1) == Tag(t2) iff t1 and t2 are the same term structurally.
//
// Terms are interned values owned by an engine's Store; there is no global
// table, per the allocator-ownership guidance this module follows
// throughout (activation literals and abvar counters are likewise
// per-engine state, never process-wide globals).
package term

import (
	"fmt"
	"strings"

	"github.com/funvibe/mcheck/internal/statevar"
)

// Kind discriminates the node shapes a Term can take.
type Kind int

const (
	KBool Kind = iota
	KVar
	KNot
	KAnd
	KOr
	KImplies
	KEq
)

// Term is an interned node. Zero value is not meaningful; obtain Terms only
// through a Store.
type Term struct {
	tag  int64
	kind Kind

	boolVal bool
	v       statevar.Var
	args    []*Term
}

// Tag returns the term's stable interning tag.
func (t *Term) Tag() int64 { return t.tag }

// Kind returns the node kind.
func (t *Term) Kind() Kind { return t.kind }

// BoolVal returns the literal value of a KBool term.
func (t *Term) BoolVal() bool { return t.boolVal }

// VarInstance returns the Var of a KVar term.
func (t *Term) VarInstance() statevar.Var { return t.v }

// Args returns the operands of a compound term. Callers must not mutate
// the returned slice.
func (t *Term) Args() []*Term { return t.args }

// IsAtom reports whether t is a leaf the abstraction layer should treat as
// an atomic predicate: a bare variable instance or an equality, neither of
// which itself decomposes into boolean structure.
func (t *Term) IsAtom() bool {
	return t.kind == KVar || t.kind == KEq
}

func (t *Term) String() string {
	switch t.kind {
	case KBool:
		if t.boolVal {
			return "true"
		}
		return "false"
	case KVar:
		return t.v.String()
	case KNot:
		return "(not " + t.args[0].String() + ")"
	case KAnd:
		return joinArgs("and", t.args)
	case KOr:
		return joinArgs("or", t.args)
	case KImplies:
		return "(=> " + t.args[0].String() + " " + t.args[1].String() + ")"
	case KEq:
		return "(= " + t.args[0].String() + " " + t.args[1].String() + ")"
	default:
		return "<?term>"
	}
}

func joinArgs(op string, args []*Term) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return "(" + op + " " + strings.Join(parts, " ") + ")"
}

func (t *Term) key() string {
	switch t.kind {
	case KBool:
		return fmt.Sprintf("b:%t", t.boolVal)
	case KVar:
		return "v:" + t.v.Key()
	default:
		parts := make([]string, len(t.args))
		for i, a := range t.args {
			parts[i] = fmt.Sprintf("%d", a.tag)
		}
		return fmt.Sprintf("%d:%s", t.kind, strings.Join(parts, ","))
	}
}
