// Package checkpoint persists k-induction and IC3IA engine state to a
// SQLite file (SPEC_FULL.md §3), so a long-running check can resume after
// a process restart instead of re-deriving invariants and frames from
// scratch. This is a resumption cache only — never a proof certificate or
// witness format.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
)

// VarResolver looks up a previously declared state variable by its
// qualified name (statevar.StateVar.QualifiedName) when decoding a
// persisted term back into a live *term.Term. The caller builds this from
// whatever StateVars the resumed transition system (and, for IC3IA, the
// resumed abvar/clone maps) has already declared — a checkpoint never
// recreates StateVar identity on its own, since pointer identity cannot
// survive a process restart.
type VarResolver func(qualifiedName string) (*statevar.StateVar, bool)

// termDTO is a JSON-friendly mirror of term.Term's node shape, keyed off
// qualified variable names rather than StateVar pointers so it survives a
// process restart.
type termDTO struct {
	Kind   int       `json:"k"`
	Bool   bool      `json:"b,omitempty"`
	Var    string    `json:"v,omitempty"`
	Offset string    `json:"o,omitempty"`
	Args   []termDTO `json:"a,omitempty"`
}

func encodeTerm(t *term.Term) termDTO {
	switch t.Kind() {
	case term.KBool:
		return termDTO{Kind: int(term.KBool), Bool: t.BoolVal()}
	case term.KVar:
		v := t.VarInstance()
		return termDTO{Kind: int(term.KVar), Var: v.SV.QualifiedName(), Offset: v.Offset.String()}
	default:
		args := t.Args()
		out := make([]termDTO, len(args))
		for i, a := range args {
			out[i] = encodeTerm(a)
		}
		return termDTO{Kind: int(t.Kind()), Args: out}
	}
}

func decodeTerm(store *term.Store, resolve VarResolver, d termDTO) (*term.Term, error) {
	switch term.Kind(d.Kind) {
	case term.KBool:
		return store.Bool(d.Bool), nil
	case term.KVar:
		sv, ok := resolve(d.Var)
		if !ok {
			return nil, fmt.Errorf("checkpoint: unknown state variable %q", d.Var)
		}
		offset, ok := new(big.Int).SetString(d.Offset, 10)
		if !ok {
			return nil, fmt.Errorf("checkpoint: malformed offset %q for %q", d.Offset, d.Var)
		}
		return store.VarTerm(statevar.Var{SV: sv, Offset: offset}), nil
	case term.KNot:
		arg, err := decodeOne(store, resolve, d.Args)
		if err != nil {
			return nil, err
		}
		return store.Not(arg[0]), nil
	case term.KAnd:
		args, err := decodeOne(store, resolve, d.Args)
		if err != nil {
			return nil, err
		}
		return store.And(args...), nil
	case term.KOr:
		args, err := decodeOne(store, resolve, d.Args)
		if err != nil {
			return nil, err
		}
		return store.Or(args...), nil
	case term.KImplies:
		args, err := decodeOne(store, resolve, d.Args)
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("checkpoint: malformed implies term (%d args)", len(args))
		}
		return store.Implies(args[0], args[1]), nil
	case term.KEq:
		args, err := decodeOne(store, resolve, d.Args)
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("checkpoint: malformed eq term (%d args)", len(args))
		}
		return store.Eq(args[0], args[1]), nil
	default:
		return nil, fmt.Errorf("checkpoint: unknown term kind %d", d.Kind)
	}
}

func decodeOne(store *term.Store, resolve VarResolver, dtos []termDTO) ([]*term.Term, error) {
	out := make([]*term.Term, len(dtos))
	for i, d := range dtos {
		t, err := decodeTerm(store, resolve, d)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func encodeTerms(ts []*term.Term) string {
	dtos := make([]termDTO, len(ts))
	for i, t := range ts {
		dtos[i] = encodeTerm(t)
	}
	b, _ := json.Marshal(dtos)
	return string(b)
}

func decodeTerms(store *term.Store, resolve VarResolver, data string) ([]*term.Term, error) {
	var dtos []termDTO
	if err := json.Unmarshal([]byte(data), &dtos); err != nil {
		return nil, fmt.Errorf("checkpoint: decoding term list: %w", err)
	}
	return decodeOne(store, resolve, dtos)
}

func encodeTermLevels(levels [][]*term.Term) string {
	dtos := make([][]termDTO, len(levels))
	for i, lvl := range levels {
		row := make([]termDTO, len(lvl))
		for j, t := range lvl {
			row[j] = encodeTerm(t)
		}
		dtos[i] = row
	}
	b, _ := json.Marshal(dtos)
	return string(b)
}

func decodeTermLevels(store *term.Store, resolve VarResolver, data string) ([][]*term.Term, error) {
	var dtos [][]termDTO
	if err := json.Unmarshal([]byte(data), &dtos); err != nil {
		return nil, fmt.Errorf("checkpoint: decoding frame levels: %w", err)
	}
	out := make([][]*term.Term, len(dtos))
	for i, row := range dtos {
		terms, err := decodeOne(store, resolve, row)
		if err != nil {
			return nil, err
		}
		out[i] = terms
	}
	return out, nil
}

func encodeNames(names []string) string {
	b, _ := json.Marshal(names)
	return string(b)
}

func decodeNames(data string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("checkpoint: decoding name list: %w", err)
	}
	return names, nil
}
