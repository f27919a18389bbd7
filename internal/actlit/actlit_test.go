package actlit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/mcheck/internal/actlit"
	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
)

func TestCanonical_SameTermSameLit(t *testing.T) {
	store := term.NewStore()
	var declared []statevar.Var
	reg := actlit.NewRegistry(store, func(v statevar.Var) { declared = append(declared, v) })

	p := statevar.New("p", []string{"m"}, statevar.Bool)
	pt := store.VarTerm(statevar.At(p, 0))

	l1 := reg.Canonical(pt)
	l2 := reg.Canonical(pt)

	require.Same(t, l1, l2)
	require.Len(t, declared, 1, "the second Canonical call must not re-declare")

	qt := store.VarTerm(statevar.At(statevar.New("q", []string{"m"}, statevar.Bool), 0))
	l3 := reg.Canonical(qt)
	require.NotSame(t, l1, l3)
	require.Len(t, declared, 2)
}

func TestFresh_AlwaysDistinct(t *testing.T) {
	store := term.NewStore()
	reg := actlit.NewRegistry(store, nil)

	a := reg.Fresh()
	b := reg.Fresh()

	require.NotEqual(t, a.Term.Tag(), b.Term.Tag())
	require.NotEqual(t, a.SV.Name, b.SV.Name)
}
