package statevar_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/mcheck/internal/statevar"
)

func TestQualifiedName(t *testing.T) {
	bare := statevar.New("b0", nil, statevar.Bool)
	require.Equal(t, "b0", bare.QualifiedName())

	scoped := statevar.New("abv_1", []string{"counter", "abv"}, statevar.Bool)
	require.Equal(t, "counter.abv.abv_1", scoped.QualifiedName())
}

func TestInputAndConst_MutateInPlaceAndReturnSelf(t *testing.T) {
	sv := statevar.New("grant0", []string{"buf"}, statevar.Bool)
	require.False(t, sv.IsInput)

	ret := sv.Input()
	require.True(t, sv.IsInput)
	require.Same(t, sv, ret)

	ret2 := sv.Const()
	require.True(t, sv.IsConst)
	require.Same(t, sv, ret2)
}

func TestAt_And_Bumped(t *testing.T) {
	sv := statevar.New("b1", nil, statevar.Bool)
	v0 := statevar.At(sv, 0)
	require.Equal(t, int64(0), v0.Offset.Int64())

	v3 := v0.Bumped(3)
	require.Equal(t, int64(3), v3.Offset.Int64())
	require.Same(t, sv, v3.SV)
	require.Equal(t, int64(0), v0.Offset.Int64(), "Bumped must not mutate the receiver")
}

func TestKey_DistinguishesByStateVarAndOffset(t *testing.T) {
	sv1 := statevar.New("b0", nil, statevar.Bool)
	sv2 := statevar.New("b0", nil, statevar.Bool)

	require.Equal(t, statevar.At(sv1, 0).Key(), statevar.At(sv1, 0).Key())
	require.NotEqual(t, statevar.At(sv1, 0).Key(), statevar.At(sv1, 1).Key())
	require.NotEqual(t, statevar.At(sv1, 0).Key(), statevar.At(sv2, 0).Key(),
		"two distinct StateVar pointers with the same name must not collide, even sharing an offset")
}

func TestString(t *testing.T) {
	sv := statevar.New("b0", []string{"counter"}, statevar.Bool)
	require.Equal(t, "counter.b0@2", statevar.At(sv, 2).String())
}

func TestTypeString(t *testing.T) {
	require.Equal(t, "bool", statevar.Bool.String())
	require.Equal(t, "int", statevar.Int.String())
	require.Equal(t, "real", statevar.Real.String())
}
