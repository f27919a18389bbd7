package checkpoint_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/mcheck/internal/checkpoint"
	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys/fixture"
)

func resolverFor(counters ...*fixture.TwoBitCounter) checkpoint.VarResolver {
	byName := map[string]*statevar.StateVar{}
	for _, c := range counters {
		byName[c.B1().QualifiedName()] = c.B1()
		byName[c.B0().QualifiedName()] = c.B0()
	}
	return func(name string) (*statevar.StateVar, bool) {
		sv, ok := byName[name]
		return sv, ok
	}
}

func TestKindSnapshotRoundTrip(t *testing.T) {
	store := term.NewStore()
	counter := fixture.NewTwoBitCounter(store, 3)
	resolve := resolverFor(counter)

	cp, err := checkpoint.Open(":memory:")
	require.NoError(t, err)
	defer cp.Close()

	props := counter.PropsListOfBound0()
	b1_0 := store.VarTerm(statevar.At(counter.B1(), 0))
	invariant := store.Implies(b1_0, store.VarTerm(statevar.At(counter.B0(), 0)))

	snap := checkpoint.KindSnapshot{
		RunID:           "run-kind-1",
		K:               5,
		Invariants:      []*term.Term{invariant},
		OptimisticNames: []string{props[0].Name},
		UnknownNames:    nil,
	}

	ctx := context.Background()
	require.NoError(t, cp.SaveKind(ctx, snap))

	loaded, ok, err := cp.LoadKind(ctx, store, resolve, "run-kind-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap.K, loaded.K)
	require.Equal(t, snap.OptimisticNames, loaded.OptimisticNames)
	require.Empty(t, loaded.UnknownNames)
	require.Len(t, loaded.Invariants, 1)
	require.Equal(t, invariant.Tag(), loaded.Invariants[0].Tag())

	_, ok, err = cp.LoadKind(ctx, store, resolve, "no-such-run")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIC3IASnapshotRoundTrip(t *testing.T) {
	store := term.NewStore()
	counter := fixture.NewTwoBitCounter(store, 3)
	resolve := resolverFor(counter)

	cp, err := checkpoint.Open(":memory:")
	require.NoError(t, err)
	defer cp.Close()

	b1_0 := store.VarTerm(statevar.At(counter.B1(), 0))
	b0_0 := store.VarTerm(statevar.At(counter.B0(), 0))
	pred := store.Eq(b1_0, b0_0)
	clause0 := store.Not(store.And(b1_0, b0_0))
	clause1 := store.Or(store.Not(b1_0), b0_0)

	snap := checkpoint.IC3IASnapshot{
		RunID:      "run-ic3ia-1",
		PropName:   "counter_never_3",
		FrameTop:   2,
		Predicates: []*term.Term{pred},
		Frames:     [][]*term.Term{{}, {clause0}, {clause1}},
	}

	ctx := context.Background()
	require.NoError(t, cp.SaveIC3IA(ctx, snap))

	loaded, ok, err := cp.LoadIC3IA(ctx, store, resolve, "run-ic3ia-1", "counter_never_3")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap.FrameTop, loaded.FrameTop)
	require.Len(t, loaded.Predicates, 1)
	require.Equal(t, pred.Tag(), loaded.Predicates[0].Tag())
	require.Len(t, loaded.Frames, 3)
	require.Empty(t, loaded.Frames[0])
	require.Len(t, loaded.Frames[1], 1)
	require.Equal(t, clause0.Tag(), loaded.Frames[1][0].Tag())
	require.Len(t, loaded.Frames[2], 1)
	require.Equal(t, clause1.Tag(), loaded.Frames[2][0].Tag())

	_, ok, err = cp.LoadIC3IA(ctx, store, resolve, "run-ic3ia-1", "no-such-property")
	require.NoError(t, err)
	require.False(t, ok)
}
