package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys/fixture"
)

func TestBuildFixture_Counter(t *testing.T) {
	fixtureName, neverEquals, producerCt = "counter", 3, 2
	store := term.NewStore()
	sys, err := buildFixture(store)
	require.NoError(t, err)
	_, ok := sys.(*fixture.TwoBitCounter)
	require.True(t, ok)
}

func TestBuildFixture_SharedBuffer(t *testing.T) {
	fixtureName, neverEquals, producerCt = "sharedbuffer", 3, 3
	store := term.NewStore()
	sys, err := buildFixture(store)
	require.NoError(t, err)
	buf, ok := sys.(*fixture.SharedBuffer)
	require.True(t, ok)
	require.Equal(t, 3, buf.N())
}

func TestBuildFixture_SharedBufferRejectsFewerThanTwoProducers(t *testing.T) {
	fixtureName, producerCt = "sharedbuffer", 1
	_, err := buildFixture(term.NewStore())
	require.Error(t, err)
}

func TestBuildFixture_UnknownName(t *testing.T) {
	fixtureName = "nonsense"
	_, err := buildFixture(term.NewStore())
	require.Error(t, err)
}

func TestDisplayResolver_MemoizesByQualifiedName(t *testing.T) {
	resolve := displayResolver()

	sv1, ok := resolve("counter.b1")
	require.True(t, ok)
	sv2, ok := resolve("counter.b1")
	require.True(t, ok)
	require.Same(t, sv1, sv2, "the same qualified name must resolve to the same StateVar pointer")

	sv3, ok := resolve("counter.b0")
	require.True(t, ok)
	require.NotSame(t, sv1, sv3)
}
