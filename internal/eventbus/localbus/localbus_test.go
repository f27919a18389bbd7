package localbus_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/mcheck/internal/eventbus/localbus"
	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys"
)

type stubSystem struct{ transys.System }

func TestRecv_DrainsAndResetsPending(t *testing.T) {
	bus := localbus.New()
	var sys stubSystem

	bus.PropStatus(transys.Status{Kind: transys.Invariant}, sys, "p1")
	bus.PropStatus(transys.Status{Kind: transys.False}, sys, "p2")
	bus.PropStatus(transys.Status{Kind: transys.KTrue, K: 3}, sys, "p3")
	bus.PropStatus(transys.Status{Kind: transys.KTrue, K: 5}, sys, "p3")

	ev := bus.Recv()
	require.Equal(t, []string{"p1"}, ev.NewValids)
	require.Equal(t, []string{"p2"}, ev.NewFalsifieds)
	require.Equal(t, int64(5), ev.NewKTrue["p3"], "later, higher KTrue must win over an earlier lower one")

	second := bus.Recv()
	require.Empty(t, second.NewValids)
	require.Empty(t, second.NewFalsifieds)
	require.Empty(t, second.NewKTrue)
}

func TestInjectInvariant(t *testing.T) {
	store := term.NewStore()
	bus := localbus.New()

	bus.InjectInvariant(store.Bool(true))
	bus.InjectInvariant(store.Bool(false))

	ev := bus.Recv()
	require.Len(t, ev.NewInvariants, 2)

	require.Empty(t, bus.Recv().NewInvariants)
}

func TestStatuses_RecordsEveryPublicationRegardlessOfRecv(t *testing.T) {
	bus := localbus.New()
	var sys stubSystem

	bus.PropStatus(transys.Status{Kind: transys.Invariant}, sys, "p1")
	bus.Recv()
	bus.PropStatus(transys.Status{Kind: transys.False}, sys, "p2")

	statuses := bus.Statuses()
	require.Len(t, statuses, 2)
	require.Equal(t, "p1", statuses[0].Name)
	require.Equal(t, "p2", statuses[1].Name)
}
