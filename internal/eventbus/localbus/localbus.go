// Package localbus is an in-process, mutex-guarded eventbus.Bus used to
// wire engines together within a single process and in tests. It is not a
// cross-process transport; the real event bus's synchronization across
// concurrently running techniques is an external concern this module does
// not own.
package localbus

import (
	"sync"

	"github.com/funvibe/mcheck/internal/eventbus"
	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys"
)

// Bus accumulates published events until a consumer polls Recv, which
// drains and returns everything pending without blocking.
type Bus struct {
	mu       sync.Mutex
	pending  eventbus.Events
	statuses []StatusPublication
}

// StatusPublication records one PropStatus call, for tests/observers that
// want to assert on what an engine published.
type StatusPublication struct {
	Status transys.Status
	Trans  transys.System
	Name   string
}

// New constructs an empty bus.
func New() *Bus {
	return &Bus{}
}

func (b *Bus) Recv() eventbus.Events {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev := b.pending
	b.pending = eventbus.Events{}
	return ev
}

func (b *Bus) PropStatus(status transys.Status, trans transys.System, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = append(b.statuses, StatusPublication{Status: status, Trans: trans, Name: name})
	switch status.Kind {
	case transys.Invariant:
		b.pending.NewValids = append(b.pending.NewValids, name)
	case transys.False:
		b.pending.NewFalsifieds = append(b.pending.NewFalsifieds, name)
	case transys.KTrue:
		if b.pending.NewKTrue == nil {
			b.pending.NewKTrue = make(map[string]int64)
		}
		if cur, ok := b.pending.NewKTrue[name]; !ok || status.K > cur {
			b.pending.NewKTrue[name] = status.K
		}
	}
}

// InjectInvariant lets an external invariant-generator technique hand a
// newly discovered system-level invariant term to the next Recv poll.
func (b *Bus) InjectInvariant(t *term.Term) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.NewInvariants = append(b.pending.NewInvariants, t)
}

// Statuses returns everything published so far, for test assertions.
func (b *Bus) Statuses() []StatusPublication {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]StatusPublication, len(b.statuses))
	copy(out, b.statuses)
	return out
}
