package ic3ia

import "github.com/funvibe/mcheck/internal/term"

// Frames is the IC3IA frame sequence (spec.md §3): difference-encoded, in
// ascending order (levels[0] is the ground frame). F_i's full logical
// content is the conjunction of levels[i] and every level above it; this
// orientation is chosen (over descending) because Go slices grow off the
// end, matching ExtendTop's append.
type Frames struct {
	store  *term.Store
	levels [][]*term.Term
}

// NewFrames builds the initial sequence F = [F_0, F_1] = [∅, [iPrime]]
// (spec.md §4.2 Setup step 7).
func NewFrames(store *term.Store, iPrime *term.Term) *Frames {
	return &Frames{store: store, levels: [][]*term.Term{{}, {iPrime}}}
}

// NewFramesFromLevels rebuilds a frame sequence from previously persisted
// difference-store contents (SPEC_FULL.md §3's checkpoint resumption):
// levels[i] becomes level i's own clause store, verbatim.
func NewFramesFromLevels(store *term.Store, levels [][]*term.Term) *Frames {
	cp := make([][]*term.Term, len(levels))
	for i, lvl := range levels {
		cp[i] = append([]*term.Term{}, lvl...)
	}
	return &Frames{store: store, levels: cp}
}

// Top returns the current topmost frame index, k = |F| - 1.
func (f *Frames) Top() int64 { return int64(len(f.levels) - 1) }

// Full returns the conjunction of every clause stored at level i and above
// — F_i's complete logical content under the difference encoding.
func (f *Frames) Full(i int64) *term.Term {
	var all []*term.Term
	for lvl := int(i); lvl < len(f.levels); lvl++ {
		all = append(all, f.levels[lvl]...)
	}
	return f.store.And(all...)
}

// AddClause adds a newly derived blocking clause to level i's own
// difference-store (spec.md §4.2.a's "add g to the current frame").
func (f *Frames) AddClause(i int64, g *term.Term) {
	f.levels[i] = append(f.levels[i], g)
}

// ClausesAt returns a copy of level i's own difference-store (not its Full
// union), the input partition_absrelind works over.
func (f *Frames) ClausesAt(i int64) []*term.Term {
	return append([]*term.Term{}, f.levels[i]...)
}

// SetClausesAt replaces level i's difference-store wholesale, used by
// propagate to install the "must stay" partition back at its home level.
func (f *Frames) SetClausesAt(i int64, clauses []*term.Term) {
	f.levels[i] = clauses
}

// ExtendTop appends a new, empty top frame (main-loop step 3).
func (f *Frames) ExtendTop() {
	f.levels = append(f.levels, nil)
}

// Levels returns a deep copy of the difference-encoded store, level by
// level — the form SPEC_FULL.md §3's checkpoint store persists and
// NewFramesFromLevels later reconstructs from.
func (f *Frames) Levels() [][]*term.Term {
	out := make([][]*term.Term, len(f.levels))
	for i, lvl := range f.levels {
		out[i] = append([]*term.Term{}, lvl...)
	}
	return out
}
