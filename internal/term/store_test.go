package term

import (
	"testing"

	"github.com/funvibe/mcheck/internal/statevar"
)

func TestInterningIdentity(t *testing.T) {
	s := NewStore()
	x := statevar.New("x", nil, statevar.Bool)
	a := s.VarTerm(statevar.At(x, 0))
	b := s.VarTerm(statevar.At(x, 0))
	if a != b {
		t.Fatalf("expected structurally identical terms to be the same pointer")
	}
	if a.Tag() != b.Tag() {
		t.Fatalf("tag(t1)=%d != tag(t2)=%d for structurally identical terms", a.Tag(), b.Tag())
	}

	c := s.VarTerm(statevar.At(x, 1))
	if a.Tag() == c.Tag() {
		t.Fatalf("distinct var instances must have distinct tags")
	}
}

func TestAndOrCanonicalization(t *testing.T) {
	s := NewStore()
	x := statevar.New("x", nil, statevar.Bool)
	y := statevar.New("y", nil, statevar.Bool)
	vx := s.VarTerm(statevar.At(x, 0))
	vy := s.VarTerm(statevar.At(y, 0))

	a1 := s.And(vx, vy)
	a2 := s.And(vy, vx)
	if a1 != a2 {
		t.Fatalf("And should be order-independent for hash-consing")
	}

	if s.And(vx, s.False()) != s.False() {
		t.Fatalf("And with false conjunct must collapse to false")
	}
	if s.Or(vx, s.True()) != s.True() {
		t.Fatalf("Or with true disjunct must collapse to true")
	}
	if s.And(vx, s.True()) != vx {
		t.Fatalf("And with true identity must drop it")
	}
}

func TestBumpRoundTrip(t *testing.T) {
	s := NewStore()
	x := statevar.New("x", nil, statevar.Bool)
	y := statevar.New("y", nil, statevar.Bool)
	vx := s.VarTerm(statevar.At(x, 0))
	vy := s.VarTerm(statevar.At(y, 0))
	phi := s.Implies(vx, s.Not(vy))

	bumped := s.Bump(phi, 5)
	back := s.Bump(bumped, -5)
	if back != phi {
		t.Fatalf("bump by k then -k must return the original term, got %s vs %s", back, phi)
	}

	fv := FreeVars(bumped)
	if len(fv) != 2 {
		t.Fatalf("expected 2 free vars, got %d", len(fv))
	}
	for _, v := range fv {
		if v.Offset.Int64() != 5 {
			t.Fatalf("expected offset 5, got %s", v.Offset.String())
		}
	}
}

func TestAtomsStopAtAtomBoundary(t *testing.T) {
	s := NewStore()
	x := statevar.New("x", nil, statevar.Int)
	y := statevar.New("y", nil, statevar.Int)
	vx := s.VarTerm(statevar.At(x, 0))
	vy := s.VarTerm(statevar.At(y, 0))
	eq := s.Eq(vx, vy)
	phi := s.And(eq, s.Not(eq))

	atoms := Atoms(phi)
	if len(atoms) != 1 || atoms[0] != eq {
		t.Fatalf("expected exactly the single Eq atom, got %v", atoms)
	}
}

func TestRewriteConcretizeRoundTrip(t *testing.T) {
	s := NewStore()
	x := statevar.New("x", nil, statevar.Int)
	y := statevar.New("y", nil, statevar.Int)
	vx := s.VarTerm(statevar.At(x, 0))
	vy := s.VarTerm(statevar.At(y, 0))
	atom := s.Eq(vx, vy)

	abv := statevar.New("abv0", []string{"top", "abv"}, statevar.Bool)
	abvTerm := s.VarTerm(statevar.At(abv, 0))

	abstracted := s.Rewrite(atom, map[int64]*Term{atom.Tag(): abvTerm})
	if abstracted != abvTerm {
		t.Fatalf("expected abstraction to replace the atom with its abvar")
	}

	concretized := s.Rewrite(abvTerm, map[int64]*Term{abvTerm.Tag(): atom})
	if concretized != atom {
		t.Fatalf("concretize(alpha(atom)) must equal atom, got %s", concretized)
	}
}
