package entity

import (
	"testing"

	"github.com/kestrel3d/kestrel/internal/node"
)

func TestCreateAllocatesIncreasingIDs(t *testing.T) {
	s := NewStore()
	a := s.Create(node.ID(1))
	b := s.Create(node.ID(2))
	if a.ID == 0 || b.ID == 0 {
		t.Fatalf("expected non-zero ids, got %v, %v", a.ID, b.ID)
	}
	if !(a.ID < b.ID) {
		t.Fatalf("expected strictly increasing ids, got %v then %v", a.ID, b.ID)
	}
}

func TestActiveExcludesDestroyedAndIsSortedByID(t *testing.T) {
	s := NewStore()
	a := s.Create(node.ID(1))
	b := s.Create(node.ID(2))
	c := s.Create(node.ID(3))
	s.Destroy(b.ID)

	active := s.Active()
	if len(active) != 2 {
		t.Fatalf("len(active) = %d, want 2", len(active))
	}
	if active[0].ID != a.ID || active[1].ID != c.ID {
		t.Fatalf("active = %v, %v; want %v, %v", active[0].ID, active[1].ID, a.ID, c.ID)
	}
}

func TestSweepRemovesDestroyedAndReturnsTheirNodes(t *testing.T) {
	s := NewStore()
	a := s.Create(node.ID(10))
	b := s.Create(node.ID(20))
	s.Destroy(a.ID)

	removed := s.Sweep()
	if len(removed) != 1 || removed[0] != node.ID(10) {
		t.Fatalf("removed = %v, want [10]", removed)
	}
	if _, ok := s.Get(a.ID); ok {
		t.Fatal("expected destroyed entity to be gone from the store after Sweep")
	}
	if _, ok := s.Get(b.ID); !ok {
		t.Fatal("expected non-destroyed entity to survive Sweep")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestDestroyUnknownIDIsANoop(t *testing.T) {
	s := NewStore()
	s.Destroy(ID(999))
	if len(s.Sweep()) != 0 {
		t.Fatal("expected no nodes removed for an unknown entity id")
	}
}
