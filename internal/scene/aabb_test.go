package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/node"
	"github.com/kestrel3d/kestrel/pkg/xform"
)

func boxedEntity(s *Scene, pos mgl32.Vec3, min, max mgl32.Vec3) node.ID {
	n := s.Tree.Add(node.CreateInfo{
		Parent: s.Root,
		Transform: xform.Data{
			Position:    pos,
			Orientation: mgl32.QuatIdent(),
			Scale:       mgl32.Vec3{1, 1, 1},
		},
	})
	e := s.Entities.Create(n.ID)
	e.AddComponent(&AABBComponent{Min: min, Max: max})
	return n.ID
}

func TestOverlapsDetectsIntersectingWorldBoxes(t *testing.T) {
	s := New(noopProviders{})
	_ = boxedEntity(s, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	a := s.Entities.Active()[0].ID
	boxedEntity(s, mgl32.Vec3{1.5, 0, 0}, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	b := s.Entities.Active()[1].ID

	if !s.Overlaps(a, b) {
		t.Fatal("expected overlapping boxes (centers 1.5 apart, half-extent 1 each) to overlap")
	}
}

func TestOverlapsRejectsSeparatedWorldBoxes(t *testing.T) {
	s := New(noopProviders{})
	boxedEntity(s, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	a := s.Entities.Active()[0].ID
	boxedEntity(s, mgl32.Vec3{10, 0, 0}, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	b := s.Entities.Active()[1].ID

	if s.Overlaps(a, b) {
		t.Fatal("expected far-apart boxes not to overlap")
	}
}

func TestOverlapsFalseWhenEitherEntityHasNoAABB(t *testing.T) {
	s := New(noopProviders{})
	n := s.Tree.Add(node.CreateInfo{Parent: s.Root, Transform: xform.DefaultData()})
	e := s.Entities.Create(n.ID)
	boxedEntity(s, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	b := s.Entities.Active()[1].ID

	if s.Overlaps(e.ID, b) {
		t.Fatal("expected no overlap when one entity lacks an AABBComponent")
	}
}
