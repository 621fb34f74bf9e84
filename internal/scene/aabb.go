package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/entity"
)

// AABBComponent attaches an axis-aligned bounding box, in the owning
// node's local space, to an entity. It carries no behavior of its own
// — Scene.Overlaps is the only thing that reads it — so Tick and
// Render are both no-ops, matching "no resolution/response: purely a
// query" (physics beyond AABB hooks is out of scope).
type AABBComponent struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (c *AABBComponent) Tick(ctx entity.TickContext)     {}
func (c *AABBComponent) Render(ctx entity.RenderContext) {}

// worldAABB transforms the eight corners of an AABBComponent's local
// box by the owning node's global transform and returns the
// axis-aligned box enclosing the result, ok=false if the entity has
// no AABBComponent or its node is gone.
func (s *Scene) worldAABB(id entity.ID) (min, max mgl32.Vec3, ok bool) {
	e, found := s.Entities.Get(id)
	if !found {
		return min, max, false
	}
	var box *AABBComponent
	for _, c := range e.Components {
		if b, isBox := c.(*AABBComponent); isBox {
			box = b
			break
		}
	}
	if box == nil {
		return min, max, false
	}
	n, found := s.Tree.Get(e.Node)
	if !found {
		return min, max, false
	}
	model := s.Tree.GlobalTransform(n)

	min = mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	max = mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{
			pick(i&1 != 0, box.Min.X(), box.Max.X()),
			pick(i&2 != 0, box.Min.Y(), box.Max.Y()),
			pick(i&4 != 0, box.Min.Z(), box.Max.Z()),
		}
		world := model.Mul4x1(corner.Vec4(1)).Vec3()
		min = componentMin(min, world)
		max = componentMax(max, world)
	}
	return min, max, true
}

// Overlaps reports whether entities a and b's world-space AABBs
// intersect. Either entity lacking an AABBComponent (or a now-missing
// node) means no overlap.
func (s *Scene) Overlaps(a, b entity.ID) bool {
	aMin, aMax, ok := s.worldAABB(a)
	if !ok {
		return false
	}
	bMin, bMax, ok := s.worldAABB(b)
	if !ok {
		return false
	}
	for axis := 0; axis < 3; axis++ {
		if aMax[axis] < bMin[axis] || bMax[axis] < aMin[axis] {
			return false
		}
	}
	return true
}

func pick(cond bool, ifTrue, ifFalse float32) float32 {
	if cond {
		return ifTrue
	}
	return ifFalse
}

func componentMin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{minF(a.X(), b.X()), minF(a.Y(), b.Y()), minF(a.Z(), b.Z())}
}

func componentMax(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{maxF(a.X(), b.X()), maxF(a.Y(), b.Y()), maxF(a.Z(), b.Z())}
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
