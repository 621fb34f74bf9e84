package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/entity"
	"github.com/kestrel3d/kestrel/pkg/xform"
)

// ProjectionKind tags Camera's projection variant (§2.0's "type:
// Perspective{fov, view_plane} | Orthographic{view_plane}").
type ProjectionKind int

const (
	ProjectionPerspective ProjectionKind = iota
	ProjectionOrthographic
)

// Face selects which local axis the camera looks down, matching glTF
// cameras (-Z) as well as the occasional +Z-forward authoring tool.
type Face int

const (
	FaceNegZ Face = iota
	FacePosZ
)

// ViewPlane is the shared near/far span for either projection kind.
type ViewPlane struct {
	Near float32
	Far  float32
}

// Camera is the scene's single active viewpoint: {transform, exposure,
// projection, face}. Orthographic HalfExtent reuses the same unit the
// shadow frustum uses — the half-width of the square viewing volume.
type Camera struct {
	Name       string
	Transform  *xform.Transform
	Exposure   float32
	Projection ProjectionKind
	Face       Face
	Fov        float32 // radians, perspective only
	Aspect     float32 // width/height, perspective only
	HalfExtent float32 // orthographic only
	Plane      ViewPlane
	// Target, when non-zero, is the entity whose node transform this
	// camera copies every tick (§4.10 step 4).
	Target entity.ID
}

// NewCamera returns a camera with an identity transform and
// reasonable perspective defaults (60° fov, 16:9 aspect, 0.1-1000).
func NewCamera() *Camera {
	return &Camera{
		Name:       "main",
		Transform:  xform.New(),
		Exposure:   1,
		Projection: ProjectionPerspective,
		Fov:        mgl32.DegToRad(60),
		Aspect:     16.0 / 9.0,
		Plane:      ViewPlane{Near: 0.1, Far: 1000},
	}
}

// forward returns the camera's look direction in world space,
// accounting for Face.
func (c *Camera) forward() mgl32.Vec3 {
	axis := mgl32.Vec3{0, 0, -1}
	if c.Face == FacePosZ {
		axis = mgl32.Vec3{0, 0, 1}
	}
	return c.Transform.Orientation().Rotate(axis)
}

// ViewProj builds the combined view-projection matrix for the
// camera's current transform and projection settings.
func (c *Camera) ViewProj() mgl32.Mat4 {
	eye := c.Transform.Position()
	forward := c.forward()
	up := c.Transform.Orientation().Rotate(mgl32.Vec3{0, 1, 0})
	view := mgl32.LookAtV(eye, eye.Add(forward), up)

	var proj mgl32.Mat4
	switch c.Projection {
	case ProjectionOrthographic:
		proj = mgl32.Ortho(-c.HalfExtent, c.HalfExtent, -c.HalfExtent, c.HalfExtent, c.Plane.Near, c.Plane.Far)
	default:
		proj = mgl32.Perspective(c.Fov, c.Aspect, c.Plane.Near, c.Plane.Far)
	}
	return proj.Mul4(view)
}
