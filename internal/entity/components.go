package entity

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/anim"
	"github.com/kestrel3d/kestrel/internal/frame"
	"github.com/kestrel3d/kestrel/pkg/uri"
)

// StaticMeshRenderer is §4.10's static mesh component: a mesh URI plus
// an optional instance-transform list. With no instances it submits
// one draw item per primitive at the entity's own world transform;
// with instances it submits one instanced draw item per primitive
// using Instances directly (the node's own transform only positions
// the entity itself, not each instance copy).
type StaticMeshRenderer struct {
	MeshURI   uri.URI
	Instances []mgl32.Mat4
}

func (r *StaticMeshRenderer) Tick(ctx TickContext) {}

func (r *StaticMeshRenderer) Render(ctx RenderContext) {
	n, ok := ctx.Tree.Get(ctx.Node)
	if !ok {
		return
	}
	mesh, err := ctx.Providers.UploadStaticMesh(r.MeshURI)
	if err != nil {
		return
	}
	model := ctx.Tree.GlobalTransform(n)
	origin := model.Col(3).Vec3()
	for _, prim := range mesh.Primitives {
		mat, err := ctx.Providers.Material(prim.MaterialURI)
		if err != nil {
			continue
		}
		ctx.DrawList.Submit(frame.DrawItem{
			Primitive:   prim,
			Material:    &mat,
			ModelMatrix: model,
			NodeOrigin:  origin,
			Instances:   r.Instances,
		})
	}
}

// SkinnedMeshRenderer is §4.10's skinned mesh component: a mesh URI
// and the anim.Instance the skeleton was instantiated into (§4.11).
// Each render resolves per-joint world matrices fresh from the node
// tree (which SkeletonController mutates every tick), so animation
// playback and rendering stay decoupled through the tree alone.
type SkinnedMeshRenderer struct {
	MeshURI  uri.URI
	Skeleton anim.Instance
}

func (r *SkinnedMeshRenderer) Tick(ctx TickContext) {}

func (r *SkinnedMeshRenderer) Render(ctx RenderContext) {
	n, ok := ctx.Tree.Get(ctx.Node)
	if !ok {
		return
	}
	mesh, err := ctx.Providers.UploadSkinnedMesh(r.MeshURI)
	if err != nil {
		return
	}
	jointMatrices := make([]mgl32.Mat4, len(r.Skeleton.Joints))
	for i, jointNode := range r.Skeleton.Joints {
		world := ctx.Tree.GlobalTransform(jointNode)
		inverseBind := mgl32.Ident4()
		if i < len(mesh.InverseBindMatrices) {
			inverseBind = mesh.InverseBindMatrices[i]
		}
		jointMatrices[i] = world.Mul4(inverseBind)
	}

	model := ctx.Tree.GlobalTransform(n)
	origin := model.Col(3).Vec3()
	for _, prim := range mesh.Primitives {
		mat, err := ctx.Providers.Material(prim.MaterialURI)
		if err != nil {
			continue
		}
		ctx.DrawList.Submit(frame.DrawItem{
			Primitive:     prim,
			Material:      &mat,
			ModelMatrix:   model,
			NodeOrigin:    origin,
			JointMatrices: jointMatrices,
		})
	}
}

// SkeletonController is §4.10's skeletal animation component: an
// enabled animation index and elapsed time. Each tick advances elapsed
// by dt*TimeScale, evaluates every sampler of the enabled animation at
// the result, and wraps elapsed modulo the animation's duration.
type SkeletonController struct {
	Skeleton  anim.Instance
	Enabled   int
	TimeScale float32
	elapsed   float32
}

// NewSkeletonController returns a controller with TimeScale defaulted
// to 1 (the zero value would otherwise freeze playback).
func NewSkeletonController(skeleton anim.Instance, enabled int) *SkeletonController {
	return &SkeletonController{Skeleton: skeleton, Enabled: enabled, TimeScale: 1}
}

func (c *SkeletonController) Tick(ctx TickContext) {
	if c.Enabled < 0 || c.Enabled >= len(c.Skeleton.Animations) {
		return
	}
	active := c.Skeleton.Animations[c.Enabled]
	c.elapsed += ctx.DT * c.TimeScale
	if active.Duration > 0 {
		for c.elapsed >= active.Duration {
			c.elapsed -= active.Duration
		}
	}
	anim.Evaluate(ctx.Tree, active, c.elapsed)
}

func (c *SkeletonController) Render(ctx RenderContext) {}
