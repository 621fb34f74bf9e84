package asset

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/alloc"
	"github.com/kestrel3d/kestrel/internal/geometry"
	"github.com/kestrel3d/kestrel/pkg/uri"
)

// Geometry and Joints are the BinGeometry in-memory representation
// (internal/geometry owns the format; aliased here so callers can
// write asset.Geometry without importing both packages).
type Geometry = geometry.Geometry
type Joints = geometry.Joints

// GeometryHandle is uploaded geometry: a vertex buffer (interleaved
// position/color/normal/uv, binding 0), an optional index buffer, and
// — when Skinned — a separate joints buffer (interleaved joint
// indices/weights, binding 2) matching frame.VertexInput's binding
// layout for a skinned draw.
type GeometryHandle struct {
	VertexBuffer alloc.Buffer
	IndexBuffer  alloc.Buffer
	JointsBuffer alloc.Buffer
	IndexCount   uint32
	VertexCount  uint32
	Skinned      bool
}

// MeshPrimitive binds one draw call's worth of geometry to a material.
type MeshPrimitive struct {
	Geometry    GeometryHandle
	MaterialURI uri.URI
	Topology    gpu.PrimitiveTopology
}

// StaticMesh is an unskinned, possibly multi-primitive mesh.
type StaticMesh struct {
	Name       string
	Primitives []MeshPrimitive
}

// SkinnedMesh additionally carries the skeleton it binds to and the
// inverse bind matrices joint-space vertices are multiplied through
// before the joint's current world transform is applied.
type SkinnedMesh struct {
	Name                string
	Primitives          []MeshPrimitive
	SkeletonURI         uri.URI
	InverseBindMatrices []mgl32.Mat4
}
