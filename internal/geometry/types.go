package geometry

import "github.com/go-gl/mathgl/mgl32"

// Geometry is the packed, parallel-array vertex data BinGeometry
// stores; uploading it produces a GPU vertex/index buffer pair.
// Normals/UVs/indices may be empty for a primitive that doesn't use
// them (e.g. a point cloud has no indices).
type Geometry struct {
	Positions []mgl32.Vec3
	Colors    []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32
}

// Joints is the parallel skinning-weight data for a skinned primitive,
// one entry per vertex, matching Geometry's length.
type Joints struct {
	JointIndices [][4]uint32
	Weights      []mgl32.Vec4
}
