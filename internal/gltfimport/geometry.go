package gltfimport

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/kestrel3d/kestrel/internal/geometry"
)

// extractGeometry reads one primitive's attributes into the engine's
// packed Geometry (and Joints, if skinned), grounded on
// glb_renderer.go's loadPrimitive: POSITION is required, NORMAL/
// TEXCOORD_0 default to zero when absent, and Joints is nil unless
// both JOINTS_0 and WEIGHTS_0 are present. COLOR_0
// has no dedicated modeler reader in this codebase's prior usage, so
// it's decoded through readAccessorFloats like the animation samplers
// are, defaulting to white.
func extractGeometry(doc *gltf.Document, prim *gltf.Primitive) (geometry.Geometry, *geometry.Joints, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return geometry.Geometry{}, nil, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return geometry.Geometry{}, nil, fmt.Errorf("read positions: %w", err)
	}
	n := len(positions)

	g := geometry.Geometry{
		Positions: make([]mgl32.Vec3, n),
		Colors:    make([]mgl32.Vec3, n),
		Normals:   make([]mgl32.Vec3, n),
		UVs:       make([]mgl32.Vec2, n),
	}
	for i, p := range positions {
		g.Positions[i] = mgl32.Vec3{p[0], p[1], p[2]}
		g.Colors[i] = mgl32.Vec3{1, 1, 1}
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil); err == nil {
			for i := 0; i < n && i < len(normals); i++ {
				g.Normals[i] = mgl32.Vec3{normals[i][0], normals[i][1], normals[i][2]}
			}
		}
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err == nil {
			for i := 0; i < n && i < len(uvs); i++ {
				g.UVs[i] = mgl32.Vec2{uvs[i][0], uvs[i][1]}
			}
		}
	}
	if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		if colors, err := readAccessorFloats(doc, int(idx)); err == nil {
			width := accessorWidth(doc.Accessors[idx])
			for i := 0; i < n && (i+1)*width <= len(colors); i++ {
				g.Colors[i] = mgl32.Vec3{colors[i*width], colors[i*width+1], colors[i*width+2]}
			}
		}
	}
	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err == nil {
			g.Indices = indices
		}
	}

	var joints *geometry.Joints
	jointIdx, hasJoints := prim.Attributes[gltf.JOINTS_0]
	weightIdx, hasWeights := prim.Attributes[gltf.WEIGHTS_0]
	if hasJoints && hasWeights {
		rawJoints, err := modeler.ReadJoints(doc, doc.Accessors[jointIdx], nil)
		if err != nil {
			return g, nil, fmt.Errorf("read joints: %w", err)
		}
		rawWeights, err := modeler.ReadWeights(doc, doc.Accessors[weightIdx], nil)
		if err != nil {
			return g, nil, fmt.Errorf("read weights: %w", err)
		}
		j := &geometry.Joints{
			JointIndices: make([][4]uint32, n),
			Weights:      make([]mgl32.Vec4, n),
		}
		for i := 0; i < n; i++ {
			if i < len(rawJoints) {
				j.JointIndices[i] = [4]uint32{
					uint32(rawJoints[i][0]), uint32(rawJoints[i][1]),
					uint32(rawJoints[i][2]), uint32(rawJoints[i][3]),
				}
			}
			if i < len(rawWeights) {
				w := rawWeights[i]
				j.Weights[i] = mgl32.Vec4{w[0], w[1], w[2], w[3]}
			}
		}
		joints = j
	}

	return g, joints, nil
}

func accessorWidth(accessor *gltf.Accessor) int {
	switch accessor.Type {
	case gltf.AccessorVec4:
		return 4
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec2:
		return 2
	default:
		return 1
	}
}

// readAccessorFloats reads an accessor's raw component data as
// float32s, regardless of attribute semantics — used for animation
// sampler input/output, skin inverse-bind matrices, and COLOR_0 (which
// has no dedicated modeler reader in this codebase's retrieved usage).
// Grounded verbatim on glb_renderer.go's readAccessorFloats.
func readAccessorFloats(doc *gltf.Document, accessorIndex int) ([]float32, error) {
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, fmt.Errorf("invalid accessor index: %d", accessorIndex)
	}
	accessor := doc.Accessors[accessorIndex]
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no buffer view", accessorIndex)
	}
	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	data := buffer.Data[bufferView.ByteOffset+accessor.ByteOffset:]
	elemCount := accessorWidth(accessor)
	if accessor.Type == gltf.AccessorMat4 {
		elemCount = 16
	}

	total := int(accessor.Count) * elemCount
	result := make([]float32, total)
	for i := 0; i < total; i++ {
		offset := i * 4
		if offset+4 > len(data) {
			break
		}
		bits := uint32(data[offset]) | uint32(data[offset+1])<<8 | uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24
		result[i] = *(*float32)(unsafe.Pointer(&bits))
	}
	return result, nil
}
