package frame

import (
	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/pkg/hashcombine"
)

// Binding slots a mesh's vertex/instance/joint buffers bind to. These
// are fixed across every material's pipeline, since the vertex input
// state is part of the second-level pipeline cache key (§4.3) and must
// be identical for every shader pair that draws the same geometry kind.
const (
	bindingVertex   uint32 = 0
	bindingInstance uint32 = 1
	bindingJoints   uint32 = 2
)

// Vertex attribute locations, matching Geometry's parallel arrays.
const (
	locPosition uint32 = 0
	locColor    uint32 = 1
	locNormal   uint32 = 2
	locUV       uint32 = 3
	// Instance model matrix occupies 4 consecutive vec4 locations.
	locInstanceRow0 uint32 = 4
	locInstanceRow1 uint32 = 5
	locInstanceRow2 uint32 = 6
	locInstanceRow3 uint32 = 7
	locJointIndices uint32 = 8
	locJointWeights uint32 = 9
)

const staticVertexStride = 3*4 + 3*4 + 3*4 + 2*4 // position + color + normal + uv
const jointVertexStride = 4*4 + 4*4              // [4]uint32 + vec4 weights
const instanceStride = 16 * 4                    // mat4

// VertexInput returns the pipeline vertex-input state for a draw: the
// base per-vertex attributes, plus an instance binding when the draw is
// instanced, plus a joints binding when it is skinned.
func VertexInput(instanced, skinned bool) (gpu.PipelineVertexInputStateCreateInfo, uint64) {
	bindings := []gpu.VertexInputBindingDescription{
		{Binding: bindingVertex, Stride: staticVertexStride, InputRate: gpu.VERTEX_INPUT_RATE_VERTEX},
	}
	attrs := []gpu.VertexInputAttributeDescription{
		{Location: locPosition, Binding: bindingVertex, Format: gpu.FORMAT_R32G32B32_SFLOAT, Offset: 0},
		{Location: locColor, Binding: bindingVertex, Format: gpu.FORMAT_R32G32B32_SFLOAT, Offset: 12},
		{Location: locNormal, Binding: bindingVertex, Format: gpu.FORMAT_R32G32B32_SFLOAT, Offset: 24},
		{Location: locUV, Binding: bindingVertex, Format: gpu.FORMAT_R32G32_SFLOAT, Offset: 36},
	}

	if instanced {
		bindings = append(bindings, gpu.VertexInputBindingDescription{
			Binding: bindingInstance, Stride: instanceStride, InputRate: gpu.VERTEX_INPUT_RATE_INSTANCE,
		})
		for i, loc := range []uint32{locInstanceRow0, locInstanceRow1, locInstanceRow2, locInstanceRow3} {
			attrs = append(attrs, gpu.VertexInputAttributeDescription{
				Location: loc, Binding: bindingInstance, Format: gpu.FORMAT_R32G32B32A32_SFLOAT, Offset: uint32(i * 16),
			})
		}
	}

	if skinned {
		bindings = append(bindings, gpu.VertexInputBindingDescription{
			Binding: bindingJoints, Stride: jointVertexStride, InputRate: gpu.VERTEX_INPUT_RATE_VERTEX,
		})
		attrs = append(attrs,
			gpu.VertexInputAttributeDescription{Location: locJointIndices, Binding: bindingJoints, Format: gpu.FORMAT_R32G32B32A32_UINT, Offset: 0},
			gpu.VertexInputAttributeDescription{Location: locJointWeights, Binding: bindingJoints, Format: gpu.FORMAT_R32G32B32A32_SFLOAT, Offset: 16},
		)
	}

	info := gpu.PipelineVertexInputStateCreateInfo{Bindings: bindings, Attributes: attrs}
	return info, hashVertexInput(instanced, skinned)
}

func hashVertexInput(instanced, skinned bool) uint64 {
	h := hashcombine.New()
	flags := byte(0)
	if instanced {
		flags |= 1
	}
	if skinned {
		flags |= 2
	}
	h.CombineBytes([]byte{flags})
	return h.Sum()
}
