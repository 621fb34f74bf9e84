package asset

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/alloc"
)

// uploadGeometry interleaves g (and joints, if present) into the
// binding-0/binding-2 vertex layout frame.VertexInput expects, and
// uploads each as its own host-visible buffer.
func uploadGeometry(allocator *alloc.Allocator, g Geometry, joints *Joints) (GeometryHandle, error) {
	// DecodeGeometry always pads Colors/Normals/UVs to len(Positions),
	// so every array here is safe to index in lockstep.
	var vertices bytes.Buffer
	for i := range g.Positions {
		p, c, n, uv := g.Positions[i], g.Colors[i], g.Normals[i], g.UVs[i]
		for _, f := range []float32{p.X(), p.Y(), p.Z(), c.X(), c.Y(), c.Z(), n.X(), n.Y(), n.Z(), uv.X(), uv.Y()} {
			if err := binary.Write(&vertices, binary.LittleEndian, f); err != nil {
				return GeometryHandle{}, fmt.Errorf("asset.uploadGeometry: pack vertex %d: %w", i, err)
			}
		}
	}

	vertexBuf, err := allocator.MakeBufferWithData(gpu.BUFFER_USAGE_VERTEX_BUFFER_BIT, vertices.Bytes())
	if err != nil {
		return GeometryHandle{}, fmt.Errorf("asset.uploadGeometry: vertex buffer: %w", err)
	}

	handle := GeometryHandle{
		VertexBuffer: vertexBuf,
		VertexCount:  uint32(len(g.Positions)),
	}

	if len(g.Indices) > 0 {
		var indices bytes.Buffer
		if err := binary.Write(&indices, binary.LittleEndian, g.Indices); err != nil {
			return GeometryHandle{}, fmt.Errorf("asset.uploadGeometry: pack indices: %w", err)
		}
		indexBuf, err := allocator.MakeBufferWithData(gpu.BUFFER_USAGE_INDEX_BUFFER_BIT, indices.Bytes())
		if err != nil {
			return GeometryHandle{}, fmt.Errorf("asset.uploadGeometry: index buffer: %w", err)
		}
		handle.IndexBuffer = indexBuf
		handle.IndexCount = uint32(len(g.Indices))
	}

	if joints != nil {
		var jointBytes bytes.Buffer
		for i := range joints.JointIndices {
			if err := binary.Write(&jointBytes, binary.LittleEndian, joints.JointIndices[i]); err != nil {
				return GeometryHandle{}, fmt.Errorf("asset.uploadGeometry: pack joint indices %d: %w", i, err)
			}
			w := joints.Weights[i]
			for _, f := range []float32{w.X(), w.Y(), w.Z(), w.W()} {
				if err := binary.Write(&jointBytes, binary.LittleEndian, f); err != nil {
					return GeometryHandle{}, fmt.Errorf("asset.uploadGeometry: pack joint weights %d: %w", i, err)
				}
			}
		}
		jointBuf, err := allocator.MakeBufferWithData(gpu.BUFFER_USAGE_VERTEX_BUFFER_BIT, jointBytes.Bytes())
		if err != nil {
			return GeometryHandle{}, fmt.Errorf("asset.uploadGeometry: joints buffer: %w", err)
		}
		handle.JointsBuffer = jointBuf
		handle.Skinned = true
	}

	return handle, nil
}
