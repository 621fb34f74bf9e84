package asset

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/geometry"
)

func sampleGeometryBytes(t *testing.T, withJoints bool) []byte {
	t.Helper()
	g := geometry.Geometry{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Colors:    []mgl32.Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
		Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UVs:       []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}},
		Indices:   []uint32{0, 1, 2},
	}
	var joints *geometry.Joints
	if withJoints {
		joints = &geometry.Joints{
			JointIndices: [][4]uint32{{0, 1, 0, 0}, {0, 1, 0, 0}, {0, 1, 0, 0}},
			Weights:      []mgl32.Vec4{{0.5, 0.5, 0, 0}, {0.5, 0.5, 0, 0}, {0.5, 0.5, 0, 0}},
		}
	}
	var buf bytes.Buffer
	if err := geometry.EncodeGeometry(&buf, g, joints); err != nil {
		t.Fatalf("EncodeGeometry: %v", err)
	}
	return buf.Bytes()
}

func TestStaticMeshProviderDecodesPrimitivesAndDependencies(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("meshes/crate.geometry_0.bin", string(sampleGeometryBytes(t, false)))
	ds.put("meshes/crate.json", `{
		"asset_type": "mesh",
		"type": "static",
		"name": "crate",
		"primitives": [{"geometry": "crate.geometry_0.bin", "material": "../materials/crate.json"}]
	}`)

	p := NewStaticMeshProvider(ds, nil, nil)
	mesh, err := p.Decoded.Load("meshes/crate.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mesh.Name != "crate" {
		t.Fatalf("Name = %q, want crate", mesh.Name)
	}
	if len(mesh.Primitives) != 1 {
		t.Fatalf("Primitives = %d, want 1", len(mesh.Primitives))
	}
	if mesh.Primitives[0].MaterialURI != "materials/crate.json" {
		t.Fatalf("MaterialURI = %q, want materials/crate.json", mesh.Primitives[0].MaterialURI)
	}
	if len(mesh.Primitives[0].Geometry.Positions) != 3 {
		t.Fatalf("Positions = %d, want 3", len(mesh.Primitives[0].Geometry.Positions))
	}
}

func TestStaticMeshProviderRejectsSkinnedManifest(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("meshes/rig.json", `{"asset_type": "mesh", "type": "skinned", "name": "rig", "primitives": []}`)

	p := NewStaticMeshProvider(ds, nil, nil)
	if _, err := p.Decoded.Load("meshes/rig.json"); err == nil {
		t.Fatal("expected an error loading a skinned manifest through StaticMeshProvider")
	}
}

func TestSkinnedMeshProviderRequiresSkeleton(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("meshes/rig.geometry_0.bin", string(sampleGeometryBytes(t, true)))
	ds.put("meshes/rig.json", `{
		"asset_type": "mesh",
		"type": "skinned",
		"name": "rig",
		"primitives": [{"geometry": "rig.geometry_0.bin", "material": "rig.mat.json"}]
	}`)

	p := NewSkinnedMeshProvider(ds, nil, nil)
	if _, err := p.Decoded.Load("meshes/rig.json"); err == nil {
		t.Fatal("expected an error for a skinned mesh manifest missing a skeleton reference")
	}
}

func TestSkinnedMeshProviderDecodesJointsAndInverseBind(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("meshes/rig.geometry_0.bin", string(sampleGeometryBytes(t, true)))
	ds.put("meshes/rig.json", `{
		"asset_type": "mesh",
		"type": "skinned",
		"name": "rig",
		"primitives": [{"geometry": "rig.geometry_0.bin", "material": "rig.mat.json"}],
		"skeleton": "rig.skeleton.json",
		"inverse_bind_matrices": [[1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1]]
	}`)

	p := NewSkinnedMeshProvider(ds, nil, nil)
	mesh, err := p.Decoded.Load("meshes/rig.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mesh.SkeletonURI != "meshes/rig.skeleton.json" {
		t.Fatalf("SkeletonURI = %q, want meshes/rig.skeleton.json", mesh.SkeletonURI)
	}
	if len(mesh.InverseBindMatrices) != 1 || mesh.InverseBindMatrices[0] != mgl32.Ident4() {
		t.Fatalf("InverseBindMatrices = %v, want [identity]", mesh.InverseBindMatrices)
	}
	if mesh.Primitives[0].Joints == nil {
		t.Fatal("expected non-nil joints for a skinned primitive")
	}
}
