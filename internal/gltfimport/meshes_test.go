package gltfimport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/kestrel3d/kestrel/internal/geometry"
)

// buildTriangleDoc builds a single-triangle static mesh with
// POSITION/NORMAL/TEXCOORD_0 and an index buffer, via the modeler
// Write* helpers the way gltfwriter.go's addMesh does.
func buildTriangleDoc(t *testing.T) *gltf.Document {
	t.Helper()
	doc := &gltf.Document{}

	posIdx := modeler.WritePosition(doc, [][3]float32{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
	})
	normalIdx := modeler.WriteNormal(doc, [][3]float32{
		{0, 0, 1}, {0, 0, 1}, {0, 0, 1},
	})
	uvIdx := modeler.WriteTextureCoord(doc, [][2]float32{
		{0, 0}, {1, 0}, {0, 1},
	})
	indicesIdx := modeler.WriteIndices(doc, []uint32{0, 1, 2})

	doc.Meshes = []*gltf.Mesh{
		{
			Name: "triangle",
			Primitives: []*gltf.Primitive{
				{
					Attributes: map[string]uint32{
						gltf.POSITION:   posIdx,
						gltf.NORMAL:     normalIdx,
						gltf.TEXCOORD_0: uvIdx,
					},
					Indices: gltf.Index(indicesIdx),
				},
			},
		},
	}
	return doc
}

func TestImportMeshStaticWritesGeometryAndManifest(t *testing.T) {
	doc := buildTriangleDoc(t)
	imp, dir := newTestImporter(t)

	meshURI, err := imp.ImportMesh(doc, 0, -1)
	if err != nil {
		t.Fatalf("ImportMesh: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, meshURI.String()))
	if err != nil {
		t.Fatalf("read mesh manifest: %v", err)
	}
	var manifest meshManifestJSON
	if err := json.Unmarshal(raw, &manifest); err != nil {
		t.Fatalf("unmarshal mesh manifest: %v", err)
	}

	if manifest.AssetType != "mesh" {
		t.Fatalf("asset_type = %q, want mesh", manifest.AssetType)
	}
	if manifest.Type != "static" {
		t.Fatalf("type = %q, want static", manifest.Type)
	}
	if manifest.Skeleton != "" {
		t.Fatalf("skeleton = %q, want empty for static mesh", manifest.Skeleton)
	}
	if len(manifest.Primitives) != 1 {
		t.Fatalf("len(primitives) = %d, want 1", len(manifest.Primitives))
	}

	geomRaw, err := os.ReadFile(filepath.Join(dir, manifest.Primitives[0].Geometry))
	if err != nil {
		t.Fatalf("read geometry file: %v", err)
	}
	g, joints, err := geometry.DecodeGeometry(bytes.NewReader(geomRaw))
	if err != nil {
		t.Fatalf("DecodeGeometry: %v", err)
	}
	if joints != nil {
		t.Fatalf("expected no joints for static mesh, got %+v", joints)
	}
	if len(g.Positions) != 3 {
		t.Fatalf("len(positions) = %d, want 3", len(g.Positions))
	}
	if len(g.Indices) != 3 {
		t.Fatalf("len(indices) = %d, want 3", len(g.Indices))
	}
	if g.Normals[0].X() != 0 || g.Normals[0].Y() != 0 || g.Normals[0].Z() != 1 {
		t.Fatalf("normal 0 = %v, want (0,0,1)", g.Normals[0])
	}
}

func TestImportMeshSkinnedRequiresJointAttributes(t *testing.T) {
	doc := buildTriangleDoc(t)
	skinDoc := buildSkinnedAnimDoc(t)
	doc.Skins = skinDoc.Skins
	doc.Nodes = skinDoc.Nodes

	imp, _ := newTestImporter(t)
	if _, err := imp.ImportMesh(doc, 0, 0); err == nil {
		t.Fatal("expected error importing a mesh with no JOINTS_0/WEIGHTS_0 as skinned")
	}
}
