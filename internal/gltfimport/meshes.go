package gltfimport

import (
	"bytes"
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/kestrel3d/kestrel/internal/geometry"
	"github.com/kestrel3d/kestrel/pkg/uri"
)

// meshPrimitiveJSON mirrors internal/asset's meshPrimitiveJSON.
type meshPrimitiveJSON struct {
	Geometry string `json:"geometry"`
	Material string `json:"material"`
}

// meshManifestJSON mirrors internal/asset's meshManifest (mesh.go /
// mesh_provider.go): `{asset_type, type, name, primitives, skeleton?,
// inverse_bind_matrices?}`.
type meshManifestJSON struct {
	AssetType           string              `json:"asset_type"`
	Type                string              `json:"type"`
	Name                string              `json:"name"`
	Primitives          []meshPrimitiveJSON `json:"primitives"`
	Skeleton            string              `json:"skeleton,omitempty"`
	InverseBindMatrices [][16]float32       `json:"inverse_bind_matrices,omitempty"`
}

// ImportMesh emits a BinGeometry file per primitive plus a mesh
// manifest for doc.Meshes[meshIndex] (§4.8 steps 2-4). skinIndex is
// the glTF skin bound to this mesh, or -1 for a static mesh — the
// caller resolves this from the node that references the mesh, since
// skinning is a node-level association in glTF, not a mesh-level one.
func (imp *Importer) ImportMesh(doc *gltf.Document, meshIndex, skinIndex int) (uri.URI, error) {
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return "", fmt.Errorf("gltfimport: mesh index %d out of range", meshIndex)
	}
	gm := doc.Meshes[meshIndex]
	name := gm.Name
	if name == "" {
		name = fmt.Sprintf("mesh_%d", meshIndex)
	}

	skinned := skinIndex >= 0
	manifest := meshManifestJSON{
		AssetType: "mesh",
		Name:      name,
	}
	if skinned {
		manifest.Type = "skinned"
	} else {
		manifest.Type = "static"
	}

	for primIdx, prim := range gm.Primitives {
		g, joints, err := extractGeometry(doc, prim)
		if err != nil {
			return "", fmt.Errorf("gltfimport: mesh %d primitive %d: %w", meshIndex, primIdx, err)
		}
		if skinned && joints == nil {
			return "", fmt.Errorf("gltfimport: mesh %d primitive %d is bound to skin %d but has no joint attributes", meshIndex, primIdx, skinIndex)
		}

		var buf bytes.Buffer
		if err := geometry.EncodeGeometry(&buf, g, joints); err != nil {
			return "", fmt.Errorf("gltfimport: mesh %d primitive %d: encode geometry: %w", meshIndex, primIdx, err)
		}
		geomName := fmt.Sprintf("mesh_%d.geometry_%d.bin", meshIndex, primIdx)
		if _, err := imp.writeFile(geomName, buf.Bytes()); err != nil {
			return "", err
		}

		materialIndex := -1
		if prim.Material != nil {
			materialIndex = int(*prim.Material)
		}
		matURI, err := imp.importMaterial(doc, materialIndex, skinned)
		if err != nil {
			return "", fmt.Errorf("gltfimport: mesh %d primitive %d: %w", meshIndex, primIdx, err)
		}

		manifest.Primitives = append(manifest.Primitives, meshPrimitiveJSON{
			Geometry: geomName,
			Material: matURI.String(),
		})
	}

	if skinned {
		skin, err := imp.importSkin(doc, skinIndex)
		if err != nil {
			return "", fmt.Errorf("gltfimport: mesh %d: %w", meshIndex, err)
		}
		manifest.Skeleton = skin.SkeletonURI.String()
		manifest.InverseBindMatrices = skin.InverseBind
	}

	fileName := fmt.Sprintf("mesh_%d.json", meshIndex)
	return imp.writeJSON(fileName, manifest)
}

// MeshSkin finds the skin bound to meshIndex by scanning doc's nodes
// for the first one referencing it, returning -1 if meshIndex is never
// bound to a skin anywhere in the document — skinning is a node-level
// association in glTF, not a mesh-level one, so callers importing a
// mesh by index alone (the `legsmi mesh` CLI path) need this lookup to
// know whether ImportMesh should treat it as skinned.
func MeshSkin(doc *gltf.Document, meshIndex int) int {
	for _, node := range doc.Nodes {
		if node.Mesh == nil || int(*node.Mesh) != meshIndex {
			continue
		}
		if node.Skin != nil {
			return int(*node.Skin)
		}
	}
	return -1
}
