package gltfimport

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"github.com/kestrel3d/kestrel/pkg/uri"
	"github.com/kestrel3d/kestrel/pkg/xform"
)

// sceneNodeJSON, sceneEntityJSON, cameraJSON, dirLightJSON and
// lightsJSON mirror the persisted Scene JSON layout (§6): `{asset_type:
// "scene", name, nodes: [{id, name, transform, parent, children,
// entity}], roots, entities: [{id, node, components}], camera,
// lights}`; a mesh renderer is written as an entry of the entity's
// components, not as a separate "renderer" key.
type sceneNodeJSON struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Transform [16]float32 `json:"transform"`
	Parent    *int        `json:"parent,omitempty"`
	Children  []int       `json:"children,omitempty"`
	Entity    *int        `json:"entity,omitempty"`
}

// sceneComponentJSON is one entry of an entity's component list — a
// mesh renderer (static or skinned), the only component kind the
// importer itself produces; other component kinds an authoring tool
// adds later round-trip untouched through Scene's own load path.
type sceneComponentJSON struct {
	Type     string `json:"type"`
	Mesh     string `json:"mesh,omitempty"`
	Skeleton string `json:"skeleton,omitempty"`
}

type sceneEntityJSON struct {
	ID         int                  `json:"id"`
	Node       int                  `json:"node"`
	Components []sceneComponentJSON `json:"components,omitempty"`
}

type cameraJSON struct {
	Name      string      `json:"name,omitempty"`
	Transform [16]float32 `json:"transform"`
	Exposure  float32     `json:"exposure,omitempty"`
	Type      string      `json:"type,omitempty"`
}

type dirLightJSON struct {
	Direction [4]float32 `json:"direction"`
	RGB       colourJSON `json:"rgb"`
}

type lightsJSON struct {
	DirLights []dirLightJSON `json:"dir_lights,omitempty"`
}

type sceneManifestJSON struct {
	AssetType string           `json:"asset_type"`
	Name      string           `json:"name"`
	Nodes     []sceneNodeJSON  `json:"nodes"`
	Roots     []int            `json:"roots"`
	Entities  []sceneEntityJSON `json:"entities,omitempty"`
	Camera    cameraJSON       `json:"camera"`
	Lights    lightsJSON       `json:"lights,omitempty"`
}

// ImportScene emits every mesh reachable from doc.Scenes[sceneIndex]
// (via ImportMesh) and a scene manifest reconstructing the node
// hierarchy, attaching a mesh-renderer entity to each node that
// references a mesh (§4.8 step 6). Node ids are the nodes' own glTF
// indices, so a scene manifest's "parent"/"children"/"node" fields
// point straight back at the source document without a separate
// renumbering pass — unlike joints, scene nodes have no reason to be
// densely packed.
func (imp *Importer) ImportScene(doc *gltf.Document, sceneIndex int) (uri.URI, error) {
	if sceneIndex < 0 || sceneIndex >= len(doc.Scenes) {
		return "", fmt.Errorf("gltfimport: scene index %d out of range", sceneIndex)
	}
	gs := doc.Scenes[sceneIndex]
	name := gs.Name
	if name == "" {
		name = fmt.Sprintf("scene_%d", sceneIndex)
	}

	parentOf := globalNodeParents(doc)

	visited := make(map[int]bool)
	var roots []int
	for _, rootIdx := range gs.Nodes {
		roots = append(roots, int(rootIdx))
	}

	var order []int
	var walk func(nodeIdx int)
	walk = func(nodeIdx int) {
		if visited[nodeIdx] {
			return
		}
		visited[nodeIdx] = true
		order = append(order, nodeIdx)
		for _, child := range doc.Nodes[nodeIdx].Children {
			walk(int(child))
		}
	}
	for _, rootIdx := range roots {
		walk(rootIdx)
	}

	manifest := sceneManifestJSON{
		AssetType: "scene",
		Name:      name,
		Roots:     roots,
		Camera: cameraJSON{
			Transform: xform.Mat4ToRowMajor(mgl32.Ident4()),
			Type:      "perspective",
		},
	}

	nextEntity := 0
	for _, nodeIdx := range order {
		node := doc.Nodes[nodeIdx]

		sn := sceneNodeJSON{
			ID:        nodeIdx,
			Name:      node.Name,
			Transform: xform.Mat4ToRowMajor(nodeLocalMatrix(node)),
		}
		if sn.Name == "" {
			sn.Name = fmt.Sprintf("node_%d", nodeIdx)
		}
		if parent, ok := parentOf[nodeIdx]; ok {
			sn.Parent = intPtr(parent)
		}
		for _, child := range node.Children {
			sn.Children = append(sn.Children, int(child))
		}

		if node.Mesh != nil {
			skinIndex := -1
			if node.Skin != nil {
				skinIndex = int(*node.Skin)
			}
			meshURI, err := imp.ImportMesh(doc, int(*node.Mesh), skinIndex)
			if err != nil {
				return "", fmt.Errorf("gltfimport: scene %d node %d: %w", sceneIndex, nodeIdx, err)
			}

			component := sceneComponentJSON{Type: "static_mesh_renderer", Mesh: meshURI.String()}
			if skinIndex >= 0 {
				component.Type = "skinned_mesh_renderer"
				skin, err := imp.importSkin(doc, skinIndex)
				if err != nil {
					return "", fmt.Errorf("gltfimport: scene %d node %d: %w", sceneIndex, nodeIdx, err)
				}
				component.Skeleton = skin.SkeletonURI.String()
			}

			entityID := nextEntity
			nextEntity++
			sn.Entity = intPtr(entityID)
			manifest.Entities = append(manifest.Entities, sceneEntityJSON{
				ID:         entityID,
				Node:       nodeIdx,
				Components: []sceneComponentJSON{component},
			})
		}

		manifest.Nodes = append(manifest.Nodes, sn)
	}

	fileName := fmt.Sprintf("scene_%d.json", sceneIndex)
	return imp.writeJSON(fileName, manifest)
}
