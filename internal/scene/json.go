package scene

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/anim"
	"github.com/kestrel3d/kestrel/internal/asset"
	"github.com/kestrel3d/kestrel/internal/entity"
	"github.com/kestrel3d/kestrel/internal/frame"
	"github.com/kestrel3d/kestrel/internal/geometry"
	"github.com/kestrel3d/kestrel/internal/node"
	"github.com/kestrel3d/kestrel/pkg/color"
	"github.com/kestrel3d/kestrel/pkg/kerr"
	"github.com/kestrel3d/kestrel/pkg/uri"
	"github.com/kestrel3d/kestrel/pkg/xform"
)

// sceneNodeJSON, sceneComponentJSON, sceneEntityJSON, cameraJSON,
// dirLightJSON and lightsJSON mirror the persisted Scene JSON layout
// (§6): `{asset_type: "scene", name, nodes: [{id, name, transform,
// parent, children, entity}], roots, entities: [{id, node,
// components}], camera, lights}`; mesh renderers are entries of an
// entity's components, and no separate "renderer" key is read or
// written. These duplicate gltfimport's equally-named (but unexported)
// structs, adding the skeleton_controller "enabled" flag and the
// camera projection fields, rather than importing them, since gltfimport writes scene manifests
// without ever needing to read them back; this package owns the
// read/write round trip.
type sceneNodeJSON struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Transform [16]float32 `json:"transform"`
	Parent    *int        `json:"parent,omitempty"`
	Children  []int       `json:"children,omitempty"`
	Entity    *int        `json:"entity,omitempty"`
}

// sceneComponentJSON is one entry of an entity's component list.
// static_mesh_renderer and skinned_mesh_renderer are what the glTF
// importer emits (internal/gltfimport/scenes.go); skeleton_controller
// is an authoring-tool addition this package also understands so a
// hand-edited scene can enable animation playback without round
// tripping through the importer.
type sceneComponentJSON struct {
	Type     string `json:"type"`
	Mesh     string `json:"mesh,omitempty"`
	Skeleton string `json:"skeleton,omitempty"`
	Enabled  *int   `json:"enabled,omitempty"`
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
	Fov       float32     `json:"fov,omitempty"`
	Aspect    float32     `json:"aspect,omitempty"`
	HalfExt   float32     `json:"half_extent,omitempty"`
	Near      float32     `json:"near,omitempty"`
	Far       float32     `json:"far,omitempty"`
}

type colourJSON struct {
	Hex       string  `json:"hex"`
	Intensity float32 `json:"intensity,omitempty"`
}

type dirLightJSON struct {
	Direction [4]float32 `json:"direction"`
	RGB       colourJSON `json:"rgb"`
}

type lightsJSON struct {
	DirLights []dirLightJSON `json:"dir_lights,omitempty"`
}

type sceneManifestJSON struct {
	AssetType string            `json:"asset_type"`
	Name      string            `json:"name"`
	Nodes     []sceneNodeJSON   `json:"nodes"`
	Roots     []int             `json:"roots"`
	Entities  []sceneEntityJSON `json:"entities,omitempty"`
	Camera    cameraJSON        `json:"camera"`
	Lights    lightsJSON        `json:"lights,omitempty"`
}

// Assets is the narrow set of asset caches Load needs beyond the mesh
// providers already reachable through entity.Providers: skeletons and
// the raw animation clips a skeleton references, both keyed by URI.
type Assets struct {
	Skeletons  *asset.Cache[asset.Skeleton]
	Animations *asset.Cache[geometry.SkeletalAnimation]
}

// Load reads a Scene JSON document (§6) from source at u, building a
// live node tree and entity store from its nodes/entities arrays.
// Every skinned_mesh_renderer or skeleton_controller component
// resolves its skeleton through assets.Skeletons, instantiates it onto
// the node tree under the entity's own node (§4.11), and loads each of
// the skeleton's named animation clips through assets.Animations.
func Load(source uri.DataSource, assets Assets, providers entity.Providers, u uri.URI) (*Scene, error) {
	raw, err := source.Read(u)
	if err != nil {
		return nil, kerr.New(kerr.NotFound, "scene.Load", u.String(), err)
	}
	var manifest sceneManifestJSON
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, kerr.New(kerr.CorruptAsset, "scene.Load", u.String(), err)
	}
	if manifest.AssetType != "scene" {
		return nil, kerr.New(kerr.CorruptAsset, "scene.Load", u.String(), fmt.Errorf("asset_type = %q, want scene", manifest.AssetType))
	}

	s := &Scene{
		Tree:      node.New(),
		Entities:  entity.NewStore(),
		Providers: providers,
	}

	nodeIDs := make(map[int]node.ID, len(manifest.Nodes))
	byJSONID := make(map[int]sceneNodeJSON, len(manifest.Nodes))
	for _, n := range manifest.Nodes {
		byJSONID[n.ID] = n
	}

	var create func(jsonID int) node.ID
	create = func(jsonID int) node.ID {
		if id, ok := nodeIDs[jsonID]; ok {
			return id
		}
		sn := byJSONID[jsonID]
		var parent node.ID
		if sn.Parent != nil {
			parent = create(*sn.Parent)
		}
		n := s.Tree.Add(node.CreateInfo{
			Name:      sn.Name,
			Transform: decomposeData(sn.Transform),
			Parent:    parent,
		})
		nodeIDs[jsonID] = n.ID
		return n.ID
	}
	for _, n := range manifest.Nodes {
		create(n.ID)
	}
	if len(manifest.Roots) > 0 {
		s.Root = nodeIDs[manifest.Roots[0]]
	}

	uiRootNode := s.Tree.Add(node.CreateInfo{Name: "ui_root", Parent: s.Root})
	s.UI = UIRoot{Node: uiRootNode.ID, Entities: entity.NewStore()}

	for _, se := range manifest.Entities {
		targetNode, ok := nodeIDs[se.Node]
		if !ok {
			return nil, fmt.Errorf("scene.Load: entity %d references unknown node %d", se.ID, se.Node)
		}
		e := s.Entities.Create(targetNode)
		for _, sc := range se.Components {
			comp, err := buildComponent(s.Tree, targetNode, sc, assets)
			if err != nil {
				return nil, fmt.Errorf("scene.Load: entity %d: %w", se.ID, err)
			}
			if comp != nil {
				e.AddComponent(comp)
			}
		}
	}

	s.Camera = cameraFromJSON(manifest.Camera)
	s.Lights = lightsFromJSON(manifest.Lights)

	return s, nil
}

func buildComponent(tree *node.Tree, targetNode node.ID, sc sceneComponentJSON, assets Assets) (entity.Component, error) {
	switch sc.Type {
	case "static_mesh_renderer":
		return &entity.StaticMeshRenderer{MeshURI: uri.URI(sc.Mesh)}, nil
	case "skinned_mesh_renderer":
		inst, err := instantiateSkeleton(tree, targetNode, uri.URI(sc.Skeleton), assets)
		if err != nil {
			return nil, err
		}
		return &entity.SkinnedMeshRenderer{MeshURI: uri.URI(sc.Mesh), Skeleton: inst}, nil
	case "skeleton_controller":
		inst, err := instantiateSkeleton(tree, targetNode, uri.URI(sc.Skeleton), assets)
		if err != nil {
			return nil, err
		}
		enabled := 0
		if sc.Enabled != nil {
			enabled = *sc.Enabled
		}
		return entity.NewSkeletonController(inst, enabled), nil
	default:
		return nil, nil
	}
}

func instantiateSkeleton(tree *node.Tree, parent node.ID, skelURI uri.URI, assets Assets) (anim.Instance, error) {
	if assets.Skeletons == nil {
		return anim.Instance{}, fmt.Errorf("scene: no skeleton provider configured for %q", skelURI)
	}
	skel, err := assets.Skeletons.Load(skelURI)
	if err != nil {
		return anim.Instance{}, err
	}
	clips := make(map[string]geometry.SkeletalAnimation, len(skel.Animations))
	for _, clipURI := range skel.Animations {
		if assets.Animations == nil {
			continue
		}
		decoded, err := assets.Animations.Load(clipURI)
		if err != nil {
			return anim.Instance{}, err
		}
		clips[clipURI.String()] = decoded
	}
	return anim.Instantiate(tree, parent, skel, clips)
}

// Save serializes s into the Scene JSON layout (§6), the inverse of
// Load. Node and entity ids are the position of each in a stable
// walk from s.Root (node ids) and s.Entities.Active() (entity ids) —
// round tripping a loaded scene through Save then Load reproduces the
// same tree shape, though not necessarily the original manifest's own
// numeric ids.
func Save(s *Scene) ([]byte, error) {
	manifest := sceneManifestJSON{
		AssetType: "scene",
		Name:      "scene",
	}

	nodeJSONID := make(map[node.ID]int)
	var order []node.ID
	var walk func(id node.ID)
	walk = func(id node.ID) {
		n, ok := s.Tree.Get(id)
		if !ok {
			return
		}
		nodeJSONID[id] = len(order)
		order = append(order, id)
		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, rootID := range s.Tree.Roots() {
		if rootID == s.UI.Node {
			continue
		}
		walk(rootID)
	}

	entityNode := make(map[node.ID]int)
	for i, e := range s.Entities.Active() {
		entityNode[e.Node] = i
	}

	for _, id := range order {
		n, _ := s.Tree.Get(id)
		sn := sceneNodeJSON{
			ID:        nodeJSONID[id],
			Name:      n.Name,
			Transform: xform.Mat4ToRowMajor(n.Transform.Matrix()),
		}
		if !n.Parent.IsNone() {
			if pid, ok := nodeJSONID[n.Parent]; ok {
				sn.Parent = &pid
			}
		}
		for _, child := range n.Children {
			if cid, ok := nodeJSONID[child]; ok {
				sn.Children = append(sn.Children, cid)
			}
		}
		if eid, ok := entityNode[id]; ok {
			sn.Entity = &eid
		}
		manifest.Nodes = append(manifest.Nodes, sn)
	}
	if rootID, ok := nodeJSONID[s.Root]; ok {
		manifest.Roots = []int{rootID}
	}

	for i, e := range s.Entities.Active() {
		se := sceneEntityJSON{ID: i, Node: nodeJSONID[e.Node]}
		for _, c := range e.Components {
			switch comp := c.(type) {
			case *entity.StaticMeshRenderer:
				se.Components = append(se.Components, sceneComponentJSON{Type: "static_mesh_renderer", Mesh: comp.MeshURI.String()})
			case *entity.SkinnedMeshRenderer:
				se.Components = append(se.Components, sceneComponentJSON{Type: "skinned_mesh_renderer", Mesh: comp.MeshURI.String()})
			case *entity.SkeletonController:
				enabled := comp.Enabled
				se.Components = append(se.Components, sceneComponentJSON{Type: "skeleton_controller", Enabled: &enabled})
			}
		}
		manifest.Entities = append(manifest.Entities, se)
	}

	manifest.Camera = cameraJSON{
		Name:      s.Camera.Name,
		Transform: xform.Mat4ToRowMajor(s.Camera.Transform.Matrix()),
		Exposure:  s.Camera.Exposure,
		Near:      s.Camera.Plane.Near,
		Far:       s.Camera.Plane.Far,
	}
	if s.Camera.Projection == ProjectionOrthographic {
		manifest.Camera.Type = "orthographic"
		manifest.Camera.HalfExt = s.Camera.HalfExtent
	} else {
		manifest.Camera.Type = "perspective"
		manifest.Camera.Fov = s.Camera.Fov
		manifest.Camera.Aspect = s.Camera.Aspect
	}

	for _, dl := range s.Lights.DirLights {
		forward := dl.Direction
		manifest.Lights.DirLights = append(manifest.Lights.DirLights, dirLightJSON{
			Direction: [4]float32{forward.V[0], forward.V[1], forward.V[2], forward.W},
			RGB: colourJSON{
				Hex:       color.Rgba{R: uint8(dl.RGB[0] * 255), G: uint8(dl.RGB[1] * 255), B: uint8(dl.RGB[2] * 255), A: 255}.Hex(),
				Intensity: dl.Intensity,
			},
		})
	}

	return json.MarshalIndent(manifest, "", "  ")
}

func decomposeData(raw [16]float32) xform.Data {
	pos, orient, scale := xform.Decompose(xform.Mat4FromRowMajor(raw))
	return xform.Data{Position: pos, Orientation: orient, Scale: scale}
}

func cameraFromJSON(c cameraJSON) *Camera {
	cam := NewCamera()
	cam.Name = c.Name
	cam.Transform.Decompose(xform.Mat4FromRowMajor(c.Transform))
	cam.Exposure = c.Exposure
	if c.Type == "orthographic" {
		cam.Projection = ProjectionOrthographic
		cam.HalfExtent = c.HalfExt
	} else {
		cam.Projection = ProjectionPerspective
		if c.Fov != 0 {
			cam.Fov = c.Fov
		}
		if c.Aspect != 0 {
			cam.Aspect = c.Aspect
		}
	}
	if c.Near != 0 {
		cam.Plane.Near = c.Near
	}
	if c.Far != 0 {
		cam.Plane.Far = c.Far
	}
	return cam
}

func lightsFromJSON(l lightsJSON) Lights {
	var out Lights
	for _, dl := range l.DirLights {
		rgba, err := color.ParseHex(dl.RGB.Hex)
		if err != nil {
			rgba = color.White
		}
		out.DirLights = append(out.DirLights, frame.DirLight{
			Direction: mgl32.Quat{W: dl.Direction[3], V: mgl32.Vec3{dl.Direction[0], dl.Direction[1], dl.Direction[2]}},
			RGB:       [3]float32{float32(rgba.R) / 255, float32(rgba.G) / 255, float32(rgba.B) / 255},
			Intensity: dl.RGB.Intensity,
		})
	}
	return out
}
