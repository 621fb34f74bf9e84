// Package scene implements C10 (Scene, entities, components): the
// Scene type owning a node tree, an entity store, a camera and a
// light set, plus the per-frame tick/render walk §4.10 describes.
// Grounded on vala/ecs's World/Query split (a flat entity store
// queried fresh each frame rather than cached component lists) and
// vala/systems/render.go's render-walk shape, generalized from
// per-component-type maps to the heterogeneous entity.Component list
// C10's persisted, authoring-tool-extensible Scene JSON requires.
package scene

import (
	"github.com/kestrel3d/kestrel/internal/entity"
	"github.com/kestrel3d/kestrel/internal/frame"
	"github.com/kestrel3d/kestrel/internal/node"
	"github.com/kestrel3d/kestrel/pkg/xform"
)

// UIRoot is the scene's UI view: its own node (the layout root) and
// its own entity store, ticked and rendered separately from the 3D
// scene so UI draws land in Frame.UI instead of Frame.Scene (§4.10
// step 5; §4.6's separate UI pass).
type UIRoot struct {
	Node     node.ID
	Entities *entity.Store
}

// Scene owns a NodeTree, an EntityStore, a Camera, a Lights struct,
// and a UI root view (§4.10).
type Scene struct {
	Tree      *node.Tree
	Root      node.ID
	Entities  *entity.Store
	Camera    *Camera
	Lights    Lights
	UI        UIRoot
	Providers entity.Providers
}

// New returns an empty scene: a node tree with a single synthetic
// root node, a fresh entity store, a default camera, no lights, and
// an empty UI root parented under its own node.
func New(providers entity.Providers) *Scene {
	tree := node.New()
	root := tree.Add(node.CreateInfo{Name: "scene_root", Transform: xform.DefaultData()})
	uiRoot := tree.Add(node.CreateInfo{Name: "ui_root", Transform: xform.DefaultData()})
	return &Scene{
		Tree:      tree,
		Root:      root.ID,
		Entities:  entity.NewStore(),
		Camera:    NewCamera(),
		Providers: providers,
		UI: UIRoot{
			Node:     uiRoot.ID,
			Entities: entity.NewStore(),
		},
	}
}

// Tick runs the exact 5-step per-frame tick §4.10 specifies.
func (s *Scene) Tick(dt float32) {
	// 1. Collect all active entities into a vector sorted by id.
	active := s.Entities.Active()

	// 2. For each, call each attached component's tick(dt).
	for _, e := range active {
		ctx := entity.TickContext{Tree: s.Tree, Node: e.Node, DT: dt}
		for _, c := range e.Components {
			c.Tick(ctx)
		}
	}

	// 3. Remove all entities flagged destroyed; their nodes are
	// removed from the tree.
	for _, nodeID := range s.Entities.Sweep() {
		s.Tree.Remove(nodeID)
	}

	// 4. If the camera is targeting an entity, copy that entity's
	// node transform into camera.transform.
	if !s.Camera.Target.IsNone() {
		if e, ok := s.Entities.Get(s.Camera.Target); ok {
			if n, ok := s.Tree.Get(e.Node); ok {
				s.Camera.Transform.SetData(n.Transform.Data())
			}
		}
	}

	// 5. Tick the UI root with current input/extent.
	s.TickUI(dt, [2]uint32{})
}

// TickUI ticks every entity attached under the UI root, separately
// from Tick's 3D-scene pass, passing the current framebuffer extent
// down through entity.TickContext.
func (s *Scene) TickUI(dt float32, extent [2]uint32) {
	for _, e := range s.UI.Entities.Active() {
		ctx := entity.TickContext{Tree: s.Tree, Node: e.Node, DT: dt, Extent: extent}
		for _, c := range e.Components {
			c.Tick(ctx)
		}
	}
	for _, nodeID := range s.UI.Entities.Sweep() {
		s.Tree.Remove(nodeID)
	}
}

// Render walks active entities and invokes each component's render,
// separating opaque vs transparent draws by material alpha_mode via
// frame.DrawList.Submit; the UI root renders into a separate UI draw
// list (§4.10's render walk; §4.6's per-pass draw lists).
func (s *Scene) Render(scene, ui *frame.DrawList) {
	for _, e := range s.Entities.Active() {
		ctx := entity.RenderContext{Tree: s.Tree, Node: e.Node, DrawList: scene, Providers: s.Providers}
		for _, c := range e.Components {
			c.Render(ctx)
		}
	}
	for _, e := range s.UI.Entities.Active() {
		ctx := entity.RenderContext{Tree: s.Tree, Node: e.Node, DrawList: ui, Providers: s.Providers}
		for _, c := range e.Components {
			c.Render(ctx)
		}
	}
}

// ViewInputs resolves the scene's active camera into the frame
// graph's ViewInputs (§4.6's per-frame view UBO source).
func (s *Scene) ViewInputs() frame.ViewInputs {
	return frame.ViewInputs{
		ViewProj:  s.Camera.ViewProj(),
		CameraPos: s.Camera.Transform.Position(),
		Exposure:  s.Camera.Exposure,
	}
}
