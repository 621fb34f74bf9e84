package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/asset"
	"github.com/kestrel3d/kestrel/internal/entity"
	"github.com/kestrel3d/kestrel/internal/frame"
	"github.com/kestrel3d/kestrel/internal/node"
	"github.com/kestrel3d/kestrel/pkg/uri"
)

type noopProviders struct{}

func (noopProviders) UploadStaticMesh(u uri.URI) (asset.StaticMesh, error) { return asset.StaticMesh{}, nil }
func (noopProviders) UploadSkinnedMesh(u uri.URI) (asset.SkinnedMesh, error) {
	return asset.SkinnedMesh{}, nil
}
func (noopProviders) Material(u uri.URI) (asset.Material, error) { return asset.Material{}, nil }

type destroyingComponent struct {
	store  *entity.Store
	target entity.ID
	ticks  int
}

func (c *destroyingComponent) Tick(ctx entity.TickContext) {
	c.ticks++
	if c.ticks == 2 {
		c.store.Destroy(c.target)
	}
}
func (c *destroyingComponent) Render(ctx entity.RenderContext) {}

func TestTickCollectsActiveEntitiesInIDOrder(t *testing.T) {
	s := New(noopProviders{})

	var order []node.ID
	tracker := func() *trackingComponent { return &trackingComponent{log: &order} }

	n1 := s.Tree.Add(node.CreateInfo{Parent: s.Root})
	n2 := s.Tree.Add(node.CreateInfo{Parent: s.Root})
	e1 := s.Entities.Create(n1.ID)
	e1.AddComponent(tracker())
	e2 := s.Entities.Create(n2.ID)
	e2.AddComponent(tracker())

	s.Tick(0.016)

	if len(order) != 2 || order[0] != n1.ID || order[1] != n2.ID {
		t.Fatalf("tick order = %v, want [%v %v]", order, n1.ID, n2.ID)
	}
}

type trackingComponent struct {
	log *[]node.ID
}

func (c *trackingComponent) Tick(ctx entity.TickContext) {
	*c.log = append(*c.log, ctx.Node)
}
func (c *trackingComponent) Render(ctx entity.RenderContext) {}

func TestTickRemovesDestroyedEntitiesAndTheirNodes(t *testing.T) {
	s := New(noopProviders{})
	n := s.Tree.Add(node.CreateInfo{Parent: s.Root})
	e := s.Entities.Create(n.ID)
	comp := &destroyingComponent{store: s.Entities, target: e.ID}
	e.AddComponent(comp)

	s.Tick(0.016)
	s.Tick(0.016)

	if _, ok := s.Entities.Get(e.ID); ok {
		t.Fatal("expected entity to be removed after being destroyed")
	}
	if _, ok := s.Tree.Get(n.ID); ok {
		t.Fatal("expected entity's node to be removed from the tree")
	}
}

func TestTickCopiesTargetEntityTransformIntoCamera(t *testing.T) {
	s := New(noopProviders{})
	n := s.Tree.Add(node.CreateInfo{Parent: s.Root})
	e := s.Entities.Create(n.ID)
	s.Camera.Target = e.ID

	nn, _ := s.Tree.Get(n.ID)
	nn.Transform.SetPosition(mgl32.Vec3{3, 0, 0})

	s.Tick(0.016)

	if got := s.Camera.Transform.Position(); got.X() != 3 {
		t.Fatalf("camera position = %v, want x=3 (copied from target entity)", got)
	}
}

func TestRenderSeparatesSceneAndUIDrawLists(t *testing.T) {
	s := New(noopProviders{})
	n := s.Tree.Add(node.CreateInfo{Parent: s.Root})
	e := s.Entities.Create(n.ID)
	e.AddComponent(&entity.StaticMeshRenderer{MeshURI: "meshes/box.json"})

	uiNode := s.Tree.Add(node.CreateInfo{Parent: s.UI.Node})
	ui := s.UI.Entities.Create(uiNode.ID)
	ui.AddComponent(&entity.StaticMeshRenderer{MeshURI: "ui/panel.json"})

	var sceneList, uiList frame.DrawList
	s.Render(&sceneList, &uiList)

	if len(sceneList.Opaque) != 0 {
		t.Fatalf("len(scene opaque) = %d; noopProviders returns an empty StaticMesh so no draws should land", len(sceneList.Opaque))
	}
	_ = uiList
}

func TestUnknownProvidersErrorsAreSwallowedByRender(t *testing.T) {
	s := New(failingProviders{})
	n := s.Tree.Add(node.CreateInfo{Parent: s.Root})
	e := s.Entities.Create(n.ID)
	e.AddComponent(&entity.StaticMeshRenderer{MeshURI: "meshes/missing.json"})

	var sceneList, uiList frame.DrawList
	s.Render(&sceneList, &uiList)
	if len(sceneList.Opaque) != 0 {
		t.Fatal("expected a failed mesh upload to produce no draw items")
	}
}

type failingProviders struct{}

func (failingProviders) UploadStaticMesh(u uri.URI) (asset.StaticMesh, error) {
	return asset.StaticMesh{}, errors.New("not found")
}
func (failingProviders) UploadSkinnedMesh(u uri.URI) (asset.SkinnedMesh, error) {
	return asset.SkinnedMesh{}, errors.New("not found")
}
func (failingProviders) Material(u uri.URI) (asset.Material, error) {
	return asset.Material{}, errors.New("not found")
}
