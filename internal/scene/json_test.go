package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/asset"
	"github.com/kestrel3d/kestrel/internal/entity"
	"github.com/kestrel3d/kestrel/internal/node"
	"github.com/kestrel3d/kestrel/pkg/uri"
	"github.com/kestrel3d/kestrel/pkg/xform"
)

type fakeSceneSource struct {
	files map[uri.URI][]byte
}

func newFakeSceneSource() *fakeSceneSource { return &fakeSceneSource{files: make(map[uri.URI][]byte)} }

func (d *fakeSceneSource) Read(u uri.URI) ([]byte, error) {
	b, ok := d.files[u]
	if !ok {
		return nil, errors.New("not found: " + u.String())
	}
	return b, nil
}
func (d *fakeSceneSource) ReadText(u uri.URI) (string, error) {
	b, err := d.Read(u)
	return string(b), err
}
func (d *fakeSceneSource) ReadJSON(u uri.URI, out any) error {
	return errors.New("ReadJSON not implemented by fakeSceneSource")
}
func (d *fakeSceneSource) MountPoint() string                            { return "/fake" }
func (d *fakeSceneSource) TrimToURI(absolutePath string) (uri.URI, bool) { return "", false }

func TestSaveThenLoadRoundTripsNodesAndEntities(t *testing.T) {
	s := New(noopProviders{})
	n := s.Tree.Add(node.CreateInfo{
		Name:   "box",
		Parent: s.Root,
		Transform: xform.Data{
			Position:    mgl32.Vec3{1, 2, 3},
			Orientation: mgl32.QuatIdent(),
			Scale:       mgl32.Vec3{1, 1, 1},
		},
	})
	e := s.Entities.Create(n.ID)
	e.AddComponent(&entity.StaticMeshRenderer{MeshURI: "meshes/box.json"})

	raw, err := Save(s)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	source := newFakeSceneSource()
	source.files["scenes/test.json"] = raw

	loaded, err := Load(source, Assets{}, noopProviders{}, "scenes/test.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Entities.Len() != 1 {
		t.Fatalf("len(entities) = %d, want 1", loaded.Entities.Len())
	}
	active := loaded.Entities.Active()
	loadedNode, ok := loaded.Tree.Get(active[0].Node)
	if !ok {
		t.Fatal("expected loaded entity's node to exist")
	}
	pos := loadedNode.Transform.Position()
	if pos.X() != 1 || pos.Y() != 2 || pos.Z() != 3 {
		t.Fatalf("round-tripped position = %v, want (1,2,3)", pos)
	}
	if len(active[0].Components) != 1 {
		t.Fatalf("len(components) = %d, want 1", len(active[0].Components))
	}
	if _, ok := active[0].Components[0].(*entity.StaticMeshRenderer); !ok {
		t.Fatalf("component = %T, want *entity.StaticMeshRenderer", active[0].Components[0])
	}
}

func TestLoadRejectsWrongAssetType(t *testing.T) {
	source := newFakeSceneSource()
	source.files["scenes/bad.json"] = []byte(`{"asset_type": "mesh"}`)
	if _, err := Load(source, Assets{}, noopProviders{}, "scenes/bad.json"); err == nil {
		t.Fatal("expected an error loading a non-scene manifest")
	}
}

// fakeSkeletonSource serves a hand-written Skeleton JSON manifest
// (mirroring internal/asset's skeletonManifest schema) so
// Load's skinned_mesh_renderer path can resolve a skeleton without a
// real glTF-imported asset on disk.
type fakeSkeletonSource struct{}

func (fakeSkeletonSource) Read(u uri.URI) ([]byte, error) {
	return []byte(`{
		"asset_type": "skeleton",
		"name": "rig",
		"joints": [{"name": "root", "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1], "self": 0}]
	}`), nil
}
func (fakeSkeletonSource) ReadText(u uri.URI) (string, error) { return "", nil }
func (fakeSkeletonSource) ReadJSON(u uri.URI, out any) error  { return nil }
func (fakeSkeletonSource) MountPoint() string                 { return "/fake" }
func (fakeSkeletonSource) TrimToURI(p string) (uri.URI, bool) { return "", false }

func TestLoadSkinnedMeshRendererInstantiatesSkeletonOntoTree(t *testing.T) {
	skeletons := asset.NewSkeletonProvider(fakeSkeletonSource{}).NewCache(nil)

	source := newFakeSceneSource()
	manifest := `{
		"asset_type": "scene",
		"name": "test",
		"nodes": [{"id": 0, "name": "char", "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1]}],
		"roots": [0],
		"entities": [{"id": 0, "node": 0, "components": [{"type": "skinned_mesh_renderer", "mesh": "meshes/char.json", "skeleton": "skel/rig.json"}]}],
		"camera": {"transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1]}
	}`
	source.files["scenes/char.json"] = []byte(manifest)

	loaded, err := Load(source, Assets{Skeletons: skeletons}, noopProviders{}, "scenes/char.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	active := loaded.Entities.Active()
	if len(active) != 1 {
		t.Fatalf("len(entities) = %d, want 1", len(active))
	}
	renderer, ok := active[0].Components[0].(*entity.SkinnedMeshRenderer)
	if !ok {
		t.Fatalf("component = %T, want *entity.SkinnedMeshRenderer", active[0].Components[0])
	}
	if len(renderer.Skeleton.Joints) != 1 {
		t.Fatalf("len(skeleton joints) = %d, want 1 (one node created per joint)", len(renderer.Skeleton.Joints))
	}
}
