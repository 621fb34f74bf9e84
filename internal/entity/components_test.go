package entity

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/anim"
	"github.com/kestrel3d/kestrel/internal/asset"
	"github.com/kestrel3d/kestrel/internal/frame"
	"github.com/kestrel3d/kestrel/internal/geometry"
	"github.com/kestrel3d/kestrel/internal/node"
	"github.com/kestrel3d/kestrel/pkg/uri"
	"github.com/kestrel3d/kestrel/pkg/xform"
)

type fakeProviders struct {
	static  asset.StaticMesh
	skinned asset.SkinnedMesh
	mat     asset.Material
	fail    bool
}

func (p fakeProviders) UploadStaticMesh(u uri.URI) (asset.StaticMesh, error) {
	if p.fail {
		return asset.StaticMesh{}, errors.New("upload failed")
	}
	return p.static, nil
}

func (p fakeProviders) UploadSkinnedMesh(u uri.URI) (asset.SkinnedMesh, error) {
	if p.fail {
		return asset.SkinnedMesh{}, errors.New("upload failed")
	}
	return p.skinned, nil
}

func (p fakeProviders) Material(u uri.URI) (asset.Material, error) {
	if p.fail {
		return asset.Material{}, errors.New("material not found")
	}
	return p.mat, nil
}

func TestStaticMeshRendererSubmitsOneDrawItemPerPrimitive(t *testing.T) {
	tree := node.New()
	n := tree.Add(node.CreateInfo{Transform: xform.DefaultData()})

	providers := fakeProviders{
		static: asset.StaticMesh{Primitives: []asset.MeshPrimitive{{}, {}}},
		mat:    asset.Material{Kind: asset.MaterialLit, AlphaMode: asset.AlphaOpaque},
	}

	r := &StaticMeshRenderer{MeshURI: "meshes/box.json"}
	var list frame.DrawList
	r.Render(RenderContext{Tree: tree, Node: n.ID, DrawList: &list, Providers: providers})

	if len(list.Opaque) != 2 {
		t.Fatalf("len(opaque) = %d, want 2", len(list.Opaque))
	}
}

func TestStaticMeshRendererSkipsOnUploadFailure(t *testing.T) {
	tree := node.New()
	n := tree.Add(node.CreateInfo{})
	r := &StaticMeshRenderer{MeshURI: "meshes/missing.json"}
	var list frame.DrawList
	r.Render(RenderContext{Tree: tree, Node: n.ID, DrawList: &list, Providers: fakeProviders{fail: true}})
	if len(list.Opaque) != 0 || len(list.Transparent) != 0 {
		t.Fatalf("expected no draws on upload failure, got opaque=%d transparent=%d", len(list.Opaque), len(list.Transparent))
	}
}

func TestSkinnedMeshRendererComputesJointMatricesFromTree(t *testing.T) {
	tree := node.New()
	root := tree.Add(node.CreateInfo{Transform: xform.DefaultData()})
	joint := tree.Add(node.CreateInfo{
		Transform: xform.Data{Position: mgl32.Vec3{1, 0, 0}, Orientation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}},
		Parent:    root.ID,
	})

	providers := fakeProviders{
		skinned: asset.SkinnedMesh{
			Primitives:          []asset.MeshPrimitive{{}},
			InverseBindMatrices: []mgl32.Mat4{mgl32.Ident4()},
		},
		mat: asset.Material{Kind: asset.MaterialSkinned},
	}

	r := &SkinnedMeshRenderer{
		MeshURI:  "meshes/skinned.json",
		Skeleton: anim.Instance{Joints: []node.ID{joint.ID}},
	}
	var list frame.DrawList
	r.Render(RenderContext{Tree: tree, Node: root.ID, DrawList: &list, Providers: providers})

	if len(list.Opaque) != 1 {
		t.Fatalf("len(opaque) = %d, want 1", len(list.Opaque))
	}
	joints := list.Opaque[0].JointMatrices
	if len(joints) != 1 {
		t.Fatalf("len(joint matrices) = %d, want 1", len(joints))
	}
	pos := joints[0].Col(3).Vec3()
	if pos.X() != 1 {
		t.Fatalf("joint matrix translation = %v, want x=1", pos)
	}
}

func TestSkeletonControllerAdvancesAndWrapsElapsed(t *testing.T) {
	tree := node.New()
	target := tree.Add(node.CreateInfo{Transform: xform.DefaultData()})

	samplers := []geometry.Sampler{
		{
			Type:          geometry.SamplerTranslation,
			Interpolation: geometry.InterpLinear,
			Keyframes: []geometry.Keyframe{
				{Time: 0, Value: [4]float32{0, 0, 0, 0}},
				{Time: 1, Value: [4]float32{2, 0, 0, 0}},
			},
		},
	}
	inst := anim.Instance{
		Animations: []anim.AnimationInstance{
			{Samplers: samplers, TargetNodes: []node.ID{target.ID}, Duration: 1},
		},
	}

	c := NewSkeletonController(inst, 0)
	c.Tick(TickContext{Tree: tree, DT: 0.5})
	n, _ := tree.Get(target.ID)
	if x := n.Transform.Position().X(); x != 1 {
		t.Fatalf("position.X after 0.5s = %v, want 1", x)
	}

	c.Tick(TickContext{Tree: tree, DT: 0.75})
	n, _ = tree.Get(target.ID)
	if x := n.Transform.Position().X(); x < 0 || x > 2 {
		t.Fatalf("position.X after wrap = %v, want in [0,2] (elapsed wrapped modulo duration)", x)
	}
}

func TestSkeletonControllerDisabledIndexIsNoop(t *testing.T) {
	tree := node.New()
	target := tree.Add(node.CreateInfo{Transform: xform.DefaultData()})
	c := NewSkeletonController(anim.Instance{}, -1)
	c.Tick(TickContext{Tree: tree, Node: target.ID, DT: 1})
}
