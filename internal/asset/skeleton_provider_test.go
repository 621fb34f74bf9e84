package asset

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSkeletonProviderLoadsJointHierarchy(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("skeletons/biped.json", `{
		"asset_type": "skeleton",
		"name": "biped",
		"joints": [
			{"name": "hips", "self": 3, "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1], "children": [1]},
			{"name": "spine", "self": 4, "parent": 0, "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,1,0,1]}
		],
		"clips": [{"name": "walk", "animation": "anims/walk.bin"}],
		"animations": ["anims/walk.bin", "anims/idle.bin"]
	}`)

	p := NewSkeletonProvider(ds)
	c := p.NewCache(nil)
	skel, err := c.Load("skeletons/biped.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if skel.Name != "biped" {
		t.Fatalf("Name = %q, want biped", skel.Name)
	}
	if len(skel.Joints) != 2 {
		t.Fatalf("Joints = %d, want 2", len(skel.Joints))
	}
	if skel.Joints[0].Self != 3 || skel.Joints[0].Parent != -1 {
		t.Fatalf("root joint = %+v, want Self=3 Parent=-1", skel.Joints[0])
	}
	if skel.Joints[1].Parent != 0 {
		t.Fatalf("spine joint parent = %d, want 0", skel.Joints[1].Parent)
	}
	if len(skel.Joints[0].Children) != 1 || skel.Joints[0].Children[0] != 1 {
		t.Fatalf("root joint children = %v, want [1]", skel.Joints[0].Children)
	}
	gotPos := skel.Joints[1].Transform.Position
	if gotPos.Sub(mgl32.Vec3{0, 1, 0}).Len() > 1e-4 {
		t.Fatalf("spine joint position = %v, want {0,1,0}", gotPos)
	}
	if len(skel.Clips) != 1 || skel.Clips[0].AnimationURI != "skeletons/anims/walk.bin" {
		t.Fatalf("Clips = %+v", skel.Clips)
	}
	if len(skel.Animations) != 2 || skel.Animations[1] != "skeletons/anims/idle.bin" {
		t.Fatalf("Animations = %v", skel.Animations)
	}
}

func TestSkeletonProviderMissingFilePropagatesNotFound(t *testing.T) {
	p := NewSkeletonProvider(newFakeDataSource())
	c := p.NewCache(nil)
	if _, err := c.Load("skeletons/missing.json"); err == nil {
		t.Fatal("expected an error for a missing skeleton manifest")
	}
}
