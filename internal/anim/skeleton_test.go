package anim

import (
	"testing"

	"github.com/kestrel3d/kestrel/internal/asset"
	"github.com/kestrel3d/kestrel/internal/geometry"
	"github.com/kestrel3d/kestrel/internal/node"
	"github.com/kestrel3d/kestrel/pkg/uri"
	"github.com/kestrel3d/kestrel/pkg/xform"
)

func chainSkeleton() asset.Skeleton {
	return asset.Skeleton{
		Name: "chain",
		Joints: []asset.SkeletonJoint{
			{Name: "root", Transform: xform.DefaultData(), Self: 0, Parent: -1, Children: []int{1}},
			{Name: "mid", Transform: xform.DefaultData(), Self: 1, Parent: 0, Children: []int{2}},
			{Name: "tip", Transform: xform.DefaultData(), Self: 2, Parent: 1},
		},
	}
}

func TestInstantiateCreatesOneNodePerJointAndPreservesParentChain(t *testing.T) {
	tree := node.New()
	rootNode := tree.Add(node.CreateInfo{Name: "model_root"})

	inst, err := Instantiate(tree, rootNode.ID, chainSkeleton(), nil)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if len(inst.Joints) != 3 {
		t.Fatalf("len(joints) = %d, want 3", len(inst.Joints))
	}

	rootJointNode, ok := tree.Get(inst.Joints[0])
	if !ok || rootJointNode.Parent != rootNode.ID {
		t.Fatalf("joint 0 parent = %v, want model root %v", rootJointNode.Parent, rootNode.ID)
	}
	midNode, ok := tree.Get(inst.Joints[1])
	if !ok || midNode.Parent != inst.Joints[0] {
		t.Fatalf("joint 1 parent = %v, want joint 0 %v", midNode.Parent, inst.Joints[0])
	}
	tipNode, ok := tree.Get(inst.Joints[2])
	if !ok || tipNode.Parent != inst.Joints[1] {
		t.Fatalf("joint 2 parent = %v, want joint 1 %v", tipNode.Parent, inst.Joints[1])
	}
}

func TestInstantiateBuildsAnimationInstanceTargetingFreshNodes(t *testing.T) {
	tree := node.New()
	rootNode := tree.Add(node.CreateInfo{Name: "model_root"})

	skel := chainSkeleton()
	skel.Animations = []uri.URI{"anims/move.bin"}

	decoded := geometry.SkeletalAnimation{
		Name: "move",
		Samplers: []geometry.Sampler{
			{
				Type:          geometry.SamplerTranslation,
				Interpolation: geometry.InterpLinear,
				Keyframes: []geometry.Keyframe{
					{Time: 0, Value: [4]float32{0, 0, 0, 0}},
					{Time: 1, Value: [4]float32{2, 0, 0, 0}},
				},
			},
		},
		TargetJoints: []uint64{2},
	}

	inst, err := Instantiate(tree, rootNode.ID, skel, map[string]geometry.SkeletalAnimation{
		"anims/move.bin": decoded,
	})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if len(inst.Animations) != 1 {
		t.Fatalf("len(animations) = %d, want 1", len(inst.Animations))
	}
	animInst := inst.Animations[0]
	if len(animInst.TargetNodes) != 1 || animInst.TargetNodes[0] != inst.Joints[2] {
		t.Fatalf("target nodes = %v, want [%v]", animInst.TargetNodes, inst.Joints[2])
	}
	if animInst.Duration != 1 {
		t.Fatalf("duration = %v, want 1", animInst.Duration)
	}

	Evaluate(tree, animInst, 0.5)
	tipNode, _ := tree.Get(inst.Joints[2])
	pos := tipNode.Transform.Position()
	if pos.X() != 1 {
		t.Fatalf("tip position after Evaluate(0.5) = %v, want x=1", pos)
	}
}

func TestInstantiateRejectsOutOfRangeParent(t *testing.T) {
	tree := node.New()
	rootNode := tree.Add(node.CreateInfo{Name: "model_root"})

	skel := asset.Skeleton{
		Joints: []asset.SkeletonJoint{
			{Name: "only", Transform: xform.DefaultData(), Self: 0, Parent: 5},
		},
	}
	if _, err := Instantiate(tree, rootNode.ID, skel, nil); err == nil {
		t.Fatal("expected an error for an out-of-range joint parent")
	}
}
