package anim

import (
	"fmt"

	"github.com/kestrel3d/kestrel/internal/asset"
	"github.com/kestrel3d/kestrel/internal/geometry"
	"github.com/kestrel3d/kestrel/internal/node"
)

// AnimationInstance binds a decoded SkeletalAnimation's samplers to
// the concrete node ids created for one skeleton instance (§4.11 step
// 3): TargetNodes[i] is the node Samplers[i] writes into, replacing
// the source animation's joint-index targeting.
type AnimationInstance struct {
	Name        string
	Samplers    []geometry.Sampler
	TargetNodes []node.ID
	Duration    float32
}

// Instance is a skeleton bound onto a concrete node tree: one new
// node per joint (Joints, indexed by joint index) plus every
// instantiated animation.
type Instance struct {
	Joints     []node.ID
	Animations []AnimationInstance
}

// Instantiate creates one new node per joint of skeleton under
// parent, preserving each joint's local transform and parent/child
// shape (a joint with no parent becomes a direct child of parent
// itself), then instantiates every already-decoded animation in
// animations (keyed by its URI string) against the new nodes (§4.11
// steps 1-3). Every joint is first created as a child of parent, then
// reparented in a second pass — this avoids assuming a skeleton's
// joints are listed in parent-before-child order, which the persisted
// Skeleton JSON schema never guarantees.
func Instantiate(tree *node.Tree, parent node.ID, skeleton asset.Skeleton, animations map[string]geometry.SkeletalAnimation) (Instance, error) {
	joints := make([]node.ID, len(skeleton.Joints))
	for i, j := range skeleton.Joints {
		n := tree.Add(node.CreateInfo{Name: j.Name, Transform: j.Transform, Parent: parent})
		joints[i] = n.ID
	}
	for i, j := range skeleton.Joints {
		if j.Parent < 0 {
			continue
		}
		if j.Parent >= len(joints) {
			return Instance{}, fmt.Errorf("anim: joint %d has out-of-range parent %d", i, j.Parent)
		}
		if err := tree.Reparent(joints[i], joints[j.Parent]); err != nil {
			return Instance{}, fmt.Errorf("anim: joint %d: %w", i, err)
		}
	}

	var instances []AnimationInstance
	for _, animURI := range skeleton.Animations {
		decoded, ok := animations[animURI.String()]
		if !ok {
			continue
		}
		targetNodes := make([]node.ID, len(decoded.Samplers))
		for i, jointIdx := range decoded.TargetJoints {
			if i >= len(targetNodes) {
				break
			}
			if int(jointIdx) >= len(joints) {
				return Instance{}, fmt.Errorf("anim: animation %q targets joint %d beyond skeleton's %d joints", decoded.Name, jointIdx, len(joints))
			}
			targetNodes[i] = joints[jointIdx]
		}
		instances = append(instances, AnimationInstance{
			Name:        decoded.Name,
			Samplers:    decoded.Samplers,
			TargetNodes: targetNodes,
			Duration:    duration(decoded.Samplers),
		})
	}

	return Instance{Joints: joints, Animations: instances}, nil
}

func duration(samplers []geometry.Sampler) float32 {
	var d float32
	for _, s := range samplers {
		if n := len(s.Keyframes); n > 0 && s.Keyframes[n-1].Time > d {
			d = s.Keyframes[n-1].Time
		}
	}
	return d
}

// Evaluate samples every sampler of anim at t and writes the result
// into its target node's local transform — the SkeletonController
// tick step (§4.10): "evaluate all samplers of the enabled animation
// at elapsed and write results into the target nodes".
func Evaluate(tree *node.Tree, anim AnimationInstance, t float32) {
	for i, sampler := range anim.Samplers {
		if i >= len(anim.TargetNodes) {
			break
		}
		n, ok := tree.Get(anim.TargetNodes[i])
		if !ok {
			continue
		}
		switch sampler.Type {
		case geometry.SamplerTranslation:
			n.Transform.SetPosition(samplerInterpolatorVec3(sampler).Sample(t))
		case geometry.SamplerRotation:
			n.Transform.SetOrientation(samplerInterpolatorQuat(sampler).Sample(t))
		case geometry.SamplerScale:
			n.Transform.SetScale(samplerInterpolatorVec3(sampler).Sample(t))
		}
	}
}
