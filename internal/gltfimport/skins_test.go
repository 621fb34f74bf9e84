package gltfimport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/kestrel3d/kestrel/internal/geometry"
)

// buildSkinnedAnimDoc builds the S5 scenario: one skin with 3 joints in
// a parent chain (0 -> 1 -> 2) and one translation animation on joint
// 2, via modeler.WriteAccessor the way gltfwriter.go's
// addAnimationKeyframe builds sampler accessors.
func buildSkinnedAnimDoc(t *testing.T) *gltf.Document {
	t.Helper()
	doc := &gltf.Document{
		Nodes: []*gltf.Node{
			{Name: "root", Children: []uint32{1}},
			{Name: "mid", Children: []uint32{2}},
			{Name: "tip"},
		},
		Skins: []*gltf.Skin{
			{Name: "skel", Joints: []uint32{0, 1, 2}},
		},
	}

	timeAccessor := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 1})
	valueAccessor := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 0, 0, 1, 0, 0})
	doc.Accessors[valueAccessor].Type = gltf.AccessorVec3

	doc.Animations = []*gltf.Animation{
		{
			Name: "move",
			Samplers: []*gltf.AnimationSampler{
				{Input: timeAccessor, Output: valueAccessor, Interpolation: gltf.InterpolationLinear},
			},
			Channels: []*gltf.Channel{
				{
					Sampler: gltf.Index(uint32(0)),
					Target: gltf.ChannelTarget{
						Node: gltf.Index(uint32(2)),
						Path: gltf.TRSTranslation,
					},
				},
			},
		},
	}
	return doc
}

func newTestImporter(t *testing.T) (*Importer, string) {
	t.Helper()
	dir := t.TempDir()
	imp := New(Options{DestDir: dir, SourceDir: dir})
	return imp, dir
}

func TestImportSkinRenumbersJointsAndEmitsOneAnimation(t *testing.T) {
	doc := buildSkinnedAnimDoc(t)
	imp, dir := newTestImporter(t)

	result, err := imp.importSkin(doc, 0)
	if err != nil {
		t.Fatalf("importSkin: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, result.SkeletonURI.String()))
	if err != nil {
		t.Fatalf("read skeleton manifest: %v", err)
	}
	var manifest skeletonManifestJSON
	if err := json.Unmarshal(raw, &manifest); err != nil {
		t.Fatalf("unmarshal skeleton manifest: %v", err)
	}

	if manifest.AssetType != "skeleton" {
		t.Fatalf("asset_type = %q, want skeleton", manifest.AssetType)
	}
	if len(manifest.Joints) != 3 {
		t.Fatalf("len(joints) = %d, want 3", len(manifest.Joints))
	}
	if manifest.Joints[0].Parent != nil {
		t.Fatalf("joint 0 parent = %v, want nil (root)", manifest.Joints[0].Parent)
	}
	if manifest.Joints[1].Parent == nil || *manifest.Joints[1].Parent != 0 {
		t.Fatalf("joint 1 parent = %v, want 0", manifest.Joints[1].Parent)
	}
	if manifest.Joints[2].Parent == nil || *manifest.Joints[2].Parent != 1 {
		t.Fatalf("joint 2 parent = %v, want 1", manifest.Joints[2].Parent)
	}
	if manifest.Joints[0].Self != 0 || manifest.Joints[1].Self != 1 || manifest.Joints[2].Self != 2 {
		t.Fatalf("self indices = %+v, want 0,1,2", manifest.Joints)
	}
	if len(manifest.Joints[0].Children) != 1 || manifest.Joints[0].Children[0] != 1 {
		t.Fatalf("joint 0 children = %v, want [1]", manifest.Joints[0].Children)
	}

	if len(manifest.Animations) != 1 {
		t.Fatalf("len(animations) = %d, want 1", len(manifest.Animations))
	}
	if len(manifest.Clips) != 1 || manifest.Clips[0].Name != "move" {
		t.Fatalf("clips = %+v, want one clip named move", manifest.Clips)
	}

	animRaw, err := os.ReadFile(filepath.Join(dir, manifest.Animations[0]))
	if err != nil {
		t.Fatalf("read animation file: %v", err)
	}
	anim, err := geometry.DecodeSkeletalAnimation(bytes.NewReader(animRaw))
	if err != nil {
		t.Fatalf("DecodeSkeletalAnimation: %v", err)
	}
	if len(anim.Samplers) != 1 {
		t.Fatalf("len(samplers) = %d, want 1", len(anim.Samplers))
	}
	if anim.Samplers[0].Type != geometry.SamplerTranslation {
		t.Fatalf("sampler type = %v, want SamplerTranslation", anim.Samplers[0].Type)
	}
	if len(anim.TargetJoints) != 1 || anim.TargetJoints[0] != 2 {
		t.Fatalf("target joints = %v, want [2]", anim.TargetJoints)
	}
	if len(anim.Samplers[0].Keyframes) != 2 {
		t.Fatalf("len(keyframes) = %d, want 2", len(anim.Samplers[0].Keyframes))
	}
	if anim.Samplers[0].Keyframes[1].Value[0] != 1 {
		t.Fatalf("keyframe 1 x = %v, want 1", anim.Samplers[0].Keyframes[1].Value[0])
	}

	if len(result.InverseBind) != 3 {
		t.Fatalf("len(inverse bind) = %d, want 3 (defaulted identities)", len(result.InverseBind))
	}
}

func TestImportSkinCachesBySkinIndex(t *testing.T) {
	doc := buildSkinnedAnimDoc(t)
	imp, _ := newTestImporter(t)

	first, err := imp.importSkin(doc, 0)
	if err != nil {
		t.Fatalf("importSkin: %v", err)
	}
	second, err := imp.importSkin(doc, 0)
	if err != nil {
		t.Fatalf("importSkin (cached): %v", err)
	}
	if first.SkeletonURI != second.SkeletonURI {
		t.Fatalf("expected cached skeleton URI to match: %v != %v", first.SkeletonURI, second.SkeletonURI)
	}
}
