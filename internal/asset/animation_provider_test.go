package asset

import (
	"bytes"
	"testing"

	"github.com/kestrel3d/kestrel/internal/geometry"
)

func TestAnimationProviderDecodesBinSkeletalAnimation(t *testing.T) {
	anim := geometry.SkeletalAnimation{
		Name: "walk",
		Samplers: []geometry.Sampler{
			{
				Type:          geometry.SamplerTranslation,
				Interpolation: geometry.InterpLinear,
				Keyframes: []geometry.Keyframe{
					{Time: 0, Value: [4]float32{0, 0, 0, 0}},
					{Time: 1, Value: [4]float32{1, 0, 0, 0}},
				},
			},
		},
		TargetJoints: []uint64{2},
	}
	var buf bytes.Buffer
	if err := geometry.EncodeSkeletalAnimation(&buf, anim); err != nil {
		t.Fatalf("EncodeSkeletalAnimation: %v", err)
	}

	ds := newFakeDataSource()
	ds.files["anims/walk.bin"] = buf.Bytes()

	p := NewAnimationProvider(ds)
	c := p.NewCache(nil)
	got, err := c.Load("anims/walk.bin")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "walk" {
		t.Fatalf("Name = %q, want walk", got.Name)
	}
	if len(got.Samplers) != 1 || got.Samplers[0].Type != geometry.SamplerTranslation {
		t.Fatalf("Samplers = %+v", got.Samplers)
	}
	if len(got.TargetJoints) != 1 || got.TargetJoints[0] != 2 {
		t.Fatalf("TargetJoints = %v, want [2]", got.TargetJoints)
	}
}

func TestAnimationProviderMissingFilePropagatesNotFound(t *testing.T) {
	p := NewAnimationProvider(newFakeDataSource())
	c := p.NewCache(nil)
	if _, err := c.Load("anims/missing.bin"); err == nil {
		t.Fatal("expected an error for a missing animation file")
	}
}
