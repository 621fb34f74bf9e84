package geometry

import (
	"bytes"
	"testing"

	"github.com/kestrel3d/kestrel/pkg/kerr"
)

func sampleAnimation() SkeletalAnimation {
	return SkeletalAnimation{
		Name: "walk",
		Samplers: []Sampler{
			{
				Type:          SamplerRotation,
				Interpolation: InterpLinear,
				Keyframes: []Keyframe{
					{Time: 0, Value: [4]float32{0, 0, 0, 1}},
					{Time: 0.5, Value: [4]float32{0, 0.707, 0, 0.707}},
				},
			},
			{
				Type:          SamplerTranslation,
				Interpolation: InterpStep,
				Keyframes: []Keyframe{
					{Time: 0, Value: [4]float32{0, 0, 0}},
					{Time: 1, Value: [4]float32{1, 0, 0}},
				},
			},
		},
		TargetJoints: []uint64{2, 5},
	}
}

func TestEncodeDecodeSkeletalAnimationRoundTrips(t *testing.T) {
	a := sampleAnimation()
	var buf bytes.Buffer
	if err := EncodeSkeletalAnimation(&buf, a); err != nil {
		t.Fatalf("EncodeSkeletalAnimation: %v", err)
	}

	got, err := DecodeSkeletalAnimation(&buf)
	if err != nil {
		t.Fatalf("DecodeSkeletalAnimation: %v", err)
	}
	if got.Name != "walk" {
		t.Fatalf("Name = %q, want walk", got.Name)
	}
	if len(got.Samplers) != 2 {
		t.Fatalf("len(Samplers) = %d, want 2", len(got.Samplers))
	}
	if got.Samplers[0].Type != SamplerRotation || len(got.Samplers[0].Keyframes) != 2 {
		t.Fatalf("Samplers[0] = %+v", got.Samplers[0])
	}
	if got.Samplers[0].Keyframes[1].Value[3] != 0.707 {
		t.Fatalf("rotation keyframe w = %v, want 0.707", got.Samplers[0].Keyframes[1].Value[3])
	}
	// A translation sampler only has 3 meaningful components; the 4th
	// must round-trip as its zero value, not leftover garbage.
	if got.Samplers[1].Keyframes[1].Value[3] != 0 {
		t.Fatalf("translation keyframe w = %v, want 0", got.Samplers[1].Keyframes[1].Value[3])
	}
	if len(got.TargetJoints) != 2 || got.TargetJoints[0] != 2 || got.TargetJoints[1] != 5 {
		t.Fatalf("TargetJoints = %v, want [2 5]", got.TargetJoints)
	}
}

func TestDecodeSkeletalAnimationDetectsHashMismatch(t *testing.T) {
	a := sampleAnimation()
	var buf bytes.Buffer
	if err := EncodeSkeletalAnimation(&buf, a); err != nil {
		t.Fatalf("EncodeSkeletalAnimation: %v", err)
	}

	corrupted := buf.Bytes()
	// The name bytes are the last NameLength bytes of the stream.
	corrupted[len(corrupted)-1] ^= 0xFF

	if _, err := DecodeSkeletalAnimation(bytes.NewReader(corrupted)); err == nil {
		t.Fatal("expected a hash-mismatch error for a corrupted name")
	} else if kerr.Of(err) != kerr.CorruptAsset {
		t.Fatalf("error kind = %v, want CorruptAsset", kerr.Of(err))
	}
}

func TestEncodeDecodeEmptyAnimation(t *testing.T) {
	a := SkeletalAnimation{Name: ""}
	var buf bytes.Buffer
	if err := EncodeSkeletalAnimation(&buf, a); err != nil {
		t.Fatalf("EncodeSkeletalAnimation: %v", err)
	}
	got, err := DecodeSkeletalAnimation(&buf)
	if err != nil {
		t.Fatalf("DecodeSkeletalAnimation: %v", err)
	}
	if len(got.Samplers) != 0 || len(got.TargetJoints) != 0 || got.Name != "" {
		t.Fatalf("got = %+v, want zero-valued empty animation", got)
	}
}
