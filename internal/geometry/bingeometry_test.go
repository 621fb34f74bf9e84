package geometry

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/pkg/kerr"
)

func sampleGeometry() Geometry {
	return Geometry{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Colors:    []mgl32.Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
		Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UVs:       []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}},
		Indices:   []uint32{0, 1, 2},
	}
}

func TestEncodeDecodeGeometryRoundTrips(t *testing.T) {
	g := sampleGeometry()
	var buf bytes.Buffer
	if err := EncodeGeometry(&buf, g, nil); err != nil {
		t.Fatalf("EncodeGeometry: %v", err)
	}

	got, joints, err := DecodeGeometry(&buf)
	if err != nil {
		t.Fatalf("DecodeGeometry: %v", err)
	}
	if joints != nil {
		t.Fatal("expected nil joints for an unskinned geometry")
	}
	if len(got.Positions) != len(g.Positions) {
		t.Fatalf("Positions length = %d, want %d", len(got.Positions), len(g.Positions))
	}
	for i := range g.Positions {
		if got.Positions[i] != g.Positions[i] {
			t.Fatalf("Positions[%d] = %v, want %v", i, got.Positions[i], g.Positions[i])
		}
	}
	if len(got.Indices) != len(g.Indices) {
		t.Fatalf("Indices length = %d, want %d", len(got.Indices), len(g.Indices))
	}
}

func TestEncodeDecodeGeometryWithJoints(t *testing.T) {
	g := sampleGeometry()
	joints := &Joints{
		JointIndices: [][4]uint32{{0, 1, 0, 0}, {0, 1, 0, 0}, {0, 1, 0, 0}},
		Weights:      []mgl32.Vec4{{0.5, 0.5, 0, 0}, {0.5, 0.5, 0, 0}, {0.5, 0.5, 0, 0}},
	}
	var buf bytes.Buffer
	if err := EncodeGeometry(&buf, g, joints); err != nil {
		t.Fatalf("EncodeGeometry: %v", err)
	}

	_, gotJoints, err := DecodeGeometry(&buf)
	if err != nil {
		t.Fatalf("DecodeGeometry: %v", err)
	}
	if gotJoints == nil {
		t.Fatal("expected non-nil joints for a skinned geometry")
	}
	if len(gotJoints.JointIndices) != 3 || len(gotJoints.Weights) != 3 {
		t.Fatalf("joint/weight counts = %d/%d, want 3/3", len(gotJoints.JointIndices), len(gotJoints.Weights))
	}
	if gotJoints.Weights[0] != joints.Weights[0] {
		t.Fatalf("Weights[0] = %v, want %v", gotJoints.Weights[0], joints.Weights[0])
	}
}

func TestDecodeGeometryDetectsHashMismatch(t *testing.T) {
	g := sampleGeometry()
	var buf bytes.Buffer
	if err := EncodeGeometry(&buf, g, nil); err != nil {
		t.Fatalf("EncodeGeometry: %v", err)
	}

	corrupted := buf.Bytes()
	// Flip a byte inside the first position's x coordinate (just past
	// the 40-byte header) without touching the stored hash.
	corrupted[40] ^= 0xFF

	_, _, err := DecodeGeometry(bytes.NewReader(corrupted))
	if err == nil {
		t.Fatal("expected a hash-mismatch error for corrupted position data")
	}
	if kerr.Of(err) != kerr.CorruptAsset {
		t.Fatalf("error kind = %v, want CorruptAsset", kerr.Of(err))
	}
}

func TestDecodeGeometryPropagatesShortReadAsPlainError(t *testing.T) {
	_, _, err := DecodeGeometry(bytes.NewReader(nil))
	if err == nil {
		t.Fatal("expected an error decoding an empty stream")
	}
	if errors.Is(err, kerr.Sentinel(kerr.CorruptAsset)) {
		t.Fatal("a truncated header should surface as a plain read error, not CorruptAsset")
	}
}
