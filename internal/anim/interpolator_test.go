package anim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/geometry"
)

func vec3Interpolator(keyframes []geometry.Keyframe, interp geometry.Interpolation) Interpolator[mgl32.Vec3] {
	return Interpolator[mgl32.Vec3]{Keyframes: keyframes, Interpolation: interp, Decode: DecodeVec3, Lerp: LerpVec3}
}

func TestSampleEmptyReturnsZero(t *testing.T) {
	ip := vec3Interpolator(nil, geometry.InterpLinear)
	if got := ip.Sample(0); got != (mgl32.Vec3{}) {
		t.Fatalf("Sample(empty) = %v, want zero", got)
	}
}

func TestSampleClampsBeforeFirstAndAfterLast(t *testing.T) {
	keys := []geometry.Keyframe{
		{Time: 1, Value: [4]float32{1, 0, 0, 0}},
		{Time: 2, Value: [4]float32{2, 0, 0, 0}},
	}
	ip := vec3Interpolator(keys, geometry.InterpLinear)
	if got := ip.Sample(0); got.X() != 1 {
		t.Fatalf("Sample(before first) = %v, want x=1", got)
	}
	if got := ip.Sample(5); got.X() != 2 {
		t.Fatalf("Sample(after last) = %v, want x=2", got)
	}
	if got := ip.Sample(2); got.X() != 2 {
		t.Fatalf("Sample(at last) = %v, want x=2", got)
	}
}

func TestSampleLinearInterpolatesMidpoint(t *testing.T) {
	keys := []geometry.Keyframe{
		{Time: 0, Value: [4]float32{0, 0, 0, 0}},
		{Time: 2, Value: [4]float32{4, 2, 0, 0}},
	}
	ip := vec3Interpolator(keys, geometry.InterpLinear)
	got := ip.Sample(1)
	if got.X() != 2 || got.Y() != 1 {
		t.Fatalf("Sample(midpoint) = %v, want (2,1,0)", got)
	}
}

func TestSampleStepHoldsFirstOfBracket(t *testing.T) {
	keys := []geometry.Keyframe{
		{Time: 0, Value: [4]float32{1, 0, 0, 0}},
		{Time: 2, Value: [4]float32{9, 0, 0, 0}},
	}
	ip := vec3Interpolator(keys, geometry.InterpStep)
	got := ip.Sample(1.5)
	if got.X() != 1 {
		t.Fatalf("Sample(step, mid-bracket) = %v, want x=1 (holds k0)", got)
	}
}

func TestSampleQuatSlerpsTowardIdentity(t *testing.T) {
	a := mgl32.QuatIdent()
	b := mgl32.QuatRotate(3.14159, mgl32.Vec3{0, 1, 0})
	keys := []geometry.Keyframe{
		{Time: 0, Value: [4]float32{a.V[0], a.V[1], a.V[2], a.W}},
		{Time: 1, Value: [4]float32{b.V[0], b.V[1], b.V[2], b.W}},
	}
	ip := Interpolator[mgl32.Quat]{Keyframes: keys, Interpolation: geometry.InterpLinear, Decode: DecodeQuat, Lerp: LerpQuat}
	mid := ip.Sample(0.5)
	if mid.W < 0.5 || mid.W > 0.9 {
		t.Fatalf("Sample(quat midpoint).W = %v, want roughly halfway to identity", mid.W)
	}
}
