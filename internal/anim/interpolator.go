// Package anim implements the generic keyframe interpolator and the
// skeleton-onto-node-tree instantiation described in §4.11, grounded
// on glb_renderer.go's interpolateKeyframes: a binary-search-free
// bracket walk (the engine's animations carry few enough keyframes
// that a linear scan is simpler than maintaining a search cursor) that
// special-cases Step vs Linear and routes rotation through
// mgl32.QuatSlerp while translation/scale lerp componentwise.
package anim

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/geometry"
)

// Interpolator samples a bracketed keyframe stream at an arbitrary
// time t, generic over the sampled value type so translation/scale
// (Vec3, linear lerp) and rotation (Quat, slerp) share one bracketing
// and edge-case implementation instead of two near-duplicate ones.
type Interpolator[T any] struct {
	Keyframes     []geometry.Keyframe
	Interpolation geometry.Interpolation
	Decode        func(raw [4]float32) T
	Lerp          func(a, b T, alpha float32) T
}

// Sample implements §4.11's Interpolator<T>::sample: empty keyframes
// return T's zero value; t before the first or at/after the last
// keyframe clamps to that keyframe's value; otherwise the bracketing
// pair is blended per Interpolation.
func (ip Interpolator[T]) Sample(t float32) T {
	var zero T
	n := len(ip.Keyframes)
	if n == 0 {
		return zero
	}
	first, last := ip.Keyframes[0], ip.Keyframes[n-1]
	if t <= first.Time {
		return ip.Decode(first.Value)
	}
	if t >= last.Time {
		return ip.Decode(last.Value)
	}
	for i := 0; i < n-1; i++ {
		k0, k1 := ip.Keyframes[i], ip.Keyframes[i+1]
		if t < k0.Time || t > k1.Time {
			continue
		}
		if ip.Interpolation == geometry.InterpStep {
			return ip.Decode(k0.Value)
		}
		alpha := (t - k0.Time) / (k1.Time - k0.Time)
		return ip.Lerp(ip.Decode(k0.Value), ip.Decode(k1.Value), alpha)
	}
	return ip.Decode(last.Value)
}

// DecodeVec3 and DecodeQuat interpret a Keyframe's raw [4]float32
// slot, matching SamplerType.valueWidth()'s translation/scale (3
// components) vs rotation (4, a quaternion with W in slot 3) layout.
func DecodeVec3(raw [4]float32) mgl32.Vec3 { return mgl32.Vec3{raw[0], raw[1], raw[2]} }

func DecodeQuat(raw [4]float32) mgl32.Quat {
	return mgl32.Quat{W: raw[3], V: mgl32.Vec3{raw[0], raw[1], raw[2]}}
}

func LerpVec3(a, b mgl32.Vec3, alpha float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(alpha))
}

// LerpQuat uses spherical interpolation per §4.11 ("lerp for
// quaternions is slerp").
func LerpQuat(a, b mgl32.Quat, alpha float32) mgl32.Quat {
	return mgl32.QuatSlerp(a, b, alpha)
}

func samplerInterpolatorVec3(s geometry.Sampler) Interpolator[mgl32.Vec3] {
	return Interpolator[mgl32.Vec3]{Keyframes: s.Keyframes, Interpolation: s.Interpolation, Decode: DecodeVec3, Lerp: LerpVec3}
}

func samplerInterpolatorQuat(s geometry.Sampler) Interpolator[mgl32.Quat] {
	return Interpolator[mgl32.Quat]{Keyframes: s.Keyframes, Interpolation: s.Interpolation, Decode: DecodeQuat, Lerp: LerpQuat}
}
