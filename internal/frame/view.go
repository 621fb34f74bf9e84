package frame

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/config"
)

// ViewInputs is what the scene computes per frame from its active
// Camera (transform, projection, exposure) — the frame graph only
// needs the resolved matrices, not the Camera type itself, so C10 can
// own Camera without this package depending on it.
type ViewInputs struct {
	ViewProj  mgl32.Mat4
	CameraPos mgl32.Vec3
	Exposure  float32
}

// ViewData is the set-0 binding-0 UBO layout (§4.6): view_proj,
// camera_pos, exposure, shadow_mat, shadow_dir. Field order and
// padding follow std140: vec3s are padded to 16 bytes when followed by
// a scalar that doesn't share their vec4 slot.
type ViewData struct {
	ViewProj  mgl32.Mat4
	CameraPos mgl32.Vec3
	Exposure  float32
	ShadowMat mgl32.Mat4
	ShadowDir mgl32.Vec3
	_pad      float32
}

// DirLight mirrors the asset-level DirLight: {direction, rgb}. Up to 4
// are accepted per frame; the first is primary and drives the shadow
// map.
type DirLight struct {
	Direction mgl32.Quat
	RGB       [3]float32
	Intensity float32
}

const MaxDirLights = 4

// LightsData is the lights SSBO layout: a fixed-size array of up to
// MaxDirLights, plus the active count so the fragment shader can loop
// only over populated entries.
type LightsData struct {
	Count  uint32
	_pad   [3]uint32
	Lights [MaxDirLights]struct {
		Direction mgl32.Vec4 // xyz = forward vector derived from the quat, w unused
		RGB       mgl32.Vec4 // xyz = colour, w = intensity
	}
}

// BuildLightsData packs up to MaxDirLights DirLights into the SSBO
// layout, silently dropping any beyond the limit (per spec: "up to 4
// accepted per frame").
func BuildLightsData(lights []DirLight) LightsData {
	var out LightsData
	n := len(lights)
	if n > MaxDirLights {
		n = MaxDirLights
	}
	out.Count = uint32(n)
	for i := 0; i < n; i++ {
		forward := lights[i].Direction.Rotate(mgl32.Vec3{0, 0, -1})
		out.Lights[i].Direction = mgl32.Vec4{forward.X(), forward.Y(), forward.Z(), 0}
		out.Lights[i].RGB = mgl32.Vec4{lights[i].RGB[0], lights[i].RGB[1], lights[i].RGB[2], lights[i].Intensity}
	}
	return out
}

// ShadowViewProj computes the primary light's orthographic view-proj
// matrix: eye at cameraPos, oriented by the light's quaternion.
//
// Known limitation (carried forward, not fixed): using the camera
// position as the light eye means scenes much larger than
// frustum.HalfExtent will peter-pan (shadows detach from casters
// outside the frustum).
func ShadowViewProj(light DirLight, cameraPos mgl32.Vec3, frustum config.ShadowFrustum) mgl32.Mat4 {
	forward := light.Direction.Rotate(mgl32.Vec3{0, 0, -1}).Normalize()
	up := mgl32.Vec3{0, 1, 0}
	if d := forward.Dot(up); d > 0.999 || d < -0.999 {
		up = mgl32.Vec3{1, 0, 0}
	}
	view := mgl32.LookAtV(cameraPos, cameraPos.Add(forward), up)
	proj := mgl32.Ortho(-frustum.HalfExtent, frustum.HalfExtent, -frustum.HalfExtent, frustum.HalfExtent, frustum.Near, frustum.Far)
	return proj.Mul4(view)
}

// BuildViewData assembles the final per-frame ViewUBO contents.
func BuildViewData(inputs ViewInputs, primary DirLight, frustum config.ShadowFrustum) ViewData {
	shadowMat := ShadowViewProj(primary, inputs.CameraPos, frustum)
	forward := primary.Direction.Rotate(mgl32.Vec3{0, 0, -1})
	return ViewData{
		ViewProj:  inputs.ViewProj,
		CameraPos: inputs.CameraPos,
		Exposure:  inputs.Exposure,
		ShadowMat: shadowMat,
		ShadowDir: forward,
	}
}
