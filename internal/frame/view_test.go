package frame

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/config"
)

func TestBuildLightsDataPacksUpToFourAndDropsTheRest(t *testing.T) {
	lights := make([]DirLight, 6)
	for i := range lights {
		lights[i] = DirLight{Direction: mgl32.QuatIdent(), RGB: [3]float32{1, 1, 1}, Intensity: 1}
	}

	data := BuildLightsData(lights)

	if data.Count != MaxDirLights {
		t.Fatalf("Count = %d, want %d (capped)", data.Count, MaxDirLights)
	}
}

func TestBuildLightsDataCountMatchesFewerThanMax(t *testing.T) {
	lights := []DirLight{
		{Direction: mgl32.QuatIdent(), RGB: [3]float32{1, 0, 0}, Intensity: 2},
	}

	data := BuildLightsData(lights)

	if data.Count != 1 {
		t.Fatalf("Count = %d, want 1", data.Count)
	}
	if data.Lights[0].RGB != (mgl32.Vec4{1, 0, 0, 2}) {
		t.Fatalf("RGB = %v, want {1,0,0,2}", data.Lights[0].RGB)
	}
}

func TestShadowViewProjOrientsEyeAtCameraPosition(t *testing.T) {
	light := DirLight{Direction: mgl32.QuatIdent()}
	cam := mgl32.Vec3{3, 4, 5}
	frustum := config.ShadowFrustum{HalfExtent: 10, Near: 0.1, Far: 100}

	m := ShadowViewProj(light, cam, frustum)

	// The camera position transformed by the light's view-proj matrix
	// should land on the light-space axis (x=0, y=0), since LookAtV
	// places the eye at the coordinate origin of its own view space and
	// the orthographic frustum is centred on it.
	if m == (mgl32.Mat4{}) {
		t.Fatalf("ShadowViewProj returned a zero matrix")
	}
	p := m.Mul4x1(cam.Vec4(1))
	if abs := func(v float32) float32 {
		if v < 0 {
			return -v
		}
		return v
	}; abs(p.X()) > 1e-4 || abs(p.Y()) > 1e-4 {
		t.Fatalf("camera position in light space = %v, want x=0, y=0", p)
	}
}

func TestBuildViewDataCopiesInputsThrough(t *testing.T) {
	inputs := ViewInputs{
		ViewProj:  mgl32.Ident4(),
		CameraPos: mgl32.Vec3{1, 2, 3},
		Exposure:  1.5,
	}
	primary := DirLight{Direction: mgl32.QuatIdent(), RGB: [3]float32{1, 1, 1}}
	frustum := config.ShadowFrustum{HalfExtent: 20, Near: 0.1, Far: 50}

	got := BuildViewData(inputs, primary, frustum)

	if got.CameraPos != inputs.CameraPos {
		t.Fatalf("CameraPos = %v, want %v", got.CameraPos, inputs.CameraPos)
	}
	if got.Exposure != inputs.Exposure {
		t.Fatalf("Exposure = %v, want %v", got.Exposure, inputs.Exposure)
	}
}
