package asset

import (
	"testing"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/config"
)

func deviceDefault() config.RenderMode {
	return config.RenderMode{
		PolygonMode: gpu.POLYGON_MODE_FILL,
		LineWidth:   1,
		DepthTest:   true,
	}
}

func TestRenderModeMergeKeepsDeviceDefaultWhenMaterialDoesNotOverride(t *testing.T) {
	m := RenderMode{Polygon: PolygonDefault, DepthTest: false}
	got := m.Merge(deviceDefault())

	if got.PolygonMode != gpu.POLYGON_MODE_FILL {
		t.Fatalf("PolygonMode = %v, want device default FILL", got.PolygonMode)
	}
	if got.LineWidth != 1 {
		t.Fatalf("LineWidth = %v, want device default 1", got.LineWidth)
	}
}

func TestRenderModeMergeOverridesPolygonModeWhenMaterialSetsIt(t *testing.T) {
	m := RenderMode{Polygon: PolygonLine}
	got := m.Merge(deviceDefault())

	if got.PolygonMode != gpu.POLYGON_MODE_LINE {
		t.Fatalf("PolygonMode = %v, want LINE", got.PolygonMode)
	}
}

func TestRenderModeMergeOverridesLineWidthWhenNonZero(t *testing.T) {
	m := RenderMode{LineWidth: 3.5}
	got := m.Merge(deviceDefault())

	if got.LineWidth != 3.5 {
		t.Fatalf("LineWidth = %v, want 3.5", got.LineWidth)
	}
}

func TestRenderModeMergeAlwaysTakesDepthTestFromMaterial(t *testing.T) {
	// Device default has DepthTest true; material explicitly disables it.
	m := RenderMode{DepthTest: false}
	got := m.Merge(deviceDefault())

	if got.DepthTest != false {
		t.Fatalf("DepthTest = %v, want false (material always wins)", got.DepthTest)
	}

	m2 := RenderMode{DepthTest: true}
	got2 := m2.Merge(config.RenderMode{DepthTest: false})
	if got2.DepthTest != true {
		t.Fatalf("DepthTest = %v, want true (material always wins)", got2.DepthTest)
	}
}

func TestPolygonVulkanMapsEachEnumerant(t *testing.T) {
	cases := map[Polygon]gpu.PolygonMode{
		PolygonDefault: gpu.POLYGON_MODE_FILL,
		PolygonFill:    gpu.POLYGON_MODE_FILL,
		PolygonLine:    gpu.POLYGON_MODE_LINE,
		PolygonPoint:   gpu.POLYGON_MODE_POINT,
	}
	for in, want := range cases {
		if got := in.vulkan(); got != want {
			t.Errorf("Polygon(%v).vulkan() = %v, want %v", in, got, want)
		}
	}
}
