package target

import (
	"testing"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/alloc"
	"github.com/kestrel3d/kestrel/internal/config"
)

func TestPresentModeMapsVsyncToRequestedMode(t *testing.T) {
	available := []gpu.PresentModeKHR{
		gpu.PRESENT_MODE_FIFO_KHR,
		gpu.PRESENT_MODE_IMMEDIATE_KHR,
		gpu.PRESENT_MODE_MAILBOX_KHR,
		gpu.PRESENT_MODE_FIFO_RELAXED_KHR,
	}
	cases := []struct {
		vsync config.Vsync
		want  gpu.PresentModeKHR
	}{
		{config.VsyncOn, gpu.PRESENT_MODE_FIFO_KHR},
		{config.VsyncOff, gpu.PRESENT_MODE_IMMEDIATE_KHR},
		{config.VsyncAdaptive, gpu.PRESENT_MODE_FIFO_RELAXED_KHR},
		{config.VsyncMailbox, gpu.PRESENT_MODE_MAILBOX_KHR},
	}
	for _, c := range cases {
		if got := presentMode(c.vsync, available); got != c.want {
			t.Errorf("presentMode(%v) = %v, want %v", c.vsync, got, c.want)
		}
	}
}

func TestPresentModeFallsBackToFIFOWhenUnsupported(t *testing.T) {
	available := []gpu.PresentModeKHR{gpu.PRESENT_MODE_FIFO_KHR}
	if got := presentMode(config.VsyncMailbox, available); got != gpu.PRESENT_MODE_FIFO_KHR {
		t.Errorf("presentMode with no mailbox support = %v, want FIFO fallback", got)
	}
}

func TestOffscreenTargetNeedsResizeDetectsExtentChange(t *testing.T) {
	tgt := &OffscreenTarget{extent: gpu.Extent2D{Width: 800, Height: 600}, samples: gpu.SAMPLE_COUNT_4_BIT}
	if tgt.NeedsResize(gpu.Extent2D{Width: 800, Height: 600}, gpu.SAMPLE_COUNT_4_BIT) {
		t.Error("NeedsResize = true for identical extent/samples")
	}
	if !tgt.NeedsResize(gpu.Extent2D{Width: 1024, Height: 768}, gpu.SAMPLE_COUNT_4_BIT) {
		t.Error("NeedsResize = false for changed extent")
	}
	if !tgt.NeedsResize(gpu.Extent2D{Width: 800, Height: 600}, gpu.SAMPLE_COUNT_1_BIT) {
		t.Error("NeedsResize = false for changed sample count")
	}
}

func TestOffscreenTargetSampledColorFallsBackToColorWithoutResolve(t *testing.T) {
	tgt := &OffscreenTarget{hasResolve: false, color: alloc.Image{View: gpu.ImageView{}}}
	if tgt.SampledColor() != tgt.color.View {
		t.Error("SampledColor must return the color view when no resolve image exists")
	}
	if tgt.HasResolve() {
		t.Error("HasResolve = true, want false")
	}
}
