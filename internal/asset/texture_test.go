package asset

import (
	"testing"

	"github.com/kestrel3d/kestrel/gpu"
)

func TestFormatForSelectsSRGBForSRGBColorSpace(t *testing.T) {
	if got := FormatFor(ColorSpaceSRGB); got != gpu.FORMAT_R8G8B8A8_SRGB {
		t.Fatalf("FormatFor(SRGB) = %v, want FORMAT_R8G8B8A8_SRGB", got)
	}
}

func TestFormatForSelectsUnormForLinearColorSpace(t *testing.T) {
	if got := FormatFor(ColorSpaceLinear); got != gpu.FORMAT_R8G8B8A8_UNORM {
		t.Fatalf("FormatFor(Linear) = %v, want FORMAT_R8G8B8A8_UNORM", got)
	}
}
