package asset

import (
	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/alloc"
	"github.com/kestrel3d/kestrel/internal/descset"
)

// ColorSpace distinguishes an sRGB texture (albedo, emissive) from a
// linear one (normal maps, roughness/metallic, anything read as data
// rather than displayed colour) — encoded into the image's Vulkan
// format, per spec §3 ("sRGB vs linear is encoded in the format").
type ColorSpace int

const (
	ColorSpaceLinear ColorSpace = iota
	ColorSpaceSRGB
)

// Texture is a GPU image plus the view and sampler key draws bind.
// The sampler itself is shared GPU state owned by descset.SamplerCache,
// not duplicated per texture.
type Texture struct {
	Image      alloc.Image
	SamplerKey descset.SamplerKey
	ColorSpace ColorSpace
}

// FormatFor picks the image format an 8-bit-per-channel texture
// upload should use, honoring its color space.
func FormatFor(space ColorSpace) gpu.Format {
	if space == ColorSpaceSRGB {
		return gpu.FORMAT_R8G8B8A8_SRGB
	}
	return gpu.FORMAT_R8G8B8A8_UNORM
}
