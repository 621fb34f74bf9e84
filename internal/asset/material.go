package asset

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/config"
	"github.com/kestrel3d/kestrel/pkg/color"
	"github.com/kestrel3d/kestrel/pkg/uri"
)

// Polygon selects the rasterizer's fill mode for a material, with
// Default meaning "inherit whatever the device's own default is".
type Polygon int

const (
	PolygonDefault Polygon = iota
	PolygonFill
	PolygonLine
	PolygonPoint
)

// RenderMode is a material's override of the device's default
// rasterizer state; Merge resolves it against config.RenderMode.
type RenderMode struct {
	Polygon   Polygon
	LineWidth float32
	DepthTest bool
}

// Merge combines a material's RenderMode with the device default:
// the device default wins unless the material overrides the polygon
// mode or the line width, but depth_test always comes from the
// material (per spec §4.6, not the device).
func (m RenderMode) Merge(deviceDefault config.RenderMode) config.RenderMode {
	merged := deviceDefault
	if m.Polygon != PolygonDefault {
		merged.PolygonMode = m.Polygon.vulkan()
	}
	if m.LineWidth != 0 {
		merged.LineWidth = m.LineWidth
	}
	merged.DepthTest = m.DepthTest
	return merged
}

func (p Polygon) vulkan() gpu.PolygonMode {
	switch p {
	case PolygonLine:
		return gpu.POLYGON_MODE_LINE
	case PolygonPoint:
		return gpu.POLYGON_MODE_POINT
	default:
		return gpu.POLYGON_MODE_FILL
	}
}

// AlphaMode selects how a Lit material's alpha channel is interpreted.
type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaBlend
	AlphaMask
)

// MaterialKind tags Material's variant, since Go has no tagged unions.
type MaterialKind int

const (
	MaterialUnlit MaterialKind = iota
	MaterialLit
	MaterialSkinned
)

// Material is the closed tagged union spec §3 describes: Unlit, Lit,
// and Skinned variants sharing the shader-uri/render-mode envelope.
// Only the fields relevant to Kind are populated; this mirrors the
// teacher's flat-struct style rather than introducing per-kind structs
// and an interface, since the set of variants is closed and small.
type Material struct {
	Name             string
	Kind             MaterialKind
	VertexShaderURI  uri.URI
	FragmentShaderURI uri.URI
	RenderMode       RenderMode

	// Unlit
	Tint     color.Rgba
	UnlitTex uri.URI

	// Lit
	Albedo             color.Rgba
	EmissiveFactor     mgl32.Vec3
	Metallic           float32
	Roughness          float32
	AlphaCutoff        float32
	AlphaMode          AlphaMode
	BaseColourTex      uri.URI
	RoughnessMetalTex  uri.URI
	EmissiveTex        uri.URI

	// Skinned carries the same texture set as Lit, plus nothing extra
	// at the material level (the skin itself lives on SkinnedMesh).
}
