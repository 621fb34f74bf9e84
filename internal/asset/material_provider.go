package asset

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/pkg/color"
	"github.com/kestrel3d/kestrel/pkg/kerr"
	"github.com/kestrel3d/kestrel/pkg/uri"
)

// colourJSON is the persisted "{hex, intensity}" colour encoding §6
// specifies for both material albedo and light colour.
type colourJSON struct {
	Hex       string  `json:"hex"`
	Intensity float32 `json:"intensity,omitempty"`
}

// renderModeJSON is the persisted render_mode override block.
type renderModeJSON struct {
	Polygon   string  `json:"polygon,omitempty"`
	LineWidth float32 `json:"line_width,omitempty"`
	DepthTest bool    `json:"depth_test"`
}

// materialManifest is the "Material JSON" format §6 specifies:
// `{asset_type: "material", albedo, emissive_factor, metallic,
// roughness, base_colour?, roughness_metallic?, emissive?,
// alpha_cutoff, alpha_mode, render_mode, vertex_shader,
// fragment_shader, name}`. Kind isn't part of the persisted schema;
// it's an engine extension so Unlit/Lit/Skinned can share one manifest
// shape, defaulting to "lit" when absent. Texture references are URIs
// relative to the manifest's own directory, resolved as Cache
// dependencies so editing a referenced texture re-triggers a reload.
type materialManifest struct {
	AssetType         string         `json:"asset_type"`
	Kind              string         `json:"kind,omitempty"`
	Name              string         `json:"name"`
	VertexShader      string         `json:"vertex_shader"`
	FragmentShader    string         `json:"fragment_shader"`
	RenderMode        renderModeJSON `json:"render_mode,omitempty"`
	Albedo            colourJSON     `json:"albedo"`
	EmissiveFactor    [3]float32     `json:"emissive_factor,omitempty"`
	Metallic          float32        `json:"metallic,omitempty"`
	Roughness         float32        `json:"roughness,omitempty"`
	AlphaCutoff       float32        `json:"alpha_cutoff,omitempty"`
	AlphaMode         string         `json:"alpha_mode,omitempty"`
	BaseColour        string         `json:"base_colour,omitempty"`
	RoughnessMetallic string         `json:"roughness_metallic,omitempty"`
	Emissive          string         `json:"emissive,omitempty"`
}

// MaterialProvider reads a material JSON descriptor and resolves its
// texture references into a Material, collecting every referenced
// texture URI as a Cache dependency. Grounded on the material-property
// JSON shape Carmen-Shannon-oxy-go's ImportedMaterial models in Go
// terms (common/types.go), adapted to this engine's closed
// Unlit/Lit/Skinned tagged union.
type MaterialProvider struct {
	source uri.DataSource
}

func NewMaterialProvider(source uri.DataSource) *MaterialProvider {
	return &MaterialProvider{source: source}
}

func (p *MaterialProvider) NewCache(monitor uri.Monitor) *Cache[Material] {
	return NewCache(p.load, monitor)
}

func (p *MaterialProvider) load(u uri.URI) (Payload[Material], error) {
	raw, err := p.source.Read(u)
	if err != nil {
		return Payload[Material]{}, kerr.New(kerr.NotFound, "MaterialProvider.Load", u.String(), err)
	}
	var m materialManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Payload[Material]{}, kerr.New(kerr.CorruptAsset, "MaterialProvider.Load", u.String(), err)
	}

	kindField := m.Kind
	if kindField == "" {
		kindField = "lit"
	}
	kind, ok := materialKindOf(kindField)
	if !ok {
		return Payload[Material]{}, kerr.New(kerr.CorruptAsset, "MaterialProvider.Load", u.String(),
			fmt.Errorf("unrecognized material kind %q", m.Kind))
	}

	dir := u.Parent()
	resolve := func(ref string) uri.URI {
		if ref == "" {
			return ""
		}
		return dir.Join(ref)
	}
	parseColour := func(c colourJSON, fallback color.Rgba) color.Rgba {
		if c.Hex == "" {
			return fallback
		}
		parsed, err := color.ParseHex(c.Hex)
		if err != nil {
			return fallback
		}
		return parsed
	}

	// base_colour doubles as the Unlit tint texture: the persisted
	// schema has no separate unlit_texture field, since unlit/lit only
	// differ in how the shader interprets the same albedo/texture pair.
	albedo := parseColour(m.Albedo, color.White)
	baseColourTex := resolve(m.BaseColour)

	mat := Material{
		Name:              m.Name,
		Kind:              kind,
		VertexShaderURI:   resolve(m.VertexShader),
		FragmentShaderURI: resolve(m.FragmentShader),
		RenderMode: RenderMode{
			Polygon:   polygonOf(m.RenderMode.Polygon),
			LineWidth: m.RenderMode.LineWidth,
			DepthTest: m.RenderMode.DepthTest,
		},
		Tint:              albedo,
		UnlitTex:          baseColourTex,
		Albedo:            albedo,
		EmissiveFactor:    mgl32.Vec3{m.EmissiveFactor[0], m.EmissiveFactor[1], m.EmissiveFactor[2]},
		Metallic:          m.Metallic,
		Roughness:         m.Roughness,
		AlphaCutoff:       m.AlphaCutoff,
		AlphaMode:         alphaModeOf(m.AlphaMode),
		BaseColourTex:     baseColourTex,
		RoughnessMetalTex: resolve(m.RoughnessMetallic),
		EmissiveTex:       resolve(m.Emissive),
	}

	var deps []uri.URI
	for _, dep := range []uri.URI{mat.BaseColourTex, mat.RoughnessMetalTex, mat.EmissiveTex, mat.VertexShaderURI, mat.FragmentShaderURI} {
		if !dep.IsEmpty() {
			deps = append(deps, dep)
		}
	}

	return Payload[Material]{Asset: mat, Dependencies: deps}, nil
}

func materialKindOf(s string) (MaterialKind, bool) {
	switch s {
	case "unlit":
		return MaterialUnlit, true
	case "lit":
		return MaterialLit, true
	case "skinned":
		return MaterialSkinned, true
	default:
		return 0, false
	}
}

func polygonOf(s string) Polygon {
	switch s {
	case "line":
		return PolygonLine
	case "point":
		return PolygonPoint
	case "fill":
		return PolygonFill
	default:
		return PolygonDefault
	}
}

func alphaModeOf(s string) AlphaMode {
	switch s {
	case "blend":
		return AlphaBlend
	case "mask":
		return AlphaMask
	default:
		return AlphaOpaque
	}
}
