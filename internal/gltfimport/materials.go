package gltfimport

import (
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/kestrel3d/kestrel/pkg/uri"
)

// colourJSON and renderModeJSON mirror internal/asset's material
// manifest wire shape (material_provider.go) exactly, so a mesh the
// importer writes loads back through MaterialProvider unchanged.
type colourJSON struct {
	Hex       string  `json:"hex"`
	Intensity float32 `json:"intensity,omitempty"`
}

type renderModeJSON struct {
	Polygon   string  `json:"polygon,omitempty"`
	LineWidth float32 `json:"line_width,omitempty"`
	DepthTest bool    `json:"depth_test"`
}

type materialManifestJSON struct {
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

// importMaterial emits a material manifest for doc.Materials[materialIndex],
// deduplicating by index. skinned selects the vertex shader URI per
// §4.8 step 2: "shaders/skinned.vert" if any primitive using this
// material has joint attributes, else "shaders/lit.vert".
func (imp *Importer) importMaterial(doc *gltf.Document, materialIndex int, skinned bool) (uri.URI, error) {
	key := materialIndex<<1 | boolToInt(skinned)
	if u, ok := imp.materials[key]; ok {
		return u, nil
	}

	var gm *gltf.Material
	name := fmt.Sprintf("material_%d", materialIndex)
	if materialIndex >= 0 && materialIndex < len(doc.Materials) {
		gm = doc.Materials[materialIndex]
		if gm.Name != "" {
			name = gm.Name
		}
	}

	m := materialManifestJSON{
		AssetType:    "material",
		Kind:         "lit",
		Name:         name,
		VertexShader: "shaders/lit.vert",
		FragmentShader: "shaders/lit.frag",
		Albedo:       colourJSON{Hex: "#FFFFFFFF"},
		Roughness:    1,
		AlphaMode:    "opaque",
		RenderMode:   renderModeJSON{DepthTest: true},
	}
	if skinned {
		m.Kind = "skinned"
		m.VertexShader = "shaders/skinned.vert"
	}

	if gm != nil {
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			m.Albedo = colourJSON{Hex: rgbaHex([4]float32{float32(cf[0]), float32(cf[1]), float32(cf[2]), float32(cf[3])})}
			m.Metallic = float32(pbr.MetallicFactorOrDefault())
			m.Roughness = float32(pbr.RoughnessFactorOrDefault())
			if pbr.BaseColorTexture != nil {
				u, err := imp.importTexture(doc, int(pbr.BaseColorTexture.Index), "srgb")
				if err != nil {
					return "", fmt.Errorf("material %d base colour: %w", materialIndex, err)
				}
				m.BaseColour = u.String()
			}
			if pbr.MetallicRoughnessTexture != nil {
				u, err := imp.importTexture(doc, int(pbr.MetallicRoughnessTexture.Index), "linear")
				if err != nil {
					return "", fmt.Errorf("material %d metallic-roughness: %w", materialIndex, err)
				}
				m.RoughnessMetallic = u.String()
			}
		}
		if gm.EmissiveTexture != nil {
			u, err := imp.importTexture(doc, int(gm.EmissiveTexture.Index), "srgb")
			if err != nil {
				return "", fmt.Errorf("material %d emissive: %w", materialIndex, err)
			}
			m.Emissive = u.String()
		}
		ef := gm.EmissiveFactor
		m.EmissiveFactor = [3]float32{float32(ef[0]), float32(ef[1]), float32(ef[2])}
		m.AlphaCutoff = float32(gm.AlphaCutoffOrDefault())
		m.AlphaMode = alphaModeString(gm.AlphaMode)
	}

	fileName := fmt.Sprintf("material_%d.json", materialIndex)
	if materialIndex < 0 {
		fileName = "material_default.json"
	}
	u, err := imp.writeJSON(fileName, m)
	if err != nil {
		return "", err
	}
	imp.materials[key] = u
	return u, nil
}

func alphaModeString(mode gltf.AlphaMode) string {
	switch mode {
	case gltf.AlphaBlend:
		return "blend"
	case gltf.AlphaMask:
		return "mask"
	default:
		return "opaque"
	}
}

func rgbaHex(c [4]float32) string {
	toByte := func(v float32) int {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return int(v*255 + 0.5)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", toByte(c[0]), toByte(c[1]), toByte(c[2]), toByte(c[3]))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
