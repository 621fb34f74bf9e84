package asset

import (
	"testing"
)

func TestMaterialProviderLoadsLitMaterialWithResolvedTextures(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("materials/rock.json", `{
		"asset_type": "material",
		"name": "rock",
		"kind": "lit",
		"vertex_shader": "../shaders/lit.vert",
		"fragment_shader": "../shaders/lit.frag",
		"albedo": {"hex": "#C0C0C0FF"},
		"metallic": 0.1,
		"roughness": 0.9,
		"base_colour": "rock_albedo.json",
		"render_mode": {"depth_test": true}
	}`)

	p := NewMaterialProvider(ds)
	c := p.NewCache(nil)

	mat, err := c.Load("materials/rock.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mat.Kind != MaterialLit {
		t.Fatalf("Kind = %v, want MaterialLit", mat.Kind)
	}
	if mat.BaseColourTex != "materials/rock_albedo.json" {
		t.Fatalf("BaseColourTex = %q, want materials/rock_albedo.json", mat.BaseColourTex)
	}
	if mat.VertexShaderURI != "shaders/lit.vert" {
		t.Fatalf("VertexShaderURI = %q, want shaders/lit.vert", mat.VertexShaderURI)
	}
	if mat.Albedo.R != 0xC0 {
		t.Fatalf("Albedo.R = %x, want C0", mat.Albedo.R)
	}
	if !mat.RenderMode.DepthTest {
		t.Fatal("DepthTest = false, want true")
	}
}

func TestMaterialProviderRejectsUnknownKind(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("materials/bad.json", `{"name": "bad", "kind": "holographic"}`)

	p := NewMaterialProvider(ds)
	c := p.NewCache(nil)
	if _, err := c.Load("materials/bad.json"); err == nil {
		t.Fatal("expected an error for an unrecognized material kind")
	}
}

func TestMaterialProviderUnlitDefaultsToWhiteTint(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("materials/flat.json", `{"name": "flat", "kind": "unlit"}`)

	p := NewMaterialProvider(ds)
	c := p.NewCache(nil)
	mat, err := c.Load("materials/flat.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mat.Tint.R != 255 || mat.Tint.G != 255 || mat.Tint.B != 255 || mat.Tint.A != 255 {
		t.Fatalf("Tint = %+v, want opaque white", mat.Tint)
	}
}
