package asset

import (
	"encoding/hex"
	"testing"
)

// tiny1x1PNGHex is a single-pixel (opaque red) RGBA8 PNG, used so
// decode tests exercise the real stdlib image.Decode path without
// needing a fixture file on disk.
const tiny1x1PNGHex = "89504e470d0a1a0a0000000d49484452000000010000000108060000001f" +
	"15c4890000000d4944415478da63f8cfc0f01f00050001ff56c72f0d0000" +
	"000049454e44ae426082"

func tiny1x1PNG(t *testing.T) []byte {
	t.Helper()
	b, err := hex.DecodeString(tiny1x1PNGHex)
	if err != nil {
		t.Fatalf("bad PNG fixture hex: %v", err)
	}
	return b
}

func TestTextureProviderDecodeSRGB(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("textures/albedo.json", `{"image": "albedo.png", "colour_space": "srgb"}`)
	ds.files["textures/albedo.png"] = tiny1x1PNG(t)

	p := NewTextureProvider(ds, nil, nil, nil)
	decoded, err := p.Decoded.Load("textures/albedo.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if decoded.Width != 1 || decoded.Height != 1 {
		t.Fatalf("dimensions = %dx%d, want 1x1", decoded.Width, decoded.Height)
	}
	if decoded.ColorSpace != ColorSpaceSRGB {
		t.Fatalf("ColorSpace = %v, want ColorSpaceSRGB", decoded.ColorSpace)
	}
	if len(decoded.Pixels) != 4 {
		t.Fatalf("len(Pixels) = %d, want 4 (1x1 RGBA)", len(decoded.Pixels))
	}
}

func TestTextureProviderDecodeDefaultsToLinear(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("textures/normal.json", `{"image": "normal.png"}`)
	ds.files["textures/normal.png"] = tiny1x1PNG(t)

	p := NewTextureProvider(ds, nil, nil, nil)
	decoded, err := p.Decoded.Load("textures/normal.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if decoded.ColorSpace != ColorSpaceLinear {
		t.Fatalf("ColorSpace = %v, want ColorSpaceLinear", decoded.ColorSpace)
	}
}

func TestTextureProviderDecodeMissingImagePropagatesNotFound(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("textures/broken.json", `{"image": "nope.png"}`)

	p := NewTextureProvider(ds, nil, nil, nil)
	if _, err := p.Decoded.Load("textures/broken.json"); err == nil {
		t.Fatal("expected an error for a manifest referencing a missing image")
	}
}

func TestTextureProviderDecodeCachesByManifestURI(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("textures/albedo.json", `{"image": "albedo.png", "colour_space": "srgb"}`)
	ds.files["textures/albedo.png"] = tiny1x1PNG(t)

	p := NewTextureProvider(ds, nil, nil, nil)
	if _, err := p.Decoded.Load("textures/albedo.json"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := p.Decoded.Find("textures/albedo.json"); !ok {
		t.Fatal("expected decoded image to be cached")
	}
}
