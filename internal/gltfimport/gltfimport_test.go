package gltfimport

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

func TestRgbaHexClampsAndRounds(t *testing.T) {
	cases := []struct {
		in   [4]float32
		want string
	}{
		{[4]float32{1, 1, 1, 1}, "#FFFFFFFF"},
		{[4]float32{0, 0, 0, 0}, "#00000000"},
		{[4]float32{2, -1, 0.5, 1}, "#FF0080FF"},
	}
	for _, c := range cases {
		if got := rgbaHex(c.in); got != c.want {
			t.Errorf("rgbaHex(%v) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestAlphaModeString(t *testing.T) {
	cases := []struct {
		mode gltf.AlphaMode
		want string
	}{
		{gltf.AlphaOpaque, "opaque"},
		{gltf.AlphaMask, "mask"},
		{gltf.AlphaBlend, "blend"},
	}
	for _, c := range cases {
		if got := alphaModeString(c.mode); got != c.want {
			t.Errorf("alphaModeString(%v) = %s, want %s", c.mode, got, c.want)
		}
	}
}

func TestStripExtAndExtensionFor(t *testing.T) {
	if got := stripExt("albedo.png"); got != "albedo" {
		t.Errorf("stripExt = %q, want albedo", got)
	}
	if got := stripExt("no_extension"); got != "no_extension" {
		t.Errorf("stripExt = %q, want no_extension", got)
	}
	if got := extensionFor("image/jpeg"); got != ".jpg" {
		t.Errorf("extensionFor(jpeg) = %q, want .jpg", got)
	}
	if got := extensionFor("image/png"); got != ".png" {
		t.Errorf("extensionFor(png) = %q, want .png", got)
	}
}

func TestDecodeDataURI(t *testing.T) {
	// base64 of "hi"
	data, err := decodeDataURI("data:image/png;base64,aGk=")
	if err != nil {
		t.Fatalf("decodeDataURI: %v", err)
	}
	if string(data) != "hi" {
		t.Fatalf("decoded = %q, want hi", data)
	}

	if _, err := decodeDataURI("not-a-data-uri"); err == nil {
		t.Fatal("expected error for non data uri")
	}
}

func TestGlobalNodeParents(t *testing.T) {
	doc := &gltf.Document{
		Nodes: []*gltf.Node{
			{Name: "root", Children: []uint32{1, 2}},
			{Name: "a"},
			{Name: "b"},
		},
	}
	parents := globalNodeParents(doc)
	if parents[1] != 0 || parents[2] != 0 {
		t.Fatalf("parents = %v, want {1:0, 2:0}", parents)
	}
	if _, ok := parents[0]; ok {
		t.Fatalf("root should have no parent entry")
	}
}

func TestNodeLocalMatrixIdentityByDefault(t *testing.T) {
	node := &gltf.Node{Name: "n"}
	got := nodeLocalMatrix(node)
	want := mgl32.Ident4()
	if got != want {
		t.Fatalf("nodeLocalMatrix(default node) = %v, want identity", got)
	}
}
