package asset

import (
	"errors"
	"testing"

	"github.com/kestrel3d/kestrel/pkg/uri"
)

type fakeDataSource struct {
	files map[uri.URI][]byte
}

func newFakeDataSource() *fakeDataSource {
	return &fakeDataSource{files: make(map[uri.URI][]byte)}
}

func (d *fakeDataSource) put(u uri.URI, s string) { d.files[u] = []byte(s) }

func (d *fakeDataSource) Read(u uri.URI) ([]byte, error) {
	b, ok := d.files[u]
	if !ok {
		return nil, errors.New("not found: " + u.String())
	}
	return b, nil
}

func (d *fakeDataSource) ReadText(u uri.URI) (string, error) {
	b, err := d.Read(u)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *fakeDataSource) ReadJSON(u uri.URI, out any) error {
	return errors.New("ReadJSON not implemented by fakeDataSource")
}

func (d *fakeDataSource) MountPoint() string { return "/fake" }

func (d *fakeDataSource) TrimToURI(absolutePath string) (uri.URI, bool) { return "", false }

func TestShaderProviderLoadsPrecompiledSPV(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("shaders/lit.frag.spv", "not-real-spirv-bytes")

	p := NewShaderProvider(ds, nil)
	spirv, err := p.Load("shaders/lit.frag.spv")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(spirv) != "not-real-spirv-bytes" {
		t.Fatalf("Load = %q", spirv)
	}
}

func TestShaderProviderCachesAcrossLoads(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("shaders/lit.frag.spv", "bytes")
	p := NewShaderProvider(ds, nil)

	if _, err := p.Load("shaders/lit.frag.spv"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := p.Cache().Find("shaders/lit.frag.spv"); !ok {
		t.Fatal("expected the shader to be cached after Load")
	}
}

func TestShaderProviderRejectsUnknownExtension(t *testing.T) {
	ds := newFakeDataSource()
	ds.put("shaders/lit.glsl", "#version 450\n")
	p := NewShaderProvider(ds, nil)

	if _, err := p.Load("shaders/lit.glsl"); err == nil {
		t.Fatal("expected an error for an unrecognized shader extension")
	}
}

func TestShaderProviderMissingFile(t *testing.T) {
	p := NewShaderProvider(newFakeDataSource(), nil)
	if _, err := p.Load("shaders/missing.vert.spv"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
