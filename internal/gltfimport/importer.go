// Package gltfimport walks a glTF document and emits the engine's
// canonical asset files: texture manifests, material manifests,
// BinGeometry/mesh manifests, skeleton manifests with BinSkeletalAnimation
// files, and scene manifests (§4.8). Grounded on
// mmulet-pupapppupps/glb_renderer.go's qmuntal/gltf usage for the
// node/skin/animation walk, generalized from an OpenGL loader into a
// file emitter.
package gltfimport

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/qmuntal/gltf"

	"github.com/kestrel3d/kestrel/internal/logging"
	"github.com/kestrel3d/kestrel/pkg/uri"
)

// Options configures an Importer.
type Options struct {
	// SourceDir is the directory the source glTF file lives in, used
	// to resolve images and buffers referenced by a relative URI.
	SourceDir string
	DestDir   string
	Overwrite bool
	Logger    *logging.Logger
}

// Importer emits canonical asset files for a parsed glTF document into
// a destination directory, deduplicating per-glTF-index work across
// repeated ImportMesh/ImportScene calls against the same document.
type Importer struct {
	opts Options
	log  *logging.Logger

	textures  map[int]uri.URI
	materials map[int]uri.URI
	skins     map[int]skinResult
}

type skinResult struct {
	SkeletonURI uri.URI
	InverseBind [][16]float32
}

// New returns an Importer writing into opts.DestDir. A nil Logger
// defaults to a no-op logger.
func New(opts Options) *Importer {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Importer{
		opts:      opts,
		log:       log.Named("gltfimport"),
		textures:  make(map[int]uri.URI),
		materials: make(map[int]uri.URI),
		skins:     make(map[int]skinResult),
	}
}

// Open parses a .gltf or .glb file.
func Open(gltfPath string) (*gltf.Document, error) {
	doc, err := gltf.Open(gltfPath)
	if err != nil {
		return nil, fmt.Errorf("gltfimport: open %s: %w", gltfPath, err)
	}
	return doc, nil
}

// SceneIndex names a scene's own index plus its human-readable name,
// for the "list" CLI subcommand.
type SceneIndex struct {
	Index int
	Name  string
}

// MeshIndex names a mesh's own index plus its human-readable name.
type MeshIndex struct {
	Index int
	Name  string
}

// List reports the scene and mesh indices a document offers, without
// writing any files — backs the `legsmi list` subcommand.
func List(doc *gltf.Document) (scenes []SceneIndex, meshes []MeshIndex) {
	for i, s := range doc.Scenes {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("scene_%d", i)
		}
		scenes = append(scenes, SceneIndex{Index: i, Name: name})
	}
	for i, m := range doc.Meshes {
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", i)
		}
		meshes = append(meshes, MeshIndex{Index: i, Name: name})
	}
	return scenes, meshes
}

// writeFile writes data to name under DestDir, honoring Overwrite:
// when off and the target already exists, the existing file is kept
// and logged as reused rather than rewritten.
func (imp *Importer) writeFile(name string, data []byte) (uri.URI, error) {
	target := filepath.Join(imp.opts.DestDir, name)
	if !imp.opts.Overwrite {
		if _, err := os.Stat(target); err == nil {
			imp.log.Infow("reusing existing file", "path", target)
			return uri.URI(path.Clean(name)), nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("gltfimport: mkdir for %s: %w", target, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("gltfimport: write %s: %w", target, err)
	}
	imp.log.Infow("wrote file", "path", target)
	return uri.URI(path.Clean(name)), nil
}

// writeJSON marshals v with indentation and writes it via writeFile.
func (imp *Importer) writeJSON(name string, v any) (uri.URI, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("gltfimport: marshal %s: %w", name, err)
	}
	return imp.writeFile(name, data)
}
