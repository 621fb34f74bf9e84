package gltfimport

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/kestrel3d/kestrel/pkg/uri"
)

// textureManifestJSON mirrors internal/asset's textureManifest shape
// (§4.8 step 1): `{image, colour_space}`.
type textureManifestJSON struct {
	Image       string `json:"image"`
	ColourSpace string `json:"colour_space"`
}

// importTexture emits the image file and its manifest for doc's
// gltfTextureIndex'th texture, deduplicating on the underlying image
// index (several glTF textures can reference the same image). Returns
// the manifest's URI for embedding in a material.
func (imp *Importer) importTexture(doc *gltf.Document, gltfTextureIndex int, colourSpace string) (uri.URI, error) {
	if gltfTextureIndex < 0 || gltfTextureIndex >= len(doc.Textures) {
		return "", fmt.Errorf("gltfimport: texture index %d out of range", gltfTextureIndex)
	}
	tex := doc.Textures[gltfTextureIndex]
	if tex.Source == nil {
		return "", fmt.Errorf("gltfimport: texture %d has no image source", gltfTextureIndex)
	}
	imageIndex := int(*tex.Source)

	if u, ok := imp.textures[imageIndex]; ok {
		return u, nil
	}

	img := doc.Images[imageIndex]
	imageName, data, err := imp.readImageBytes(doc, img, imageIndex)
	if err != nil {
		return "", fmt.Errorf("gltfimport: image %d: %w", imageIndex, err)
	}
	if _, err := imp.writeFile(imageName, data); err != nil {
		return "", err
	}

	manifestName := fmt.Sprintf("texture_%d.json", imageIndex)
	manifestURI, err := imp.writeJSON(manifestName, textureManifestJSON{
		Image:       imageName,
		ColourSpace: colourSpace,
	})
	if err != nil {
		return "", err
	}
	imp.textures[imageIndex] = manifestURI
	return manifestURI, nil
}

// readImageBytes resolves a glTF image's raw bytes regardless of
// whether it's embedded in a GLB buffer view, referenced as a data:
// URI, or referenced as an external file relative to the glTF's own
// directory — the three cases mrigankad-gorenderengine's gltf loader
// (scene/gltf_loader.go) distinguishes, generalized to return bytes
// instead of decoding straight into a GPU texture.
func (imp *Importer) readImageBytes(doc *gltf.Document, img *gltf.Image, imageIndex int) (name string, data []byte, err error) {
	ext := extensionFor(img.MimeType)
	name = img.Name
	if name == "" {
		name = fmt.Sprintf("image_%d", imageIndex)
	}
	name = stripExt(name) + ext

	switch {
	case img.BufferView != nil:
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return "", nil, fmt.Errorf("read buffer view: %w", err)
		}
		return name, raw, nil

	case img.URI != "" && img.IsEmbeddedResource():
		raw, err := decodeDataURI(img.URI)
		if err != nil {
			return "", nil, fmt.Errorf("decode data uri: %w", err)
		}
		return name, raw, nil

	case img.URI != "":
		raw, err := os.ReadFile(filepath.Join(imp.opts.SourceDir, img.URI))
		if err != nil {
			return "", nil, fmt.Errorf("read external image %q: %w", img.URI, err)
		}
		if img.MimeType == "" {
			// MimeType is only required for bufferView-backed images;
			// an external reference keeps its own file extension.
			name = stripExt(name) + filepath.Ext(img.URI)
		}
		return name, raw, nil

	default:
		return "", nil, fmt.Errorf("image has neither bufferView nor uri")
	}
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ".png"
	}
}

func stripExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// decodeDataURI decodes a "data:<mime>;base64,<payload>" embedded
// resource URI, the form glTF uses for inline images in a non-binary
// .gltf file.
func decodeDataURI(u string) ([]byte, error) {
	const marker = ";base64,"
	idx := strings.Index(u, marker)
	if idx < 0 {
		return nil, fmt.Errorf("unsupported data uri encoding")
	}
	return base64.StdEncoding.DecodeString(u[idx+len(marker):])
}
