package entity

import (
	"github.com/kestrel3d/kestrel/internal/asset"
	"github.com/kestrel3d/kestrel/pkg/uri"
)

// Providers is the narrow slice of internal/asset's providers that
// mesh-rendering components need, so entity (and the components
// defined alongside it) depend on an interface rather than asset's
// concrete provider types — Scene supplies the real providers, tests
// can supply fakes.
type Providers interface {
	UploadStaticMesh(u uri.URI) (asset.StaticMesh, error)
	UploadSkinnedMesh(u uri.URI) (asset.SkinnedMesh, error)
	Material(u uri.URI) (asset.Material, error)
}
