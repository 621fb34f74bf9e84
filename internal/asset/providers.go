package asset

import (
	"github.com/kestrel3d/kestrel/pkg/uri"
)

// RuntimeProviders bundles the concrete providers a live Scene needs
// to resolve mesh-rendering components (internal/entity.Providers):
// static/skinned mesh upload plus the material cache, wired by
// whatever assembles the device/frame graph/scene at startup.
type RuntimeProviders struct {
	StaticMeshes  *StaticMeshProvider
	SkinnedMeshes *SkinnedMeshProvider
	Materials     *Cache[Material]
}

func (p RuntimeProviders) UploadStaticMesh(u uri.URI) (StaticMesh, error) {
	return p.StaticMeshes.Upload(u)
}

func (p RuntimeProviders) UploadSkinnedMesh(u uri.URI) (SkinnedMesh, error) {
	return p.SkinnedMeshes.Upload(u)
}

func (p RuntimeProviders) Material(u uri.URI) (Material, error) {
	return p.Materials.Load(u)
}
