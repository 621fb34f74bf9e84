package asset

import (
	"bytes"

	"github.com/kestrel3d/kestrel/internal/geometry"
	"github.com/kestrel3d/kestrel/pkg/kerr"
	"github.com/kestrel3d/kestrel/pkg/uri"
)

// AnimationProvider loads a BinSkeletalAnimation file into a decoded
// geometry.SkeletalAnimation, mirroring the split every other provider
// in this package draws between a cache-miss decode and whatever
// GPU-facing step follows it — an animation has no GPU-facing step at
// all (it only ever drives CPU-side node transforms), so unlike
// StaticMeshProvider/SkinnedMeshProvider there is no separate Upload.
type AnimationProvider struct {
	source uri.DataSource
}

func NewAnimationProvider(source uri.DataSource) *AnimationProvider {
	return &AnimationProvider{source: source}
}

func (p *AnimationProvider) NewCache(monitor uri.Monitor) *Cache[geometry.SkeletalAnimation] {
	return NewCache(p.load, monitor)
}

func (p *AnimationProvider) load(u uri.URI) (Payload[geometry.SkeletalAnimation], error) {
	raw, err := p.source.Read(u)
	if err != nil {
		return Payload[geometry.SkeletalAnimation]{}, kerr.New(kerr.NotFound, "AnimationProvider.Load", u.String(), err)
	}
	anim, err := geometry.DecodeSkeletalAnimation(bytes.NewReader(raw))
	if err != nil {
		return Payload[geometry.SkeletalAnimation]{}, kerr.New(kerr.CorruptAsset, "AnimationProvider.Load", u.String(), err)
	}
	return Payload[geometry.SkeletalAnimation]{Asset: anim}, nil
}
