package target

import (
	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/alloc"
)

// ShadowTarget is a fixed-resolution, single-sample depth image sampled
// by the 3D pass; it never changes size once created, since the
// resolution is a device-creation setting (config.ShadowMapResolution),
// not something that tracks window extent.
type ShadowTarget struct {
	allocator *alloc.Allocator
	image     alloc.Image
}

// NewShadowTarget allocates a depth-only image of resolution (w, h).
func NewShadowTarget(allocator *alloc.Allocator, resolution [2]uint32) (*ShadowTarget, error) {
	img, err := allocator.MakeImage(
		gpu.FORMAT_D32_SFLOAT,
		gpu.IMAGE_USAGE_DEPTH_STENCIL_ATTACHMENT_BIT|gpu.IMAGE_USAGE_SAMPLED_BIT,
		gpu.IMAGE_ASPECT_DEPTH_BIT,
		1,
		gpu.SAMPLE_COUNT_1_BIT,
		gpu.Extent3D{Width: resolution[0], Height: resolution[1], Depth: 1},
		gpu.IMAGE_VIEW_TYPE_2D,
	)
	if err != nil {
		return nil, err
	}
	return &ShadowTarget{allocator: allocator, image: img}, nil
}

// View returns the depth image's view, bound as the rendering
// attachment during the shadow pass and as a combined image sampler
// during the 3D pass.
func (t *ShadowTarget) View() gpu.ImageView { return t.image.View }

// Format returns the shadow target's depth format.
func (t *ShadowTarget) Format() gpu.Format { return t.image.Format }

// Image returns the raw depth image, for layout-transition barriers.
func (t *ShadowTarget) Image() gpu.Image { return t.image.Handle }

// Extent returns the shadow map's fixed resolution.
func (t *ShadowTarget) Extent() gpu.Extent2D {
	return gpu.Extent2D{Width: t.image.Extent.Width, Height: t.image.Extent.Height}
}

// Destroy releases the depth image through the deferred queue.
func (t *ShadowTarget) Destroy() {
	t.allocator.DestroyImage(t.image)
}
