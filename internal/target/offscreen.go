package target

import (
	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/alloc"
)

// OffscreenTarget is the 3D pass's color+depth attachment pair. When
// samples > 1 it also owns a single-sample resolve image the UI pass's
// full-screen quad samples from; at 1 sample the color image itself is
// sampled directly and Resolve returns the same view as Color.
type OffscreenTarget struct {
	allocator *alloc.Allocator
	samples   gpu.SampleCountFlags
	extent    gpu.Extent2D

	color   alloc.Image
	depth   alloc.Image
	resolve alloc.Image
	hasResolve bool
}

// offscreenColorFormat is fixed: 8-bit-per-channel RGBA UNORM (not an
// HDR format), shared by the color and resolve images the UI composite
// stage samples.
const offscreenColorFormat = gpu.FORMAT_R8G8B8A8_UNORM

// NewOffscreenTarget allocates the color/depth (and, if samples > 1,
// resolve) images for extent (the swapchain extent scaled by
// render_scale) at the given MSAA sample count.
func NewOffscreenTarget(allocator *alloc.Allocator, extent gpu.Extent2D, samples gpu.SampleCountFlags) (*OffscreenTarget, error) {
	t := &OffscreenTarget{allocator: allocator, samples: samples, extent: extent}
	extent3 := gpu.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1}

	color, err := allocator.MakeImage(
		offscreenColorFormat,
		gpu.IMAGE_USAGE_COLOR_ATTACHMENT_BIT|gpu.IMAGE_USAGE_SAMPLED_BIT,
		gpu.IMAGE_ASPECT_COLOR_BIT,
		1, samples, extent3, gpu.IMAGE_VIEW_TYPE_2D,
	)
	if err != nil {
		return nil, err
	}
	t.color = color

	depth, err := allocator.MakeImage(
		gpu.FORMAT_D32_SFLOAT,
		gpu.IMAGE_USAGE_DEPTH_STENCIL_ATTACHMENT_BIT,
		gpu.IMAGE_ASPECT_DEPTH_BIT,
		1, samples, extent3, gpu.IMAGE_VIEW_TYPE_2D,
	)
	if err != nil {
		allocator.DestroyImage(color)
		return nil, err
	}
	t.depth = depth

	if samples != gpu.SAMPLE_COUNT_1_BIT {
		resolve, err := allocator.MakeImage(
			offscreenColorFormat,
			gpu.IMAGE_USAGE_COLOR_ATTACHMENT_BIT|gpu.IMAGE_USAGE_SAMPLED_BIT,
			gpu.IMAGE_ASPECT_COLOR_BIT,
			1, gpu.SAMPLE_COUNT_1_BIT, extent3, gpu.IMAGE_VIEW_TYPE_2D,
		)
		if err != nil {
			allocator.DestroyImage(color)
			allocator.DestroyImage(depth)
			return nil, err
		}
		t.resolve = resolve
		t.hasResolve = true
	}

	return t, nil
}

// NeedsResize reports whether extent or samples has changed since this
// target was allocated, per the spec's "re-allocated on extent change
// (scaled by render_scale)" rule; the caller replaces the whole target
// rather than mutating it in place.
func (t *OffscreenTarget) NeedsResize(extent gpu.Extent2D, samples gpu.SampleCountFlags) bool {
	return t.extent != extent || t.samples != samples
}

// Color returns the multisampled (or single-sample, if samples == 1)
// color attachment view.
func (t *OffscreenTarget) Color() gpu.ImageView { return t.color.View }

// Depth returns the depth attachment view.
func (t *OffscreenTarget) Depth() gpu.ImageView { return t.depth.View }

// ColorImage returns the raw color attachment image, for the layout-
// transition barriers dynamic rendering requires at pass boundaries.
func (t *OffscreenTarget) ColorImage() gpu.Image { return t.color.Handle }

// DepthImage returns the raw depth attachment image.
func (t *OffscreenTarget) DepthImage() gpu.Image { return t.depth.Handle }

// SampledColorImage returns the raw image the UI pass transitions to
// shader-read-only before sampling (resolve image if present, else color).
func (t *OffscreenTarget) SampledColorImage() gpu.Image {
	if t.hasResolve {
		return t.resolve.Handle
	}
	return t.color.Handle
}

// SampledColor returns the view the UI pass's full-screen quad samples
// from: the resolve image when MSAA is enabled, the color image
// itself otherwise.
func (t *OffscreenTarget) SampledColor() gpu.ImageView {
	if t.hasResolve {
		return t.resolve.View
	}
	return t.color.View
}

// HasResolve reports whether a separate resolve image exists (samples > 1).
func (t *OffscreenTarget) HasResolve() bool { return t.hasResolve }

// Format returns the color attachment format (shared by color and resolve).
func (t *OffscreenTarget) Format() gpu.Format { return offscreenColorFormat }

// DepthFormat returns the depth attachment format.
func (t *OffscreenTarget) DepthFormat() gpu.Format { return t.depth.Format }

// Samples returns the MSAA sample count this target was built with.
func (t *OffscreenTarget) Samples() gpu.SampleCountFlags { return t.samples }

// Extent returns the target's current extent.
func (t *OffscreenTarget) Extent() gpu.Extent2D { return t.extent }

// Destroy releases every owned image through the deferred queue.
func (t *OffscreenTarget) Destroy() {
	t.allocator.DestroyImage(t.color)
	t.allocator.DestroyImage(t.depth)
	if t.hasResolve {
		t.allocator.DestroyImage(t.resolve)
	}
}
