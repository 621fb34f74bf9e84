// blit.go
package gpu

/*
#include <vulkan/vulkan.h>
*/
import "C"

// QUEUE_FAMILY_IGNORED marks a barrier as not transferring ownership
// between queue families.
const QUEUE_FAMILY_IGNORED uint32 = C.VK_QUEUE_FAMILY_IGNORED

// FormatFeatureFlags mirrors VkFormatFeatureFlags; callers use it to
// check blit support before requesting mip-map generation.
type FormatFeatureFlags uint32

const (
	FORMAT_FEATURE_BLIT_SRC_BIT           FormatFeatureFlags = C.VK_FORMAT_FEATURE_BLIT_SRC_BIT
	FORMAT_FEATURE_BLIT_DST_BIT           FormatFeatureFlags = C.VK_FORMAT_FEATURE_BLIT_DST_BIT
	FORMAT_FEATURE_SAMPLED_IMAGE_FILTER_LINEAR_BIT FormatFeatureFlags = C.VK_FORMAT_FEATURE_SAMPLED_IMAGE_FILTER_LINEAR_BIT
)

type FormatProperties struct {
	LinearTilingFeatures  FormatFeatureFlags
	OptimalTilingFeatures FormatFeatureFlags
	BufferFeatures        FormatFeatureFlags
}

func (physicalDevice PhysicalDevice) GetFormatProperties(format Format) FormatProperties {
	var props C.VkFormatProperties
	C.vkGetPhysicalDeviceFormatProperties(physicalDevice.handle, C.VkFormat(format), &props)
	return FormatProperties{
		LinearTilingFeatures:  FormatFeatureFlags(props.linearTilingFeatures),
		OptimalTilingFeatures: FormatFeatureFlags(props.optimalTilingFeatures),
		BufferFeatures:        FormatFeatureFlags(props.bufferFeatures),
	}
}

// SupportsLinearBlit reports whether optimal-tiling images of format
// can be both the source and destination of a blit with linear
// filtering — the requirement for successive-mip generation.
func (physicalDevice PhysicalDevice) SupportsLinearBlit(format Format) bool {
	p := physicalDevice.GetFormatProperties(format)
	need := FORMAT_FEATURE_BLIT_SRC_BIT | FORMAT_FEATURE_BLIT_DST_BIT | FORMAT_FEATURE_SAMPLED_IMAGE_FILTER_LINEAR_BIT
	return p.OptimalTilingFeatures&need == need
}

type ImageBlit struct {
	SrcSubresource ImageSubresourceLayers
	SrcOffsets     [2]Offset3D
	DstSubresource ImageSubresourceLayers
	DstOffsets     [2]Offset3D
}

// CmdBlitImage issues a single region blit, used by the allocator
// wrapper to generate successive mip levels after an upload.
func (cmd CommandBuffer) CmdBlitImage(src Image, srcLayout ImageLayout, dst Image, dstLayout ImageLayout, region ImageBlit, filter Filter) {
	var r C.VkImageBlit
	r.srcSubresource.aspectMask = C.VkImageAspectFlags(region.SrcSubresource.AspectMask)
	r.srcSubresource.mipLevel = C.uint32_t(region.SrcSubresource.MipLevel)
	r.srcSubresource.baseArrayLayer = C.uint32_t(region.SrcSubresource.BaseArrayLayer)
	r.srcSubresource.layerCount = C.uint32_t(region.SrcSubresource.LayerCount)
	r.srcOffsets[0] = C.VkOffset3D{x: C.int32_t(region.SrcOffsets[0].X), y: C.int32_t(region.SrcOffsets[0].Y), z: C.int32_t(region.SrcOffsets[0].Z)}
	r.srcOffsets[1] = C.VkOffset3D{x: C.int32_t(region.SrcOffsets[1].X), y: C.int32_t(region.SrcOffsets[1].Y), z: C.int32_t(region.SrcOffsets[1].Z)}

	r.dstSubresource.aspectMask = C.VkImageAspectFlags(region.DstSubresource.AspectMask)
	r.dstSubresource.mipLevel = C.uint32_t(region.DstSubresource.MipLevel)
	r.dstSubresource.baseArrayLayer = C.uint32_t(region.DstSubresource.BaseArrayLayer)
	r.dstSubresource.layerCount = C.uint32_t(region.DstSubresource.LayerCount)
	r.dstOffsets[0] = C.VkOffset3D{x: C.int32_t(region.DstOffsets[0].X), y: C.int32_t(region.DstOffsets[0].Y), z: C.int32_t(region.DstOffsets[0].Z)}
	r.dstOffsets[1] = C.VkOffset3D{x: C.int32_t(region.DstOffsets[1].X), y: C.int32_t(region.DstOffsets[1].Y), z: C.int32_t(region.DstOffsets[1].Z)}

	C.vkCmdBlitImage(
		cmd.handle,
		src.handle, C.VkImageLayout(srcLayout),
		dst.handle, C.VkImageLayout(dstLayout),
		1, &r,
		C.VkFilter(filter),
	)
}

type BufferImageCopyRegion = BufferImageCopy

// CmdCopyImage issues an image-to-image copy, used by the allocator's
// CopyImage for render-target resolves and readbacks that don't go
// through the swapchain's own resolve attachment.
func (cmd CommandBuffer) CmdCopyImage(src Image, srcLayout ImageLayout, dst Image, dstLayout ImageLayout, extent Extent3D, aspect ImageAspectFlags) {
	var region C.VkImageCopy
	region.srcSubresource.aspectMask = C.VkImageAspectFlags(aspect)
	region.srcSubresource.layerCount = 1
	region.dstSubresource.aspectMask = C.VkImageAspectFlags(aspect)
	region.dstSubresource.layerCount = 1
	region.extent.width = C.uint32_t(extent.Width)
	region.extent.height = C.uint32_t(extent.Height)
	region.extent.depth = C.uint32_t(extent.Depth)

	C.vkCmdCopyImage(
		cmd.handle,
		src.handle, C.VkImageLayout(srcLayout),
		dst.handle, C.VkImageLayout(dstLayout),
		1, &region,
	)
}
