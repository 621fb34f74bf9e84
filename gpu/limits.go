// limits.go
package gpu

/*
#include <vulkan/vulkan.h>
*/
import "C"

// PhysicalDeviceLimits carries only the fields the engine consults:
// anisotropy for the sampler cache and the maximum usable sample count
// for MSAA render targets.
type PhysicalDeviceLimits struct {
	MaxSamplerAnisotropy    float32
	FramebufferColorSampleCounts SampleCountFlags
	FramebufferDepthSampleCounts SampleCountFlags
}

func (physicalDevice PhysicalDevice) GetLimits() PhysicalDeviceLimits {
	var props C.VkPhysicalDeviceProperties
	C.vkGetPhysicalDeviceProperties(physicalDevice.handle, &props)
	return PhysicalDeviceLimits{
		MaxSamplerAnisotropy:         float32(props.limits.maxSamplerAnisotropy),
		FramebufferColorSampleCounts: SampleCountFlags(props.limits.framebufferColorSampleCounts),
		FramebufferDepthSampleCounts: SampleCountFlags(props.limits.framebufferDepthSampleCounts),
	}
}

// HighestCommonSampleCount picks the largest MSAA sample count (capped
// at requested) supported by both color and depth attachments.
func (l PhysicalDeviceLimits) HighestCommonSampleCount(requested SampleCountFlags) SampleCountFlags {
	common := l.FramebufferColorSampleCounts & l.FramebufferDepthSampleCounts
	for s := requested; s >= SAMPLE_COUNT_1_BIT; s >>= 1 {
		if common&s != 0 {
			return s
		}
	}
	return SAMPLE_COUNT_1_BIT
}
