package descset

import "github.com/kestrel3d/kestrel/gpu"

// SamplerKey is the immutable subset of sampler parameters the cache
// keys on; MagFilter/MinFilter share one value since nothing in the
// renderer ever needs them to differ.
type SamplerKey struct {
	Filter       gpu.Filter
	AddressModeU gpu.SamplerAddressMode
	AddressModeV gpu.SamplerAddressMode
	BorderColor  gpu.BorderColor
}

// SamplerDevice is the subset of gpu.Device the sampler cache depends on.
type SamplerDevice interface {
	CreateSampler(*gpu.SamplerCreateInfo) (gpu.Sampler, error)
	DestroySampler(gpu.Sampler)
}

// SamplerCache maps immutable sampler parameters to a single shared
// gpu.Sampler, keeping the anisotropy limit fixed to the device's
// MaxSamplerAnisotropy so materials never request an unsupported value.
type SamplerCache struct {
	device       SamplerDevice
	anisotropy   float32
	samplers     map[SamplerKey]gpu.Sampler
}

// NewSamplerCache reads MaxSamplerAnisotropy once from limits; every
// sampler the cache creates enables anisotropic filtering at that cap.
func NewSamplerCache(device SamplerDevice, limits gpu.PhysicalDeviceLimits) *SamplerCache {
	return &SamplerCache{
		device:     device,
		anisotropy: limits.MaxSamplerAnisotropy,
		samplers:   make(map[SamplerKey]gpu.Sampler),
	}
}

// Get returns the sampler for key, creating and caching it on first use.
func (c *SamplerCache) Get(key SamplerKey) (gpu.Sampler, error) {
	if s, ok := c.samplers[key]; ok {
		return s, nil
	}
	sampler, err := c.device.CreateSampler(&gpu.SamplerCreateInfo{
		MagFilter:        key.Filter,
		MinFilter:        key.Filter,
		MipmapMode:       gpu.SAMPLER_MIPMAP_MODE_LINEAR,
		AddressModeU:     key.AddressModeU,
		AddressModeV:     key.AddressModeV,
		AddressModeW:     key.AddressModeU,
		AnisotropyEnable: c.anisotropy > 0,
		MaxAnisotropy:    c.anisotropy,
		MinLod:           0,
		MaxLod:           float32(13), // enough mip levels for any texture up to ~8k
		BorderColor:      key.BorderColor,
	})
	if err != nil {
		return gpu.Sampler{}, err
	}
	c.samplers[key] = sampler
	return sampler, nil
}

// Destroy releases every cached sampler.
func (c *SamplerCache) Destroy() {
	for _, s := range c.samplers {
		c.device.DestroySampler(s)
	}
	c.samplers = make(map[SamplerKey]gpu.Sampler)
}
