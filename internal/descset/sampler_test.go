package descset

import (
	"testing"

	"github.com/kestrel3d/kestrel/gpu"
)

type fakeSamplerDevice struct {
	created  []gpu.SamplerCreateInfo
	destroys int
}

func (f *fakeSamplerDevice) CreateSampler(info *gpu.SamplerCreateInfo) (gpu.Sampler, error) {
	f.created = append(f.created, *info)
	return gpu.Sampler{}, nil
}

func (f *fakeSamplerDevice) DestroySampler(gpu.Sampler) { f.destroys++ }

func TestSamplerCacheReusesSamplerForIdenticalKey(t *testing.T) {
	dev := &fakeSamplerDevice{}
	cache := NewSamplerCache(dev, gpu.PhysicalDeviceLimits{MaxSamplerAnisotropy: 16})

	key := SamplerKey{
		Filter:       gpu.FILTER_LINEAR,
		AddressModeU: gpu.SAMPLER_ADDRESS_MODE_REPEAT,
		AddressModeV: gpu.SAMPLER_ADDRESS_MODE_REPEAT,
		BorderColor:  gpu.BORDER_COLOR_FLOAT_OPAQUE_BLACK,
	}

	if _, err := cache.Get(key); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := cache.Get(key); err != nil {
		t.Fatalf("Get (cached): %v", err)
	}
	if len(dev.created) != 1 {
		t.Fatalf("CreateSampler calls = %d, want 1 (second Get should hit the cache)", len(dev.created))
	}
	if dev.created[0].MaxAnisotropy != 16 {
		t.Errorf("MaxAnisotropy = %v, want 16 (from device limits)", dev.created[0].MaxAnisotropy)
	}
}

func TestSamplerCacheCreatesDistinctSamplersForDistinctKeys(t *testing.T) {
	dev := &fakeSamplerDevice{}
	cache := NewSamplerCache(dev, gpu.PhysicalDeviceLimits{MaxSamplerAnisotropy: 8})

	a := SamplerKey{Filter: gpu.FILTER_LINEAR, AddressModeU: gpu.SAMPLER_ADDRESS_MODE_REPEAT, AddressModeV: gpu.SAMPLER_ADDRESS_MODE_REPEAT}
	b := SamplerKey{Filter: gpu.FILTER_NEAREST, AddressModeU: gpu.SAMPLER_ADDRESS_MODE_CLAMP_TO_EDGE, AddressModeV: gpu.SAMPLER_ADDRESS_MODE_CLAMP_TO_EDGE}

	cache.Get(a)
	cache.Get(b)
	if len(dev.created) != 2 {
		t.Fatalf("CreateSampler calls = %d, want 2 for distinct keys", len(dev.created))
	}
}

func TestSamplerCacheDestroyReleasesEverySampler(t *testing.T) {
	dev := &fakeSamplerDevice{}
	cache := NewSamplerCache(dev, gpu.PhysicalDeviceLimits{})
	cache.Get(SamplerKey{Filter: gpu.FILTER_LINEAR})
	cache.Get(SamplerKey{Filter: gpu.FILTER_NEAREST})

	cache.Destroy()
	if dev.destroys != 2 {
		t.Errorf("destroys = %d, want 2", dev.destroys)
	}
}
