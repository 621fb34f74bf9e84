// Package descset implements the per-frame descriptor set allocator,
// scratch buffer pool, per-draw shader binding helper, and immutable
// sampler cache the renderer uses to bind resources without per-frame
// descriptor pool churn.
package descset

import (
	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/pkg/kerr"
)

// defaultMaxSets bounds how many descriptor sets a single pool created
// by Pools can service before Allocate falls back to a new pool.
const defaultMaxSets = 256

// defaultPoolSizes gives every pool headroom across the descriptor
// types the renderer's reflected pipelines use (internal/pipeline).
func defaultPoolSizes() []gpu.DescriptorPoolSize {
	return []gpu.DescriptorPoolSize{
		{Type: gpu.DESCRIPTOR_TYPE_UNIFORM_BUFFER, DescriptorCount: defaultMaxSets},
		{Type: gpu.DESCRIPTOR_TYPE_STORAGE_BUFFER, DescriptorCount: defaultMaxSets},
		{Type: gpu.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, DescriptorCount: defaultMaxSets * 2},
		{Type: gpu.DESCRIPTOR_TYPE_SAMPLED_IMAGE, DescriptorCount: defaultMaxSets},
		{Type: gpu.DESCRIPTOR_TYPE_STORAGE_IMAGE, DescriptorCount: defaultMaxSets},
		{Type: gpu.DESCRIPTOR_TYPE_SAMPLER, DescriptorCount: defaultMaxSets},
	}
}

// Pools is a growable list of descriptor pools for one in-flight frame.
// Allocate always tries the tail pool first and only creates a new one
// once the tail is exhausted; ResetAll returns every pool to empty at
// the start of the frame that reuses this Pools value.
type Pools struct {
	device Device
	pools  []gpu.DescriptorPool
}

// Device is the subset of gpu.Device this package depends on, so tests
// can substitute a fake without a live Vulkan instance.
type Device interface {
	CreateDescriptorPool(*gpu.DescriptorPoolCreateInfo) (gpu.DescriptorPool, error)
	DestroyDescriptorPool(gpu.DescriptorPool)
	ResetDescriptorPool(gpu.DescriptorPool)
	AllocateDescriptorSets(*gpu.DescriptorSetAllocateInfo) ([]gpu.DescriptorSet, error)
}

// NewPools returns an empty Pools; its first pool is created lazily on
// the first Allocate call.
func NewPools(device Device) *Pools {
	return &Pools{device: device}
}

// Allocate returns a descriptor set matching layout, creating a new pool
// if the tail pool has no room left.
func (p *Pools) Allocate(layout gpu.DescriptorSetLayout) (gpu.DescriptorSet, error) {
	if len(p.pools) > 0 {
		if set, ok := p.tryAllocate(layout); ok {
			return set, nil
		}
	}
	if err := p.grow(); err != nil {
		return gpu.DescriptorSet{}, err
	}
	set, ok := p.tryAllocate(layout)
	if !ok {
		return gpu.DescriptorSet{}, kerr.New(kerr.AllocFailed, "descset.Allocate", "", nil)
	}
	return set, nil
}

func (p *Pools) tryAllocate(layout gpu.DescriptorSetLayout) (gpu.DescriptorSet, bool) {
	tail := p.pools[len(p.pools)-1]
	sets, err := p.device.AllocateDescriptorSets(&gpu.DescriptorSetAllocateInfo{
		DescriptorPool: tail,
		SetLayouts:     []gpu.DescriptorSetLayout{layout},
	})
	if err != nil || len(sets) == 0 {
		return gpu.DescriptorSet{}, false
	}
	return sets[0], true
}

func (p *Pools) grow() error {
	pool, err := p.device.CreateDescriptorPool(&gpu.DescriptorPoolCreateInfo{
		MaxSets:   defaultMaxSets,
		PoolSizes: defaultPoolSizes(),
	})
	if err != nil {
		return kerr.New(kerr.AllocFailed, "descset.grow", "", err)
	}
	p.pools = append(p.pools, pool)
	return nil
}

// ResetAll returns every pool to its empty state, invalidating every
// descriptor set previously allocated from it. Called once at the start
// of each frame that reuses this Pools value.
func (p *Pools) ResetAll() {
	for _, pool := range p.pools {
		p.device.ResetDescriptorPool(pool)
	}
}

// Destroy releases every pool. Only safe once the GPU work that used
// them has completed, the same contract as internal/deferred.Queue.Clear.
func (p *Pools) Destroy() {
	for _, pool := range p.pools {
		p.device.DestroyDescriptorPool(pool)
	}
	p.pools = nil
}
