package descset

import (
	"fmt"
	"testing"

	"github.com/kestrel3d/kestrel/gpu"
)

// fakePoolDevice simulates a descriptor pool whose tail pool can run
// out of room, forcing Allocate to create a new one.
type fakePoolDevice struct {
	capacity     int
	used         int
	poolsCreated int
	resetCalls   int
	destroyCalls int
}

func (f *fakePoolDevice) CreateDescriptorPool(*gpu.DescriptorPoolCreateInfo) (gpu.DescriptorPool, error) {
	f.poolsCreated++
	f.used = 0
	return gpu.DescriptorPool{}, nil
}

func (f *fakePoolDevice) DestroyDescriptorPool(gpu.DescriptorPool) { f.destroyCalls++ }

func (f *fakePoolDevice) ResetDescriptorPool(gpu.DescriptorPool) {
	f.resetCalls++
	f.used = 0
}

func (f *fakePoolDevice) AllocateDescriptorSets(*gpu.DescriptorSetAllocateInfo) ([]gpu.DescriptorSet, error) {
	if f.used >= f.capacity {
		return nil, fmt.Errorf("pool exhausted")
	}
	f.used++
	return []gpu.DescriptorSet{{}}, nil
}

func TestPoolsAllocateFallsBackToNewPoolWhenTailExhausted(t *testing.T) {
	dev := &fakePoolDevice{capacity: 2}
	pools := NewPools(dev)

	for i := 0; i < 2; i++ {
		if _, err := pools.Allocate(gpu.DescriptorSetLayout{}); err != nil {
			t.Fatalf("allocate %d: %v", i, err)
		}
	}
	if dev.poolsCreated != 1 {
		t.Fatalf("poolsCreated = %d, want 1 before exhaustion", dev.poolsCreated)
	}

	if _, err := pools.Allocate(gpu.DescriptorSetLayout{}); err != nil {
		t.Fatalf("allocate after exhaustion: %v", err)
	}
	if dev.poolsCreated != 2 {
		t.Fatalf("poolsCreated = %d, want 2 after falling back", dev.poolsCreated)
	}
}

func TestPoolsResetAllResetsEveryPool(t *testing.T) {
	dev := &fakePoolDevice{capacity: 1}
	pools := NewPools(dev)
	pools.Allocate(gpu.DescriptorSetLayout{})
	dev.used = 1 // exhaust explicitly to force a second pool
	pools.Allocate(gpu.DescriptorSetLayout{})

	pools.ResetAll()
	if dev.resetCalls != dev.poolsCreated {
		t.Errorf("resetCalls = %d, want one per pool (%d)", dev.resetCalls, dev.poolsCreated)
	}
}

func TestPoolsDestroyDestroysEveryPool(t *testing.T) {
	dev := &fakePoolDevice{capacity: 10}
	pools := NewPools(dev)
	pools.Allocate(gpu.DescriptorSetLayout{})

	pools.Destroy()
	if dev.destroyCalls != 1 {
		t.Errorf("destroyCalls = %d, want 1", dev.destroyCalls)
	}
	if len(pools.pools) != 0 {
		t.Errorf("pools.pools = %v, want empty after Destroy", pools.pools)
	}
}
