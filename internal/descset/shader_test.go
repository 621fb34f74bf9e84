package descset

import (
	"github.com/kestrel3d/kestrel/gpu"
	"testing"
)

type fakeShaderDevice struct {
	writes [][]gpu.WriteDescriptorSet
}

func (f *fakeShaderDevice) UpdateDescriptorSets(writes []gpu.WriteDescriptorSet) {
	f.writes = append(f.writes, writes)
}

type fakeBindTarget struct {
	bound []uint32
}

func (f *fakeBindTarget) BindDescriptorSets(bindPoint gpu.PipelineBindPoint, layout gpu.PipelineLayout, firstSet uint32, sets []gpu.DescriptorSet, dynamicOffsets []uint32) {
	f.bound = append(f.bound, firstSet)
}

func newTestShader(t *testing.T, numSets int) (*Shader, *fakeShaderDevice) {
	t.Helper()
	pools := NewPools(&fakePoolDevice{capacity: 64})
	scratch := newTestScratch(defaultScratchBlockSize)
	dev := &fakeShaderDevice{}
	layouts := make([]gpu.DescriptorSetLayout, numSets)
	return NewShader(pools, scratch, dev, layouts), dev
}

func TestShaderWriteLazilyAllocatesItsSet(t *testing.T) {
	s, dev := newTestShader(t, 2)

	if err := s.Write(0, 0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !s.written[0] {
		t.Error("written[0] = false after Write")
	}
	if s.written[1] {
		t.Error("written[1] = true, want untouched set to stay unwritten")
	}
	if len(dev.writes) != 1 {
		t.Fatalf("UpdateDescriptorSets calls = %d, want 1", len(dev.writes))
	}
	if dev.writes[0][0].DescriptorType != gpu.DESCRIPTOR_TYPE_UNIFORM_BUFFER {
		t.Errorf("DescriptorType = %v, want uniform buffer", dev.writes[0][0].DescriptorType)
	}
}

func TestShaderUpdateLazilyAllocatesItsSet(t *testing.T) {
	s, dev := newTestShader(t, 1)

	if err := s.Update(0, 1, gpu.ImageView{}, gpu.Sampler{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !s.written[0] {
		t.Error("written[0] = false after Update")
	}
	if dev.writes[0][0].DescriptorType != gpu.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER {
		t.Errorf("DescriptorType = %v, want combined image sampler", dev.writes[0][0].DescriptorType)
	}
}

func TestShaderBindOnlyBindsWrittenSets(t *testing.T) {
	s, _ := newTestShader(t, 3)
	s.Write(0, 0, []byte{1})
	s.Write(2, 0, []byte{2})

	target := &fakeBindTarget{}
	s.Bind(target, gpu.PipelineLayout{})

	if len(target.bound) != 2 {
		t.Fatalf("bound sets = %d, want 2 (only the written sets)", len(target.bound))
	}
	if target.bound[0] != 0 || target.bound[1] != 2 {
		t.Errorf("bound = %v, want [0 2]", target.bound)
	}
}

func TestShaderResetClearsWrittenStateForReuse(t *testing.T) {
	s, _ := newTestShader(t, 2)
	s.Write(0, 0, []byte{1})
	s.Write(1, 0, []byte{2})

	s.Reset()

	for i, w := range s.written {
		if w {
			t.Errorf("written[%d] = true after Reset, want false", i)
		}
	}

	target := &fakeBindTarget{}
	s.Bind(target, gpu.PipelineLayout{})
	if len(target.bound) != 0 {
		t.Errorf("bound = %v, want none after Reset with no new writes", target.bound)
	}
}

func TestShaderWriteStorageWritesStorageBufferDescriptor(t *testing.T) {
	s, dev := newTestShader(t, 1)

	if err := s.WriteStorage(0, 2, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("WriteStorage: %v", err)
	}
	if dev.writes[0][0].DescriptorType != gpu.DESCRIPTOR_TYPE_STORAGE_BUFFER {
		t.Errorf("DescriptorType = %v, want storage buffer", dev.writes[0][0].DescriptorType)
	}
}

func TestShaderWriteOutOfRangeSetReturnsError(t *testing.T) {
	s, _ := newTestShader(t, 1)
	if err := s.Write(5, 0, []byte{1}); err == nil {
		t.Error("Write with out-of-range set = nil error, want error")
	}
}
