package descset

import (
	"fmt"

	"github.com/kestrel3d/kestrel/gpu"
)

// ShaderDevice is the subset of gpu.Device Shader depends on.
type ShaderDevice interface {
	UpdateDescriptorSets(writes []gpu.WriteDescriptorSet)
}

// BindTarget is the subset of gpu.CommandBuffer Shader.Bind depends on.
type BindTarget interface {
	BindDescriptorSets(bindPoint gpu.PipelineBindPoint, layout gpu.PipelineLayout, firstSet uint32, descriptorSets []gpu.DescriptorSet, dynamicOffsets []uint32)
}

// Shader bundles one descriptor set per bound set layout for a single
// draw call, allocating and writing each set lazily: a set that nothing
// ever calls Write or Update on is never allocated from the pool and
// never bound.
type Shader struct {
	pools   *Pools
	scratch *Scratch
	device  ShaderDevice
	layouts []gpu.DescriptorSetLayout
	sets    []gpu.DescriptorSet
	written []bool
}

// NewShader returns a Shader over one descriptor set layout per set
// number, as produced by internal/pipeline's reflected layout list.
func NewShader(pools *Pools, scratch *Scratch, device ShaderDevice, layouts []gpu.DescriptorSetLayout) *Shader {
	return &Shader{
		pools:   pools,
		scratch: scratch,
		device:  device,
		layouts: layouts,
		sets:    make([]gpu.DescriptorSet, len(layouts)),
		written: make([]bool, len(layouts)),
	}
}

func (s *Shader) ensureSet(set uint32) (gpu.DescriptorSet, error) {
	if int(set) >= len(s.layouts) {
		return gpu.DescriptorSet{}, fmt.Errorf("descset: set %d out of range (%d layouts)", set, len(s.layouts))
	}
	if !s.written[set] {
		ds, err := s.pools.Allocate(s.layouts[set])
		if err != nil {
			return gpu.DescriptorSet{}, err
		}
		s.sets[set] = ds
		s.written[set] = true
	}
	return s.sets[set], nil
}

// Write copies data into a freshly allocated scratch buffer range and
// writes a uniform buffer descriptor at (set, binding) pointing at it.
func (s *Shader) Write(set, binding uint32, data []byte) error {
	ds, err := s.ensureSet(set)
	if err != nil {
		return err
	}
	buf, offset, dst, err := s.scratch.Allocate(uint64(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)

	s.device.UpdateDescriptorSets([]gpu.WriteDescriptorSet{{
		DstSet:         ds,
		DstBinding:     binding,
		DescriptorType: gpu.DESCRIPTOR_TYPE_UNIFORM_BUFFER,
		BufferInfo:     []gpu.DescriptorBufferInfo{{Buffer: buf, Offset: offset, Range: uint64(len(data))}},
	}})
	return nil
}

// WriteStorage copies data into a freshly allocated scratch buffer
// range and writes a storage buffer descriptor at (set, binding) — used
// for the lights and joint-matrix buffers, which shaders declare as
// SSBOs rather than UBOs since their length varies per frame/mesh.
func (s *Shader) WriteStorage(set, binding uint32, data []byte) error {
	ds, err := s.ensureSet(set)
	if err != nil {
		return err
	}
	buf, offset, dst, err := s.scratch.Allocate(uint64(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)

	s.device.UpdateDescriptorSets([]gpu.WriteDescriptorSet{{
		DstSet:         ds,
		DstBinding:     binding,
		DescriptorType: gpu.DESCRIPTOR_TYPE_STORAGE_BUFFER,
		BufferInfo:     []gpu.DescriptorBufferInfo{{Buffer: buf, Offset: offset, Range: uint64(len(data))}},
	}})
	return nil
}

// Update writes a combined image/sampler descriptor at (set, binding).
func (s *Shader) Update(set, binding uint32, imageView gpu.ImageView, sampler gpu.Sampler) error {
	ds, err := s.ensureSet(set)
	if err != nil {
		return err
	}

	s.device.UpdateDescriptorSets([]gpu.WriteDescriptorSet{{
		DstSet:         ds,
		DstBinding:     binding,
		DescriptorType: gpu.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER,
		ImageInfo:      []gpu.DescriptorImageInfo{{Sampler: sampler, ImageView: imageView, ImageLayout: gpu.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL}},
	}})
	return nil
}

// Bind binds only the sets that Write or Update touched this draw.
func (s *Shader) Bind(cb BindTarget, layout gpu.PipelineLayout) {
	for set, wasWritten := range s.written {
		if !wasWritten {
			continue
		}
		cb.BindDescriptorSets(gpu.PIPELINE_BIND_POINT_GRAPHICS, layout, uint32(set), []gpu.DescriptorSet{s.sets[set]}, nil)
	}
}

// Reset clears which sets were written, for reuse on the next draw; the
// underlying Pools is expected to be reset (and its sets invalidated)
// once per frame by the caller.
func (s *Shader) Reset() {
	for i := range s.written {
		s.written[i] = false
	}
}
