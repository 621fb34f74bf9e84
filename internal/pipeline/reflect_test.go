package pipeline

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/kestrel3d/kestrel/gpu"
)

// ins builds one SPIR-V instruction: a word-count+opcode header followed
// by its operand words, matching the encoding reflect() decodes.
func ins(opcode uint32, operands ...uint32) []uint32 {
	header := (uint32(len(operands)+1) << 16) | opcode
	return append([]uint32{header}, operands...)
}

func assembleSPIRV(bound uint32, instructions ...[]uint32) []byte {
	words := []uint32{spirvMagicLE, 0x00010000, 0, bound, 0}
	for _, i := range instructions {
		words = append(words, i...)
	}
	var buf bytes.Buffer
	for _, w := range words {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], w)
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func TestReflectUniformBufferAndCombinedImageSampler(t *testing.T) {
	spirv := assembleSPIRV(20,
		ins(opEntryPoint, executionModelVertex, 4, 0x6e69616d, 0x00000000),
		// uniform buffer at set 0, binding 2
		ins(opDecorate, 10, decorationDescriptorSet, 0),
		ins(opDecorate, 10, decorationBinding, 2),
		ins(opDecorate, 2, decorationBlock),
		ins(opTypeStruct, 2),
		ins(opTypePointer, 3, storageClassUniform, 2),
		ins(opVariable, 3, 10, storageClassUniform),
		// combined image sampler at set 1, binding 0
		ins(opDecorate, 11, decorationDescriptorSet, 1),
		ins(opDecorate, 11, decorationBinding, 0),
		ins(opTypeImage, 5, 1, 1, 0, 0, 0, imageSampledWithSampler, 0),
		ins(opTypeSampledImage, 6, 5),
		ins(opTypePointer, 7, storageClassUniformConstant, 6),
		ins(opVariable, 7, 11, storageClassUniformConstant),
	)

	m, err := reflect(spirv)
	if err != nil {
		t.Fatalf("reflect: %v", err)
	}
	if m.stage != gpu.SHADER_STAGE_VERTEX_BIT {
		t.Errorf("stage = %v, want vertex", m.stage)
	}
	if len(m.bindings) != 2 {
		t.Fatalf("len(bindings) = %d, want 2", len(m.bindings))
	}

	byKey := make(map[[2]uint32]binding)
	for _, b := range m.bindings {
		byKey[[2]uint32{b.set, b.number}] = b
	}

	ubo, ok := byKey[[2]uint32{0, 2}]
	if !ok || ubo.typ != gpu.DESCRIPTOR_TYPE_UNIFORM_BUFFER {
		t.Errorf("set 0 binding 2 = %+v, want uniform buffer", ubo)
	}
	sampler, ok := byKey[[2]uint32{1, 0}]
	if !ok || sampler.typ != gpu.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER {
		t.Errorf("set 1 binding 0 = %+v, want combined image sampler", sampler)
	}
}

func TestReflectStorageBufferViaStorageClass(t *testing.T) {
	spirv := assembleSPIRV(20,
		ins(opEntryPoint, executionModelFragment, 4, 0x6e69616d, 0x00000000),
		ins(opDecorate, 10, decorationDescriptorSet, 0),
		ins(opDecorate, 10, decorationBinding, 0),
		ins(opTypeStruct, 2),
		ins(opTypePointer, 3, storageClassStorageBuffer, 2),
		ins(opVariable, 3, 10, storageClassStorageBuffer),
	)

	m, err := reflect(spirv)
	if err != nil {
		t.Fatalf("reflect: %v", err)
	}
	if len(m.bindings) != 1 || m.bindings[0].typ != gpu.DESCRIPTOR_TYPE_STORAGE_BUFFER {
		t.Fatalf("bindings = %+v, want one storage buffer", m.bindings)
	}
}

func TestReflectRejectsBadMagic(t *testing.T) {
	raw := make([]byte, 20)
	binary.LittleEndian.PutUint32(raw[0:4], 0xdeadbeef)
	if _, err := reflect(raw); err == nil {
		t.Fatal("expected error for bad magic number")
	}
}
