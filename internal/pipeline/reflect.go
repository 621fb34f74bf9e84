// Package pipeline implements the two-level graphics pipeline cache: a
// shader-hash keyed first level holding reflected descriptor set layouts
// and the pipeline layout, and a state-keyed second level holding the
// compiled gpu.Pipeline for a given render target format and draw state.
package pipeline

import (
	"encoding/binary"
	"fmt"

	"github.com/kestrel3d/kestrel/gpu"
)

const spirvMagicLE = 0x07230203

// SPIR-V opcodes used during reflection. Only the subset needed to
// recover descriptor set/binding/type/count is decoded; everything else
// is skipped over using the instruction's word count.
const (
	opEntryPoint       = 15
	opTypeImage        = 25
	opTypeSampler      = 26
	opTypeSampledImage = 27
	opTypeArray        = 28
	opTypeRuntimeArray = 29
	opTypeStruct       = 30
	opTypePointer      = 32
	opConstant         = 43
	opVariable         = 59
	opDecorate         = 71
)

const (
	decorationBlock       = 2
	decorationBufferBlock = 3
	decorationBinding     = 33
	decorationDescriptorSet = 34
)

const (
	storageClassUniformConstant = 0
	storageClassUniform         = 2
	storageClassStorageBuffer   = 12
)

const (
	executionModelVertex   = 0
	executionModelFragment = 4
	executionModelCompute  = 5
)

// imageSampled mirrors the SPIR-V OpTypeImage "Sampled" operand: 1 means
// the image is used with a sampler (sampled image), 2 means storage image.
const (
	imageSampledWithSampler = 1
	imageSampledStorage     = 2
)

// binding is one reflected (set, binding) descriptor slot before the
// per-set union/sort pass in cache.go combines it across stages.
type binding struct {
	set    uint32
	number uint32
	typ    gpu.DescriptorType
	count  uint32
}

// module is the result of reflecting a single SPIR-V binary: its
// entry-point stage and every descriptor binding it references.
type module struct {
	stage    gpu.ShaderStageFlags
	bindings []binding
}

type typeKind int

const (
	typeOther typeKind = iota
	typeStruct
	typeArray
	typeRuntimeArray
	typeImage
	typeSampledImage
	typeSampler
)

type typeInfo struct {
	kind      typeKind
	decorated uint32 // bitmask of Block/BufferBlock seen via OpDecorate, 0 if neither
	elem      uint32 // element type id, for array/runtime array
	length    uint32 // resolved array length, 0 if unknown/runtime
	imageType uint32 // referenced image type id, for sampled image
	sampled   uint32 // OpTypeImage "Sampled" operand
}

type pointerInfo struct {
	storageClass uint32
	pointee      uint32
}

type variableInfo struct {
	pointerType uint32
	storageClass uint32
}

// reflect parses a SPIR-V binary and returns its entry-point stage and
// the descriptor bindings reachable from that entry point's interface.
//
// Only the decorations, types, and variables needed to classify
// descriptor bindings are tracked; anything else in the module is
// skipped by honoring each instruction's word count.
func reflect(spirv []byte) (*module, error) {
	if len(spirv) < 20 || len(spirv)%4 != 0 {
		return nil, fmt.Errorf("spirv: binary too short or misaligned (%d bytes)", len(spirv))
	}

	words, err := spirvWords(spirv)
	if err != nil {
		return nil, err
	}
	if words[0] != spirvMagicLE {
		return nil, fmt.Errorf("spirv: bad magic number %#x", words[0])
	}

	bound := words[3]
	decoratedSet := make(map[uint32]uint32, bound)
	decoratedBinding := make(map[uint32]uint32, bound)
	decoratedBlock := make(map[uint32]uint32, bound)
	types := make(map[uint32]*typeInfo, bound)
	pointers := make(map[uint32]pointerInfo, bound)
	variables := make(map[uint32]variableInfo, bound)
	constants := make(map[uint32]uint32, bound)
	var stage gpu.ShaderStageFlags
	haveStage := false

	i := 5
	for i < len(words) {
		header := words[i]
		wordCount := int(header >> 16)
		opcode := header & 0xffff
		if wordCount == 0 || i+wordCount > len(words) {
			return nil, fmt.Errorf("spirv: malformed instruction at word %d", i)
		}
		ins := words[i : i+wordCount]

		switch opcode {
		case opEntryPoint:
			if !haveStage {
				switch ins[1] {
				case executionModelVertex:
					stage = gpu.SHADER_STAGE_VERTEX_BIT
				case executionModelFragment:
					stage = gpu.SHADER_STAGE_FRAGMENT_BIT
				case executionModelCompute:
					stage = gpu.SHADER_STAGE_COMPUTE_BIT
				}
				haveStage = true
			}
		case opDecorate:
			target := ins[1]
			decoration := ins[2]
			switch decoration {
			case decorationDescriptorSet:
				decoratedSet[target] = ins[3]
			case decorationBinding:
				decoratedBinding[target] = ins[3]
			case decorationBlock:
				decoratedBlock[target] |= 1
			case decorationBufferBlock:
				decoratedBlock[target] |= 2
			}
		case opTypeStruct:
			types[ins[1]] = &typeInfo{kind: typeStruct}
		case opTypeArray:
			types[ins[1]] = &typeInfo{kind: typeArray, elem: ins[2], length: constants[ins[3]]}
		case opTypeRuntimeArray:
			types[ins[1]] = &typeInfo{kind: typeRuntimeArray, elem: ins[2]}
		case opTypeImage:
			sampled := uint32(0)
			if len(ins) > 7 {
				sampled = ins[7]
			}
			types[ins[1]] = &typeInfo{kind: typeImage, sampled: sampled}
		case opTypeSampledImage:
			types[ins[1]] = &typeInfo{kind: typeSampledImage, imageType: ins[2]}
		case opTypeSampler:
			types[ins[1]] = &typeInfo{kind: typeSampler}
		case opTypePointer:
			pointers[ins[1]] = pointerInfo{storageClass: ins[2], pointee: ins[3]}
		case opVariable:
			variables[ins[2]] = variableInfo{pointerType: ins[1], storageClass: ins[3]}
		case opConstant:
			if len(ins) > 3 {
				constants[ins[2]] = ins[3]
			}
		}

		i += wordCount
	}

	// Struct/array decorations (Block, BufferBlock) are attached to the
	// type id directly via OpDecorate, already folded into
	// decoratedBlock above; merge that into the struct typeInfo now that
	// every OpDecorate has been seen.
	for id, flags := range decoratedBlock {
		if t, ok := types[id]; ok {
			t.decorated = flags
		}
	}

	var bindings []binding
	for id, v := range variables {
		if v.storageClass != storageClassUniformConstant &&
			v.storageClass != storageClassUniform &&
			v.storageClass != storageClassStorageBuffer {
			continue
		}
		set, hasSet := decoratedSet[id]
		num, hasBinding := decoratedBinding[id]
		if !hasSet || !hasBinding {
			continue
		}
		ptr, ok := pointers[v.pointerType]
		if !ok {
			continue
		}
		descType, count, ok := classify(types, ptr.pointee, v.storageClass)
		if !ok {
			continue
		}
		bindings = append(bindings, binding{set: set, number: num, typ: descType, count: count})
	}

	return &module{stage: stage, bindings: bindings}, nil
}

// classify walks (possibly through an array wrapper) to the underlying
// resource type and returns the descriptor type Vulkan expects for it,
// plus the descriptor array count (1 for a non-array binding, 0 for an
// unbounded runtime array, which buildShaderEntry turns into a
// single-descriptor binding).
func classify(types map[uint32]*typeInfo, typeID uint32, storageClass uint32) (gpu.DescriptorType, uint32, bool) {
	t, ok := types[typeID]
	if !ok {
		return 0, 0, false
	}

	switch t.kind {
	case typeArray:
		inner, _, ok := classify(types, t.elem, storageClass)
		if !ok {
			return 0, 0, false
		}
		count := t.length
		if count == 0 {
			count = 1
		}
		return inner, count, true
	case typeRuntimeArray:
		inner, _, ok := classify(types, t.elem, storageClass)
		if !ok {
			return 0, 0, false
		}
		return inner, 0, true
	case typeStruct:
		if storageClass == storageClassStorageBuffer || t.decorated&2 != 0 {
			return gpu.DESCRIPTOR_TYPE_STORAGE_BUFFER, 1, true
		}
		return gpu.DESCRIPTOR_TYPE_UNIFORM_BUFFER, 1, true
	case typeSampledImage:
		return gpu.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, 1, true
	case typeImage:
		if t.sampled == imageSampledStorage {
			return gpu.DESCRIPTOR_TYPE_STORAGE_IMAGE, 1, true
		}
		return gpu.DESCRIPTOR_TYPE_SAMPLED_IMAGE, 1, true
	case typeSampler:
		return gpu.DESCRIPTOR_TYPE_SAMPLER, 1, true
	default:
		return 0, 0, false
	}
}

// spirvWords reinterprets a SPIR-V binary as a little-endian uint32
// stream, the byte order every desktop Vulkan loader and shaderc target
// produce; a module beginning with the byte-swapped magic number is
// rejected rather than silently misread.
func spirvWords(raw []byte) ([]uint32, error) {
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
	}
	return words, nil
}
