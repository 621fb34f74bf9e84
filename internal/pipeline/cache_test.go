package pipeline

import (
	"testing"

	"github.com/kestrel3d/kestrel/gpu"
)

func TestShaderHashDeterministicAndOrderSensitive(t *testing.T) {
	vert := []byte{1, 2, 3, 4}
	frag := []byte{5, 6, 7, 8}

	if ShaderHash(vert, frag) != ShaderHash(vert, frag) {
		t.Fatal("ShaderHash is not deterministic for identical input")
	}
	if ShaderHash(vert, frag) == ShaderHash(frag, vert) {
		t.Fatal("ShaderHash should be order-sensitive")
	}
}

func TestHashStateDeterministicAndDistinguishesState(t *testing.T) {
	a := State{
		ColorFormats: []gpu.Format{gpu.FORMAT_B8G8R8A8_UNORM},
		DepthFormat:  gpu.FORMAT_D32_SFLOAT,
		Samples:      gpu.SAMPLE_COUNT_1_BIT,
		PolygonMode:  gpu.POLYGON_MODE_FILL,
		Topology:     gpu.PRIMITIVE_TOPOLOGY_TRIANGLE_LIST,
		DepthTest:    true,
	}
	b := a
	b.DepthTest = false

	if hashState(a) != hashState(a) {
		t.Fatal("hashState is not deterministic for identical input")
	}
	if hashState(a) == hashState(b) {
		t.Fatal("hashState should distinguish states differing only in DepthTest")
	}
}

func TestMergeSetsUnionsStageFlagsAndSortsBindings(t *testing.T) {
	vert := &module{
		stage: gpu.SHADER_STAGE_VERTEX_BIT,
		bindings: []binding{
			{set: 0, number: 1, typ: gpu.DESCRIPTOR_TYPE_UNIFORM_BUFFER, count: 1},
			{set: 0, number: 0, typ: gpu.DESCRIPTOR_TYPE_UNIFORM_BUFFER, count: 1},
		},
	}
	frag := &module{
		stage: gpu.SHADER_STAGE_FRAGMENT_BIT,
		bindings: []binding{
			{set: 0, number: 1, typ: gpu.DESCRIPTOR_TYPE_UNIFORM_BUFFER, count: 1},
			{set: 2, number: 0, typ: gpu.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, count: 1},
		},
	}

	merged, setCount, err := mergeSets(vert, frag)
	if err != nil {
		t.Fatalf("mergeSets: %v", err)
	}
	if setCount != 3 {
		t.Fatalf("setCount = %d, want 3 (sets 0..2, including the empty gap at set 1)", setCount)
	}

	set0 := merged[0]
	if len(set0) != 2 || set0[0].number != 0 || set0[1].number != 1 {
		t.Fatalf("set 0 bindings = %+v, want sorted [0, 1]", set0)
	}
	if set0[1].stageFlags != gpu.SHADER_STAGE_VERTEX_BIT|gpu.SHADER_STAGE_FRAGMENT_BIT {
		t.Errorf("binding (0,1) stage flags = %v, want union of vertex|fragment", set0[1].stageFlags)
	}

	if _, ok := merged[1]; ok {
		t.Error("set 1 should be absent (a gap), not present in the merged map")
	}

	set2 := merged[2]
	if len(set2) != 1 || set2[0].typ != gpu.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER {
		t.Fatalf("set 2 bindings = %+v, want one combined image sampler", set2)
	}
}

func TestMergeSetsRejectsDescriptorTypeMismatch(t *testing.T) {
	vert := &module{
		stage:    gpu.SHADER_STAGE_VERTEX_BIT,
		bindings: []binding{{set: 0, number: 0, typ: gpu.DESCRIPTOR_TYPE_UNIFORM_BUFFER, count: 1}},
	}
	frag := &module{
		stage:    gpu.SHADER_STAGE_FRAGMENT_BIT,
		bindings: []binding{{set: 0, number: 0, typ: gpu.DESCRIPTOR_TYPE_STORAGE_BUFFER, count: 1}},
	}

	if _, _, err := mergeSets(vert, frag); err == nil {
		t.Fatal("expected a descriptor type mismatch error")
	}
}
