package frame

import "testing"

func TestVertexInputAddsInstanceBindingOnlyWhenInstanced(t *testing.T) {
	base, _ := VertexInput(false, false)
	instanced, _ := VertexInput(true, false)

	if len(instanced.Bindings) != len(base.Bindings)+1 {
		t.Fatalf("instanced bindings = %d, want %d", len(instanced.Bindings), len(base.Bindings)+1)
	}
	if len(instanced.Attributes) != len(base.Attributes)+4 {
		t.Fatalf("instanced attributes = %d, want %d more (4 mat4 rows)", len(instanced.Attributes), len(base.Attributes))
	}
}

func TestVertexInputAddsJointsBindingOnlyWhenSkinned(t *testing.T) {
	base, _ := VertexInput(false, false)
	skinned, _ := VertexInput(false, true)

	if len(skinned.Bindings) != len(base.Bindings)+1 {
		t.Fatalf("skinned bindings = %d, want %d", len(skinned.Bindings), len(base.Bindings)+1)
	}
	if len(skinned.Attributes) != len(base.Attributes)+2 {
		t.Fatalf("skinned attributes = %d, want %d more (indices+weights)", len(skinned.Attributes), len(base.Attributes))
	}
}

func TestVertexInputHashDistinguishesEachCombination(t *testing.T) {
	_, h00 := VertexInput(false, false)
	_, h10 := VertexInput(true, false)
	_, h01 := VertexInput(false, true)
	_, h11 := VertexInput(true, true)

	hashes := map[uint64]bool{h00: true, h10: true, h01: true, h11: true}
	if len(hashes) != 4 {
		t.Fatalf("expected 4 distinct hashes, got %d", len(hashes))
	}
}
