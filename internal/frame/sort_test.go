package frame

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/asset"
)

func TestSortTransparentOrdersBackToFront(t *testing.T) {
	cam := mgl32.Vec3{0, 0, 0}
	items := []DrawItem{
		{NodeOrigin: mgl32.Vec3{1, 0, 0}},  // dist^2 = 1
		{NodeOrigin: mgl32.Vec3{10, 0, 0}}, // dist^2 = 100
		{NodeOrigin: mgl32.Vec3{5, 0, 0}},  // dist^2 = 25
	}

	SortTransparent(items, cam)

	for i := 0; i < len(items)-1; i++ {
		di := distSq(items[i].NodeOrigin, cam)
		dj := distSq(items[i+1].NodeOrigin, cam)
		if di < dj {
			t.Fatalf("item %d (dist^2=%v) precedes item %d (dist^2=%v): back-to-front order violated", i, di, i+1, dj)
		}
	}
}

func TestSortTransparentSatisfiesPairwiseInvariant(t *testing.T) {
	cam := mgl32.Vec3{2, 3, -1}
	items := []DrawItem{
		{NodeOrigin: mgl32.Vec3{4, -2, 0}},
		{NodeOrigin: mgl32.Vec3{-6, 1, 9}},
		{NodeOrigin: mgl32.Vec3{2, 3, -1}},
		{NodeOrigin: mgl32.Vec3{0, 0, 0}},
		{NodeOrigin: mgl32.Vec3{100, 0, 0}},
	}

	SortTransparent(items, cam)

	for i := range items {
		for j := range items {
			if i >= j {
				continue
			}
			di := distSq(items[i].NodeOrigin, cam)
			dj := distSq(items[j].NodeOrigin, cam)
			if di < dj {
				t.Fatalf("pair (%d,%d): |a-cam|^2=%v < |b-cam|^2=%v but a precedes b", i, j, di, dj)
			}
		}
	}
}

func TestSortOpaqueGroupsSharedMaterialsAdjacently(t *testing.T) {
	matA := &asset.Material{Name: "a"}
	matB := &asset.Material{Name: "b"}
	items := []DrawItem{
		{Material: matB},
		{Material: matA},
		{Material: matB},
		{Material: matA},
	}

	SortOpaque(items)

	for i := 0; i < len(items)-1; i++ {
		if materialAddr(items[i].Material) > materialAddr(items[i+1].Material) {
			t.Fatalf("items not sorted by material address at index %d", i)
		}
	}
	// Every run of a given material pointer must be contiguous.
	seen := map[*asset.Material]bool{}
	for i, it := range items {
		if i > 0 && items[i-1].Material != it.Material && seen[it.Material] {
			t.Fatalf("material %v reappears non-adjacently at index %d", it.Material.Name, i)
		}
		seen[it.Material] = true
	}
}

func TestDrawListSubmitSeparatesOpaqueAndTransparent(t *testing.T) {
	var list DrawList
	opaqueMat := &asset.Material{Kind: asset.MaterialUnlit}
	blendMat := &asset.Material{Kind: asset.MaterialLit, AlphaMode: asset.AlphaBlend}

	list.Submit(DrawItem{Material: opaqueMat})
	list.Submit(DrawItem{Material: blendMat})

	if len(list.Opaque) != 1 {
		t.Fatalf("Opaque len = %d, want 1", len(list.Opaque))
	}
	if len(list.Transparent) != 1 {
		t.Fatalf("Transparent len = %d, want 1", len(list.Transparent))
	}
}

func TestDrawListSubmitOverlayDisablesDepthTest(t *testing.T) {
	var list DrawList
	list.SubmitOverlay(DrawItem{Material: &asset.Material{}})

	if len(list.Overlay) != 1 {
		t.Fatalf("Overlay len = %d, want 1", len(list.Overlay))
	}
	if list.Overlay[0].DepthTestOverride == nil || *list.Overlay[0].DepthTestOverride != false {
		t.Fatalf("overlay draw must have DepthTestOverride=false")
	}
}

func TestDrawListResetClearsAllBuckets(t *testing.T) {
	var list DrawList
	list.Submit(DrawItem{Material: &asset.Material{}})
	list.SubmitOverlay(DrawItem{Material: &asset.Material{}})

	list.Reset()

	if len(list.Opaque) != 0 || len(list.Transparent) != 0 || len(list.Overlay) != 0 {
		t.Fatalf("Reset did not clear all buckets: %+v", list)
	}
}
