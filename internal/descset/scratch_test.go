package descset

import (
	"testing"

	"github.com/kestrel3d/kestrel/internal/alloc"
)

// newTestScratch builds a Scratch with one pre-populated block, so the
// bump-allocation and reset logic can be exercised without the live
// device/allocator newBlock needs to carve out host-visible memory.
func newTestScratch(blockSize uint64) *Scratch {
	return &Scratch{
		blockSize: blockSize,
		blocks: []*scratchBlock{
			{buf: alloc.Buffer{}, mapped: make([]byte, blockSize)},
		},
	}
}

func TestScratchAllocateBumpsWithinExistingBlock(t *testing.T) {
	s := newTestScratch(64)

	_, off1, data1, err := s.Allocate(16)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if off1 != 0 {
		t.Errorf("first offset = %d, want 0", off1)
	}
	if len(data1) != 16 {
		t.Errorf("len(data1) = %d, want 16", len(data1))
	}

	_, off2, data2, err := s.Allocate(8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if off2 != 16 {
		t.Errorf("second offset = %d, want 16 (bumped past first allocation)", off2)
	}
	if len(data2) != 8 {
		t.Errorf("len(data2) = %d, want 8", len(data2))
	}
	if len(s.blocks) != 1 {
		t.Errorf("blocks = %d, want 1 (both allocations fit the existing block)", len(s.blocks))
	}
}

func TestScratchAllocateGrowsBlockSizeWhenRequestExceedsIt(t *testing.T) {
	// the backing block is made large enough to satisfy the oversized
	// request itself, so Allocate never needs to reach newBlock (which
	// requires a live allocator); this isolates the blockSize-growth
	// assignment from the block-creation path.
	s := newTestScratch(32)
	s.blocks[0].mapped = make([]byte, 256)

	if _, _, _, err := s.Allocate(100); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if s.blockSize != 100 {
		t.Errorf("blockSize = %d, want 100 (grown to the oversized request)", s.blockSize)
	}
	if len(s.blocks) != 1 {
		t.Errorf("blocks = %d, want 1 (existing block had room once grown)", len(s.blocks))
	}
}

func TestScratchResetRewindsEveryBlockWithoutLosingIt(t *testing.T) {
	s := newTestScratch(64)
	s.Allocate(40)
	if s.blocks[0].used != 40 {
		t.Fatalf("used = %d, want 40 before Reset", s.blocks[0].used)
	}

	s.Reset()
	if s.blocks[0].used != 0 {
		t.Errorf("used = %d, want 0 after Reset", s.blocks[0].used)
	}
	if len(s.blocks) != 1 {
		t.Errorf("blocks = %d, want 1 (Reset must not drop blocks)", len(s.blocks))
	}

	// the block is reusable immediately after Reset.
	_, off, _, err := s.Allocate(10)
	if err != nil {
		t.Fatalf("Allocate after Reset: %v", err)
	}
	if off != 0 {
		t.Errorf("offset after Reset = %d, want 0", off)
	}
}
