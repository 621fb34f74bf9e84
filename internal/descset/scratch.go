package descset

import (
	"unsafe"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/alloc"
	"github.com/kestrel3d/kestrel/pkg/kerr"
)

// defaultScratchBlockSize is the size of the first host-visible block a
// Scratch allocates; later blocks grow to fit whatever request didn't
// fit an existing block.
const defaultScratchBlockSize = 1 << 20

const scratchUsage = gpu.BUFFER_USAGE_UNIFORM_BUFFER_BIT | gpu.BUFFER_USAGE_STORAGE_BUFFER_BIT

// ScratchDevice is the subset of gpu.Device Scratch depends on.
type ScratchDevice interface {
	MapMemory(memory gpu.DeviceMemory, offset, size uint64) (unsafe.Pointer, error)
}

type scratchBlock struct {
	buf    alloc.Buffer
	mapped []byte
	used   uint64
}

// Scratch is a per-frame bump allocator over persistently-mapped,
// host-visible buffers. Allocate hands out sub-ranges of its blocks;
// Reset rewinds every block back to empty at the start of the next
// frame rather than freeing anything, so the same memory is reused
// frame over frame without churn.
type Scratch struct {
	allocator *alloc.Allocator
	device    ScratchDevice
	blockSize uint64
	blocks    []*scratchBlock
}

// NewScratch returns an empty Scratch pool; its first block is created
// lazily on the first Allocate call.
func NewScratch(allocator *alloc.Allocator, device ScratchDevice) *Scratch {
	return &Scratch{allocator: allocator, device: device, blockSize: defaultScratchBlockSize}
}

// Allocate returns a host-visible buffer, the byte offset within it at
// which size bytes of free space begin, and a []byte view over that
// range for the caller to copy into.
func (s *Scratch) Allocate(size uint64) (gpu.Buffer, uint64, []byte, error) {
	if size > s.blockSize {
		s.blockSize = size
	}
	for _, b := range s.blocks {
		if b.used+size <= uint64(len(b.mapped)) {
			offset := b.used
			b.used += size
			return b.buf.Handle, offset, b.mapped[offset : offset+size], nil
		}
	}

	block, err := s.newBlock()
	if err != nil {
		return gpu.Buffer{}, 0, nil, err
	}
	s.blocks = append(s.blocks, block)
	offset := block.used
	block.used += size
	return block.buf.Handle, offset, block.mapped[offset : offset+size], nil
}

func (s *Scratch) newBlock() (*scratchBlock, error) {
	buf, err := s.allocator.MakeBuffer(scratchUsage, s.blockSize, true)
	if err != nil {
		return nil, err
	}
	ptr, err := s.device.MapMemory(buf.Memory, 0, s.blockSize)
	if err != nil {
		return nil, kerr.New(kerr.AllocFailed, "descset.Scratch.newBlock", "", err)
	}
	return &scratchBlock{buf: buf, mapped: unsafe.Slice((*byte)(ptr), s.blockSize)}, nil
}

// Reset rewinds every block's bump offset to zero for frame reuse.
func (s *Scratch) Reset() {
	for _, b := range s.blocks {
		b.used = 0
	}
}

// Destroy queues every block's buffer for release through the deferred
// queue the backing Allocator was constructed with.
func (s *Scratch) Destroy() {
	for _, b := range s.blocks {
		s.allocator.DestroyBuffer(b.buf)
	}
	s.blocks = nil
}
