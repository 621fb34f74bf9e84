// Package hashcombine implements the boost-style hash_combine used
// throughout the original engine to fold a sequence of field hashes
// into a single content hash (mesh dedup keys, pipeline cache keys).
//
// No third-party hashing library appears anywhere in the retrieved
// corpus; this is built on hash/maphash, the standard library's
// seeded, non-cryptographic hasher, which is the direct Go analogue of
// the original's std::hash-based combine.
package hashcombine

import (
	"hash/maphash"
	"math"
)

// Hash accumulates combined values into a single uint64 digest.
type Hash struct {
	seed maphash.Seed
	sum  uint64
}

// processSeed is shared by every Hash so that two Hash values built
// from identical input produce identical sums within one process run —
// required for content hashes to be usable as cache keys and for the
// read(write(x)) == hash(x) stability invariant the geometry codec
// relies on. Only the seed, not the resulting digest, is process-local;
// digests are not meant to be stable across process restarts.
var processSeed = maphash.MakeSeed()

// New returns a Hash ready to accumulate Combine calls; calls on the
// same Hash are order-sensitive, matching the original's sequential
// hash_combine(seed, value) chaining.
func New() *Hash {
	return &Hash{seed: processSeed}
}

// Combine folds v's hash into the running sum, boost::hash_combine
// style: seed ^= hash(v) + 0x9e3779b9 + (seed<<6) + (seed>>2).
func (h *Hash) Combine(v uint64) *Hash {
	var mh maphash.Hash
	mh.SetSeed(h.seed)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	mh.Write(buf[:])
	hv := mh.Sum64()
	h.sum ^= hv + 0x9e3779b9 + (h.sum << 6) + (h.sum >> 2)
	return h
}

// CombineFloat32 folds the bit pattern of f into the running sum.
func (h *Hash) CombineFloat32(f float32) *Hash {
	return h.Combine(uint64(math.Float32bits(f)))
}

// CombineBytes folds an arbitrary byte slice into the running sum.
func (h *Hash) CombineBytes(b []byte) *Hash {
	var mh maphash.Hash
	mh.SetSeed(h.seed)
	mh.Write(b)
	hv := mh.Sum64()
	h.sum ^= hv + 0x9e3779b9 + (h.sum << 6) + (h.sum >> 2)
	return h
}

// Sum returns the current combined digest.
func (h *Hash) Sum() uint64 { return h.sum }

// Floats32 combines a slice of float32s in order, used for vertex
// position/normal/uv streams when deriving a mesh content hash.
func Floats32(vs ...float32) uint64 {
	h := New()
	for _, v := range vs {
		h.CombineFloat32(v)
	}
	return h.Sum()
}

// Uint64s combines a slice of uint64s in order, used for index buffers
// and id lists when deriving a content hash.
func Uint64s(vs ...uint64) uint64 {
	h := New()
	for _, v := range vs {
		h.Combine(v)
	}
	return h.Sum()
}
