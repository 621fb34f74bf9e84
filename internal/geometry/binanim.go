package geometry

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kestrel3d/kestrel/pkg/hashcombine"
	"github.com/kestrel3d/kestrel/pkg/kerr"
)

// SamplerType selects which part of a joint's local transform a
// sampler's keyframes drive.
type SamplerType uint8

const (
	SamplerTranslation SamplerType = iota
	SamplerRotation
	SamplerScale
)

// Interpolation selects how Interpolator.Sample blends between two
// bracketing keyframes (the Step/Linear split spec §4.11 describes).
type Interpolation uint8

const (
	InterpStep Interpolation = iota
	InterpLinear
)

// valueWidth returns how many float32 components a sampler's value
// occupies: 3 for translation/scale, 4 for rotation (a quaternion).
func (t SamplerType) valueWidth() int {
	if t == SamplerRotation {
		return 4
	}
	return 3
}

// Keyframe is one (timestamp, value) sample; only the first
// Type.valueWidth() components of Value are meaningful.
type Keyframe struct {
	Time  float32
	Value [4]float32
}

// Sampler is one animated channel: a typed, interpolated keyframe
// stream targeting one joint (identified by index into the owning
// SkeletalAnimation's TargetJoints, §4.8's "target joint indices"
// array — one entry per sampler, in sampler order).
type Sampler struct {
	Type          SamplerType
	Interpolation Interpolation
	Keyframes     []Keyframe
}

// SkeletalAnimation is the decoded BinSkeletalAnimation payload: one
// sampler per animated channel, the joint each targets, and the
// animation's name.
type SkeletalAnimation struct {
	Name         string
	Samplers     []Sampler
	TargetJoints []uint64
}

type animHeader struct {
	Hash         uint64
	SamplerCount uint64
	TargetCount  uint64
	NameLength   uint64
}

// HashSkeletalAnimation folds the sampler/target/name counts and every
// sampler's type, interpolation, and keyframe count into a single
// digest — enough to catch a truncated or reordered file without
// hashing every keyframe value, matching BinGeometry's "hash the
// shape, not the full payload" approach.
func HashSkeletalAnimation(a SkeletalAnimation) uint64 {
	h := hashcombine.New()
	h.Combine(uint64(len(a.Samplers)))
	h.Combine(uint64(len(a.TargetJoints)))
	h.Combine(uint64(len(a.Name)))
	for _, s := range a.Samplers {
		h.Combine(uint64(s.Type))
		h.Combine(uint64(s.Interpolation))
		h.Combine(uint64(len(s.Keyframes)))
	}
	for _, t := range a.TargetJoints {
		h.Combine(t)
	}
	h.CombineBytes([]byte(a.Name))
	return h.Sum()
}

// EncodeSkeletalAnimation writes a in BinSkeletalAnimation's
// little-endian layout: header, then per-sampler {type,
// interpolation, keyframe_count} followed by its keyframes, then the
// target joint index array, then the raw name bytes.
func EncodeSkeletalAnimation(w io.Writer, a SkeletalAnimation) error {
	header := animHeader{
		Hash:         HashSkeletalAnimation(a),
		SamplerCount: uint64(len(a.Samplers)),
		TargetCount:  uint64(len(a.TargetJoints)),
		NameLength:   uint64(len(a.Name)),
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return err
	}
	for _, s := range a.Samplers {
		if err := binary.Write(bw, binary.LittleEndian, s.Type); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, s.Interpolation); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint64(len(s.Keyframes))); err != nil {
			return err
		}
		width := s.Type.valueWidth()
		for _, kf := range s.Keyframes {
			if err := binary.Write(bw, binary.LittleEndian, kf.Time); err != nil {
				return err
			}
			if err := binary.Write(bw, binary.LittleEndian, kf.Value[:width]); err != nil {
				return err
			}
		}
	}
	for _, t := range a.TargetJoints {
		if err := binary.Write(bw, binary.LittleEndian, t); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString(a.Name); err != nil {
		return err
	}
	return bw.Flush()
}

// DecodeSkeletalAnimation reads a BinSkeletalAnimation stream, failing
// with kerr.CorruptAsset on a hash mismatch.
func DecodeSkeletalAnimation(r io.Reader) (SkeletalAnimation, error) {
	var header animHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return SkeletalAnimation{}, fmt.Errorf("geometry: read animation header: %w", err)
	}

	a := SkeletalAnimation{
		Samplers:     make([]Sampler, header.SamplerCount),
		TargetJoints: make([]uint64, header.TargetCount),
	}
	for i := range a.Samplers {
		var typ SamplerType
		var interp Interpolation
		var count uint64
		if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
			return SkeletalAnimation{}, fmt.Errorf("geometry: read sampler %d type: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &interp); err != nil {
			return SkeletalAnimation{}, fmt.Errorf("geometry: read sampler %d interpolation: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return SkeletalAnimation{}, fmt.Errorf("geometry: read sampler %d keyframe count: %w", i, err)
		}
		width := typ.valueWidth()
		keyframes := make([]Keyframe, count)
		for k := range keyframes {
			if err := binary.Read(r, binary.LittleEndian, &keyframes[k].Time); err != nil {
				return SkeletalAnimation{}, fmt.Errorf("geometry: read sampler %d keyframe %d time: %w", i, k, err)
			}
			if err := binary.Read(r, binary.LittleEndian, keyframes[k].Value[:width]); err != nil {
				return SkeletalAnimation{}, fmt.Errorf("geometry: read sampler %d keyframe %d value: %w", i, k, err)
			}
		}
		a.Samplers[i] = Sampler{Type: typ, Interpolation: interp, Keyframes: keyframes}
	}
	for i := range a.TargetJoints {
		if err := binary.Read(r, binary.LittleEndian, &a.TargetJoints[i]); err != nil {
			return SkeletalAnimation{}, fmt.Errorf("geometry: read target joint %d: %w", i, err)
		}
	}
	if header.NameLength > 0 {
		name := make([]byte, header.NameLength)
		if _, err := io.ReadFull(r, name); err != nil {
			return SkeletalAnimation{}, fmt.Errorf("geometry: read animation name: %w", err)
		}
		a.Name = string(name)
	}

	gotHash := HashSkeletalAnimation(a)
	if gotHash != header.Hash {
		return SkeletalAnimation{}, kerr.New(kerr.CorruptAsset, "geometry.DecodeSkeletalAnimation", a.Name, fmt.Errorf("hash mismatch: stored %#x, computed %#x", header.Hash, gotHash))
	}
	return a, nil
}
