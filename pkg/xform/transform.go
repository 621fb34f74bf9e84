// Package xform implements the engine's affine transform: position,
// orientation, and scale, with a lazily recomputed 4x4 matrix. Ported
// from the original C++ Transform (position/orientation/scale, dirty
// flag, decompose) onto github.com/go-gl/mathgl.
package xform

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Data is the front-end representation of a Transform: the three
// independent components a caller sets.
type Data struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
	Scale       mgl32.Vec3
}

// DefaultData returns the identity transform's data.
func DefaultData() Data {
	return Data{
		Position:    mgl32.Vec3{0, 0, 0},
		Orientation: mgl32.QuatIdent(),
		Scale:       mgl32.Vec3{1, 1, 1},
	}
}

// Transform caches its combined matrix and only recomputes it when a
// setter has marked it dirty, mirroring the original engine's
// Transform::matrix()/recompute() pair.
type Transform struct {
	data   Data
	matrix mgl32.Mat4
	dirty  bool
}

// New returns an identity transform.
func New() *Transform {
	t := &Transform{data: DefaultData(), matrix: mgl32.Ident4()}
	return t
}

func (t *Transform) Data() Data { return t.data }

func (t *Transform) Position() mgl32.Vec3 { return t.data.Position }

func (t *Transform) Orientation() mgl32.Quat { return t.data.Orientation }

func (t *Transform) Scale() mgl32.Vec3 { return t.data.Scale }

func (t *Transform) SetData(data Data) {
	t.data = data
	t.dirty = true
}

func (t *Transform) SetPosition(p mgl32.Vec3) {
	t.data.Position = p
	t.dirty = true
}

func (t *Transform) SetOrientation(q mgl32.Quat) {
	t.data.Orientation = q.Normalize()
	t.dirty = true
}

func (t *Transform) SetScale(s mgl32.Vec3) {
	t.data.Scale = s
	t.dirty = true
}

// Rotate composes an angle-axis rotation onto the current orientation.
func (t *Transform) Rotate(radians float32, axis mgl32.Vec3) {
	t.data.Orientation = mgl32.QuatRotate(radians, axis).Mul(t.data.Orientation)
	t.dirty = true
}

// IsDirty reports whether Matrix would recompute on the next call.
func (t *Transform) IsDirty() bool { return t.dirty }

// Matrix returns the combined translate * rotate * scale matrix,
// recomputing it first if any setter has run since the last call.
func (t *Transform) Matrix() mgl32.Mat4 {
	if t.dirty {
		t.recompute()
	}
	return t.matrix
}

func (t *Transform) recompute() {
	translate := mgl32.Translate3D(t.data.Position[0], t.data.Position[1], t.data.Position[2])
	rotate := t.data.Orientation.Mat4()
	scale := mgl32.Scale3D(t.data.Scale[0], t.data.Scale[1], t.data.Scale[2])
	t.matrix = translate.Mul4(rotate).Mul4(scale)
	t.dirty = false
}

// Mat4ToRowMajor returns m's elements in row-major order, the layout
// persisted JSON ("transform: mat4", §6) uses; mgl32.Mat4 itself is
// stored column-major.
func Mat4ToRowMajor(m mgl32.Mat4) [16]float32 {
	var out [16]float32
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out[row*4+col] = m[col*4+row]
		}
	}
	return out
}

// Mat4FromRowMajor is Mat4ToRowMajor's inverse.
func Mat4FromRowMajor(a [16]float32) mgl32.Mat4 {
	var m mgl32.Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m[col*4+row] = a[row*4+col]
		}
	}
	return m
}

// Decompose reconstructs position, orientation, and scale from an
// arbitrary 4x4 matrix and assigns them, marking the transform clean
// (the matrix itself becomes mat, unmodified).
func (t *Transform) Decompose(mat mgl32.Mat4) {
	pos, orient, scale := Decompose(mat)
	t.data = Data{Position: pos, Orientation: orient, Scale: scale}
	t.matrix = mat
	t.dirty = false
}

// Decompose extracts position, orientation, and scale from a
// transformation matrix assembled as translate * rotate * scale.
// Negative scale (mirrored bases) is not recovered — the magnitude of
// each column is always returned as positive, matching the original
// engine's decompose semantics used for round-tripping authored
// transforms.
func Decompose(mat mgl32.Mat4) (position mgl32.Vec3, orientation mgl32.Quat, scale mgl32.Vec3) {
	position = mgl32.Vec3{mat[12], mat[13], mat[14]}

	col0 := mgl32.Vec3{mat[0], mat[1], mat[2]}
	col1 := mgl32.Vec3{mat[4], mat[5], mat[6]}
	col2 := mgl32.Vec3{mat[8], mat[9], mat[10]}

	scale = mgl32.Vec3{col0.Len(), col1.Len(), col2.Len()}

	var rot mgl32.Mat3
	if scale[0] != 0 {
		rot[0], rot[1], rot[2] = col0[0]/scale[0], col0[1]/scale[0], col0[2]/scale[0]
	}
	if scale[1] != 0 {
		rot[3], rot[4], rot[5] = col1[0]/scale[1], col1[1]/scale[1], col1[2]/scale[1]
	}
	if scale[2] != 0 {
		rot[6], rot[7], rot[8] = col2[0]/scale[2], col2[1]/scale[2], col2[2]/scale[2]
	}

	orientation = mgl32.Mat3ToQuat(rot).Normalize()
	return position, orientation, scale
}
