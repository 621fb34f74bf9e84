package xform

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewIsIdentity(t *testing.T) {
	tr := New()
	m := tr.Matrix()
	if m != mgl32.Ident4() {
		t.Errorf("expected identity matrix, got %v", m)
	}
	if tr.IsDirty() {
		t.Errorf("matrix should be clean right after Matrix()")
	}
}

func TestSetPositionMarksDirtyAndRecomputes(t *testing.T) {
	tr := New()
	tr.SetPosition(mgl32.Vec3{1, 2, 3})
	if !tr.IsDirty() {
		t.Fatalf("expected dirty after SetPosition")
	}
	m := tr.Matrix()
	if tr.IsDirty() {
		t.Errorf("expected clean after Matrix()")
	}
	got := mgl32.Vec3{m[12], m[13], m[14]}
	want := mgl32.Vec3{1, 2, 3}
	if got != want {
		t.Errorf("translation = %v, want %v", got, want)
	}
}

func TestSetOrientationNormalizes(t *testing.T) {
	tr := New()
	tr.SetOrientation(mgl32.Quat{W: 2, V: mgl32.Vec3{0, 0, 0}})
	q := tr.Orientation()
	len := q.Norm()
	if len < 0.999 || len > 1.001 {
		t.Errorf("expected normalized quaternion, norm = %v", len)
	}
}

func TestRotateComposesOntoOrientation(t *testing.T) {
	tr := New()
	tr.Rotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	if !tr.IsDirty() {
		t.Fatalf("expected dirty after Rotate")
	}
	m := tr.Matrix()
	v4 := m.Mul4x1(mgl32.Vec4{0, 0, -1, 0})
	forward := mgl32.Vec3{v4.X(), v4.Y(), v4.Z()}
	if forward.X() > -0.9 {
		t.Errorf("rotated forward = %v, expected roughly -X", forward)
	}
}

func TestMat4RowMajorRoundTrip(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(30)))
	row := Mat4ToRowMajor(m)
	got := Mat4FromRowMajor(row)
	if got != m {
		t.Fatalf("round trip mismatch:\ngot  %v\nwant %v", got, m)
	}
}

func TestMat4ToRowMajorTranslationInLastColumn(t *testing.T) {
	m := mgl32.Translate3D(4, 5, 6)
	row := Mat4ToRowMajor(m)
	// Row-major layout: translation occupies indices 3, 7, 11 (last
	// column of each of the first three rows).
	if row[3] != 4 || row[7] != 5 || row[11] != 6 {
		t.Fatalf("row = %v, want translation at indices 3/7/11", row)
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	tr := New()
	tr.SetData(Data{
		Position:    mgl32.Vec3{5, -2, 1},
		Orientation: mgl32.QuatRotate(mgl32.DegToRad(45), mgl32.Vec3{0, 1, 0}),
		Scale:       mgl32.Vec3{2, 2, 2},
	})
	m := tr.Matrix()

	tr2 := New()
	tr2.Decompose(m)
	if tr2.IsDirty() {
		t.Errorf("Decompose should leave the transform clean")
	}

	gotPos := tr2.Position()
	wantPos := mgl32.Vec3{5, -2, 1}
	if gotPos.Sub(wantPos).Len() > 1e-3 {
		t.Errorf("decomposed position = %v, want %v", gotPos, wantPos)
	}
	gotScale := tr2.Scale()
	wantScale := mgl32.Vec3{2, 2, 2}
	if gotScale.Sub(wantScale).Len() > 1e-3 {
		t.Errorf("decomposed scale = %v, want %v", gotScale, wantScale)
	}
}
