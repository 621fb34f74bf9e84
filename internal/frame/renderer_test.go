package frame

import (
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/internal/logging"
)

func TestInstanceCountReturnsOneWithNoInstances(t *testing.T) {
	if got := instanceCount(DrawItem{}); got != 1 {
		t.Fatalf("instanceCount = %d, want 1", got)
	}
}

func TestInstanceCountReturnsLenOfInstances(t *testing.T) {
	item := DrawItem{Instances: []mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4(), mgl32.Ident4()}}
	if got := instanceCount(item); got != 3 {
		t.Fatalf("instanceCount = %d, want 3", got)
	}
}

func TestLogPipelineFailureOnceWarnsOnlyOncePerKey(t *testing.T) {
	r := &Renderer{log: logging.Nop(), warnedPipelineFailures: make(map[uint64]bool)}

	r.logPipelineFailureOnce(7, "boom")
	r.logPipelineFailureOnce(7, "boom again")
	r.logPipelineFailureOnce(8, "different key")

	if !r.warnedPipelineFailures[7] {
		t.Fatalf("key 7 not recorded as warned")
	}
	if !r.warnedPipelineFailures[8] {
		t.Fatalf("key 8 not recorded as warned")
	}
	if len(r.warnedPipelineFailures) != 2 {
		t.Fatalf("warnedPipelineFailures = %v, want exactly 2 distinct keys", r.warnedPipelineFailures)
	}
}

func TestLogPipelineFailureOnceToleratesNilLogger(t *testing.T) {
	r := &Renderer{warnedPipelineFailures: make(map[uint64]bool)}
	// Must not panic with no logger configured.
	r.logPipelineFailureOnce(1, "anything")
}

func TestJointsBytesEmptyForNoJoints(t *testing.T) {
	if b := jointsBytes(nil); b != nil {
		t.Fatalf("jointsBytes(nil) = %v, want nil", b)
	}
}

func TestJointsBytesLengthMatchesMatrixSize(t *testing.T) {
	joints := []mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4()}
	b := jointsBytes(joints)
	if len(b) != 2*16*4 {
		t.Fatalf("len(jointsBytes) = %d, want %d", len(b), 2*16*4)
	}
}

func TestLightsBytesLengthMatchesLightsDataSize(t *testing.T) {
	b := lightsBytes(LightsData{})
	if len(b) == 0 {
		t.Fatalf("lightsBytes returned empty slice")
	}
	if want := int(unsafe.Sizeof(LightsData{})); len(b) != want {
		t.Fatalf("len(lightsBytes) = %d, want %d", len(b), want)
	}
}

func TestBuiltinShaderURIsAreDistinct(t *testing.T) {
	uris := map[string]bool{
		string(ShadowVertexShaderURI):   true,
		string(ShadowFragmentShaderURI): true,
		string(QuadVertexShaderURI):     true,
		string(QuadFragmentShaderURI):   true,
	}
	if len(uris) != 4 {
		t.Fatalf("builtin shader URIs are not all distinct: %v", uris)
	}
}
