package frame

import (
	"sort"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/asset"
	"github.com/kestrel3d/kestrel/internal/config"
	"github.com/kestrel3d/kestrel/internal/pipeline"
)

// DrawItem is one primitive a scene component submitted this frame.
// Material is a pointer so the opaque sort can key on pointer identity
// (draws sharing a material batch adjacently without any map lookup).
type DrawItem struct {
	Primitive   asset.MeshPrimitive
	Material    *asset.Material
	ModelMatrix mgl32.Mat4
	NodeOrigin  mgl32.Vec3
	// JointMatrices is non-empty only for a skinned draw; it is bound
	// as the joint storage buffer (joint_world * inverse_bind_matrix).
	JointMatrices []mgl32.Mat4
	// Instances, when non-empty, makes this one instanced draw of
	// per-instance model matrices instead of ModelMatrix alone.
	Instances []mgl32.Mat4
	// DepthTestOverride, when set, forces depth_test regardless of the
	// material's RenderMode — used for overlay draws (§4.6), which
	// always render with depth testing disabled.
	DepthTestOverride *bool
}

// DrawList is what scene components append to each frame (§4.10):
// opaque and transparent are separated by the material's alpha mode,
// overlay is a third bucket the renderer draws depth-test-disabled.
type DrawList struct {
	Opaque      []DrawItem
	Transparent []DrawItem
	Overlay     []DrawItem
}

func (l *DrawList) Reset() {
	l.Opaque = l.Opaque[:0]
	l.Transparent = l.Transparent[:0]
	l.Overlay = l.Overlay[:0]
}

// Submit files a draw item into the opaque or transparent bucket based
// on the material's alpha mode (Blend draws are transparent; Mask
// alpha-tests in-shader but still sorts as opaque, since its coverage
// is resolved per-pixel rather than order-dependent).
func (l *DrawList) Submit(item DrawItem) {
	if item.Material != nil && item.Material.Kind == asset.MaterialLit && item.Material.AlphaMode == asset.AlphaBlend {
		l.Transparent = append(l.Transparent, item)
		return
	}
	l.Opaque = append(l.Opaque, item)
}

// SubmitOverlay files a draw item into the overlay bucket (e.g. debug
// AABBs), always rendered with depth test disabled.
func (l *DrawList) SubmitOverlay(item DrawItem) {
	disabled := false
	item.DepthTestOverride = &disabled
	l.Overlay = append(l.Overlay, item)
}

// SortOpaque orders opaque (and overlay) draws by material pointer so
// adjacent draws share pipeline/descriptor state.
func SortOpaque(items []DrawItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return materialAddr(items[i].Material) < materialAddr(items[j].Material)
	})
}

func materialAddr(m *asset.Material) uintptr {
	return uintptr(unsafe.Pointer(m))
}

// SortTransparent orders transparent draws back-to-front by decreasing
// squared distance of the node's origin to the camera position, per
// invariant 8: for any pair (a,b), |a-cam|² > |b-cam|² implies a
// precedes b.
func SortTransparent(items []DrawItem, cameraPos mgl32.Vec3) {
	sort.SliceStable(items, func(i, j int) bool {
		di := distSq(items[i].NodeOrigin, cameraPos)
		dj := distSq(items[j].NodeOrigin, cameraPos)
		return di > dj
	})
}

func distSq(a, b mgl32.Vec3) float32 {
	d := a.Sub(b)
	return d.Dot(d)
}

// PipelineState derives the second-level pipeline cache key for a draw,
// merging the material's RenderMode with the device default and
// applying any per-draw depth-test override (overlay draws).
func PipelineState(item DrawItem, colorFormats []gpu.Format, depthFormat gpu.Format, samples gpu.SampleCountFlags, deviceDefault config.RenderMode, vertexInput gpu.PipelineVertexInputStateCreateInfo, vertexInputHash uint64) pipeline.State {
	merged := item.Material.RenderMode.Merge(deviceDefault)
	if item.DepthTestOverride != nil {
		merged.DepthTest = *item.DepthTestOverride
	}
	return pipeline.State{
		ColorFormats:    colorFormats,
		DepthFormat:     depthFormat,
		Samples:         samples,
		PolygonMode:     merged.PolygonMode,
		Topology:        item.Primitive.Topology,
		DepthTest:       merged.DepthTest,
		DepthWrite:      merged.DepthTest,
		CullMode:        gpu.CULL_MODE_BACK_BIT,
		VertexInput:     vertexInput,
		VertexInputHash: vertexInputHash,
	}
}
