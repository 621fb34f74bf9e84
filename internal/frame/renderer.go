// Package frame implements the three-subpass frame graph (§4.6): a
// shadow pass, an off-screen 3D pass, and an on-swapchain UI pass,
// recorded into three command buffers and submitted as one batch per
// frame.
package frame

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/config"
	"github.com/kestrel3d/kestrel/internal/deferred"
	"github.com/kestrel3d/kestrel/internal/descset"
	"github.com/kestrel3d/kestrel/internal/logging"
	"github.com/kestrel3d/kestrel/internal/pipeline"
	"github.com/kestrel3d/kestrel/internal/target"
	"github.com/kestrel3d/kestrel/pkg/uri"
	"github.com/kestrel3d/kestrel/pkg/winhost"
)

// Builtin shader URIs the renderer itself draws with, independent of
// any material (shadow depth-only pass, UI full-screen composite quad).
const (
	ShadowVertexShaderURI   uri.URI = "builtin://shadow.vert.spv"
	ShadowFragmentShaderURI uri.URI = "builtin://shadow.frag.spv"
	QuadVertexShaderURI     uri.URI = "builtin://fullscreen_quad.vert.spv"
	QuadFragmentShaderURI   uri.URI = "builtin://fullscreen_quad.frag.spv"
)

// ShaderSource resolves a shader URI to compiled SPIR-V. Asset
// providers (C7) implement this over the descriptor/glTF-authored
// shader pipeline; the renderer only needs read access to bytes.
type ShaderSource interface {
	Load(u uri.URI) ([]byte, error)
}

// reserved descriptor set numbers, fixed across every material shader
// so the renderer can bind them without per-material reflection.
const (
	setView     uint32 = 0
	setLights   uint32 = 1
	setJoints   uint32 = 2
	setMaterial uint32 = 3
)

const (
	bindingViewUBO    uint32 = 0
	bindingShadowMap  uint32 = 1
	bindingLightsSSBO uint32 = 0
	bindingJointsSSBO uint32 = 0
)

// frameSync is the ring-buffered set of per-in-flight-frame GPU
// objects the spec's "frame N in-flight" glossary entry describes:
// command buffers, semaphores, and a fence.
type frameSync struct {
	pool           gpu.CommandPool
	shadowCB       gpu.CommandBuffer
	sceneCB        gpu.CommandBuffer
	uiCB           gpu.CommandBuffer
	imageAvailable gpu.Semaphore
	renderFinished gpu.Semaphore
	inFlight       gpu.Fence
}

// Renderer owns the frame graph: it walks a DrawList into three
// recorded command buffers and submits them as one batch, synchronized
// with the swapchain through a single semaphore pair and a fence.
type Renderer struct {
	device gpu.Device
	queue  gpu.Queue

	swapchain *target.Swapchain
	shadow    *target.ShadowTarget
	offscreen *target.OffscreenTarget

	pipelines *pipeline.Cache
	shaders   ShaderSource

	pools    *descset.Pools
	scratch  *descset.Scratch
	samplers *descset.SamplerCache

	deferred *deferred.Queue
	log      *logging.Logger

	frames     []frameSync
	frameIndex int

	warnedPipelineFailures map[uint64]bool
}

// NewRenderer wires a Renderer over an already-constructed device,
// swapchain, render targets, pipeline cache, and descriptor machinery.
// ringSize must match the deferred queue's ring size (≥2).
func NewRenderer(
	device gpu.Device,
	queue gpu.Queue,
	queueFamilyIndex uint32,
	swapchain *target.Swapchain,
	shadow *target.ShadowTarget,
	offscreen *target.OffscreenTarget,
	pipelines *pipeline.Cache,
	shaders ShaderSource,
	pools *descset.Pools,
	scratch *descset.Scratch,
	samplers *descset.SamplerCache,
	dq *deferred.Queue,
	log *logging.Logger,
	ringSize int,
) (*Renderer, error) {
	r := &Renderer{
		device: device, queue: queue,
		swapchain: swapchain, shadow: shadow, offscreen: offscreen,
		pipelines: pipelines, shaders: shaders,
		pools: pools, scratch: scratch, samplers: samplers,
		deferred: dq, log: log,
		warnedPipelineFailures: make(map[uint64]bool),
	}

	for i := 0; i < ringSize; i++ {
		pool, err := device.CreateCommandPool(&gpu.CommandPoolCreateInfo{
			QueueFamilyIndex: queueFamilyIndex,
			Flags:            gpu.COMMAND_POOL_CREATE_RESET_COMMAND_BUFFER_BIT,
		})
		if err != nil {
			return nil, err
		}
		cbs, err := device.AllocateCommandBuffers(&gpu.CommandBufferAllocateInfo{
			CommandPool: pool, Level: gpu.COMMAND_BUFFER_LEVEL_PRIMARY, CommandBufferCount: 3,
		})
		if err != nil {
			return nil, err
		}
		imageAvailable, err := device.CreateSemaphore(&gpu.SemaphoreCreateInfo{})
		if err != nil {
			return nil, err
		}
		renderFinished, err := device.CreateSemaphore(&gpu.SemaphoreCreateInfo{})
		if err != nil {
			return nil, err
		}
		fence, err := device.CreateFence(&gpu.FenceCreateInfo{Flags: gpu.FENCE_CREATE_SIGNALED_BIT})
		if err != nil {
			return nil, err
		}
		r.frames = append(r.frames, frameSync{
			pool: pool, shadowCB: cbs[0], sceneCB: cbs[1], uiCB: cbs[2],
			imageAvailable: imageAvailable, renderFinished: renderFinished, inFlight: fence,
		})
	}
	return r, nil
}

// Frame is everything a tick of the scene hands the renderer: the
// resolved view/lights for the 3D pass, the three draw buckets, the UI
// draw list (already in its own orthographic space), and the
// immediate-mode GUI callback recorded last, inside the UI pass.
type Frame struct {
	View          ViewInputs
	Lights        []DirLight
	Scene         DrawList
	UI            DrawList
	GUI           winhost.GUI
	RenderMode    config.RenderMode
	ShadowFrustum config.ShadowFrustum
}

// Render records and submits exactly one frame. A swapchain acquire or
// present that reports NeedsRefresh skips drawing and tells the caller
// to recreate the swapchain (and, if the extent changed, the offscreen
// target) before the next call; that is not an error.
func (r *Renderer) Render(f Frame) (needsRefresh bool, err error) {
	fr := r.frames[r.frameIndex]
	defer func() {
		r.frameIndex = (r.frameIndex + 1) % len(r.frames)
		r.deferred.Next()
	}()

	if err := r.device.WaitForFences([]gpu.Fence{fr.inFlight}, true, ^uint64(0)); err != nil {
		return false, err
	}
	if err := r.device.ResetFences([]gpu.Fence{fr.inFlight}); err != nil {
		return false, err
	}

	r.pools.ResetAll()
	r.scratch.Reset()

	acquired, err := r.swapchain.Acquire(fr.imageAvailable)
	if err != nil {
		return false, err
	}
	if acquired.NeedsRefresh {
		return true, nil
	}

	if err := fr.shadowCB.Reset(0); err != nil {
		return false, err
	}
	if err := fr.shadowCB.Begin(&gpu.CommandBufferBeginInfo{Flags: gpu.COMMAND_BUFFER_USAGE_ONE_TIME_SUBMIT_BIT}); err != nil {
		return false, err
	}

	var primary DirLight
	if len(f.Lights) > 0 {
		primary = f.Lights[0]
	}
	shadowViewProj := ShadowViewProj(primary, f.View.CameraPos, f.ShadowFrustum)
	r.recordShadowPass(fr.shadowCB, f.Scene.Opaque, shadowViewProj)
	if err := fr.shadowCB.End(); err != nil {
		return false, err
	}

	if err := fr.sceneCB.Reset(0); err != nil {
		return false, err
	}
	if err := fr.sceneCB.Begin(&gpu.CommandBufferBeginInfo{Flags: gpu.COMMAND_BUFFER_USAGE_ONE_TIME_SUBMIT_BIT}); err != nil {
		return false, err
	}
	view := BuildViewData(f.View, primary, f.ShadowFrustum)
	lights := BuildLightsData(f.Lights)
	r.recordScenePass(fr.sceneCB, f, view, lights)
	if err := fr.sceneCB.End(); err != nil {
		return false, err
	}

	if err := fr.uiCB.Reset(0); err != nil {
		return false, err
	}
	if err := fr.uiCB.Begin(&gpu.CommandBufferBeginInfo{Flags: gpu.COMMAND_BUFFER_USAGE_ONE_TIME_SUBMIT_BIT}); err != nil {
		return false, err
	}
	r.recordUIPass(fr.uiCB, f, acquired)
	if err := fr.uiCB.End(); err != nil {
		return false, err
	}

	err = r.queue.Submit([]gpu.SubmitInfo{{
		WaitSemaphores:   []gpu.Semaphore{fr.imageAvailable},
		WaitDstStageMask: []gpu.PipelineStageFlags{gpu.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT},
		CommandBuffers:   []gpu.CommandBuffer{fr.shadowCB, fr.sceneCB, fr.uiCB},
		SignalSemaphores: []gpu.Semaphore{fr.renderFinished},
	}}, fr.inFlight)
	if err != nil {
		return false, err
	}

	presentNeedsRefresh, err := r.swapchain.Present(r.queue, fr.renderFinished, acquired.ImageIndex)
	if err != nil {
		return false, err
	}
	return presentNeedsRefresh, nil
}

// recordShadowPass binds every opaque, unskinned draw against the
// shadow pipeline (a position*light-mvp vertex shader, no-op fragment)
// and draws it into the shadow depth target.
func (r *Renderer) recordShadowPass(cb gpu.CommandBuffer, opaque []DrawItem, lightViewProj mgl32.Mat4) {
	cb.PipelineBarrier(
		gpu.PIPELINE_STAGE_EARLY_FRAGMENT_TESTS_BIT, gpu.PIPELINE_STAGE_EARLY_FRAGMENT_TESTS_BIT, 0,
		[]gpu.ImageMemoryBarrier{depthBarrier(r.shadow.Image(), gpu.IMAGE_LAYOUT_UNDEFINED, gpu.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL, 0, gpu.ACCESS_DEPTH_STENCIL_ATTACHMENT_WRITE_BIT)},
	)

	extent := r.shadow.Extent()
	cb.BeginRendering(&gpu.RenderingInfo{
		RenderArea: gpu.Rect2D{Extent: extent},
		LayerCount: 1,
		DepthAttachment: &gpu.RenderingAttachmentInfo{
			ImageView:   r.shadow.View(),
			ImageLayout: gpu.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL,
			LoadOp:      gpu.ATTACHMENT_LOAD_OP_CLEAR,
			StoreOp:     gpu.ATTACHMENT_STORE_OP_STORE,
			ClearValue:  gpu.ClearValue{DepthStencil: gpu.ClearDepthStencilValue{Depth: 1}},
		},
	})
	cb.SetViewport(0, []gpu.Viewport{{Width: float32(extent.Width), Height: float32(extent.Height), MaxDepth: 1}})
	cb.SetScissor(0, []gpu.Rect2D{{Extent: extent}})

	vert, vErr := r.shaders.Load(ShadowVertexShaderURI)
	frag, fErr := r.shaders.Load(ShadowFragmentShaderURI)
	if vErr != nil || fErr != nil {
		r.logPipelineFailureOnce(0, "shadow pass shader load failed")
	} else {
		for _, item := range opaque {
			if len(item.JointMatrices) > 0 {
				continue // shadow pass excludes skinned draws per §4.6
			}
			r.drawShadowItem(cb, item, vert, frag, lightViewProj)
		}
	}

	cb.EndRendering()
	cb.PipelineBarrier(
		gpu.PIPELINE_STAGE_LATE_FRAGMENT_TESTS_BIT, gpu.PIPELINE_STAGE_FRAGMENT_SHADER_BIT, 0,
		[]gpu.ImageMemoryBarrier{depthBarrier(r.shadow.Image(), gpu.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL, gpu.IMAGE_LAYOUT_DEPTH_STENCIL_READ_ONLY_OPTIMAL, gpu.ACCESS_DEPTH_STENCIL_ATTACHMENT_WRITE_BIT, gpu.ACCESS_SHADER_READ_BIT)},
	)
}

func (r *Renderer) drawShadowItem(cb gpu.CommandBuffer, item DrawItem, vert, frag []byte, lightViewProj mgl32.Mat4) {
	instanced := len(item.Instances) > 0
	input, inputHash := VertexInput(instanced, false)
	state := pipeline.State{
		DepthFormat: r.shadow.Format(),
		Samples:     gpu.SAMPLE_COUNT_1_BIT,
		PolygonMode: gpu.POLYGON_MODE_FILL,
		Topology:    item.Primitive.Topology,
		DepthTest:   true,
		DepthWrite:  true,
		CullMode:    gpu.CULL_MODE_BACK_BIT,
		VertexInput: input, VertexInputHash: inputHash,
	}
	pl, layout, err := r.pipelines.Pipeline(vert, frag, state)
	if err != nil {
		r.logPipelineFailureOnce(pipeline.ShaderHash(vert, frag), err.Error())
		return
	}

	cb.BindPipeline(gpu.PIPELINE_BIND_POINT_GRAPHICS, pl)
	mvp := lightViewProj.Mul4(item.ModelMatrix)
	cb.CmdPushConstants(layout, gpu.SHADER_STAGE_VERTEX_BIT, 0, 64, unsafe.Pointer(&mvp))
	r.issueDraw(cb, item)
}

// recordScenePass draws the off-screen 3D pass: opaque (material-
// sorted), transparent (camera-distance sorted back-to-front), then
// overlay (depth test disabled), against the View UBO/Lights SSBO/
// shadow-map-sampled material shaders.
func (r *Renderer) recordScenePass(cb gpu.CommandBuffer, f Frame, view ViewData, lights LightsData) {
	color := r.offscreen.ColorImage()
	depth := r.offscreen.DepthImage()
	cb.PipelineBarrier(gpu.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT, gpu.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT, 0, []gpu.ImageMemoryBarrier{
		colorBarrier(color, gpu.IMAGE_LAYOUT_UNDEFINED, gpu.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL, 0, gpu.ACCESS_COLOR_ATTACHMENT_WRITE_BIT),
	})
	cb.PipelineBarrier(gpu.PIPELINE_STAGE_EARLY_FRAGMENT_TESTS_BIT, gpu.PIPELINE_STAGE_EARLY_FRAGMENT_TESTS_BIT, 0, []gpu.ImageMemoryBarrier{
		depthBarrier(depth, gpu.IMAGE_LAYOUT_UNDEFINED, gpu.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL, 0, gpu.ACCESS_DEPTH_STENCIL_ATTACHMENT_WRITE_BIT),
	})

	extent := r.offscreen.Extent()
	colorAttachment := gpu.RenderingAttachmentInfo{
		ImageView:   r.offscreen.Color(),
		ImageLayout: gpu.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL,
		LoadOp:      gpu.ATTACHMENT_LOAD_OP_CLEAR,
		StoreOp:     gpu.ATTACHMENT_STORE_OP_STORE,
	}
	if r.offscreen.HasResolve() {
		colorAttachment.ResolveImageView = r.offscreen.SampledColor()
		colorAttachment.ResolveImageLayout = gpu.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL
	}
	cb.BeginRendering(&gpu.RenderingInfo{
		RenderArea:       gpu.Rect2D{Extent: extent},
		LayerCount:       1,
		ColorAttachments: []gpu.RenderingAttachmentInfo{colorAttachment},
		DepthAttachment: &gpu.RenderingAttachmentInfo{
			ImageView:   r.offscreen.Depth(),
			ImageLayout: gpu.IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL,
			LoadOp:      gpu.ATTACHMENT_LOAD_OP_CLEAR,
			StoreOp:     gpu.ATTACHMENT_STORE_OP_STORE,
			ClearValue:  gpu.ClearValue{DepthStencil: gpu.ClearDepthStencilValue{Depth: 1}},
		},
	})
	cb.SetViewport(0, []gpu.Viewport{{Width: float32(extent.Width), Height: float32(extent.Height), MaxDepth: 1}})
	cb.SetScissor(0, []gpu.Rect2D{{Extent: extent}})

	SortOpaque(f.Scene.Opaque)
	SortTransparent(f.Scene.Transparent, f.View.CameraPos)
	SortOpaque(f.Scene.Overlay)

	// The View UBO, Lights SSBO, and shadow-map sampler are written into
	// each draw's own descriptor sets in drawSceneItem, since the set
	// layout (and therefore which sets even exist) varies per material
	// shader pair.
	for _, item := range f.Scene.Opaque {
		r.drawSceneItem(cb, item, f.RenderMode, view, lights)
	}
	for _, item := range f.Scene.Transparent {
		r.drawSceneItem(cb, item, f.RenderMode, view, lights)
	}
	for _, item := range f.Scene.Overlay {
		r.drawSceneItem(cb, item, f.RenderMode, view, lights)
	}

	cb.EndRendering()

	sampled := r.offscreen.SampledColorImage()
	cb.PipelineBarrier(gpu.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT, gpu.PIPELINE_STAGE_FRAGMENT_SHADER_BIT, 0, []gpu.ImageMemoryBarrier{
		colorBarrier(sampled, gpu.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL, gpu.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL, gpu.ACCESS_COLOR_ATTACHMENT_WRITE_BIT, gpu.ACCESS_SHADER_READ_BIT),
	})
}

func (r *Renderer) drawSceneItem(cb gpu.CommandBuffer, item DrawItem, deviceDefault config.RenderMode, view ViewData, lights LightsData) {
	if item.Material == nil {
		return
	}
	vert, vErr := r.shaders.Load(item.Material.VertexShaderURI)
	frag, fErr := r.shaders.Load(item.Material.FragmentShaderURI)
	if vErr != nil || fErr != nil {
		r.logPipelineFailureOnce(uint64(item.Material.Kind), "material shader load failed")
		return
	}

	instanced := len(item.Instances) > 0
	skinned := len(item.JointMatrices) > 0
	vi, viHash := VertexInput(instanced, skinned)
	state := PipelineState(item, []gpu.Format{r.offscreen.Format()}, r.offscreen.DepthFormat(), r.offscreen.Samples(), deviceDefault, vi, viHash)

	pl, layout, err := r.pipelines.Pipeline(vert, frag, state)
	if err != nil {
		r.logPipelineFailureOnce(pipeline.ShaderHash(vert, frag), err.Error())
		return
	}

	layouts, err := r.pipelines.SetLayouts(vert, frag)
	if err != nil {
		r.logPipelineFailureOnce(pipeline.ShaderHash(vert, frag), err.Error())
		return
	}

	shader := descset.NewShader(r.pools, r.scratch, r.device, layouts)
	if int(setView) < len(layouts) {
		shader.Write(setView, bindingViewUBO, structBytes(unsafe.Pointer(&view), int(unsafe.Sizeof(view))))
		shadowSampler := descset.SamplerKey{
			AddressModeU: gpu.SAMPLER_ADDRESS_MODE_CLAMP_TO_BORDER,
			AddressModeV: gpu.SAMPLER_ADDRESS_MODE_CLAMP_TO_BORDER,
			BorderColor:  gpu.BORDER_COLOR_FLOAT_OPAQUE_WHITE,
		}
		if sampler, err := r.samplers.Get(shadowSampler); err == nil {
			shader.Update(setView, bindingShadowMap, r.shadow.View(), sampler)
		}
	}
	if int(setLights) < len(layouts) {
		shader.WriteStorage(setLights, bindingLightsSSBO, lightsBytes(lights))
	}
	if skinned && int(setJoints) < len(layouts) {
		shader.WriteStorage(setJoints, bindingJointsSSBO, jointsBytes(item.JointMatrices))
	}

	cb.BindPipeline(gpu.PIPELINE_BIND_POINT_GRAPHICS, pl)
	cb.SetLineWidth(item.Material.RenderMode.Merge(deviceDefault).LineWidth)
	shader.Bind(cb, layout)
	cb.CmdPushConstants(layout, gpu.SHADER_STAGE_VERTEX_BIT, 0, 64, unsafe.Pointer(&item.ModelMatrix))
	r.issueDraw(cb, item)
}

// recordUIPass samples the 3D resolve image through a full-screen
// triangle, draws UI primitives in an orthographic framebuffer-sized
// space, then hands the command buffer to the immediate-mode GUI
// callback.
func (r *Renderer) recordUIPass(cb gpu.CommandBuffer, f Frame, acquired target.AcquireResult) {
	swapImage := r.swapchain.Image(acquired.ImageIndex)
	cb.PipelineBarrier(gpu.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT, gpu.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT, 0, []gpu.ImageMemoryBarrier{
		colorBarrier(swapImage, gpu.IMAGE_LAYOUT_UNDEFINED, gpu.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL, 0, gpu.ACCESS_COLOR_ATTACHMENT_WRITE_BIT),
	})

	extent := r.swapchain.Extent()
	cb.BeginRendering(&gpu.RenderingInfo{
		RenderArea: gpu.Rect2D{Extent: extent},
		LayerCount: 1,
		ColorAttachments: []gpu.RenderingAttachmentInfo{{
			ImageView:   acquired.View,
			ImageLayout: gpu.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL,
			LoadOp:      gpu.ATTACHMENT_LOAD_OP_CLEAR,
			StoreOp:     gpu.ATTACHMENT_STORE_OP_STORE,
		}},
	})
	cb.SetViewport(0, []gpu.Viewport{{Width: float32(extent.Width), Height: float32(extent.Height), MaxDepth: 1}})
	cb.SetScissor(0, []gpu.Rect2D{{Extent: extent}})

	vert, vErr := r.shaders.Load(QuadVertexShaderURI)
	frag, fErr := r.shaders.Load(QuadFragmentShaderURI)
	if vErr == nil && fErr == nil {
		state := pipeline.State{
			ColorFormats: []gpu.Format{r.swapchain.Format()},
			Samples:      gpu.SAMPLE_COUNT_1_BIT,
			PolygonMode:  gpu.POLYGON_MODE_FILL,
			Topology:     gpu.PRIMITIVE_TOPOLOGY_TRIANGLE_LIST,
			CullMode:     gpu.CULL_MODE_NONE,
		}
		if pl, layout, err := r.pipelines.Pipeline(vert, frag, state); err == nil {
			cb.BindPipeline(gpu.PIPELINE_BIND_POINT_GRAPHICS, pl)
			if layouts, err := r.pipelines.SetLayouts(vert, frag); err == nil && len(layouts) > 0 {
				shader := descset.NewShader(r.pools, r.scratch, r.device, layouts)
				if sampler, err := r.samplers.Get(descset.SamplerKey{}); err == nil {
					shader.Update(0, 0, r.offscreen.SampledColor(), sampler)
					shader.Bind(cb, layout)
				}
			}
			cb.Draw(3, 1, 0, 0)
		} else {
			r.logPipelineFailureOnce(0, err.Error())
		}
	}

	SortOpaque(f.UI.Opaque)
	for _, item := range f.UI.Opaque {
		r.drawUIItem(cb, item)
	}

	if f.GUI != nil {
		f.GUI(cb)
	}

	cb.EndRendering()
	cb.PipelineBarrier(gpu.PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT, gpu.PIPELINE_STAGE_BOTTOM_OF_PIPE_BIT, 0, []gpu.ImageMemoryBarrier{
		colorBarrier(swapImage, gpu.IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL, gpu.IMAGE_LAYOUT_PRESENT_SRC_KHR, gpu.ACCESS_COLOR_ATTACHMENT_WRITE_BIT, 0),
	})
}

func (r *Renderer) drawUIItem(cb gpu.CommandBuffer, item DrawItem) {
	if item.Material == nil {
		return
	}
	vert, vErr := r.shaders.Load(item.Material.VertexShaderURI)
	frag, fErr := r.shaders.Load(item.Material.FragmentShaderURI)
	if vErr != nil || fErr != nil {
		r.logPipelineFailureOnce(0, "UI material shader load failed")
		return
	}
	input, inputHash := VertexInput(false, false)
	state := pipeline.State{
		ColorFormats: []gpu.Format{r.swapchain.Format()},
		Samples:      gpu.SAMPLE_COUNT_1_BIT,
		PolygonMode:  gpu.POLYGON_MODE_FILL,
		Topology:     item.Primitive.Topology,
		CullMode:     gpu.CULL_MODE_NONE,
		VertexInput:  input, VertexInputHash: inputHash,
	}
	pl, layout, err := r.pipelines.Pipeline(vert, frag, state)
	if err != nil {
		r.logPipelineFailureOnce(pipeline.ShaderHash(vert, frag), err.Error())
		return
	}
	cb.BindPipeline(gpu.PIPELINE_BIND_POINT_GRAPHICS, pl)
	cb.CmdPushConstants(layout, gpu.SHADER_STAGE_VERTEX_BIT, 0, 64, unsafe.Pointer(&item.ModelMatrix))
	r.issueDraw(cb, item)
}

func (r *Renderer) issueDraw(cb gpu.CommandBuffer, item DrawItem) {
	g := item.Primitive.Geometry
	cb.BindVertexBuffers(bindingVertex, []gpu.Buffer{g.VertexBuffer.Handle}, []uint64{0})
	if g.IndexCount > 0 {
		cb.BindIndexBuffer(g.IndexBuffer.Handle, 0, gpu.INDEX_TYPE_UINT32)
		cb.DrawIndexed(g.IndexCount, instanceCount(item), 0, 0, 0)
		return
	}
	cb.Draw(g.VertexCount, instanceCount(item), 0, 0)
}

func instanceCount(item DrawItem) uint32 {
	if len(item.Instances) > 0 {
		return uint32(len(item.Instances))
	}
	return 1
}

func (r *Renderer) logPipelineFailureOnce(key uint64, msg string) {
	if r.warnedPipelineFailures[key] {
		return
	}
	r.warnedPipelineFailures[key] = true
	if r.log != nil {
		r.log.Warnw("frame: dropping draw, pipeline build failed", "error", msg)
	}
}

func depthBarrier(img gpu.Image, oldLayout, newLayout gpu.ImageLayout, srcAccess, dstAccess gpu.AccessFlags) gpu.ImageMemoryBarrier {
	return gpu.ImageMemoryBarrier{
		SrcAccessMask: srcAccess, DstAccessMask: dstAccess,
		OldLayout: oldLayout, NewLayout: newLayout,
		SrcQueueFamilyIndex: ^uint32(0), DstQueueFamilyIndex: ^uint32(0),
		Image: img,
		SubresourceRange: gpu.ImageSubresourceRange{
			AspectMask: gpu.IMAGE_ASPECT_DEPTH_BIT, LevelCount: 1, LayerCount: 1,
		},
	}
}

func colorBarrier(img gpu.Image, oldLayout, newLayout gpu.ImageLayout, srcAccess, dstAccess gpu.AccessFlags) gpu.ImageMemoryBarrier {
	return gpu.ImageMemoryBarrier{
		SrcAccessMask: srcAccess, DstAccessMask: dstAccess,
		OldLayout: oldLayout, NewLayout: newLayout,
		SrcQueueFamilyIndex: ^uint32(0), DstQueueFamilyIndex: ^uint32(0),
		Image: img,
		SubresourceRange: gpu.ImageSubresourceRange{
			AspectMask: gpu.IMAGE_ASPECT_COLOR_BIT, LevelCount: 1, LayerCount: 1,
		},
	}
}

func structBytes(p unsafe.Pointer, size int) []byte {
	return unsafe.Slice((*byte)(p), size)
}

func lightsBytes(l LightsData) []byte {
	return structBytes(unsafe.Pointer(&l), int(unsafe.Sizeof(l)))
}

func jointsBytes(joints []mgl32.Mat4) []byte {
	if len(joints) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&joints[0])), len(joints)*int(unsafe.Sizeof(joints[0])))
}
