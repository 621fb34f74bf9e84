package pipeline

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/deferred"
	"github.com/kestrel3d/kestrel/pkg/hashcombine"
	"github.com/kestrel3d/kestrel/pkg/kerr"
)

// State is the second-level cache key: everything about a draw that
// determines its compiled gpu.Pipeline once the shader pair (and
// therefore the descriptor/pipeline layout) is fixed.
type State struct {
	ColorFormats    []gpu.Format
	DepthFormat     gpu.Format
	Samples         gpu.SampleCountFlags
	PolygonMode     gpu.PolygonMode
	Topology        gpu.PrimitiveTopology
	DepthTest       bool
	DepthWrite      bool
	CullMode        gpu.CullModeFlags
	VertexInput     gpu.PipelineVertexInputStateCreateInfo
	VertexInputHash uint64
}

// shaderEntry is the first-level cache entry: everything reflection
// derives from a vert+frag SPIR-V pair, shared by every State built
// against that pair.
type shaderEntry struct {
	setLayouts []gpu.DescriptorSetLayout
	layout     gpu.PipelineLayout
	vertModule gpu.ShaderModule
	fragModule gpu.ShaderModule
	vertStage  gpu.PipelineShaderStageCreateInfo
	fragStage  gpu.PipelineShaderStageCreateInfo
	pipelines  map[uint64]gpu.Pipeline
}

// Cache is the two-level pipeline cache described by the renderer:
// first keyed on combine(vert_spirv_hash, frag_spirv_hash), second on
// the render state (format, polygon mode, topology, depth test, vertex
// input) for that shader pair.
type Cache struct {
	device   gpu.Device
	deferred *deferred.Queue

	mu      sync.Mutex
	shaders map[uint64]*shaderEntry
}

// New returns an empty Cache. The cache keeps deferredQueue but destroys
// the objects it creates directly: a duplicate built by a losing
// concurrent build is destroyed at once (no command buffer has used it),
// and Destroy releases everything else without going through the queue.
func New(device gpu.Device, deferredQueue *deferred.Queue) *Cache {
	return &Cache{device: device, deferred: deferredQueue, shaders: make(map[uint64]*shaderEntry)}
}

// ShaderHash returns the first-level cache key for a vert+frag SPIR-V
// pair, exported so callers (the material loader) can tell whether two
// materials will land in the same first-level entry without forcing a
// build.
func ShaderHash(vertSPIRV, fragSPIRV []byte) uint64 {
	h := hashcombine.New()
	h.CombineBytes(vertSPIRV)
	h.CombineBytes(fragSPIRV)
	return h.Sum()
}

// Pipeline returns the gpu.Pipeline and gpu.PipelineLayout for the given
// shader pair and state, building and caching whatever isn't already
// present. A build failure is surfaced as a *kerr.Error of kind
// PipelineBuildFailed and the failed state is not inserted into the
// second level; a shader entry built on the way stays in the first.
func (c *Cache) Pipeline(vertSPIRV, fragSPIRV []byte, state State) (gpu.Pipeline, gpu.PipelineLayout, error) {
	entry, err := c.ensureShaderEntry(vertSPIRV, fragSPIRV)
	if err != nil {
		return gpu.Pipeline{}, gpu.PipelineLayout{}, err
	}

	stateHash := hashState(state)

	c.mu.Lock()
	pipeline, ok := entry.pipelines[stateHash]
	c.mu.Unlock()
	if ok {
		return pipeline, entry.layout, nil
	}

	built, err := c.buildPipeline(entry, state)
	if err != nil {
		return gpu.Pipeline{}, gpu.PipelineLayout{}, kerr.New(kerr.PipelineBuildFailed, "pipeline.build", "", err)
	}

	c.mu.Lock()
	if existing, raced := entry.pipelines[stateHash]; raced {
		pipeline = existing
		c.device.DestroyPipeline(built)
	} else {
		entry.pipelines[stateHash] = built
		pipeline = built
	}
	c.mu.Unlock()

	return pipeline, entry.layout, nil
}

// ensureShaderEntry returns the cached first-level entry for a shader
// pair, building it (once, racing goroutines keep the first winner)
// if it isn't already present.
func (c *Cache) ensureShaderEntry(vertSPIRV, fragSPIRV []byte) (*shaderEntry, error) {
	shaderKey := ShaderHash(vertSPIRV, fragSPIRV)

	c.mu.Lock()
	entry, ok := c.shaders[shaderKey]
	c.mu.Unlock()
	if ok {
		return entry, nil
	}

	built, err := c.buildShaderEntry(vertSPIRV, fragSPIRV)
	if err != nil {
		return nil, kerr.New(kerr.PipelineBuildFailed, "pipeline.reflect", "", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, raced := c.shaders[shaderKey]; raced {
		// Another goroutine built the same entry first; keep theirs,
		// discard ours rather than leaking the duplicate objects into
		// a second live entry under the same key.
		c.destroyShaderEntry(built)
		return existing, nil
	}
	c.shaders[shaderKey] = built
	return built, nil
}

// SetLayouts returns the descriptor set layouts reflected from a shader
// pair (building the first-level entry if needed), so a caller can
// allocate descriptor sets against them without forcing a pipeline
// build first.
func (c *Cache) SetLayouts(vertSPIRV, fragSPIRV []byte) ([]gpu.DescriptorSetLayout, error) {
	entry, err := c.ensureShaderEntry(vertSPIRV, fragSPIRV)
	if err != nil {
		return nil, err
	}
	return entry.setLayouts, nil
}

// PipelineLayout returns the pipeline layout for a shader pair
// (building the first-level entry if needed), for binding descriptor
// sets and push constants before a pipeline for that pair exists.
func (c *Cache) PipelineLayout(vertSPIRV, fragSPIRV []byte) (gpu.PipelineLayout, error) {
	entry, err := c.ensureShaderEntry(vertSPIRV, fragSPIRV)
	if err != nil {
		return gpu.PipelineLayout{}, err
	}
	return entry.layout, nil
}

func hashState(s State) uint64 {
	h := hashcombine.New()
	for _, f := range s.ColorFormats {
		h.Combine(uint64(f))
	}
	h.Combine(uint64(s.DepthFormat))
	h.Combine(uint64(s.Samples))
	h.Combine(uint64(s.PolygonMode))
	h.Combine(uint64(s.Topology))
	depthTest, depthWrite := uint64(0), uint64(0)
	if s.DepthTest {
		depthTest = 1
	}
	if s.DepthWrite {
		depthWrite = 1
	}
	h.Combine(depthTest)
	h.Combine(depthWrite)
	h.Combine(uint64(s.CullMode))
	h.Combine(s.VertexInputHash)
	return h.Sum()
}

func (c *Cache) buildShaderEntry(vertSPIRV, fragSPIRV []byte) (*shaderEntry, error) {
	vertModule, err := reflect(vertSPIRV)
	if err != nil {
		return nil, fmt.Errorf("reflect vertex stage: %w", err)
	}
	fragModule, err := reflect(fragSPIRV)
	if err != nil {
		return nil, fmt.Errorf("reflect fragment stage: %w", err)
	}

	merged, setCount, err := mergeSets(vertModule, fragModule)
	if err != nil {
		return nil, err
	}

	setLayouts := make([]gpu.DescriptorSetLayout, setCount)
	var createdCount uint32
	cleanup := func() {
		for i := uint32(0); i < createdCount; i++ {
			c.device.DestroyDescriptorSetLayout(setLayouts[i])
		}
	}

	for set := uint32(0); set < setCount; set++ {
		info := gpu.DescriptorSetLayoutCreateInfo{}
		for _, b := range merged[set] {
			count := b.count
			if count == 0 {
				count = 1
			}
			info.Bindings = append(info.Bindings, gpu.DescriptorSetLayoutBinding{
				Binding:         b.number,
				DescriptorType:  b.typ,
				DescriptorCount: count,
				StageFlags:      b.stageFlags,
			})
		}
		layout, err := c.device.CreateDescriptorSetLayout(&info)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("create descriptor set layout %d: %w", set, err)
		}
		setLayouts[set] = layout
		createdCount++
	}

	layout, err := c.device.CreatePipelineLayout(&gpu.PipelineLayoutCreateInfo{SetLayouts: setLayouts})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	vertShaderModule, err := c.device.CreateShaderModule(&gpu.ShaderModuleCreateInfo{Code: vertSPIRV})
	if err != nil {
		c.device.DestroyPipelineLayout(layout)
		cleanup()
		return nil, fmt.Errorf("create vertex shader module: %w", err)
	}
	fragShaderModule, err := c.device.CreateShaderModule(&gpu.ShaderModuleCreateInfo{Code: fragSPIRV})
	if err != nil {
		c.device.DestroyShaderModule(vertShaderModule)
		c.device.DestroyPipelineLayout(layout)
		cleanup()
		return nil, fmt.Errorf("create fragment shader module: %w", err)
	}

	return &shaderEntry{
		setLayouts: setLayouts,
		layout:     layout,
		vertModule: vertShaderModule,
		fragModule: fragShaderModule,
		vertStage:  gpu.PipelineShaderStageCreateInfo{Stage: gpu.SHADER_STAGE_VERTEX_BIT, Module: vertShaderModule, Name: "main"},
		fragStage:  gpu.PipelineShaderStageCreateInfo{Stage: gpu.SHADER_STAGE_FRAGMENT_BIT, Module: fragShaderModule, Name: "main"},
		pipelines:  make(map[uint64]gpu.Pipeline),
	}, nil
}

func (c *Cache) destroyShaderEntry(e *shaderEntry) {
	for _, p := range e.pipelines {
		c.device.DestroyPipeline(p)
	}
	c.device.DestroyShaderModule(e.vertModule)
	c.device.DestroyShaderModule(e.fragModule)
	c.device.DestroyPipelineLayout(e.layout)
	for _, l := range e.setLayouts {
		c.device.DestroyDescriptorSetLayout(l)
	}
}

func (c *Cache) buildPipeline(entry *shaderEntry, state State) (gpu.Pipeline, error) {
	compareOp := gpu.COMPARE_OP_ALWAYS
	if state.DepthTest {
		compareOp = gpu.COMPARE_OP_LESS_OR_EQUAL
	}

	viewportState := &gpu.PipelineViewportStateCreateInfo{
		Viewports: []gpu.Viewport{{}},
		Scissors:  []gpu.Rect2D{{}},
	}

	createInfo := &gpu.GraphicsPipelineCreateInfo{
		Stages:             []gpu.PipelineShaderStageCreateInfo{entry.vertStage, entry.fragStage},
		VertexInputState:   &state.VertexInput,
		InputAssemblyState: &gpu.PipelineInputAssemblyStateCreateInfo{Topology: state.Topology},
		ViewportState:      viewportState,
		RasterizationState: &gpu.PipelineRasterizationStateCreateInfo{
			PolygonMode: state.PolygonMode,
			CullMode:    state.CullMode,
			FrontFace:   gpu.FRONT_FACE_COUNTER_CLOCKWISE,
			LineWidth:   1,
		},
		MultisampleState: &gpu.PipelineMultisampleStateCreateInfo{RasterizationSamples: state.Samples},
		ColorBlendState: &gpu.PipelineColorBlendStateCreateInfo{
			Attachments: defaultBlendAttachments(len(state.ColorFormats)),
		},
		DynamicState: &gpu.PipelineDynamicStateCreateInfo{
			DynamicStates: []gpu.DynamicState{gpu.DYNAMIC_STATE_VIEWPORT, gpu.DYNAMIC_STATE_SCISSOR, gpu.DYNAMIC_STATE_LINE_WIDTH},
		},
		DepthStencilState: &gpu.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  state.DepthTest,
			DepthWriteEnable: state.DepthWrite,
			DepthCompareOp:   compareOp,
		},
		Layout: entry.layout,
		RenderingInfo: &gpu.PipelineRenderingCreateInfo{
			ColorAttachmentFormats:  state.ColorFormats,
			DepthAttachmentFormat:   state.DepthFormat,
			StencilAttachmentFormat: gpu.FORMAT_UNDEFINED,
		},
	}

	return c.device.CreateGraphicsPipeline(createInfo)
}

func defaultBlendAttachments(count int) []gpu.PipelineColorBlendAttachmentState {
	if count == 0 {
		count = 1
	}
	attachments := make([]gpu.PipelineColorBlendAttachmentState, count)
	for i := range attachments {
		attachments[i] = gpu.PipelineColorBlendAttachmentState{
			BlendEnable:         true,
			SrcColorBlendFactor: gpu.BLEND_FACTOR_SRC_ALPHA,
			DstColorBlendFactor: gpu.BLEND_FACTOR_ONE_MINUS_SRC_ALPHA,
			ColorBlendOp:        gpu.BLEND_OP_ADD,
			SrcAlphaBlendFactor: gpu.BLEND_FACTOR_ONE,
			DstAlphaBlendFactor: gpu.BLEND_FACTOR_ONE_MINUS_SRC_ALPHA,
			AlphaBlendOp:        gpu.BLEND_OP_ADD,
			ColorWriteMask:      gpu.COLOR_COMPONENT_R_BIT | gpu.COLOR_COMPONENT_G_BIT | gpu.COLOR_COMPONENT_B_BIT | gpu.COLOR_COMPONENT_A_BIT,
		}
	}
	return attachments
}

// Destroy releases every object the cache has built, bypassing the
// deferred queue; only safe to call after a full device idle wait, the
// same contract internal/deferred.Queue.Clear documents.
func (c *Cache) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.shaders {
		c.destroyShaderEntry(entry)
	}
	c.shaders = make(map[uint64]*shaderEntry)
}

// mergeSets folds the bindings reflected from each stage into one
// binding list per descriptor set, combining descriptor type (which
// must agree across stages) and unioning stage flags, sorted by binding
// number within each set. It returns the sets keyed by set number and
// one past the highest set number seen, so the caller can fill any gap
// below it with an empty layout to keep pSetLayouts index-aligned.
func mergeSets(vert, frag *module) (map[uint32][]mergedBinding, uint32, error) {
	sets := make(map[uint32]map[uint32]*mergedBinding)
	var setCount uint32

	add := func(b binding, stage gpu.ShaderStageFlags) error {
		if sets[b.set] == nil {
			sets[b.set] = make(map[uint32]*mergedBinding)
		}
		if b.set+1 > setCount {
			setCount = b.set + 1
		}
		existing := sets[b.set][b.number]
		if existing == nil {
			sets[b.set][b.number] = &mergedBinding{number: b.number, typ: b.typ, count: b.count, stageFlags: stage}
			return nil
		}
		if existing.typ != b.typ {
			return fmt.Errorf("descriptor type mismatch at set %d binding %d: %v vs %v", b.set, b.number, existing.typ, b.typ)
		}
		existing.stageFlags |= stage
		if b.count > existing.count {
			existing.count = b.count
		}
		return nil
	}

	for _, b := range vert.bindings {
		if err := add(b, vert.stage); err != nil {
			return nil, 0, err
		}
	}
	for _, b := range frag.bindings {
		if err := add(b, frag.stage); err != nil {
			return nil, 0, err
		}
	}

	result := make(map[uint32][]mergedBinding, len(sets))
	for set, byBinding := range sets {
		list := make([]mergedBinding, 0, len(byBinding))
		for _, b := range byBinding {
			list = append(list, *b)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].number < list[j].number })
		result[set] = list
	}
	return result, setCount, nil
}

type mergedBinding struct {
	number     uint32
	typ        gpu.DescriptorType
	count      uint32
	stageFlags gpu.ShaderStageFlags
}
