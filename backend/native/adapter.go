package native

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/trimesh/meshcore"
	"github.com/gogpu/wgpu/hal"
)

// DefaultWaitTimeout bounds how long Recorder.Submit waits for the GPU.
const DefaultWaitTimeout = 5 * time.Second

// HALAdapter implements meshcore.Device using gogpu/wgpu/hal directly.
// It provides a bridge between the meshcore abstraction and the HAL layer.
//
// Thread Safety: HALAdapter is safe for concurrent use from multiple goroutines.
// All resource maps are protected by a mutex.
type HALAdapter struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue

	limits       gputypes.Limits
	waitTimeout  time.Duration

	// ID generation
	nextID atomic.Uint64

	// Resource tracking maps meshcore IDs to hal resources
	buffers          map[meshcore.BufferID]hal.Buffer
	shaderModules    map[meshcore.ShaderModuleID]*cachedModule
	bindGroupLayouts map[meshcore.BindGroupLayoutID]hal.BindGroupLayout
	pipelineLayouts  map[meshcore.PipelineLayoutID]hal.PipelineLayout
	renderPipelines  map[meshcore.RenderPipelineID]hal.RenderPipeline
	bindGroups       map[meshcore.BindGroupID]hal.BindGroup

	// Shader modules are shared between IDs with identical SPIR-V.
	modules *moduleCache

	// Views are owned by whoever registered them.
	textureViews map[meshcore.TextureViewID]hal.TextureView

	// Buffers released while commands may still reference them.
	retired []hal.Buffer
}

// NewHALAdapter creates a new HALAdapter wrapping the given device and queue.
// The limits parameter provides the adapter's capability limits.
// If limits is nil, default limits are used.
func NewHALAdapter(device hal.Device, queue hal.Queue, limits *gputypes.Limits) *HALAdapter {
	var lim gputypes.Limits
	if limits != nil {
		lim = *limits
	} else {
		lim = gputypes.DefaultLimits()
	}

	adapter := &HALAdapter{
		device:           device,
		queue:            queue,
		limits:           lim,
		waitTimeout:      DefaultWaitTimeout,
		buffers:          make(map[meshcore.BufferID]hal.Buffer),
		shaderModules:    make(map[meshcore.ShaderModuleID]*cachedModule),
		modules:          newModuleCache(),
		bindGroupLayouts: make(map[meshcore.BindGroupLayoutID]hal.BindGroupLayout),
		pipelineLayouts:  make(map[meshcore.PipelineLayoutID]hal.PipelineLayout),
		renderPipelines:  make(map[meshcore.RenderPipelineID]hal.RenderPipeline),
		bindGroups:       make(map[meshcore.BindGroupID]hal.BindGroup),
		textureViews:     make(map[meshcore.TextureViewID]hal.TextureView),
	}

	// Start ID generation at 1 (0 is invalid)
	adapter.nextID.Store(1)

	return adapter
}

// NewFromProvider creates a HALAdapter on the device shared by a host such
// as gogpu. The provider must also implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
//
// The returned format is the provider's surface format, the natural target
// format for meshcore.New.
func NewFromProvider(provider gpucontext.DeviceProvider) (*HALAdapter, gputypes.TextureFormat, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, gputypes.TextureFormatUndefined, ErrNilDevice
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, gputypes.TextureFormatUndefined, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, gputypes.TextureFormatUndefined, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, gputypes.TextureFormatUndefined, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return NewHALAdapter(device, queue, nil), provider.SurfaceFormat(), nil
}

// newID generates a unique resource ID.
func (a *HALAdapter) newID() uint64 {
	return a.nextID.Add(1) - 1
}

// SetWaitTimeout changes how long Recorder.Submit waits for completion.
func (a *HALAdapter) SetWaitTimeout(d time.Duration) {
	if d > 0 {
		a.waitTimeout = d
	}
}

// waitIdle blocks until the device is idle or the wait timeout expires.
// On timeout the wait keeps running in the background.
func (a *HALAdapter) waitIdle() error {
	done := make(chan error, 1)
	go func() { done <- a.device.WaitIdle() }()

	timer := time.NewTimer(a.waitTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("native: wait for GPU: %w", err)
		}
		return nil
	case <-timer.C:
		return ErrWaitTimeout
	}
}

// Device returns the wrapped HAL device.
func (a *HALAdapter) Device() hal.Device { return a.device }

// Queue returns the wrapped HAL queue.
func (a *HALAdapter) Queue() hal.Queue { return a.queue }

// === Capabilities ===

// UniformAlignment returns the device minUniformBufferOffsetAlignment.
func (a *HALAdapter) UniformAlignment() uint64 {
	return uint64(a.limits.MinUniformBufferOffsetAlignment)
}

// === Buffer Management ===

// CreateBuffer creates a GPU buffer.
func (a *HALAdapter) CreateBuffer(label string, size uint64, usage gputypes.BufferUsage) (meshcore.BufferID, error) {
	if size == 0 {
		return meshcore.InvalidID, fmt.Errorf("native: buffer %q: size must be positive", label)
	}

	buffer, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return meshcore.InvalidID, fmt.Errorf("native: create buffer %q: %w", label, err)
	}

	id := meshcore.BufferID(a.newID())

	a.mu.Lock()
	a.buffers[id] = buffer
	a.mu.Unlock()

	return id, nil
}

// DestroyBuffer releases a GPU buffer. The HAL buffer is kept alive until
// Recall, because commands recorded in the current frame may still read it.
func (a *HALAdapter) DestroyBuffer(id meshcore.BufferID) {
	a.mu.Lock()
	buffer, ok := a.buffers[id]
	if ok {
		delete(a.buffers, id)
		a.retired = append(a.retired, buffer)
	}
	a.mu.Unlock()
}

// Recall destroys the buffers released since the last call. Call it once
// the submissions that used them have completed.
func (a *HALAdapter) Recall() int {
	a.mu.Lock()
	retired := a.retired
	a.retired = nil
	a.mu.Unlock()

	for _, b := range retired {
		a.device.DestroyBuffer(b)
	}
	return len(retired)
}

// buffer looks up a live buffer.
func (a *HALAdapter) buffer(id meshcore.BufferID) (hal.Buffer, bool) {
	a.mu.RLock()
	b, ok := a.buffers[id]
	a.mu.RUnlock()
	return b, ok
}

// === Shader Compilation ===

// CreateShaderModule creates a shader module from SPIR-V bytecode.
// Identical bytecode compiled earlier on this adapter is reused; every ID
// still has to be destroyed separately.
func (a *HALAdapter) CreateShaderModule(label string, spirv []uint32) (meshcore.ShaderModuleID, error) {
	if len(spirv) == 0 {
		return meshcore.InvalidID, fmt.Errorf("native: shader %q: empty SPIR-V bytecode", label)
	}

	entry, err := a.modules.acquire(spirv, func() (hal.ShaderModule, error) {
		return a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label: label,
			Source: hal.ShaderSource{
				SPIRV: spirv,
			},
		})
	})
	if err != nil {
		return meshcore.InvalidID, fmt.Errorf("native: create shader module %q: %w", label, err)
	}

	id := meshcore.ShaderModuleID(a.newID())

	a.mu.Lock()
	a.shaderModules[id] = entry
	a.mu.Unlock()

	return id, nil
}

// DestroyShaderModule releases a shader module reference.
func (a *HALAdapter) DestroyShaderModule(id meshcore.ShaderModuleID) {
	a.mu.Lock()
	entry, ok := a.shaderModules[id]
	if ok {
		delete(a.shaderModules, id)
	}
	a.mu.Unlock()

	if ok && a.modules.release(entry) {
		a.device.DestroyShaderModule(entry.module)
	}
}

// ShaderCacheStats returns how often CreateShaderModule reused an existing
// module (hits) or compiled a new one (misses), and how many distinct
// modules are alive.
func (a *HALAdapter) ShaderCacheStats() (hits, misses uint64, modules int) {
	hits, misses = a.modules.Stats()
	return hits, misses, a.modules.Len()
}

// === Pipeline Management ===

// CreateUniformLayout creates a bind group layout with one dynamic-offset
// uniform buffer at binding 0, visible to the vertex stage.
func (a *HALAdapter) CreateUniformLayout(desc *meshcore.UniformLayoutDesc) (meshcore.BindGroupLayoutID, error) {
	layout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: desc.Label,
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer: &gputypes.BufferBindingLayout{
					Type:             gputypes.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   desc.MinBindingSize,
				},
			},
		},
	})
	if err != nil {
		return meshcore.InvalidID, fmt.Errorf("native: create bind group layout %q: %w", desc.Label, err)
	}

	id := meshcore.BindGroupLayoutID(a.newID())

	a.mu.Lock()
	a.bindGroupLayouts[id] = layout
	a.mu.Unlock()

	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (a *HALAdapter) DestroyBindGroupLayout(id meshcore.BindGroupLayoutID) {
	a.mu.Lock()
	layout, ok := a.bindGroupLayouts[id]
	if ok {
		delete(a.bindGroupLayouts, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyBindGroupLayout(layout)
	}
}

// CreatePipelineLayout creates a pipeline layout.
func (a *HALAdapter) CreatePipelineLayout(label string, layouts []meshcore.BindGroupLayoutID) (meshcore.PipelineLayoutID, error) {
	halLayouts := make([]hal.BindGroupLayout, len(layouts))
	a.mu.RLock()
	for i, id := range layouts {
		layout, ok := a.bindGroupLayouts[id]
		if !ok {
			a.mu.RUnlock()
			return meshcore.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrUnknownResource, id)
		}
		halLayouts[i] = layout
	}
	a.mu.RUnlock()

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: halLayouts,
	})
	if err != nil {
		return meshcore.InvalidID, fmt.Errorf("native: create pipeline layout %q: %w", label, err)
	}

	id := meshcore.PipelineLayoutID(a.newID())

	a.mu.Lock()
	a.pipelineLayouts[id] = pipeLayout
	a.mu.Unlock()

	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (a *HALAdapter) DestroyPipelineLayout(id meshcore.PipelineLayoutID) {
	a.mu.Lock()
	layout, ok := a.pipelineLayouts[id]
	if ok {
		delete(a.pipelineLayouts, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyPipelineLayout(layout)
	}
}

// CreateRenderPipeline creates a triangle-list render pipeline.
func (a *HALAdapter) CreateRenderPipeline(desc *meshcore.RenderPipelineDesc) (meshcore.RenderPipelineID, error) {
	a.mu.RLock()
	layout, okLayout := a.pipelineLayouts[desc.Layout]
	vs, okVS := a.shaderModules[desc.VertexModule]
	fs, okFS := a.shaderModules[desc.FragmentModule]
	a.mu.RUnlock()
	if !okLayout || !okVS || !okFS {
		return meshcore.InvalidID, fmt.Errorf("%w: pipeline %q references a missing layout or module", ErrUnknownResource, desc.Label)
	}

	sampleCount := desc.SampleCount
	if sampleCount == 0 {
		sampleCount = 1
	}
	blend := desc.Blend

	pipeline, err := a.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     vs.module,
			EntryPoint: desc.VertexEntryPoint,
			Buffers:    desc.VertexBuffers,
		},
		Fragment: &hal.FragmentState{
			Module:     fs.module,
			EntryPoint: desc.FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    desc.Format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: sampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return meshcore.InvalidID, fmt.Errorf("native: create render pipeline %q: %w", desc.Label, err)
	}

	id := meshcore.RenderPipelineID(a.newID())

	a.mu.Lock()
	a.renderPipelines[id] = pipeline
	a.mu.Unlock()

	return id, nil
}

// DestroyRenderPipeline releases a render pipeline.
func (a *HALAdapter) DestroyRenderPipeline(id meshcore.RenderPipelineID) {
	a.mu.Lock()
	pipeline, ok := a.renderPipelines[id]
	if ok {
		delete(a.renderPipelines, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyRenderPipeline(pipeline)
	}
}

// CreateUniformBinding creates a bind group over [0, desc.Size) of a
// uniform buffer.
func (a *HALAdapter) CreateUniformBinding(desc *meshcore.UniformBindingDesc) (meshcore.BindGroupID, error) {
	a.mu.RLock()
	layout, okLayout := a.bindGroupLayouts[desc.Layout]
	buffer, okBuffer := a.buffers[desc.Buffer]
	a.mu.RUnlock()
	if !okLayout || !okBuffer {
		return meshcore.InvalidID, fmt.Errorf("%w: bind group %q references a missing layout or buffer", ErrUnknownResource, desc.Label)
	}

	group, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buffer.NativeHandle(), Offset: 0, Size: desc.Size,
			}},
		},
	})
	if err != nil {
		return meshcore.InvalidID, fmt.Errorf("native: create bind group %q: %w", desc.Label, err)
	}

	id := meshcore.BindGroupID(a.newID())

	a.mu.Lock()
	a.bindGroups[id] = group
	a.mu.Unlock()

	return id, nil
}

// DestroyBindGroup releases a bind group.
func (a *HALAdapter) DestroyBindGroup(id meshcore.BindGroupID) {
	a.mu.Lock()
	group, ok := a.bindGroups[id]
	if ok {
		delete(a.bindGroups, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyBindGroup(group)
	}
}

// === Texture Views ===

// RegisterTextureView makes a caller-owned view usable as a render target.
// The adapter never destroys registered views.
func (a *HALAdapter) RegisterTextureView(view hal.TextureView) meshcore.TextureViewID {
	id := meshcore.TextureViewID(a.newID())

	a.mu.Lock()
	a.textureViews[id] = view
	a.mu.Unlock()

	return id
}

// UnregisterTextureView forgets a registered view.
func (a *HALAdapter) UnregisterTextureView(id meshcore.TextureViewID) {
	a.mu.Lock()
	delete(a.textureViews, id)
	a.mu.Unlock()
}

// textureView looks up a registered view.
func (a *HALAdapter) textureView(id meshcore.TextureViewID) (hal.TextureView, bool) {
	a.mu.RLock()
	v, ok := a.textureViews[id]
	a.mu.RUnlock()
	return v, ok
}

// === Multisampling ===

// CreateResolveTarget creates an MSAATarget for the given format.
func (a *HALAdapter) CreateResolveTarget(format gputypes.TextureFormat, sampleCount uint32) (meshcore.ResolveTarget, error) {
	return NewMSAATarget(a, format, sampleCount)
}

// LiveResources returns the number of tracked resources, registered views
// excluded.
func (a *HALAdapter) LiveResources() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.buffers) + len(a.shaderModules) + len(a.bindGroupLayouts) +
		len(a.pipelineLayouts) + len(a.renderPipelines) + len(a.bindGroups) + len(a.retired)
}

// Destroy releases every resource still tracked by the adapter. The
// device and queue belong to the caller and are left alone.
func (a *HALAdapter) Destroy() {
	a.Recall()

	a.mu.Lock()
	defer a.mu.Unlock()

	for id, g := range a.bindGroups {
		a.device.DestroyBindGroup(g)
		delete(a.bindGroups, id)
	}
	for id, p := range a.renderPipelines {
		a.device.DestroyRenderPipeline(p)
		delete(a.renderPipelines, id)
	}
	for id, l := range a.pipelineLayouts {
		a.device.DestroyPipelineLayout(l)
		delete(a.pipelineLayouts, id)
	}
	for id, l := range a.bindGroupLayouts {
		a.device.DestroyBindGroupLayout(l)
		delete(a.bindGroupLayouts, id)
	}
	for id, m := range a.shaderModules {
		if a.modules.release(m) {
			a.device.DestroyShaderModule(m.module)
		}
		delete(a.shaderModules, id)
	}
	for id, b := range a.buffers {
		a.device.DestroyBuffer(b)
		delete(a.buffers, id)
	}
	clear(a.textureViews)
}

var _ meshcore.Device = (*HALAdapter)(nil)
