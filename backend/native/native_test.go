package native

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/trimesh"
	"github.com/gogpu/trimesh/meshcore"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func newTestAdapter(t *testing.T) (*HALAdapter, func()) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	a := NewHALAdapter(device, queue, nil)
	return a, func() {
		a.Destroy()
		cleanup()
	}
}

// createTarget creates a single-sample render target and registers its view.
func createTarget(t *testing.T, a *HALAdapter, w, h uint32) (meshcore.TextureViewID, func()) {
	t.Helper()
	tex, err := a.Device().CreateTexture(&hal.TextureDescriptor{
		Label:         "test_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	view, err := a.Device().CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "test_target_view"})
	if err != nil {
		a.Device().DestroyTexture(tex)
		t.Fatalf("CreateTextureView failed: %v", err)
	}
	id := a.RegisterTextureView(view)
	return id, func() {
		a.UnregisterTextureView(id)
		a.Device().DestroyTextureView(view)
		a.Device().DestroyTexture(tex)
	}
}

func TestHALAdapterUniformAlignment(t *testing.T) {
	a, cleanup := newTestAdapter(t)
	defer cleanup()

	if got := a.UniformAlignment(); got == 0 || got > meshcore.UniformBlockSize {
		t.Errorf("UniformAlignment() = %d, want within (0, %d]", got, meshcore.UniformBlockSize)
	}
}

func TestHALAdapterBufferRetirement(t *testing.T) {
	a, cleanup := newTestAdapter(t)
	defer cleanup()

	id, err := a.CreateBuffer("test", 256, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		t.Fatalf("CreateBuffer() error: %v", err)
	}
	if id == meshcore.InvalidID {
		t.Fatal("CreateBuffer() returned InvalidID")
	}
	if a.LiveResources() != 1 {
		t.Errorf("LiveResources() = %d, want 1", a.LiveResources())
	}

	a.DestroyBuffer(id)
	if _, ok := a.buffer(id); ok {
		t.Error("destroyed buffer still resolvable")
	}
	if a.LiveResources() != 1 {
		t.Error("retired buffer released before Recall")
	}
	if n := a.Recall(); n != 1 {
		t.Errorf("Recall() = %d, want 1", n)
	}
	if a.LiveResources() != 0 {
		t.Errorf("LiveResources() = %d after Recall, want 0", a.LiveResources())
	}

	a.DestroyBuffer(id) // unknown ID is ignored
	if n := a.Recall(); n != 0 {
		t.Errorf("second Recall() = %d, want 0", n)
	}
}

func TestHALAdapterCreateErrors(t *testing.T) {
	a, cleanup := newTestAdapter(t)
	defer cleanup()

	if _, err := a.CreateBuffer("empty", 0, gputypes.BufferUsageVertex); err == nil {
		t.Error("CreateBuffer(size 0) should fail")
	}
	if _, err := a.CreateShaderModule("empty", nil); err == nil {
		t.Error("CreateShaderModule(nil) should fail")
	}
	if _, err := a.CreatePipelineLayout("bad", []meshcore.BindGroupLayoutID{99}); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("CreatePipelineLayout(unknown) error = %v, want ErrUnknownResource", err)
	}
	if _, err := a.CreateUniformBinding(&meshcore.UniformBindingDesc{Label: "bad", Layout: 1, Buffer: 2, Size: 256}); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("CreateUniformBinding(unknown) error = %v, want ErrUnknownResource", err)
	}
	if _, err := a.CreateRenderPipeline(&meshcore.RenderPipelineDesc{Label: "bad"}); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("CreateRenderPipeline(unknown) error = %v, want ErrUnknownResource", err)
	}
}

// halHost is a device provider that also exposes its HAL objects, the way
// gogpu does. Only the methods NewFromProvider calls are implemented.
type halHost struct {
	gpucontext.DeviceProvider
	device hal.Device
	queue  hal.Queue
}

func (halHost) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}
func (h halHost) HalDevice() any { return h.device }
func (h halHost) HalQueue() any  { return h.queue }

// plainHost exposes no HAL objects.
type plainHost struct {
	gpucontext.DeviceProvider
}

func (plainHost) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

func TestNewFromProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	a, format, err := NewFromProvider(halHost{device: device, queue: queue})
	if err != nil {
		t.Fatalf("NewFromProvider() error: %v", err)
	}
	if a.Device() != device || a.Queue() != queue {
		t.Error("adapter does not wrap the provider's device and queue")
	}
	if format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("format = %v, want BGRA8Unorm", format)
	}

	if _, _, err := NewFromProvider(plainHost{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("NewFromProvider(no HAL) error = %v, want ErrNoHAL", err)
	}
	if _, _, err := NewFromProvider(halHost{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("NewFromProvider(nil HAL) error = %v, want ErrNoHAL", err)
	}
	if _, _, err := NewFromProvider(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewFromProvider(nil) error = %v, want ErrNilDevice", err)
	}
}

func TestStagingBeltValidation(t *testing.T) {
	a, cleanup := newTestAdapter(t)
	defer cleanup()

	buf, err := a.CreateBuffer("dst", 1024, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := a.BeginFrame("test")
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Discard()

	belt := NewStagingBelt(a, 0)
	defer belt.Destroy()

	tests := []struct {
		name   string
		rec    meshcore.CommandRecorder
		buffer meshcore.BufferID
		offset uint64
		size   uint64
		want   error
	}{
		{"zero size", rec, buf, 0, 0, ErrZeroSizeWrite},
		{"unaligned offset", rec, buf, 2, 4, ErrUnalignedWrite},
		{"unaligned size", rec, buf, 0, 6, ErrUnalignedWrite},
		{"foreign recorder", nil, buf, 0, 4, ErrForeignRecorder},
		{"unknown buffer", rec, 9999, 0, 4, ErrUnknownResource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := belt.Write(tt.rec, tt.buffer, tt.offset, tt.size); !errors.Is(err, tt.want) {
				t.Errorf("Write() error = %v, want %v", err, tt.want)
			}
		})
	}
	if belt.Chunks() != 0 {
		t.Errorf("rejected writes allocated %d chunks", belt.Chunks())
	}
}

func TestStagingBeltChunkReuse(t *testing.T) {
	a, cleanup := newTestAdapter(t)
	defer cleanup()

	buf, err := a.CreateBuffer("dst", 4096, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		t.Fatal(err)
	}
	belt := NewStagingBelt(a, 256)
	defer belt.Destroy()

	for frame := 0; frame < 3; frame++ {
		rec, err := a.BeginFrame("frame")
		if err != nil {
			t.Fatal(err)
		}
		for i := uint64(0); i < 4; i++ {
			region, err := belt.Write(rec, buf, i*64, 64)
			if err != nil {
				t.Fatalf("frame %d write %d: %v", frame, i, err)
			}
			if len(region.Bytes()) != 64 {
				t.Fatalf("region length = %d, want 64", len(region.Bytes()))
			}
			region.Bytes()[0] = byte(i)
			if err := region.Close(); err != nil {
				t.Fatalf("Close() error: %v", err)
			}
		}
		belt.Finish()
		if err := rec.Submit(); err != nil {
			t.Fatalf("Submit() error: %v", err)
		}
		belt.Recall()

		if belt.Chunks() != 1 {
			t.Errorf("frame %d: chunks = %d, want 1 reused chunk", frame, belt.Chunks())
		}
	}

	// A write larger than the chunk size gets a dedicated chunk.
	rec, err := a.BeginFrame("big")
	if err != nil {
		t.Fatal(err)
	}
	region, err := belt.Write(rec, buf, 0, 1024)
	if err != nil {
		t.Fatalf("big Write() error: %v", err)
	}
	if err := region.Close(); err != nil {
		t.Fatal(err)
	}
	belt.Finish()
	if err := rec.Submit(); err != nil {
		t.Fatal(err)
	}
	belt.Recall()
	if belt.Chunks() != 2 {
		t.Errorf("chunks = %d, want 2", belt.Chunks())
	}
	if belt.StagedBytes() != 3*256+1024 {
		t.Errorf("StagedBytes() = %d, want %d", belt.StagedBytes(), 3*256+1024)
	}
}

// lostQueue fails every upload, like a queue on a lost device.
type lostQueue struct {
	hal.Queue
	err error
}

func (q lostQueue) WriteBuffer(hal.Buffer, uint64, []byte) error { return q.err }

func TestStagingBeltUploadFailure(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	errLost := errors.New("device lost")
	a := NewHALAdapter(device, lostQueue{Queue: queue, err: errLost}, nil)
	defer a.Destroy()

	buf, err := a.CreateBuffer("dst", 1024, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		t.Fatal(err)
	}
	belt := NewStagingBelt(a, 256)
	defer belt.Destroy()

	rec, err := a.BeginFrame("lost")
	if err != nil {
		t.Fatal(err)
	}
	region, err := belt.Write(rec, buf, 0, 64)
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := region.Close(); !errors.Is(err, errLost) {
		t.Fatalf("Close() error = %v, want %v", err, errLost)
	}
	if err := region.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
	if !errors.Is(rec.Err(), errLost) {
		t.Errorf("Err() = %v, want %v", rec.Err(), errLost)
	}
	belt.Finish()
	if err := rec.Submit(); !errors.Is(err, errLost) {
		t.Errorf("Submit() error = %v, want %v", err, errLost)
	}
}

func TestRecorderSubmitOnce(t *testing.T) {
	a, cleanup := newTestAdapter(t)
	defer cleanup()

	rec, err := a.BeginFrame("once")
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Submit(); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if err := rec.Submit(); !errors.Is(err, ErrRecorderClosed) {
		t.Errorf("second Submit() error = %v, want ErrRecorderClosed", err)
	}
}

func TestRecorderUnknownView(t *testing.T) {
	a, cleanup := newTestAdapter(t)
	defer cleanup()

	rec, err := a.BeginFrame("bad_view")
	if err != nil {
		t.Fatal(err)
	}
	pass := rec.BeginRenderPass(&meshcore.RenderPassDesc{Label: "bad", View: 12345})
	pass.SetScissorRect(0, 0, 1, 1)
	pass.DrawIndexed(3, 1, 0, 0, 0)
	pass.End()

	if !errors.Is(rec.Err(), ErrUnknownResource) {
		t.Errorf("Err() = %v, want ErrUnknownResource", rec.Err())
	}
	if err := rec.Submit(); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("Submit() error = %v, want ErrUnknownResource", err)
	}
}

func TestMSAATargetPrepare(t *testing.T) {
	a, cleanup := newTestAdapter(t)
	defer cleanup()

	if _, err := NewMSAATarget(a, gputypes.TextureFormatBGRA8Unorm, 1); err == nil {
		t.Error("NewMSAATarget(1 sample) should fail")
	}

	target, err := NewMSAATarget(a, gputypes.TextureFormatBGRA8Unorm, 4)
	if err != nil {
		t.Fatalf("NewMSAATarget() error: %v", err)
	}
	defer target.Destroy()

	if target.SampleCount() != 4 {
		t.Errorf("SampleCount() = %d, want 4", target.SampleCount())
	}
	if _, _, err := target.Prepare(0, 10); err == nil {
		t.Error("Prepare(0, 10) should fail")
	}

	att, res, err := target.Prepare(320, 240)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if att == meshcore.InvalidID || res == meshcore.InvalidID || att == res {
		t.Fatalf("Prepare() views = %d, %d", att, res)
	}

	att2, res2, err := target.Prepare(320, 240)
	if err != nil {
		t.Fatal(err)
	}
	if att2 != att || res2 != res || target.Allocations() != 1 {
		t.Error("same size reallocated the textures")
	}

	if _, _, err := target.Prepare(640, 480); err != nil {
		t.Fatal(err)
	}
	if target.Allocations() != 2 {
		t.Errorf("Allocations() = %d, want 2", target.Allocations())
	}
	if w, h := target.Size(); w != 640 || h != 480 {
		t.Errorf("Size() = %dx%d, want 640x480", w, h)
	}
	if _, ok := a.textureView(att); ok {
		t.Error("old attachment view still registered after resize")
	}
}

func testScene() []trimesh.Mesh {
	tri := trimesh.Mesh{
		Vertices: []trimesh.Vertex{
			{Position: [2]float32{0, 0}, Color: [4]float32{1, 0, 0, 1}},
			{Position: [2]float32{50, 0}, Color: [4]float32{0, 1, 0, 1}},
			{Position: [2]float32{0, 50}, Color: [4]float32{0, 0, 1, 1}},
		},
		Indices:    []uint32{0, 1, 2},
		ClipBounds: trimesh.Rect{Width: 200, Height: 100},
	}
	moved := tri
	moved.Origin = trimesh.Pt(100, 40)
	return []trimesh.Mesh{tri, moved, {ClipBounds: trimesh.Rect{Width: 10, Height: 10}}}
}

func TestRenderFrame(t *testing.T) {
	for _, aa := range []trimesh.Antialiasing{trimesh.AntialiasingNone, trimesh.MSAAx4} {
		t.Run(aa.String(), func(t *testing.T) {
			a, cleanup := newTestAdapter(t)
			defer cleanup()

			view, release := createTarget(t, a, 200, 100)
			defer release()

			r, err := meshcore.New(a, gputypes.TextureFormatBGRA8Unorm,
				meshcore.WithAntialiasing(aa),
				meshcore.WithInitialCapacity(4, 4, 1))
			if err != nil {
				t.Fatalf("meshcore.New() error: %v", err)
			}
			defer r.Destroy()

			belt := NewStagingBelt(a, 0)
			defer belt.Destroy()

			for frame := 0; frame < 2; frame++ {
				rec, err := a.BeginFrame("test_frame")
				if err != nil {
					t.Fatal(err)
				}
				err = r.Render(&meshcore.Frame{
					Recorder:       rec,
					Belt:           belt,
					Target:         view,
					Width:          200,
					Height:         100,
					Transformation: trimesh.Orthographic(200, 100),
					ScaleFactor:    1,
					Meshes:         testScene(),
				})
				if err != nil {
					rec.Discard()
					t.Fatalf("frame %d: Render() error: %v", frame, err)
				}
				belt.Finish()
				if err := rec.Submit(); err != nil {
					t.Fatalf("frame %d: Submit() error: %v", frame, err)
				}
				belt.Recall()
				retired := a.Recall()

				st := r.Stats()
				if st.Draws != 3 || st.Resolved != aa.Enabled() {
					t.Errorf("frame %d: Stats() = %+v", frame, st)
				}
				// Capacities 4/4/1 grow on the first frame only.
				if frame == 0 && retired != 3 {
					t.Errorf("frame 0: retired buffers = %d, want 3", retired)
				}
				if frame == 1 && retired != 0 {
					t.Errorf("frame 1: retired buffers = %d, want 0", retired)
				}
			}
		})
	}
}

func TestShaderModuleSharing(t *testing.T) {
	a, cleanup := newTestAdapter(t)
	defer cleanup()

	newRenderer := func() *meshcore.BatchRenderer {
		r, err := meshcore.New(a, gputypes.TextureFormatBGRA8Unorm, meshcore.WithAntialiasing(trimesh.MSAAx4))
		if err != nil {
			t.Fatalf("meshcore.New() error: %v", err)
		}
		return r
	}
	first := newRenderer()
	second := newRenderer()

	// Triangle and blit shaders, each compiled once.
	hits, misses, modules := a.ShaderCacheStats()
	if misses != 2 || hits != 2 || modules != 2 {
		t.Errorf("after two renderers: hits=%d misses=%d modules=%d, want 2/2/2", hits, misses, modules)
	}

	first.Destroy()
	if _, _, modules = a.ShaderCacheStats(); modules != 2 {
		t.Errorf("modules after first Destroy = %d, want 2", modules)
	}
	second.Destroy()
	if _, _, modules = a.ShaderCacheStats(); modules != 0 {
		t.Errorf("modules after second Destroy = %d, want 0", modules)
	}
}

func TestModuleCacheDistinctBytecode(t *testing.T) {
	a, cleanup := newTestAdapter(t)
	defer cleanup()

	tri, err := a.CreateShaderModule("a", []uint32{0x07230203, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	other, err := a.CreateShaderModule("b", []uint32{0x07230203, 1, 3})
	if err != nil {
		t.Fatal(err)
	}
	again, err := a.CreateShaderModule("c", []uint32{0x07230203, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if tri == again {
		t.Error("shared modules must still get distinct IDs")
	}
	if hits, misses, modules := a.ShaderCacheStats(); hits != 1 || misses != 2 || modules != 2 {
		t.Errorf("hits=%d misses=%d modules=%d, want 1/2/2", hits, misses, modules)
	}

	a.DestroyShaderModule(tri)
	a.DestroyShaderModule(tri)
	if _, _, modules := a.ShaderCacheStats(); modules != 2 {
		t.Errorf("double destroy released a shared module: modules=%d", modules)
	}
	a.DestroyShaderModule(again)
	a.DestroyShaderModule(other)
	if _, _, modules := a.ShaderCacheStats(); modules != 0 {
		t.Errorf("modules = %d, want 0", modules)
	}
}
