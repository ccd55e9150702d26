// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshcore

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/trimesh"
)

var errInjected = errors.New("injected failure")

// fakeBuffer is a CPU-side buffer owned by fakeDevice.
type fakeBuffer struct {
	label string
	usage gputypes.BufferUsage
	data  []byte
}

// fakeDevice is a recording Device. Buffers are backed by byte slices so
// tests can inspect what the staging belt wrote.
type fakeDevice struct {
	alignment uint64
	nextID    uint64

	buffers        map[BufferID]*fakeBuffer
	createdBuffers []BufferID
	retired        []BufferID

	bindGroups     map[BindGroupID]UniformBindingDesc
	retiredGroups  []BindGroupID
	uniformLayouts []UniformLayoutDesc
	pipelines      []RenderPipelineDesc

	liveModules   int
	liveLayouts   int
	livePipeLayts int
	livePipelines int

	resolve *fakeResolve

	// failOn names a Create* method that returns errInjected.
	failOn string
	// failBufferLabel makes CreateBuffer fail for one label.
	failBufferLabel string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		alignment:  256,
		nextID:     1,
		buffers:    make(map[BufferID]*fakeBuffer),
		bindGroups: make(map[BindGroupID]UniformBindingDesc),
	}
}

func (d *fakeDevice) newID() uint64 {
	id := d.nextID
	d.nextID++
	return id
}

func (d *fakeDevice) UniformAlignment() uint64 { return d.alignment }

func (d *fakeDevice) CreateBuffer(label string, size uint64, usage gputypes.BufferUsage) (BufferID, error) {
	if d.failOn == "CreateBuffer" || (d.failBufferLabel != "" && d.failBufferLabel == label) {
		return InvalidID, errInjected
	}
	id := BufferID(d.newID())
	d.buffers[id] = &fakeBuffer{label: label, usage: usage, data: make([]byte, size)}
	d.createdBuffers = append(d.createdBuffers, id)
	return id, nil
}

func (d *fakeDevice) DestroyBuffer(id BufferID) {
	if _, ok := d.buffers[id]; !ok {
		panic(fmt.Sprintf("DestroyBuffer(%d): unknown buffer", id))
	}
	delete(d.buffers, id)
	d.retired = append(d.retired, id)
}

func (d *fakeDevice) CreateShaderModule(_ string, spirv []uint32) (ShaderModuleID, error) {
	if d.failOn == "CreateShaderModule" {
		return InvalidID, errInjected
	}
	if len(spirv) == 0 {
		return InvalidID, errors.New("empty module")
	}
	d.liveModules++
	return ShaderModuleID(d.newID()), nil
}

func (d *fakeDevice) DestroyShaderModule(ShaderModuleID) { d.liveModules-- }

func (d *fakeDevice) CreateUniformLayout(desc *UniformLayoutDesc) (BindGroupLayoutID, error) {
	if d.failOn == "CreateUniformLayout" {
		return InvalidID, errInjected
	}
	d.uniformLayouts = append(d.uniformLayouts, *desc)
	d.liveLayouts++
	return BindGroupLayoutID(d.newID()), nil
}

func (d *fakeDevice) DestroyBindGroupLayout(BindGroupLayoutID) { d.liveLayouts-- }

func (d *fakeDevice) CreatePipelineLayout(string, []BindGroupLayoutID) (PipelineLayoutID, error) {
	if d.failOn == "CreatePipelineLayout" {
		return InvalidID, errInjected
	}
	d.livePipeLayts++
	return PipelineLayoutID(d.newID()), nil
}

func (d *fakeDevice) DestroyPipelineLayout(PipelineLayoutID) { d.livePipeLayts-- }

func (d *fakeDevice) CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error) {
	if d.failOn == "CreateRenderPipeline" {
		return InvalidID, errInjected
	}
	d.pipelines = append(d.pipelines, *desc)
	d.livePipelines++
	return RenderPipelineID(d.newID()), nil
}

func (d *fakeDevice) DestroyRenderPipeline(RenderPipelineID) { d.livePipelines-- }

func (d *fakeDevice) CreateUniformBinding(desc *UniformBindingDesc) (BindGroupID, error) {
	if d.failOn == "CreateUniformBinding" {
		return InvalidID, errInjected
	}
	if _, ok := d.buffers[desc.Buffer]; !ok {
		return InvalidID, fmt.Errorf("bind group over unknown buffer %d", desc.Buffer)
	}
	id := BindGroupID(d.newID())
	d.bindGroups[id] = *desc
	return id, nil
}

func (d *fakeDevice) DestroyBindGroup(id BindGroupID) {
	delete(d.bindGroups, id)
	d.retiredGroups = append(d.retiredGroups, id)
}

func (d *fakeDevice) CreateResolveTarget(format gputypes.TextureFormat, sampleCount uint32) (ResolveTarget, error) {
	if d.failOn == "CreateResolveTarget" {
		return nil, errInjected
	}
	d.resolve = &fakeResolve{format: format, samples: sampleCount, attachment: 9001, resolved: 9002}
	return d.resolve, nil
}

// liveResources counts everything not yet destroyed.
func (d *fakeDevice) liveResources() int {
	return len(d.buffers) + len(d.bindGroups) + d.liveModules + d.liveLayouts +
		d.livePipeLayts + d.livePipelines
}

// bufferByLabel returns the live buffer with the given label.
func (d *fakeDevice) bufferByLabel(label string) (BufferID, *fakeBuffer) {
	for id, b := range d.buffers {
		if b.label == label {
			return id, b
		}
	}
	return InvalidID, nil
}

// command is one recorded operation.
type command struct {
	kind string

	pass RenderPassDesc

	buffer BufferID
	offset uint64
	size   uint64

	scissor trimesh.ScissorRect

	group   BindGroupID
	offsets []uint32

	draw drawCall

	target TextureViewID
}

type drawCall struct {
	indexCount, instanceCount, firstIndex uint32
	baseVertex                            int32
	firstInstance                         uint32
}

// fakeRecorder records upload copies, pass commands and resolves in order.
type fakeRecorder struct {
	cmds []command
}

func (r *fakeRecorder) BeginRenderPass(desc *RenderPassDesc) RenderPassEncoder {
	r.cmds = append(r.cmds, command{kind: "begin", pass: *desc})
	return &fakePass{rec: r}
}

func (r *fakeRecorder) kinds() []string {
	out := make([]string, len(r.cmds))
	for i, c := range r.cmds {
		out[i] = c.kind
	}
	return out
}

func (r *fakeRecorder) filter(kind string) []command {
	var out []command
	for _, c := range r.cmds {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

type fakePass struct {
	rec   *fakeRecorder
	ended bool
}

func (p *fakePass) add(c command) {
	if p.ended {
		panic("command recorded after End")
	}
	p.rec.cmds = append(p.rec.cmds, c)
}

func (p *fakePass) SetPipeline(RenderPipelineID) { p.add(command{kind: "pipeline"}) }

func (p *fakePass) SetVertexBuffer(_ uint32, buffer BufferID, offset uint64) {
	p.add(command{kind: "vertex", buffer: buffer, offset: offset})
}

func (p *fakePass) SetIndexBuffer(buffer BufferID, offset uint64) {
	p.add(command{kind: "index", buffer: buffer, offset: offset})
}

func (p *fakePass) SetScissorRect(x, y, width, height uint32) {
	p.add(command{kind: "scissor", scissor: trimesh.ScissorRect{X: x, Y: y, Width: width, Height: height}})
}

func (p *fakePass) SetBindGroup(_ uint32, group BindGroupID, dynamicOffsets []uint32) {
	p.add(command{kind: "bind", group: group, offsets: append([]uint32(nil), dynamicOffsets...)})
}

func (p *fakePass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.add(command{kind: "draw", draw: drawCall{indexCount, instanceCount, firstIndex, baseVertex, firstInstance}})
}

func (p *fakePass) End() {
	p.add(command{kind: "end"})
	p.ended = true
}

// fakeBelt copies region contents straight into the fake device buffers
// and records a "write" on the recorder at close time.
type fakeBelt struct {
	device *fakeDevice
	fail   bool
}

func (b *fakeBelt) Write(rec CommandRecorder, buffer BufferID, offset, size uint64) (WriteRegion, error) {
	if b.fail {
		return nil, errInjected
	}
	if size == 0 {
		return nil, errors.New("zero-size write")
	}
	buf, ok := b.device.buffers[buffer]
	if !ok {
		return nil, fmt.Errorf("write to unknown buffer %d", buffer)
	}
	if offset+size > uint64(len(buf.data)) {
		return nil, fmt.Errorf("write [%d, %d) overflows %s (%d bytes)", offset, offset+size, buf.label, len(buf.data))
	}
	return &fakeRegion{rec: rec.(*fakeRecorder), buf: buf, id: buffer, offset: offset, data: make([]byte, size)}, nil
}

type fakeRegion struct {
	rec    *fakeRecorder
	buf    *fakeBuffer
	id     BufferID
	offset uint64
	data   []byte
}

func (r *fakeRegion) Bytes() []byte { return r.data }

func (r *fakeRegion) Close() error {
	copy(r.buf.data[r.offset:], r.data)
	r.rec.cmds = append(r.rec.cmds, command{kind: "write", buffer: r.id, offset: r.offset, size: uint64(len(r.data))})
	return nil
}

type fakeResolve struct {
	format     gputypes.TextureFormat
	samples    uint32
	attachment TextureViewID
	resolved   TextureViewID

	prepares  int
	width     uint32
	height    uint32
	destroyed bool
}

func (f *fakeResolve) SampleCount() uint32 { return f.samples }

func (f *fakeResolve) Prepare(width, height uint32) (attachment, resolve TextureViewID, err error) {
	f.prepares++
	f.width, f.height = width, height
	return f.attachment, f.resolved, nil
}

func (f *fakeResolve) Resolve(rec CommandRecorder, target TextureViewID) error {
	r := rec.(*fakeRecorder)
	r.cmds = append(r.cmds, command{kind: "resolve", target: target})
	return nil
}

func (f *fakeResolve) Destroy() { f.destroyed = true }

// testShader is a stand-in module; the fake device never inspects it.
var testShader = []uint32{0x07230203, 0x00010000, 0, 1, 0}

func newTestRenderer(d *fakeDevice, opts ...Option) (*BatchRenderer, error) {
	opts = append([]Option{WithShaders(testShader, testShader)}, opts...)
	return New(d, gputypes.TextureFormatBGRA8Unorm, opts...)
}

// solidMesh builds a mesh of n vertices and m indices at origin.
func solidMesh(n, m int, origin trimesh.Point, clip trimesh.Rect) trimesh.Mesh {
	mesh := trimesh.Mesh{Origin: origin, ClipBounds: clip}
	for i := 0; i < n; i++ {
		mesh.Vertices = append(mesh.Vertices, trimesh.Vertex{
			Position: [2]float32{float32(i), float32(i * 2)},
			Color:    [4]float32{1, 0, 0, 1},
		})
	}
	for i := 0; i < m; i++ {
		mesh.Indices = append(mesh.Indices, uint32(i%max(n, 1)))
	}
	return mesh
}

func newFrame(d *fakeDevice, meshes ...trimesh.Mesh) (*Frame, *fakeRecorder) {
	rec := &fakeRecorder{}
	return &Frame{
		Recorder:       rec,
		Belt:           &fakeBelt{device: d},
		Target:         4242,
		Width:          800,
		Height:         600,
		Transformation: trimesh.Orthographic(800, 600),
		ScaleFactor:    1,
		Meshes:         meshes,
	}, rec
}
