package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/trimesh"
	"github.com/gogpu/trimesh/meshcore"
	"github.com/gogpu/wgpu/hal"
)

// Recorder implements meshcore.CommandRecorder on a HAL command encoder.
//
// Lookup failures inside a render pass cannot be reported by the
// meshcore encoder methods; the first one is kept and returned by Submit,
// which then discards the encoding.
type Recorder struct {
	adapter *HALAdapter
	encoder hal.CommandEncoder
	label   string

	err    error
	closed bool
}

// BeginFrame creates a command encoder and starts recording.
func (a *HALAdapter) BeginFrame(label string) (*Recorder, error) {
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}
	return &Recorder{adapter: a, encoder: encoder, label: label}, nil
}

// Err returns the first deferred recording error.
func (r *Recorder) Err() error { return r.err }

func (r *Recorder) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Encoder returns the underlying HAL command encoder.
func (r *Recorder) Encoder() hal.CommandEncoder { return r.encoder }

// BeginRenderPass begins a render pass with one color attachment.
func (r *Recorder) BeginRenderPass(desc *meshcore.RenderPassDesc) meshcore.RenderPassEncoder {
	if r.closed {
		r.fail(ErrRecorderClosed)
		return &renderPass{rec: r}
	}

	view, ok := r.adapter.textureView(desc.View)
	if !ok {
		r.fail(fmt.Errorf("%w: color attachment %d", ErrUnknownResource, desc.View))
		return &renderPass{rec: r}
	}
	attachment := hal.RenderPassColorAttachment{
		View:       view,
		LoadOp:     gputypes.LoadOpLoad,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: desc.ClearValue,
	}
	if desc.LoadOp == meshcore.LoadOpClear {
		attachment.LoadOp = gputypes.LoadOpClear
	}
	if desc.ResolveTarget != meshcore.InvalidID {
		resolve, ok := r.adapter.textureView(desc.ResolveTarget)
		if !ok {
			r.fail(fmt.Errorf("%w: resolve target %d", ErrUnknownResource, desc.ResolveTarget))
			return &renderPass{rec: r}
		}
		attachment.ResolveTarget = resolve
	}

	rp := r.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{attachment},
	})
	return &renderPass{rec: r, pass: rp}
}

// copyBuffer records a buffer to buffer copy.
func (r *Recorder) copyBuffer(src, dst hal.Buffer, srcOffset, dstOffset, size uint64) {
	r.encoder.CopyBufferToBuffer(src, dst, []hal.BufferCopy{
		{SrcOffset: srcOffset, DstOffset: dstOffset, Size: size},
	})
}

// Submit ends recording, submits the commands and waits for the GPU to
// finish them.
func (r *Recorder) Submit() error {
	if r.closed {
		return ErrRecorderClosed
	}
	r.closed = true

	if r.err != nil {
		r.encoder.DiscardEncoding()
		trimesh.Logger().Warn("native: frame discarded", "label", r.label, "err", r.err)
		return fmt.Errorf("native: %s: %w", r.label, r.err)
	}

	device, queue := r.adapter.device, r.adapter.queue
	cmdBuf, err := r.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	if _, err := queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	return r.adapter.waitIdle()
}

// Discard abandons the recorded commands.
func (r *Recorder) Discard() {
	if r.closed {
		return
	}
	r.closed = true
	r.encoder.DiscardEncoding()
}

// renderPass implements meshcore.RenderPassEncoder. A nil pass swallows
// commands after a failed BeginRenderPass.
type renderPass struct {
	rec  *Recorder
	pass hal.RenderPassEncoder
}

func (p *renderPass) SetPipeline(id meshcore.RenderPipelineID) {
	if p.pass == nil {
		return
	}
	p.rec.adapter.mu.RLock()
	pipeline, ok := p.rec.adapter.renderPipelines[id]
	p.rec.adapter.mu.RUnlock()
	if !ok {
		p.rec.fail(fmt.Errorf("%w: render pipeline %d", ErrUnknownResource, id))
		return
	}
	p.pass.SetPipeline(pipeline)
}

func (p *renderPass) SetVertexBuffer(slot uint32, id meshcore.BufferID, offset uint64) {
	if p.pass == nil {
		return
	}
	buffer, ok := p.rec.adapter.buffer(id)
	if !ok {
		p.rec.fail(fmt.Errorf("%w: vertex buffer %d", ErrUnknownResource, id))
		return
	}
	p.pass.SetVertexBuffer(slot, buffer, offset)
}

func (p *renderPass) SetIndexBuffer(id meshcore.BufferID, offset uint64) {
	if p.pass == nil {
		return
	}
	buffer, ok := p.rec.adapter.buffer(id)
	if !ok {
		p.rec.fail(fmt.Errorf("%w: index buffer %d", ErrUnknownResource, id))
		return
	}
	p.pass.SetIndexBuffer(buffer, gputypes.IndexFormatUint32, offset)
}

func (p *renderPass) SetScissorRect(x, y, width, height uint32) {
	if p.pass == nil {
		return
	}
	p.pass.SetScissorRect(x, y, width, height)
}

func (p *renderPass) SetBindGroup(index uint32, id meshcore.BindGroupID, dynamicOffsets []uint32) {
	if p.pass == nil {
		return
	}
	p.rec.adapter.mu.RLock()
	group, ok := p.rec.adapter.bindGroups[id]
	p.rec.adapter.mu.RUnlock()
	if !ok {
		p.rec.fail(fmt.Errorf("%w: bind group %d", ErrUnknownResource, id))
		return
	}
	p.pass.SetBindGroup(index, group, dynamicOffsets)
}

func (p *renderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if p.pass == nil {
		return
	}
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *renderPass) End() {
	if p.pass == nil {
		return
	}
	p.pass.End()
	p.pass = nil
}

var _ meshcore.CommandRecorder = (*Recorder)(nil)
