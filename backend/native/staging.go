package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/trimesh/meshcore"
	"github.com/gogpu/wgpu/hal"
)

const (
	// DefaultChunkSize is the size of a staging chunk. Larger writes get a
	// dedicated chunk of their own size.
	DefaultChunkSize = 1 << 20

	// CopyAlignment is the WebGPU COPY_BUFFER_ALIGNMENT.
	CopyAlignment = 4
)

// StagingBelt implements meshcore.StagingBelt with a ring of HAL staging
// chunks.
//
// Each write is assembled in a CPU mirror of its chunk, uploaded to the
// chunk with Queue.WriteBuffer when the region closes, and copied to the
// destination by a CopyBufferToBuffer recorded on the frame's Recorder.
//
// Frame protocol: Write during recording, Finish before Submit, Recall
// after the submission completed. Chunks become writable again only after
// Recall.
type StagingBelt struct {
	adapter   *HALAdapter
	chunkSize uint64

	active []*stagingChunk
	closed []*stagingChunk
	free   []*stagingChunk

	staged uint64
}

type stagingChunk struct {
	buffer hal.Buffer
	data   []byte
	offset uint64
}

func (c *stagingChunk) remaining() uint64 {
	return uint64(len(c.data)) - c.offset
}

// NewStagingBelt creates a belt allocating chunks of chunkSize bytes.
// A chunkSize of 0 selects DefaultChunkSize.
func NewStagingBelt(adapter *HALAdapter, chunkSize uint64) *StagingBelt {
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	chunkSize = (chunkSize + CopyAlignment - 1) &^ (CopyAlignment - 1)
	return &StagingBelt{adapter: adapter, chunkSize: chunkSize}
}

// Write reserves size bytes to be copied into buffer at offset.
func (b *StagingBelt) Write(rec meshcore.CommandRecorder, buffer meshcore.BufferID, offset, size uint64) (meshcore.WriteRegion, error) {
	if size == 0 {
		return nil, ErrZeroSizeWrite
	}
	if offset%CopyAlignment != 0 || size%CopyAlignment != 0 {
		return nil, fmt.Errorf("%w: offset %d size %d", ErrUnalignedWrite, offset, size)
	}
	r, ok := rec.(*Recorder)
	if !ok || r.adapter != b.adapter {
		return nil, ErrForeignRecorder
	}
	if r.closed {
		return nil, ErrRecorderClosed
	}
	dst, ok := b.adapter.buffer(buffer)
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", ErrUnknownResource, buffer)
	}

	chunk, err := b.chunkFor(size)
	if err != nil {
		return nil, err
	}
	start := chunk.offset
	chunk.offset += size
	b.staged += size

	return &writeRegion{
		belt:      b,
		rec:       r,
		chunk:     chunk,
		dst:       dst,
		srcOffset: start,
		dstOffset: offset,
		data:      chunk.data[start : start+size : start+size],
	}, nil
}

// chunkFor returns an active chunk with at least size free bytes,
// reusing a recalled chunk or allocating a new one when needed.
func (b *StagingBelt) chunkFor(size uint64) (*stagingChunk, error) {
	for _, c := range b.active {
		if c.remaining() >= size {
			return c, nil
		}
	}
	for i, c := range b.free {
		if uint64(len(c.data)) >= size {
			b.free = append(b.free[:i], b.free[i+1:]...)
			b.active = append(b.active, c)
			return c, nil
		}
	}

	capacity := max(b.chunkSize, size)
	buffer, err := b.adapter.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "trimesh_staging",
		Size:  capacity,
		Usage: gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: allocate staging chunk (%d bytes): %w", capacity, err)
	}
	c := &stagingChunk{buffer: buffer, data: make([]byte, capacity)}
	b.active = append(b.active, c)
	return c, nil
}

// Finish closes the chunks used since the last Finish. Call it before
// submitting the recorder the writes were recorded on.
func (b *StagingBelt) Finish() {
	b.closed = append(b.closed, b.active...)
	b.active = b.active[:0]
}

// Recall makes finished chunks writable again. Call it after the
// submission that consumed them has completed.
func (b *StagingBelt) Recall() {
	for _, c := range b.closed {
		c.offset = 0
	}
	b.free = append(b.free, b.closed...)
	b.closed = b.closed[:0]
}

// Chunks returns the number of chunks owned by the belt.
func (b *StagingBelt) Chunks() int {
	return len(b.active) + len(b.closed) + len(b.free)
}

// StagedBytes returns the total number of bytes written through the belt.
func (b *StagingBelt) StagedBytes() uint64 { return b.staged }

// Destroy releases every chunk.
func (b *StagingBelt) Destroy() {
	for _, list := range [][]*stagingChunk{b.active, b.closed, b.free} {
		for _, c := range list {
			b.adapter.device.DestroyBuffer(c.buffer)
		}
	}
	b.active, b.closed, b.free = nil, nil, nil
}

// writeRegion implements meshcore.WriteRegion.
type writeRegion struct {
	belt      *StagingBelt
	rec       *Recorder
	chunk     *stagingChunk
	dst       hal.Buffer
	srcOffset uint64
	dstOffset uint64
	data      []byte
	done      bool
}

func (w *writeRegion) Bytes() []byte { return w.data }

// Close uploads the region into its chunk and records the copy into the
// destination buffer. A failed upload records no copy and poisons the
// recorder, so the frame is discarded on Submit.
func (w *writeRegion) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	if w.rec.closed {
		return ErrRecorderClosed
	}
	if err := w.belt.adapter.queue.WriteBuffer(w.chunk.buffer, w.srcOffset, w.data); err != nil {
		err = fmt.Errorf("native: upload %d staged bytes: %w", len(w.data), err)
		w.rec.fail(err)
		return err
	}
	w.rec.copyBuffer(w.chunk.buffer, w.dst, w.srcOffset, w.dstOffset, uint64(len(w.data)))
	return nil
}

var _ meshcore.StagingBelt = (*StagingBelt)(nil)
