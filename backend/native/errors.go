package native

import "errors"

// Package errors for the HAL backend.
var (
	// ErrNilDevice is returned when the HAL device or queue is nil.
	ErrNilDevice = errors.New("native: nil HAL device or queue")

	// ErrNoHAL is returned when a device provider does not expose HAL types.
	ErrNoHAL = errors.New("native: provider does not expose HAL device and queue")

	// ErrUnknownResource is returned when an ID does not map to a live resource.
	ErrUnknownResource = errors.New("native: unknown resource ID")

	// ErrZeroSizeWrite is returned by StagingBelt.Write for an empty range.
	ErrZeroSizeWrite = errors.New("native: zero-size staging write")

	// ErrUnalignedWrite is returned by StagingBelt.Write when the offset or
	// size is not a multiple of CopyAlignment.
	ErrUnalignedWrite = errors.New("native: staging write not 4-byte aligned")

	// ErrForeignRecorder is returned when a recorder from another backend
	// is passed to this backend.
	ErrForeignRecorder = errors.New("native: recorder was not created by this adapter")

	// ErrRecorderClosed is returned when recording into a submitted recorder.
	ErrRecorderClosed = errors.New("native: recorder already submitted")

	// ErrWaitTimeout is returned when a submission does not complete in time.
	ErrWaitTimeout = errors.New("native: timed out waiting for GPU")
)
