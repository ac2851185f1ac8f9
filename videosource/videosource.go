package videosource

import (
	"errors"
	"time"
)

// Frame represents a single video frame with metadata
type Frame struct {
	// Seq is the monotonic sequence number, starting at 1
	Seq uint64
	// Timestamp is when the frame was captured/decoded
	Timestamp time.Time
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Data contains packed RGB24 pixel data (3 bytes per pixel).
	// May be empty if the device yielded a degenerate buffer.
	Data []byte
	// TraceID is a unique identifier for correlating a frame across
	// capture, persistence and logs
	TraceID string
}

// Empty reports whether the frame carries no pixel data.
func (f Frame) Empty() bool {
	return len(f.Data) == 0
}

// SourceStats contains per-run acquisition counters
type SourceStats struct {
	// FramesDelivered is the total number of frames handed to callers
	FramesDelivered uint64
	// BytesRead is the total pixel bytes delivered
	BytesRead uint64
	// EmptyFrames is the number of degenerate (zero-length) frames
	EmptyFrames uint64
}

// Sentinel errors shared by all Source implementations.
var (
	// ErrNotOpened is returned when Probe or NextFrame is called
	// before a successful Open.
	ErrNotOpened = errors.New("videosource: source not opened")
	// ErrClosed is returned when the source has been closed or the
	// underlying device ended the stream.
	ErrClosed = errors.New("videosource: source closed")
	// ErrProbeEmpty is returned by Probe when the device opened but
	// delivered an empty first frame.
	ErrProbeEmpty = errors.New("videosource: probe returned empty frame")
)

// Source defines the contract for video frame acquisition
//
// Implementations must guarantee:
//   - Open() establishes the capture channel or returns an error
//   - Probe() pulls exactly one frame and returns an error unless that
//     frame is non-empty (liveness check against a device that opens
//     but never delivers data)
//   - NextFrame() blocks until the device yields; empty buffers are
//     returned as frames, not errors
//   - Close() is idempotent and safe to call even if Open failed
//
// No call applies a timeout. A stalled device stalls the caller; the
// acquisition session is strictly sequential and accepts that.
type Source interface {
	// Open establishes the capture channel with the underlying device.
	Open() error

	// Probe pulls one frame after Open and returns nil only if that
	// frame is non-empty. Call once, before starting a session.
	Probe() error

	// NextFrame blocks until the next frame is available and returns
	// whatever the device yielded, including empty buffers. It returns
	// an error only when the source itself is unusable (not opened,
	// closed, or the device stream ended).
	NextFrame() (Frame, error)

	// Close releases underlying device resources. Safe to call even
	// if the source was never opened, and safe to call twice.
	Close() error

	// Stats returns acquisition counters for the current run.
	Stats() SourceStats
}
