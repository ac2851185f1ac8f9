package videosource

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"
)

// V4L2Config contains configuration for a USB camera source
type V4L2Config struct {
	// DevicePath is the V4L2 character device (e.g. /dev/video0)
	DevicePath string
	// Width of captured frames in pixels (required)
	Width int
	// Height of captured frames in pixels (required)
	Height int
	// FPS is the requested framerate (1 - 120)
	FPS int
}

// V4L2Source implements Source using the Video4Linux2 API for USB
// cameras.
//
// The device is configured for MJPEG output; each frame is decoded to
// packed RGB24 before delivery. A frame that fails to decode is
// delivered as an empty Frame, not an error -- garbage from the device
// is part of the acquisition contract.
type V4L2Source struct {
	cfg V4L2Config

	cam    *device.Device
	cancel context.CancelFunc

	frameCount  uint64
	bytesRead   uint64
	emptyFrames uint64

	opened bool
	closed atomic.Bool
}

// NewV4L2Source creates a USB camera source with fail-fast validation.
func NewV4L2Source(cfg V4L2Config) (*V4L2Source, error) {
	if cfg.DevicePath == "" {
		return nil, fmt.Errorf("videosource: device path is required")
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf(
			"videosource: invalid resolution %dx%d (width and height must be positive)",
			cfg.Width, cfg.Height,
		)
	}

	if cfg.FPS < 1 || cfg.FPS > 120 {
		return nil, fmt.Errorf(
			"videosource: invalid FPS %d (must be 1-120)",
			cfg.FPS,
		)
	}

	return &V4L2Source{cfg: cfg}, nil
}

// Open configures the V4L2 device and starts streaming.
func (s *V4L2Source) Open() error {
	if s.opened {
		return fmt.Errorf("videosource: V4L2 source already opened")
	}

	cam, err := device.Open(
		s.cfg.DevicePath,
		device.WithBufferSize(2),
		device.WithPixFormat(v4l2.PixFormat{
			PixelFormat: v4l2.PixelFmtMJPEG,
			Width:       uint32(s.cfg.Width),
			Height:      uint32(s.cfg.Height),
		}),
		device.WithFPS(uint32(s.cfg.FPS)),
	)
	if err != nil {
		return fmt.Errorf("videosource: failed to open %s: %w", s.cfg.DevicePath, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := cam.Start(ctx); err != nil {
		cancel()
		cam.Close()
		return fmt.Errorf("videosource: failed to start streaming on %s: %w", s.cfg.DevicePath, err)
	}

	s.cam = cam
	s.cancel = cancel
	s.opened = true

	slog.Info("videosource: V4L2 source opened",
		"device", s.cfg.DevicePath,
		"resolution", fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
		"fps", s.cfg.FPS,
	)

	return nil
}

// Probe pulls one frame and verifies it is non-empty.
func (s *V4L2Source) Probe() error {
	frame, err := s.NextFrame()
	if err != nil {
		return fmt.Errorf("videosource: probe failed: %w", err)
	}
	if frame.Empty() {
		return ErrProbeEmpty
	}

	slog.Debug("videosource: probe ok",
		"seq", frame.Seq,
		"size_bytes", len(frame.Data),
		"trace_id", frame.TraceID,
	)

	return nil
}

// NextFrame blocks until the device yields the next frame and decodes
// it to RGB24.
//
// No timeout is applied: a stalled device stalls the caller.
func (s *V4L2Source) NextFrame() (Frame, error) {
	if !s.opened {
		return Frame{}, ErrNotOpened
	}

	raw, ok := <-s.cam.GetOutput()
	if !ok {
		return Frame{}, ErrClosed
	}

	seq := atomic.AddUint64(&s.frameCount, 1)

	frame := Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     s.cfg.Width,
		Height:    s.cfg.Height,
		TraceID:   uuid.New().String(),
	}

	data, w, h, err := decodeMJPEG(raw)
	if err != nil {
		// Deliver the degenerate frame; the capture loop decides
		// what to do with it.
		atomic.AddUint64(&s.emptyFrames, 1)
		slog.Warn("videosource: frame decode failed, delivering empty frame",
			"seq", seq,
			"error", err,
			"trace_id", frame.TraceID,
		)
		return frame, nil
	}

	frame.Width = w
	frame.Height = h
	frame.Data = data
	atomic.AddUint64(&s.bytesRead, uint64(len(data)))

	return frame, nil
}

// Close stops streaming and releases the device.
//
// Idempotent - safe to call multiple times, and safe if Open failed.
func (s *V4L2Source) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	if s.cam != nil {
		if err := s.cam.Close(); err != nil {
			return fmt.Errorf("videosource: failed to close %s: %w", s.cfg.DevicePath, err)
		}
	}

	slog.Info("videosource: V4L2 source closed",
		"device", s.cfg.DevicePath,
		"frames_delivered", atomic.LoadUint64(&s.frameCount),
		"bytes_read", atomic.LoadUint64(&s.bytesRead),
	)

	return nil
}

// Stats returns acquisition counters for the current run.
func (s *V4L2Source) Stats() SourceStats {
	return SourceStats{
		FramesDelivered: atomic.LoadUint64(&s.frameCount),
		BytesRead:       atomic.LoadUint64(&s.bytesRead),
		EmptyFrames:     atomic.LoadUint64(&s.emptyFrames),
	}
}

// decodeMJPEG decodes one MJPEG frame to packed RGB24.
func decodeMJPEG(raw []byte) (data []byte, width, height int, err error) {
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("jpeg decode: %w", err)
	}

	bounds := img.Bounds()
	width = bounds.Dx()
	height = bounds.Dy()
	data = make([]byte, width*height*3)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			data[i+0] = byte(r >> 8)
			data[i+1] = byte(g >> 8)
			data[i+2] = byte(b >> 8)
			i += 3
		}
	}

	return data, width, height, nil
}
