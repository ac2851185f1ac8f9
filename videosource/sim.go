package videosource

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SimConfig contains configuration for the simulated source
type SimConfig struct {
	// Width of generated frames in pixels (required)
	Width int
	// Height of generated frames in pixels (required)
	Height int
	// Interval is the fixed inter-frame delay. Zero means frames are
	// produced as fast as they are requested.
	Interval time.Duration
	// EmptyAt lists NextFrame call indices (0-based, counting the
	// probe pull) that yield an empty frame. Used for failure
	// injection in tests.
	EmptyAt []int
	// FailOpen forces Open to fail.
	FailOpen bool
}

// SimSource implements Source with deterministic synthetic frames.
//
// Each frame is a moving gradient pattern derived from its sequence
// number, delivered after a fixed delay. Intended for tests and for
// exercising the acquisition path on machines without camera hardware.
type SimSource struct {
	cfg     SimConfig
	emptyAt map[int]bool

	// calls counts NextFrame invocations, including the probe pull
	calls int

	frameCount  uint64
	bytesRead   uint64
	emptyFrames uint64

	opened bool
	closed atomic.Bool
}

// NewSimSource creates a simulated source with fail-fast validation.
func NewSimSource(cfg SimConfig) (*SimSource, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf(
			"videosource: invalid resolution %dx%d (width and height must be positive)",
			cfg.Width, cfg.Height,
		)
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("videosource: negative interval %v", cfg.Interval)
	}

	emptyAt := make(map[int]bool, len(cfg.EmptyAt))
	for _, i := range cfg.EmptyAt {
		emptyAt[i] = true
	}

	return &SimSource{cfg: cfg, emptyAt: emptyAt}, nil
}

// Open marks the source ready, or fails when configured to.
func (s *SimSource) Open() error {
	if s.cfg.FailOpen {
		return fmt.Errorf("videosource: simulated open failure")
	}
	if s.opened {
		return fmt.Errorf("videosource: sim source already opened")
	}
	s.opened = true

	slog.Debug("videosource: sim source opened",
		"resolution", fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
		"interval", s.cfg.Interval,
	)

	return nil
}

// Probe pulls one frame and verifies it is non-empty.
//
// Consumes one NextFrame call, exactly like a real device probe.
func (s *SimSource) Probe() error {
	frame, err := s.NextFrame()
	if err != nil {
		return fmt.Errorf("videosource: probe failed: %w", err)
	}
	if frame.Empty() {
		return ErrProbeEmpty
	}
	return nil
}

// NextFrame waits the configured interval, then returns the next
// synthetic frame.
func (s *SimSource) NextFrame() (Frame, error) {
	if !s.opened {
		return Frame{}, ErrNotOpened
	}
	if s.closed.Load() {
		return Frame{}, ErrClosed
	}

	if s.cfg.Interval > 0 {
		time.Sleep(s.cfg.Interval)
	}

	call := s.calls
	s.calls++

	seq := atomic.AddUint64(&s.frameCount, 1)

	frame := Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     s.cfg.Width,
		Height:    s.cfg.Height,
		TraceID:   uuid.New().String(),
	}

	if s.emptyAt[call] {
		atomic.AddUint64(&s.emptyFrames, 1)
		return frame, nil
	}

	frame.Data = gradientRGB(s.cfg.Width, s.cfg.Height, seq)
	atomic.AddUint64(&s.bytesRead, uint64(len(frame.Data)))

	return frame, nil
}

// Close marks the source closed. Idempotent.
func (s *SimSource) Close() error {
	s.closed.CompareAndSwap(false, true)
	return nil
}

// Stats returns acquisition counters for the current run.
func (s *SimSource) Stats() SourceStats {
	return SourceStats{
		FramesDelivered: atomic.LoadUint64(&s.frameCount),
		BytesRead:       atomic.LoadUint64(&s.bytesRead),
		EmptyFrames:     atomic.LoadUint64(&s.emptyFrames),
	}
}

// gradientRGB generates a deterministic RGB24 test pattern that shifts
// with the sequence number, so consecutive frames differ.
func gradientRGB(width, height int, seq uint64) []byte {
	data := make([]byte, width*height*3)
	shift := byte(seq)

	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			data[i+0] = byte(x) + shift
			data[i+1] = byte(y)
			data[i+2] = byte(x+y) - shift
			i += 3
		}
	}

	return data
}
