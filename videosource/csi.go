package videosource

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	igst "github.com/Feras-dev/mscs-thesis/videosource/internal/gst"
)

// CSIConfig contains configuration for a Jetson CSI camera source
type CSIConfig struct {
	// SensorID selects the CSI sensor (0 for the first camera)
	SensorID int
	// Width of captured frames in pixels (required)
	Width int
	// Height of captured frames in pixels (required)
	Height int
	// FPS is the sensor framerate (0.1 - 120)
	FPS float64
	// FlipMode rotates frames in 90 degree steps (0..3)
	FlipMode int
}

// CSISource implements Source using a GStreamer nvarguscamerasrc
// pipeline on Jetson hardware
type CSISource struct {
	cfg CSIConfig

	// GStreamer pipeline elements
	elements *igst.PipelineElements

	// Frame output
	frames chan Frame
	mu     sync.Mutex

	// Lifecycle
	done chan struct{}
	wg   sync.WaitGroup

	// Statistics (atomic for thread-safety)
	frameCount  uint64
	bytesRead   uint64
	emptyFrames uint64

	opened bool
	closed atomic.Bool
}

// NewCSISource creates a CSI camera source with fail-fast validation
//
// Validates configuration at construction time:
//   - Width and Height must be positive
//   - FPS must be between 0.1 and 120
//   - FlipMode must be 0..3
//
// GStreamer availability is checked in Open, not here, so construction
// never requires the runtime.
func NewCSISource(cfg CSIConfig) (*CSISource, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf(
			"videosource: invalid resolution %dx%d (width and height must be positive)",
			cfg.Width, cfg.Height,
		)
	}

	if cfg.FPS < 0.1 || cfg.FPS > 120 {
		return nil, fmt.Errorf(
			"videosource: invalid FPS %.2f (must be 0.1-120)",
			cfg.FPS,
		)
	}

	if cfg.FlipMode < 0 || cfg.FlipMode > 3 {
		return nil, fmt.Errorf(
			"videosource: invalid flip mode %d (must be 0-3)",
			cfg.FlipMode,
		)
	}

	slog.Info("videosource: CSI source created",
		"sensor_id", cfg.SensorID,
		"resolution", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"fps", cfg.FPS,
		"flip_mode", cfg.FlipMode,
	)

	return &CSISource{
		cfg:    cfg,
		frames: make(chan Frame, 8),
		done:   make(chan struct{}),
	}, nil
}

// Open builds the GStreamer pipeline and moves it to PLAYING state
//
// This method:
//  1. Verifies the GStreamer runtime is usable
//  2. Creates the nvarguscamerasrc pipeline
//  3. Installs the appsink sample callback
//  4. Starts the pipeline and waits for the PLAYING transition
//  5. Launches a background goroutine for pipeline bus monitoring
//
// Returns an error if the runtime is missing or the pipeline cannot
// reach PLAYING state.
func (s *CSISource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return fmt.Errorf("videosource: CSI source already opened")
	}

	if err := igst.CheckAvailable(); err != nil {
		return fmt.Errorf("videosource: GStreamer not available: %w", err)
	}

	elements, err := igst.CreatePipeline(igst.PipelineConfig{
		SensorID: s.cfg.SensorID,
		Width:    s.cfg.Width,
		Height:   s.cfg.Height,
		FPS:      s.cfg.FPS,
		FlipMode: s.cfg.FlipMode,
	})
	if err != nil {
		return fmt.Errorf("videosource: failed to create pipeline: %w", err)
	}
	s.elements = elements

	// Internal channel for callbacks (avoids import cycle by using
	// the internal frame type)
	internalFrames := make(chan igst.Frame, 8)

	callbackCtx := &igst.CallbackContext{
		FrameChan:    internalFrames,
		FrameCounter: &s.frameCount,
		BytesRead:    &s.bytesRead,
		Width:        s.cfg.Width,
		Height:       s.cfg.Height,
		Done:         s.done,
	}

	// Convert internal frames to public frames
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for internalFrame := range internalFrames {
			f := Frame{
				Seq:       internalFrame.Seq,
				Timestamp: internalFrame.Timestamp,
				Width:     internalFrame.Width,
				Height:    internalFrame.Height,
				Data:      internalFrame.Data,
				TraceID:   internalFrame.TraceID,
			}
			if f.Empty() {
				atomic.AddUint64(&s.emptyFrames, 1)
			}
			select {
			case s.frames <- f:
			case <-s.done:
				return
			}
		}
	}()

	s.elements.AppSink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return igst.OnNewSample(sink, callbackCtx)
		},
	})

	if err := s.elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("videosource: failed to start pipeline: %w", err)
	}

	// Wait for pipeline to reach PLAYING state
	bus := s.elements.Pipeline.GetPipelineBus()
	msg := bus.TimedPop(5 * time.Second)
	if msg != nil && msg.Type() == gst.MessageStateChanged {
		_, newState := msg.ParseStateChanged()
		if newState == gst.StatePlaying {
			slog.Info("videosource: pipeline reached PLAYING state")
		}
	}

	s.wg.Add(1)
	go s.monitorBus()

	s.opened = true

	slog.Info("videosource: CSI source opened",
		"sensor_id", s.cfg.SensorID,
		"resolution", fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
	)

	return nil
}

// monitorBus watches the GStreamer pipeline bus for errors and EOS
//
// Runs until Close. Bus errors do not terminate the session: the
// acquisition loop owns the decision to keep pulling, so errors are
// surfaced as log events only.
func (s *CSISource) monitorBus() {
	defer s.wg.Done()

	bus := s.elements.Pipeline.GetPipelineBus()

	for {
		select {
		case <-s.done:
			slog.Debug("videosource: stopping pipeline bus monitor")
			return

		default:
			// Poll with short timeout for responsive shutdown
			msg := bus.TimedPop(50 * time.Millisecond)
			if msg == nil {
				continue
			}

			switch msg.Type() {
			case gst.MessageEOS:
				slog.Warn("videosource: end of stream received",
					"frames_delivered", atomic.LoadUint64(&s.frameCount),
				)
				return

			case gst.MessageError:
				gerr := msg.ParseError()
				slog.Error("videosource: pipeline error",
					"error", gerr.Error(),
					"debug", gerr.DebugString(),
					"frames_delivered", atomic.LoadUint64(&s.frameCount),
				)

			case gst.MessageStateChanged:
				if msg.Source() == s.elements.Pipeline.GetName() {
					old, new := msg.ParseStateChanged()
					slog.Debug("videosource: pipeline state changed",
						"from", old,
						"to", new,
					)
				}
			}
		}
	}
}

// Probe pulls one frame and verifies it is non-empty.
//
// Guards against the common camera-stack failure mode where the device
// opens successfully but never delivers usable data.
func (s *CSISource) Probe() error {
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

// NextFrame blocks until the pipeline yields the next frame.
//
// No timeout is applied: a stalled sensor stalls the caller.
func (s *CSISource) NextFrame() (Frame, error) {
	s.mu.Lock()
	opened := s.opened
	s.mu.Unlock()

	if !opened {
		return Frame{}, ErrNotOpened
	}

	select {
	case frame, ok := <-s.frames:
		if !ok {
			return Frame{}, ErrClosed
		}
		return frame, nil
	case <-s.done:
		return Frame{}, ErrClosed
	}
}

// Close gracefully shuts down the source
//
// This method:
//  1. Signals shutdown to callbacks and goroutines
//  2. Waits for goroutines to finish (timeout 3s)
//  3. Stops the GStreamer pipeline
//
// Idempotent - safe to call multiple times, and safe if Open failed.
func (s *CSISource) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		slog.Debug("videosource: CSI source already closed, skipping")
		return nil
	}

	close(s.done)

	// Wait for goroutines with timeout
	stopped := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		slog.Debug("videosource: goroutines stopped cleanly")
	case <-time.After(3 * time.Second):
		slog.Warn("videosource: close timeout exceeded, some goroutines may still be running")
	}

	if s.elements != nil {
		if err := igst.DestroyPipeline(s.elements); err != nil {
			slog.Error("videosource: failed to destroy pipeline", "error", err)
		}
		s.elements = nil
	}

	slog.Info("videosource: CSI source closed",
		"frames_delivered", atomic.LoadUint64(&s.frameCount),
		"bytes_read", atomic.LoadUint64(&s.bytesRead),
	)

	return nil
}

// Stats returns acquisition counters for the current run.
//
// Thread-safe - uses atomic operations for counters.
func (s *CSISource) Stats() SourceStats {
	return SourceStats{
		FramesDelivered: atomic.LoadUint64(&s.frameCount),
		BytesRead:       atomic.LoadUint64(&s.bytesRead),
		EmptyFrames:     atomic.LoadUint64(&s.emptyFrames),
	}
}
