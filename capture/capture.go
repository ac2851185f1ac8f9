package capture

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Feras-dev/mscs-thesis/trigger"
	"github.com/Feras-dev/mscs-thesis/videosource"
)

// ColorMode selects the persisted colorspace
type ColorMode int

const (
	// RGB persists frames in full color
	RGB ColorMode = iota
	// Grayscale converts frames to single-channel luma before
	// persisting
	Grayscale
)

// String returns a human-readable string representation of the mode
func (m ColorMode) String() string {
	switch m {
	case Grayscale:
		return "grayscale"
	default:
		return "rgb"
	}
}

// Config contains configuration for one capture session
type Config struct {
	// OutputDir is the writable session directory (required, must
	// already exist)
	OutputDir string
	// FrameCount is the fixed number of frames to acquire (required)
	FrameCount int
	// Color selects the persisted colorspace
	Color ColorMode
	// Format is the image format, "png" (default) or "jpeg"
	Format string
	// JPEGQuality is 1-100, used only for jpeg
	JPEGQuality int
}

// Result holds the session timestamps and counters produced by one
// capture run. Values are immutable once Run returns; there is no
// ambient session state.
type Result struct {
	// SessionID uniquely identifies this run
	SessionID string
	// Trigger (t1) is recorded immediately after the trigger pulse
	// returns
	Trigger Timestamp
	// FirstFrame (t2) is recorded immediately after the first frame
	// is retrieved, before any conversion
	FirstFrame Timestamp
	// LastFrame (t3) is recorded after the capture loop completes
	LastFrame Timestamp
	// FramesWritten is the number of frames successfully persisted
	FramesWritten int
	// WriteFailures is the number of persistence failures (loop
	// continues past them)
	WriteFailures int
	// EmptyFrames is the number of capture slots that yielded an
	// empty buffer
	EmptyFrames int
}

// Recorder acquires a fixed count of frames from a Source, tags each
// with a wall-clock timestamp, and persists each to the session
// directory.
type Recorder struct {
	cfg Config
	w   *FrameWriter
}

// NewRecorder creates a recorder with fail-fast validation.
func NewRecorder(cfg Config) (*Recorder, error) {
	if cfg.FrameCount <= 0 {
		return nil, fmt.Errorf("capture: frame count must be positive, got %d", cfg.FrameCount)
	}
	if cfg.Format == "" {
		cfg.Format = "png"
	}

	w, err := NewFrameWriter(cfg.OutputDir, cfg.Color, cfg.Format, cfg.JPEGQuality)
	if err != nil {
		return nil, err
	}

	return &Recorder{cfg: cfg, w: w}, nil
}

// Run executes one acquisition session: fire the trigger, then pull,
// timestamp and persist exactly FrameCount frames in order.
//
// The trigger pulse and the loop are sequential. t1 is taken the
// instant the pulse call returns; t2 the instant the first frame is
// retrieved, before its conversion; t3 after the loop. Write failures
// and empty frames are counted, logged, and do not abort the loop.
//
// Run returns an error only if the trigger fails before any capture,
// or the source itself becomes unusable mid-loop (device stream
// ended); a partial session has no meaning, so either is fatal.
func (r *Recorder) Run(src videosource.Source, trig trigger.Controller) (*Result, error) {
	res := &Result{SessionID: uuid.New().String()}

	slog.Info("capture: starting session",
		"session_id", res.SessionID,
		"frame_count", r.cfg.FrameCount,
		"color", r.cfg.Color.String(),
		"output_dir", r.cfg.OutputDir,
	)

	if err := trig.PulseTwice(); err != nil {
		return nil, fmt.Errorf("capture: trigger pulse failed: %w", err)
	}
	// t1: the reference instant all latency derives from
	res.Trigger = Now()

	for i := 0; i < r.cfg.FrameCount; i++ {
		frame, err := src.NextFrame()
		if err != nil {
			return nil, fmt.Errorf("capture: frame %d/%d: %w", i+1, r.cfg.FrameCount, err)
		}

		if i == 0 {
			// t2: immediately after retrieval, before any
			// conversion, so conversion cost never inflates
			// measured latency
			res.FirstFrame = Now()
		}

		if frame.Empty() {
			res.EmptyFrames++
			slog.Warn("capture: empty frame",
				"index", i,
				"seq", frame.Seq,
				"trace_id", frame.TraceID,
			)
		}

		ts := Now()
		if err := r.w.Write(frame, ts); err != nil {
			res.WriteFailures++
			slog.Error("capture: frame write failed",
				"index", i,
				"timestamp", ts.String(),
				"error", err,
				"trace_id", frame.TraceID,
			)
			continue
		}
		res.FramesWritten++
	}

	// t3
	res.LastFrame = Now()

	slog.Info("capture: session complete",
		"session_id", res.SessionID,
		"frames_written", res.FramesWritten,
		"write_failures", res.WriteFailures,
		"empty_frames", res.EmptyFrames,
		"t1", res.Trigger.String(),
		"t2", res.FirstFrame.String(),
		"t3", res.LastFrame.String(),
	)

	return res, nil
}

// Writer exposes the recorder's frame writer, mainly for its counters.
func (r *Recorder) Writer() *FrameWriter {
	return r.w
}
