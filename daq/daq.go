package daq

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Feras-dev/mscs-thesis/capture"
	"github.com/Feras-dev/mscs-thesis/report"
	"github.com/Feras-dev/mscs-thesis/trigger"
	"github.com/Feras-dev/mscs-thesis/videosource"
)

// RunResult holds everything one session produced.
type RunResult struct {
	// Dir is the session directory containing the frames and report
	Dir string
	// Capture holds the session timestamps and counters
	Capture *capture.Result
	// Stats holds the derived latency statistics
	Stats report.Stats
	// ReportPath is the written stats.txt location
	ReportPath string
}

// Run executes one complete acquisition session with the configured
// collaborators.
//
// The source is closed before Run returns; close errors are logged,
// not propagated.
func Run(cfg Config) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src, err := newSource(cfg)
	if err != nil {
		return nil, err
	}

	trig, err := newTrigger(cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := trig.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				slog.Error("daq: trigger close failed", "error", err)
			}
		}()
	}

	return RunSession(cfg, src, trig)
}

// RunSession executes one acquisition session with explicit
// collaborators. Run wires the configured ones; tests inject doubles.
//
// Control flow, in strict sequence:
//  1. Open and probe the video source. Either failing is fatal and
//     happens before any directory is created or trigger emitted.
//  2. Create the session directory <OutputRoot>/<epoch_seconds>/.
//  3. Fire the trigger and capture FrameCount frames (capture.Recorder).
//  4. Compute latency statistics, log them, and write stats.txt.
func RunSession(cfg Config, src videosource.Source, trig trigger.Controller) (*RunResult, error) {
	slog.Info("daq: initializing video source", "source", string(cfg.Source))

	if err := src.Open(); err != nil {
		return nil, fmt.Errorf("daq: video source failed to open: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			slog.Error("daq: video source close failed", "error", err)
		}
	}()

	if err := src.Probe(); err != nil {
		return nil, fmt.Errorf("daq: video source failed liveness probe: %w", err)
	}

	slog.Info("daq: video source ready")

	// Session directory: frames/<epoch_seconds>/
	dir := filepath.Join(cfg.OutputRoot, strconv.FormatInt(capture.Now().Sec, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("daq: failed to create session directory %s: %w", dir, err)
	}

	rec, err := capture.NewRecorder(capture.Config{
		OutputDir:   dir,
		FrameCount:  cfg.FrameCount,
		Color:       cfg.Color,
		Format:      cfg.Format,
		JPEGQuality: cfg.JPEGQuality,
	})
	if err != nil {
		return nil, err
	}

	res, err := rec.Run(src, trig)
	if err != nil {
		return nil, err
	}

	stats := report.Compute(res)

	slog.Info("daq: session statistics",
		"session_id", res.SessionID,
		"t1", stats.T1.String(),
		"t2", stats.T2.String(),
		"t3", stats.T3.String(),
		"t_diff_s", report.Seconds(stats.Latency),
		"t_total_s", report.Seconds(stats.Total),
		"frames_written", res.FramesWritten,
		"write_failures", res.WriteFailures,
		"empty_frames", res.EmptyFrames,
	)

	path, err := report.WriteFile(dir, stats)
	if err != nil {
		return nil, err
	}

	slog.Info("daq: session complete",
		"dir", dir,
		"report", path,
	)

	return &RunResult{
		Dir:        dir,
		Capture:    res,
		Stats:      stats,
		ReportPath: path,
	}, nil
}

// newSource constructs the configured video source.
func newSource(cfg Config) (videosource.Source, error) {
	switch cfg.Source {
	case SourceCSI:
		return videosource.NewCSISource(cfg.CSI)
	case SourceV4L2:
		return videosource.NewV4L2Source(cfg.V4L2)
	case SourceSim:
		return videosource.NewSimSource(cfg.Sim)
	default:
		return nil, fmt.Errorf("daq: unknown source kind %q", cfg.Source)
	}
}

// newTrigger constructs the configured trigger controller.
//
// The GPIO line is requested here, before the source is even opened,
// so a missing or busy line fails the run before any hardware is
// touched.
func newTrigger(cfg Config) (trigger.Controller, error) {
	switch cfg.Trigger {
	case TriggerGPIO:
		return trigger.NewGPIO(cfg.GPIO)
	case TriggerNone:
		return trigger.Noop{}, nil
	default:
		return nil, fmt.Errorf("daq: unknown trigger kind %q", cfg.Trigger)
	}
}
