package capture

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/Feras-dev/mscs-thesis/videosource"
)

// FrameWriter persists frames to the session directory.
//
// Filenames are the capture timestamp: <sec>.<nsec 9 digits>.<ext>.
// The filename is the ground-truth capture time; downstream analysis
// reconstructs actual inter-frame intervals from it, independent of
// the nominal configured framerate.
type FrameWriter struct {
	dir         string
	color       ColorMode
	format      string
	jpegQuality int

	framesSaved atomic.Uint64
	writeFailed atomic.Uint64
	degenerate  atomic.Uint64
}

// NewFrameWriter creates a frame writer for the given session
// directory.
//
// Format: "png" (lossless, default) or "jpeg".
func NewFrameWriter(dir string, color ColorMode, format string, jpegQuality int) (*FrameWriter, error) {
	if dir == "" {
		return nil, fmt.Errorf("capture: output directory is required")
	}
	if format != "png" && format != "jpeg" {
		return nil, fmt.Errorf("capture: unsupported format %q (must be png or jpeg)", format)
	}
	if format == "jpeg" && (jpegQuality < 1 || jpegQuality > 100) {
		return nil, fmt.Errorf("capture: invalid JPEG quality %d (must be 1-100)", jpegQuality)
	}

	return &FrameWriter{
		dir:         dir,
		color:       color,
		format:      format,
		jpegQuality: jpegQuality,
	}, nil
}

// Write converts and persists one frame under the timestamp-derived
// filename, flushing it to disk before returning.
//
// An empty or malformed frame is persisted as a degenerate 1x1 image
// rather than skipped, so the file sequence stays aligned with the
// capture slots.
func (w *FrameWriter) Write(frame videosource.Frame, ts Timestamp) error {
	img := w.convert(frame)

	path := filepath.Join(w.dir, ts.String()+"."+w.format)

	file, err := os.Create(path)
	if err != nil {
		w.writeFailed.Add(1)
		return fmt.Errorf("capture: failed to create %s: %w", path, err)
	}

	switch w.format {
	case "png":
		err = png.Encode(file, img)
	case "jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: w.jpegQuality})
	}
	if err != nil {
		file.Close()
		w.writeFailed.Add(1)
		return fmt.Errorf("capture: failed to encode %s: %w", path, err)
	}

	// Flush before the next frame is requested: a slow disk
	// back-pressures capture instead of hiding failures.
	if err := file.Close(); err != nil {
		w.writeFailed.Add(1)
		return fmt.Errorf("capture: failed to flush %s: %w", path, err)
	}

	w.framesSaved.Add(1)
	return nil
}

// convert turns the raw frame into the image to persist, falling back
// to a degenerate image for empty or malformed buffers.
func (w *FrameWriter) convert(frame videosource.Frame) image.Image {
	if frame.Empty() {
		w.degenerate.Add(1)
		return degenerateImage()
	}

	var img image.Image
	var err error
	switch w.color {
	case Grayscale:
		img, err = grayFromFrame(frame)
	default:
		img, err = rgbaFromFrame(frame)
	}
	if err != nil {
		w.degenerate.Add(1)
		slog.Warn("capture: malformed frame buffer, persisting degenerate image",
			"seq", frame.Seq,
			"size_bytes", len(frame.Data),
			"error", err,
			"trace_id", frame.TraceID,
		)
		return degenerateImage()
	}

	return img
}

// Stats returns persistence counters.
func (w *FrameWriter) Stats() (saved, failed, degenerate uint64) {
	return w.framesSaved.Load(), w.writeFailed.Load(), w.degenerate.Load()
}
