package capture_test

import (
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Feras-dev/mscs-thesis/capture"
	"github.com/Feras-dev/mscs-thesis/trigger"
	"github.com/Feras-dev/mscs-thesis/videosource"
)

func newSimSource(t *testing.T, cfg videosource.SimConfig) *videosource.SimSource {
	t.Helper()
	src, err := videosource.NewSimSource(cfg)
	if err != nil {
		t.Fatalf("NewSimSource: %v", err)
	}
	if err := src.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { src.Close() })
	return src
}

// frameTimestamps reads the session directory and returns the parsed
// filename timestamps of the persisted frames, in directory order.
func frameTimestamps(t *testing.T, dir string) []capture.Timestamp {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	var stamps []capture.Timestamp
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".png")
		if !ok {
			continue
		}
		ts, err := capture.ParseTimestamp(name)
		if err != nil {
			t.Fatalf("frame filename %q: %v", e.Name(), err)
		}
		stamps = append(stamps, ts)
	}
	return stamps
}

// TestRecorder_Property_FileCountEqualsFrameCount verifies that a
// fully successful session persists exactly FrameCount frame files.
func TestRecorder_Property_FileCountEqualsFrameCount(t *testing.T) {
	dir := t.TempDir()
	src := newSimSource(t, videosource.SimConfig{Width: 32, Height: 24})

	rec, err := capture.NewRecorder(capture.Config{
		OutputDir:  dir,
		FrameCount: 7,
		Color:      capture.Grayscale,
	})
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	res, err := rec.Run(src, trigger.Noop{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	stamps := frameTimestamps(t, dir)
	if len(stamps) != 7 {
		t.Errorf("persisted %d frame files, want 7", len(stamps))
	}
	if res.FramesWritten != 7 || res.WriteFailures != 0 {
		t.Errorf("FramesWritten=%d WriteFailures=%d, want 7 and 0",
			res.FramesWritten, res.WriteFailures)
	}
}

// TestRecorder_Property_FilenamesNonDecreasing verifies frames are
// persisted in acquisition order: filename timestamps never go
// backwards.
func TestRecorder_Property_FilenamesNonDecreasing(t *testing.T) {
	dir := t.TempDir()
	src := newSimSource(t, videosource.SimConfig{Width: 32, Height: 24})

	rec, err := capture.NewRecorder(capture.Config{
		OutputDir:  dir,
		FrameCount: 10,
		Color:      capture.RGB,
	})
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	if _, err := rec.Run(src, trigger.Noop{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stamps := frameTimestamps(t, dir)
	if len(stamps) != 10 {
		t.Fatalf("persisted %d frame files, want 10", len(stamps))
	}

	sorted := sort.SliceIsSorted(stamps, func(i, j int) bool {
		return stamps[i].Before(stamps[j])
	})
	if !sorted {
		t.Error("frame filename timestamps are not non-decreasing")
	}
}

// TestRecorder_Property_TimestampOrdering verifies t1 <= t2 <= t3 and
// the derived duration relations for a successful session.
func TestRecorder_Property_TimestampOrdering(t *testing.T) {
	dir := t.TempDir()
	src := newSimSource(t, videosource.SimConfig{Width: 16, Height: 16})

	rec, err := capture.NewRecorder(capture.Config{
		OutputDir:  dir,
		FrameCount: 3,
		Color:      capture.Grayscale,
	})
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	res, err := rec.Run(src, trigger.Noop{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.FirstFrame.Before(res.Trigger) {
		t.Errorf("t2 %v precedes t1 %v", res.FirstFrame, res.Trigger)
	}
	if res.LastFrame.Before(res.FirstFrame) {
		t.Errorf("t3 %v precedes t2 %v", res.LastFrame, res.FirstFrame)
	}

	latency := res.FirstFrame.Sub(res.Trigger)
	total := res.LastFrame.Sub(res.Trigger)
	if latency < 0 {
		t.Errorf("latency %v is negative", latency)
	}
	if total < latency {
		t.Errorf("total %v is less than latency %v", total, latency)
	}
}

// TestRecorder_Property_TotalDuration verifies that with a fixed
// simulated inter-frame delay d and 5 frames, the session total is
// latency + 4d within tolerance (the first delay is inside latency).
func TestRecorder_Property_TotalDuration(t *testing.T) {
	const d = 30 * time.Millisecond

	dir := t.TempDir()
	src := newSimSource(t, videosource.SimConfig{Width: 16, Height: 16, Interval: d})

	rec, err := capture.NewRecorder(capture.Config{
		OutputDir:  dir,
		FrameCount: 5,
		Color:      capture.Grayscale,
	})
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	res, err := rec.Run(src, trigger.Noop{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	latency := res.FirstFrame.Sub(res.Trigger)
	total := res.LastFrame.Sub(res.Trigger)
	tail := total - latency

	if tail < 4*d {
		t.Errorf("total-latency = %v, want >= %v", tail, 4*d)
	}
	// Generous upper bound: 4 sleeps plus encode/write overhead for
	// four small frames.
	if tail > 4*d+250*time.Millisecond {
		t.Errorf("total-latency = %v, want <= %v", tail, 4*d+250*time.Millisecond)
	}
}

// TestRecorder_TriggerPrecedesCapture verifies the trigger fires
// exactly once, before the first frame is pulled.
func TestRecorder_TriggerPrecedesCapture(t *testing.T) {
	dir := t.TempDir()
	src := newSimSource(t, videosource.SimConfig{Width: 16, Height: 16})

	var pulses int
	var pulsedAt time.Time
	trig := trigger.Func(func() error {
		pulses++
		pulsedAt = time.Now()
		return nil
	})

	rec, err := capture.NewRecorder(capture.Config{
		OutputDir:  dir,
		FrameCount: 2,
		Color:      capture.RGB,
	})
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	res, err := rec.Run(src, trig)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if pulses != 1 {
		t.Errorf("trigger fired %d times, want 1", pulses)
	}

	t1 := time.Unix(res.Trigger.Sec, res.Trigger.Nsec)
	if t1.Before(pulsedAt) {
		t.Error("t1 was recorded before the trigger pulse completed")
	}
}

// TestRecorder_EmptyFramesStillPersisted verifies the degraded path:
// an empty mid-loop frame is written as a degenerate image, counted,
// and the loop runs to completion.
func TestRecorder_EmptyFramesStillPersisted(t *testing.T) {
	dir := t.TempDir()
	src := newSimSource(t, videosource.SimConfig{
		Width:   16,
		Height:  16,
		EmptyAt: []int{2}, // third NextFrame call yields an empty buffer
	})

	rec, err := capture.NewRecorder(capture.Config{
		OutputDir:  dir,
		FrameCount: 5,
		Color:      capture.Grayscale,
	})
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	res, err := rec.Run(src, trigger.Noop{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.EmptyFrames != 1 {
		t.Errorf("EmptyFrames = %d, want 1", res.EmptyFrames)
	}
	if res.FramesWritten != 5 {
		t.Errorf("FramesWritten = %d, want 5 (degenerate frame still written)", res.FramesWritten)
	}
	if stamps := frameTimestamps(t, dir); len(stamps) != 5 {
		t.Errorf("persisted %d frame files, want 5", len(stamps))
	}
}

// TestRecorder_TriggerFailureAbortsBeforeCapture verifies a failing
// trigger stops the session before any frame is pulled or written.
func TestRecorder_TriggerFailureAbortsBeforeCapture(t *testing.T) {
	dir := t.TempDir()
	src := newSimSource(t, videosource.SimConfig{Width: 16, Height: 16})

	trig := trigger.Func(func() error {
		return os.ErrPermission
	})

	rec, err := capture.NewRecorder(capture.Config{
		OutputDir:  dir,
		FrameCount: 3,
		Color:      capture.RGB,
	})
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	if _, err := rec.Run(src, trig); err == nil {
		t.Fatal("expected error from failing trigger, got nil")
	}

	if stats := src.Stats(); stats.FramesDelivered != 0 {
		t.Errorf("source delivered %d frames after trigger failure, want 0", stats.FramesDelivered)
	}
	if stamps := frameTimestamps(t, dir); len(stamps) != 0 {
		t.Errorf("persisted %d frame files after trigger failure, want 0", len(stamps))
	}
}

func TestNewRecorder_FailFast(t *testing.T) {
	tests := []struct {
		name string
		cfg  capture.Config
	}{
		{"zero frame count", capture.Config{OutputDir: "out", FrameCount: 0}},
		{"negative frame count", capture.Config{OutputDir: "out", FrameCount: -5}},
		{"missing output dir", capture.Config{FrameCount: 10}},
		{"bad format", capture.Config{OutputDir: "out", FrameCount: 10, Format: "tiff"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := capture.NewRecorder(tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
