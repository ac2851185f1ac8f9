package daq_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Feras-dev/mscs-thesis/capture"
	"github.com/Feras-dev/mscs-thesis/daq"
	"github.com/Feras-dev/mscs-thesis/report"
	"github.com/Feras-dev/mscs-thesis/trigger"
	"github.com/Feras-dev/mscs-thesis/videosource"
)

func simConfig(root string, frames int) daq.Config {
	cfg := daq.Default()
	cfg.Source = daq.SourceSim
	cfg.Trigger = daq.TriggerNone
	cfg.Sim = videosource.SimConfig{Width: 16, Height: 16, Interval: time.Millisecond}
	cfg.FrameCount = frames
	cfg.OutputRoot = root
	return cfg
}

func TestRun_FullSession(t *testing.T) {
	root := filepath.Join(t.TempDir(), "frames")
	cfg := simConfig(root, 5)

	result, err := daq.Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// One session directory under the root
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		t.Fatalf("expected exactly one session directory under %s", root)
	}

	// FrameCount frames plus stats.txt
	files, err := os.ReadDir(result.Dir)
	if err != nil {
		t.Fatal(err)
	}
	var pngs, reports int
	for _, f := range files {
		switch filepath.Ext(f.Name()) {
		case ".png":
			pngs++
		case ".txt":
			reports++
		}
	}
	if pngs != 5 {
		t.Errorf("persisted %d frame files, want 5", pngs)
	}
	if reports != 1 {
		t.Errorf("persisted %d report files, want 1", reports)
	}

	// The written report round-trips to the in-memory stats
	parsed, err := report.ParseFile(result.Dir)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if parsed.Latency != result.Stats.Latency || parsed.Total != result.Stats.Total {
		t.Errorf("report round trip: got latency=%v total=%v, want %v and %v",
			parsed.Latency, parsed.Total, result.Stats.Latency, result.Stats.Total)
	}

	// Session invariants
	if result.Stats.Latency < 0 {
		t.Errorf("latency %v is negative", result.Stats.Latency)
	}
	if result.Stats.Total < result.Stats.Latency {
		t.Errorf("total %v is less than latency %v", result.Stats.Total, result.Stats.Latency)
	}
}

// TestRunSession_ProbeFailure verifies the fatal-initialization path:
// a source that opens but fails its liveness probe must abort the run
// before any trigger emission or directory creation.
func TestRunSession_ProbeFailure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "frames")
	cfg := simConfig(root, 5)
	cfg.Sim.EmptyAt = []int{0} // probe pull yields an empty frame

	src, err := videosource.NewSimSource(cfg.Sim)
	if err != nil {
		t.Fatalf("NewSimSource: %v", err)
	}

	var pulses int
	trig := trigger.Func(func() error {
		pulses++
		return nil
	})

	if _, err := daq.RunSession(cfg, src, trig); err == nil {
		t.Fatal("expected probe failure, got nil")
	}

	if pulses != 0 {
		t.Errorf("trigger fired %d times after probe failure, want 0", pulses)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Errorf("session root %s was created despite probe failure", root)
	}
}

func TestRunSession_OpenFailure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "frames")
	cfg := simConfig(root, 5)
	cfg.Sim.FailOpen = true

	src, err := videosource.NewSimSource(cfg.Sim)
	if err != nil {
		t.Fatalf("NewSimSource: %v", err)
	}

	var pulses int
	trig := trigger.Func(func() error {
		pulses++
		return nil
	})

	if _, err := daq.RunSession(cfg, src, trig); err == nil {
		t.Fatal("expected open failure, got nil")
	}
	if pulses != 0 {
		t.Errorf("trigger fired %d times after open failure, want 0", pulses)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Errorf("session root %s was created despite open failure", root)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*daq.Config)
		wantErr bool
	}{
		{"default is valid", func(c *daq.Config) {}, false},
		{"unknown source", func(c *daq.Config) { c.Source = "webcam" }, true},
		{"unknown trigger", func(c *daq.Config) { c.Trigger = "serial" }, true},
		{"zero frame count", func(c *daq.Config) { c.FrameCount = 0 }, true},
		{"missing output root", func(c *daq.Config) { c.OutputRoot = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := daq.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRun_GrayscaleAndRGB(t *testing.T) {
	for _, mode := range []capture.ColorMode{capture.RGB, capture.Grayscale} {
		t.Run(mode.String(), func(t *testing.T) {
			root := filepath.Join(t.TempDir(), "frames")
			cfg := simConfig(root, 2)
			cfg.Color = mode

			result, err := daq.Run(cfg)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if result.Capture.FramesWritten != 2 {
				t.Errorf("FramesWritten = %d, want 2", result.Capture.FramesWritten)
			}
		})
	}
}
