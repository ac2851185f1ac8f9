package daq

import (
	"fmt"
	"time"

	"github.com/Feras-dev/mscs-thesis/capture"
	"github.com/Feras-dev/mscs-thesis/trigger"
	"github.com/Feras-dev/mscs-thesis/videosource"
)

// SourceKind selects the video source implementation
type SourceKind string

const (
	// SourceCSI is a Jetson CSI camera via GStreamer
	SourceCSI SourceKind = "csi"
	// SourceV4L2 is a USB camera via the V4L2 API
	SourceV4L2 SourceKind = "v4l2"
	// SourceSim is the deterministic synthetic source
	SourceSim SourceKind = "sim"
)

// TriggerKind selects the trigger controller implementation
type TriggerKind string

const (
	// TriggerGPIO toggles a GPIO line
	TriggerGPIO TriggerKind = "gpio"
	// TriggerNone logs the pulse without hardware
	TriggerNone TriggerKind = "none"
)

// Config contains the full configuration for one acquisition session.
//
// Everything the original tool fixed at compile time (frame count,
// resolution, framerate, color mode) is an explicit runtime field
// here, so sessions can vary per run and tests can use small counts.
type Config struct {
	// Source selects the video source implementation
	Source SourceKind
	// CSI configures the CSI source (used when Source == SourceCSI)
	CSI videosource.CSIConfig
	// V4L2 configures the USB source (used when Source == SourceV4L2)
	V4L2 videosource.V4L2Config
	// Sim configures the synthetic source (used when Source == SourceSim)
	Sim videosource.SimConfig

	// Trigger selects the trigger controller implementation
	Trigger TriggerKind
	// GPIO configures the trigger line (used when Trigger == TriggerGPIO)
	GPIO trigger.GPIOConfig

	// FrameCount is the fixed number of frames per session
	FrameCount int
	// Color selects the persisted colorspace
	Color capture.ColorMode
	// OutputRoot is the directory under which per-session
	// directories are created (one <epoch_seconds> directory per run)
	OutputRoot string
	// Format is the persisted image format, "png" or "jpeg"
	Format string
	// JPEGQuality is 1-100, used only for jpeg
	JPEGQuality int
}

// Default returns the configuration matching the original Jetson DAQ
// deployment: 1300 grayscale 720p frames at 60 fps from the CSI
// sensor, trigger on gpiochip0 line 10, PNG output under ./frames.
func Default() Config {
	return Config{
		Source: SourceCSI,
		CSI: videosource.CSIConfig{
			SensorID: 0,
			Width:    1280,
			Height:   720,
			FPS:      60,
			FlipMode: 0,
		},
		V4L2: videosource.V4L2Config{
			DevicePath: "/dev/video0",
			Width:      1280,
			Height:     720,
			FPS:        60,
		},
		Sim: videosource.SimConfig{
			Width:    64,
			Height:   48,
			Interval: 10 * time.Millisecond,
		},
		Trigger: TriggerGPIO,
		GPIO: trigger.GPIOConfig{
			Chip:       "gpiochip0",
			Line:       10,
			PulseWidth: time.Millisecond,
		},
		FrameCount:  1300,
		Color:       capture.Grayscale,
		OutputRoot:  "frames",
		Format:      "png",
		JPEGQuality: 90,
	}
}

// Validate checks the cross-component parts of the configuration.
// Source- and trigger-specific fields are validated by their own
// constructors.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCSI, SourceV4L2, SourceSim:
	default:
		return fmt.Errorf("daq: unknown source kind %q", c.Source)
	}

	switch c.Trigger {
	case TriggerGPIO, TriggerNone:
	default:
		return fmt.Errorf("daq: unknown trigger kind %q", c.Trigger)
	}

	if c.FrameCount <= 0 {
		return fmt.Errorf("daq: frame count must be positive, got %d", c.FrameCount)
	}

	if c.OutputRoot == "" {
		return fmt.Errorf("daq: output root is required")
	}

	return nil
}
