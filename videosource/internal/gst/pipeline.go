package gst

import (
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// PipelineConfig contains configuration for the CSI capture pipeline
type PipelineConfig struct {
	SensorID int
	Width    int
	Height   int
	FPS      float64
	FlipMode int // nvvidconv flip-method, 0..3 in 90 degree steps
}

// PipelineElements holds references to GStreamer pipeline elements
// needed for state changes and cleanup
type PipelineElements struct {
	Pipeline *gst.Pipeline
	AppSink  *app.Sink
	Src      *gst.Element
}

// CheckAvailable verifies the GStreamer runtime is usable.
//
// Initializes GStreamer (safe to call multiple times) and creates a
// throwaway element to confirm the plugin registry loads.
func CheckAvailable() error {
	gst.Init(nil)

	elem, err := gst.NewElement("fakesrc")
	if err != nil {
		return fmt.Errorf("GStreamer not available or not properly installed: %w", err)
	}
	elem.SetState(gst.StateNull)

	return nil
}

// CreatePipeline creates and configures a GStreamer pipeline for CSI
// camera capture on Jetson hardware
//
// Pipeline structure:
//
//	nvarguscamerasrc → caps(NVMM,WxH,fps) → nvvidconv(flip) →
//	caps(BGRx) → videoconvert → caps(RGB) → appsink
//
// The appsink runs with drop=false so a slow consumer back-pressures
// the pipeline instead of losing frames; the session pulls every frame
// the sensor produces, in order.
//
// The pipeline is configured but NOT started (state remains NULL).
// Caller must call Pipeline.SetState(gst.StatePlaying) to start.
func CreatePipeline(cfg PipelineConfig) (*PipelineElements, error) {
	// Initialize GStreamer (safe to call multiple times)
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	src, err := gst.NewElement("nvarguscamerasrc")
	if err != nil {
		return nil, fmt.Errorf("failed to create nvarguscamerasrc: %w", err)
	}
	src.SetProperty("sensor-id", cfg.SensorID)

	// Sensor caps: NVMM memory, native resolution and framerate
	capsNVMM, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create sensor capsfilter: %w", err)
	}
	capsNVMM.SetProperty("caps", gst.NewCapsFromString(buildSensorCaps(cfg)))

	// nvvidconv moves frames out of NVMM and applies rotation
	vidconv, err := gst.NewElement("nvvidconv")
	if err != nil {
		return nil, fmt.Errorf("failed to create nvvidconv: %w", err)
	}
	vidconv.SetProperty("flip-method", cfg.FlipMode)

	capsBGRx, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create BGRx capsfilter: %w", err)
	}
	capsBGRx.SetProperty("caps", gst.NewCapsFromString(fmt.Sprintf(
		"video/x-raw,format=BGRx,width=%d,height=%d", cfg.Width, cfg.Height,
	)))

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}

	// Lock the final format to packed RGB24 for the appsink
	capsRGB, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create RGB capsfilter: %w", err)
	}
	capsRGB.SetProperty("caps", gst.NewCapsFromString("video/x-raw,format=RGB"))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)    // No sync with clock (real-time)
	appsink.SetProperty("max-buffers", 8) // Small queue ahead of the consumer
	appsink.SetProperty("drop", false)    // Never drop: block upstream instead

	pipeline.AddMany(
		src,
		capsNVMM,
		vidconv,
		capsBGRx,
		converter,
		capsRGB,
		appsink.Element,
	)

	if err := gst.ElementLinkMany(
		src,
		capsNVMM,
		vidconv,
		capsBGRx,
		converter,
		capsRGB,
		appsink.Element,
	); err != nil {
		return nil, fmt.Errorf("failed to link pipeline elements: %w", err)
	}

	slog.Debug("gst: CSI pipeline created",
		"sensor_id", cfg.SensorID,
		"resolution", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"fps", cfg.FPS,
		"flip_method", cfg.FlipMode,
	)

	return &PipelineElements{
		Pipeline: pipeline,
		AppSink:  appsink,
		Src:      src,
	}, nil
}

// DestroyPipeline cleans up GStreamer pipeline resources
//
// Sets pipeline state to NULL and releases all resources.
// Safe to call even if pipeline is already destroyed.
func DestroyPipeline(elements *PipelineElements) error {
	if elements == nil || elements.Pipeline == nil {
		return nil
	}

	if err := elements.Pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to set pipeline to NULL: %w", err)
	}

	return nil
}

// buildSensorCaps builds the NVMM caps string for the camera sensor
//
// Handles fractional framerates:
//   - fps >= 1.0: framerate = fps/1 (e.g., 60.0 → 60/1)
//   - fps < 1.0: framerate = 1/(1/fps) (e.g., 0.5 → 1/2)
func buildSensorCaps(cfg PipelineConfig) string {
	numerator := 1
	denominator := 1

	if cfg.FPS < 1.0 {
		denominator = int(1.0 / cfg.FPS)
	} else {
		numerator = int(cfg.FPS)
	}

	return fmt.Sprintf(
		"video/x-raw(memory:NVMM),width=%d,height=%d,format=NV12,framerate=%d/%d",
		cfg.Width, cfg.Height, numerator, denominator,
	)
}
