// jetson-daq runs one trigger-synchronized frame acquisition session:
// it validates the camera, fires the GPIO synchronization pulse, saves
// a fixed count of timestamped frames, and reports trigger-to-capture
// latency.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Feras-dev/mscs-thesis/capture"
	"github.com/Feras-dev/mscs-thesis/daq"
)

const version = "v0.2.0"

func main() {
	cfg, debug := parseFlags()

	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	printBanner(cfg)

	result, err := daq.Run(cfg)
	if err != nil {
		logger.Error("Acquisition failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Acquisition complete",
		"dir", result.Dir,
		"frames_written", result.Capture.FramesWritten,
		"latency_s", result.Stats.Latency.Seconds(),
		"total_s", result.Stats.Total.Seconds(),
	)
}

func parseFlags() (daq.Config, bool) {
	cfg := daq.Default()

	// Source flags
	sourceStr := flag.String("source", "csi", "Video source: csi, v4l2 or sim")
	flag.IntVar(&cfg.CSI.SensorID, "sensor-id", cfg.CSI.SensorID, "CSI sensor ID")
	flag.StringVar(&cfg.V4L2.DevicePath, "device", cfg.V4L2.DevicePath, "V4L2 device path")
	width := flag.Int("width", cfg.CSI.Width, "Capture width in pixels")
	height := flag.Int("height", cfg.CSI.Height, "Capture height in pixels")
	fps := flag.Float64("fps", cfg.CSI.FPS, "Capture framerate")
	flag.IntVar(&cfg.CSI.FlipMode, "flip", cfg.CSI.FlipMode, "Frame rotation in 90 degree steps (0-3)")

	// Session flags
	flag.IntVar(&cfg.FrameCount, "frames", cfg.FrameCount, "Number of frames to capture")
	colorStr := flag.String("color", "gray", "Persisted colorspace: rgb or gray")
	flag.StringVar(&cfg.OutputRoot, "output", cfg.OutputRoot, "Root directory for session output")
	flag.StringVar(&cfg.Format, "format", cfg.Format, "Image format: png or jpeg")
	flag.IntVar(&cfg.JPEGQuality, "jpeg-quality", cfg.JPEGQuality, "JPEG quality (1-100, only for jpeg)")

	// Trigger flags
	triggerStr := flag.String("trigger", "gpio", "Trigger controller: gpio or none")
	flag.StringVar(&cfg.GPIO.Chip, "gpio-chip", cfg.GPIO.Chip, "GPIO character device name")
	flag.IntVar(&cfg.GPIO.Line, "gpio-line", cfg.GPIO.Line, "GPIO line offset for the trigger pulse")
	pulseWidthMS := flag.Int("pulse-width-ms", 1, "Trigger pulse width (milliseconds)")

	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	switch *sourceStr {
	case "csi":
		cfg.Source = daq.SourceCSI
	case "v4l2":
		cfg.Source = daq.SourceV4L2
	case "sim":
		cfg.Source = daq.SourceSim
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid source %s (must be csi, v4l2 or sim)\n", *sourceStr)
		flag.Usage()
		os.Exit(1)
	}

	switch *colorStr {
	case "rgb":
		cfg.Color = capture.RGB
	case "gray":
		cfg.Color = capture.Grayscale
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid color %s (must be rgb or gray)\n", *colorStr)
		flag.Usage()
		os.Exit(1)
	}

	switch *triggerStr {
	case "gpio":
		cfg.Trigger = daq.TriggerGPIO
	case "none":
		cfg.Trigger = daq.TriggerNone
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid trigger %s (must be gpio or none)\n", *triggerStr)
		flag.Usage()
		os.Exit(1)
	}

	cfg.CSI.Width = *width
	cfg.CSI.Height = *height
	cfg.CSI.FPS = *fps
	cfg.V4L2.Width = *width
	cfg.V4L2.Height = *height
	cfg.V4L2.FPS = int(*fps)
	cfg.GPIO.PulseWidth = time.Duration(*pulseWidthMS) * time.Millisecond

	return cfg, *debug
}

func printBanner(cfg daq.Config) {
	fmt.Printf("jetson-daq %s\n", version)
	fmt.Printf("  source:  %s (%dx%d @ %.1f fps)\n", cfg.Source, cfg.CSI.Width, cfg.CSI.Height, cfg.CSI.FPS)
	fmt.Printf("  frames:  %d (%s, %s)\n", cfg.FrameCount, cfg.Color, cfg.Format)
	fmt.Printf("  trigger: %s\n", cfg.Trigger)
	fmt.Printf("  output:  %s/\n", cfg.OutputRoot)
}
