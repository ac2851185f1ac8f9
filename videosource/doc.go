// Package videosource provides camera frame acquisition for the DAQ.
//
// A Source is a pull-based capture channel: open it, probe it once to
// verify the device actually delivers data, then call NextFrame in a
// loop. NextFrame blocks until the device yields a frame and returns
// whatever arrived, including empty buffers -- the liveness guarantee
// ends with Probe.
//
// Three implementations are provided:
//
//   - CSISource: Jetson CSI camera via a GStreamer nvarguscamerasrc
//     pipeline (requires the gstreamer1.0 runtime and NVIDIA plugins)
//   - V4L2Source: USB camera via the V4L2 character device
//   - SimSource: deterministic synthetic frames for tests and dry runs
//
// # Quick Start
//
//	src, err := videosource.NewCSISource(videosource.CSIConfig{
//	    Width:  1280,
//	    Height: 720,
//	    FPS:    60,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := src.Open(); err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
//
//	if err := src.Probe(); err != nil {
//	    log.Fatal(err) // device opened but never delivered a frame
//	}
//
//	frame, err := src.NextFrame()
//	// frame.Data contains raw RGB24 bytes, frame.Width x frame.Height
//
// All sources deliver frames as packed RGB24 (3 bytes per pixel).
package videosource
