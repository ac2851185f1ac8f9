package gst

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Frame is a minimal frame struct for internal use (avoids import cycle)
// The public Frame type is defined in the videosource package
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Width     int
	Height    int
	Data      []byte
	TraceID   string
}

// CallbackContext holds state needed by GStreamer callbacks
type CallbackContext struct {
	FrameChan    chan<- Frame // Uses internal Frame type
	FrameCounter *uint64      // Atomic counter for sequence numbers
	BytesRead    *uint64      // Atomic counter for bytes read
	Width        int
	Height       int
	Done         <-chan struct{} // Closed on shutdown
}

// OnNewSample is called by GStreamer when a new frame is available
//
// This callback:
//  1. Pulls the sample from the appsink
//  2. Maps the buffer to read pixel data
//  3. Copies data (GStreamer will reuse the buffer)
//  4. Creates a Frame struct with metadata
//  5. Sends the frame to the channel, blocking if the consumer is slow
//
// The blocking send is deliberate: every frame the sensor produces must
// reach the consumer in order, so a slow consumer back-pressures the
// pipeline rather than losing frames.
//
// A sample that cannot be pulled or mapped is forwarded as an empty
// frame: the acquisition contract is "return whatever the device
// yielded", and empty buffers are the caller's problem to detect.
func OnNewSample(sink *app.Sink, ctx *CallbackContext) gst.FlowReturn {
	var frameData []byte

	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("gst: failed to pull sample from appsink, forwarding empty frame")
	} else {
		buffer := sample.GetBuffer()
		if buffer == nil {
			slog.Warn("gst: failed to get buffer from sample, forwarding empty frame")
		} else {
			mapInfo := buffer.Map(gst.MapRead)
			data := mapInfo.Bytes()
			if len(data) == 0 {
				slog.Warn("gst: empty buffer received")
			} else {
				// Copy frame data (GStreamer will reuse the buffer)
				frameData = make([]byte, len(data))
				copy(frameData, data)
			}
			buffer.Unmap()
		}
	}

	seq := atomic.AddUint64(ctx.FrameCounter, 1)
	atomic.AddUint64(ctx.BytesRead, uint64(len(frameData)))

	frame := Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     ctx.Width,
		Height:    ctx.Height,
		Data:      frameData,
		TraceID:   uuid.New().String(),
	}

	select {
	case ctx.FrameChan <- frame:
		slog.Debug("gst: frame sent",
			"seq", frame.Seq,
			"size_bytes", len(frameData),
			"trace_id", frame.TraceID,
		)
	case <-ctx.Done:
		return gst.FlowEOS
	}

	return gst.FlowOK
}
