// Package capture implements the trigger-synchronized capture-and-
// timestamp pipeline: fire the trigger, pull a fixed count of frames,
// persist each under its wall-clock timestamp, and record the three
// session instants latency statistics derive from.
//
// # Sequencing
//
// The session is strictly sequential. The trigger pulse and the
// capture loop are not concurrent; the trigger call's own latency is
// deliberately part of the measured trigger-to-first-frame latency.
// Three instants matter:
//
//	t1  recorded immediately after the trigger pulse returns
//	t2  recorded immediately after the first frame is retrieved,
//	    before any colorspace conversion
//	t3  recorded after the capture loop completes
//
// Exactly one frame buffer is in flight at any time; each frame is
// flushed to disk before the next is requested, so a slow disk
// back-pressures capture rather than accumulating state.
//
// # Failure semantics
//
// Once the loop has started it runs to completion. Empty or malformed
// frames are persisted as degenerate images and counted; write
// failures are logged and counted without aborting the loop, so the
// timestamp-index alignment across frames is preserved.
package capture
