// Package trigger emits the hardware synchronization pulse that marks
// session start for an external time-correlation instrument.
package trigger
