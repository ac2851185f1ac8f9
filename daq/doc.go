// Package daq composes the acquisition session: validate the video
// source, establish the session directory, fire the trigger, record
// the frame sequence, and report latency statistics.
//
// One call to Run is one complete session. There is no daemon mode,
// no networking, and no multi-session management; the process runs
// the session and exits.
package daq
