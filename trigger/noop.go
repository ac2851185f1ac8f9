package trigger

import "log/slog"

// Noop implements Controller without touching hardware.
//
// Used for runs on machines without a trigger line and as a default in
// tests. The pulse pair is logged so session logs still mark the
// reference instant.
type Noop struct{}

// PulseTwice logs the pulse pair and returns nil.
func (Noop) PulseTwice() error {
	slog.Info("trigger: noop pulse pair (no hardware line)")
	return nil
}
