package trigger

// Controller defines the contract for trigger pulse emission
//
// Implementations must guarantee:
//   - PulseTwice() is synchronous and blocking
//   - On nil return, both line toggles have completed
//
// The pulse is a marker for an external instrument; nothing in this
// process consumes it.
type Controller interface {
	// PulseTwice performs two discrete line toggles in immediate
	// succession.
	PulseTwice() error
}

// Func adapts an ordinary function to the Controller interface.
//
// Useful in tests to record pulse instants.
type Func func() error

// PulseTwice calls f.
func (f Func) PulseTwice() error { return f() }
