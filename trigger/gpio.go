package trigger

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOConfig contains configuration for the GPIO trigger line
type GPIOConfig struct {
	// Chip is the GPIO character device name (e.g. "gpiochip0")
	Chip string
	// Line is the line offset on the chip
	Line int
	// PulseWidth is how long each level is held during a toggle
	PulseWidth time.Duration
}

// GPIO implements Controller on a Linux GPIO character device line.
//
// The line is requested as an output at construction time (fail-fast:
// a missing chip or busy line is caught before any capture starts) and
// held until Close.
type GPIO struct {
	cfg  GPIOConfig
	line *gpiocdev.Line
}

// NewGPIO requests the configured line as an output, driven low.
func NewGPIO(cfg GPIOConfig) (*GPIO, error) {
	if cfg.Chip == "" {
		return nil, fmt.Errorf("trigger: GPIO chip is required")
	}
	if cfg.Line < 0 {
		return nil, fmt.Errorf("trigger: invalid GPIO line %d", cfg.Line)
	}
	if cfg.PulseWidth <= 0 {
		return nil, fmt.Errorf("trigger: pulse width must be positive, got %v", cfg.PulseWidth)
	}

	line, err := gpiocdev.RequestLine(cfg.Chip, cfg.Line, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("trigger: failed to request %s line %d: %w", cfg.Chip, cfg.Line, err)
	}

	slog.Info("trigger: GPIO line requested",
		"chip", cfg.Chip,
		"line", cfg.Line,
		"pulse_width", cfg.PulseWidth,
	)

	return &GPIO{cfg: cfg, line: line}, nil
}

// PulseTwice toggles the line high/low twice in immediate succession.
//
// Blocking; returns once the second toggle has completed. Each level
// is held for the configured pulse width so the external instrument
// can register both edges.
func (g *GPIO) PulseTwice() error {
	for i := 0; i < 2; i++ {
		if err := g.line.SetValue(1); err != nil {
			return fmt.Errorf("trigger: failed to drive line high: %w", err)
		}
		time.Sleep(g.cfg.PulseWidth)

		if err := g.line.SetValue(0); err != nil {
			return fmt.Errorf("trigger: failed to drive line low: %w", err)
		}
		time.Sleep(g.cfg.PulseWidth)
	}

	slog.Debug("trigger: pulse pair emitted",
		"chip", g.cfg.Chip,
		"line", g.cfg.Line,
	)

	return nil
}

// Close releases the GPIO line. Safe to call twice.
func (g *GPIO) Close() error {
	if g.line == nil {
		return nil
	}
	err := g.line.Close()
	g.line = nil
	if err != nil {
		return fmt.Errorf("trigger: failed to release line: %w", err)
	}
	return nil
}
