// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/symkeep/symkeep/lib/clock"
)

// spinnerFrames are cycled one per redraw, giving the rotating-bar
// effect at the throttle interval rather than the event rate.
const spinnerFrames = `/|\-`

// defaultInterval is the minimum time between repaints.
const defaultInterval = 100 * time.Millisecond

// Config carries the rendering dependencies shared by Spinner and
// Meter. The zero value is usable for tests but renders nothing;
// interactive callers set Enabled.
type Config struct {
	// Out is the render target. Defaults to os.Stderr.
	Out io.Writer

	// Clock throttles redraws. Defaults to clock.Real().
	Clock clock.Clock

	// Interval is the minimum time between repaints. Defaults to
	// 100ms.
	Interval time.Duration

	// Enabled turns rendering on. When false every method is a
	// no-op, keeping piped output clean.
	Enabled bool
}

func (c Config) withDefaults() Config {
	if c.Out == nil {
		c.Out = os.Stderr
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	return c
}

// Interactive reports whether f is attached to a terminal. Commands
// use this to decide whether indicators should render or stay quiet
// for piped output.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Spinner is a single-line activity indicator with a fixed label and a
// per-event detail message rendered faint after it. The line is
// repainted in place and removed entirely by Clear, so interleaved
// println output stays intact.
type Spinner struct {
	config   Config
	output   *termenv.Output
	faint    lipgloss.Style
	label    string
	frame    int
	drawn    bool
	lastDraw time.Time
}

// NewSpinner builds a spinner with a fixed label, e.g. "Looking for
// symbols...".
func NewSpinner(config Config, label string) *Spinner {
	config = config.withDefaults()
	renderer := lipgloss.NewRenderer(config.Out)
	return &Spinner{
		config: config,
		output: termenv.NewOutput(config.Out),
		faint:  renderer.NewStyle().Faint(true),
		label:  label,
	}
}

// Tick advances the spinner with a detail message, typically the name
// of the item being examined. Repaints are throttled; ticks arriving
// faster than the interval are dropped.
func (s *Spinner) Tick(message string) {
	if !s.config.Enabled {
		return
	}
	now := s.config.Clock.Now()
	if s.drawn && now.Sub(s.lastDraw) < s.config.Interval {
		return
	}
	if !s.drawn {
		s.output.HideCursor()
	}
	s.output.WriteString("\r")
	s.output.WriteString(string(spinnerFrames[s.frame%len(spinnerFrames)]))
	s.output.WriteString(" ")
	s.output.WriteString(s.label)
	if message != "" {
		s.output.WriteString(" ")
		s.output.WriteString(s.faint.Render(message))
	}
	s.output.ClearLineRight()
	s.frame++
	s.drawn = true
	s.lastDraw = now
}

// Clear erases the spinner line and restores the cursor. Safe to call
// multiple times; a spinner that never drew writes nothing.
func (s *Spinner) Clear() {
	if !s.config.Enabled || !s.drawn {
		return
	}
	s.output.WriteString("\r")
	s.output.ClearLineRight()
	s.output.ShowCursor()
	s.drawn = false
}
