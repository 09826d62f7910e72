// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/muesli/termenv"
)

// meterBarWidth is the character width of the fill bar.
const meterBarWidth = 30

// Meter is a single-line byte progress bar for a transfer of known
// total size. Add reports bytes as they move; the bar repaints at the
// throttle interval and always repaints when the total is reached so
// the final state is never dropped.
type Meter struct {
	config   Config
	output   *termenv.Output
	total    int64
	done     int64
	drawn    bool
	lastDraw time.Time
}

// NewMeter builds a meter for a transfer totalling total bytes.
func NewMeter(config Config, total int64) *Meter {
	config = config.withDefaults()
	return &Meter{
		config: config,
		output: termenv.NewOutput(config.Out),
		total:  total,
	}
}

// Add records n more bytes transferred and repaints if the throttle
// interval has elapsed or the transfer just completed.
func (m *Meter) Add(n int64) {
	m.done += n
	if !m.config.Enabled {
		return
	}
	now := m.config.Clock.Now()
	complete := m.total > 0 && m.done >= m.total
	if m.drawn && !complete && now.Sub(m.lastDraw) < m.config.Interval {
		return
	}
	if !m.drawn {
		m.output.HideCursor()
	}
	m.output.WriteString("\r")
	m.output.WriteString(m.render())
	m.output.ClearLineRight()
	m.drawn = true
	m.lastDraw = now
}

// Clear erases the meter line and restores the cursor. Safe to call
// multiple times.
func (m *Meter) Clear() {
	if !m.config.Enabled || !m.drawn {
		return
	}
	m.output.WriteString("\r")
	m.output.ClearLineRight()
	m.output.ShowCursor()
	m.drawn = false
}

func (m *Meter) render() string {
	filled := meterBarWidth
	if m.total > 0 {
		filled = int(int64(meterBarWidth) * m.done / m.total)
		if filled > meterBarWidth {
			filled = meterBarWidth
		}
	}
	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < meterBarWidth; i++ {
		switch {
		case i < filled:
			bar.WriteString("=")
		case i == filled:
			bar.WriteString(">")
		default:
			bar.WriteString(".")
		}
	}
	bar.WriteString("]")
	return fmt.Sprintf("%s %s / %s", bar.String(), formatSize(m.done), formatSize(m.total))
}

// formatSize returns a human-readable byte count.
func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
