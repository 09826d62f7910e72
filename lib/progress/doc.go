// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package progress renders single-line terminal activity indicators:
// a spinner for open-ended scanning work and a byte meter for bounded
// transfers.
//
// Both indicators are driven entirely by caller events (Tick, Add) and
// never start goroutines or timers. Redraws are throttled against an
// injected clock so a hot loop reporting thousands of events per second
// repaints the line at a readable rate, and tests can drive rendering
// deterministically with a fake clock.
//
// Rendering is suppressed unless Config.Enabled is set. Callers decide
// interactivity once, typically with Interactive:
//
//	cfg := progress.Config{Enabled: progress.Interactive(os.Stderr)}
//	spinner := progress.NewSpinner(cfg, "Looking for symbols...")
//	defer spinner.Clear()
//
// Indicators write terminal control sequences and are not safe for
// concurrent use.
package progress
