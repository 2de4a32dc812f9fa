// Package dedupe decides whether a scan candidate is a new event or a
// repeat of the last accepted one inside the reentry window.
package dedupe

import "time"

// Option applies a configuration option to the gate.
type Option func(*windowGate)

// WithReentryWindow sets how long an identical text stays suppressed.
// Non-positive values are ignored.
func WithReentryWindow(window time.Duration) Option {
	return func(g *windowGate) {
		if window > 0 {
			g.window = window
		}
	}
}
