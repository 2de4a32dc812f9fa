package tui

import (
	"time"

	"github.com/okian/turnstile/pkg/logger"
)

// Option applies a configuration option to the UI.
type Option func(*UI)

// WithClock sets the time source for relative times.
func WithClock(now func() time.Time) Option {
	return func(u *UI) {
		if now != nil {
			u.now = now
		}
	}
}

// WithTitle sets the header title.
func WithTitle(title string) Option {
	return func(u *UI) {
		if title != "" {
			u.title = title
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(u *UI) {
		if l != nil {
			u.logger = l
		}
	}
}
