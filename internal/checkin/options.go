package checkin

import (
	"time"

	"github.com/okian/turnstile/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTicketPrefix sets the prefix prepended to derived ticket digits.
func WithTicketPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock sets the time source for check-in timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxRecent caps the recent check-ins listing.
func WithMaxRecent(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRecent = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
