package service

import (
	"time"

	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithInitialMode sets the mode activated at start.
func WithInitialMode(m model.Mode) Option {
	return func(s *Service) {
		s.initialMode = m
	}
}

// WithQueueSize sets the inbox capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithReentryWindow sets how long an identical accepted text is suppressed.
func WithReentryWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.reentryWindow = d
		}
	}
}

// WithStatsInterval sets how often attendance counters are polled.
func WithStatsInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.statsInterval = d
		}
	}
}

// WithRecentLimit sets how many recent check-ins are listed.
func WithRecentLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

// WithExportDir sets where attendance exports are written.
func WithExportDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.exportDir = dir
		}
	}
}

// WithRenderer sets the display.
func WithRenderer(r Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithClock sets the time source used to stamp manual lookups.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
