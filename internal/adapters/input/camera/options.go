package camera

import (
	"time"

	"github.com/okian/turnstile/pkg/logger"
)

// Option configures a Source.
type Option func(*Source)

// WithFramesDir sets the root directory holding one subdirectory per device.
func WithFramesDir(dir string) Option {
	return func(s *Source) {
		if dir != "" {
			s.root = dir
		}
	}
}

// WithDevice pins the device to use when it is present.
func WithDevice(id string) Option {
	return func(s *Source) {
		s.preferred = id
	}
}

// WithDecoder replaces the frame decoder.
func WithDecoder(d Decoder) Option {
	return func(s *Source) {
		if d != nil {
			s.decoder = d
		}
	}
}

// WithClock sets the time source used to stamp candidates.
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}
