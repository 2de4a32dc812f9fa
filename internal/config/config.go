// Package config defines terminal and check-in service configuration and
// its loading from defaults, .env, YAML and environment.
package config

import (
	"context"
	"time"
)

// Config contains process configuration for both binaries. Keys are flat and
// match the koanf tags.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile receives terminal logs; the screen belongs to the UI.
	LogFile string `koanf:"log_file"`

	// ControlAddr is the terminal's local control API listen address.
	// Empty disables it.
	ControlAddr string `koanf:"control_addr"`

	// GatewayURL is the check-in service base URL.
	GatewayURL       string `koanf:"gateway_url"`
	GatewayTimeoutMS int    `koanf:"gateway_timeout_ms"`

	// ReentryWindowMS suppresses identical accepted text for this long.
	ReentryWindowMS int `koanf:"reentry_window_ms"`

	// MinLength and DebounceMS tune discrete input submission.
	MinLength  int `koanf:"min_length"`
	DebounceMS int `koanf:"debounce_ms"`

	// InitialMode is "camera" or "discrete".
	InitialMode string `koanf:"initial_mode"`

	// FramesDir holds one subdirectory of frames per capture device.
	FramesDir    string `koanf:"frames_dir"`
	CameraDevice string `koanf:"camera_device"`

	StatsIntervalMS int    `koanf:"stats_interval_ms"`
	RecentLimit     int    `koanf:"recent_limit"`
	ExportDir       string `koanf:"export_dir"`
	QueueSize       int    `koanf:"queue_size"`

	// ServerAddr, DBPath, TicketPrefix and CORSOrigins configure the
	// check-in service.
	ServerAddr   string   `koanf:"server_addr"`
	DBPath       string   `koanf:"db_path"`
	TicketPrefix string   `koanf:"ticket_prefix"`
	CORSOrigins  []string `koanf:"cors_origins"`
}

// New creates a Config with defaults. Context is accepted first to follow
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFile:          "turnstile.log",
		ControlAddr:      "127.0.0.1:9180",
		GatewayURL:       "http://localhost:8000",
		GatewayTimeoutMS: 5000,
		ReentryWindowMS:  3000,
		MinLength:        14,
		DebounceMS:       25,
		InitialMode:      "camera",
		FramesDir:        "frames",
		StatsIntervalMS:  8000,
		RecentLimit:      5,
		ExportDir:        ".",
		QueueSize:        256,
		ServerAddr:       ":8000",
		DBPath:           "checkin.db",
		TicketPrefix:     "GOOGA26",
		CORSOrigins: []string{
			"http://localhost",
			"http://localhost:5173",
			"http://127.0.0.1",
			"http://127.0.0.1:5173",
		},
	}
}

// GatewayTimeout returns the gateway request timeout.
func (c *Config) GatewayTimeout() time.Duration { return ms(c.GatewayTimeoutMS) }

// ReentryWindow returns the dedup window.
func (c *Config) ReentryWindow() time.Duration { return ms(c.ReentryWindowMS) }

// Debounce returns the discrete input quiet period.
func (c *Config) Debounce() time.Duration { return ms(c.DebounceMS) }

// StatsInterval returns the attendance poll period.
func (c *Config) StatsInterval() time.Duration { return ms(c.StatsIntervalMS) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
