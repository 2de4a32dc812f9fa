package config

import (
	"errors"
)

// Errors returned by Load and Validate; callers match them with errors.Is.
var (
	// ErrInvalidConfig wraps a key whose value is out of range or unknown.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLoadConfig wraps a .env, YAML or environment source that cannot be read.
	ErrLoadConfig = errors.New("load config failed")
)
