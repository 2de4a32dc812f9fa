package mode

import "errors"

// Sentinel kinds for mode controller errors.
var (
	ErrChannelUnavailable = errors.New("input channel unavailable")
	ErrUnknownMode        = errors.New("unknown mode")
	ErrNotSupported       = errors.New("operation not supported by live channel")
)
