package camera

import "errors"

// Sentinel kinds for camera errors.
var (
	// ErrNoDevices means no capture device could be resolved.
	ErrNoDevices = errors.New("no camera devices available")
	// ErrNoCode means the frame held no readable code. It is not a failure.
	ErrNoCode = errors.New("no code in frame")
)
