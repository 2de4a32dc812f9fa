package tui

import "errors"

// Sentinel kinds for the terminal UI.
var (
	ErrScreen = errors.New("screen unavailable")
)
