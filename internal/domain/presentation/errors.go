package presentation

import "errors"

// Sentinel kinds for presentation errors.
var (
	ErrManualOverrideDisabled = errors.New("manual override disabled")
	ErrUnexpectedOutcome      = errors.New("outcome received while not awaiting a result")
	ErrNothingToDismiss       = errors.New("no result is shown")
)
