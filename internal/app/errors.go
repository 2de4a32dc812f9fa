package service

import (
	"errors"

	"github.com/okian/turnstile/internal/domain/presentation"
)

// Sentinel kinds for terminal service errors.
var (
	ErrNotStarted  = errors.New("terminal not started")
	ErrStopped     = errors.New("terminal stopped")
	ErrEmptyTicket = errors.New("ticket number is empty")

	// ErrManualOverrideDisabled is returned while a result is pending or shown.
	ErrManualOverrideDisabled = presentation.ErrManualOverrideDisabled
	// ErrNothingToDismiss is returned when no result panel is open.
	ErrNothingToDismiss = presentation.ErrNothingToDismiss
)
