package scanload

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/turnstile/pkg/logger"
)

// verifyResults checks the service's answers against what was submitted:
// every newly present attendee got exactly one OK, and unknown and malformed
// codes were classified as such.
func verifyResults(ctx context.Context, stats *Stats) error {
	var errs []error

	if stats.Failed > 0 {
		errs = append(errs, fmt.Errorf("%d scans failed", stats.Failed))
	}
	if delta := stats.PresentAfter - stats.PresentBefore; delta != stats.CheckedIn {
		errs = append(errs, fmt.Errorf("present count grew by %d but %d scans checked in", delta, stats.CheckedIn))
	}
	if stats.Unknown != stats.ExpectedUnknown {
		errs = append(errs, fmt.Errorf("%d unknown tickets reported, want %d", stats.Unknown, stats.ExpectedUnknown))
	}
	if stats.Malformed != stats.ExpectedInvalid {
		errs = append(errs, fmt.Errorf("%d malformed codes reported, want %d", stats.Malformed, stats.ExpectedInvalid))
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		logger.Get().Error(ctx, "verification failed", logger.Error(err))
		return fmt.Errorf("%w: %w", ErrVerify, err)
	}
	logger.Get().Info(ctx, "verification passed")
	return nil
}
