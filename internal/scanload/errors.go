package scanload

import "errors"

var (
	// ErrGenerate indicates scans could not be built from the registrations.
	ErrGenerate = errors.New("cannot generate scans")

	// ErrVerify indicates the service state does not match the submitted scans.
	ErrVerify = errors.New("verification failed")
)
