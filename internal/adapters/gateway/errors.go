package gateway

import "errors"

// Sentinel kinds for gateway errors.
var (
	ErrTransport  = errors.New("check-in service unreachable")
	ErrBadStatus  = errors.New("unexpected HTTP status")
	ErrBadPayload = errors.New("malformed response payload")
)
