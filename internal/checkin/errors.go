package checkin

import "errors"

// Sentinel kinds for the check-in service.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidFormat = errors.New("invalid ticket format")
	ErrStore         = errors.New("store failure")
	ErrImport        = errors.New("import failed")
)
