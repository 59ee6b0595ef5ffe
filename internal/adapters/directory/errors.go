package directory

import "errors"

// Sentinel kinds for directory errors.
var (
	ErrUnknownUser = errors.New("unknown user")
)
