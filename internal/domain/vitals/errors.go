package vitals

import "errors"

// Sentinel kinds for classification errors.
var (
	ErrInvalidReading = errors.New("invalid vitals reading")
)
