package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("emergency event not found")
	ErrInvalidLimit = errors.New("invalid history limit")
)
