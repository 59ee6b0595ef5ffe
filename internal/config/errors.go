package config

import (
	"errors"
)

// Sentinel errors callers can match with errors.Is.
var (
	// ErrInvalidConfig marks a configuration that loaded but failed
	// validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLoadConfig marks a failure to read or parse configuration
	// sources.
	ErrLoadConfig = errors.New("load config failed")
)
