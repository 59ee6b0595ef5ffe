package worker

import (
	"github.com/medreach/vitalguard/pkg/logger"
)

// Option configures an InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker's name for logging and identification.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		w.name = name
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		w.logger = l
	}
}
