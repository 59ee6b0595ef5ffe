// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ReadingQueueSize bounds the in-memory reading queue.
	ReadingQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of classification workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// HistoryWindow sets how many readings risk prediction considers.
	HistoryWindow int `koanf:"history_window"`

	// MaxHistoryLimit caps GET /patients/{id}/readings?limit.
	MaxHistoryLimit int `koanf:"max_history_limit"`

	// NotificationMaxRetries caps alert retries per emergency after
	// the first send.
	NotificationMaxRetries int `koanf:"notification_max_retries"`

	// NotificationBackoffMS spaces repeated alerts for the same
	// emergency, in milliseconds.
	NotificationBackoffMS int `koanf:"notification_backoff_ms"`

	// DatabaseURL selects the Postgres store when set; empty keeps
	// the in-memory store.
	DatabaseURL string `koanf:"database_url"`

	// WebhookURL selects the webhook notifier when set; empty keeps
	// the log notifier.
	WebhookURL string `koanf:"webhook_url"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		ReadingQueueSize:       100_000,
		WorkerCount:            runtime.NumCPU() * 10,
		DedupeSize:             500_000,
		HistoryWindow:          30,
		MaxHistoryLimit:        100,
		NotificationMaxRetries: 2,
		NotificationBackoffMS:  300_000,
	}
	return c
}
