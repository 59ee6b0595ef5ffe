package dedupe

// Option configures the in-memory deduper.
type Option func(*memoryDeduper)

// WithMaxSize bounds the number of IDs kept in memory. Once full, the
// oldest recorded ID is evicted to make room. A value of zero or less
// disables eviction entirely.
func WithMaxSize(maxSize int) Option {
	return func(d *memoryDeduper) {
		d.maxSize = maxSize
	}
}
