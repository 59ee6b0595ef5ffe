package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithShardCount sets the number of lock stripes for per-patient
// serialization. Values below 1 keep the default.
func WithShardCount(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMaxHistory bounds how many readings are retained per patient.
// Values below 1 keep the default.
func WithMaxHistory(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}
