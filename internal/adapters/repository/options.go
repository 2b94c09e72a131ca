package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithResampleWorkers bounds how many subjects are resampled concurrently.
func WithResampleWorkers(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.workers = n
		}
	}
}
