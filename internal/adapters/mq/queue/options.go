package queue

// Option applies a configuration option to an InMemoryQueue.
type Option func(*options)

type options struct {
	capacity int
}

// WithCapacity sets the maximum number of waiting items.
func WithCapacity(capacity int) Option {
	return func(o *options) {
		if capacity > 0 {
			o.capacity = capacity
		}
	}
}
