package worker

import (
	"github.com/okian/cfbtv/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkers sets the number of concurrent render workers.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workerCount = n
		}
	}
}

// WithQueueSize sets how many render jobs may wait for a worker.
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithLogger sets a custom logger for the pool and its workers.
func WithLogger(logger logger.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}
