// Package worker runs chart rendering on a fixed set of goroutines fed by a
// bounded queue, so image requests cannot pile up unbounded render work.
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/cfbtv/internal/adapters/chart"
	"github.com/okian/cfbtv/internal/adapters/mq/queue"
	"github.com/okian/cfbtv/internal/domain/types"
	"github.com/okian/cfbtv/pkg/logger"
	"github.com/okian/cfbtv/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultQueueSize      = 64
	poolShutdownTimeout   = 30 * time.Second
	millisecondsPerSecond = 1000
)

// Sentinel kinds for pool errors.
var (
	ErrBusy    = errors.New("render queue is full")
	ErrStopped = errors.New("render pool stopped")
)

// Renderer draws a figure as an image.
type Renderer interface {
	Render(ctx context.Context, fig types.Figure, format chart.Format, w io.Writer) error
}

// job is one queued render. The worker renders into its own buffer and
// hands the bytes back on done, so a caller that gives up never shares a
// writer with a running worker.
type job struct {
	ctx      context.Context //nolint:containedctx // the job carries its request's context to the worker
	fig      types.Figure
	format   chart.Format
	enqueued time.Time
	done     chan result
}

type result struct {
	image []byte
	err   error
}

// Pool renders figures on a fixed number of workers. It implements Renderer.
type Pool struct {
	renderer    Renderer
	queue       queue.Queue[*job]
	workerCount int
	queueSize   int

	// Lifecycle
	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// NewPool creates a new render pool around renderer. Call Start before Render.
func NewPool(renderer Renderer, opts ...Option) *Pool {
	p := &Pool{
		renderer:    renderer,
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		logger:      logger.Nop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.queue = queue.NewInMemoryQueue[*job](queue.WithCapacity(p.queueSize))
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.queue.IsClosed() {
		return
	}
	p.started = true

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.run(p.logger.Named("worker-" + strconv.Itoa(i)))
	}
	metrics.UpdateRenderWorkers(p.workerCount)

	p.logger.Info(ctx, "render pool started",
		logger.Int("workers", p.workerCount),
		logger.Int("queueSize", p.queueSize))
}

// Render queues the figure and waits for a worker to draw it into w. It
// fails fast with ErrBusy when the queue is full.
func (p *Pool) Render(ctx context.Context, fig types.Figure, format chart.Format, w io.Writer) error {
	j := &job{
		ctx:      ctx,
		fig:      fig,
		format:   format,
		enqueued: time.Now(),
		done:     make(chan result, 1),
	}

	if err := p.queue.Enqueue(ctx, j); err != nil {
		switch {
		case errors.Is(err, queue.ErrFull):
			return fmt.Errorf("%w: %d jobs waiting", ErrBusy, p.queue.Cap())
		case errors.Is(err, queue.ErrClosed):
			return ErrStopped
		default:
			return err
		}
	}

	select {
	case res := <-j.done:
		if res.err != nil {
			return res.err
		}
		_, err := w.Write(res.image)
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is one worker loop. It exits once the queue is closed and drained.
func (p *Pool) run(log logger.Logger) {
	defer p.wg.Done()

	for j := range p.queue.Dequeue() {
		metrics.UpdateRenderQueueSize(p.queue.Len())
		metrics.RecordRenderQueueWait(float64(time.Since(j.enqueued).Microseconds()) / millisecondsPerSecond)

		// The caller has already given up.
		if err := j.ctx.Err(); err != nil {
			j.done <- result{err: err}
			continue
		}

		var buf bytes.Buffer
		err := p.renderer.Render(j.ctx, j.fig, j.format, &buf)
		if err != nil {
			log.Error(j.ctx, "render failed",
				logger.String("chart", j.fig.ID),
				logger.String("format", string(j.format)),
				logger.Error(err))
		}
		j.done <- result{image: buf.Bytes(), err: err}
	}
}

// Shutdown closes the queue, lets the workers finish queued jobs and waits
// for them until ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing render queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		metrics.UpdateRenderWorkers(0)
		p.logger.Info(ctx, "render pool stopped")
		return nil
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "render pool shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
	}
}
