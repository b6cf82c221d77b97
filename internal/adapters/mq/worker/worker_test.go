package worker_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/okian/cfbtv/internal/adapters/chart"
	worker "github.com/okian/cfbtv/internal/adapters/mq/worker"
	"github.com/okian/cfbtv/internal/domain/types"
	logging "github.com/okian/cfbtv/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// mockRenderer writes the figure id, optionally waiting on gate first.
type mockRenderer struct {
	gate    chan struct{}
	started chan struct{}
	err     error

	mu    sync.Mutex
	calls int
}

func (m *mockRenderer) Render(ctx context.Context, fig types.Figure, format chart.Format, w io.Writer) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.gate != nil {
		<-m.gate
	}
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, fig.ID+"."+string(format))
	return err
}

func (m *mockRenderer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func figure(id string) types.Figure {
	return types.Figure{ChartInfo: types.ChartInfo{ID: id}}
}

func TestPool_Render(t *testing.T) {
	convey.Convey("Given a started render pool", t, func() {
		ctx := context.Background()
		renderer := &mockRenderer{}
		pool := worker.NewPool(renderer,
			worker.WithWorkers(4),
			worker.WithQueueSize(64),
			worker.WithLogger(logging.Nop()),
		)
		pool.Start(ctx)
		defer func() { _ = pool.Shutdown(ctx) }()

		convey.Convey("When rendering a figure", func() {
			var buf bytes.Buffer
			err := pool.Render(ctx, figure("viewers"), chart.FormatPNG, &buf)

			convey.Convey("Then the image should be written to the caller", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(buf.String(), convey.ShouldEqual, "viewers.png")
				convey.So(renderer.Calls(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When rendering concurrently", func() {
			const n = 50
			var wg sync.WaitGroup
			errs := make([]error, n)
			out := make([]string, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					var buf bytes.Buffer
					errs[i] = pool.Render(ctx, figure("chart-"+strconv.Itoa(i)), chart.FormatSVG, &buf)
					out[i] = buf.String()
				}(i)
			}
			wg.Wait()

			convey.Convey("Then every caller should get its own image", func() {
				for i := 0; i < n; i++ {
					convey.So(errs[i], convey.ShouldBeNil)
					convey.So(out[i], convey.ShouldEqual, "chart-"+strconv.Itoa(i)+".svg")
				}
			})
		})

		convey.Convey("When starting it twice", func() {
			pool.Start(ctx)

			convey.Convey("Then it should keep working", func() {
				var buf bytes.Buffer
				convey.So(pool.Render(ctx, figure("scores"), chart.FormatPNG, &buf), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a renderer that fails", t, func() {
		ctx := context.Background()
		boom := errors.New("boom")
		pool := worker.NewPool(&mockRenderer{err: boom}, worker.WithWorkers(1))
		pool.Start(ctx)
		defer func() { _ = pool.Shutdown(ctx) }()

		convey.Convey("Then the error should reach the caller and nothing be written", func() {
			var buf bytes.Buffer
			err := pool.Render(ctx, figure("viewers"), chart.FormatPNG, &buf)
			convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
			convey.So(buf.Len(), convey.ShouldEqual, 0)
		})
	})
}

func TestPool_Backpressure(t *testing.T) {
	convey.Convey("Given a pool with one worker and one queue slot", t, func() {
		ctx := context.Background()
		renderer := &mockRenderer{gate: make(chan struct{}), started: make(chan struct{}, 4)}
		pool := worker.NewPool(renderer, worker.WithWorkers(1), worker.WithQueueSize(1))
		pool.Start(ctx)

		// Occupy the worker.
		first := make(chan error, 1)
		go func() {
			first <- pool.Render(ctx, figure("first"), chart.FormatPNG, io.Discard)
		}()
		<-renderer.started

		convey.Convey("When a caller gives up while queued", func() {
			waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			err := pool.Render(waitCtx, figure("second"), chart.FormatPNG, io.Discard)

			convey.Convey("Then it should see its own deadline", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})

			convey.Convey("And the next caller should be refused while the slot is taken", func() {
				err := pool.Render(ctx, figure("third"), chart.FormatPNG, io.Discard)
				convey.So(errors.Is(err, worker.ErrBusy), convey.ShouldBeTrue)
			})

			convey.Convey("And the abandoned job should be skipped once the worker is free", func() {
				close(renderer.gate)
				convey.So(<-first, convey.ShouldBeNil)
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
				convey.So(renderer.Calls(), convey.ShouldEqual, 1)
			})
		})

		convey.Reset(func() {
			select {
			case <-renderer.gate:
			default:
				close(renderer.gate)
			}
			_ = pool.Shutdown(ctx)
		})
	})
}

func TestPool_Shutdown(t *testing.T) {
	convey.Convey("Given a pool that has been shut down", t, func() {
		ctx := context.Background()
		pool := worker.NewPool(&mockRenderer{}, worker.WithWorkers(2))
		pool.Start(ctx)
		convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

		convey.Convey("Then rendering should fail with ErrStopped", func() {
			err := pool.Render(ctx, figure("viewers"), chart.FormatPNG, io.Discard)
			convey.So(errors.Is(err, worker.ErrStopped), convey.ShouldBeTrue)
		})

		convey.Convey("And shutting down again should be harmless", func() {
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
		})

		convey.Convey("And starting it again should not revive it", func() {
			pool.Start(ctx)
			err := pool.Render(ctx, figure("viewers"), chart.FormatPNG, io.Discard)
			convey.So(errors.Is(err, worker.ErrStopped), convey.ShouldBeTrue)
		})
	})
}
