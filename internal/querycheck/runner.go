package querycheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/cfbtv/internal/domain/model"
	"github.com/okian/cfbtv/internal/domain/types"
	"github.com/okian/cfbtv/pkg/logger"
)

// outcome classifies one checked selection.
type outcome int

const (
	outcomePassed outcome = iota
	outcomeFailed
	outcomeLookupMiss
)

// Run executes the complete query check.
func Run(ctx context.Context, config *Config) error {
	_, err := run(ctx, config)
	return err
}

func run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting query check",
		logger.String("baseURL", config.BaseURL),
		logger.Int("checks", config.NumChecks),
		logger.Int("teamsPerCheck", config.TeamsPerCheck),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Fetch the dashboard inputs
	var opts types.Options
	if err := client.GetJSON(ctx, "/api/options", nil, "", &opts); err != nil {
		return stats, fmt.Errorf("options retrieval failed: %w", err)
	}
	logger.Get().Info(ctx, "options retrieved",
		logger.Int("teams", len(opts.Teams)),
		logger.Int("firstYear", opts.Years.Min),
		logger.Int("lastYear", opts.Years.Max))

	// Step 3: Generate selections
	selections, err := generateSelections(ctx, config, opts, stats)
	if err != nil {
		return stats, fmt.Errorf("selection generation failed: %w", err)
	}

	// Step 4: Check selections concurrently
	failures := checkSelections(ctx, config, client, selections, stats)

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if stats.ChecksFailed > 0 {
		for i, f := range failures {
			if i == maxReportedFailures {
				break
			}
			logger.Get().Error(ctx, "check failed", logger.Error(f))
		}
		return stats, fmt.Errorf("%d of %d checks failed", stats.ChecksFailed, stats.ChecksRun)
	}

	logger.Get().Info(ctx, "query check completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, "/healthz", nil, "")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// checkSelections runs every selection through a worker pool and returns
// the failures in no particular order.
func checkSelections(ctx context.Context, config *Config, client *HTTPClient, selections []Selection, stats *Stats) []error {
	logger.Get().Info(ctx, "checking selections",
		logger.Int("selections", len(selections)),
		logger.Int("workers", config.Workers))

	var (
		passed   int64
		failed   int64
		missed   int64
		requests int64

		mu       sync.Mutex
		failures []error
	)

	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	selChan := make(chan Selection, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for sel := range selChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				result, n, err := checkSelection(ctx, client, sel)
				atomic.AddInt64(&requests, int64(n))
				switch result {
				case outcomePassed:
					atomic.AddInt64(&passed, 1)
				case outcomeLookupMiss:
					atomic.AddInt64(&missed, 1)
				case outcomeFailed:
					atomic.AddInt64(&failed, 1)
					mu.Lock()
					failures = append(failures, fmt.Errorf("request %s %v: %w", sel.RequestID, sel.Teams, err))
					mu.Unlock()
				}

				if config.Verbose {
					logger.Get().Debug(logger.WithRequestID(ctx, sel.RequestID), "selection checked",
						logger.Strings("teams", sel.Teams),
						logger.Int("from", sel.From),
						logger.Int("to", sel.To),
						logger.Int("outcome", int(result)))
				}
			}
		}()
	}

	go func() {
		defer close(selChan)
		for _, sel := range selections {
			select {
			case <-ctx.Done():
				return
			case selChan <- sel:
			}
		}
	}()

	wg.Wait()

	stats.ChecksPassed = int(atomic.LoadInt64(&passed))
	stats.ChecksFailed = int(atomic.LoadInt64(&failed))
	stats.LookupMisses = int(atomic.LoadInt64(&missed))
	stats.ChecksRun = stats.ChecksPassed + stats.ChecksFailed + stats.LookupMisses
	stats.Requests = int(atomic.LoadInt64(&requests))

	return failures
}

// checkSelection fetches the viewers and annual attendance charts under all
// three roles plus the panel and verifies them. It returns the outcome and
// the number of requests made.
func checkSelection(ctx context.Context, client *HTTPClient, sel Selection) (outcome, int, error) {
	requests := 0
	for _, chartID := range []string{viewersChart, annualChart} {
		figs := make(roleFigures, 3)
		for _, role := range []model.Role{model.RoleHome, model.RoleAway, model.RoleBoth} {
			var fig types.Figure
			requests++
			err := client.GetJSON(ctx, "/api/charts/"+chartID, sel.Query(role), sel.RequestID, &fig)
			if err != nil {
				return classify(err), requests, err
			}
			if err := verifySeries(sel, fig); err != nil {
				return outcomeFailed, requests, err
			}
			if err := verifyDateOrder(fig); err != nil {
				return outcomeFailed, requests, err
			}
			figs[role] = fig
		}
		if err := verifyUnion(figs); err != nil {
			return outcomeFailed, requests, err
		}
		if err := verifyLabels(figs); err != nil {
			return outcomeFailed, requests, err
		}
	}

	var panel types.Panel
	requests++
	q := url.Values{"team": sel.Teams}
	if err := client.GetJSON(ctx, "/api/panel", q, sel.RequestID, &panel); err != nil {
		return classify(err), requests, err
	}
	if err := verifyPanel(sel, panel); err != nil {
		return outcomeFailed, requests, err
	}
	return outcomePassed, requests, nil
}

// classify treats a missing colour or logo as an expected lookup miss.
func classify(err error) outcome {
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound && se.Body.Code == codeTeamNotFound {
		return outcomeLookupMiss
	}
	return outcomeFailed
}

// displayFinalStats prints the final check statistics.
func displayFinalStats(stats *Stats) {
	var passRate, requestsPerSecond float64

	if stats.ChecksRun > 0 {
		passRate = float64(stats.ChecksPassed) / float64(stats.ChecksRun) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Requests) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("checksGenerated", stats.ChecksGenerated),
		logger.Int("checksRun", stats.ChecksRun),
		logger.Int("checksPassed", stats.ChecksPassed),
		logger.Int("checksFailed", stats.ChecksFailed),
		logger.Int("lookupMisses", stats.LookupMisses),
		logger.Int("requests", stats.Requests),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("passRate", passRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
