package querycheck

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/okian/cfbtv/internal/domain/types"
	"github.com/okian/cfbtv/pkg/logger"
)

// randomInt returns a uniform integer in [0, n) using crypto/rand.
func randomInt(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// generateSelections builds NumChecks random selections over the teams and
// year span the service advertises.
func generateSelections(ctx context.Context, config *Config, opts types.Options, stats *Stats) ([]Selection, error) {
	if len(opts.Teams) == 0 {
		return nil, fmt.Errorf("service offers no teams")
	}
	if opts.Years.Min == 0 || opts.Years.Max < opts.Years.Min {
		return nil, fmt.Errorf("service offers no year span: %+v", opts.Years)
	}

	limit := config.TeamsPerCheck
	if opts.MaxTeams > 0 && limit > opts.MaxTeams {
		limit = opts.MaxTeams
	}
	if limit < 1 {
		limit = 1
	}

	logger.Get().Info(ctx, "generating selections",
		logger.Int("checks", config.NumChecks),
		logger.Int("maxTeams", limit))

	selections := make([]Selection, config.NumChecks)
	for i := range selections {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during selection generation: %w", ctx.Err())
		default:
			selections[i] = generateSingleSelection(opts, limit)
		}
	}

	stats.ChecksGenerated = len(selections)
	return selections, nil
}

// generateSingleSelection draws 1..limit teams, repeats allowed, and a year
// range inside the advertised span.
func generateSingleSelection(opts types.Options, limit int) Selection {
	teams := make([]string, 1+randomInt(limit))
	for i := range teams {
		teams[i] = opts.Teams[randomInt(len(opts.Teams))]
	}

	width := opts.Years.Max - opts.Years.Min + 1
	from := opts.Years.Min + randomInt(width)
	to := from + randomInt(opts.Years.Max-from+1)

	return Selection{
		RequestID: uuid.NewString(),
		Teams:     teams,
		From:      from,
		To:        to,
	}
}
