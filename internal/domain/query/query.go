// Package query filters the in-memory game dataset into chart series.
//
// Every call is a linear scan over the immutable dataset; there is no index
// and no cache. Engines are safe for concurrent use.
package query

import (
	"context"
	"fmt"

	"github.com/okian/cfbtv/internal/domain/model"
)

// Request describes one chart query.
type Request struct {
	Teams  []string
	Role   model.Role
	Years  model.YearRange
	Metric model.Metric // ignored by Annual
}

// Engine answers series queries against a loaded dataset.
type Engine interface {
	// Query returns one series per requested team, in request order,
	// sourced from per-game rows.
	Query(ctx context.Context, req Request) ([]model.Series, error)
	// Annual returns one series per requested team sourced from the
	// (home, visitor, year) attendance aggregate.
	Annual(ctx context.Context, req Request) ([]model.Series, error)
}

// InMemoryEngine implements Engine over a *model.Dataset.
type InMemoryEngine struct {
	ds *model.Dataset
}

// New returns an engine reading from ds. ds must not be mutated afterwards.
func New(ds *model.Dataset) *InMemoryEngine {
	if ds == nil {
		ds = model.NewDataset(nil)
	}
	return &InMemoryEngine{ds: ds}
}

// Dataset exposes the shared read-only dataset.
func (e *InMemoryEngine) Dataset() *model.Dataset {
	return e.ds
}

// Query implements Engine.
//
// Hover labels are the titles of every game the team played in, home or
// away, over the whole dataset, assigned to points by position. They ignore
// both the role filter and the year range.
func (e *InMemoryEngine) Query(_ context.Context, req Request) ([]model.Series, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if !req.Metric.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidMetric, req.Metric)
	}

	out := make([]model.Series, 0, len(req.Teams))
	for _, team := range req.Teams {
		labels := e.labels(team)
		points := make([]model.Point, 0)
		for i := 0; i < e.ds.Len(); i++ {
			g := e.ds.At(i)
			if !req.Years.Contains(g.Year()) || !req.Role.Matches(g.HomeTeam, g.Visitor, team) {
				continue
			}
			p := model.Point{Date: g.Date, Year: g.Year(), Y: g.Value(req.Metric)}
			if len(points) < len(labels) {
				p.Label = labels[len(points)]
			}
			points = append(points, p)
		}
		out = append(out, model.Series{Team: team, Points: points})
	}
	return out, nil
}

// Annual implements Engine.
func (e *InMemoryEngine) Annual(_ context.Context, req Request) ([]model.Series, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	out := make([]model.Series, 0, len(req.Teams))
	for _, team := range req.Teams {
		points := make([]model.Point, 0)
		for i := 0; i < e.ds.AnnualLen(); i++ {
			a := e.ds.AnnualAt(i)
			if !req.Years.Contains(a.Year) || !req.Role.Matches(a.HomeTeam, a.Visitor, team) {
				continue
			}
			total := a.Attendance
			points = append(points, model.Point{
				Year:  a.Year,
				Y:     &total,
				Label: fmt.Sprintf("%s at %s", a.Visitor, a.HomeTeam),
			})
		}
		out = append(out, model.Series{Team: team, Points: points})
	}
	return out, nil
}

func (e *InMemoryEngine) labels(team string) []string {
	var labels []string
	for i := 0; i < e.ds.Len(); i++ {
		if g := e.ds.At(i); g.Involves(team) {
			labels = append(labels, g.Title)
		}
	}
	return labels
}

func validate(req Request) error {
	if !req.Role.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidRole, req.Role)
	}
	return req.Years.Validate()
}
