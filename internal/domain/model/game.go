// Package model contains the domain records shared by the loader, the query
// engine and the dashboard service.
package model

import (
	"sort"
	"time"
)

// Game is one televised game row.
type Game struct {
	Date       time.Time // kickoff calendar date
	HomeTeam   string
	Visitor    string
	Viewers    *int64 // VIEWERS, nil when unknown
	HomeScore  *int64 // score_home
	Attendance *int64 // attend
	Title      string // GAME column, used as hover label
}

// Year returns the calendar year of the game date.
func (g Game) Year() int {
	return g.Date.Year()
}

// Involves reports whether team played in the game, home or away.
func (g Game) Involves(team string) bool {
	return g.HomeTeam == team || g.Visitor == team
}

// Value returns the metric column selected by m.
func (g Game) Value(m Metric) *int64 {
	switch m {
	case MetricViewers:
		return g.Viewers
	case MetricHomeScore:
		return g.HomeScore
	case MetricAttendance:
		return g.Attendance
	default:
		return nil
	}
}

// Dataset is the load-time filtered, date-ordered collection of games.
// It is immutable once built; share it by pointer.
type Dataset struct {
	games  []Game
	annual []AnnualAttendance
	teams  []string
}

// NewDataset copies games, sorts them ascending by date (ties keep input
// order) and precomputes the annual attendance aggregate.
func NewDataset(games []Game) *Dataset {
	sorted := make([]Game, len(games))
	copy(sorted, games)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	return &Dataset{
		games:  sorted,
		annual: aggregateAnnual(sorted),
		teams:  uniqueHomeTeams(sorted),
	}
}

// Len returns the number of games.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.games)
}

// At returns the i-th game in date order.
func (d *Dataset) At(i int) Game {
	return d.games[i]
}

// AnnualLen returns the number of (home, visitor, year) groups.
func (d *Dataset) AnnualLen() int {
	if d == nil {
		return 0
	}
	return len(d.annual)
}

// AnnualAt returns the i-th annual group.
func (d *Dataset) AnnualAt(i int) AnnualAttendance {
	return d.annual[i]
}

// HomeTeams returns the distinct home teams in order of first appearance.
func (d *Dataset) HomeTeams() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.teams))
	copy(out, d.teams)
	return out
}

// Span returns the first and last year present. ok is false for an empty dataset.
func (d *Dataset) Span() (span YearRange, ok bool) {
	if d.Len() == 0 {
		return YearRange{}, false
	}
	return YearRange{Min: d.games[0].Year(), Max: d.games[len(d.games)-1].Year()}, true
}

// Years returns every distinct year present, ascending.
func (d *Dataset) Years() []int {
	var years []int
	for i := 0; i < d.Len(); i++ {
		y := d.games[i].Year()
		if len(years) == 0 || years[len(years)-1] != y {
			years = append(years, y)
		}
	}
	return years
}

func uniqueHomeTeams(games []Game) []string {
	seen := make(map[string]struct{})
	var teams []string
	for _, g := range games {
		if g.HomeTeam == "" {
			continue
		}
		if _, ok := seen[g.HomeTeam]; ok {
			continue
		}
		seen[g.HomeTeam] = struct{}{}
		teams = append(teams, g.HomeTeam)
	}
	return teams
}
