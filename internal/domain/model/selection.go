package model

import (
	"fmt"
	"strings"
)

// Role selects which side of a game a team must have played.
type Role string

const (
	RoleHome Role = "Home"
	RoleAway Role = "Away"
	RoleBoth Role = "Both"
)

// ParseRole accepts Home, Away or Both, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home":
		return RoleHome, nil
	case "away":
		return RoleAway, nil
	case "both":
		return RoleBoth, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Valid reports whether r is one of the three roles.
func (r Role) Valid() bool {
	return r == RoleHome || r == RoleAway || r == RoleBoth
}

// Matches applies the role predicate to a game side pair.
func (r Role) Matches(home, visitor, team string) bool {
	switch r {
	case RoleHome:
		return home == team
	case RoleAway:
		return visitor == team
	case RoleBoth:
		return home == team || visitor == team
	default:
		return false
	}
}

// Metric names the numeric game column plotted on the y axis.
type Metric string

const (
	MetricViewers    Metric = "VIEWERS"
	MetricHomeScore  Metric = "HOME_SCORE"
	MetricAttendance Metric = "ATTENDANCE"
)

// ParseMetric accepts the metric names case-insensitively.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(MetricViewers):
		return MetricViewers, nil
	case string(MetricHomeScore), "SCORE_HOME":
		return MetricHomeScore, nil
	case string(MetricAttendance), "ATTEND":
		return MetricAttendance, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMetric, s)
}

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	return m == MetricViewers || m == MetricHomeScore || m == MetricAttendance
}

// YearRange is an inclusive [Min, Max] span of calendar years.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether year falls inside the range, bounds included.
func (r YearRange) Contains(year int) bool {
	return r.Min <= year && year <= r.Max
}

// Validate rejects inverted ranges.
func (r YearRange) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("%w: %d > %d", ErrInvalidYears, r.Min, r.Max)
	}
	return nil
}
