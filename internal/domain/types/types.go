// Package types contains the payload types shared by the service and its adapters.
package types

import (
	"github.com/okian/cfbtv/internal/domain/model"
)

// Chart kinds select the x axis of a figure.
const (
	KindTimeline = "timeline" // x is a calendar date, YYYY-MM-DD
	KindAnnual   = "annual"   // x is a season year
)

// ChartInfo describes one entry of the chart catalogue.
type ChartInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	XAxisLabel string `json:"xAxisLabel"`
	YAxisLabel string `json:"yAxisLabel"`
	Kind       string `json:"kind"`
}

// Point is one plotted value. Y is null when the game has no value.
type Point struct {
	X     string `json:"x"`
	Y     *int64 `json:"y"`
	Label string `json:"label"`
}

// Series is the points of one selected team, drawn in Color.
type Series struct {
	Team   string  `json:"team"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Figure is a chart ready to draw.
type Figure struct {
	ChartInfo
	Series []Series `json:"series"`
}

// Panel is the logo and link shown for the last selected team.
// Team is empty when nothing is selected.
type Panel struct {
	Team    string `json:"team"`
	LogoURL string `json:"logoUrl"`
	LinkURL string `json:"linkUrl"`
}

// Defaults is the selection the dashboard starts from.
type Defaults struct {
	Teams []string        `json:"teams"`
	Role  model.Role      `json:"role"`
	Years model.YearRange `json:"years"`
}

// Options feeds the dashboard's team dropdown, role radio and year slider.
type Options struct {
	Teams    []string        `json:"teams"`
	Roles    []model.Role    `json:"roles"`
	Years    model.YearRange `json:"years"`
	Marks    []int           `json:"marks"`
	MaxTeams int             `json:"maxTeams"`
	Defaults Defaults        `json:"defaults"`
	Charts   []ChartInfo     `json:"charts"`
}
