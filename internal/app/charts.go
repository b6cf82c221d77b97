package service

import (
	"github.com/okian/cfbtv/internal/domain/model"
	"github.com/okian/cfbtv/internal/domain/types"
)

// Chart ids served by the dashboard.
const (
	ChartViewers          = "viewers"
	ChartScores           = "scores"
	ChartAttendance       = "attendance"
	ChartAnnualAttendance = "annual-attendance"
)

type chartDef struct {
	info   types.ChartInfo
	metric model.Metric // unset for annual charts
}

// catalogue lists the charts in display order.
var catalogue = []chartDef{ //nolint:gochecknoglobals // fixed chart table
	{
		info: types.ChartInfo{
			ID:         ChartViewers,
			Title:      "TV Viewers by Team Over Time",
			XAxisLabel: "Date",
			YAxisLabel: "Number of Viewers",
			Kind:       types.KindTimeline,
		},
		metric: model.MetricViewers,
	},
	{
		info: types.ChartInfo{
			ID:         ChartScores,
			Title:      "TV Viewers by Total Home Team Score",
			XAxisLabel: "Date",
			YAxisLabel: "Home Team Final Score",
			Kind:       types.KindTimeline,
		},
		metric: model.MetricHomeScore,
	},
	{
		info: types.ChartInfo{
			ID:         ChartAttendance,
			Title:      "Stadium Attendance by Team Over Time",
			XAxisLabel: "Date",
			YAxisLabel: "Stadium Attendance",
			Kind:       types.KindTimeline,
		},
		metric: model.MetricAttendance,
	},
	{
		info: types.ChartInfo{
			ID:         ChartAnnualAttendance,
			Title:      "Stadium Attendance Year by Year",
			XAxisLabel: "Year",
			YAxisLabel: "Total Attendance",
			Kind:       types.KindAnnual,
		},
	},
}

func lookupChart(id string) (chartDef, bool) {
	for _, c := range catalogue {
		if c.info.ID == id {
			return c, true
		}
	}
	return chartDef{}, false
}

// Charts returns the chart catalogue in display order.
func (s *Service) Charts() []types.ChartInfo {
	out := make([]types.ChartInfo, len(catalogue))
	for i, c := range catalogue {
		out[i] = c.info
	}
	return out
}
