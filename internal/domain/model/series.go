package model

import "time"

// Point is one chart sample. Date is set for per-game points and zero for
// annual points; Year is always set.
type Point struct {
	Date  time.Time
	Year  int
	Y     *int64
	Label string
}

// Series is one team's ordered points for a single chart.
type Series struct {
	Team   string
	Points []Point
}
