package model

import "sort"

// AnnualAttendance is the summed stadium attendance for one
// (home, visitor, year) grouping.
type AnnualAttendance struct {
	HomeTeam   string
	Visitor    string
	Year       int
	Attendance int64
}

// Involves reports whether team is the home or visiting side of the group.
func (a AnnualAttendance) Involves(team string) bool {
	return a.HomeTeam == team || a.Visitor == team
}

type annualKey struct {
	home    string
	visitor string
	year    int
}

// aggregateAnnual groups games by (home, visitor, year). Unknown attendance
// adds nothing, so an all-unknown group sums to zero. Groups are ordered by
// home, then visitor, then year.
func aggregateAnnual(games []Game) []AnnualAttendance {
	idx := make(map[annualKey]int)
	var out []AnnualAttendance
	for _, g := range games {
		k := annualKey{home: g.HomeTeam, visitor: g.Visitor, year: g.Year()}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, AnnualAttendance{HomeTeam: k.home, Visitor: k.visitor, Year: k.year})
		}
		if g.Attendance != nil {
			out[i].Attendance += *g.Attendance
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HomeTeam != b.HomeTeam {
			return a.HomeTeam < b.HomeTeam
		}
		if a.Visitor != b.Visitor {
			return a.Visitor < b.Visitor
		}
		return a.Year < b.Year
	})
	return out
}
