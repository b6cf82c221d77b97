package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okian/cfbtv/internal/domain/model"
	"github.com/okian/cfbtv/pkg/logger"
	"github.com/okian/cfbtv/pkg/metrics"
)

// Games CSV column names.
const (
	colDate       = "Date"
	colHome       = "Home Team"
	colVisitor    = "Visitor Team"
	colViewers    = "VIEWERS"
	colHomeScore  = "score_home"
	colAttendance = "attend"
	colTitle      = "GAME"
)

// Team table column names.
const (
	colTeam  = "Team"
	colColor = "Color"
	colLogo  = "Logo"
	colLink  = "Link"
)

// dateLayouts are tried in order for the Date column.
var dateLayouts = []string{ //nolint:gochecknoglobals // fixed parse table
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/06",
	"01/02/2006 15:04",
}

// Paths locates the input files. Logos may be empty.
type Paths struct {
	Games  string
	Colors string
	Logos  string
}

// CSVLoader parses the input tables.
type CSVLoader struct {
	cutoffYear int
	logger     logger.Logger
}

// NewCSVLoader creates a loader with the default year cutoff.
func NewCSVLoader(opts ...Option) *CSVLoader {
	l := &CSVLoader{
		cutoffYear: DefaultCutoffYear,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads all files in p and builds the shared snapshot.
func (l *CSVLoader) Load(ctx context.Context, p Paths) (*Snapshot, error) {
	start := time.Now()

	games, report, err := withFile(p.Games, func(r io.Reader) ([]model.Game, Report, error) {
		return l.LoadGames(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	colors, _, err := withFile(p.Colors, func(r io.Reader) (map[string]string, Report, error) {
		c, err := l.LoadColors(ctx, r)
		return c, Report{}, err
	})
	if err != nil {
		return nil, err
	}

	var logos map[string]model.TeamLogo
	if p.Logos != "" {
		logos, _, err = withFile(p.Logos, func(r io.Reader) (map[string]model.TeamLogo, Report, error) {
			lg, err := l.LoadLogos(ctx, r)
			return lg, Report{}, err
		})
		if err != nil {
			return nil, err
		}
	}

	ds := model.NewDataset(games)
	report.Duration = time.Since(start)

	metrics.UpdateDatasetGames(ds.Len())
	metrics.UpdateDatasetSkippedRows(report.Rows - report.Kept)
	metrics.UpdateDatasetAnnualGroups(ds.AnnualLen())
	metrics.RecordDatasetLoadDuration(float64(report.Duration.Milliseconds()))
	if span, ok := ds.Span(); ok {
		metrics.UpdateDatasetYearSpan(span.Min, span.Max)
	}

	l.logger.Info(ctx, "dataset loaded",
		logger.String("games_path", p.Games),
		logger.Int("rows", report.Rows),
		logger.Int("kept", report.Kept),
		logger.Int("before_cutoff", report.BeforeCutoff),
		logger.Int("bad_date", report.BadDate),
		logger.Int("no_teams", report.NoTeams),
		logger.Int("bad_numbers", report.BadNumbers),
		logger.Int("colors", len(colors)),
		logger.Int("logos", len(logos)),
		logger.Duration("took", report.Duration),
	)

	return &Snapshot{
		dataset:   ds,
		directory: model.NewTeamDirectory(colors, logos),
		report:    report,
	}, nil
}

func withFile[T any](path string, fn func(io.Reader) (T, Report, error)) (T, Report, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, Report{}, fmt.Errorf("%w: %s: %w", ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()

	v, rep, err := fn(f)
	if err != nil {
		return zero, Report{}, fmt.Errorf("%s: %w", path, err)
	}
	return v, rep, nil
}

// LoadGames parses the games table. Rows without a usable date or without
// any team are skipped and counted; rows dated at or before the cutoff year
// are dropped. Order is file order; sorting happens in model.NewDataset.
func (l *CSVLoader) LoadGames(ctx context.Context, r io.Reader) ([]model.Game, Report, error) {
	var rep Report
	cr := newReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, rep, fmt.Errorf("%w: header: %w", ErrReadCSV, err)
	}
	cols := indexHeader(header)
	for _, name := range []string{colDate, colHome, colVisitor} {
		if _, ok := cols[name]; !ok {
			return nil, rep, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	var games []model.Game
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, rep, fmt.Errorf("%w: %w", ErrReadCSV, err)
		}
		rep.Rows++
		line, _ := cr.FieldPos(0)

		date, ok := parseDate(cell(rec, cols, colDate))
		if !ok {
			rep.BadDate++
			l.logger.Warn(ctx, "skipping row with unusable date",
				logger.Int("line", line),
				logger.String("value", cell(rec, cols, colDate)),
			)
			continue
		}
		home, visitor := cell(rec, cols, colHome), cell(rec, cols, colVisitor)
		if home == "" && visitor == "" {
			rep.NoTeams++
			l.logger.Warn(ctx, "skipping row without teams", logger.Int("line", line))
			continue
		}
		if date.Year() <= l.cutoffYear {
			rep.BeforeCutoff++
			continue
		}

		g := model.Game{
			Date:     date,
			HomeTeam: home,
			Visitor:  visitor,
			Title:    cell(rec, cols, colTitle),
		}
		var bad bool
		g.Viewers, bad = parseCount(cell(rec, cols, colViewers))
		rep.BadNumbers += btoi(bad)
		g.HomeScore, bad = parseCount(cell(rec, cols, colHomeScore))
		rep.BadNumbers += btoi(bad)
		g.Attendance, bad = parseCount(cell(rec, cols, colAttendance))
		rep.BadNumbers += btoi(bad)

		games = append(games, g)
	}
	rep.Kept = len(games)
	return games, rep, nil
}

// LoadColors parses team_colors.csv into team -> colour token.
func (l *CSVLoader) LoadColors(_ context.Context, r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	err := readTeamTable(r, []string{colTeam, colColor}, func(team string, rec []string, cols map[string]int) {
		out[team] = cell(rec, cols, colColor)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadLogos parses team_logos.csv into team -> logo and link URLs.
func (l *CSVLoader) LoadLogos(_ context.Context, r io.Reader) (map[string]model.TeamLogo, error) {
	out := make(map[string]model.TeamLogo)
	err := readTeamTable(r, []string{colTeam, colLogo, colLink}, func(team string, rec []string, cols map[string]int) {
		out[team] = model.TeamLogo{Logo: cell(rec, cols, colLogo), Link: cell(rec, cols, colLink)}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// readTeamTable iterates rows keyed by the Team column. Later rows win.
func readTeamTable(r io.Reader, required []string, fn func(team string, rec []string, cols map[string]int)) error {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("%w: header: %w", ErrReadCSV, err)
	}
	cols := indexHeader(header)
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadCSV, err)
		}
		team := cell(rec, cols, colTeam)
		if team == "" {
			continue
		}
		fn(team, rec, cols)
	}
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func cell(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseCount reads an integer-valued cell. Blank and NA-style cells are
// unknown; bad reports a non-blank cell that could not be read.
func parseCount(s string) (v *int64, bad bool) {
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "none", "-":
		return nil, false
	}
	s = strings.ReplaceAll(s, ",", "")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, true
	}
	n := int64(math.Round(f))
	return &n, false
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
