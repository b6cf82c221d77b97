// Package repository loads the game dataset and team tables from CSV files.
package repository

import (
	"time"

	"github.com/okian/cfbtv/internal/domain/model"
)

// Store exposes the read-only state built at start-up.
type Store interface {
	// Dataset returns the immutable, date-ordered games.
	Dataset() *model.Dataset
	// Directory returns the team colour and logo lookup.
	Directory() *model.TeamDirectory
}

// Report summarises one games load.
type Report struct {
	Rows         int           // data rows read, header excluded
	Kept         int           // rows in the dataset
	BeforeCutoff int           // rows dropped by the year cutoff
	BadDate      int           // rows dropped for a missing or unparseable date
	NoTeams      int           // rows dropped with neither team set
	BadNumbers   int           // numeric cells read as unknown
	Duration     time.Duration // wall time of the load
}

// Snapshot is the loaded process-wide state. It implements Store.
type Snapshot struct {
	dataset   *model.Dataset
	directory *model.TeamDirectory
	report    Report
}

// NewSnapshot wraps already built state, mainly for tests and tools.
func NewSnapshot(ds *model.Dataset, dir *model.TeamDirectory) *Snapshot {
	return &Snapshot{dataset: ds, directory: dir, report: Report{Rows: ds.Len(), Kept: ds.Len()}}
}

// Dataset implements Store.
func (s *Snapshot) Dataset() *model.Dataset { return s.dataset }

// Directory implements Store.
func (s *Snapshot) Directory() *model.TeamDirectory { return s.directory }

// Report returns the games load report.
func (s *Snapshot) Report() Report { return s.report }
