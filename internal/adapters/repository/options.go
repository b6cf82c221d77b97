package repository

import "github.com/okian/cfbtv/pkg/logger"

// DefaultCutoffYear drops every game played in or before this year.
const DefaultCutoffYear = 2010

// Option applies a configuration option to the CSVLoader.
type Option func(*CSVLoader)

// WithCutoffYear keeps only games whose year is strictly greater than year.
func WithCutoffYear(year int) Option {
	return func(l *CSVLoader) {
		l.cutoffYear = year
	}
}

// WithLogger sets the logger used for skipped-row warnings.
func WithLogger(log logger.Logger) Option {
	return func(l *CSVLoader) {
		if log != nil {
			l.logger = log
		}
	}
}
