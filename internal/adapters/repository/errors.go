package repository

import "errors"

// Sentinel kinds for loader errors.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrReadCSV       = errors.New("read csv failed")
	ErrOpenFile      = errors.New("open data file failed")
)
