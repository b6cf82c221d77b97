package api

import "errors"

// Sentinel kinds for API errors.
var (
	// ErrBadRequest marks a query string that cannot be read at all:
	// malformed escapes or separators, or a single-valued parameter repeated.
	ErrBadRequest = errors.New("bad request")
)
