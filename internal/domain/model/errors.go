package model

import "errors"

// Sentinel kinds for domain errors. These allow errors.Is from callers.
var (
	ErrTeamNotFound  = errors.New("team not found")
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidMetric = errors.New("invalid metric")
	ErrInvalidYears  = errors.New("invalid year range")
)
