package service

import "errors"

// Sentinel errors returned by the Service. Domain lookups surface
// model.ErrTeamNotFound and the engine's validation errors unchanged.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrUnknownChart = errors.New("unknown chart")
	ErrTooManyTeams = errors.New("too many teams selected")
	ErrBusy         = errors.New("too many images rendering")
)
