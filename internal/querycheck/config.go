package querycheck

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/cfbtv/internal/domain/model"
)

// Config holds configuration for the query check
type Config struct {
	BaseURL       string        // Base URL of the service
	NumChecks     int           // Number of random selections to check
	TeamsPerCheck int           // Upper bound of teams per selection
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	LogFile       string        // Log file for check output
	Verbose       bool          // Enable verbose logging
}

// Selection is one random dashboard state sent to the service.
type Selection struct {
	RequestID string
	Teams     []string
	From      int
	To        int
}

// Query encodes the selection as chart query parameters. The role is left
// to the caller so one selection can be checked under all three roles.
func (s Selection) Query(role model.Role) url.Values {
	q := url.Values{}
	q.Set("team", strings.Join(s.Teams, ","))
	q.Set("role", string(role))
	q.Set("from", strconv.Itoa(s.From))
	q.Set("to", strconv.Itoa(s.To))
	return q
}

// ErrorResponse is the service error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats holds check statistics
type Stats struct {
	ChecksGenerated int
	ChecksRun       int
	ChecksPassed    int
	ChecksFailed    int
	LookupMisses    int
	Requests        int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
