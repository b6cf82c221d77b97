package querycheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/cfbtv/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "query_check_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the query check tool.
func ShowHelp() {
	os.Stdout.WriteString(`CFB TV Query Check
==================

A concurrent tool that checks the chart API of a running dashboard against
the invariants of the query engine.

For every random selection it fetches the viewers chart for the Home, Away
and Both roles plus the annual attendance chart and the logo panel, then
verifies:
  - one series per selected team, in selection order
  - every point lies inside the requested year range
  - timeline points are in date order, annual points in year order
  - Both holds exactly the Home games plus the Away games
  - the panel shows the last selected team

Usage:
  go run cmd/query-check/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -checks int
        Number of random selections to check (default 1000)
  -teams int
        Maximum number of teams per selection (default 4)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for check output (default: query_check_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Check with default settings
  go run cmd/query-check/main.go

  # Check with custom parameters
  go run cmd/query-check/main.go -checks 5000 -workers 16 -url http://localhost:8080
`)
}
