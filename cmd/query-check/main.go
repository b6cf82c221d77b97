package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/cfbtv/internal/querycheck"
)

// Default configuration constants.
const (
	defaultNumChecks     = 1000
	defaultTeamsPerCheck = 4
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultCheckTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numChecks = flag.Int("checks", defaultNumChecks, "Number of random selections to check")
		teams     = flag.Int("teams", defaultTeamsPerCheck, "Maximum number of teams per selection")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile   = flag.String("log", "", "Log file for check output (default: query_check_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		querycheck.ShowHelp()
		return
	}

	if err := querycheck.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultCheckTimeout)
	defer cancel()

	config := &querycheck.Config{
		BaseURL:       *baseURL,
		NumChecks:     *numChecks,
		TeamsPerCheck: *teams,
		Workers:       *workers,
		Timeout:       *timeout,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if err := querycheck.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Check failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel already called
	}
}
