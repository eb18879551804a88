package testevents

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/cuju/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging configures logging to both console and file. If logFile is
// empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the engine test-drive tool.
func ShowHelp() {
	os.Stdout.WriteString(`Cuju Engine Test-Drive Tool
===========================

Generates a synthetic roster, submits it to a running engine's /solve
endpoint, and checks the resulting record stream against the engine's
testable properties.

Usage:
  go run cmd/test-events/main.go [options]

Options:
  -url string
        Base URL of the engine (default "http://localhost:9080")
  -participants int
        Number of participants to generate (default 300)
  -target-size int
        target_team_size sent with the request (default 5)
  -shrink
        Set less_than_target=true (form K=ceil(N/T) teams, shrinking some)
  -max-time int
        max_time (seconds) sent with the request (default 0, engine default)
  -workers int
        Number of concurrent generator workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 60s)
  -output string
        Output file for the generated roster (default: generated_roster_TIMESTAMP.json)
  -log string
        Log file for run output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-events/main.go

  # Larger roster, forced shrink partition
  go run cmd/test-events/main.go -participants 1000 -target-size 4 -shrink
`)
}
