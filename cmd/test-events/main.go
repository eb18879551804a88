package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/cuju/internal/testevents"
)

// Default configuration constants.
const (
	defaultParticipants = 300
	defaultTargetSize   = 5
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 60 * time.Second
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the engine")
		participants = flag.Int("participants", defaultParticipants, "Number of participants to generate")
		targetSize   = flag.Int("target-size", defaultTargetSize, "target_team_size sent with the request")
		shrink       = flag.Bool("shrink", false, "Set less_than_target=true")
		maxTime      = flag.Int("max-time", 0, "max_time (seconds) sent with the request")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent generator workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile   = flag.String("output", "", "Output file for the generated roster")
		logFile      = flag.String("log", "", "Log file for run output")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}

	if err := testevents.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &testevents.Config{
		BaseURL:         *baseURL,
		NumParticipants: *participants,
		TargetTeamSize:  *targetSize,
		LessThanTarget:  *shrink,
		MaxTimeSeconds:  *maxTime,
		Workers:         *workers,
		Timeout:         *timeout,
		OutputFile:      *outputFile,
		LogFile:         *logFile,
		Verbose:         *verbose,
	}

	if err := testevents.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Test run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
