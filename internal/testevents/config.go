// Package testevents drives a running engine end to end over HTTP: it
// generates a synthetic roster, submits it to /solve, and checks the
// resulting record stream against the testable properties (invariants
// 1-4) the engine promises. It is grounded in the original event-load
// generator's worker-pool/crypto-rand idiom, retargeted from talent
// scoring events to team-formation rosters.
package testevents

import "time"

// Config holds configuration for one generate-solve-verify run.
type Config struct {
	BaseURL         string        // Base URL of the running engine
	NumParticipants int           // Roster size to generate
	TargetTeamSize  int           // target_team_size sent with the request
	LessThanTarget  bool          // less_than_target sent with the request
	MaxTimeSeconds  int           // max_time sent with the request (0 = engine default)
	Workers         int           // Concurrent generator workers
	Timeout         time.Duration // HTTP request timeout
	OutputFile      string        // Output file for the generated roster
	LogFile         string        // Log file for run output
	Verbose         bool          // Enable verbose logging
}

// Stats accumulates counters over one run for the final report.
type Stats struct {
	ParticipantsGenerated int
	ProgressRecords       int
	SolutionCounts        []int
	FinalTeamCount        int
	InvariantFailures     []string
	StartTime             time.Time
	EndTime               time.Time
	Duration              time.Duration
}

// Passed reports whether the run completed with no invariant violations.
func (s *Stats) Passed() bool {
	return len(s.InvariantFailures) == 0
}
