package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	service "github.com/okian/cuju/internal/app"
	"github.com/okian/cuju/internal/domain/types"
	"github.com/okian/cuju/pkg/logger"
)

const directoryPermission = 0o750

// Run drives one generate-solve-verify cycle against a running engine:
// health check, roster generation, a single /solve round trip, invariant
// checking against the resulting record stream, and a final report.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting engine test run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("participants", cfg.NumParticipants),
		logger.Int("targetTeamSize", cfg.TargetTeamSize),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()))

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return fmt.Errorf("engine health check failed: %w", err)
	}

	participants, err := GenerateParticipants(ctx, cfg.NumParticipants, cfg.Workers)
	if err != nil {
		return fmt.Errorf("roster generation failed: %w", err)
	}
	stats.ParticipantsGenerated = len(participants)

	constraints := DefaultConstraints()
	req := service.Request{
		Participants:   participants,
		Constraints:    constraints,
		TargetTeamSize: cfg.TargetTeamSize,
		LessThanTarget: cfg.LessThanTarget,
		MaxTimeSeconds: cfg.MaxTimeSeconds,
	}

	var (
		complete      *types.CompleteRecord
		lastObjective float64
		solveErr      *types.ErrorRecord
	)
	onRecord := func(rec wireRecord) {
		switch rec.Type {
		case "progress":
			if rec.Progress != nil {
				stats.ProgressRecords++
				stats.SolutionCounts = append(stats.SolutionCounts, rec.Progress.SolutionCount)
				lastObjective = rec.Progress.ObjectiveValue
			}
		case "complete":
			complete = rec.Complete
		case "error":
			solveErr = rec.Error
		}
	}

	if err := streamSolve(ctx, cfg, req, onRecord); err != nil {
		return fmt.Errorf("solve request failed: %w", err)
	}

	if solveErr != nil {
		return fmt.Errorf("engine returned a terminal error: %s: %s", solveErr.Kind, solveErr.Message)
	}
	if complete == nil {
		return fmt.Errorf("solve stream closed without a complete record")
	}
	stats.FinalTeamCount = complete.Stats.NumTeams

	stats.InvariantFailures = CheckInvariants(complete, constraints, cfg.TargetTeamSize, cfg.LessThanTarget, stats.SolutionCounts, lastObjective)

	if err := saveRosterToFile(ctx, cfg, participants); err != nil {
		logger.Get().Warn(ctx, "failed to save roster to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if !stats.Passed() {
		return fmt.Errorf("invariant check failed: %v", stats.InvariantFailures)
	}
	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// saveRosterToFile persists the generated roster for reproducing a run.
func saveRosterToFile(ctx context.Context, cfg *Config, participants []map[string]any) error {
	filename := cfg.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_roster_" + timestamp + ".json"
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(participants, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal roster: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write roster file: %w", err)
	}

	logger.Get().Info(ctx, "roster saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the run's summary.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("participantsGenerated", stats.ParticipantsGenerated),
		logger.Int("progressRecords", stats.ProgressRecords),
		logger.Int("finalTeamCount", stats.FinalTeamCount),
		logger.Int("invariantFailures", len(stats.InvariantFailures)),
		logger.String("duration", stats.Duration.String()))
}
