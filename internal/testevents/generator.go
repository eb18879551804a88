package testevents

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"

	service "github.com/okian/cuju/internal/app"
	"github.com/okian/cuju/pkg/logger"
)

// randIndex returns a uniform random index in [0, n) using crypto/rand,
// matching the original generator's avoidance of math/rand.
func randIndex(n int) int {
	if n <= 0 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// GenerateParticipants builds n synthetic participants with the gender,
// job_function, and years attributes exercised by DefaultConstraints,
// generated concurrently across workers the way the original event
// generator spread event generation across a worker pool.
func GenerateParticipants(ctx context.Context, n, workers int) ([]map[string]any, error) {
	if workers <= 0 || workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	logger.Get().Info(ctx, "generating roster", logger.Int("participants", n), logger.Int("workers", workers))

	participants := make([]map[string]any, n)
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.New().String()
	}

	type genResult struct {
		index       int
		participant map[string]any
		err         error
	}
	resultChan := make(chan genResult, n)

	perWorker := n / workers
	for w := 0; w < workers; w++ {
		start := w * perWorker
		end := start + perWorker
		if w == workers-1 {
			end = n
		}
		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- genResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- genResult{index: i, participant: generateParticipant(ids[i])}
				}
			}
		}(start, end)
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during roster generation: %w", ctx.Err())
		case res := <-resultChan:
			if res.err != nil {
				return nil, fmt.Errorf("failed to generate participant %d: %w", res.index, res.err)
			}
			participants[res.index] = res.participant
		}
	}

	logger.Get().Info(ctx, "roster generated", logger.Int("count", len(participants)))
	return participants, nil
}

// generateParticipant builds one participant's attribute map.
func generateParticipant(id string) map[string]any {
	years := yearsMin + randIndex(yearsRange)
	return map[string]any{
		"id":           id,
		"gender":       genderValues[randIndex(len(genderValues))],
		"job_function": jobFunctionValues[randIndex(len(jobFunctionValues))],
		"years":        strconv.Itoa(years),
	}
}

// DefaultConstraints returns the constraint set exercised by a generated
// roster: a diversify on the binary attribute, a cluster on the discrete
// role attribute, and a cluster_numeric on the numeric attribute.
func DefaultConstraints() []service.ConstraintRequest {
	return []service.ConstraintRequest{
		{Attribute: "gender", Type: "diversify", Weight: 1},
		{Attribute: "job_function", Type: "cluster", Weight: 1},
		{Attribute: "years", Type: "cluster_numeric", Weight: 1},
	}
}
