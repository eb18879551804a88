// Package cpsat adapts the CP-SAT model built by modelbuilder/constraints
// into a sequence of incumbent solutions and a terminal outcome, honoring a
// wall-clock deadline and cooperative cancellation.
//
// The or-tools Go binding has no incumbent-streaming callback, so the driver
// re-solves the frozen model repeatedly, each time tightening the objective
// variable's domain to require a strictly better value than the last
// incumbent, so CP-SAT either finds a better solution or reports infeasible
// on the tightened model, which this package folds into "no further
// improvement" and a terminal outcome. Each individual attempt is still
// bounded on its own: solveOnce passes the remaining wall-clock budget as
// SatParameters.MaxTimeInSeconds, so a single attempt can never run past the
// deadline even though the outer loop is what actually stops the search.
package cpsat

import (
	"context"
	"errors"
	"math"
	"time"

	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	satpb "github.com/google/or-tools/ortools/sat/proto/satparameters"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/okian/cuju/internal/domain/engineerr"
	"github.com/okian/cuju/internal/engine/modelbuilder"
)

// Status is the terminal outcome of a search.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusNoSolution Status = "no_solution"
	StatusCancelled  Status = "cancelled"
)

// Incumbent is one improving solution found during search.
type Incumbent struct {
	// Index is the monotonic solution_index from spec §4.4, starting at 1.
	Index      int
	Assignment []int
	Objective  float64
	Elapsed    time.Duration
}

// Outcome is the final result of a search.
type Outcome struct {
	Status     Status
	Assignment []int
	Objective  float64
	Elapsed    time.Duration
}

// Solve runs CP-SAT against the frozen model, invoking onIncumbent for every
// strictly improving solution found before the deadline or cancellation.
// The model's variables (b.X) are reused to decode each re-solve's response.
func Solve(ctx context.Context, b *modelbuilder.Builder, deadline time.Duration, onIncumbent func(Incumbent)) (Outcome, error) {
	start := time.Now()
	proto, err := b.Freeze()
	if err != nil {
		return Outcome{}, errors.Join(engineerr.ErrCompileError, err)
	}

	deadlineAt := start.Add(deadline)
	var best *Outcome
	model := proto
	solutionIndex := 0

	for {
		select {
		case <-ctx.Done():
			if best != nil {
				r := *best
				r.Status = StatusCancelled
				return r, nil
			}
			return Outcome{Status: StatusCancelled}, nil
		default:
		}

		remaining := time.Until(deadlineAt)
		if remaining <= 0 {
			break
		}

		resp, solveErr := solveOnce(model, remaining)
		if solveErr != nil {
			if best != nil {
				return *best, nil
			}
			return Outcome{}, errors.Join(engineerr.ErrCompileError, solveErr)
		}

		switch resp.GetStatus() {
		case cmpb.CpSolverStatus_OPTIMAL, cmpb.CpSolverStatus_FEASIBLE:
			assignment := decodeAssignment(b, resp)
			raw := resp.GetObjectiveValue()
			reported := b.Descale(raw)
			solutionIndex++
			inc := Incumbent{Index: solutionIndex, Assignment: assignment, Objective: reported, Elapsed: time.Since(start)}
			if onIncumbent != nil {
				onIncumbent(inc)
			}
			status := StatusFeasible
			if resp.GetStatus() == cmpb.CpSolverStatus_OPTIMAL {
				status = StatusOptimal
			}
			best = &Outcome{Status: status, Assignment: assignment, Objective: reported, Elapsed: inc.Elapsed}
			if status == StatusOptimal {
				return *best, nil
			}
			model = tighten(proto, raw)
		case cmpb.CpSolverStatus_INFEASIBLE:
			if best != nil {
				return *best, nil
			}
			return Outcome{Status: StatusInfeasible, Elapsed: time.Since(start)}, nil
		default:
			if best != nil {
				return *best, nil
			}
			return Outcome{Status: StatusNoSolution, Elapsed: time.Since(start)}, nil
		}

		if time.Since(start) >= deadline {
			break
		}
	}

	if best != nil {
		return *best, nil
	}
	return Outcome{Status: StatusNoSolution, Elapsed: time.Since(start)}, nil
}

// solveOnce performs a single blocking CP-SAT solve, bounded by remaining so
// that no single attempt can outlive the deadline the outer loop tracks.
func solveOnce(m *cmpb.CpModelProto, remaining time.Duration) (*cmpb.CpSolverResponse, error) {
	params := &satpb.SatParameters{MaxTimeInSeconds: remaining.Seconds()}
	return cpmodel.SolveCpModelWithParameters(m, params)
}

// tighten returns a copy of the model with an added constraint requiring the
// objective to strictly improve on prevObjective, forcing the next solve to
// find a better incumbent or fail.
func tighten(base *cmpb.CpModelProto, prevObjective float64) *cmpb.CpModelProto {
	m := cloneModel(base)
	obj := m.GetObjective()
	bound := int64(prevObjective) - 1
	obj.Domain = []int64{math.MinInt64, bound}
	return m
}

// cloneModel deep-copies the relevant mutable field (objective bound) while
// sharing the rest of the frozen proto; CP-SAT treats the proto as read-only
// input per solve, so sharing variables/constraints is safe.
func cloneModel(base *cmpb.CpModelProto) *cmpb.CpModelProto {
	clone := *base
	obj := *base.GetObjective()
	clone.Objective = &obj
	return &clone
}

// decodeAssignment reads each participant's team index out of the solver
// response using the builder's IntVars.
func decodeAssignment(b *modelbuilder.Builder, resp *cmpb.CpSolverResponse) []int {
	n := b.NumParticipants()
	assignment := make([]int, n)
	for i := 0; i < n; i++ {
		assignment[i] = int(cpmodel.SolutionIntegerValue(resp, b.X(i)))
	}
	return assignment
}
