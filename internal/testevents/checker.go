package testevents

import (
	"fmt"
	"math"
	"sort"

	service "github.com/okian/cuju/internal/app"
	"github.com/okian/cuju/internal/domain/constraintspec"
	"github.com/okian/cuju/internal/domain/evaluator"
	"github.com/okian/cuju/internal/domain/normalize"
	"github.com/okian/cuju/internal/domain/roster"
	"github.com/okian/cuju/internal/domain/teamsize"
	"github.com/okian/cuju/internal/domain/types"
)

// objectiveTolerance absorbs the float64 rounding a wire round-trip can
// introduce; the evaluator's own arithmetic is integral.
const objectiveTolerance = 1e-6

// CheckInvariants re-derives the testable properties from a finished solve
// (invariants 1 through 4 of the engine's contract) given the constraint
// set the request was solved with, the request's team-size parameters, the
// solution_count sequence observed across progress records, and the last
// reported objective_value. The weighted miss sum is compared against
// objective_value whenever at least one progress record was observed,
// whatever the terminal outcome (Optimal, Feasible, or a cancellation with
// an incumbent), since
// objective_value is by construction that incumbent's weighted miss sum.
// It returns one message per violated invariant; a nil/empty result means
// the run is consistent with the contract.
func CheckInvariants(
	complete *types.CompleteRecord,
	constraints []service.ConstraintRequest,
	targetTeamSize int,
	lessThanTarget bool,
	solutionCounts []int,
	lastObjective float64,
) []string {
	var problems []string

	if complete == nil {
		return []string{"no complete record was received"}
	}

	n := len(complete.Participants)
	r := make(roster.Roster, n)
	assignment := make([]int, n)
	for i, ap := range complete.Participants {
		r[i] = roster.Participant{ID: ap.ID, Attributes: ap.Attributes}
		assignment[i] = ap.TeamNumber
	}

	problems = append(problems, checkTeamSizes(assignment, n, targetTeamSize, lessThanTarget)...)
	problems = append(problems, checkSolutionCountsIncreasing(solutionCounts)...)

	spec := toConstraintSpec(constraints)
	set, err := normalize.Build(r, spec)
	if err != nil {
		return append(problems, fmt.Sprintf("re-normalization failed: %v", err))
	}
	teams := evaluator.TeamsFromAssignment(assignment)
	rows := evaluator.Evaluate(assignment, teams, spec, set)
	problems = append(problems, checkMissScores(rows, spec, lastObjective, len(solutionCounts) > 0)...)

	return problems
}

func toConstraintSpec(constraints []service.ConstraintRequest) constraintspec.Spec {
	spec := make(constraintspec.Spec, len(constraints))
	for i, c := range constraints {
		spec[i] = constraintspec.Constraint{Attribute: c.Attribute, Kind: constraintspec.Kind(c.Type), Weight: c.Weight}
	}
	return spec
}

// checkTeamSizes verifies invariants 1 and 4: every participant lands on
// exactly one team (implied by TeamsFromAssignment's grouping), and the
// resulting size multiset matches teamsize.Calc's derivation.
func checkTeamSizes(assignment []int, n, targetTeamSize int, lessThanTarget bool) []string {
	wantSizes, err := teamsize.Calc(n, targetTeamSize, lessThanTarget)
	if err != nil {
		return []string{fmt.Sprintf("team size derivation failed for N=%d target=%d shrink=%v: %v", n, targetTeamSize, lessThanTarget, err)}
	}

	teams := evaluator.TeamsFromAssignment(assignment)
	if len(teams) != len(wantSizes) {
		return []string{fmt.Sprintf("solve produced %d teams, derivation expects %d", len(teams), len(wantSizes))}
	}

	got := make([]int, len(teams))
	for i, members := range teams {
		got[i] = len(members)
		if len(members) == 0 {
			return []string{fmt.Sprintf("team %d is empty", i)}
		}
	}
	sort.Ints(got)
	want := append([]int(nil), wantSizes...)
	sort.Ints(want)

	for i := range got {
		if got[i] != want[i] {
			return []string{fmt.Sprintf("team size multiset %v does not match derived multiset %v", got, want)}
		}
	}
	return nil
}

// checkSolutionCountsIncreasing verifies invariant 3.
func checkSolutionCountsIncreasing(counts []int) []string {
	for i := 1; i < len(counts); i++ {
		if counts[i] <= counts[i-1] {
			return []string{fmt.Sprintf("solution_count did not strictly increase: %v", counts)}
		}
	}
	return nil
}

// checkMissScores verifies invariant 2: every miss is non-negative, and,
// when an objective was actually reported, the weighted sum equals it.
func checkMissScores(rows []evaluator.Row, spec constraintspec.Spec, lastObjective float64, haveObjective bool) []string {
	var problems []string

	weight := make(map[string]float64, len(spec))
	for _, c := range spec {
		weight[string(c.Kind)+"/"+c.Attribute] = c.Weight
	}

	sum := 0.0
	for _, row := range rows {
		if row.Miss < 0 {
			problems = append(problems, fmt.Sprintf("negative miss %d for %s on %s team %d", row.Miss, row.Kind, row.Attribute, row.TeamIndex))
		}
		sum += weight[string(row.Kind)+"/"+row.Attribute] * float64(row.Miss)
	}

	if haveObjective && math.Abs(sum-lastObjective) > objectiveTolerance {
		problems = append(problems, fmt.Sprintf("evaluator objective %.6f does not match reported objective_value %.6f", sum, lastObjective))
	}
	return problems
}
