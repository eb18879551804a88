// Package modelbuilder owns the master decision variables shared by every
// constraint encoder: each participant's team index, the reified
// participant-on-team booleans, the team-size cardinality constraints, and
// the weighted-sum objective the Constraint Compiler contributes cost terms
// to.
package modelbuilder

import (
	"fmt"

	cpmodel "github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"

	"github.com/okian/cuju/internal/domain/engineerr"
)

// objectiveScale converts the input's possibly non-integer weights into
// integer coefficients for the CP-SAT objective. The factor is local to one
// solve and cancels out in relative objective comparisons (design note).
const objectiveScale = 1000

// Builder accumulates decision variables, constraints, and the objective
// for one solve. It is owned exclusively by the Search Driver for the
// lifetime of that solve; nothing about it is safe for concurrent use.
type Builder struct {
	cp *cpmodel.CpModelBuilder

	n     int
	sizes []int // per-team derived size, in no particular correspondence to team identity (any team may take either size)

	x  []cpmodel.IntVar   // x[i]: team index of participant i
	on [][]cpmodel.BoolVar // on[i][t]: reified x[i] == t

	objective *cpmodel.LinearExpr
}

// New builds the master model for n participants over teams sized per
// sizes (the output of teamsize.Calc). It wires the core invariants: each
// participant assigned to exactly one team, on[i,t] reified to x[i]==t, the
// team-size cardinality constraints, and first-fit symmetry breaking.
func New(n int, sizes []int) (*Builder, error) {
	if n <= 0 || len(sizes) == 0 {
		return nil, fmt.Errorf("%w: empty roster or team sizes", engineerr.ErrCompileError)
	}
	k := len(sizes)

	b := &Builder{
		cp:        cpmodel.NewCpModelBuilder(),
		n:         n,
		sizes:     sizes,
		x:         make([]cpmodel.IntVar, n),
		on:        make([][]cpmodel.BoolVar, n),
		objective: cpmodel.NewLinearExpr(),
	}

	for i := 0; i < n; i++ {
		b.x[i] = b.cp.NewIntVar(0, int64(k-1))
		row := make([]cpmodel.BoolVar, k)
		for t := 0; t < k; t++ {
			bv := b.cp.NewBoolVar()
			row[t] = bv
			b.cp.AddEquality(b.x[i], cpmodel.NewConstant(int64(t))).OnlyEnforceIf(bv)
			b.cp.AddNotEqual(b.x[i], cpmodel.NewConstant(int64(t))).OnlyEnforceIf(bv.Not())
		}
		b.cp.AddExactlyOne(row...)
		b.on[i] = row
	}

	if err := b.addTeamSizeConstraints(); err != nil {
		return nil, err
	}
	b.addSymmetryBreaking()

	return b, nil
}

// addTeamSizeConstraints enforces that each team's occupancy matches its
// derived size. Team indices are otherwise interchangeable (symmetry
// breaking only orders which participants open which index), so fixing
// b.sizes[t] as a compile-time constant per index costs no generality: any
// assignment reachable by instead letting each team choose freely between
// the two candidate sizes is also reachable after relabeling teams, and
// labels carry no meaning downstream (design notes). Fixing sizes up front
// also keeps the diversify encoding's per-team ideal counts (§4.2.4)
// compile-time constants instead of a nonlinear function of a decision
// variable.
func (b *Builder) addTeamSizeConstraints() error {
	for t, size := range b.sizes {
		terms := make([]cpmodel.LinearArgument, b.n)
		for i := 0; i < b.n; i++ {
			terms[i] = b.on[i][t]
		}
		occ := cpmodel.NewLinearExpr().AddSum(terms...)
		b.cp.AddEquality(occ, cpmodel.NewConstant(int64(size)))
	}
	return nil
}

// addSymmetryBreaking pins team 0 to participant 0 and forbids a
// participant from opening a team index more than one past the highest
// index opened so far (first-fit normalization), per the design notes.
func (b *Builder) addSymmetryBreaking() {
	if b.n == 0 {
		return
	}
	b.cp.AddEquality(b.x[0], cpmodel.NewConstant(0))
	if b.n == 1 {
		return
	}

	runningMax := make([]cpmodel.IntVar, b.n)
	runningMax[0] = b.x[0]
	maxTeam := int64(len(b.sizes) - 1)
	for i := 1; i < b.n; i++ {
		m := b.cp.NewIntVar(0, maxTeam)
		b.cp.AddMaxEquality(m, runningMax[i-1], b.x[i])
		runningMax[i] = m
		bound := cpmodel.NewLinearExpr().Add(runningMax[i-1]).AddConstant(1)
		b.cp.AddLessOrEqual(b.x[i], bound)
	}
}

// CP exposes the underlying builder so constraint encoders can add
// auxiliary variables and constraints that the master model does not own
// directly.
func (b *Builder) CP() *cpmodel.CpModelBuilder { return b.cp }

// NumParticipants returns N.
func (b *Builder) NumParticipants() int { return b.n }

// NumTeams returns K.
func (b *Builder) NumTeams() int { return len(b.sizes) }

// TeamSize returns the derived size of team t. Since teams are
// interchangeable under symmetry breaking, this is only meaningful as "the
// size this team index happens to carry in the solved assignment"; callers
// needing an occupancy count should sum On(i, t) instead.
func (b *Builder) TeamSize(t int) int { return b.sizes[t] }

// X returns the team-index decision variable for participant i.
func (b *Builder) X(i int) cpmodel.IntVar { return b.x[i] }

// On returns the reified x[i] == t boolean, created once per (i, t) in New.
func (b *Builder) On(i, t int) cpmodel.BoolVar { return b.on[i][t] }

// AddCost folds weight * expr into the objective. weight is scaled to an
// integer coefficient local to this solve (design note: non-integer
// weights must be scaled before forming the objective).
func (b *Builder) AddCost(expr cpmodel.LinearArgument, weight float64) {
	coeff := int64(weight * objectiveScale)
	if coeff <= 0 {
		coeff = 1
	}
	b.objective = b.objective.AddTerm(expr, coeff)
}

// Descale converts a raw CP-SAT objective value back into the caller's
// weighted-miss units by undoing the integer scaling AddCost applied.
// Callers reporting objective_value externally (progress/terminal records)
// must go through this; only the solver's internal re-solve/tighten loop
// deals in raw scaled values.
func (b *Builder) Descale(v float64) float64 {
	return v / objectiveScale
}

// Freeze finalizes the objective and emits the solver-ready proto.
func (b *Builder) Freeze() (*cmpb.CpModelProto, error) {
	b.cp.Minimize(b.objective)
	return b.cp.Model()
}
