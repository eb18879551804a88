// Package constraints implements the Constraint Compiler: one cost
// encoding per constraint kind (cluster, cluster_numeric, different,
// diversify), each adding auxiliary variables and constraints to a shared
// modelbuilder.Builder and a non-negative weighted cost term to its
// objective.
package constraints

import (
	"fmt"

	cpmodel "github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/okian/cuju/internal/domain/constraintspec"
	"github.com/okian/cuju/internal/domain/engineerr"
	"github.com/okian/cuju/internal/domain/normalize"
	"github.com/okian/cuju/internal/engine/modelbuilder"
)

// Compile walks spec in order, compiling each constraint against b using
// the attribute encodings in set, and folds every resulting cost term into
// b's objective.
func Compile(b *modelbuilder.Builder, spec constraintspec.Spec, set normalize.Set) error {
	for _, c := range spec {
		switch c.Kind {
		case constraintspec.Cluster:
			d, ok := set.Discrete[c.Attribute]
			if !ok {
				return fmt.Errorf("%w: no discrete encoding for %q", engineerr.ErrCompileError, c.Attribute)
			}
			compileCluster(b, d, c.Weight)
		case constraintspec.Different:
			d, ok := set.Discrete[c.Attribute]
			if !ok {
				return fmt.Errorf("%w: no discrete encoding for %q", engineerr.ErrCompileError, c.Attribute)
			}
			compileDifferent(b, d, c.Weight)
		case constraintspec.Diversify:
			d, ok := set.Discrete[c.Attribute]
			if !ok {
				return fmt.Errorf("%w: no discrete encoding for %q", engineerr.ErrCompileError, c.Attribute)
			}
			compileDiversify(b, d, c.Weight)
		case constraintspec.ClusterNumeric:
			n, ok := set.Numeric[c.Attribute]
			if !ok {
				return fmt.Errorf("%w: no numeric encoding for %q", engineerr.ErrCompileError, c.Attribute)
			}
			compileClusterNumeric(b, n, c.Weight)
		default:
			return fmt.Errorf("%w: unsupported constraint kind %q", engineerr.ErrCompileError, c.Kind)
		}
	}
	return nil
}

// buildChose introduces chose[i,t,v] for every participant i, team t, and
// value v admissible for i (v in d.Admissible[i]), with chose[i,t,v] <=
// on[i,t] and sum_v chose[i,t,v] == on[i,t]: on a team, a participant picks
// exactly one of its admissible values as its claim for this constraint.
// Shared by different and diversify, which both need a decision-dependent
// per-team, per-value selection; cluster does not need it (see cluster.go).
func buildChose(b *modelbuilder.Builder, d normalize.Discrete) [][]map[int]cpmodel.BoolVar {
	n, k := b.NumParticipants(), b.NumTeams()
	cp := b.CP()
	chose := make([][]map[int]cpmodel.BoolVar, n)
	for i := 0; i < n; i++ {
		chose[i] = make([]map[int]cpmodel.BoolVar, k)
		admissible := d.Admissible[i]
		for t := 0; t < k; t++ {
			row := make(map[int]cpmodel.BoolVar, len(admissible))
			terms := make([]cpmodel.LinearArgument, 0, len(admissible))
			for _, v := range admissible {
				cv := cp.NewBoolVar()
				row[v] = cv
				terms = append(terms, cv)
				cp.AddLessOrEqual(cv, b.On(i, t))
			}
			if len(terms) > 0 {
				cp.AddEquality(cpmodel.NewLinearExpr().AddSum(terms...), b.On(i, t))
			} else {
				// No admissible value at all: this participant can never
				// satisfy the constraint's claim on team t, so on[i,t]
				// must be false whenever forced through this path.
				cp.AddEquality(b.On(i, t), cpmodel.NewConstant(0))
			}
			chose[i][t] = row
		}
	}
	return chose
}
