package constraints

import (
	cpmodel "github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/okian/cuju/internal/domain/normalize"
	"github.com/okian/cuju/internal/engine/modelbuilder"
)

// compileCluster implements §4.2.1: each team picks exactly one "team
// value" for the attribute (teamChosen[t,v], ExactlyOne per team); a
// participant agrees with its team iff the chosen value lies in its
// admissible set, a fixed, compile-time-known subset of V(A) (no
// chose[i,t,v] selection variables are needed here, since a participant's
// admissible set does not depend on the assignment). Cost is the count of
// participants who land on a team whose chosen value they cannot claim.
func compileCluster(b *modelbuilder.Builder, d normalize.Discrete, weight float64) {
	cp := b.CP()
	n, k, nv := b.NumParticipants(), b.NumTeams(), len(d.Values)

	teamChosen := make([][]cpmodel.BoolVar, k)
	for t := 0; t < k; t++ {
		row := make([]cpmodel.BoolVar, nv)
		for v := 0; v < nv; v++ {
			row[v] = cp.NewBoolVar()
		}
		cp.AddExactlyOne(row...)
		teamChosen[t] = row
	}

	total := cpmodel.NewLinearExpr()
	for i := 0; i < n; i++ {
		admissible := make(map[int]struct{}, len(d.Admissible[i]))
		for _, v := range d.Admissible[i] {
			admissible[v] = struct{}{}
		}
		for t := 0; t < k; t++ {
			// agree[i,t] = on[i,t] AND (team's chosen value is admissible
			// for i), linearized via matched[i,t] = sum over i's admissible
			// values of teamChosen[t,v] (0/1, mutually exclusive values).
			matchedTerms := make([]cpmodel.LinearArgument, 0, len(admissible))
			for v := range admissible {
				matchedTerms = append(matchedTerms, teamChosen[t][v])
			}
			agree := cp.NewBoolVar()
			cp.AddLessOrEqual(agree, b.On(i, t))
			if len(matchedTerms) == 0 {
				cp.AddEquality(agree, cpmodel.NewConstant(0))
			} else {
				matched := cpmodel.NewLinearExpr().AddSum(matchedTerms...)
				cp.AddLessOrEqual(agree, matched)
				lower := cpmodel.NewLinearExpr().Add(b.On(i, t)).AddSum(matchedTerms...).AddConstant(-1)
				cp.AddGreaterOrEqual(agree, lower)
			}
			total = total.Add(b.On(i, t)).AddTerm(agree, -1)
		}
	}
	b.AddCost(total, weight)
}
