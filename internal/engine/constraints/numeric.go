package constraints

import (
	cpmodel "github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/okian/cuju/internal/domain/normalize"
	"github.com/okian/cuju/internal/engine/modelbuilder"
)

// compileClusterNumeric implements §4.2.2: per team, mn[t]/mx[t] are bounded
// against every team member directly, reified on that member's on[i,t]
// (mn[t] <= a[i] and mx[t] >= a[i] whenever i sits on team t). Minimizing
// mx[t]-mn[t] then drives mn[t] to the team's true minimum and mx[t] to its
// true maximum, since any looser bound is strictly more expensive. Cost is
// the sum, over teams, of (max - min).
func compileClusterNumeric(b *modelbuilder.Builder, nrm normalize.Numeric, weight float64) {
	cp := b.CP()
	n, k := b.NumParticipants(), b.NumTeams()

	total := cpmodel.NewLinearExpr()
	for t := 0; t < k; t++ {
		mn := cp.NewIntVar(nrm.Min, nrm.Max)
		mx := cp.NewIntVar(nrm.Min, nrm.Max)
		for i := 0; i < n; i++ {
			v := cpmodel.NewConstant(nrm.Values[i])
			cp.AddLessOrEqual(mn, v).OnlyEnforceIf(b.On(i, t))
			cp.AddGreaterOrEqual(mx, v).OnlyEnforceIf(b.On(i, t))
		}
		total = total.Add(mx).AddTerm(mn, -1)
	}
	b.AddCost(total, weight)
}
