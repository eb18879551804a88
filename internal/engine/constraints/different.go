package constraints

import (
	cpmodel "github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/okian/cuju/internal/domain/normalize"
	"github.com/okian/cuju/internal/engine/modelbuilder"
)

// compileDifferent implements §4.2.3: on each team, count how many
// distinct admissible values are actually claimed (team_has[t,v], reified
// OR over the participants who could claim v on that team). Cost is the
// number of "duplicate" participants: team size minus distinct values
// claimed.
func compileDifferent(b *modelbuilder.Builder, d normalize.Discrete, weight float64) {
	cp := b.CP()
	k, nv := b.NumTeams(), len(d.Values)
	chose := buildChose(b, d)

	holders := make([][][]cpmodel.BoolVar, k)
	for t := 0; t < k; t++ {
		holders[t] = make([][]cpmodel.BoolVar, nv)
	}
	for i := range chose {
		for t, row := range chose[i] {
			for v, cv := range row {
				holders[t][v] = append(holders[t][v], cv)
			}
		}
	}

	total := cpmodel.NewLinearExpr()
	for t := 0; t < k; t++ {
		distinct := cpmodel.NewLinearExpr()
		for v := 0; v < nv; v++ {
			claimants := holders[t][v]
			if len(claimants) == 0 {
				continue
			}
			teamHas := cp.NewBoolVar()
			claimLits := make([]cpmodel.BoolVar, len(claimants))
			copy(claimLits, claimants)
			cp.AddBoolOr(claimLits...).OnlyEnforceIf(teamHas)
			negated := make([]cpmodel.BoolVar, len(claimants))
			for idx, c := range claimants {
				negated[idx] = c.Not()
			}
			cp.AddBoolAnd(negated...).OnlyEnforceIf(teamHas.Not())
			distinct = distinct.Add(teamHas)
		}
		total = total.AddConstant(int64(b.TeamSize(t))).AddTerm(distinct, -1)
	}
	b.AddCost(total, weight)
}
