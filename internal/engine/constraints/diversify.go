package constraints

import (
	"math"

	cpmodel "github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/okian/cuju/internal/domain/normalize"
	"github.com/okian/cuju/internal/engine/modelbuilder"
)

// compileDiversify implements §4.2.4: for each team and value, an ideal
// count derived from the population proportion (round half to even, a
// compile-time constant since team sizes are fixed per index), and a
// shortfall auxiliary bounded below by (ideal - count). Summing shortfalls
// only, rather than the two-sided absolute deviation, avoids double-counting
// the same imbalance once as a shortfall on the under-represented value and
// again as a surplus on the over-represented one (design note §9; matches
// the original implementation's diversity cost, which drops one category
// from its sum for the same reason).
func compileDiversify(b *modelbuilder.Builder, d normalize.Discrete, weight float64) {
	cp := b.CP()
	k, nv := b.NumTeams(), len(d.Values)
	n := b.NumParticipants()
	chose := buildChose(b, d)

	claimants := make([][][]cpmodel.BoolVar, k)
	for t := 0; t < k; t++ {
		claimants[t] = make([][]cpmodel.BoolVar, nv)
	}
	for i := range chose {
		for t, row := range chose[i] {
			for v, cv := range row {
				claimants[t][v] = append(claimants[t][v], cv)
			}
		}
	}

	total := cpmodel.NewLinearExpr()
	for t := 0; t < k; t++ {
		size := b.TeamSize(t)
		for v := 0; v < nv; v++ {
			ideal := roundHalfToEven(float64(size) * float64(d.PopCount[v]) / float64(n))

			var count *cpmodel.LinearExpr
			terms := claimants[t][v]
			if len(terms) == 0 {
				count = cpmodel.NewLinearExpr()
			} else {
				args := make([]cpmodel.LinearArgument, len(terms))
				for idx, c := range terms {
					args[idx] = c
				}
				count = cpmodel.NewLinearExpr().AddSum(args...)
			}

			dev := cp.NewIntVar(0, int64(size))
			// dev >= ideal - count; dev's own lower bound of 0 covers the
			// case where count already meets or exceeds ideal.
			cp.AddGreaterOrEqual(dev, cpmodel.NewLinearExpr().AddConstant(ideal).AddTerm(count, -1))
			total = total.Add(dev)
		}
	}
	b.AddCost(total, weight)
}

func roundHalfToEven(v float64) int64 {
	return int64(math.RoundToEven(v))
}
