// Package evaluator implements the Team Evaluator: given a finished
// assignment, it recomputes a per-team, per-constraint "miss" score without
// invoking the solver, matching each constraint kind's cost semantics
// (§4.6).
package evaluator

import (
	"sort"

	"github.com/okian/cuju/internal/domain/constraintspec"
	"github.com/okian/cuju/internal/domain/normalize"
)

// Row is one (team, constraint) miss score.
type Row struct {
	TeamIndex int
	TeamSize  int
	Attribute string
	Kind      constraintspec.Kind
	Miss      int
}

// Evaluate computes one Row per (team, constraint) pair. assignment[i] is
// the team index of participant i, and teams is the partition derived from
// it (team index -> participant indices), so both can be reused by callers
// that already grouped participants.
func Evaluate(assignment []int, teams [][]int, spec constraintspec.Spec, set normalize.Set) []Row {
	var rows []Row
	for _, c := range spec {
		switch c.Kind {
		case constraintspec.Cluster:
			d := set.Discrete[c.Attribute]
			for t, members := range teams {
				rows = append(rows, Row{TeamIndex: t, TeamSize: len(members), Attribute: c.Attribute, Kind: c.Kind, Miss: missCluster(members, d)})
			}
		case constraintspec.ClusterNumeric:
			nrm := set.Numeric[c.Attribute]
			for t, members := range teams {
				rows = append(rows, Row{TeamIndex: t, TeamSize: len(members), Attribute: c.Attribute, Kind: c.Kind, Miss: missClusterNumeric(members, nrm)})
			}
		case constraintspec.Different:
			d := set.Discrete[c.Attribute]
			for t, members := range teams {
				rows = append(rows, Row{TeamIndex: t, TeamSize: len(members), Attribute: c.Attribute, Kind: c.Kind, Miss: missDifferent(members, d)})
			}
		case constraintspec.Diversify:
			d := set.Discrete[c.Attribute]
			n := len(assignment)
			for t, members := range teams {
				rows = append(rows, Row{TeamIndex: t, TeamSize: len(members), Attribute: c.Attribute, Kind: c.Kind, Miss: missDiversify(members, d, n)})
			}
		}
	}
	return rows
}

// TeamsFromAssignment groups participant indices by team index.
func TeamsFromAssignment(assignment []int) [][]int {
	k := 0
	for _, t := range assignment {
		if t+1 > k {
			k = t + 1
		}
	}
	teams := make([][]int, k)
	for i, t := range assignment {
		teams[t] = append(teams[t], i)
	}
	return teams
}

// missCluster: size minus the largest number of members sharing a single
// admissible value, i.e. the best value a greedy chooser could pick for
// the team.
func missCluster(members []int, d normalize.Discrete) int {
	counts := make(map[int]int)
	for _, i := range members {
		for _, v := range d.Admissible[i] {
			counts[v]++
		}
	}
	best := 0
	for _, c := range counts {
		if c > best {
			best = c
		}
	}
	return len(members) - best
}

func missClusterNumeric(members []int, nrm normalize.Numeric) int {
	if len(members) == 0 {
		return 0
	}
	min, max := nrm.Values[members[0]], nrm.Values[members[0]]
	for _, i := range members {
		v := nrm.Values[i]
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return int(max - min)
}

// missDifferent greedily resolves each member's multi-value admissible set
// to a single value, preferring values not yet claimed on the team, to
// maximize distinctness, then counts duplicates.
func missDifferent(members []int, d normalize.Discrete) int {
	claimed := make(map[int]struct{})
	distinct := 0
	for _, i := range members {
		admissible := sortedCopy(d.Admissible[i])
		chosen := -1
		for _, v := range admissible {
			if _, used := claimed[v]; !used {
				chosen = v
				break
			}
		}
		if chosen == -1 && len(admissible) > 0 {
			chosen = admissible[0]
		}
		if chosen != -1 {
			if _, used := claimed[chosen]; !used {
				distinct++
			}
			claimed[chosen] = struct{}{}
		}
	}
	return len(members) - distinct
}

// missDiversify greedily assigns each member's admissible set to the value
// that currently minimizes the running deviation from the ideal count, then
// sums only the resulting shortfalls (ideal - count, where positive):
// summing the full two-sided absolute deviation would double-count the same
// imbalance once as a shortfall and again as a surplus on another value,
// since a team's counts and ideals both sum to its size.
func missDiversify(members []int, d normalize.Discrete, n int) int {
	ideal := make([]int, len(d.Values))
	for v, pop := range d.PopCount {
		ideal[v] = roundHalfToEven(float64(len(members)) * float64(pop) / float64(n))
	}
	count := make([]int, len(d.Values))
	for _, i := range members {
		admissible := sortedCopy(d.Admissible[i])
		if len(admissible) == 0 {
			continue
		}
		best := admissible[0]
		bestGain := deviationGain(count[best], ideal[best])
		for _, v := range admissible[1:] {
			gain := deviationGain(count[v], ideal[v])
			if gain < bestGain {
				best, bestGain = v, gain
			}
		}
		count[best]++
	}
	total := 0
	for v := range d.Values {
		if shortfall := ideal[v] - count[v]; shortfall > 0 {
			total += shortfall
		}
	}
	return total
}

// deviationGain is the post-increment deviation: how far count+1 would land
// from ideal, used to greedily pick the least-damaging value.
func deviationGain(count, ideal int) int {
	return abs(count + 1 - ideal)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sortedCopy(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	sort.Ints(out)
	return out
}

func roundHalfToEven(v float64) int {
	f := v
	floor := int(f)
	diff := f - float64(floor)
	switch {
	case diff < 0.5:
		return floor
	case diff > 0.5:
		return floor + 1
	default:
		if floor%2 == 0 {
			return floor
		}
		return floor + 1
	}
}
