// Package teamsize derives the number of teams and the per-team size
// multiset from a roster size and a target team size, per the team model
// in the specification. The derivation is grounded in the original
// implementation's calc_team_sizes, with one ambiguity resolved explicitly
// (see the package doc on Calc and DESIGN.md).
package teamsize

import (
	"fmt"

	"github.com/okian/cuju/internal/domain/engineerr"
)

// MinTarget is the smallest accepted target_team_size (spec: T >= 3; T <= 2
// is rejected upstream as BadRequest, but Calc defends against it too).
const MinTarget = 3

// Calc returns the per-team size for each of the derived K teams.
//
// Rules (spec section 3):
//   - If n is evenly divisible by target, K = n/target and every team has
//     size target.
//   - Otherwise, with shrink == false, teams are sized from {target,
//     target+1}, K = floor(n/target), and the n%K "extra" members each add
//     one seat to a team (floor-based, classic near-equal distribution).
//   - Otherwise (shrink == true), teams are sized from {target-1, target},
//     K = ceil(n/target), and n%K members add one seat back, bringing that
//     many teams up to target.
//
// Resolved ambiguity: when the non-divisible branch's remainder happens to
// be zero, every team would collapse onto the single off-target size
// (target+1 for the grow branch, target-1 for the shrink branch) and no
// team would actually reach the requested target size. For K >= 2 that
// degenerate outcome is treated as unsolvable rather than silently
// accepted, matching the specification's literal T=3, shrink=true, N=4
// scenario (two teams of size 2, never reaching target 3). A single
// resulting team (K == 1) is never considered degenerate: a lone team
// necessarily takes on whatever size the roster has.
func Calc(n, target int, shrink bool) ([]int, error) {
	if target < MinTarget {
		return nil, fmt.Errorf("%w: target_team_size must be >= %d, got %d", engineerr.ErrBadRequest, MinTarget, target)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: roster size must be positive, got %d", engineerr.ErrBadRequest, n)
	}

	if n%target == 0 {
		k := n / target
		sizes := make([]int, k)
		for i := range sizes {
			sizes[i] = target
		}
		return sizes, nil
	}

	var k int
	if shrink {
		k = ceilDiv(n, target)
	} else {
		k = n / target
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: roster of %d cannot form any team of target size %d", engineerr.ErrUnsolvableSize, n, target)
	}

	base := n / k
	extra := n % k
	if k >= 2 && extra == 0 {
		return nil, fmt.Errorf("%w: target %d with shrink=%v over %d participants collapses to a single off-target size", engineerr.ErrUnsolvableSize, target, shrink, n)
	}

	sizes := make([]int, k)
	for i := range sizes {
		if i < extra {
			sizes[i] = base + 1
		} else {
			sizes[i] = base
		}
	}

	for _, s := range sizes {
		if s < 2 {
			return nil, fmt.Errorf("%w: derived team size %d is below the minimum of 2", engineerr.ErrUnsolvableSize, s)
		}
		if shrink && s != target && s != target-1 {
			return nil, fmt.Errorf("%w: derived size %d outside {%d,%d}", engineerr.ErrUnsolvableSize, s, target-1, target)
		}
		if !shrink && s != target && s != target+1 {
			return nil, fmt.Errorf("%w: derived size %d outside {%d,%d}", engineerr.ErrUnsolvableSize, s, target, target+1)
		}
	}
	return sizes, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
