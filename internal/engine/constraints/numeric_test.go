package constraints

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cuju/internal/domain/normalize"
	"github.com/okian/cuju/internal/engine/cpsat"
	"github.com/okian/cuju/internal/engine/modelbuilder"
)

func TestCompileClusterNumeric_MinimizesTotalRange(t *testing.T) {
	Convey("Given nine years split into three well-separated clusters", t, func() {
		values := []int64{1, 2, 3, 10, 11, 12, 20, 21, 22}
		nrm := normalize.Numeric{Attribute: "years", Values: values, Min: 1, Max: 22}

		b, err := modelbuilder.New(len(values), []int{3, 3, 3})
		So(err, ShouldBeNil)
		compileClusterNumeric(b, nrm, 1)

		Convey("the solved objective is the minimal total range, not its negation", func() {
			outcome, err := cpsat.Solve(context.Background(), b, 10*time.Second, nil)
			So(err, ShouldBeNil)
			So(outcome.Status, ShouldEqual, cpsat.StatusOptimal)
			So(outcome.Objective, ShouldEqual, 6)

			Convey("and every team is confined to its own decade", func() {
				spans := make(map[int][2]int64)
				for i, team := range outcome.Assignment {
					v := values[i]
					s, seen := spans[team]
					if !seen {
						spans[team] = [2]int64{v, v}
						continue
					}
					if v < s[0] {
						s[0] = v
					}
					if v > s[1] {
						s[1] = v
					}
					spans[team] = s
				}
				for _, s := range spans {
					So(s[1]-s[0], ShouldBeLessThanOrEqualTo, 2)
				}
			})
		})
	})
}

func TestCompileClusterNumeric_CostNeverNegative(t *testing.T) {
	Convey("Given a single team whose members all share the same value", t, func() {
		values := []int64{5, 5, 5}
		nrm := normalize.Numeric{Attribute: "years", Values: values, Min: 5, Max: 5}

		b, err := modelbuilder.New(len(values), []int{3})
		So(err, ShouldBeNil)
		compileClusterNumeric(b, nrm, 1)

		Convey("the objective is exactly zero", func() {
			outcome, err := cpsat.Solve(context.Background(), b, 5*time.Second, nil)
			So(err, ShouldBeNil)
			So(outcome.Objective, ShouldEqual, 0)
		})
	})
}
