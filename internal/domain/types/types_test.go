package types_test

import (
	"testing"

	types "github.com/okian/cuju/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProgressRecord(t *testing.T) {
	Convey("Given a ProgressRecord", t, func() {
		Convey("When populated with an incumbent", func() {
			rec := types.ProgressRecord{
				SolutionCount:  3,
				ObjectiveValue: 12.5,
				WallTime:       0.42,
				NumConflicts:   0,
				Message:        "found incumbent #3, objective=12",
			}

			Convey("Then its fields round-trip", func() {
				So(rec.SolutionCount, ShouldEqual, 3)
				So(rec.ObjectiveValue, ShouldEqual, 12.5)
				So(rec.WallTime, ShouldEqual, 0.42)
			})
		})

		Convey("When zero-valued", func() {
			rec := types.ProgressRecord{}

			Convey("Then it has the type's default values", func() {
				So(rec.SolutionCount, ShouldEqual, 0)
				So(rec.ObjectiveValue, ShouldEqual, 0.0)
				So(rec.Message, ShouldEqual, "")
			})
		})
	})
}

func TestAssignedParticipant(t *testing.T) {
	Convey("Given an AssignedParticipant", t, func() {
		Convey("When assigned to a team", func() {
			p := types.AssignedParticipant{
				ID:         "p-1",
				Attributes: map[string]any{"skill": "midfield"},
				TeamNumber: 2,
			}

			Convey("Then its identity and team survive", func() {
				So(p.ID, ShouldEqual, "p-1")
				So(p.TeamNumber, ShouldEqual, 2)
				So(p.Attributes["skill"], ShouldEqual, "midfield")
			})
		})
	})
}

func TestCompleteRecord(t *testing.T) {
	Convey("Given a CompleteRecord", t, func() {
		Convey("When it wraps a full roster and its stats", func() {
			rec := types.CompleteRecord{
				Participants: []types.AssignedParticipant{
					{ID: "a", TeamNumber: 0},
					{ID: "b", TeamNumber: 1},
				},
				Stats: types.CompleteStats{
					SolutionCount:   4,
					WallTime:        1.2,
					NumTeams:        2,
					NumParticipants: 2,
				},
			}

			Convey("Then the participant count matches the stats", func() {
				So(len(rec.Participants), ShouldEqual, rec.Stats.NumParticipants)
				So(rec.Stats.NumTeams, ShouldEqual, 2)
			})
		})
	})
}

func TestErrorRecord(t *testing.T) {
	Convey("Given an ErrorRecord", t, func() {
		Convey("When constructed from a solve failure", func() {
			err := types.ErrorRecord{Kind: "Infeasible", Message: "no assignment satisfies all cluster constraints"}

			Convey("Then it carries the kind and message", func() {
				So(err.Kind, ShouldEqual, "Infeasible")
				So(err.Message, ShouldNotBeEmpty)
			})
		})
	})
}

func TestEvaluatorRow(t *testing.T) {
	Convey("Given an EvaluatorRow", t, func() {
		Convey("When it reports a per-team, per-constraint miss", func() {
			row := types.EvaluatorRow{
				TeamIndex: 0,
				TeamSize:  5,
				Attribute: "position",
				Kind:      "diversify",
				Miss:      1,
			}

			Convey("Then its fields describe one constraint's contribution", func() {
				So(row.TeamIndex, ShouldEqual, 0)
				So(row.TeamSize, ShouldEqual, 5)
				So(row.Miss, ShouldBeGreaterThanOrEqualTo, 0)
			})
		})
	})
}
