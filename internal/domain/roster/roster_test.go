package roster_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cuju/internal/domain/engineerr"
	"github.com/okian/cuju/internal/domain/roster"
)

func TestRoster_Validate(t *testing.T) {
	Convey("Given a roster with fewer than MinParticipants", t, func() {
		r := roster.Roster{
			{ID: "1", Attributes: map[string]any{}},
			{ID: "2", Attributes: map[string]any{}},
		}

		Convey("Validate rejects it as a bad request", func() {
			err := r.Validate(0)
			So(errors.Is(err, engineerr.ErrBadRequest), ShouldBeTrue)
		})
	})

	Convey("Given a roster with a blank identifier", t, func() {
		r := roster.Roster{
			{ID: "1", Attributes: map[string]any{}},
			{ID: "  ", Attributes: map[string]any{}},
			{ID: "3", Attributes: map[string]any{}},
		}

		Convey("Validate rejects it", func() {
			err := r.Validate(0)
			So(errors.Is(err, engineerr.ErrBadRequest), ShouldBeTrue)
		})
	})

	Convey("Given a roster with a duplicate identifier", t, func() {
		r := roster.Roster{
			{ID: "1", Attributes: map[string]any{}},
			{ID: "2", Attributes: map[string]any{}},
			{ID: "1", Attributes: map[string]any{}},
		}

		Convey("Validate rejects it", func() {
			err := r.Validate(0)
			So(errors.Is(err, engineerr.ErrBadRequest), ShouldBeTrue)
		})
	})

	Convey("Given a well-formed roster of three unique participants", t, func() {
		r := roster.Roster{
			{ID: "1", Attributes: map[string]any{}},
			{ID: "2", Attributes: map[string]any{}},
			{ID: "3", Attributes: map[string]any{}},
		}

		Convey("Validate accepts it", func() {
			So(r.Validate(0), ShouldBeNil)
		})
	})
}

func TestIsList(t *testing.T) {
	Convey("An attribute name ending in _list is multi-valued", t, func() {
		So(roster.IsList("skills_list"), ShouldBeTrue)
		So(roster.IsList("gender"), ShouldBeFalse)
	})
}

func TestRawValues(t *testing.T) {
	Convey("Given a scalar attribute", t, func() {
		p := roster.Participant{ID: "1", Attributes: map[string]any{"gender": "F"}}

		Convey("RawValues returns a single-element slice", func() {
			values, ok := roster.RawValues(p, "gender")
			So(ok, ShouldBeTrue)
			So(values, ShouldResemble, []any{"F"})
		})
	})

	Convey("Given a missing attribute", t, func() {
		p := roster.Participant{ID: "1", Attributes: map[string]any{}}

		Convey("RawValues reports not-ok", func() {
			_, ok := roster.RawValues(p, "gender")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a JSON-array list attribute", t, func() {
		p := roster.Participant{ID: "1", Attributes: map[string]any{"skills_list": []any{"go", "python"}}}

		Convey("RawValues passes the slice through unchanged", func() {
			values, ok := roster.RawValues(p, "skills_list")
			So(ok, ShouldBeTrue)
			So(values, ShouldResemble, []any{"go", "python"})
		})
	})

	Convey("Given a semicolon-delimited string list attribute", t, func() {
		p := roster.Participant{ID: "1", Attributes: map[string]any{"skills_list": "go; python; ;rust"}}

		Convey("RawValues splits, trims, and drops empty parts", func() {
			values, ok := roster.RawValues(p, "skills_list")
			So(ok, ShouldBeTrue)
			So(values, ShouldResemble, []any{"go", "python", "rust"})
		})
	})
}
