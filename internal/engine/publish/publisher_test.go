package publish_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cuju/internal/engine/cpsat"
	"github.com/okian/cuju/internal/engine/publish"
)

func TestPublisher_IncumbentSlotCoalesces(t *testing.T) {
	Convey("Given a publisher that receives two incumbents before being drained", t, func() {
		p := publish.New()
		p.PublishIncumbent(cpsat.Incumbent{Index: 1, Objective: 5})
		p.PublishIncumbent(cpsat.Incumbent{Index: 2, Objective: 3})

		Convey("Drain returns only the latest incumbent", func() {
			progress, terminal, err := p.Drain()
			So(progress, ShouldNotBeNil)
			So(progress.Index, ShouldEqual, 2)
			So(progress.Objective, ShouldEqual, 3)
			So(terminal, ShouldBeNil)
			So(err, ShouldBeNil)
			So(p.Closed(), ShouldBeFalse)
		})

		Convey("a second Drain with nothing new pending returns no progress", func() {
			p.Drain()
			progress, _, _ := p.Drain()
			So(progress, ShouldBeNil)
		})
	})
}

func TestPublisher_TerminalIsGuaranteedAndClosesFurtherProgress(t *testing.T) {
	Convey("Given a publisher that reaches a terminal outcome", t, func() {
		p := publish.New()
		p.PublishIncumbent(cpsat.Incumbent{Index: 1, Objective: 5})
		p.PublishTerminal(cpsat.Outcome{Status: cpsat.StatusOptimal, Objective: 1})

		Convey("the publisher is closed and further publishes are dropped", func() {
			So(p.Closed(), ShouldBeTrue)
			p.PublishIncumbent(cpsat.Incumbent{Index: 2, Objective: 0})
			p.PublishTerminal(cpsat.Outcome{Status: cpsat.StatusFeasible})

			progress, terminal, err := p.Drain()
			So(progress, ShouldNotBeNil)
			So(progress.Index, ShouldEqual, 1)
			So(terminal, ShouldNotBeNil)
			So(terminal.Status, ShouldEqual, cpsat.StatusOptimal)
			So(err, ShouldBeNil)
		})
	})
}

func TestPublisher_PublishErrorClosesAndIsDrained(t *testing.T) {
	Convey("Given a publisher that receives an error", t, func() {
		p := publish.New()
		boom := errors.New("boom")
		p.PublishError(boom)

		Convey("the publisher is closed and Drain surfaces the error", func() {
			So(p.Closed(), ShouldBeTrue)
			_, terminal, err := p.Drain()
			So(terminal, ShouldBeNil)
			So(err, ShouldEqual, boom)
		})

		Convey("a subsequent PublishTerminal is ignored", func() {
			p.PublishTerminal(cpsat.Outcome{Status: cpsat.StatusOptimal})
			_, terminal, _ := p.Drain()
			So(terminal, ShouldBeNil)
		})
	})
}

func TestPublisher_SignalWakesOnPublish(t *testing.T) {
	Convey("Given a fresh publisher", t, func() {
		p := publish.New()

		Convey("PublishIncumbent sends on the signal channel", func() {
			p.PublishIncumbent(cpsat.Incumbent{Index: 1})
			select {
			case <-p.Signal():
			case <-time.After(time.Second):
				t.Fatal("expected a signal after PublishIncumbent")
			}
		})
	})
}
