package playback_test

import (
	"testing"
	"time"

	"github.com/okian/vitalrace/internal/domain/playback"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClock(t *testing.T) {
	Convey("Given a new 10s clock", t, func() {
		c := playback.NewClock(10 * time.Second)

		Convey("Then it should start stopped at zero", func() {
			So(c.State(), ShouldEqual, playback.Stopped)
			So(c.State().String(), ShouldEqual, "stopped")
			So(c.Progress(), ShouldEqual, 0)
		})

		Convey("When advanced while stopped", func() {
			p, ok := c.Advance(time.Second)

			Convey("Then it should not move", func() {
				So(ok, ShouldBeFalse)
				So(p, ShouldEqual, 0)
			})
		})

		Convey("When playing", func() {
			c.Play()
			p, ok := c.Advance(4 * time.Second)

			Convey("Then progress should be elapsed over duration", func() {
				So(ok, ShouldBeTrue)
				So(p, ShouldEqual, 0.4)
				So(c.State(), ShouldEqual, playback.Playing)
			})

			Convey("And a zero delta should not re-deliver progress", func() {
				_, ok := c.Advance(0)
				So(ok, ShouldBeFalse)
			})

			Convey("And pausing should freeze progress", func() {
				c.Pause()
				_, ok := c.Advance(3 * time.Second)
				So(ok, ShouldBeFalse)
				So(c.Progress(), ShouldEqual, 0.4)
				So(c.State().String(), ShouldEqual, "paused")

				Convey("And resuming should continue exactly where it paused", func() {
					c.Play()
					So(c.Progress(), ShouldEqual, 0.4)
					p, ok := c.Advance(time.Second)
					So(ok, ShouldBeTrue)
					So(p, ShouldEqual, 0.5)
				})
			})

			Convey("And reaching the end should deliver 1 then loop", func() {
				p, ok := c.Advance(20 * time.Second)
				So(ok, ShouldBeTrue)
				So(p, ShouldEqual, 1)
				So(c.Loops(), ShouldEqual, 0)

				p, ok = c.Advance(time.Second)
				So(ok, ShouldBeTrue)
				So(p, ShouldEqual, 0.1)
				So(c.Loops(), ShouldEqual, 1)
			})

			Convey("And stopping should reset everything", func() {
				c.Advance(20 * time.Second)
				c.Advance(time.Second)
				c.Stop()
				So(c.State(), ShouldEqual, playback.Stopped)
				So(c.Progress(), ShouldEqual, 0)
				So(c.Loops(), ShouldEqual, 0)

				c.Play()
				So(c.Progress(), ShouldEqual, 0)
			})
		})

		Convey("When seeking", func() {
			c.Seek(0.75)

			Convey("Then progress should move without a state change", func() {
				So(c.Progress(), ShouldEqual, 0.75)
				So(c.State(), ShouldEqual, playback.Stopped)
			})

			Convey("And seeking past the end should clamp to one", func() {
				c.Seek(3)
				So(c.Progress(), ShouldEqual, 1)
				c.Play()
				So(c.Progress(), ShouldEqual, 0)
			})
		})

		Convey("When the duration changes mid-play", func() {
			c.Play()
			c.Advance(5 * time.Second)
			c.SetDuration(20 * time.Second)

			Convey("Then progress should be preserved", func() {
				So(c.Progress(), ShouldEqual, 0.5)
				So(c.Duration(), ShouldEqual, 20*time.Second)
				p, _ := c.Advance(2 * time.Second)
				So(p, ShouldEqual, 0.6)
			})
		})
	})

	Convey("Given a clock with a non-positive duration", t, func() {
		c := playback.NewClock(0)

		Convey("Then it should use the default duration", func() {
			So(c.Duration(), ShouldEqual, playback.DefaultDuration)
		})
	})
}
