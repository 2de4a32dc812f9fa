package model_test

import (
	"testing"
	"time"

	model "github.com/okian/turnstile/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestCandidateNormalized(t *testing.T) {
	convey.Convey("Given candidates with surrounding whitespace", t, func() {
		now := time.Now()

		convey.Convey("When the text has content", func() {
			c, ok := model.Candidate{Text: "  87189:1700489\n", Source: model.SourceCamera, ObservedAt: now}.Normalized()

			convey.Convey("Then it is trimmed and kept", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(c.Text, convey.ShouldEqual, "87189:1700489")
				convey.So(c.Source, convey.ShouldEqual, model.SourceCamera)
				convey.So(c.ObservedAt, convey.ShouldEqual, now)
			})
		})

		convey.Convey("When the text is empty or whitespace only", func() {
			_, okEmpty := model.Candidate{Text: ""}.Normalized()
			_, okSpace := model.Candidate{Text: " \t\r\n"}.Normalized()

			convey.Convey("Then it is not a candidate", func() {
				convey.So(okEmpty, convey.ShouldBeFalse)
				convey.So(okSpace, convey.ShouldBeFalse)
			})
		})
	})
}

func TestParseMode(t *testing.T) {
	convey.Convey("Given mode names", t, func() {
		convey.Convey("Then known names parse", func() {
			m, err := model.ParseMode("Camera")
			convey.So(err, convey.ShouldBeNil)
			convey.So(m, convey.ShouldEqual, model.ModeCamera)

			for _, name := range []string{"discrete", "keyboard", " SCANNER "} {
				m, err = model.ParseMode(name)
				convey.So(err, convey.ShouldBeNil)
				convey.So(m, convey.ShouldEqual, model.ModeDiscrete)
			}
		})

		convey.Convey("Then unknown names fail", func() {
			_, err := model.ParseMode("nfc")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestStringers(t *testing.T) {
	convey.Convey("Given the enumerations", t, func() {
		convey.So(model.ModeDiscrete.String(), convey.ShouldEqual, "discrete")
		convey.So(model.SourceManual.String(), convey.ShouldEqual, "manual")
		convey.So(model.StatusAlreadyCheckedIn.String(), convey.ShouldEqual, "already_checked_in")
		convey.So(model.StateShowingResult.String(), convey.ShouldEqual, "showing_result")
		convey.So(model.EventNextDevice.String(), convey.ShouldEqual, "next_device")
		convey.So(model.EventStats.String(), convey.ShouldEqual, "stats")
		convey.So(model.Status(42).String(), convey.ShouldEqual, "unknown")
	})
}
