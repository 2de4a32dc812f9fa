package checkinapi_test

import (
	"testing"
	"time"

	"github.com/okian/turnstile/pkg/checkinapi"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseScanTime(t *testing.T) {
	Convey("Given scan timestamps", t, func() {
		want := time.Date(2025, 11, 14, 9, 30, 0, 123456000, time.UTC)

		Convey("Then RFC 3339 is accepted", func() {
			got, ok := checkinapi.ParseScanTime("2025-11-14T09:30:00.123456Z")
			So(ok, ShouldBeTrue)
			So(got.Equal(want), ShouldBeTrue)
		})

		Convey("Then naive ISO timestamps are read as UTC", func() {
			got, ok := checkinapi.ParseScanTime("2025-11-14T09:30:00.123456")
			So(ok, ShouldBeTrue)
			So(got.Equal(want), ShouldBeTrue)
		})

		Convey("Then garbage and empty strings are rejected", func() {
			_, ok := checkinapi.ParseScanTime("yesterday")
			So(ok, ShouldBeFalse)
			_, ok = checkinapi.ParseScanTime("")
			So(ok, ShouldBeFalse)
		})
	})
}
