package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/turnstile/internal/config"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.GatewayURL, convey.ShouldEqual, "http://localhost:8000")
			convey.So(cfg.ReentryWindow(), convey.ShouldEqual, 3*time.Second)
			convey.So(cfg.MinLength, convey.ShouldEqual, 14)
			convey.So(cfg.Debounce(), convey.ShouldEqual, 25*time.Millisecond)
			convey.So(cfg.StatsInterval(), convey.ShouldEqual, 8*time.Second)
			convey.So(cfg.GatewayTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.TicketPrefix, convey.ShouldEqual, "GOOGA26")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.Mode(), convey.ShouldEqual, model.ModeCamera)
		})
	})
}
