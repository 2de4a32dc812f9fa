package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/turnstile/internal/config"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		// Point .env lookups at a missing file unless a case sets one.
		_ = os.Setenv(config.EnvDotEnv, filepath.Join(t.TempDir(), "missing.env"))
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.ControlAddr, convey.ShouldEqual, "127.0.0.1:9180")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 256)
				convey.So(cfg.Mode(), convey.ShouldEqual, model.ModeCamera)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TURNSTILE_GATEWAY_URL", "http://checkin.local:8000")
			_ = os.Setenv("TURNSTILE_REENTRY_WINDOW_MS", "1500")
			_ = os.Setenv("TURNSTILE_INITIAL_MODE", "discrete")
			_ = os.Setenv("TURNSTILE_MIN_LENGTH", "10")
			_ = os.Setenv("TURNSTILE_CORS_ORIGINS", "http://a.test, http://b.test")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.GatewayURL, convey.ShouldEqual, "http://checkin.local:8000")
				convey.So(cfg.ReentryWindow(), convey.ShouldEqual, 1500*time.Millisecond)
				convey.So(cfg.Mode(), convey.ShouldEqual, model.ModeDiscrete)
				convey.So(cfg.MinLength, convey.ShouldEqual, 10)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
gateway_url: "http://yaml.local:8000"
debounce_ms: 40
frames_dir: /var/lib/turnstile/frames
cors_origins:
  - http://kiosk.local
`)
			_ = os.Setenv(config.EnvConfig, tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.GatewayURL, convey.ShouldEqual, "http://yaml.local:8000")
				convey.So(cfg.Debounce(), convey.ShouldEqual, 40*time.Millisecond)
				convey.So(cfg.FramesDir, convey.ShouldEqual, "/var/lib/turnstile/frames")
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"http://kiosk.local"})
				convey.So(cfg.ReentryWindowMS, convey.ShouldEqual, 3000)
			})

			convey.Convey("And environment variables override file values", func() {
				_ = os.Setenv("TURNSTILE_DEBOUNCE_MS", "30")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Debounce(), convey.ShouldEqual, 30*time.Millisecond)
				convey.So(cfg.GatewayURL, convey.ShouldEqual, "http://yaml.local:8000")
			})
		})

		convey.Convey("When a .env file is present", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, ".env")
			err := os.WriteFile(path, []byte("TURNSTILE_RECENT_LIMIT=9\nTURNSTILE_EXPORT_DIR=/srv/exports\n"), 0o600)
			convey.So(err, convey.ShouldBeNil)
			_ = os.Setenv(config.EnvDotEnv, path)
			_ = os.Setenv("TURNSTILE_EXPORT_DIR", "/already/set")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills unset variables only", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.RecentLimit, convey.ShouldEqual, 9)
				convey.So(cfg.ExportDir, convey.ShouldEqual, "/already/set")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv(config.EnvConfig, tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv(config.EnvConfig, "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When values are invalid", func() {
			cases := map[string]string{
				"TURNSTILE_GATEWAY_URL":       "",
				"TURNSTILE_REENTRY_WINDOW_MS": "0",
				"TURNSTILE_INITIAL_MODE":      "nfc",
				"TURNSTILE_QUEUE_SIZE":        "-1",
			}
			for key, value := range cases {
				_ = os.Setenv(key, value)
				cfg, err := config.Load(ctx)
				_ = os.Unsetenv(key)

				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			}
		})
	})
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "turnstile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, config.EnvPrefix) {
			_ = os.Unsetenv(key)
		}
	}
}
