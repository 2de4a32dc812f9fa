package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/turnstile/internal/config"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/pkg/checkinapi"
	"github.com/okian/turnstile/pkg/logger"
)

func TestNewTerminal(t *testing.T) {
	convey.Convey("Given a configuration pointing at a stub service", t, func() {
		convey.So(logger.InitWithWriter(io.Discard), convey.ShouldBeNil)
		stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if r.URL.Path == checkinapi.PathStats {
				_, _ = w.Write([]byte(`{"present_count":4}`))
				return
			}
			_, _ = w.Write([]byte(`{"items":[]}`))
		}))
		convey.Reset(stub.Close)

		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.GatewayURL = stub.URL
		cfg.FramesDir = t.TempDir()
		cfg.InitialMode = "discrete"
		cfg.ExportDir = t.TempDir()

		screen := tcell.NewSimulationScreen("UTF-8")
		convey.So(screen.Init(), convey.ShouldBeNil)
		convey.Reset(screen.Fini)

		convey.Convey("When the terminal is wired and started", func() {
			term := newTerminal(cfg, screen)
			convey.So(term.svc.Start(ctx), convey.ShouldBeNil)
			convey.Reset(term.svc.Stop)

			convey.Convey("Then it starts in the configured mode and polls stats", func() {
				deadline := time.Now().Add(2 * time.Second)
				var snap model.Snapshot
				for time.Now().Before(deadline) {
					var err error
					snap, err = term.svc.Snapshot(ctx)
					convey.So(err, convey.ShouldBeNil)
					if snap.PresentCount == 4 {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				convey.So(snap.Mode, convey.ShouldEqual, model.ModeDiscrete)
				convey.So(snap.PresentCount, convey.ShouldEqual, 4)
			})

			convey.Convey("Then service metrics can be published", func() {
				convey.So(func() { updateServiceMetrics(term.svc) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestControlServer(t *testing.T) {
	convey.Convey("Given a configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("When the control address is empty", func() {
			cfg.ControlAddr = ""

			convey.Convey("Then no server is built", func() {
				convey.So(newControlServer(ctx, cfg, nil), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the control address is set", func() {
			srv := newControlServer(ctx, cfg, nil)

			convey.Convey("Then the server listens there with timeouts", func() {
				convey.So(srv, convey.ShouldNotBeNil)
				convey.So(srv.Addr, convey.ShouldEqual, cfg.ControlAddr)
				convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
			})
		})
	})
}

func TestOpenLog(t *testing.T) {
	convey.Convey("Given log destinations", t, func() {
		convey.Convey("When no file is configured", func() {
			w, closeFn, err := openLog("")

			convey.Convey("Then logs are discarded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w, convey.ShouldEqual, io.Discard)
				closeFn()
			})
		})

		convey.Convey("When a file is configured", func() {
			path := filepath.Join(t.TempDir(), "terminal.log")
			w, closeFn, err := openLog(path)
			convey.So(err, convey.ShouldBeNil)
			_, _ = io.WriteString(w, "hello\n")
			closeFn()

			convey.Convey("Then lines are appended to it", func() {
				data, err := os.ReadFile(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldEqual, "hello\n")
			})
		})

		convey.Convey("When the file cannot be opened", func() {
			_, _, err := openLog(filepath.Join(t.TempDir(), "missing", "terminal.log"))

			convey.Convey("Then an error is returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
