package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/okian/turnstile/internal/adapters/gateway"
	"github.com/okian/turnstile/internal/adapters/http/api"
	"github.com/okian/turnstile/internal/adapters/http/swagger"
	"github.com/okian/turnstile/internal/adapters/input/camera"
	"github.com/okian/turnstile/internal/adapters/input/discrete"
	"github.com/okian/turnstile/internal/adapters/ui/tui"
	service "github.com/okian/turnstile/internal/app"
	"github.com/okian/turnstile/internal/config"
	"github.com/okian/turnstile/pkg/logger"
	"github.com/okian/turnstile/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 5 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The screen belongs to the UI, so logs go to a file.
	logOut, closeLog, err := openLog(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	if err := logger.InitWithWriter(logOut); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	loggerInstance := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	t := newTerminal(cfg, screen)
	if err := t.svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start terminal: %w", err)
	}
	defer t.svc.Stop()

	go startServiceMetricsUpdater(ctx, t.svc)

	if srv := newControlServer(ctx, cfg, t.svc); srv != nil {
		go func() {
			loggerInstance.Info(ctx, "starting control API", logger.String("addr", cfg.ControlAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				loggerInstance.Error(ctx, "control API failed", logger.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				loggerInstance.Error(ctx, "control API shutdown failed", logger.Error(err))
			}
		}()
	}

	err = t.ui.Run(ctx)
	loggerInstance.Info(ctx, "terminal stopped")
	return err
}

// terminal is the wired engine with its display.
type terminal struct {
	svc      *service.Service
	ui       *tui.UI
	discrete *discrete.Channel
}

func newTerminal(cfg *config.Config, screen tcell.Screen) *terminal {
	t := &terminal{}

	gw := gateway.New(cfg.GatewayURL, gateway.WithTimeout(cfg.GatewayTimeout()))
	cam := camera.New(
		camera.WithFramesDir(cfg.FramesDir),
		camera.WithDevice(cfg.CameraDevice),
	)
	t.discrete = discrete.New(
		discrete.WithMinLength(cfg.MinLength),
		discrete.WithDebounce(cfg.Debounce()),
		discrete.WithOnChange(func() {
			if t.ui != nil {
				t.ui.Refresh()
			}
		}),
	)

	opts := []service.Option{
		service.WithInitialMode(cfg.Mode()),
		service.WithQueueSize(cfg.QueueSize),
		service.WithReentryWindow(cfg.ReentryWindow()),
		service.WithStatsInterval(cfg.StatsInterval()),
		service.WithRecentLimit(cfg.RecentLimit),
		service.WithExportDir(cfg.ExportDir),
	}
	// The UI needs the service for its commands and the service renders
	// through the UI, so the renderer option is applied once both exist.
	t.svc = service.New(gw, cam, t.discrete, opts...)
	t.ui = tui.New(screen, t.svc, t.discrete, tui.WithTitle("Check-in"))
	service.WithRenderer(t.ui)(t.svc)
	return t
}

// newControlServer returns nil when the control API is disabled.
func newControlServer(ctx context.Context, cfg *config.Config, svc *service.Service) *http.Server {
	if cfg.ControlAddr == "" {
		return nil
	}
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)
	return &http.Server{
		Addr:              cfg.ControlAddr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func openLog(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// startServiceMetricsUpdater publishes inbox depth until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if queueSize, ok := stats["queueSize"].(int); ok {
		metrics.UpdateQueueCapacity(queueSize)
	}
}
