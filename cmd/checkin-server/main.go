// Command checkin-server is the reference check-in service: registrations,
// attendance and the scan API the terminal talks to.
//
//	checkin-server serve
//	checkin-server import registrations.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/turnstile/internal/checkin"
	"github.com/okian/turnstile/internal/config"
	"github.com/okian/turnstile/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("checkin-server", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address (overrides server_addr)")
	dbPath := fs.String("db", "", "database path (overrides db_path)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if *addr != "" {
		cfg.ServerAddr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	cmd, rest := "serve", fs.Args()
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}

	store, err := checkin.OpenStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch cmd {
	case "serve":
		svc := checkin.NewService(store, checkin.WithTicketPrefix(cfg.TicketPrefix))
		return serve(ctx, cfg, svc)
	case "import":
		if len(rest) != 1 {
			return errors.New("usage: checkin-server import <registrations.csv>")
		}
		return importFile(ctx, store, rest[0], stdout)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func serve(ctx context.Context, cfg *config.Config, svc *checkin.Service) error {
	l := logger.Get()
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           checkin.NewRouter(svc, cfg.CORSOrigins),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info(ctx, "starting HTTP server", logger.String("addr", cfg.ServerAddr), logger.String("db", cfg.DBPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	l.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	l.Info(ctx, "server stopped")
	return nil
}

func importFile(ctx context.Context, store *checkin.Store, path string, stdout io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open registrations: %w", err)
	}
	defer f.Close()

	res, err := checkin.Import(ctx, store, f)
	if err != nil {
		return err
	}
	total, err := store.CountRegistrations(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Imported %d registrations (%d skipped); %d on file.\n", res.Inserted, res.Skipped, total)
	return err
}
