// Package service runs the check-in terminal engine: a single loop that owns
// the dedup gate, the presentation machine and the mode controller, fed by an
// inbox that every input channel, outcome and operator command goes through.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/okian/turnstile/internal/adapters/mq/queue"
	"github.com/okian/turnstile/internal/adapters/mq/worker"
	"github.com/okian/turnstile/internal/domain/dedupe"
	"github.com/okian/turnstile/internal/domain/mode"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/internal/domain/presentation"
	"github.com/okian/turnstile/pkg/logger"
)

const (
	defaultQueueSize     = 256
	defaultStatsInterval = 8 * time.Second
	defaultRecentLimit   = 5
	dispatchCapacity     = 4
	shutdownTimeout      = 5 * time.Second
	resolveTimeout       = 30 * time.Second
)

// Gateway resolves candidates and reads attendance from the check-in service.
type Gateway interface {
	worker.Resolver
	Stats(ctx context.Context) (model.Stats, error)
	Recent(ctx context.Context, limit int) ([]model.CheckIn, error)
	Export(ctx context.Context, w io.Writer) (int64, error)
}

// Service is the check-in terminal.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	gateway  Gateway
	camera   mode.Channel
	discrete mode.Channel
	renderer Renderer

	// Core components, owned by the loop once started
	inbox     *queue.InMemoryQueue
	dispatch  *queue.InMemoryQueue
	submitter *worker.InMemoryWorker
	gate      dedupe.Gate
	machine   *presentation.Machine
	modes     *mode.Controller
	poller    *poller

	// Configuration
	initialMode   model.Mode
	queueSize     int
	reentryWindow time.Duration
	statsInterval time.Duration
	recentLimit   int
	exportDir     string
	now           func() time.Time

	// Loop-owned display state
	notice string
	stats  model.Stats
	recent []model.CheckIn

	// State
	started  bool
	cancel   context.CancelFunc
	loopDone chan struct{}

	logger logger.Logger
}

// New constructs a terminal around its gateway and two input channels.
func New(gw Gateway, camera, discrete mode.Channel, opts ...Option) *Service {
	s := &Service{
		gateway:       gw,
		camera:        camera,
		discrete:      discrete,
		renderer:      nopRenderer{},
		initialMode:   model.ModeCamera,
		queueSize:     defaultQueueSize,
		statsInterval: defaultStatsInterval,
		recentLimit:   defaultRecentLimit,
		exportDir:     ".",
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and starts the loop, the submitter and the
// stats poller.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("terminal")
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.loopDone = make(chan struct{})

	s.inbox = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.dispatch = queue.NewInMemoryQueue(queue.WithCapacity(dispatchCapacity), queue.WithoutMetrics())

	var gateOpts []dedupe.Option
	if s.reentryWindow > 0 {
		gateOpts = append(gateOpts, dedupe.WithReentryWindow(s.reentryWindow))
	}
	s.gate = dedupe.NewGate(gateOpts...)
	s.machine = presentation.New()
	s.modes = mode.NewController(s.camera, s.discrete, s.emit,
		mode.WithLogger(s.logger.Named("mode")))

	s.submitter = worker.NewInMemoryWorker(s.dispatch, s.gateway, s.inbox,
		worker.WithResolveTimeout(resolveTimeout),
		worker.WithLogger(s.logger.Named("submitter")))
	go s.submitter.Run(runCtx)

	s.poller = newPoller(s.gateway, s.inbox, s.statsInterval, s.recentLimit, s.logger.Named("stats"))
	go s.poller.run(runCtx)

	go s.loop(runCtx)

	s.started = true
	s.logger.Info(ctx, "terminal started",
		logger.String("mode", s.initialMode.String()),
		logger.Duration("reentryWindow", s.gate.Window()),
		logger.Int("queueSize", s.queueSize))
	return nil
}

// Stop shuts the terminal down. The live input channel is deactivated
// before Stop returns.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping terminal...")

	s.cancel()
	<-s.loopDone

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.submitter.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "submitter shutdown", logger.Error(err))
	}
	_ = s.dispatch.Close()
	_ = s.inbox.Close()

	s.started = false
	s.logger.Info(ctx, "terminal stopped")
}

// SetMode switches the live input channel. A channel that cannot start
// leaves the terminal in the requested mode and returns the error.
func (s *Service) SetMode(ctx context.Context, m model.Mode) error {
	return s.command(ctx, model.Event{Kind: model.EventSetMode, Mode: m})
}

// ToggleMode switches to the other input mode.
func (s *Service) ToggleMode(ctx context.Context) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	if snap.Mode == model.ModeCamera {
		return s.SetMode(ctx, model.ModeDiscrete)
	}
	return s.SetMode(ctx, model.ModeCamera)
}

// Dismiss closes the result panel.
func (s *Service) Dismiss(ctx context.Context) error {
	return s.command(ctx, model.Event{Kind: model.EventDismiss})
}

// Manual starts an operator lookup of a typed ticket number. It skips the
// dedup gate and is only allowed while idle.
func (s *Service) Manual(ctx context.Context, ticket string) error {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return ErrEmptyTicket
	}
	return s.command(ctx, model.Event{
		Kind:      model.EventManual,
		Candidate: model.Candidate{Text: ticket, Source: model.SourceManual, ObservedAt: s.now()},
	})
}

// NextDevice moves the camera to its next device.
func (s *Service) NextDevice(ctx context.Context) error {
	return s.command(ctx, model.Event{Kind: model.EventNextDevice})
}

// Snapshot returns the loop state.
func (s *Service) Snapshot(ctx context.Context) (model.Snapshot, error) {
	inbox, done, err := s.handles()
	if err != nil {
		return model.Snapshot{}, err
	}
	reply := make(chan model.Snapshot, 1)
	if err := inbox.Put(ctx, model.Event{Kind: model.EventSnapshot, SnapshotReply: reply}); err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrStopped, err)
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-done:
		return model.Snapshot{}, ErrStopped
	case <-ctx.Done():
		return model.Snapshot{}, ctx.Err()
	}
}

// Notify shows a notice to the operator.
func (s *Service) Notify(ctx context.Context, msg string) error {
	inbox, _, err := s.handles()
	if err != nil {
		return err
	}
	return inbox.Put(ctx, model.Event{Kind: model.EventNotice, Notice: msg})
}

// Export downloads the attendance CSV into the export directory and
// returns the file path.
func (s *Service) Export(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.exportDir, 0o750); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(s.exportDir, "attendance_export_"+s.now().UTC().Format("20060102_150405")+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	n, err := s.gateway.Export(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		_ = s.Notify(ctx, "Export failed: "+err.Error())
		return "", fmt.Errorf("export attendance: %w", err)
	}
	_ = s.Notify(ctx, fmt.Sprintf("Exported %s to %s", humanize.Bytes(uint64(n)), path))
	return path, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"queueSize": s.queueSize,
	}
	if s.started {
		accepted, suppressed := s.gate.Counts()
		stats["queueLength"] = s.inbox.Len(context.Background())
		stats["accepted"] = accepted
		stats["suppressed"] = suppressed
		stats["reentryWindow"] = s.gate.Window().String()
	}
	return stats
}

// emit is handed to input channels. It never blocks; a full inbox drops
// the event.
func (s *Service) emit(e model.Event) {
	if !s.inbox.Enqueue(context.Background(), e) {
		s.logger.Warn(context.Background(), "inbox full, input dropped",
			logger.String("kind", e.Kind.String()))
	}
}

func (s *Service) command(ctx context.Context, e model.Event) error {
	inbox, done, err := s.handles()
	if err != nil {
		return err
	}
	e.Reply = make(chan error, 1)
	if err := inbox.Put(ctx, e); err != nil {
		return fmt.Errorf("%w: %w", ErrStopped, err)
	}
	select {
	case err := <-e.Reply:
		return err
	case <-done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) handles() (*queue.InMemoryQueue, chan struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.inbox, s.loopDone, nil
}
