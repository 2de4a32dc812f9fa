// Package worker submits accepted candidates to the check-in gateway off the
// engine loop and posts each outcome back to the loop's inbox.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/turnstile/internal/adapters/mq/queue"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/pkg/logger"
)

// Event abstracts what workers read off the queue.
type Event = model.Event

// Resolver turns a candidate into an outcome. It must always return one.
type Resolver interface {
	Resolve(ctx context.Context, c model.Candidate) model.Outcome
}

// Sink receives outcome events. Put may block but must not drop.
type Sink interface {
	Put(ctx context.Context, e Event) error
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker runs submissions until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the submission in progress, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	resolver Resolver
	sink     Sink
	name     string

	// resolveTimeout bounds one Resolve call; zero leaves it to the resolver.
	resolveTimeout time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, resolver Resolver, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		resolver: resolver,
		sink:     sink,
		name:     "submitter",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing submission", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent resolves one candidate and hands the outcome to the sink.
func (w *InMemoryWorker) processEvent(ctx context.Context, event queue.Event) error { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	start := time.Now()
	rctx := ctx
	if w.resolveTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, w.resolveTimeout)
		defer cancel()
	}
	outcome := w.resolver.Resolve(rctx, event.Candidate)

	w.logger.Debug(ctx, "submission resolved",
		logger.String("source", event.Candidate.Source.String()),
		logger.String("status", outcome.Status.String()),
		logger.Duration("took", time.Since(start)))

	err := w.sink.Put(ctx, Event{
		Kind:       model.EventOutcome,
		Generation: event.Generation,
		Outcome:    outcome,
	})
	if err != nil {
		return fmt.Errorf("deliver outcome for %q: %w", event.Candidate.Text, err)
	}
	return nil
}
