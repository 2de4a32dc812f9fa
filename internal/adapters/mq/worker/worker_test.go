package worker_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/turnstile/internal/adapters/mq/queue"
	worker "github.com/okian/turnstile/internal/adapters/mq/worker"
	model "github.com/okian/turnstile/internal/domain/model"
	logging "github.com/okian/turnstile/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	eventChan chan queue.Event
}

func newMockQueue() *mockQueue {
	return &mockQueue{eventChan: make(chan queue.Event, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Event {
	return mq.eventChan
}

func (mq *mockQueue) submit(text string, src model.Source) {
	mq.eventChan <- queue.Event{Kind: model.EventCandidate, Candidate: model.Candidate{Text: text, Source: src}}
}

type mockResolver struct {
	mu    sync.Mutex
	seen  []model.Candidate
	delay time.Duration
}

func (m *mockResolver) Resolve(ctx context.Context, c model.Candidate) model.Outcome {
	m.mu.Lock()
	m.seen = append(m.seen, c)
	m.mu.Unlock()
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return model.Outcome{Status: model.StatusTransportError, Raw: c.Text, Detail: ctx.Err().Error()}
		}
	}
	if c.Text == "87189:1700489" {
		return model.Outcome{Status: model.StatusSuccess, Raw: c.Text, Source: c.Source}
	}
	return model.Outcome{Status: model.StatusUnknownTicket, Raw: c.Text, Source: c.Source}
}

type mockSink struct {
	events chan queue.Event
	err    error
}

func (m *mockSink) Put(_ context.Context, e queue.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events <- e
	return nil
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		convey.So(logging.InitWithWriter(io.Discard), convey.ShouldBeNil)
		q := newMockQueue()
		resolver := &mockResolver{}
		sink := &mockSink{events: make(chan queue.Event, 10)}

		convey.Convey("When creating a worker with options", func() {
			w := worker.NewInMemoryWorker(q, resolver, sink,
				worker.WithName("submitter-test"),
				worker.WithLogger(logging.Get()))

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			w := worker.NewInMemoryWorker(q, resolver, sink)
			go w.Run(ctx)

			convey.Convey("And a candidate is submitted", func() {
				q.submit("87189:1700489", model.SourceCamera)

				convey.Convey("Then its outcome is delivered to the sink", func() {
					select {
					case e := <-sink.events:
						convey.So(e.Kind, convey.ShouldEqual, model.EventOutcome)
						convey.So(e.Outcome.Status, convey.ShouldEqual, model.StatusSuccess)
						convey.So(e.Outcome.Raw, convey.ShouldEqual, "87189:1700489")
					case <-time.After(time.Second):
						convey.So("timeout", convey.ShouldBeEmpty)
					}
				})
			})

			convey.Convey("And several candidates are submitted", func() {
				q.submit("A", model.SourceDiscrete)
				q.submit("B", model.SourceManual)

				convey.Convey("Then outcomes arrive in submission order", func() {
					first := <-sink.events
					second := <-sink.events
					convey.So(first.Outcome.Raw, convey.ShouldEqual, "A")
					convey.So(second.Outcome.Raw, convey.ShouldEqual, "B")
					convey.So(second.Outcome.Source, convey.ShouldEqual, model.SourceManual)
				})
			})

			convey.Convey("And shutting down", func() {
				err := w.Shutdown(context.Background())

				convey.Convey("Then it should shutdown gracefully and tolerate a second call", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When the sink rejects outcomes", func() {
			sink.err = errors.New("inbox closed")
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			w := worker.NewInMemoryWorker(q, resolver, sink)
			go w.Run(ctx)
			q.submit("A", model.SourceCamera)
			q.submit("B", model.SourceCamera)

			convey.Convey("Then the worker keeps running", func() {
				time.Sleep(50 * time.Millisecond)
				resolver.mu.Lock()
				n := len(resolver.seen)
				resolver.mu.Unlock()
				convey.So(n, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a resolve call outlives its deadline", func() {
			resolver.delay = time.Second
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			w := worker.NewInMemoryWorker(q, resolver, sink, worker.WithResolveTimeout(20*time.Millisecond))
			go w.Run(ctx)
			q.submit("87189:1700489", model.SourceCamera)

			convey.Convey("Then a transport error outcome is still delivered", func() {
				select {
				case e := <-sink.events:
					convey.So(e.Kind, convey.ShouldEqual, model.EventOutcome)
					convey.So(e.Outcome.Status, convey.ShouldEqual, model.StatusTransportError)
				case <-time.After(500 * time.Millisecond):
					convey.So("outcome delivered", convey.ShouldEqual, "timed out")
				}
			})
		})

		convey.Convey("When context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			w := worker.NewInMemoryWorker(q, resolver, sink)
			go w.Run(ctx)
			cancel()

			convey.Convey("Then worker should stop", func() {
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When shutdown times out on a slow submission", func() {
			resolver.delay = time.Second
			ctx, cancel := context.WithCancel(context.Background())
			w := worker.NewInMemoryWorker(q, resolver, sink)
			go w.Run(ctx)
			q.submit("A", model.SourceCamera)
			time.Sleep(20 * time.Millisecond)

			short, cancelShort := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancelShort()
			err := w.Shutdown(short)
			cancel()

			convey.Convey("Then the timeout is reported", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})
}
