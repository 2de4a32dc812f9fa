package camera

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Result is one decode attempt that produced something worth reporting:
// either text or an error other than ErrNoCode.
type Result struct {
	Text string
	Err  error
	At   time.Time
}

// Stream is a running decode loop over one device directory. Frames must be
// moved into the directory whole; files starting with a dot are skipped.
type Stream struct {
	events chan Result
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartStream watches dir and decodes each new frame.
func StartStream(ctx context.Context, dir string, dec Decoder, now func() time.Time) (*Stream, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		events: make(chan Result, 8),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx, w, dec, now)
	return s, nil
}

// Events delivers results until the stream stops, then is closed.
func (s *Stream) Events() <-chan Result {
	return s.events
}

// Stop ends the loop and waits for it. No result is delivered after Stop
// returns.
func (s *Stream) Stop() {
	s.once.Do(s.cancel)
	<-s.done
}

func (s *Stream) run(ctx context.Context, w *fsnotify.Watcher, dec Decoder, now func() time.Time) {
	defer close(s.done)
	defer close(s.events)
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) || strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			text, err := DecodeFile(dec, ev.Name)
			if errors.Is(err, ErrNoCode) {
				continue
			}
			s.send(ctx, Result{Text: text, Err: err, At: now()})
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.send(ctx, Result{Err: fmt.Errorf("watch: %w", err), At: now()})
		}
	}
}

func (s *Stream) send(ctx context.Context, r Result) {
	select {
	case s.events <- r:
	case <-ctx.Done():
	}
}
