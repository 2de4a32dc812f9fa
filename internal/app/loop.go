package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/turnstile/internal/domain/dedupe"
	"github.com/okian/turnstile/internal/domain/mode"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/internal/domain/presentation"
	"github.com/okian/turnstile/pkg/logger"
	"github.com/okian/turnstile/pkg/metrics"
)

var modeNames = []string{model.ModeCamera.String(), model.ModeDiscrete.String()} //nolint:gochecknoglobals // fixed label set

// loop is the only goroutine that touches the gate, the machine and the
// mode controller.
func (s *Service) loop(ctx context.Context) {
	defer close(s.loopDone)
	defer s.modes.Stop(context.WithoutCancel(ctx))

	if err := s.modes.Start(ctx, s.initialMode); err != nil {
		s.setNotice(ctx, "config", err.Error())
	}
	metrics.RecordModeSwitch(s.modes.Mode().String(), modeNames...)
	s.render()

	events := s.inbox.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			s.handle(ctx, e)
			s.render()
		}
	}
}

func (s *Service) handle(ctx context.Context, e model.Event) { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	switch e.Kind {
	case model.EventCandidate:
		s.onCandidate(ctx, e)
	case model.EventOutcome:
		s.onOutcome(ctx, e.Outcome)
	case model.EventDismiss:
		reply(e, s.onDismiss(ctx))
	case model.EventSetMode:
		reply(e, s.onSetMode(ctx, e.Mode))
	case model.EventManual:
		reply(e, s.onManual(ctx, e.Candidate))
	case model.EventNextDevice:
		reply(e, s.onNextDevice(ctx))
	case model.EventNotice:
		if e.Generation != 0 && !s.modes.Current(e) {
			metrics.RecordStaleEvent()
			return
		}
		kind := "system"
		if e.Generation != 0 {
			kind = s.modes.Mode().String()
		}
		s.setNotice(ctx, kind, e.Notice)
	case model.EventBlur:
		if !s.modes.Current(e) {
			return
		}
		if s.modes.Mode() == model.ModeDiscrete && !s.machine.PanelOpen() {
			s.modes.Refocus()
		}
	case model.EventStats:
		s.stats = e.Stats
		if !e.RecentFailed {
			s.recent = e.Recent
		}
		metrics.UpdatePresentCount(e.Stats.PresentCount)
	case model.EventSnapshot:
		if e.SnapshotReply != nil {
			e.SnapshotReply <- s.snapshot()
		}
	default:
		s.logger.Warn(ctx, "unknown event", logger.String("kind", e.Kind.String()))
	}
}

func (s *Service) onCandidate(ctx context.Context, e model.Event) { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	if !s.modes.Current(e) {
		metrics.RecordStaleEvent()
		return
	}
	c, ok := e.Candidate.Normalized()
	if !ok {
		metrics.RecordCandidate(c.Source.String(), dedupe.NoCandidate.String())
		return
	}
	decision := s.gate.Evaluate(ctx, c)
	metrics.RecordCandidate(c.Source.String(), decision.String())
	if decision != dedupe.Accept {
		return
	}

	s.logger.Debug(ctx, "candidate accepted",
		logger.String("source", c.Source.String()),
		logger.String("text", c.Text))

	if s.machine.Accept(c) {
		s.submit(ctx, c)
		return
	}
	if s.machine.Pending() {
		metrics.RecordPendingReplacement()
	}
}

func (s *Service) onOutcome(ctx context.Context, o model.Outcome) {
	if _, err := s.machine.Resolve(o); err != nil {
		s.logger.Warn(ctx, "outcome dropped", logger.Error(err))
		return
	}
	metrics.RecordOutcome(o.Status.String())
	s.logger.Info(ctx, "outcome",
		logger.String("status", o.Status.String()),
		logger.String("source", o.Source.String()),
		logger.String("ticket", o.TicketID))
	s.poller.trigger()
}

func (s *Service) onDismiss(ctx context.Context) error {
	next, err := s.machine.Dismiss()
	if err != nil {
		return err
	}
	s.gate.Reset(ctx)
	if s.modes.Mode() == model.ModeDiscrete {
		s.modes.Refocus()
	}
	if next != nil {
		s.submit(ctx, *next)
	}
	return nil
}

func (s *Service) onSetMode(ctx context.Context, m model.Mode) error {
	before, wasLive := s.modes.Mode(), s.modes.Live()
	err := s.modes.SetMode(ctx, m)
	if s.modes.Mode() != before || !wasLive {
		metrics.RecordModeSwitch(s.modes.Mode().String(), modeNames...)
	}
	if err != nil {
		s.setNotice(ctx, "config", err.Error())
		return err
	}
	if s.modes.Mode() != before {
		s.notice = ""
	}
	return nil
}

func (s *Service) onManual(ctx context.Context, c model.Candidate) error {
	if err := s.machine.BeginManual(c); err != nil {
		return err
	}
	c.Source = model.SourceManual
	s.submit(ctx, c)
	return nil
}

func (s *Service) onNextDevice(ctx context.Context) error {
	device, err := s.modes.NextDevice(ctx)
	if err != nil {
		if !errors.Is(err, mode.ErrNotSupported) {
			s.setNotice(ctx, "config", err.Error())
		}
		return err
	}
	s.setNotice(ctx, "system", fmt.Sprintf("Using camera %s", device))
	return nil
}

// submit hands a candidate to the submitter. If that is impossible the
// candidate resolves at once as a transport error so a result is still shown.
func (s *Service) submit(ctx context.Context, c model.Candidate) {
	if s.dispatch.Enqueue(ctx, model.Event{Kind: model.EventCandidate, Candidate: c}) {
		return
	}
	s.onOutcome(ctx, model.Outcome{
		Status: model.StatusTransportError,
		Raw:    c.Text,
		Source: c.Source,
		Detail: "submission queue unavailable",
	})
}

func (s *Service) setNotice(ctx context.Context, kind, msg string) {
	s.notice = msg
	metrics.RecordNotice(kind)
	s.logger.Warn(ctx, "notice", logger.String("kind", kind), logger.String("msg", msg))
}

func (s *Service) snapshot() model.Snapshot {
	mem := s.gate.Memory()
	accepted, suppressed := s.gate.Counts()
	return model.Snapshot{
		Mode:         s.modes.Mode(),
		ModeName:     s.modes.Mode().String(),
		State:        s.machine.State().String(),
		Device:       s.modes.Device(),
		LastAccepted: mem.LastText,
		LastAt:       mem.LastAt,
		Pending:      s.machine.Pending(),
		Generation:   s.modes.Generation(),
		Notice:       s.notice,
		Accepted:     accepted,
		Suppressed:   suppressed,
		PresentCount: s.stats.PresentCount,
	}
}

func (s *Service) render() {
	scr := Screen{
		Mode:          s.modes.Mode(),
		Live:          s.modes.Live(),
		Device:        s.modes.Device(),
		State:         s.machine.State(),
		Pending:       s.machine.Pending(),
		ManualEnabled: s.machine.ManualOverrideEnabled(),
		Notice:        s.notice,
		PresentCount:  s.stats.PresentCount,
		Recent:        s.recent,
	}
	if o, ok := s.machine.Current(); ok {
		v := presentation.Render(o)
		scr.Panel = &v
	}
	s.renderer.Render(scr)
}

func reply(e model.Event, err error) { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	if e.Reply != nil {
		e.Reply <- err
	}
}
