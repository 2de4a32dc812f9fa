// Package presentation owns the idle/awaiting/showing state machine that
// drives the outcome panel.
package presentation

import (
	"fmt"

	"github.com/okian/turnstile/internal/domain/model"
)

// Machine is the presentation state machine. It holds at most one in-flight
// candidate and at most one pending replacement. It is not safe for
// concurrent use; the terminal loop is its only caller.
type Machine struct {
	state    model.State
	inFlight *model.Candidate
	current  *model.Outcome
	pending  *model.Candidate
}

// New returns a machine in the idle state.
func New() *Machine {
	return &Machine{state: model.StateIdle}
}

// State returns the current presentation state.
func (m *Machine) State() model.State {
	return m.state
}

// Accept takes a candidate the dedup gate accepted. It reports true when the
// candidate became the in-flight one and must be submitted now. Otherwise the
// candidate either repeats the in-flight or shown text (dropped) or lands in
// the single pending slot, replacing whatever was there.
func (m *Machine) Accept(c model.Candidate) bool {
	switch m.state {
	case model.StateIdle:
		m.begin(c)
		return true
	case model.StateAwaitingResult:
		if m.inFlight != nil && m.inFlight.Text == c.Text {
			return false
		}
		m.pending = &c
		return false
	default:
		if m.current != nil && m.current.Raw == c.Text {
			return false
		}
		m.pending = &c
		return false
	}
}

// BeginManual starts an operator override lookup. It skips the dedup gate
// and is only allowed while idle.
func (m *Machine) BeginManual(c model.Candidate) error {
	if !m.ManualOverrideEnabled() {
		return fmt.Errorf("%w: state is %s", ErrManualOverrideDisabled, m.state)
	}
	c.Source = model.SourceManual
	m.begin(c)
	return nil
}

// Resolve records the outcome for the in-flight candidate and moves to
// showing the result.
func (m *Machine) Resolve(o model.Outcome) (View, error) {
	if m.state != model.StateAwaitingResult {
		return View{}, fmt.Errorf("%w: state is %s", ErrUnexpectedOutcome, m.state)
	}
	m.inFlight = nil
	m.current = &o
	m.state = model.StateShowingResult
	return Render(o), nil
}

// Dismiss closes the shown result and returns to idle. When a replacement is
// pending it is promoted immediately and returned for submission.
func (m *Machine) Dismiss() (*model.Candidate, error) {
	if m.state != model.StateShowingResult {
		return nil, fmt.Errorf("%w: state is %s", ErrNothingToDismiss, m.state)
	}
	m.current = nil
	m.state = model.StateIdle

	if m.pending == nil {
		return nil, nil
	}
	next := *m.pending
	m.pending = nil
	m.begin(next)
	return &next, nil
}

// InFlight returns the candidate awaiting its outcome.
func (m *Machine) InFlight() (model.Candidate, bool) {
	if m.inFlight == nil {
		return model.Candidate{}, false
	}
	return *m.inFlight, true
}

// Current returns the outcome being shown.
func (m *Machine) Current() (model.Outcome, bool) {
	if m.current == nil {
		return model.Outcome{}, false
	}
	return *m.current, true
}

// Pending reports whether a replacement candidate is queued.
func (m *Machine) Pending() bool {
	return m.pending != nil
}

// PanelOpen reports whether an outcome panel is on screen.
func (m *Machine) PanelOpen() bool {
	return m.state == model.StateShowingResult
}

// ManualOverrideEnabled reports whether an operator lookup may start.
func (m *Machine) ManualOverrideEnabled() bool {
	return m.state == model.StateIdle
}

func (m *Machine) begin(c model.Candidate) {
	m.inFlight = &c
	m.state = model.StateAwaitingResult
}
