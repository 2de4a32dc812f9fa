// Package dedupe decides whether a scan candidate is a new event or a
// repeat of the last accepted one inside the reentry window.
package dedupe

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/turnstile/internal/domain/model"
)

// Default gate configuration constants.
const (
	defaultReentryWindow = 3 * time.Second
)

// Decision is the result of evaluating one candidate.
type Decision int

const (
	// Accept means the candidate is a new scan event and memory now holds it.
	Accept Decision = iota
	// Suppress means the candidate repeats the last accepted text inside the window.
	Suppress
	// NoCandidate means the text was blank; memory is untouched.
	NoCandidate
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Suppress:
		return "suppress"
	case NoCandidate:
		return "no_candidate"
	default:
		return "unknown"
	}
}

// Memory is the suppression memory: the last accepted text and when it was seen.
type Memory struct {
	LastText string
	LastAt   time.Time
}

// Empty reports whether the memory has been cleared.
func (m Memory) Empty() bool {
	return m.LastText == "" && m.LastAt.IsZero()
}

// Gate records the last accepted candidate to suppress rapid repeats.
type Gate interface {
	// Evaluate atomically decides Accept or Suppress for c and, on Accept,
	// overwrites the memory before returning.
	Evaluate(ctx context.Context, c model.Candidate) Decision
	// Reset clears the memory so the next candidate is accepted regardless of text.
	Reset(ctx context.Context)
	// Memory returns a copy of the current suppression memory.
	Memory() Memory
	// Window returns the configured reentry window.
	Window() time.Duration
	// Counts returns how many candidates were accepted and suppressed.
	Counts() (accepted, suppressed int64)
}

// windowGate implements Gate with a single-slot memory.
type windowGate struct {
	mu     sync.Mutex
	window time.Duration
	memory Memory

	accepted   atomic.Int64
	suppressed atomic.Int64
}

// NewGate creates a gate with configuration options.
func NewGate(opts ...Option) Gate {
	g := &windowGate{
		window: defaultReentryWindow,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate decides whether c is a new scan event.
func (g *windowGate) Evaluate(_ context.Context, c model.Candidate) Decision {
	if strings.TrimSpace(c.Text) == "" {
		return NoCandidate
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if c.Text == g.memory.LastText && c.ObservedAt.Sub(g.memory.LastAt) < g.window {
		g.suppressed.Add(1)
		return Suppress
	}

	g.memory = Memory{LastText: c.Text, LastAt: c.ObservedAt}
	g.accepted.Add(1)
	return Accept
}

// Reset clears the suppression memory.
func (g *windowGate) Reset(_ context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.memory = Memory{}
}

// Memory returns a copy of the suppression memory.
func (g *windowGate) Memory() Memory {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.memory
}

// Window returns the reentry window.
func (g *windowGate) Window() time.Duration {
	return g.window
}

// Counts returns accepted and suppressed totals.
func (g *windowGate) Counts() (int64, int64) {
	return g.accepted.Load(), g.suppressed.Load()
}
