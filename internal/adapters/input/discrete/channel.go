// Package discrete implements the keyboard-emulating scanner input channel.
//
// A handheld scanner types a code as a burst of keystrokes and may or may not
// finish with Enter. Enter always submits the staged text. Reaching the
// minimum length arms a single-slot debounce that submits whatever is staged
// when it fires, and every further keystroke reschedules it.
package discrete

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/okian/turnstile/internal/domain/model"
)

const (
	defaultMinLength = 14
	defaultDebounce  = 25 * time.Millisecond
)

// Channel is the entry surface state plus its submission heuristic.
// emit is called with the channel lock held and must not block.
type Channel struct {
	mu sync.Mutex

	staged   []rune
	focused  bool
	selected bool

	active bool
	gen    uint64
	emit   func(model.Event)

	timer *time.Timer

	// seq invalidates debounce callbacks that lost a race with Stop.
	seq uint64

	minLength int
	debounce  time.Duration
	now       func() time.Time
	onChange  func()
}

// New creates an inactive channel.
func New(opts ...Option) *Channel {
	c := &Channel{
		minLength: defaultMinLength,
		debounce:  defaultDebounce,
		now:       time.Now,
		onChange:  func() {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activate clears staged input and focuses the entry surface.
func (c *Channel) Activate(_ context.Context, gen uint64, emit func(model.Event)) error {
	c.mu.Lock()
	c.cancelLocked()
	c.active = true
	c.gen = gen
	c.emit = emit
	c.staged = c.staged[:0]
	c.focused = true
	c.selected = false
	c.mu.Unlock()

	c.onChange()
	return nil
}

// Deactivate cancels any pending submission, clears and blurs the surface.
// No events are emitted after it returns.
func (c *Channel) Deactivate(context.Context) error {
	c.mu.Lock()
	c.cancelLocked()
	c.active = false
	c.emit = nil
	c.staged = c.staged[:0]
	c.focused = false
	c.selected = false
	c.mu.Unlock()

	c.onChange()
	return nil
}

// Type stages one character.
func (c *Channel) Type(r rune) {
	c.mu.Lock()
	if !c.active || !c.focused {
		c.mu.Unlock()
		return
	}
	if c.selected {
		c.staged = c.staged[:0]
		c.selected = false
		c.cancelLocked()
	}
	c.staged = append(c.staged, r)
	if len(c.staged) >= c.minLength {
		c.scheduleLocked()
	}
	c.mu.Unlock()

	c.onChange()
}

// Backspace removes the last staged character.
func (c *Channel) Backspace() {
	c.mu.Lock()
	if !c.active || !c.focused {
		c.mu.Unlock()
		return
	}
	if c.selected {
		c.staged = c.staged[:0]
		c.selected = false
	} else if n := len(c.staged); n > 0 {
		c.staged = c.staged[:n-1]
	}
	c.mu.Unlock()

	c.onChange()
}

// Enter submits the staged text regardless of its length.
func (c *Channel) Enter() {
	c.mu.Lock()
	if !c.active || !c.focused {
		c.mu.Unlock()
		return
	}
	c.cancelLocked()
	c.submitLocked()
	c.mu.Unlock()

	c.onChange()
}

// Blur records that the surface lost focus. While active the loop is told so
// it can decide whether to restore focus.
func (c *Channel) Blur() {
	c.mu.Lock()
	c.focused = false
	c.selected = false
	if c.active && c.emit != nil {
		c.emit(model.Event{Kind: model.EventBlur, Generation: c.gen})
	}
	c.mu.Unlock()

	c.onChange()
}

// Refocus focuses the surface and selects its content so the next burst
// overwrites it.
func (c *Channel) Refocus() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.focused = true
	c.selected = true
	c.mu.Unlock()

	c.onChange()
}

// Staged returns the current staged text.
func (c *Channel) Staged() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.staged)
}

// Focused reports whether the surface holds input focus.
func (c *Channel) Focused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}

// Selected reports whether the surface content is fully selected.
func (c *Channel) Selected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Active reports whether the channel is live.
func (c *Channel) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Channel) scheduleLocked() {
	c.cancelLocked()
	seq := c.seq
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(seq) })
}

func (c *Channel) cancelLocked() {
	c.seq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Channel) fire(seq uint64) {
	c.mu.Lock()
	if !c.active || seq != c.seq || len(c.staged) < c.minLength {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.submitLocked()
	c.mu.Unlock()

	c.onChange()
}

// submitLocked emits the trimmed staged text, then clears, focuses and
// selects the surface. Blank text is dropped.
func (c *Channel) submitLocked() {
	text := strings.TrimSpace(string(c.staged))
	c.staged = c.staged[:0]
	c.focused = true
	c.selected = true
	if text == "" || c.emit == nil {
		return
	}
	c.emit(model.Event{
		Kind:       model.EventCandidate,
		Generation: c.gen,
		Candidate: model.Candidate{
			Text:       text,
			Source:     model.SourceDiscrete,
			ObservedAt: c.now(),
		},
	})
}
