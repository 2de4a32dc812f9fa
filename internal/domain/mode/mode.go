// Package mode keeps exactly one input channel live at a time.
package mode

import (
	"context"
	"fmt"

	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/pkg/logger"
)

// Channel is an input source the controller can switch on and off.
// Activate must deliver every event tagged with gen through emit, and after
// Deactivate returns no further events may be emitted.
type Channel interface {
	Activate(ctx context.Context, gen uint64, emit func(model.Event)) error
	Deactivate(ctx context.Context) error
}

// Refocuser is implemented by channels backed by an entry surface.
type Refocuser interface {
	Refocus()
}

// DeviceCycler is implemented by channels that can pick among devices.
type DeviceCycler interface {
	NextDevice(ctx context.Context) (string, error)
	Device() string
}

// Controller owns the current mode and the channel generation counter.
// It is driven by a single goroutine and does no locking of its own.
type Controller struct {
	channels   map[model.Mode]Channel
	emit       func(model.Event)
	mode       model.Mode
	generation uint64
	live       bool
	started    bool
	logger     logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for recoverable channel failures.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController wires the two channels. emit receives every channel event.
func NewController(camera, discrete Channel, emit func(model.Event), opts ...Option) *Controller {
	c := &Controller{
		channels: map[model.Mode]Channel{
			model.ModeCamera:   camera,
			model.ModeDiscrete: discrete,
		},
		emit: emit,
		mode: model.ModeCamera,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("mode")
	}
	return c
}

// Start activates the initial mode. A channel that cannot start leaves the
// controller in that mode without a live channel and returns the error.
func (c *Controller) Start(ctx context.Context, initial model.Mode) error {
	if _, ok := c.channels[initial]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMode, initial)
	}
	c.started = true
	c.mode = initial
	return c.activate(ctx)
}

// SetMode switches to target. Switching to the current mode is a no-op.
func (c *Controller) SetMode(ctx context.Context, target model.Mode) error {
	if _, ok := c.channels[target]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMode, target)
	}
	if c.started && target == c.mode {
		return nil
	}
	c.deactivate(ctx)
	c.started = true
	c.mode = target
	return c.activate(ctx)
}

// Toggle switches to the other mode.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.mode == model.ModeCamera {
		return c.SetMode(ctx, model.ModeDiscrete)
	}
	return c.SetMode(ctx, model.ModeCamera)
}

// NextDevice advances the live channel to its next device and restarts it.
func (c *Controller) NextDevice(ctx context.Context) (string, error) {
	cycler, ok := c.channels[c.mode].(DeviceCycler)
	if !ok {
		return "", fmt.Errorf("%w: %s has no devices", ErrNotSupported, c.mode)
	}
	c.deactivate(ctx)
	device, err := cycler.NextDevice(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrChannelUnavailable, c.mode, err)
	}
	return device, c.activate(ctx)
}

// Refocus returns input focus to the live channel when it has a surface.
func (c *Controller) Refocus() {
	if !c.live {
		return
	}
	if r, ok := c.channels[c.mode].(Refocuser); ok {
		r.Refocus()
	}
}

// Stop deactivates the live channel.
func (c *Controller) Stop(ctx context.Context) {
	c.deactivate(ctx)
}

// Mode returns the current mode.
func (c *Controller) Mode() model.Mode { return c.mode }

// Generation returns the tag carried by events from the live activation.
func (c *Controller) Generation() uint64 { return c.generation }

// Live reports whether the current mode has an active channel.
func (c *Controller) Live() bool { return c.live }

// Current reports whether an event belongs to the live activation.
func (c *Controller) Current(e model.Event) bool {
	return c.live && e.Generation == c.generation
}

// Device returns the selected device of the current channel, if any.
func (c *Controller) Device() string {
	if d, ok := c.channels[c.mode].(DeviceCycler); ok {
		return d.Device()
	}
	return ""
}

func (c *Controller) activate(ctx context.Context) error {
	c.generation++
	if err := c.channels[c.mode].Activate(ctx, c.generation, c.emit); err != nil {
		c.live = false
		c.logger.Warn(ctx, "input channel failed to start",
			logger.String("mode", c.mode.String()),
			logger.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrChannelUnavailable, c.mode, err)
	}
	c.live = true
	c.logger.Info(ctx, "input channel live",
		logger.String("mode", c.mode.String()),
		logger.Any("generation", c.generation))
	return nil
}

func (c *Controller) deactivate(ctx context.Context) {
	if !c.live {
		return
	}
	c.live = false
	if err := c.channels[c.mode].Deactivate(ctx); err != nil {
		c.logger.Warn(ctx, "input channel failed to stop",
			logger.String("mode", c.mode.String()),
			logger.Error(err))
	}
}
