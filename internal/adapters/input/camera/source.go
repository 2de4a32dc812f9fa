// Package camera implements the continuous decode input channel.
//
// An external grabber writes frames for each device into its own directory
// under the frames root. The active device directory is watched and every new
// frame is decoded; decoded text becomes a candidate.
package camera

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/pkg/logger"
)

const defaultFramesDir = "frames"

// Source is the camera input channel.
type Source struct {
	mu sync.Mutex

	root      string
	preferred string
	decoder   Decoder
	now       func() time.Time
	logger    logger.Logger

	device  Device
	stream  *Stream
	forward chan struct{}
}

// New creates an inactive camera source.
func New(opts ...Option) *Source {
	s := &Source{
		root:    defaultFramesDir,
		decoder: NewDecoder(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("camera")
	}
	return s
}

// Activate resolves a device and starts decoding its frames. It returns
// ErrNoDevices when nothing can be resolved.
func (s *Source) Activate(ctx context.Context, gen uint64, emit func(model.Event)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := ListDevices(s.root)
	if err != nil {
		return err
	}
	s.device = s.pick(devices)

	stream, err := StartStream(context.WithoutCancel(ctx), s.device.Path, s.decoder, s.now)
	if err != nil {
		return fmt.Errorf("start %s: %w", s.device.ID, err)
	}
	s.stream = stream
	s.forward = make(chan struct{})
	go relay(stream, s.device.ID, gen, emit, s.forward)

	s.logger.Info(ctx, "camera decoding",
		logger.String("device", s.device.ID),
		logger.Any("generation", gen))
	return nil
}

// Deactivate stops the decode loop and waits until no more events can be
// emitted.
func (s *Source) Deactivate(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil
	}
	s.stream.Stop()
	<-s.forward
	s.stream, s.forward = nil, nil
	return nil
}

// NextDevice selects the device after the current one. The controller
// restarts the source afterwards.
func (s *Source) NextDevice(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := ListDevices(s.root)
	if err != nil {
		return "", err
	}
	next := devices[0]
	for i, d := range devices {
		if d.ID == s.device.ID {
			next = devices[(i+1)%len(devices)]
			break
		}
	}
	s.device = next
	s.preferred = next.ID
	return next.ID, nil
}

// Device returns the selected device id.
func (s *Source) Device() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device.ID
}

func (s *Source) pick(devices []Device) Device {
	for _, d := range devices {
		if d.ID == s.preferred {
			return d
		}
	}
	return devices[0]
}

func relay(stream *Stream, device string, gen uint64, emit func(model.Event), done chan struct{}) {
	defer close(done)
	for r := range stream.Events() {
		if r.Err != nil {
			emit(model.Event{
				Kind:       model.EventNotice,
				Generation: gen,
				Notice:     fmt.Sprintf("camera %s: %v", device, r.Err),
			})
			continue
		}
		emit(model.Event{
			Kind:       model.EventCandidate,
			Generation: gen,
			Candidate: model.Candidate{
				Text:       r.Text,
				Source:     model.SourceCamera,
				ObservedAt: r.At,
			},
		})
	}
}
