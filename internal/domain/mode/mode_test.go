package mode_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/okian/turnstile/internal/domain/mode"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var errNoDevices = errors.New("no devices")

type fakeChannel struct {
	activations   int
	deactivations int
	live          bool
	gen           uint64
	emit          func(model.Event)
	failWith      error
	refocused     int
	devices       []string
	device        int
}

func (f *fakeChannel) Activate(_ context.Context, gen uint64, emit func(model.Event)) error {
	f.activations++
	if f.failWith != nil {
		return f.failWith
	}
	f.live, f.gen, f.emit = true, gen, emit
	return nil
}

func (f *fakeChannel) Deactivate(context.Context) error {
	f.deactivations++
	f.live = false
	return nil
}

// produce emits a candidate only while active, like a real channel.
func (f *fakeChannel) produce(text string) {
	if f.live {
		f.emit(model.Event{Kind: model.EventCandidate, Generation: f.gen, Candidate: model.Candidate{Text: text}})
	}
}

func (f *fakeChannel) Refocus() { f.refocused++ }

type fakeCamera struct {
	fakeChannel
}

func (f *fakeCamera) NextDevice(context.Context) (string, error) {
	if len(f.devices) == 0 {
		return "", errNoDevices
	}
	f.device = (f.device + 1) % len(f.devices)
	return f.devices[f.device], nil
}

func (f *fakeCamera) Device() string {
	if len(f.devices) == 0 {
		return ""
	}
	return f.devices[f.device]
}

func TestController(t *testing.T) {
	Convey("Given a controller with two channels", t, func() {
		So(logger.InitWithWriter(io.Discard), ShouldBeNil)
		ctx := context.Background()
		cam := &fakeCamera{fakeChannel: fakeChannel{devices: []string{"back", "front"}}}
		disc := &fakeChannel{}
		var got []model.Event
		c := mode.NewController(cam, disc, func(e model.Event) { got = append(got, e) })

		Convey("When started in camera mode", func() {
			So(c.Start(ctx, model.ModeCamera), ShouldBeNil)

			Convey("Then only the camera is live", func() {
				So(c.Mode(), ShouldEqual, model.ModeCamera)
				So(c.Live(), ShouldBeTrue)
				So(cam.live, ShouldBeTrue)
				So(disc.live, ShouldBeFalse)
				So(c.Device(), ShouldEqual, "back")
			})

			Convey("And camera is requested twice", func() {
				So(c.SetMode(ctx, model.ModeCamera), ShouldBeNil)
				So(c.SetMode(ctx, model.ModeCamera), ShouldBeNil)

				Convey("Then nothing is restarted", func() {
					So(cam.activations, ShouldEqual, 1)
					So(cam.deactivations, ShouldEqual, 0)
					So(c.Generation(), ShouldEqual, 1)
				})
			})

			Convey("And the mode switches to discrete", func() {
				stale := cam.emit
				staleGen := cam.gen
				So(c.SetMode(ctx, model.ModeDiscrete), ShouldBeNil)

				Convey("Then the camera is fully deactivated", func() {
					So(cam.live, ShouldBeFalse)
					So(cam.deactivations, ShouldEqual, 1)
					So(disc.live, ShouldBeTrue)
					So(c.Device(), ShouldEqual, "")
				})

				Convey("Then the deactivated channel produces nothing", func() {
					cam.produce("late")
					So(got, ShouldBeEmpty)
				})

				Convey("Then a late event from the old activation is not current", func() {
					stale(model.Event{Kind: model.EventCandidate, Generation: staleGen})
					So(got, ShouldHaveLength, 1)
					So(c.Current(got[0]), ShouldBeFalse)
					disc.produce("fresh")
					So(c.Current(got[1]), ShouldBeTrue)
				})

				Convey("Then refocus reaches the entry surface", func() {
					c.Refocus()
					So(disc.refocused, ShouldEqual, 1)
				})

				Convey("Then toggling returns to camera", func() {
					So(c.Toggle(ctx), ShouldBeNil)
					So(c.Mode(), ShouldEqual, model.ModeCamera)
					So(disc.live, ShouldBeFalse)
					So(cam.live, ShouldBeTrue)
				})

				Convey("Then next device is not supported", func() {
					_, err := c.NextDevice(ctx)
					So(errors.Is(err, mode.ErrNotSupported), ShouldBeTrue)
				})
			})

			Convey("And the next device is selected", func() {
				device, err := c.NextDevice(ctx)

				Convey("Then the camera restarts on it with a new generation", func() {
					So(err, ShouldBeNil)
					So(device, ShouldEqual, "front")
					So(cam.activations, ShouldEqual, 2)
					So(cam.deactivations, ShouldEqual, 1)
					So(c.Generation(), ShouldEqual, 2)
				})
			})

			Convey("And the controller stops", func() {
				c.Stop(ctx)
				So(cam.live, ShouldBeFalse)
				So(c.Live(), ShouldBeFalse)
			})
		})

		Convey("When the camera has no devices", func() {
			cam.failWith = errNoDevices
			err := c.Start(ctx, model.ModeCamera)

			Convey("Then the error is recoverable and the mode stays camera", func() {
				So(errors.Is(err, mode.ErrChannelUnavailable), ShouldBeTrue)
				So(errors.Is(err, errNoDevices), ShouldBeTrue)
				So(c.Mode(), ShouldEqual, model.ModeCamera)
				So(c.Live(), ShouldBeFalse)
			})

			Convey("Then discrete mode still works", func() {
				So(c.SetMode(ctx, model.ModeDiscrete), ShouldBeNil)
				So(cam.deactivations, ShouldEqual, 0)
				So(disc.live, ShouldBeTrue)
			})

			Convey("Then refocus does nothing", func() {
				c.Refocus()
				So(cam.refocused, ShouldEqual, 0)
			})
		})

		Convey("When an unknown mode is requested", func() {
			So(errors.Is(c.SetMode(ctx, model.Mode(7)), mode.ErrUnknownMode), ShouldBeTrue)
			So(errors.Is(c.Start(ctx, model.Mode(7)), mode.ErrUnknownMode), ShouldBeTrue)
		})
	})
}
