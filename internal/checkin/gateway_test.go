package checkin_test

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/turnstile/internal/adapters/gateway"
	"github.com/okian/turnstile/internal/checkin"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGatewayRoundTrip(t *testing.T) {
	Convey("Given the terminal gateway talking to a live check-in server", t, func() {
		So(logger.InitWithWriter(io.Discard), ShouldBeNil)
		store := openStore(t)
		seed(store, checkin.Registration{TicketNumber: "GOOGA261700489", FirstName: "Ada", LastName: "Lovelace"})
		srv := httptest.NewServer(checkin.NewRouter(checkin.NewService(store), nil))
		Reset(func() {
			srv.Close()
			_ = store.Close()
		})
		gw := gateway.New(srv.URL, gateway.WithTimeout(2*time.Second))
		ctx := context.Background()
		cand := func(text string, src model.Source) model.Candidate {
			return model.Candidate{Text: text, Source: src, ObservedAt: time.Now()}
		}

		Convey("When the same ticket is scanned then typed", func() {
			first := gw.Resolve(ctx, cand("87189:1700489", model.SourceCamera))
			again := gw.Resolve(ctx, cand("1700489", model.SourceManual))

			Convey("Then the outcomes map to success and already checked in", func() {
				So(first.Status, ShouldEqual, model.StatusSuccess)
				So(first.AttendeeName, ShouldEqual, "Ada Lovelace")
				So(first.FirstScanAt.IsZero(), ShouldBeFalse)
				So(again.Status, ShouldEqual, model.StatusAlreadyCheckedIn)
				So(again.Source, ShouldEqual, model.SourceManual)
				So(again.FirstScanAt.Equal(first.FirstScanAt), ShouldBeTrue)
			})

			Convey("Then stats, recent and export reflect the check-in", func() {
				st, err := gw.Stats(ctx)
				So(err, ShouldBeNil)
				So(st.PresentCount, ShouldEqual, 1)

				recent, err := gw.Recent(ctx, 5)
				So(err, ShouldBeNil)
				So(recent, ShouldHaveLength, 1)

				var buf bytes.Buffer
				n, err := gw.Export(ctx, &buf)
				So(err, ShouldBeNil)
				So(n, ShouldBeGreaterThan, 0)
				So(buf.String(), ShouldContainSubstring, "GOOGA261700489")
			})
		})

		Convey("When codes are unknown or malformed", func() {
			Convey("Then they map to their outcome variants", func() {
				So(gw.Resolve(ctx, cand("1:42", model.SourceDiscrete)).Status, ShouldEqual, model.StatusUnknownTicket)
				So(gw.Resolve(ctx, cand("no-colon", model.SourceCamera)).Status, ShouldEqual, model.StatusMalformed)
			})
		})

		Convey("When the server answers ping", func() {
			So(gw.Ping(ctx), ShouldBeNil)
		})
	})
}
