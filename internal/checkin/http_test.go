package checkin_test

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/turnstile/internal/checkin"
	"github.com/okian/turnstile/pkg/checkinapi"
	"github.com/okian/turnstile/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func scanResponse(w *httptest.ResponseRecorder) checkinapi.ScanResponse {
	var resp checkinapi.ScanResponse
	So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
	return resp
}

func TestRouter(t *testing.T) {
	Convey("Given a check-in service with two registrations", t, func() {
		So(logger.InitWithWriter(io.Discard), ShouldBeNil)
		store := openStore(t)
		Reset(func() { _ = store.Close() })
		seed(store,
			checkin.Registration{TicketNumber: "GOOGA261700489", FirstName: "Ada", LastName: "Lovelace"},
			checkin.Registration{TicketNumber: "GOOGA261700490", FirstName: "Alan", LastName: "Turing"},
		)
		now := time.Date(2025, 11, 14, 9, 0, 0, 0, time.UTC)
		svc := checkin.NewService(store, checkin.WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		}))
		h := checkin.NewRouter(svc, []string{"http://localhost:5173"})

		Convey("When pinging", func() {
			w := do(h, http.MethodGet, checkinapi.PathPing, "")

			Convey("Then it answers pong with a request id", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "pong")
				So(w.Header().Get(checkinapi.RequestIDHeader), ShouldNotBeEmpty)
			})
		})

		Convey("When a registered code is scanned twice", func() {
			first := scanResponse(do(h, http.MethodPost, checkinapi.PathScan, `{"raw_qr":" 87189:1700489 "}`))
			second := scanResponse(do(h, http.MethodPost, checkinapi.PathScan, `{"raw_qr":"99999:1700489"}`))

			Convey("Then the first checks in and the second is a duplicate with the first time", func() {
				So(first.Status, ShouldEqual, checkinapi.StatusOK)
				So(first.TicketNumber, ShouldEqual, "GOOGA261700489")
				So(first.Attendee, ShouldNotBeNil)
				So(first.Attendee.Name, ShouldEqual, "Ada Lovelace")
				So(first.RawQR, ShouldEqual, "87189:1700489")

				So(second.Status, ShouldEqual, checkinapi.StatusDuplicate)
				So(second.FirstScanTimeUTC, ShouldEqual, first.FirstScanTimeUTC)
			})
		})

		Convey("When the code is malformed or unknown", func() {
			bad := scanResponse(do(h, http.MethodPost, checkinapi.PathScan, `{"raw_qr":"TICKET000123AB"}`))
			unknown := scanResponse(do(h, http.MethodPost, checkinapi.PathScan, `{"raw_qr":"1:42"}`))

			Convey("Then the status says so", func() {
				So(bad.Status, ShouldEqual, checkinapi.StatusInvalidFormat)
				So(unknown.Status, ShouldEqual, checkinapi.StatusNotFound)
				So(unknown.TicketNumber, ShouldEqual, "GOOGA2642")
			})
		})

		Convey("When the request body is invalid", func() {
			missing := do(h, http.MethodPost, checkinapi.PathScan, `{}`)
			broken := do(h, http.MethodPost, checkinapi.PathScan, `{"raw_qr":`)

			Convey("Then it is rejected with a validation message", func() {
				So(missing.Code, ShouldEqual, http.StatusBadRequest)
				resp := scanResponse(missing)
				So(resp.Status, ShouldEqual, checkinapi.StatusInvalidFormat)
				So(resp.Error, ShouldContainSubstring, "raw_qr")
				So(broken.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When an operator types a ticket number", func() {
			resp := scanResponse(do(h, http.MethodPost, checkinapi.PathManualCheck, `{"ticket_number":"1700490"}`))

			Convey("Then the prefixed ticket is checked in", func() {
				So(resp.Status, ShouldEqual, checkinapi.StatusOK)
				So(resp.TicketNumber, ShouldEqual, "GOOGA261700490")
				So(resp.Attendee.Name, ShouldEqual, "Alan Turing")
			})
		})

		Convey("When reading an attendee", func() {
			found := do(h, http.MethodGet, checkinapi.PathAttendee+"GOOGA261700489", "")
			missing := do(h, http.MethodGet, checkinapi.PathAttendee+"NOPE", "")

			Convey("Then known tickets return the registration and others 404", func() {
				So(found.Code, ShouldEqual, http.StatusOK)
				var a checkinapi.AttendeeResponse
				So(json.Unmarshal(found.Body.Bytes(), &a), ShouldBeNil)
				So(a.LastName, ShouldEqual, "Lovelace")
				So(missing.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When attendance has been recorded", func() {
			do(h, http.MethodPost, checkinapi.PathScan, `{"raw_qr":"1:1700489"}`)
			do(h, http.MethodPost, checkinapi.PathScan, `{"raw_qr":"1:1700490"}`)

			Convey("Then stats count present attendees", func() {
				var st checkinapi.StatsResponse
				So(json.Unmarshal(do(h, http.MethodGet, checkinapi.PathStats, "").Body.Bytes(), &st), ShouldBeNil)
				So(st.PresentCount, ShouldEqual, 2)
			})

			Convey("Then recent lists the newest first", func() {
				var rr checkinapi.RecentResponse
				So(json.Unmarshal(do(h, http.MethodGet, checkinapi.PathRecent+"?limit=1", "").Body.Bytes(), &rr), ShouldBeNil)
				So(rr.Items, ShouldHaveLength, 1)
				So(rr.Items[0].TicketNumber, ShouldEqual, "GOOGA261700490")
				So(do(h, http.MethodGet, checkinapi.PathRecent+"?limit=zero", "").Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then the export is CSV in scan order", func() {
				w := do(h, http.MethodGet, checkinapi.PathExport, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				rows, err := csv.NewReader(w.Body).ReadAll()
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 3)
				So(rows[0], ShouldResemble, checkinapi.ExportHeader)
				So(rows[1][0], ShouldEqual, "GOOGA261700489")
				So(rows[1][3], ShouldEqual, "1:1700489")
			})
		})

		Convey("When a browser preflights from an allowed origin", func() {
			req := httptest.NewRequest(http.MethodOptions, checkinapi.PathScan, http.NoBody)
			req.Header.Set("Origin", "http://localhost:5173")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then CORS allows it", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "http://localhost:5173")
			})
		})

		Convey("When fetching metrics and docs", func() {
			Convey("Then both are served", func() {
				So(do(h, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
				So(do(h, http.MethodGet, "/openapi.yaml", "").Body.String(), ShouldContainSubstring, "openapi:")
			})
		})
	})
}
