package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/turnstile/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped in the metrics middleware", t, func() {
		So(logger.InitWithWriter(io.Discard), ShouldBeNil)
		status := http.StatusOK
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("{}"))
		}, "test")

		Convey("When the handler fails with 503", func() {
			status = http.StatusServiceUnavailable
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodPost, "/dismiss", http.NoBody))

			Convey("Then the status and body pass through", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Body.String(), ShouldEqual, "{}")
			})
		})
	})

	Convey("Given response statuses", t, func() {
		Convey("Then each maps to its error class", func() {
			So(errorClass(http.StatusServiceUnavailable), ShouldEqual, "unavailable")
			So(errorClass(http.StatusInternalServerError), ShouldEqual, "server_error")
			So(errorClass(http.StatusConflict), ShouldEqual, "conflict")
			So(errorClass(http.StatusUnprocessableEntity), ShouldEqual, "not_supported")
			So(errorClass(http.StatusNotFound), ShouldEqual, "not_found")
			So(errorClass(http.StatusMethodNotAllowed), ShouldEqual, "method_not_allowed")
			So(errorClass(http.StatusBadRequest), ShouldEqual, "client_error")
		})
	})
}
