// Package checkinapi holds the JSON contract between the terminal and the
// check-in service.
package checkinapi

import "time"

// Status tags carried by scan responses.
const (
	StatusOK            = "OK"
	StatusDuplicate     = "DUPLICATE"
	StatusNotFound      = "NOT_FOUND"
	StatusInvalidFormat = "INVALID_FORMAT"
	StatusError         = "ERROR"
)

// Endpoint paths.
const (
	PathPing        = "/api/ping"
	PathScan        = "/api/scan"
	PathManualCheck = "/api/manual-check"
	PathAttendee    = "/api/attendee/"
	PathStats       = "/api/stats"
	PathRecent      = "/api/attendance/recent"
	PathExport      = "/api/attendance/export"
)

// RequestIDHeader correlates a terminal call with service logs.
const RequestIDHeader = "X-Request-ID"

// ScanRequest submits a raw decoded code.
type ScanRequest struct {
	RawQR string `json:"raw_qr" validate:"required,max=2048"`
}

// ManualCheckRequest submits a typed ticket number.
type ManualCheckRequest struct {
	TicketNumber string `json:"ticket_number" validate:"required,max=64"`
}

// Attendee is the display payload of a resolved ticket.
type Attendee struct {
	Name string `json:"name"`
}

// ScanResponse is returned by both scan endpoints.
type ScanResponse struct {
	Status           string    `json:"status"`
	TicketNumber     string    `json:"ticket_number,omitempty"`
	Attendee         *Attendee `json:"attendee,omitempty"`
	FirstScanTimeUTC string    `json:"first_scan_time_utc,omitempty"`
	RawQR            string    `json:"raw_qr,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// AttendeeResponse is a registration record.
type AttendeeResponse struct {
	TicketNumber string `json:"ticket_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

// StatsResponse carries aggregate attendance.
type StatsResponse struct {
	PresentCount int `json:"present_count"`
}

// RecentEntry is one row of the recent check-ins listing.
type RecentEntry struct {
	TicketNumber string    `json:"ticket_number"`
	AttendeeName string    `json:"attendee_name"`
	ScanTimeUTC  time.Time `json:"scan_time_utc"`
}

// RecentResponse lists the latest check-ins, newest first.
type RecentResponse struct {
	Items []RecentEntry `json:"items"`
}

// ExportHeader is the column row of the attendance CSV export.
var ExportHeader = []string{"ticket_number", "attendee_name", "scan_time_utc", "raw_qr"} //nolint:gochecknoglobals // fixed CSV contract

// ParseScanTime accepts RFC 3339 and naive ISO 8601 timestamps, the latter
// read as UTC.
func ParseScanTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
