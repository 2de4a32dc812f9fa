package scanload

import (
	"io"
	"time"

	"github.com/okian/turnstile/internal/domain/model"
)

// Config holds configuration for a scan load run.
type Config struct {
	BaseURL       string        // Base URL of the check-in service
	Registrations string        // Registrations CSV whose tickets are scanned
	Prefix        string        // Ticket prefix stripped to build scan codes
	Repeats       int           // Scans per registered ticket
	Unknown       int           // Well-formed codes for tickets nobody registered
	Malformed     int           // Codes without the order:digits shape
	Workers       int           // Number of concurrent submitters
	Timeout       time.Duration // Per-request timeout
	OutputFile    string        // Where the generated scans are saved, if set
	Verbose       bool          // Log every outcome
	Out           io.Writer     // Progress output; nil disables it
}

// Scan is one code submitted to the service. Expected is the outcome the
// first submission of Raw should get.
type Scan struct {
	Raw      string       `json:"raw_qr"`
	Ticket   string       `json:"ticket_number,omitempty"`
	Expected model.Status `json:"-"`
}

// Stats holds run statistics.
type Stats struct {
	ScansGenerated  int
	ScansSubmitted  int
	CheckedIn       int
	Duplicate       int
	Unknown         int
	Malformed       int
	Failed          int
	PresentBefore   int
	PresentAfter    int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
	ExpectedUnknown int
	ExpectedInvalid int
}
