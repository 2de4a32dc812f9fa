package presentation

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/okian/turnstile/internal/domain/model"
)

// Tone is the visual treatment of an outcome panel.
type Tone int

const (
	TonePositive Tone = iota
	ToneDuplicate
	ToneNotFound
	ToneFormat
	ToneFailure
)

func (t Tone) String() string {
	switch t {
	case TonePositive:
		return "positive"
	case ToneDuplicate:
		return "duplicate"
	case ToneNotFound:
		return "not_found"
	case ToneFormat:
		return "format"
	case ToneFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// View is what the outcome panel shows for one outcome.
type View struct {
	Tone         Tone
	Status       model.Status
	Message      string
	Raw          string
	Source       model.Source
	TicketID     string
	AttendeeName string
	FirstScanAt  time.Time

	// ManualOverrideEnabled is always false while a result is shown.
	ManualOverrideEnabled bool
}

// Render maps an outcome to its panel. The mapping is fixed per status.
func Render(o model.Outcome) View {
	v := View{
		Status:       o.Status,
		Raw:          o.Raw,
		Source:       o.Source,
		TicketID:     o.TicketID,
		AttendeeName: o.AttendeeName,
		FirstScanAt:  o.FirstScanAt,
	}
	switch o.Status {
	case model.StatusSuccess:
		v.Tone = TonePositive
		v.Message = "Checked in successfully."
	case model.StatusAlreadyCheckedIn:
		v.Tone = ToneDuplicate
		v.Message = "Already checked!"
	case model.StatusUnknownTicket:
		v.Tone = ToneNotFound
		v.Message = "Ticket not found."
	case model.StatusMalformed:
		v.Tone = ToneFormat
		v.Message = "Invalid QR format."
	default:
		v.Tone = ToneFailure
		v.Message = "Server error"
		if o.Detail != "" {
			v.Message += ": " + o.Detail
		}
	}
	return v
}

// Lines renders the panel body as text rows, relative to now.
func (v View) Lines(now time.Time) []string {
	lines := []string{v.Message}
	if v.Raw != "" {
		lines = append(lines, "Raw: "+v.Raw)
	}
	if v.TicketID != "" {
		lines = append(lines, "Ticket: "+v.TicketID)
	}
	if v.AttendeeName != "" {
		lines = append(lines, "Name: "+v.AttendeeName)
	}
	if !v.FirstScanAt.IsZero() {
		lines = append(lines, "First scan: "+humanize.RelTime(v.FirstScanAt, now, "ago", "from now"))
	}
	return lines
}
