// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies where a candidate came from.
type Source int

const (
	SourceCamera Source = iota
	SourceDiscrete
	// SourceManual marks operator override lookups; they never pass the dedup gate.
	SourceManual
)

func (s Source) String() string {
	switch s {
	case SourceCamera:
		return "camera"
	case SourceDiscrete:
		return "discrete"
	case SourceManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Mode selects which input channel is live.
type Mode int

const (
	ModeCamera Mode = iota
	ModeDiscrete
)

func (m Mode) String() string {
	switch m {
	case ModeCamera:
		return "camera"
	case ModeDiscrete:
		return "discrete"
	default:
		return "unknown"
	}
}

// ParseMode accepts "camera" or "discrete" (case-insensitive). "keyboard" and
// "scanner" are accepted as aliases for discrete.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "camera":
		return ModeCamera, nil
	case "discrete", "keyboard", "scanner":
		return ModeDiscrete, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

// Candidate is a decoded or typed string proposed as a scan event.
type Candidate struct {
	Text       string
	Source     Source
	ObservedAt time.Time
}

// Normalized trims surrounding whitespace. ok is false when nothing is left,
// in which case the candidate must not reach the dedup gate.
func (c Candidate) Normalized() (Candidate, bool) {
	c.Text = strings.TrimSpace(c.Text)
	return c, c.Text != ""
}

// Status is the outcome variant returned for an accepted candidate.
type Status int

const (
	StatusSuccess Status = iota
	StatusAlreadyCheckedIn
	StatusUnknownTicket
	StatusMalformed
	StatusTransportError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusAlreadyCheckedIn:
		return "already_checked_in"
	case StatusUnknownTicket:
		return "unknown_ticket"
	case StatusMalformed:
		return "malformed"
	case StatusTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Outcome is the resolved result of submitting one candidate.
type Outcome struct {
	Status       Status
	Raw          string
	Source       Source
	TicketID     string
	AttendeeName string
	Detail       string
	FirstScanAt  time.Time
}

// State is the presentation state.
type State int

const (
	StateIdle State = iota
	StateAwaitingResult
	StateShowingResult
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResult:
		return "awaiting_result"
	case StateShowingResult:
		return "showing_result"
	default:
		return "unknown"
	}
}

// EventKind tags messages flowing through the terminal inbox.
type EventKind int

const (
	EventCandidate EventKind = iota
	EventOutcome
	EventDismiss
	EventSetMode
	EventManual
	EventNotice
	EventBlur
	EventNextDevice
	EventSnapshot
	EventStats
)

func (k EventKind) String() string {
	switch k {
	case EventCandidate:
		return "candidate"
	case EventOutcome:
		return "outcome"
	case EventDismiss:
		return "dismiss"
	case EventSetMode:
		return "set_mode"
	case EventManual:
		return "manual"
	case EventNotice:
		return "notice"
	case EventBlur:
		return "blur"
	case EventNextDevice:
		return "next_device"
	case EventSnapshot:
		return "snapshot"
	case EventStats:
		return "stats"
	default:
		return "unknown"
	}
}

// Event is the envelope processed by the terminal loop. Generation tags
// events produced by an input channel activation; stale generations are
// discarded after a mode switch.
type Event struct {
	Kind       EventKind
	Generation uint64
	Candidate  Candidate
	Outcome    Outcome
	Mode       Mode
	Notice     string

	// Stats and Recent carry a polled attendance refresh. RecentFailed marks
	// a refresh whose recent list could not be read.
	Stats        Stats
	Recent       []CheckIn
	RecentFailed bool

	// Reply, when set, receives the result of a command exactly once.
	Reply chan error

	// SnapshotReply receives the loop state for EventSnapshot.
	SnapshotReply chan Snapshot
}

// Snapshot is a point-in-time view of the terminal state.
type Snapshot struct {
	Mode         Mode      `json:"-"`
	ModeName     string    `json:"mode"`
	State        string    `json:"state"`
	Device       string    `json:"device,omitempty"`
	LastAccepted string    `json:"last_accepted,omitempty"`
	LastAt       time.Time `json:"last_accepted_at,omitempty"`
	Pending      bool      `json:"pending_replacement"`
	Generation   uint64    `json:"generation"`
	Notice       string    `json:"notice,omitempty"`
	Accepted     int64     `json:"accepted"`
	Suppressed   int64     `json:"suppressed"`
	PresentCount int       `json:"present_count"`
}

// CheckIn is one row of the recent check-ins listing.
type CheckIn struct {
	TicketNumber string    `json:"ticket_number"`
	AttendeeName string    `json:"attendee_name"`
	ScanTime     time.Time `json:"scan_time_utc"`
}

// Stats carries aggregate attendance counters.
type Stats struct {
	PresentCount int `json:"present_count"`
}
