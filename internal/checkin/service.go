package checkin

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/okian/turnstile/internal/domain/ticket"
	"github.com/okian/turnstile/pkg/checkinapi"
	"github.com/okian/turnstile/pkg/logger"
	"github.com/okian/turnstile/pkg/metrics"
)

const (
	defaultRecent    = 5
	defaultMaxRecent = 100
)

// Service resolves scans against registrations and records attendance.
type Service struct {
	store     *Store
	prefix    string
	maxRecent int
	now       func() time.Time
	logger    logger.Logger
}

// NewService builds a service over store.
func NewService(store *Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		prefix:    ticket.DefaultPrefix,
		maxRecent: defaultMaxRecent,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("checkin")
	}
	return s
}

// Scan resolves a raw decoded code. Every outcome, including failures, is
// reported in the response status.
func (s *Service) Scan(ctx context.Context, raw string) checkinapi.ScanResponse {
	raw = strings.TrimSpace(raw)
	id, ok := ticket.Derive(raw, s.prefix)
	if !ok {
		metrics.RecordCheckIn(checkinapi.StatusInvalidFormat)
		return checkinapi.ScanResponse{Status: checkinapi.StatusInvalidFormat, RawQR: raw}
	}
	return s.checkIn(ctx, id, raw)
}

// Manual resolves an operator-typed ticket.
func (s *Service) Manual(ctx context.Context, typed string) checkinapi.ScanResponse {
	typed = strings.TrimSpace(typed)
	id, ok := ticket.Typed(typed, s.prefix)
	if !ok {
		metrics.RecordCheckIn(checkinapi.StatusInvalidFormat)
		return checkinapi.ScanResponse{Status: checkinapi.StatusInvalidFormat, RawQR: typed}
	}
	return s.checkIn(ctx, id, typed)
}

func (s *Service) checkIn(ctx context.Context, id, raw string) checkinapi.ScanResponse {
	resp := checkinapi.ScanResponse{TicketNumber: id, RawQR: raw}

	reg, err := s.store.Lookup(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		resp.Status = checkinapi.StatusNotFound
		metrics.RecordCheckIn(resp.Status)
		return resp
	case err != nil:
		s.logger.Error(ctx, "lookup failed", logger.String("ticket", id), logger.Error(err))
		resp.Status, resp.Error = checkinapi.StatusError, "lookup_failed"
		metrics.RecordCheckIn(resp.Status)
		return resp
	}

	name := reg.FullName()
	inserted, first, err := s.store.Mark(ctx, Attendance{
		TicketNumber: id,
		AttendeeName: name,
		ScanTimeUTC:  s.now(),
		RawQR:        raw,
	})
	if err != nil {
		s.logger.Error(ctx, "mark attendance failed", logger.String("ticket", id), logger.Error(err))
		resp.Status, resp.Error = checkinapi.StatusError, "attendance_failed"
		metrics.RecordCheckIn(resp.Status)
		return resp
	}

	resp.Status = checkinapi.StatusDuplicate
	if inserted {
		resp.Status = checkinapi.StatusOK
	}
	resp.Attendee = &checkinapi.Attendee{Name: name}
	resp.FirstScanTimeUTC = first.UTC().Format(time.RFC3339Nano)
	metrics.RecordCheckIn(resp.Status)
	s.logger.Info(ctx, "check-in",
		logger.String("status", resp.Status),
		logger.String("ticket", id))
	return resp
}

// Attendee returns the registration for a ticket number.
func (s *Service) Attendee(ctx context.Context, id string) (checkinapi.AttendeeResponse, error) {
	reg, err := s.store.Lookup(ctx, strings.TrimSpace(id))
	if err != nil {
		return checkinapi.AttendeeResponse{}, err
	}
	return checkinapi.AttendeeResponse{
		TicketNumber: reg.TicketNumber,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
	}, nil
}

// Stats returns the present count.
func (s *Service) Stats(ctx context.Context) (checkinapi.StatsResponse, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return checkinapi.StatsResponse{}, err
	}
	return checkinapi.StatsResponse{PresentCount: int(n)}, nil
}

// Recent lists the latest check-ins. A non-positive limit uses the default;
// large limits are capped.
func (s *Service) Recent(ctx context.Context, limit int) (checkinapi.RecentResponse, error) {
	if limit <= 0 {
		limit = defaultRecent
	}
	if limit > s.maxRecent {
		limit = s.maxRecent
	}
	rows, err := s.store.Recent(ctx, limit)
	if err != nil {
		return checkinapi.RecentResponse{}, err
	}
	out := checkinapi.RecentResponse{Items: make([]checkinapi.RecentEntry, 0, len(rows))}
	for _, r := range rows {
		out.Items = append(out.Items, checkinapi.RecentEntry{
			TicketNumber: r.TicketNumber,
			AttendeeName: r.AttendeeName,
			ScanTimeUTC:  r.ScanTimeUTC.UTC(),
		})
	}
	return out, nil
}

// Export writes all attendance as CSV in scan order.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(checkinapi.ExportHeader); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}
	err := s.store.EachAttendance(ctx, func(a Attendance) error {
		return cw.Write([]string{
			a.TicketNumber,
			a.AttendeeName,
			a.ScanTimeUTC.UTC().Format(time.RFC3339Nano),
			a.RawQR,
		})
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
