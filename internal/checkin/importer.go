package checkin

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Registration export columns.
const (
	ColumnTicket    = "Ticket number"
	ColumnFirstName = "First Name"
	ColumnLastName  = "Last Name"
)

// ImportResult reports what an import did.
type ImportResult struct {
	Inserted int
	Skipped  int
}

// ReadRegistrations parses a registrations CSV. Rows with a blank ticket are
// counted in blank and left out.
func ReadRegistrations(r io.Reader) (regs []Registration, blank int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("%w: empty file", ErrImport)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read header: %w", ErrImport, err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	ticketCol, ok := cols[ColumnTicket]
	if !ok {
		return nil, 0, fmt.Errorf("%w: missing %q column", ErrImport, ColumnTicket)
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: read row: %w", ErrImport, err)
		}
		if ticketCol >= len(rec) || strings.TrimSpace(rec[ticketCol]) == "" {
			blank++
			continue
		}
		regs = append(regs, Registration{
			TicketNumber: strings.TrimSpace(rec[ticketCol]),
			FirstName:    field(rec, ColumnFirstName),
			LastName:     field(rec, ColumnLastName),
		})
	}
	return regs, blank, nil
}

// Import loads a registrations CSV into store. Tickets already present are
// ignored and counted as skipped, like blank rows.
func Import(ctx context.Context, store *Store, r io.Reader) (ImportResult, error) {
	regs, blank, err := ReadRegistrations(r)
	if err != nil {
		return ImportResult{}, err
	}
	inserted, ignored, err := store.AddRegistrations(ctx, regs)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %w", ErrImport, err)
	}
	return ImportResult{Inserted: inserted, Skipped: blank + ignored}, nil
}
