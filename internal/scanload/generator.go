package scanload

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/okian/turnstile/internal/checkin"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/internal/domain/ticket"
	"github.com/okian/turnstile/pkg/logger"
)

// Constants for code generation.
const (
	orderNumberLimit = 100000
	firstTicketDigit = 1000000
	unknownDigitBase = 9000000
)

// Sample names for synthetic registrations.
//
//nolint:gochecknoglobals // fixed sample data
var (
	firstNames = []string{"Ada", "Alan", "Grace", "Edsger", "Barbara", "Donald", "Frances", "Ken"}
	lastNames  = []string{"Lovelace", "Turing", "Hopper", "Dijkstra", "Liskov", "Knuth", "Allen", "Thompson"}
)

// randomInt returns a uniform value in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// GenerateRegistrations creates n synthetic registrations with sequential
// ticket numbers under prefix.
func GenerateRegistrations(n int, prefix string) []checkin.Registration {
	if prefix == "" {
		prefix = ticket.DefaultPrefix
	}
	regs := make([]checkin.Registration, n)
	for i := range regs {
		regs[i] = checkin.Registration{
			TicketNumber: prefix + strconv.Itoa(firstTicketDigit+i),
			FirstName:    firstNames[i%len(firstNames)],
			LastName:     lastNames[(i/len(firstNames))%len(lastNames)],
		}
	}
	return regs
}

// WriteRegistrations writes regs in the registration export format.
func WriteRegistrations(w io.Writer, regs []checkin.Registration) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{checkin.ColumnTicket, checkin.ColumnFirstName, checkin.ColumnLastName}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range regs {
		if err := cw.Write([]string{r.TicketNumber, r.FirstName, r.LastName}); err != nil {
			return fmt.Errorf("write registration %s: %w", r.TicketNumber, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// generateScans builds the shuffled scan list for a run: Repeats codes per
// registration, each with a fresh order number, plus unknown and malformed
// codes.
func generateScans(ctx context.Context, config *Config, regs []checkin.Registration, stats *Stats) ([]Scan, error) {
	prefix := config.Prefix
	if prefix == "" {
		prefix = ticket.DefaultPrefix
	}
	repeats := max(config.Repeats, 1)

	scans := make([]Scan, 0, len(regs)*repeats+config.Unknown+config.Malformed)
	for _, r := range regs {
		digits, ok := strings.CutPrefix(r.TicketNumber, prefix)
		if !ok || digits == "" {
			return nil, fmt.Errorf("%w: ticket %q does not start with %q", ErrGenerate, r.TicketNumber, prefix)
		}
		for i := 0; i < repeats; i++ {
			want := model.StatusSuccess
			if i > 0 {
				want = model.StatusAlreadyCheckedIn
			}
			scans = append(scans, Scan{
				Raw:      strconv.Itoa(randomInt(orderNumberLimit)) + ":" + digits,
				Ticket:   r.TicketNumber,
				Expected: want,
			})
		}
	}
	for i := 0; i < config.Unknown; i++ {
		digits := strconv.Itoa(unknownDigitBase + i)
		scans = append(scans, Scan{
			Raw:      strconv.Itoa(randomInt(orderNumberLimit)) + ":" + digits,
			Ticket:   prefix + digits,
			Expected: model.StatusUnknownTicket,
		})
	}
	for i := 0; i < config.Malformed; i++ {
		scans = append(scans, Scan{
			Raw:      "TICKET-" + strconv.Itoa(randomInt(orderNumberLimit)),
			Expected: model.StatusMalformed,
		})
	}

	// Fisher-Yates so duplicates of a ticket race each other.
	for i := len(scans) - 1; i > 0; i-- {
		j := randomInt(i + 1)
		scans[i], scans[j] = scans[j], scans[i]
	}

	stats.ScansGenerated = len(scans)
	stats.ExpectedUnknown = config.Unknown
	stats.ExpectedInvalid = config.Malformed
	logger.Get().Info(ctx, "generated scans",
		logger.Int("count", len(scans)),
		logger.Int("registrations", len(regs)),
		logger.Int("repeats", repeats))
	return scans, nil
}
