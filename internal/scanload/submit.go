package scanload

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/turnstile/internal/adapters/gateway"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/pkg/logger"
)

const reportInterval = time.Second

// counters are shared by the submit workers.
type counters struct {
	submitted atomic.Int64
	checkedIn atomic.Int64
	duplicate atomic.Int64
	unknown   atomic.Int64
	malformed atomic.Int64
	failed    atomic.Int64
}

func (c *counters) add(s model.Status) {
	c.submitted.Add(1)
	switch s {
	case model.StatusSuccess:
		c.checkedIn.Add(1)
	case model.StatusAlreadyCheckedIn:
		c.duplicate.Add(1)
	case model.StatusUnknownTicket:
		c.unknown.Add(1)
	case model.StatusMalformed:
		c.malformed.Add(1)
	default:
		c.failed.Add(1)
	}
}

// submitScans posts scans concurrently through the terminal gateway.
func submitScans(ctx context.Context, config *Config, gw *gateway.Client, scans []Scan, stats *Stats) {
	l := logger.Get()
	l.Info(ctx, "submitting scans", logger.Int("count", len(scans)), logger.Int("workers", config.Workers))

	var (
		c          counters
		lastReport atomic.Int64
		wg         sync.WaitGroup
	)
	workers := max(min(config.Workers, len(scans)), 1)
	scanChan := make(chan Scan, workers*WorkerChannelMultiplier)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for scan := range scanChan {
				if ctx.Err() != nil {
					continue
				}
				o := gw.Scan(ctx, scan.Raw)
				c.add(o.Status)
				if config.Verbose {
					l.Info(ctx, "scan outcome",
						logger.String("raw", scan.Raw),
						logger.String("status", o.Status.String()),
						logger.String("expected", scan.Expected.String()))
				}
				report(config, &c, &lastReport, len(scans))
			}
		}()
	}

	go func() {
		defer close(scanChan)
		for _, scan := range scans {
			select {
			case <-ctx.Done():
				return
			case scanChan <- scan:
			}
		}
	}()

	wg.Wait()
	if config.Out != nil {
		fmt.Fprintln(config.Out)
	}

	stats.ScansSubmitted = int(c.submitted.Load())
	stats.CheckedIn = int(c.checkedIn.Load())
	stats.Duplicate = int(c.duplicate.Load())
	stats.Unknown = int(c.unknown.Load())
	stats.Malformed = int(c.malformed.Load())
	stats.Failed = int(c.failed.Load())

	l.Info(ctx, "scan submission completed",
		logger.Int("checkedIn", stats.CheckedIn),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("unknown", stats.Unknown),
		logger.Int("malformed", stats.Malformed),
		logger.Int("failed", stats.Failed))
}

// report prints a progress line at most once per interval.
func report(config *Config, c *counters, last *atomic.Int64, total int) {
	if config.Out == nil {
		return
	}
	now := time.Now().UnixNano()
	prev := last.Load()
	if now-prev < int64(reportInterval) || !last.CompareAndSwap(prev, now) {
		return
	}
	fmt.Fprintf(config.Out, "\rSubmitted: %d/%d (checked in: %d, duplicate: %d, failed: %d)",
		c.submitted.Load(), total, c.checkedIn.Load(), c.duplicate.Load(), c.failed.Load())
}
