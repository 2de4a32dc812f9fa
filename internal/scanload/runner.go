package scanload

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/turnstile/internal/adapters/gateway"
	"github.com/okian/turnstile/internal/checkin"
	"github.com/okian/turnstile/pkg/logger"
)

// Run executes a complete scan load run against a check-in service and
// returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	l := logger.Get()

	l.Info(ctx, "starting scan load run",
		logger.String("baseURL", config.BaseURL),
		logger.String("registrations", config.Registrations),
		logger.Int("repeats", config.Repeats),
		logger.Int("unknown", config.Unknown),
		logger.Int("malformed", config.Malformed),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	gw := gateway.New(config.BaseURL, gateway.WithTimeout(timeout))

	// Step 1: Check the service answers
	if err := gw.Ping(ctx); err != nil {
		return nil, fmt.Errorf("service ping failed: %w", err)
	}

	// Step 2: Load registrations
	regs, err := loadRegistrations(config.Registrations)
	if err != nil {
		return nil, err
	}

	// Step 3: Generate scans
	scans, err := generateScans(ctx, config, regs, stats)
	if err != nil {
		return nil, err
	}

	before, err := gw.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("read stats before run: %w", err)
	}
	stats.PresentBefore = before.PresentCount

	// Step 4: Submit scans concurrently
	submitScans(ctx, config, gw, scans, stats)
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("run interrupted: %w", err)
	}

	after, err := gw.Stats(ctx)
	if err != nil {
		return stats, fmt.Errorf("read stats after run: %w", err)
	}
	stats.PresentAfter = after.PresentCount

	// Step 5: Save scans to file
	if config.OutputFile != "" {
		if err := saveScansToFile(ctx, config.OutputFile, scans); err != nil {
			l.Warn(ctx, "failed to save scans to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	// Step 6: Verify results
	if err := verifyResults(ctx, stats); err != nil {
		return stats, err
	}
	l.Info(ctx, "scan load run completed")
	return stats, nil
}

func loadRegistrations(path string) ([]checkin.Registration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registrations: %w", err)
	}
	defer f.Close()

	regs, _, err := checkin.ReadRegistrations(f)
	if err != nil {
		return nil, err
	}
	return regs, nil
}

// saveScansToFile writes the generated scans as a JSON array.
func saveScansToFile(ctx context.Context, filename string, scans []Scan) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	type savedScan struct {
		Scan
		Expected string `json:"expected"`
	}
	out := make([]savedScan, len(scans))
	for i, s := range scans {
		out[i] = savedScan{Scan: s, Expected: s.Expected.String()}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scans: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write scans: %w", err)
	}

	logger.Get().Info(ctx, "scans saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var okRate, scansPerSecond float64
	if stats.ScansSubmitted > 0 {
		okRate = float64(stats.ScansSubmitted-stats.Failed) / float64(stats.ScansSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		scansPerSecond = float64(stats.ScansSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("scansGenerated", stats.ScansGenerated),
		logger.Int("scansSubmitted", stats.ScansSubmitted),
		logger.Int("checkedIn", stats.CheckedIn),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("unknown", stats.Unknown),
		logger.Int("malformed", stats.Malformed),
		logger.Int("failed", stats.Failed),
		logger.Int("presentBefore", stats.PresentBefore),
		logger.Int("presentAfter", stats.PresentAfter),
		logger.Duration("duration", stats.Duration),
		logger.Float64("answeredRate", okRate),
		logger.Float64("scansPerSecond", scansPerSecond))
}
