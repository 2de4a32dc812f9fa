package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/okian/turnstile/internal/domain/ticket"
	"github.com/okian/turnstile/internal/scanload"
)

// Default configuration constants.
const (
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:8000", "Base URL of the check-in service")
		registrations = flag.String("registrations", "registrations.csv", "Registrations CSV whose tickets are scanned")
		generate      = flag.Int("generate", 0, "Write N synthetic registrations to -registrations and exit")
		prefix        = flag.String("prefix", ticket.DefaultPrefix, "Ticket prefix")
		repeats       = flag.Int("repeats", scanload.DefaultRepeats, "Scans per registered ticket")
		unknown       = flag.Int("unknown", 0, "Codes for tickets nobody registered")
		malformed     = flag.Int("malformed", 0, "Codes without the order:digits shape")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout       = flag.Duration("timeout", scanload.DefaultTimeout, "Per-request timeout")
		outputFile    = flag.String("output", "", "Save the generated scans as JSON")
		logFile       = flag.String("log", "", "Log file (default: scan_load_TIMESTAMP.log)")
		verbose       = flag.Bool("verbose", false, "Log every outcome")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		scanload.ShowHelp(os.Stdout)
		return
	}

	if *generate > 0 {
		if err := writeRegistrations(*registrations, *generate, *prefix); err != nil {
			os.Stderr.WriteString("Failed to generate registrations: " + err.Error() + "\n")
			os.Exit(1)
		}
		fmt.Printf("Wrote %d registrations to %s\n", *generate, *registrations)
		return
	}

	closer, err := scanload.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &scanload.Config{
		BaseURL:       *baseURL,
		Registrations: *registrations,
		Prefix:        *prefix,
		Repeats:       *repeats,
		Unknown:       *unknown,
		Malformed:     *malformed,
		Workers:       *workers,
		Timeout:       *timeout,
		OutputFile:    *outputFile,
		Verbose:       *verbose,
		Out:           os.Stdout,
	}
	if _, err := scanload.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}

func writeRegistrations(path string, n int, prefix string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := scanload.WriteRegistrations(f, scanload.GenerateRegistrations(n, prefix)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
