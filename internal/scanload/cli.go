package scanload

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/turnstile/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0o600
)

// SetupLogging sends logs to stdout and to logFile. If logFile is empty, a
// timestamped filename is generated.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		logFile = "scan_load_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file, nil
}

// ShowHelp prints usage information for the scan load tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Scan Load Tool
==============

Drives a check-in service with concurrent scans and checks that every
registered ticket is checked in exactly once.

Usage:
  scan-load [options]
  scan-load -generate N -registrations out.csv

Options:
  -url string
        Base URL of the check-in service (default "http://localhost:8000")
  -registrations string
        Registrations CSV whose tickets are scanned (default "registrations.csv")
  -generate int
        Write N synthetic registrations to -registrations and exit
  -prefix string
        Ticket prefix (default "GOOGA26")
  -repeats int
        Scans per registered ticket (default 3)
  -unknown int
        Codes for tickets nobody registered
  -malformed int
        Codes without the order:digits shape
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -timeout duration
        Per-request timeout (default 10s)
  -output string
        Save the generated scans as JSON
  -log string
        Log file (default: scan_load_TIMESTAMP.log)
  -verbose
        Log every outcome
  -help
        Show this help message

Examples:
  # Seed a service with 500 attendees, then load it
  scan-load -generate 500 -registrations regs.csv
  checkin-server import regs.csv
  scan-load -registrations regs.csv -repeats 4 -unknown 50 -malformed 20
`)
}
