package vitalsim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/medreach/vitalguard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "sim_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the vitals simulator tool.
func ShowHelp() {
	os.Stdout.WriteString(`VitalGuard Vitals Simulator
===========================

A concurrent tool for load testing the vitals monitoring system with
synthetic patient readings.

Usage:
  go run cmd/vitals-sim/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -readings int
        Number of readings to generate and submit (default 10000)
  -patients int
        Number of synthetic patients (default 100)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated readings (default: generated_readings_TIMESTAMP.json)
  -log string
        Log file for simulator output (default: sim_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/vitals-sim/main.go

  # Simulate with custom parameters
  go run cmd/vitals-sim/main.go -readings 50000 -patients 500 -workers 16 -url http://localhost:8080

  # Simulate with verbose output
  go run cmd/vitals-sim/main.go -verbose -readings 10000

  # Simulate with custom log file
  go run cmd/vitals-sim/main.go -readings 50000 -log my_sim.log
`)
}
