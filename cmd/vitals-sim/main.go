package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/medreach/vitalguard/internal/vitalsim"
)

// Default configuration constants.
const (
	defaultNumReadings = 10000
	defaultNumPatients = 100
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSimTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numReadings = flag.Int("readings", defaultNumReadings, "Number of readings to generate and submit")
		numPatients = flag.Int("patients", defaultNumPatients, "Number of synthetic patients")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Output file for generated readings (default: generated_readings_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for simulator output (default: sim_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		vitalsim.ShowHelp()
		return
	}

	// Setup logging
	if err := vitalsim.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultSimTimeout)
	defer cancel()

	// Create simulation configuration
	config := &vitalsim.Config{
		BaseURL:     *baseURL,
		NumReadings: *numReadings,
		NumPatients: *numPatients,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the simulation
	if err := vitalsim.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}
