package vitalsim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/medreach/vitalguard/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete vitals simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting vitals simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("readings", config.NumReadings),
		logger.Int("patients", config.NumPatients),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate readings
	readings, err := generateReadings(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("reading generation failed: %w", err)
	}

	// Step 3: Submit readings concurrently
	if err := submitReadings(ctx, config, readings, stats); err != nil {
		return fmt.Errorf("reading submission failed: %w", err)
	}

	// Step 4: Wait for processing
	logger.Get().Info(ctx, "waiting for readings to be processed")
	time.Sleep(ProcessingDelay)

	// Step 5: Retrieve risk assessments concurrently
	risks, err := retrieveRisks(ctx, config, readings, stats)
	if err != nil {
		return fmt.Errorf("risk retrieval failed: %w", err)
	}

	// Step 6: Collect active emergencies
	emergencies, err := retrieveEmergencies(ctx, config, uniquePatientIDs(readings), stats)
	if err != nil {
		return fmt.Errorf("emergency collection failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(config, risks, emergencies); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save readings to file
	if err := saveReadingsToFile(ctx, config, readings); err != nil {
		logger.Get().Warn(ctx, "failed to save readings to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveReadingsToFile saves the generated readings to a JSON file.
func saveReadingsToFile(ctx context.Context, config *Config, readings []Reading) error {
	if len(readings) == 0 {
		return fmt.Errorf("no readings to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_readings_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write readings to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, reading := range readings {
		jsonData, err := marshalJSON(reading)
		if err != nil {
			return fmt.Errorf("failed to marshal reading %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write reading %d: %w", i, err)
		}

		// Add comma except for last reading
		if i < len(readings)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "readings saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var successRate, readingsPerSecond float64

	if stats.ReadingsSubmitted > 0 {
		successRate = float64(stats.ReadingsSuccessful) / float64(stats.ReadingsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		readingsPerSecond = float64(stats.ReadingsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("readingsGenerated", stats.ReadingsGenerated),
		logger.Int("readingsSubmitted", stats.ReadingsSubmitted),
		logger.Int("readingsSuccessful", stats.ReadingsSuccessful),
		logger.Int("readingsDuplicate", stats.ReadingsDuplicate),
		logger.Int("readingsFailed", stats.ReadingsFailed),
		logger.Int("risksRetrieved", stats.RisksRetrieved),
		logger.Int("emergenciesFound", stats.EmergenciesFound),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("readingsPerSecond", readingsPerSecond))
}
