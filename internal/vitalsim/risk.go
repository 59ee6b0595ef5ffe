package vitalsim

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// uniquePatientIDs extracts the distinct patient IDs from a batch of readings.
func uniquePatientIDs(readings []Reading) []string {
	seen := make(map[string]struct{}, len(readings))
	ids := make([]string, 0, len(readings))
	for _, r := range readings {
		if _, ok := seen[r.PatientID]; ok {
			continue
		}
		seen[r.PatientID] = struct{}{}
		ids = append(ids, r.PatientID)
	}
	return ids
}

// retrieveRisks retrieves risk assessments for all patients concurrently.
func retrieveRisks(ctx context.Context, config *Config, readings []Reading, stats *Stats) ([]RiskResult, error) {
	patientIDs := uniquePatientIDs(readings)
	log.Printf("retrieving risk assessments for %d patients with %d workers", len(patientIDs), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Results storage
	risks := make([]RiskResult, len(patientIDs))
	var (
		retrieved int64
		failed    int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	patientChan := make(chan int, config.Workers*WorkerChannelMultiplier) // Send indices instead of IDs
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range patientChan {
				select {
				case <-ctx.Done():
					return
				default:
					patientID := patientIDs[index]
					result, err := retrieveSingleRisk(ctx, client, config.BaseURL, patientID)

					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("failed to get risk for %s: %v", patientID, err)
						}
					} else {
						risks[index] = result
						atomic.AddInt64(&retrieved, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&retrieved) + atomic.LoadInt64(&failed)
						ret := atomic.LoadInt64(&retrieved)
						fail := atomic.LoadInt64(&failed)

						log.Printf("risk progress: %d/%d retrieved (success: %d, failed: %d)",
							total, len(patientIDs), ret, fail)
					}
				}
			}
		}()
	}

	// Send patient indices to workers
	go func() {
		defer close(patientChan)
		for i := range patientIDs {
			select {
			case <-ctx.Done():
				return
			case patientChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Filter out empty entries (failed retrievals)
	validRisks := make([]RiskResult, 0, len(risks))
	for _, r := range risks {
		if r.PatientID != "" { // Empty PatientID indicates failed retrieval
			validRisks = append(validRisks, r)
		}
	}

	// Update stats
	stats.RisksRetrieved = len(validRisks)

	log.Printf(`risk retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(validRisks), int(atomic.LoadInt64(&failed)))

	return validRisks, nil
}

// retrieveSingleRisk retrieves the risk assessment for a single patient.
func retrieveSingleRisk(ctx context.Context, client *HTTPClient, baseURL, patientID string) (RiskResult, error) {
	url := fmt.Sprintf("%s/patients/%s/risk", baseURL, patientID)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return RiskResult{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return RiskResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return RiskResult{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var result RiskResult
	if err := unmarshalJSON(body, &result); err != nil {
		return RiskResult{}, fmt.Errorf("failed to parse response: %w", err)
	}
	result.PatientID = patientID

	return result, nil
}

// retrieveEmergencies collects the active emergencies across all patients.
func retrieveEmergencies(ctx context.Context, config *Config, patientIDs []string, stats *Stats) ([]Emergency, error) {
	log.Printf("collecting active emergencies for %d patients", len(patientIDs))

	client := newHTTPClient(config.Timeout)

	var emergencies []Emergency
	for _, patientID := range patientIDs {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during emergency collection: %w", ctx.Err())
		default:
		}

		events, err := retrievePatientEmergencies(ctx, client, config.BaseURL, patientID)
		if err != nil {
			if config.Verbose {
				log.Printf("failed to get emergencies for %s: %v", patientID, err)
			}
			continue
		}
		emergencies = append(emergencies, events...)
	}

	stats.EmergenciesFound = len(emergencies)
	log.Printf("found %d active emergencies", len(emergencies))

	return emergencies, nil
}

// retrievePatientEmergencies retrieves the active emergencies for one patient.
func retrievePatientEmergencies(ctx context.Context, client *HTTPClient, baseURL, patientID string) ([]Emergency, error) {
	url := fmt.Sprintf("%s/patients/%s/emergencies?active=true", baseURL, patientID)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var events []Emergency
	if err := unmarshalJSON(body, &events); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return events, nil
}
