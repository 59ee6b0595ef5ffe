package vitalsim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitReadings submits readings concurrently using worker pools
func submitReadings(ctx context.Context, config *Config, readings []Reading, stats *Stats) error {
	log.Printf("submitting %d readings with %d workers", len(readings), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/readings"

	// Counters for statistics
	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	readingChan := make(chan Reading, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for reading := range readingChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleReading(ctx, client, url, reading)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						dup := atomic.LoadInt64(&duplicate)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("progress: %d/%d submitted (success: %d, duplicate: %d, failed: %d)",
								total, len(readings), succ, dup, fail)
						} else {
							fmt.Printf("\rsubmitted: %d/%d (success: %d, duplicate: %d, failed: %d)",
								total, len(readings), succ, dup, fail)
						}
					}
				}
			}
		}()
	}

	// Send readings to workers
	go func() {
		defer close(readingChan)
		for _, reading := range readings {
			select {
			case <-ctx.Done():
				return
			case readingChan <- reading:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.ReadingsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ReadingsSuccessful = int(atomic.LoadInt64(&successful))
	stats.ReadingsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.ReadingsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`reading submission completed:
   Successful: %d
   Duplicate: %d
   Failed: %d
`, stats.ReadingsSuccessful, stats.ReadingsDuplicate, stats.ReadingsFailed)

	return nil
}

// submitSingleReading submits a single reading and returns the result
func submitSingleReading(ctx context.Context, client *HTTPClient, url string, reading Reading) string {
	resp, err := client.Post(ctx, url, reading)
	if err != nil {
		return "failed"
	}

	// Read response body
	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	// Parse response based on status code
	switch resp.StatusCode {
	case StatusAccepted:
		// Accepted - new reading
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err == nil && ack.Status == "accepted" {
			return "success"
		}
		return "success" // Assume success for 202 even if parsing fails
	case StatusOK:
		// OK - duplicate reading
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate" // Assume duplicate for 200 even if parsing fails
	case StatusBusy:
		// Queue full
		return "failed"
	default:
		// Error
		return "failed"
	}
}
