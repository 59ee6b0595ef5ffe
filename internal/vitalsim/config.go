package vitalsim

import "time"

// Config holds configuration for the vitals load test
type Config struct {
	BaseURL     string        // Base URL of the service
	NumReadings int           // Number of readings to generate
	NumPatients int           // Number of synthetic patients
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for readings
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// Reading represents a vitals reading to be submitted
type Reading struct {
	ReadingID   string   `json:"readingId"`
	PatientID   string   `json:"patientId"`
	HeartRate   float64  `json:"heartRate"`
	SpO2        float64  `json:"spo2"`
	Temperature float64  `json:"temperature"`
	SystolicBP  *float64 `json:"systolicBP,omitempty"`
	DiastolicBP *float64 `json:"diastolicBP,omitempty"`
	Timestamp   string   `json:"timestamp"`
}

// RiskSummary mirrors the summary block of a risk assessment response
type RiskSummary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Normal   int `json:"normal"`
}

// RiskResult represents a patient risk assessment as returned by the API.
// PatientID is filled in locally from the request path.
type RiskResult struct {
	PatientID  string      `json:"-"`
	RiskLevel  string      `json:"riskLevel"`
	Confidence float64     `json:"confidenceScore"`
	Summary    RiskSummary `json:"summary"`
}

// Emergency represents an emergency event as returned by the API
type Emergency struct {
	ID        string `json:"id"`
	PatientID string `json:"patientId"`
	Status    string `json:"status"`
	Type      string `json:"emergencyType"`
	AlertSent bool   `json:"alertSent"`
}

// AckResponse represents the response from reading submission
type AckResponse struct {
	Status    string `json:"status"`
	ReadingID string `json:"readingId"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics
type Stats struct {
	ReadingsGenerated  int
	ReadingsSubmitted  int
	ReadingsSuccessful int
	ReadingsDuplicate  int
	ReadingsFailed     int
	RisksRetrieved     int
	EmergenciesFound   int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
