// Package model contains domain models passed between layers.
package model

import "time"

// Status is the severity tier derived from a single vitals reading.
type Status string

// Severity tiers, ordered from least to most severe.
const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Rank returns the severity order of a status for dominance comparisons.
func (s Status) Rank() int {
	switch s {
	case StatusWarning:
		return 1
	case StatusCritical:
		return 2
	default:
		return 0
	}
}

// MaxStatus returns the more severe of two statuses.
func MaxStatus(a, b Status) Status {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// VitalsReading is one timestamped set of physiological measurements
// for a patient. Readings are immutable once created; per-patient
// history is append-only. Heart rate, SpO2 and temperature are
// required; the remaining metrics are optional and nil means
// "not evaluated", never zero.
//
// JSON field names mirror the public API and must stay stable.
type VitalsReading struct {
	ReadingID   string    `json:"readingId"`
	PatientID   string    `json:"patientId"`
	HeartRate   float64   `json:"heartRate"`   // beats per minute
	SpO2        float64   `json:"spo2"`        // percent
	Temperature float64   `json:"temperature"` // degrees Celsius
	SystolicBP  *float64  `json:"systolicBP"`  // mmHg
	DiastolicBP *float64  `json:"diastolicBP"` // mmHg
	Sugar       *float64  `json:"sugar"`       // mg/dL
	Cholesterol *float64  `json:"cholesterol"` // mg/dL
	Status      Status    `json:"status"`      // derived by the classifier
	Timestamp   time.Time `json:"timestamp"`
}
