package model

// RiskLevel is the multi-level risk tier produced by the predictor.
type RiskLevel string

const (
	// RiskUnknown is returned when there is not enough history to
	// predict anything.
	RiskUnknown  RiskLevel = "unknown"
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// MetricAverages holds per-metric arithmetic means over the recent
// subset of a patient's history. A nil field means no value was
// present for that metric in the subset ("no data", not zero).
type MetricAverages struct {
	HeartRate   *float64 `json:"heartRate"`
	SpO2        *float64 `json:"spo2"`
	Temperature *float64 `json:"temperature"`
	SystolicBP  *float64 `json:"systolicBP"`
	DiastolicBP *float64 `json:"diastolicBP"`
	Sugar       *float64 `json:"sugar"`
	Cholesterol *float64 `json:"cholesterol"`
}

// RiskSummary describes the window the assessment was computed from.
type RiskSummary struct {
	Total    int            `json:"total"`
	Critical int            `json:"critical"`
	Warning  int            `json:"warning"`
	Normal   int            `json:"normal"`
	Averages MetricAverages `json:"averages"`
}

// RiskAssessment is computed on demand from a patient's recent
// readings. It is derived state: never persisted, always recomputed.
//
// JSON field names mirror the public API and must stay stable.
type RiskAssessment struct {
	RiskLevel    RiskLevel   `json:"riskLevel"`
	FutureIssues []string    `json:"possibleFutureDiseases"`
	Confidence   float64     `json:"confidenceScore"`
	Explanation  string      `json:"explanation"`
	Summary      RiskSummary `json:"summary"`
}

// Escalates reports whether the assessment warrants an automatic
// emergency for the patient.
func (r *RiskAssessment) Escalates() bool {
	return r.RiskLevel == RiskHigh || r.RiskLevel == RiskCritical
}
