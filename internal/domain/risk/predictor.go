// Package risk aggregates a rolling history of readings into a
// multi-level risk score and a list of plausible future conditions.
package risk

import (
	"math"

	"github.com/medreach/vitalguard/internal/domain/model"
	"github.com/medreach/vitalguard/internal/domain/vitals"
)

// Default window sizes. The predictor looks at the last windowSize
// readings overall and averages metrics across the most recent
// recentSize of them.
const (
	defaultWindowSize = 30
	defaultRecentSize = 10
)

// Fixed explanation per risk tier.
const (
	msgUnknown  = "Not enough data to predict. Please add more health records."
	msgLow      = "LOW: Vitals are within acceptable ranges."
	msgModerate = "MODERATE: Minor fluctuations detected. Continue monitoring."
	msgHigh     = "HIGH: Some abnormal trends detected. Monitor closely and consult a doctor if symptoms persist."
	msgCritical = "CRITICAL: Abnormal vital signs detected. Immediate medical attention recommended."
)

// Future-condition triggers evaluated against recent averages.
const (
	respiratorySpO2Below = 92
	hypertensionSysFrom  = 140
	hypertensionDiaFrom  = 90
	hyperglycemiaFrom    = 180
	hypercholesterolFrom = 240
	arrhythmiaAboveHR    = 110
)

// Option applies a configuration option to the Predictor.
type Option func(*Predictor)

// WithWindowSize sets how many readings the predictor considers.
func WithWindowSize(n int) Option {
	return func(p *Predictor) {
		if n > 0 {
			p.windowSize = n
		}
	}
}

// WithRecentSize sets the size of the averaged recent subset.
func WithRecentSize(n int) Option {
	return func(p *Predictor) {
		if n > 0 {
			p.recentSize = n
		}
	}
}

// WithBands overrides the threshold table used to grade averages.
func WithBands(b vitals.Bands) Option {
	return func(p *Predictor) {
		if b != nil {
			p.bands = b
		}
	}
}

// Predictor derives a RiskAssessment from a patient's reading history.
// It combines recent-average analysis (same threshold bands as the
// classifier, applied to averaged values) with tier counts over the
// whole window. Assessments are derived state and never persisted.
type Predictor struct {
	windowSize int
	recentSize int
	bands      vitals.Bands
}

// New creates a predictor with default window sizes and clinical bands.
func New(opts ...Option) *Predictor {
	p := &Predictor{
		windowSize: defaultWindowSize,
		recentSize: defaultRecentSize,
		bands:      vitals.DefaultBands(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WindowSize returns the configured history window.
func (p *Predictor) WindowSize() int { return p.windowSize }

// Assess computes the risk assessment for a history ordered newest
// first. An empty history yields the distinguished "unknown" result
// rather than an error.
func (p *Predictor) Assess(history []model.VitalsReading) model.RiskAssessment {
	if len(history) == 0 {
		return model.RiskAssessment{
			RiskLevel:    model.RiskUnknown,
			FutureIssues: []string{},
			Explanation:  msgUnknown,
		}
	}
	if len(history) > p.windowSize {
		history = history[:p.windowSize]
	}

	recent := history
	if len(recent) > p.recentSize {
		recent = recent[:p.recentSize]
	}
	avgs := averages(recent)

	// Tier counts run over the entire window, not the recent subset.
	var criticalCount, warningCount, normalCount int
	for i := range history {
		switch history[i].Status {
		case model.StatusCritical:
			criticalCount++
		case model.StatusWarning:
			warningCount++
		case model.StatusNormal:
			normalCount++
		}
	}

	countCritical, countWarning := p.gradeAverages(avgs)

	level, explanation := p.level(countCritical, countWarning, criticalCount, warningCount, normalCount)

	confidence := math.Min(1, float64(len(history))/float64(p.windowSize))
	confidence = math.Round(confidence*100) / 100

	return model.RiskAssessment{
		RiskLevel:    level,
		FutureIssues: futureIssues(avgs),
		Confidence:   confidence,
		Explanation:  explanation,
		Summary: model.RiskSummary{
			Total:    len(history),
			Critical: criticalCount,
			Warning:  warningCount,
			Normal:   normalCount,
			Averages: roundedAverages(avgs),
		},
	}
}

// gradeAverages counts how many per-metric averages land in critical
// and warning bands. Metrics with no data are skipped.
func (p *Predictor) gradeAverages(a model.MetricAverages) (countCritical, countWarning int) {
	for _, mv := range []struct {
		metric vitals.Metric
		value  *float64
	}{
		{vitals.MetricHeartRate, a.HeartRate},
		{vitals.MetricSpO2, a.SpO2},
		{vitals.MetricTemperature, a.Temperature},
		{vitals.MetricSystolicBP, a.SystolicBP},
		{vitals.MetricDiastolicBP, a.DiastolicBP},
		{vitals.MetricSugar, a.Sugar},
		{vitals.MetricCholesterol, a.Cholesterol},
	} {
		if mv.value == nil {
			continue
		}
		switch p.bands.Grade(mv.metric, *mv.value) {
		case model.StatusCritical:
			countCritical++
		case model.StatusWarning:
			countWarning++
		}
	}
	return countCritical, countWarning
}

// level applies the tier precedence: averaged-metric counts first,
// backed by tier counts over the whole window.
func (p *Predictor) level(countCritical, countWarning, criticalCount, warningCount, normalCount int) (model.RiskLevel, string) {
	switch {
	case countCritical >= 2 || criticalCount >= 3:
		return model.RiskCritical, msgCritical
	case countCritical >= 1 || countWarning >= 3 ||
		warningCount >= 5 || warningCount+criticalCount > normalCount:
		return model.RiskHigh, msgHigh
	case countWarning >= 1 || warningCount >= 2:
		return model.RiskModerate, msgModerate
	default:
		return model.RiskLow, msgLow
	}
}

// futureIssues derives plausible future conditions from recent
// averages via fixed single-metric triggers. The list is independent
// of and supplementary to the tiered risk level.
func futureIssues(a model.MetricAverages) []string {
	issues := []string{}
	if a.SpO2 != nil && *a.SpO2 < respiratorySpO2Below {
		issues = append(issues, "Respiratory distress")
	}
	if (a.SystolicBP != nil && *a.SystolicBP >= hypertensionSysFrom) ||
		(a.DiastolicBP != nil && *a.DiastolicBP >= hypertensionDiaFrom) {
		issues = append(issues, "Hypertension")
	}
	if a.Sugar != nil && *a.Sugar >= hyperglycemiaFrom {
		issues = append(issues, "Diabetes risk / Hyperglycemia")
	}
	if a.Cholesterol != nil && *a.Cholesterol >= hypercholesterolFrom {
		issues = append(issues, "Hypercholesterolemia")
	}
	if a.HeartRate != nil && *a.HeartRate > arrhythmiaAboveHR {
		issues = append(issues, "Arrhythmia")
	}
	return issues
}
