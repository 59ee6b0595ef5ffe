package vitals

import (
	"fmt"
	"math"

	"github.com/medreach/vitalguard/internal/domain/model"
)

// Input carries the fields of a single reading the classifier looks
// at. Heart rate, SpO2 and temperature are required; the pointer
// metrics are optional and nil contributes nothing to severity.
type Input struct {
	HeartRate   float64
	SpO2        float64
	Temperature float64
	SystolicBP  *float64
	DiastolicBP *float64
	Sugar       *float64
	Cholesterol *float64
}

// Result is the classification outcome. ByMetric records the tier of
// every metric that was evaluated, which the API exposes for
// explainability.
type Result struct {
	Status   model.Status
	ByMetric map[Metric]model.Status
}

// Option applies a configuration option to the TableClassifier.
type Option func(*TableClassifier)

// WithBands overrides the threshold table, e.g. for boundary tests.
func WithBands(b Bands) Option {
	return func(c *TableClassifier) {
		if b != nil {
			c.bands = b
		}
	}
}

// TableClassifier grades each metric against a declarative band table
// and escalates on the worst tier found. Classification is a pure
// function of the input: same reading, same status.
type TableClassifier struct {
	bands Bands
}

// New creates a classifier with the default clinical bands.
func New(opts ...Option) *TableClassifier {
	c := &TableClassifier{bands: DefaultBands()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate rejects malformed required metrics before classification.
// Optional metrics are never validated here; absence is "not
// evaluated", not a failure.
func (c *TableClassifier) Validate(in Input) error {
	for _, m := range []struct {
		name string
		v    float64
	}{
		{"heartRate", in.HeartRate},
		{"spo2", in.SpO2},
		{"temperature", in.Temperature},
	} {
		if math.IsNaN(m.v) || math.IsInf(m.v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidReading, m.name)
		}
	}
	return nil
}

// Classify maps a reading to its overall severity tier. Blood
// pressure is evaluated only when both components are present,
// matching the upstream API contract for partial submissions.
func (c *TableClassifier) Classify(in Input) (Result, error) {
	if err := c.Validate(in); err != nil {
		return Result{}, err
	}

	byMetric := map[Metric]model.Status{
		MetricHeartRate:   c.bands.Grade(MetricHeartRate, in.HeartRate),
		MetricSpO2:        c.bands.Grade(MetricSpO2, in.SpO2),
		MetricTemperature: c.bands.Grade(MetricTemperature, in.Temperature),
	}
	if in.SystolicBP != nil && in.DiastolicBP != nil {
		byMetric[MetricSystolicBP] = c.bands.Grade(MetricSystolicBP, *in.SystolicBP)
		byMetric[MetricDiastolicBP] = c.bands.Grade(MetricDiastolicBP, *in.DiastolicBP)
	}
	if in.Sugar != nil {
		byMetric[MetricSugar] = c.bands.Grade(MetricSugar, *in.Sugar)
	}
	if in.Cholesterol != nil {
		byMetric[MetricCholesterol] = c.bands.Grade(MetricCholesterol, *in.Cholesterol)
	}

	overall := model.StatusNormal
	for _, st := range byMetric {
		overall = model.MaxStatus(overall, st)
	}
	return Result{Status: overall, ByMetric: byMetric}, nil
}

// InputFromReading projects a stored reading onto classifier input.
func InputFromReading(r *model.VitalsReading) Input {
	return Input{
		HeartRate:   r.HeartRate,
		SpO2:        r.SpO2,
		Temperature: r.Temperature,
		SystolicBP:  r.SystolicBP,
		DiastolicBP: r.DiastolicBP,
		Sugar:       r.Sugar,
		Cholesterol: r.Cholesterol,
	}
}
