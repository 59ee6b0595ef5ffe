package risk

import (
	"math"

	"github.com/medreach/vitalguard/internal/domain/model"
)

// accumulator computes the mean of the values that were present. A
// metric with zero present values yields nil, never zero.
type accumulator struct {
	sum float64
	n   int
}

func (a *accumulator) add(v float64) {
	a.sum += v
	a.n++
}

func (a *accumulator) addOpt(v *float64) {
	if v != nil {
		a.add(*v)
	}
}

func (a *accumulator) mean() *float64 {
	if a.n == 0 {
		return nil
	}
	m := a.sum / float64(a.n)
	return &m
}

// averages computes per-metric means across the given readings,
// skipping absent optional values.
func averages(readings []model.VitalsReading) model.MetricAverages {
	var hr, spo2, temp, sys, dia, sugar, chol accumulator
	for i := range readings {
		r := &readings[i]
		hr.add(r.HeartRate)
		spo2.add(r.SpO2)
		temp.add(r.Temperature)
		sys.addOpt(r.SystolicBP)
		dia.addOpt(r.DiastolicBP)
		sugar.addOpt(r.Sugar)
		chol.addOpt(r.Cholesterol)
	}
	return model.MetricAverages{
		HeartRate:   hr.mean(),
		SpO2:        spo2.mean(),
		Temperature: temp.mean(),
		SystolicBP:  sys.mean(),
		DiastolicBP: dia.mean(),
		Sugar:       sugar.mean(),
		Cholesterol: chol.mean(),
	}
}

// roundedAverages rounds the means for the summary block: temperature
// to two decimals, everything else to one, matching the public API.
func roundedAverages(a model.MetricAverages) model.MetricAverages {
	return model.MetricAverages{
		HeartRate:   roundPtr(a.HeartRate, 1),
		SpO2:        roundPtr(a.SpO2, 1),
		Temperature: roundPtr(a.Temperature, 2),
		SystolicBP:  roundPtr(a.SystolicBP, 1),
		DiastolicBP: roundPtr(a.DiastolicBP, 1),
		Sugar:       roundPtr(a.Sugar, 1),
		Cholesterol: roundPtr(a.Cholesterol, 1),
	}
}

func roundPtr(v *float64, decimals int) *float64 {
	if v == nil {
		return nil
	}
	scale := math.Pow(10, float64(decimals))
	r := math.Round(*v*scale) / scale
	return &r
}
