// Package vitals classifies a single vitals reading into a severity
// tier using per-metric threshold bands.
package vitals

import (
	"math"

	"github.com/medreach/vitalguard/internal/domain/model"
)

// Metric identifies one measurable quantity on a reading. Blood
// pressure is graded per component so systolic and diastolic carry
// their own band tables.
type Metric string

const (
	MetricHeartRate   Metric = "heartRate"
	MetricSpO2        Metric = "spo2"
	MetricTemperature Metric = "temperature"
	MetricSystolicBP  Metric = "systolicBP"
	MetricDiastolicBP Metric = "diastolicBP"
	MetricSugar       Metric = "sugar"
	MetricCholesterol Metric = "cholesterol"
)

// interval is a numeric range with independently open/closed ends.
type interval struct {
	lo, hi         float64
	loOpen, hiOpen bool
}

func (iv interval) contains(v float64) bool {
	if iv.loOpen {
		if v <= iv.lo {
			return false
		}
	} else if v < iv.lo {
		return false
	}
	if iv.hiOpen {
		if v >= iv.hi {
			return false
		}
	} else if v > iv.hi {
		return false
	}
	return true
}

// closed builds [lo,hi], halfOpen builds [lo,hi).
func closed(lo, hi float64) interval   { return interval{lo: lo, hi: hi} }
func halfOpen(lo, hi float64) interval { return interval{lo: lo, hi: hi, hiOpen: true} }
func below(hi float64) interval        { return interval{lo: math.Inf(-1), hi: hi, hiOpen: true} }
func above(lo float64) interval        { return interval{lo: lo, hi: math.Inf(1), loOpen: true} }
func atLeast(lo float64) interval      { return interval{lo: lo, hi: math.Inf(1)} }

// metricBands lists the warning and critical ranges for one metric.
// Anything outside both is normal; the ranges jointly cover the whole
// domain so there is no unreachable fallthrough.
type metricBands struct {
	warning  []interval
	critical []interval
}

// Bands is the threshold table keyed by metric. It is pure data so
// every boundary can be tested exhaustively.
type Bands map[Metric]metricBands

// DefaultBands returns the clinical threshold table:
//
//	heartRate:   normal [60,100], warning [50,60) or (100,110], critical <50 or >110
//	spo2:        normal [95,100], warning [90,95), critical <90
//	temperature: normal [36,37.5], warning [35,36) or (37.5,38.4], critical <35 or >38.4
//	systolicBP:  normal <140, warning [140,159], critical >=160
//	diastolicBP: normal <90, warning [90,99], critical >=100
//	sugar:       normal <140, warning [140,199], critical >=200
//	cholesterol: normal <200, warning [200,239], critical >=240
func DefaultBands() Bands {
	return Bands{
		MetricHeartRate: {
			warning:  []interval{halfOpen(50, 60), interval{lo: 100, hi: 110, loOpen: true}},
			critical: []interval{below(50), above(110)},
		},
		MetricSpO2: {
			warning:  []interval{halfOpen(90, 95)},
			critical: []interval{below(90)},
		},
		MetricTemperature: {
			warning:  []interval{halfOpen(35, 36), interval{lo: 37.5, hi: 38.4, loOpen: true}},
			critical: []interval{below(35), above(38.4)},
		},
		MetricSystolicBP: {
			warning:  []interval{closed(140, 159)},
			critical: []interval{atLeast(160)},
		},
		MetricDiastolicBP: {
			warning:  []interval{closed(90, 99)},
			critical: []interval{atLeast(100)},
		},
		MetricSugar: {
			warning:  []interval{closed(140, 199)},
			critical: []interval{atLeast(200)},
		},
		MetricCholesterol: {
			warning:  []interval{closed(200, 239)},
			critical: []interval{atLeast(240)},
		},
	}
}

// Grade maps one metric value to its severity tier. Critical bands
// dominate warning bands which dominate normal.
func (b Bands) Grade(m Metric, v float64) model.Status {
	mb, ok := b[m]
	if !ok {
		return model.StatusNormal
	}
	for _, iv := range mb.critical {
		if iv.contains(v) {
			return model.StatusCritical
		}
	}
	for _, iv := range mb.warning {
		if iv.contains(v) {
			return model.StatusWarning
		}
	}
	return model.StatusNormal
}
