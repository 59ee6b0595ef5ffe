package vitalsim

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/medreach/vitalguard/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	readingIDDivisor   = 10000
	profileDivisor     = 8
)

// Patient profile cases. Most patients are stable; a minority drift into
// warning or critical territory so risk prediction and emergency
// escalation get exercised.
const (
	caseStable1 = 0
	caseStable2 = 1
	caseStable3 = 2
	caseStable4 = 3
	caseStable5 = 4
	caseDrift1  = 5
	caseDrift2  = 6
	caseAcute   = 7
)

// Vital sign generation ranges per profile.
const (
	stableHeartRateMin   = 62.0
	stableHeartRateRange = 36.0
	stableSpO2Min        = 95.0
	stableSpO2Range      = 4.0
	stableTempMin        = 36.2
	stableTempRange      = 0.9

	driftHeartRateMin   = 101.0
	driftHeartRateRange = 9.0
	driftSpO2Min        = 91.0
	driftSpO2Range      = 3.0
	driftTempMin        = 37.4
	driftTempRange      = 0.5

	acuteHeartRateMin   = 115.0
	acuteHeartRateRange = 35.0
	acuteSpO2Min        = 84.0
	acuteSpO2Range      = 5.0
	acuteTempMin        = 38.5
	acuteTempRange      = 1.5

	systolicMin   = 100.0
	systolicRange = 40.0
	diastolicMin  = 65.0
	diastolicVar  = 20.0
)

// patientProfile describes the vital sign tendency of a synthetic patient.
type patientProfile int

const (
	profileStable patientProfile = iota
	profileDrift
	profileAcute
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// patient pairs a synthetic patient ID with its profile.
type patient struct {
	id      string
	profile patientProfile
}

// generatePatients creates the synthetic patient population. Profiles are
// fixed per patient so repeated readings produce a consistent history.
func generatePatients(numPatients int) []patient {
	patients := make([]patient, numPatients)
	for i := range patients {
		patients[i] = patient{
			id:      uuid.New().String(),
			profile: randomProfile(),
		}
	}
	return patients
}

// randomProfile picks a profile with a distribution weighted towards stable.
func randomProfile() patientProfile {
	n, _ := rand.Int(rand.Reader, big.NewInt(profileDivisor))
	switch n.Int64() {
	case caseStable1, caseStable2, caseStable3, caseStable4, caseStable5:
		return profileStable
	case caseDrift1, caseDrift2:
		return profileDrift
	case caseAcute:
		return profileAcute
	default:
		return profileStable
	}
}

// generateReadings creates the specified number of readings spread across
// the synthetic patient population.
func generateReadings(ctx context.Context, config *Config, stats *Stats) ([]Reading, error) {
	logger.Get().Info(ctx, "generating readings",
		logger.Int("numReadings", config.NumReadings),
		logger.Int("numPatients", config.NumPatients))

	patients := generatePatients(config.NumPatients)
	readings := make([]Reading, config.NumReadings)

	// Generate readings concurrently
	type readingResult struct {
		index   int
		reading Reading
		err     error
	}

	resultChan := make(chan readingResult, config.NumReadings)

	// Use worker pool for reading generation
	workerCount := minInt(config.Workers, config.NumReadings)
	readingsPerWorker := config.NumReadings / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * readingsPerWorker
		end := start + readingsPerWorker
		if worker == workerCount-1 {
			end = config.NumReadings // Last worker gets remaining readings
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- readingResult{index: i, err: ctx.Err()}
					return
				default:
					p := patients[i%len(patients)]
					reading := generateSingleReading(i, p)
					resultChan <- readingResult{index: i, reading: reading, err: nil}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumReadings; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during reading generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate reading %d: %w", result.index, result.err)
			}
			readings[result.index] = result.reading
		}
	}

	stats.ReadingsGenerated = len(readings)
	logger.Get().Info(ctx, "generated readings successfully", logger.Int("count", len(readings)))

	return readings, nil
}

// generateSingleReading creates a single reading for the given patient.
func generateSingleReading(index int, p patient) Reading {
	var heartRate, spo2, temp float64
	switch p.profile {
	case profileDrift:
		heartRate = driftHeartRateMin + getRandomFloat()*driftHeartRateRange
		spo2 = driftSpO2Min + getRandomFloat()*driftSpO2Range
		temp = driftTempMin + getRandomFloat()*driftTempRange
	case profileAcute:
		heartRate = acuteHeartRateMin + getRandomFloat()*acuteHeartRateRange
		spo2 = acuteSpO2Min + getRandomFloat()*acuteSpO2Range
		temp = acuteTempMin + getRandomFloat()*acuteTempRange
	default:
		heartRate = stableHeartRateMin + getRandomFloat()*stableHeartRateRange
		spo2 = stableSpO2Min + getRandomFloat()*stableSpO2Range
		temp = stableTempMin + getRandomFloat()*stableTempRange
	}

	systolic := systolicMin + getRandomFloat()*systolicRange
	diastolic := diastolicMin + getRandomFloat()*diastolicVar

	// Current timestamp in RFC3339 format
	timestamp := time.Now().UTC().Format(time.RFC3339)

	// Generate unique reading ID
	randNum, _ := rand.Int(rand.Reader, big.NewInt(readingIDDivisor))
	readingID := "reading_" + strconv.FormatInt(int64(index), 10) + "_" + strconv.FormatInt(time.Now().Unix(), 10) + "_" + strconv.FormatInt(randNum.Int64(), 10)

	return Reading{
		ReadingID:   readingID,
		PatientID:   p.id,
		HeartRate:   heartRate,
		SpO2:        spo2,
		Temperature: temp,
		SystolicBP:  &systolic,
		DiastolicBP: &diastolic,
		Timestamp:   timestamp,
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
