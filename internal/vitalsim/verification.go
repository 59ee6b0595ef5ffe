package vitalsim

import (
	"fmt"
	"log"
	"strings"
)

// verifyResults checks the consistency of risk assessments and emergencies.
func verifyResults(config *Config, risks []RiskResult, emergencies []Emergency) error {
	log.Println("verifying results...")

	if len(risks) == 0 {
		return fmt.Errorf("no risk assessments to verify")
	}

	levels := countByLevel(risks)
	log.Printf("risk level distribution: CRITICAL=%d HIGH=%d MODERATE=%d LOW=%d",
		levels["CRITICAL"], levels["HIGH"], levels["MODERATE"], levels["LOW"])

	// Every high-risk patient should have an active emergency since
	// prediction escalates high risk automatically.
	if err := verifyHighRiskEscalation(risks, emergencies); err != nil {
		log.Printf("escalation consistency warning: %v", err)
	} else {
		log.Println("high risk escalation verified")
	}

	if config.Verbose {
		displayRiskDetails(risks)
	}

	log.Println("result verification completed")
	return nil
}

// countByLevel tallies risk results by level.
func countByLevel(risks []RiskResult) map[string]int {
	levels := make(map[string]int)
	for _, r := range risks {
		levels[strings.ToUpper(r.RiskLevel)]++
	}
	return levels
}

// verifyHighRiskEscalation checks that each high-risk patient has at
// least one active emergency event.
func verifyHighRiskEscalation(risks []RiskResult, emergencies []Emergency) error {
	active := make(map[string]bool, len(emergencies))
	for _, e := range emergencies {
		active[e.PatientID] = true
	}

	var missing int
	for _, r := range risks {
		escalating := strings.EqualFold(r.RiskLevel, "High") || strings.EqualFold(r.RiskLevel, "Critical")
		if escalating && !active[r.PatientID] {
			missing++
		}
	}

	if missing > 0 {
		return fmt.Errorf("%d high-risk patients have no active emergency", missing)
	}
	return nil
}

// displayRiskDetails shows per-patient assessment summaries.
func displayRiskDetails(risks []RiskResult) {
	topN := 10
	if len(risks) < topN {
		topN = len(risks)
	}

	log.Printf("sample of %d risk assessments:", topN)
	for i := 0; i < topN; i++ {
		r := risks[i]
		log.Printf("   %s - level: %s confidence: %.2f (normal: %d, warning: %d, critical: %d)",
			r.PatientID, r.RiskLevel, r.Confidence,
			r.Summary.Normal, r.Summary.Warning, r.Summary.Critical)
	}

	avgConfidence := calculateAverageConfidence(risks)
	log.Printf("average confidence: %.3f", avgConfidence)
}

// calculateAverageConfidence calculates the average confidence across assessments.
func calculateAverageConfidence(risks []RiskResult) float64 {
	if len(risks) == 0 {
		return 0
	}

	sum := 0.0
	for _, r := range risks {
		sum += r.Confidence
	}

	return sum / float64(len(risks))
}
