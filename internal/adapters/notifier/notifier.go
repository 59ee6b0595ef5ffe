// Package notifier defines the alert dispatch collaborator. The
// delivery transport (SMS, push, email) lives outside this service;
// implementations here cover structured-log delivery for development
// and a JSON webhook for integration with a real gateway.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/medreach/vitalguard/internal/adapters/directory"
	"github.com/medreach/vitalguard/internal/domain/model"
)

// Alert is one emergency notification addressed to the recipients the
// directory resolved for the patient.
type Alert struct {
	Event      model.EmergencyEvent `json:"event"`
	Patient    directory.Contact    `json:"patient"`
	Caregivers []directory.Contact  `json:"caregivers"`
	Doctors    []directory.Contact  `json:"doctors"`
	Message    string               `json:"message"`
	SentAt     time.Time            `json:"sentAt"`
}

// Notifier delivers an alert. A returned error means nothing was
// delivered; the caller must not record the attempt so the policy
// retries it on the next evaluation.
type Notifier interface {
	Send(ctx context.Context, a Alert) error
}

// Message builds the human-readable alert text. Manual triggers and
// AI-detected emergencies read differently so responders can tell
// them apart.
func Message(patientName string, t model.EmergencyType) string {
	if t == model.EmergencyPatientManual {
		return fmt.Sprintf("PATIENT-TRIGGERED EMERGENCY: %s has pressed the emergency button! Immediate attention required.", patientName)
	}
	return fmt.Sprintf("AI-DETECTED EMERGENCY: %s has critical health indicators. Immediate medical attention recommended.", patientName)
}
