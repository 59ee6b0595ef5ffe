package model

import "time"

// EmergencyType distinguishes how an emergency was raised.
type EmergencyType string

const (
	// EmergencyAITriggered is raised by automatic classification or
	// risk prediction.
	EmergencyAITriggered EmergencyType = "AI_TRIGGERED"
	// EmergencyPatientManual is raised by an explicit user action,
	// e.g. the patient pressing the emergency button.
	EmergencyPatientManual EmergencyType = "PATIENT_MANUAL"
)

// EmergencyStatus is the lifecycle state of an emergency event.
type EmergencyStatus string

const (
	EmergencyActive    EmergencyStatus = "active"
	EmergencyResolved  EmergencyStatus = "resolved"
	EmergencyCancelled EmergencyStatus = "cancelled"
)

// EmergencyEvent records one emergency for a patient together with the
// notification state the alert policy operates on. At most one active
// event may exist per (patient, type) pair; the store enforces that.
//
// JSON field names mirror the public API and must stay stable.
type EmergencyEvent struct {
	EventID              string          `json:"id"`
	PatientID            string          `json:"patientId"`
	Status               EmergencyStatus `json:"status"`
	Type                 EmergencyType   `json:"emergencyType"`
	Location             string          `json:"location,omitempty"`
	Latitude             *float64        `json:"latitude,omitempty"`
	Longitude            *float64        `json:"longitude,omitempty"`
	AlertSent            bool            `json:"alertSent"`
	Acknowledged         bool            `json:"acknowledged"`
	AcknowledgedAt       *time.Time      `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy       string          `json:"acknowledgedBy,omitempty"`
	NotificationRetries  int             `json:"notificationRetries"`
	LastNotificationSent *time.Time      `json:"lastNotificationSent,omitempty"`
	Timestamp            time.Time       `json:"timestamp"`
}

// IsActive reports whether the event is still open. Resolved and
// cancelled are terminal states.
func (e *EmergencyEvent) IsActive() bool {
	return e.Status == EmergencyActive
}
