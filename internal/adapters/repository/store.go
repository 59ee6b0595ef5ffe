// Package repository defines the reading and emergency store
// contracts and errors.
package repository

import (
	"context"

	"github.com/medreach/vitalguard/internal/domain/model"
)

// ReadingStore provides append-only access to per-patient vitals
// history.
type ReadingStore interface {
	// AppendReading stores a classified reading. Readings are
	// immutable once appended.
	AppendReading(ctx context.Context, r model.VitalsReading) error

	// RecentReadings returns up to limit readings for the patient,
	// ordered newest first. Returns ErrInvalidLimit for limit < 1.
	RecentReadings(ctx context.Context, patientID string, limit int) ([]model.VitalsReading, error)

	// ReadingCount returns the number of readings tracked overall.
	ReadingCount(ctx context.Context) int
}

// EmergencyStore provides access to emergency events keyed by
// patient, type and status. Implementations must enforce the hard
// invariant that at most one active event exists per (patient, type)
// pair, atomically with respect to concurrent submissions.
type EmergencyStore interface {
	// FindOrCreateActive returns the active event for (patientID,
	// type), creating proto as the new active event when none
	// exists. The boolean reports whether a new event was created.
	FindOrCreateActive(ctx context.Context, proto model.EmergencyEvent) (model.EmergencyEvent, bool, error)

	// Event returns an event by id. Returns ErrNotFound if unknown.
	Event(ctx context.Context, eventID string) (model.EmergencyEvent, error)

	// UpdateEvent persists mutated notification or lifecycle state.
	// Returns ErrNotFound if the event is unknown.
	UpdateEvent(ctx context.Context, e model.EmergencyEvent) error

	// EventsFor lists a patient's events, newest first, optionally
	// restricted to active ones.
	EventsFor(ctx context.Context, patientID string, activeOnly bool) ([]model.EmergencyEvent, error)
}

// Store bundles both collaborators behind one dependency.
type Store interface {
	ReadingStore
	EmergencyStore
}
