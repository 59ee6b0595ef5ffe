// Package directory defines the user-directory collaborator the
// notification path consults for alert recipients. User CRUD itself
// lives outside this service; only the read surface is modelled.
package directory

import (
	"context"
	"sync"
)

// Role of a directory contact.
type Role string

const (
	RolePatient   Role = "patient"
	RoleDoctor    Role = "doctor"
	RoleCaregiver Role = "caregiver"
)

// Contact is one user record as seen by the notification path.
type Contact struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Role            Role   `json:"role"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	LinkedPatientID string `json:"linkedPatientId,omitempty"`
}

// Directory provides recipient lookups: the patient record itself,
// caregivers linked to a patient, and all doctors.
type Directory interface {
	Patient(ctx context.Context, id string) (Contact, error)
	CaregiversFor(ctx context.Context, patientID string) ([]Contact, error)
	Doctors(ctx context.Context) ([]Contact, error)
}

// InMemoryDirectory implements Directory over a seeded contact set.
// It is the dev/test seam for the external user directory.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	contacts map[string]Contact
}

// NewInMemoryDirectory creates a directory seeded with the given
// contacts.
func NewInMemoryDirectory(contacts ...Contact) *InMemoryDirectory {
	d := &InMemoryDirectory{contacts: make(map[string]Contact, len(contacts))}
	for _, c := range contacts {
		d.contacts[c.ID] = c
	}
	return d
}

// Add inserts or replaces a contact.
func (d *InMemoryDirectory) Add(c Contact) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contacts[c.ID] = c
}

// Patient returns the patient contact by id.
func (d *InMemoryDirectory) Patient(ctx context.Context, id string) (Contact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.contacts[id]
	if !ok || c.Role != RolePatient {
		return Contact{}, ErrUnknownUser
	}
	return c, nil
}

// CaregiversFor returns caregivers linked to the patient.
func (d *InMemoryDirectory) CaregiversFor(ctx context.Context, patientID string) ([]Contact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []Contact{}
	for _, c := range d.contacts {
		if c.Role == RoleCaregiver && c.LinkedPatientID == patientID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Doctors returns all doctor contacts.
func (d *InMemoryDirectory) Doctors(ctx context.Context) ([]Contact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []Contact{}
	for _, c := range d.contacts {
		if c.Role == RoleDoctor {
			out = append(out, c)
		}
	}
	return out, nil
}
