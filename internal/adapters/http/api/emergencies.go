// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/medreach/vitalguard/internal/domain/model"
)

// EmergencyDependencies defines the interface for emergency lifecycle
// operations.
type EmergencyDependencies interface {
	TriggerManualEmergency(ctx context.Context, patientID, location string, lat, lon *float64) (model.EmergencyEvent, bool, error)
	Acknowledge(ctx context.Context, eventID, userID string) (model.EmergencyEvent, error)
	Resolve(ctx context.Context, eventID string) (model.EmergencyEvent, error)
	Cancel(ctx context.Context, eventID string) (model.EmergencyEvent, error)
}

// EmergenciesHandler handles emergency trigger and lifecycle requests.
type EmergenciesHandler struct {
	deps EmergencyDependencies
}

// NewEmergenciesHandler creates a new emergencies handler.
func NewEmergenciesHandler(deps EmergencyDependencies) *EmergenciesHandler {
	return &EmergenciesHandler{deps: deps}
}

// triggerRequest mirrors the OpenAPI schema for POST /emergencies.
type triggerRequest struct {
	PatientID string   `json:"patientId"`
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (tr triggerRequest) validate() error {
	if strings.TrimSpace(tr.PatientID) == "" {
		return errors.New("missing patientId")
	}
	return nil
}

// ackRequest mirrors the OpenAPI schema for acknowledgement.
type ackRequest struct {
	UserID string `json:"userId"`
}

// HandleTrigger handles POST /emergencies requests, the manual
// emergency button.
func (h *EmergenciesHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	const op = "api.trigger_emergency"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	event, created, err := h.deps.TriggerManualEmergency(r.Context(), req.PatientID, req.Location, req.Latitude, req.Longitude)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if created {
		writeJSON(w, http.StatusCreated, event)
		return
	}
	// An active manual emergency already existed; return it unchanged.
	writeJSON(w, http.StatusOK, event)
}

// HandleLifecycle handles POST /emergencies/{id}/acknowledge,
// /emergencies/{id}/resolve and /emergencies/{id}/cancel requests.
func (h *EmergenciesHandler) HandleLifecycle(w http.ResponseWriter, r *http.Request) {
	const op = "api.emergency_lifecycle"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /emergencies/
	path := strings.TrimPrefix(r.URL.Path, "/emergencies/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	eventID := parts[0]

	var (
		event model.EmergencyEvent
		err   error
	)
	switch parts[1] {
	case "acknowledge":
		var req ackRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, decodeErr))
			return
		}
		if strings.TrimSpace(req.UserID) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		event, err = h.deps.Acknowledge(r.Context(), eventID, req.UserID)
	case "resolve":
		event, err = h.deps.Resolve(r.Context(), eventID)
	case "cancel":
		event, err = h.deps.Cancel(r.Context(), eventID)
	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, event)
}
