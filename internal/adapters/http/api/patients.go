// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/medreach/vitalguard/internal/domain/model"
)

// Default and maximum page sizes for history queries.
const defaultHistoryLimit = 30

// PatientDependencies defines the interface for per-patient read operations.
type PatientDependencies interface {
	History(ctx context.Context, patientID string, limit int) ([]model.VitalsReading, error)
	Predict(ctx context.Context, patientID string) (model.RiskAssessment, error)
	EmergenciesFor(ctx context.Context, patientID string, activeOnly bool) ([]model.EmergencyEvent, error)
}

// PatientsHandler handles per-patient read requests.
type PatientsHandler struct {
	deps     PatientDependencies
	maxLimit int
}

// NewPatientsHandler creates a new patients handler.
func NewPatientsHandler(deps PatientDependencies, maxLimit int) *PatientsHandler {
	return &PatientsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandlePatient routes GET /patients/{id}/readings, /patients/{id}/risk
// and /patients/{id}/emergencies requests.
func (h *PatientsHandler) HandlePatient(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_patient"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /patients/
	path := strings.TrimPrefix(r.URL.Path, "/patients/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	patientID := parts[0]

	switch parts[1] {
	case "readings":
		h.handleReadings(w, r, patientID)
	case "risk":
		h.handleRisk(w, r, patientID)
	case "emergencies":
		h.handleEmergencies(w, r, patientID)
	default:
		http.NotFound(w, r)
	}
}

func (h *PatientsHandler) handleReadings(w http.ResponseWriter, r *http.Request, patientID string) {
	const op = "api.get_patient_readings"
	n := defaultHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = parsed
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	readings, err := h.deps.History(r.Context(), patientID, n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

func (h *PatientsHandler) handleRisk(w http.ResponseWriter, r *http.Request, patientID string) {
	const op = "api.get_patient_risk"
	assessment, err := h.deps.Predict(r.Context(), patientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *PatientsHandler) handleEmergencies(w http.ResponseWriter, r *http.Request, patientID string) {
	const op = "api.get_patient_emergencies"
	activeOnly := r.URL.Query().Get("active") == "true"
	events, err := h.deps.EmergenciesFor(r.Context(), patientID, activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, events)
}
