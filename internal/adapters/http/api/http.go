// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	repository "github.com/medreach/vitalguard/internal/adapters/repository"
	"github.com/medreach/vitalguard/internal/domain/dedupe"
	"github.com/medreach/vitalguard/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// SubmitReading pushes a reading for async classification.
	// Returns false on backpressure.
	SubmitReading(ctx context.Context, r model.VitalsReading) bool

	// Read operations expose per-patient data.
	History(ctx context.Context, patientID string, limit int) ([]model.VitalsReading, error)
	Predict(ctx context.Context, patientID string) (model.RiskAssessment, error)
	EmergenciesFor(ctx context.Context, patientID string, activeOnly bool) ([]model.EmergencyEvent, error)

	// Emergency lifecycle operations.
	TriggerManualEmergency(ctx context.Context, patientID, location string, lat, lon *float64) (model.EmergencyEvent, bool, error)
	Acknowledge(ctx context.Context, eventID, userID string) (model.EmergencyEvent, error)
	Resolve(ctx context.Context, eventID string) (model.EmergencyEvent, error)
	Cancel(ctx context.Context, eventID string) (model.EmergencyEvent, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	readingsHandler    *ReadingsHandler
	patientsHandler    *PatientsHandler
	emergenciesHandler *EmergenciesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxHistoryLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		readingsHandler:    NewReadingsHandler(deps),
		patientsHandler:    NewPatientsHandler(deps, maxHistoryLimit),
		emergenciesHandler: NewEmergenciesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux, deps Dependencies) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/readings", MetricsMiddleware(s.readingsHandler.HandlePostReading, "readings"))
	mux.HandleFunc("/patients/", MetricsMiddleware(s.patientsHandler.HandlePatient, "patients"))
	mux.HandleFunc("/emergencies", MetricsMiddleware(s.emergenciesHandler.HandleTrigger, "emergencies"))
	mux.HandleFunc("/emergencies/", MetricsMiddleware(s.emergenciesHandler.HandleLifecycle, "emergencies"))
}

// readingRequest mirrors the OpenAPI schema for POST /readings.
// Required metrics are pointers so a missing field is distinguishable
// from a literal zero.
type readingRequest struct {
	ReadingID   string   `json:"readingId"`
	PatientID   string   `json:"patientId"`
	HeartRate   *float64 `json:"heartRate"`
	SpO2        *float64 `json:"spo2"`
	Temperature *float64 `json:"temperature"`
	SystolicBP  *float64 `json:"systolicBP"`
	DiastolicBP *float64 `json:"diastolicBP"`
	Sugar       *float64 `json:"sugar"`
	Cholesterol *float64 `json:"cholesterol"`
	Timestamp   string   `json:"timestamp"`
}

func (rr readingRequest) validate() error {
	switch {
	case strings.TrimSpace(rr.PatientID) == "":
		return errors.New("missing patientId")
	case rr.HeartRate == nil:
		return errors.New("missing heartRate")
	case rr.SpO2 == nil:
		return errors.New("missing spo2")
	case rr.Temperature == nil:
		return errors.New("missing temperature")
	}
	if rr.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, rr.Timestamp); err != nil {
			return errors.New("invalid timestamp; must be RFC3339")
		}
	}
	return nil
}

// toModel builds the domain reading. The timestamp has already been
// validated; an absent one is filled in downstream.
func (rr readingRequest) toModel() model.VitalsReading {
	r := model.VitalsReading{
		ReadingID:   rr.ReadingID,
		PatientID:   rr.PatientID,
		HeartRate:   *rr.HeartRate,
		SpO2:        *rr.SpO2,
		Temperature: *rr.Temperature,
		SystolicBP:  rr.SystolicBP,
		DiastolicBP: rr.DiastolicBP,
		Sugar:       rr.Sugar,
		Cholesterol: rr.Cholesterol,
	}
	if rr.Timestamp != "" {
		ts, _ := time.Parse(time.RFC3339, rr.Timestamp)
		r.Timestamp = ts
	}
	return r
}

type ackResponse struct {
	Status    string `json:"status"`
	ReadingID string `json:"readingId"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
