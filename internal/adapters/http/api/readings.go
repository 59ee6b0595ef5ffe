// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/medreach/vitalguard/internal/domain/dedupe"
	"github.com/medreach/vitalguard/internal/domain/model"
)

// ReadingDependencies defines the interface for reading intake dependencies.
type ReadingDependencies interface {
	dedupe.Deduper
	SubmitReading(ctx context.Context, r model.VitalsReading) bool
}

// ReadingsHandler handles vitals reading submissions.
type ReadingsHandler struct {
	deps ReadingDependencies
}

// NewReadingsHandler creates a new readings handler.
func NewReadingsHandler(deps ReadingDependencies) *ReadingsHandler {
	return &ReadingsHandler{deps: deps}
}

// HandlePostReading handles POST /readings requests.
func (h *ReadingsHandler) HandlePostReading(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_reading"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req readingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency applies only to client-assigned ids; a generated id
	// is fresh by construction.
	clientAssigned := req.ReadingID != ""
	if clientAssigned {
		if h.deps.SeenAndRecord(r.Context(), req.ReadingID) {
			writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ReadingID: req.ReadingID, Duplicate: true})
			return
		}
	} else {
		req.ReadingID = uuid.NewString()
	}

	// Try to enqueue for async processing
	if ok := h.deps.SubmitReading(r.Context(), req.toModel()); !ok {
		if clientAssigned {
			// Rollback the "seen" status since enqueue failed
			h.deps.Unrecord(r.Context(), req.ReadingID)
		}
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ReadingID: req.ReadingID, Duplicate: false})
}
