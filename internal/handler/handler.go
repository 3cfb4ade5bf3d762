// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/eventgate/eventgate/internal/model"
	"github.com/eventgate/eventgate/internal/service"
)

// Handler holds all HTTP handlers for the issuance and validation API.
type Handler struct {
	svc      *service.Service
	logger   *slog.Logger
	validate *validator.Validate
}

// New constructs a Handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		logger:   logger,
		validate: validator.New(),
	}
}

// Register mounts all routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Post("/{id}/records", h.Issue)
		r.Get("/{id}/records", h.ListRecords)
		r.Post("/{id}/validate", h.Validate)
	})
	r.Route("/records", func(r chi.Router) {
		r.Get("/{id}", h.GetRecord)
		r.Post("/{id}/payment", h.UpdatePayment)
	})
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// decodeJSON decodes and validates a request payload.
func (h *Handler) decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

// ─── Event handlers ───────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		h.logger.Error("list events failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		h.logger.Error("get event failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /events/{id}
// Config changes invalidate the cached event snapshot.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ─── Record handlers ──────────────────────────────────────────────────────────

// Issue handles POST /events/{id}/records
// Runs eligibility checks, generates identifiers, and persists the record.
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	var req model.IssueRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := h.svc.Issue(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		var rejection *model.RejectionError
		switch {
		case errors.As(err, &rejection):
			writeError(w, http.StatusUnprocessableEntity, rejection.Reason)
		case errors.Is(err, model.ErrNotFound):
			writeError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, model.ErrCodeSpaceExhausted):
			h.logger.Error("identifier generation exhausted", "event_id", chi.URLParam(r, "id"))
			writeError(w, http.StatusInternalServerError, "could not allocate identifiers, try again")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListRecords handles GET /events/{id}/records
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListRecords(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		h.logger.Error("list records failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	if records == nil {
		records = []model.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetRecord handles GET /records/{id}
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		h.logger.Error("get record failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// UpdatePayment handles POST /records/{id}/payment
// This is the external payment collaborator's write path for settled facts.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentUpdateRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := h.svc.SetPaymentStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Validate handles POST /events/{id}/validate
// AlreadyUsed is an expected outcome and shares the 200 path with Valid; the
// outcome field is what distinguishes them for every caller.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Validate(r.Context(), chi.URLParam(r, "id"), req.Identifier, req.Actor)
	if err != nil {
		h.logger.Error("validate failed", "event_id", chi.URLParam(r, "id"), "error", err)
		writeError(w, http.StatusInternalServerError, "validation failed")
		return
	}

	switch result.Outcome {
	case model.OutcomeValid, model.OutcomeAlreadyUsed:
		writeJSON(w, http.StatusOK, result)
	case model.OutcomePaymentRequired:
		writeJSON(w, http.StatusPaymentRequired, result)
	default:
		writeJSON(w, http.StatusNotFound, result)
	}
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
