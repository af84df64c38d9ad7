package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/funnelbot/funnelbot/internal/funnel"
	"github.com/funnelbot/funnelbot/internal/models"
	"github.com/gorilla/mux"
)

// Engine is the slice of the funnel engine the HTTP layer depends on.
type Engine interface {
	StartSession(ctx context.Context, variant models.Variant, brand string) (*models.Session, error)
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	ProcessMessage(ctx context.Context, sessionID, utterance string) (*funnel.TurnResult, error)
	SubmitPayment(ctx context.Context, sessionID string, form models.PaymentForm) (string, error)
	SubmitMeeting(ctx context.Context, sessionID string, form models.MeetingForm) (string, error)
}

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	Variant string `json:"variant"`
	Brand   string `json:"brand,omitempty"`
}

// MessageRequest is the body of POST /api/sessions/{id}/messages.
type MessageRequest struct {
	Message string `json:"message"`
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "ok"}))
}

// createSessionHandler handles POST /api/sessions.
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("createSessionHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	session, err := s.engine.StartSession(r.Context(), models.Variant(req.Variant), req.Brand)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, models.ErrUnknownVariant) && !errors.Is(err, models.ErrUnknownBrand) {
			slog.Error("createSessionHandler failed", "error", err)
			status = http.StatusInternalServerError
		}
		writeJSONResponse(w, status, models.Error(err.Error()))
		return
	}

	writeJSONResponse(w, http.StatusCreated, models.Success(session.View()))
}

// getSessionHandler handles GET /api/sessions/{id}.
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.engine.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
			return
		}
		slog.Error("getSessionHandler failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(session.View()))
}

// postMessageHandler handles POST /api/sessions/{id}/messages.
func (s *Server) postMessageHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("postMessageHandler invalid JSON", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	result, err := s.engine.ProcessMessage(r.Context(), sessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmptyMessage):
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		case errors.Is(err, models.ErrSessionNotFound):
			writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		default:
			slog.Error("postMessageHandler failed", "error", err, "sessionID", sessionID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// submitPaymentHandler handles POST /api/sessions/{id}/payment.
func (s *Server) submitPaymentHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var form models.PaymentForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		slog.Warn("submitPaymentHandler invalid JSON", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	message, err := s.engine.SubmitPayment(r.Context(), sessionID, form)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
			return
		}
		// Validation failures name the offending field.
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"message": message}))
}

// submitMeetingHandler handles POST /api/sessions/{id}/meeting.
func (s *Server) submitMeetingHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var form models.MeetingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		slog.Warn("submitMeetingHandler invalid JSON", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	message, err := s.engine.SubmitMeeting(r.Context(), sessionID, form)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
			return
		}
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"message": message}))
}
