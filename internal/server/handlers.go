package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kabilan942/Career-Compass-AI/internal/graph"
	"github.com/kabilan942/Career-Compass-AI/internal/session"
)

// Sessions is the conversation surface the HTTP API exposes.
type Sessions interface {
	NewSession(ctx context.Context) (*session.Session, error)
	HandleTurn(ctx context.Context, sessionID, utterance string) (*session.TurnResult, error)
	History(ctx context.Context, sessionID string) ([]graph.Message, error)
	Ping(ctx context.Context) error
}

var _ Sessions = (*session.Service)(nil)

type handlers struct {
	sessions Sessions
	logger   *zap.Logger
}

type turnRequest struct {
	Question string `json:"question"`
}

type historyResponse struct {
	SessionID string          `json:"session_id"`
	Messages  []graph.Message `json:"messages"`
}

func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.NewSession(r.Context())
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID})
}

func (h *handlers) postTurn(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req turnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.sessions.HandleTurn(r.Context(), id, req.Question)
	if err != nil {
		status, msg := turnErrorStatus(err)
		h.logger.Warn("turn failed",
			zap.String("session_id", id),
			zap.Int("status", status),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err))
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func turnErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrEmptyQuestion):
		return http.StatusBadRequest, "question must not be empty"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, graph.ErrCollaboratorUnavailable):
		return http.StatusBadGateway, "an upstream service is unavailable, please retry"
	case errors.Is(err, graph.ErrStructuralViolation):
		return http.StatusInternalServerError, "internal server error"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *handlers) getHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	msgs, err := h.sessions.History(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		h.logger.Error("load history failed", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: id, Messages: msgs})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
