package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/mentor-engine/internal/models"
)

func (s *Server) handleAssistRequest(w http.ResponseWriter, r *http.Request) {
	var req models.AssistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ChallengeID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "challenge_id is required")
		return
	}

	user := UserFromContext(r.Context())

	assistID, err := s.assistService.RequestHelp(r.Context(), user, req.ChallengeID)
	if err != nil {
		slog.Error("failed to create assist request", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not create assist request")
		return
	}

	respondJSON(w, http.StatusOK, models.AssistResponse{
		Success:  true,
		Message:  "Help request submitted. A peer mentor will be notified.",
		AssistID: assistID,
	})
}

func (s *Server) handleAssistQueue(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	queue, err := s.assistService.ListQueue(r.Context(), user)
	if err != nil {
		slog.Error("failed to list assist queue", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not list queue")
		return
	}

	if queue == nil {
		queue = []*models.AssistTicket{}
	}

	respondJSON(w, http.StatusOK, models.QueueResponse{
		Success: true,
		Queue:   queue,
	})
}

func (s *Server) handleAssistClaim(w http.ResponseWriter, r *http.Request) {
	assistID := chi.URLParam(r, "assist_id")
	if assistID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "assist id is required")
		return
	}

	user := UserFromContext(r.Context())

	won, err := s.assistService.Claim(r.Context(), user, assistID)
	if err != nil {
		slog.Error("failed to claim ticket", "error", err, "ticket", assistID, "mentor", user.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not claim request")
		return
	}

	// Losing the race is a normal outcome, reported as a non-5xx
	// semantic failure distinct from transport or auth errors.
	if !won {
		respondJSON(w, http.StatusNotFound, models.AssistResponse{
			Success: false,
			Message: "Could not claim request. It may already be taken.",
		})
		return
	}

	respondJSON(w, http.StatusOK, models.AssistResponse{
		Success: true,
		Message: "Request claimed successfully.",
	})
}
