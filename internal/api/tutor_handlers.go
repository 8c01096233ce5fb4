package api

import (
	"encoding/json"
	"net/http"

	"github.com/terra-clan/mentor-engine/internal/models"
)

func (s *Server) handleTutorAsk(w http.ResponseWriter, r *http.Request) {
	var req models.TutorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Prompt == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "prompt is required")
		return
	}

	user := UserFromContext(r.Context())

	// Upstream failures degrade to text inside the service; this handler
	// always answers 200.
	response := s.tutorService.Ask(r.Context(), user, req.Prompt, req.ChatHistory)

	respondJSON(w, http.StatusOK, models.TutorResponse{Response: response})
}

func (s *Server) handleGetSnippet(w http.ResponseWriter, r *http.Request) {
	var req models.SnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ChallengeID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "challenge_id is required")
		return
	}

	user := UserFromContext(r.Context())

	snippet := s.tutorService.Snippet(r.Context(), user, req.ChallengeID)

	respondJSON(w, http.StatusOK, models.SnippetResponse{Snippet: snippet})
}
