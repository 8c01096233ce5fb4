package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/terra-clan/mentor-engine/internal/models"
)

func (s *Server) handleSandboxSubmit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ChallengeID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "challenge_id is required")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "code is required")
		return
	}

	user := UserFromContext(r.Context())

	result, err := s.sandboxService.Submit(r.Context(), user, req.Code, req.ChallengeID, req.AssistsUsed)
	if err != nil {
		slog.Error("submission evaluation failed", "error", err, "user", user.ID, "challenge", req.ChallengeID)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not evaluate submission")
		return
	}

	respondJSON(w, http.StatusOK, models.SubmitResponse{
		Success: result.Success,
		Message: result.Message,
		ProofID: result.ProofID,
	})
}
