package tutor

import (
	"context"
	"log/slog"

	"github.com/terra-clan/mentor-engine/internal/ai"
	"github.com/terra-clan/mentor-engine/internal/models"
	"github.com/terra-clan/mentor-engine/internal/snippets"
	"github.com/terra-clan/mentor-engine/internal/storage"
)

// degradedResponse is returned when the AI backend is unavailable. The
// tutor degrades to text rather than failing the request.
const degradedResponse = "The tutor is unavailable right now. Take another look at the course material and try again in a moment."

// Service answers tutoring questions with retrieval-augmented generation
// and serves static snippets with audit logging.
type Service interface {
	Ask(ctx context.Context, user *models.UserIdentity, prompt string, history []models.ChatMessage) string
	Snippet(ctx context.Context, user *models.UserIdentity, challengeID string) string
}

type service struct {
	repo           storage.Repository
	generator      ai.Generator
	embedder       ai.Embedder
	catalog        *snippets.Catalog
	retrievalLimit int
}

// NewService creates the tutor service
func NewService(repo storage.Repository, generator ai.Generator, embedder ai.Embedder, catalog *snippets.Catalog, retrievalLimit int) Service {
	if retrievalLimit <= 0 {
		retrievalLimit = 4
	}

	return &service{
		repo:           repo,
		generator:      generator,
		embedder:       embedder,
		catalog:        catalog,
		retrievalLimit: retrievalLimit,
	}
}

// Ask embeds the question, retrieves the nearest course-document chunks,
// and asks the generative backend for a Socratic response. Every upstream
// failure degrades: retrieval failures fall back to general knowledge,
// generation failures fall back to a fixed apology. Never an error.
func (s *service) Ask(ctx context.Context, user *models.UserIdentity, prompt string, history []models.ChatMessage) string {
	var chunks []*models.DocumentChunk

	vectors, err := s.embedder.Embed(ctx, []string{prompt})
	if err != nil || len(vectors) == 0 {
		slog.Warn("embedding failed, answering without retrieval", "error", err, "user", user.ID)
	} else {
		chunks, err = s.repo.MatchDocuments(ctx, vectors[0], s.retrievalLimit)
		if err != nil {
			slog.Warn("document retrieval failed, answering without context", "error", err, "user", user.ID)
			chunks = nil
		}
	}

	full := buildPrompt(chunks, history, prompt)

	response, err := s.generator.Generate(ctx, full)
	if err != nil {
		slog.Error("generative backend failed", "error", err, "user", user.ID)
		return degradedResponse
	}

	slog.Info("tutor response generated", "user", user.ID, "context_chunks", len(chunks))
	return response
}

// Snippet returns the static hint for a challenge, or the placeholder for
// an unrecognized id. Either way a closed snippet-request ticket is
// logged for the audit trail; a logging failure is swallowed because it
// must never cost the student their snippet.
func (s *service) Snippet(ctx context.Context, user *models.UserIdentity, challengeID string) string {
	text, found := s.catalog.Get(challengeID)
	if !found {
		slog.Info("snippet requested for unknown challenge", "user", user.ID, "challenge", challengeID)
	}

	if _, err := s.repo.CreateTicket(ctx, user.ID, challengeID, models.KindSnippetRequest); err != nil {
		slog.Warn("failed to log snippet request", "error", err, "user", user.ID, "challenge", challengeID)
	}

	return text
}
