package storage

import (
	"context"
	"time"

	"github.com/terra-clan/mentor-engine/internal/models"
)

// Repository defines the interface for ticket and proof persistence.
// It is the sole arbiter of ticket state: services must never cache
// ticket status across requests, and all status transitions are enforced
// here with conditional updates.
type Repository interface {
	// Tickets
	CreateTicket(ctx context.Context, requesterID, challengeID string, kind models.TicketKind) (string, error)
	GetTicket(ctx context.Context, id string) (*models.AssistTicket, error)
	ListOpenPeerTickets(ctx context.Context) ([]*models.AssistTicket, error)
	ClaimTicket(ctx context.Context, ticketID, mentorID string) (bool, error)
	CloseStalePeerTickets(ctx context.Context, olderThan time.Time) (int64, error)
	CountAssistEvents(ctx context.Context, userID, challengeID string) (int, error)

	// Proofs
	CreateProof(ctx context.Context, userID, challengeID string, assistsUsed int) (string, error)

	// Course documents
	InsertDocument(ctx context.Context, content string, embedding []float32, metadata map[string]string) error
	MatchDocuments(ctx context.Context, embedding []float32, limit int) ([]*models.DocumentChunk, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
