package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/mentor-engine/internal/models"
	"github.com/terra-clan/mentor-engine/internal/storage"
)

// ErrCreationFailed is returned when the store rejected or failed a
// ticket creation. Surfaced as a server error; not retried automatically.
var ErrCreationFailed = errors.New("could not create assist request")

// Service is the policy layer for the peer-assist queue. The store owns
// every concurrency outcome: this layer never caches ticket state and
// treats each store result as the single source of truth.
type Service interface {
	RequestHelp(ctx context.Context, user *models.UserIdentity, challengeID string) (string, error)
	ListQueue(ctx context.Context, user *models.UserIdentity) ([]*models.AssistTicket, error)
	Claim(ctx context.Context, user *models.UserIdentity, ticketID string) (bool, error)
}

type service struct {
	repo     storage.Repository
	notifier Notifier
}

// NewService creates the assist service. notifier may be nil.
func NewService(repo storage.Repository, notifier Notifier) Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}

	return &service{
		repo:     repo,
		notifier: notifier,
	}
}

// RequestHelp creates an open peer-request ticket for the stuck user
func (s *service) RequestHelp(ctx context.Context, user *models.UserIdentity, challengeID string) (string, error) {
	ticketID, err := s.repo.CreateTicket(ctx, user.ID, challengeID, models.KindPeerRequest)
	if err != nil {
		slog.Error("failed to create peer ticket", "error", err, "user", user.ID, "challenge", challengeID)
		return "", fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}

	slog.Info("peer assist requested", "ticket", ticketID, "user", user.ID, "challenge", challengeID)

	// Best effort: mentors watching the queue get a nudge, but the
	// ticket exists either way.
	s.notifier.TicketOpened(ctx, ticketID, challengeID)

	return ticketID, nil
}

// ListQueue returns a snapshot of the open queue, oldest first. Every
// authenticated user sees the full queue; per-mentor filtering is a known
// simplification, not a security boundary.
func (s *service) ListQueue(ctx context.Context, user *models.UserIdentity) ([]*models.AssistTicket, error) {
	tickets, err := s.repo.ListOpenPeerTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	return tickets, nil
}

// Claim attempts to take ownership of an open ticket for the mentor.
// A false result means already claimed or nonexistent; the caller must
// report that as a normal outcome, not a transport or auth failure.
func (s *service) Claim(ctx context.Context, user *models.UserIdentity, ticketID string) (bool, error) {
	won, err := s.repo.ClaimTicket(ctx, ticketID, user.ID)
	if err != nil {
		return false, fmt.Errorf("failed to claim ticket: %w", err)
	}

	if won {
		slog.Info("ticket claimed", "ticket", ticketID, "mentor", user.ID)
		s.notifier.TicketClaimed(ctx, ticketID, user.ID)
	}

	return won, nil
}
