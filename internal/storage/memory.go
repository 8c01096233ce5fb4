package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/mentor-engine/internal/models"
)

// MemoryRepository is a mutex-guarded in-memory Repository used by tests.
// It mirrors the conditional-update semantics of the Postgres
// implementation: a claim checks and flips status under one lock
// acquisition, so the exactly-one-winner property holds here too.
//
// It must never back a real deployment: multiple service instances
// sharing a store need the database's concurrency control, not a
// process-local mutex.
type MemoryRepository struct {
	mu      sync.Mutex
	tickets map[string]*models.AssistTicket
	proofs  map[string]*models.ProofRecord
	docs    []*models.DocumentChunk
	nextDoc int64

	// FailTickets makes ticket writes fail, for exercising best-effort
	// logging paths.
	FailTickets bool
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tickets: make(map[string]*models.AssistTicket),
		proofs:  make(map[string]*models.ProofRecord),
	}
}

var errMemoryUnavailable = &StoreError{Op: "memory", Msg: "store unavailable"}

// StoreError is a storage-layer failure with the operation attached
type StoreError struct {
	Op  string
	Msg string
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Msg
}

func (r *MemoryRepository) CreateTicket(ctx context.Context, requesterID, challengeID string, kind models.TicketKind) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailTickets {
		return "", errMemoryUnavailable
	}

	id := uuid.New().String()
	r.tickets[id] = &models.AssistTicket{
		ID:          id,
		RequesterID: requesterID,
		ChallengeID: challengeID,
		Kind:        kind,
		Status:      kind.InitialStatus(),
		CreatedAt:   time.Now(),
	}
	return id, nil
}

func (r *MemoryRepository) GetTicket(ctx context.Context, id string) (*models.AssistTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryRepository) ListOpenPeerTickets(ctx context.Context) ([]*models.AssistTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tickets []*models.AssistTicket
	for _, t := range r.tickets {
		if t.Kind == models.KindPeerRequest && t.Status == models.TicketOpen {
			cp := *t
			tickets = append(tickets, &cp)
		}
	}

	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})

	return tickets, nil
}

func (r *MemoryRepository) ClaimTicket(ctx context.Context, ticketID, mentorID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[ticketID]
	if !ok || t.Status != models.TicketOpen {
		return false, nil
	}

	now := time.Now()
	t.Status = models.TicketClaimed
	t.ClaimedBy = mentorID
	t.ClaimedAt = &now
	return true, nil
}

func (r *MemoryRepository) CloseStalePeerTickets(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var closed int64
	for _, t := range r.tickets {
		if t.Kind == models.KindPeerRequest && t.Status == models.TicketOpen && t.CreatedAt.Before(olderThan) {
			t.Status = models.TicketClosed
			closed++
		}
	}
	return closed, nil
}

func (r *MemoryRepository) CountAssistEvents(ctx context.Context, userID, challengeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, t := range r.tickets {
		if t.RequesterID == userID && t.ChallengeID == challengeID {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) CreateProof(ctx context.Context, userID, challengeID string, assistsUsed int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	r.proofs[id] = &models.ProofRecord{
		ID:          id,
		UserID:      userID,
		ChallengeID: challengeID,
		AssistsUsed: assistsUsed,
		CreatedAt:   time.Now(),
	}
	return id, nil
}

// GetProof returns a stored proof record, for test assertions
func (r *MemoryRepository) GetProof(id string) *models.ProofRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.proofs[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (r *MemoryRepository) InsertDocument(ctx context.Context, content string, embedding []float32, metadata map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextDoc++
	r.docs = append(r.docs, &models.DocumentChunk{
		ID:       r.nextDoc,
		Content:  content,
		Metadata: metadata,
	})
	return nil
}

// MatchDocuments returns chunks in insertion order. Similarity ranking is
// the database's job; insertion order is enough for tests.
func (r *MemoryRepository) MatchDocuments(ctx context.Context, embedding []float32, limit int) ([]*models.DocumentChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.docs) {
		limit = len(r.docs)
	}

	chunks := make([]*models.DocumentChunk, 0, limit)
	for _, d := range r.docs[:limit] {
		cp := *d
		chunks = append(chunks, &cp)
	}
	return chunks, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
