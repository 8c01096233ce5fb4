package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/mentor-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateTicket inserts a new assist ticket. The initial status is derived
// from the kind: snippet requests are born closed (audit log only), peer
// requests are born open.
func (r *PostgresRepository) CreateTicket(ctx context.Context, requesterID, challengeID string, kind models.TicketKind) (string, error) {
	id := uuid.New().String()

	query := `
		INSERT INTO assist_tickets (id, requester_id, challenge_id, kind, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	_, err := r.pool.Exec(ctx, query,
		id,
		requesterID,
		challengeID,
		string(kind),
		string(kind.InitialStatus()),
	)

	if err != nil {
		return "", fmt.Errorf("failed to create ticket: %w", err)
	}

	return id, nil
}

// GetTicket retrieves a ticket by ID. Returns nil, nil when not found.
func (r *PostgresRepository) GetTicket(ctx context.Context, id string) (*models.AssistTicket, error) {
	query := `
		SELECT id, requester_id, challenge_id, kind, status, claimed_by, created_at, claimed_at
		FROM assist_tickets
		WHERE id = $1
	`

	var t models.AssistTicket
	var kindStr, statusStr string
	var claimedBy sql.NullString
	var claimedAt sql.NullTime

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.RequesterID,
		&t.ChallengeID,
		&kindStr,
		&statusStr,
		&claimedBy,
		&t.CreatedAt,
		&claimedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	t.Kind = models.TicketKind(kindStr)
	t.Status = models.TicketStatus(statusStr)
	t.ClaimedBy = claimedBy.String

	if claimedAt.Valid {
		t.ClaimedAt = &claimedAt.Time
	}

	return &t, nil
}

// ListOpenPeerTickets returns all open peer-request tickets ordered
// oldest-first, so mentors serve the longest-waiting requesters. The
// result is a point-in-time snapshot: a ticket may be claimed between
// listing and a subsequent claim attempt, which ClaimTicket handles.
func (r *PostgresRepository) ListOpenPeerTickets(ctx context.Context) ([]*models.AssistTicket, error) {
	query := `
		SELECT id, requester_id, challenge_id, kind, status, claimed_by, created_at, claimed_at
		FROM assist_tickets
		WHERE kind = 'peer_request' AND status = 'open'
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.AssistTicket

	for rows.Next() {
		var t models.AssistTicket
		var kindStr, statusStr string
		var claimedBy sql.NullString
		var claimedAt sql.NullTime

		err := rows.Scan(
			&t.ID,
			&t.RequesterID,
			&t.ChallengeID,
			&kindStr,
			&statusStr,
			&claimedBy,
			&t.CreatedAt,
			&claimedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}

		t.Kind = models.TicketKind(kindStr)
		t.Status = models.TicketStatus(statusStr)
		t.ClaimedBy = claimedBy.String

		if claimedAt.Valid {
			t.ClaimedAt = &claimedAt.Time
		}

		tickets = append(tickets, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}

	return tickets, nil
}

// ClaimTicket attempts the open -> claimed transition as a single
// conditional update. The WHERE guard is evaluated under the database's
// row-level locking, so of any number of concurrent claims on the same
// ticket exactly one statement matches the row and the rest match
// nothing. A no-match outcome (already claimed, closed, or nonexistent)
// is the normal false result, not an error.
func (r *PostgresRepository) ClaimTicket(ctx context.Context, ticketID, mentorID string) (bool, error) {
	query := `
		UPDATE assist_tickets
		SET status = 'claimed', claimed_by = $2, claimed_at = NOW()
		WHERE id = $1 AND status = 'open'
	`

	result, err := r.pool.Exec(ctx, query, ticketID, mentorID)
	if err != nil {
		return false, fmt.Errorf("failed to claim ticket: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// CloseStalePeerTickets closes open peer tickets created before the
// cutoff. The status guard means a ticket claimed concurrently is left
// alone; only still-open rows transition.
func (r *PostgresRepository) CloseStalePeerTickets(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		UPDATE assist_tickets
		SET status = 'closed'
		WHERE kind = 'peer_request' AND status = 'open' AND created_at < $1
	`

	result, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to close stale tickets: %w", err)
	}

	return result.RowsAffected(), nil
}

// CountAssistEvents counts all assist tickets (snippet and peer) logged
// for a user on a challenge. Used to cross-check the client-reported
// assist count on submission.
func (r *PostgresRepository) CountAssistEvents(ctx context.Context, userID, challengeID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM assist_tickets
		WHERE requester_id = $1 AND challenge_id = $2
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, challengeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assist events: %w", err)
	}

	return count, nil
}

// CreateProof inserts a proof-of-completion record. Not idempotent:
// repeated successful submissions create independent records.
func (r *PostgresRepository) CreateProof(ctx context.Context, userID, challengeID string, assistsUsed int) (string, error) {
	id := uuid.New().String()

	query := `
		INSERT INTO proofs (id, user_id, challenge_id, assists_used, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	_, err := r.pool.Exec(ctx, query, id, userID, challengeID, assistsUsed)
	if err != nil {
		return "", fmt.Errorf("failed to create proof: %w", err)
	}

	return id, nil
}

// InsertDocument stores an embedded course-document chunk
func (r *PostgresRepository) InsertDocument(ctx context.Context, content string, embedding []float32, metadata map[string]string) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO documents (content, metadata, embedding)
		VALUES ($1, $2, $3::vector)
	`

	_, err = r.pool.Exec(ctx, query, content, metadataJSON, vectorLiteral(embedding))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

// MatchDocuments returns the chunks nearest to the query embedding by
// cosine distance.
func (r *PostgresRepository) MatchDocuments(ctx context.Context, embedding []float32, limit int) ([]*models.DocumentChunk, error) {
	if limit <= 0 {
		limit = 4
	}

	query := `
		SELECT id, content, metadata
		FROM documents
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, vectorLiteral(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to match documents: %w", err)
	}
	defer rows.Close()

	var chunks []*models.DocumentChunk

	for rows.Next() {
		var c models.DocumentChunk
		var metadataJSON []byte

		if err := rows.Scan(&c.ID, &c.Content, &metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &c.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		chunks = append(chunks, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return chunks, nil
}

// vectorLiteral renders an embedding in pgvector's text input format,
// e.g. "[0.1,0.2,0.3]".
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
