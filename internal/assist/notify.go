package assist

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis pub/sub channel carrying queue events
const EventsChannel = "assist:events"

// Event is one queue notification
type Event struct {
	Type        string    `json:"type"` // "ticket_opened" or "ticket_claimed"
	TicketID    string    `json:"ticket_id"`
	ChallengeID string    `json:"challenge_id,omitempty"`
	MentorID    string    `json:"mentor_id,omitempty"`
	At          time.Time `json:"at"`
}

// Notifier announces queue changes to whoever is watching. Every method
// is best-effort: a notification failure must never fail the mutation
// that triggered it.
type Notifier interface {
	TicketOpened(ctx context.Context, ticketID, challengeID string)
	TicketClaimed(ctx context.Context, ticketID, mentorID string)
}

// NopNotifier discards all events
type NopNotifier struct{}

func (NopNotifier) TicketOpened(context.Context, string, string)  {}
func (NopNotifier) TicketClaimed(context.Context, string, string) {}

// RedisNotifier publishes queue events to a Redis channel
type RedisNotifier struct {
	rdb *redis.Client
}

// NewRedisNotifier creates a notifier over the given Redis client
func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

func (n *RedisNotifier) TicketOpened(ctx context.Context, ticketID, challengeID string) {
	n.publish(ctx, Event{
		Type:        "ticket_opened",
		TicketID:    ticketID,
		ChallengeID: challengeID,
		At:          time.Now().UTC(),
	})
}

func (n *RedisNotifier) TicketClaimed(ctx context.Context, ticketID, mentorID string) {
	n.publish(ctx, Event{
		Type:     "ticket_claimed",
		TicketID: ticketID,
		MentorID: mentorID,
		At:       time.Now().UTC(),
	})
}

func (n *RedisNotifier) publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal assist event", "error", err)
		return
	}

	if err := n.rdb.Publish(ctx, EventsChannel, data).Err(); err != nil {
		slog.Warn("failed to publish assist event", "error", err, "type", ev.Type, "ticket", ev.TicketID)
	}
}
