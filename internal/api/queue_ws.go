package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/mentor-engine/internal/assist"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventSource hands out subscriptions to the assist queue event stream.
// The returned cancel func releases the subscription.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan assist.Event, func(), error)
}

// RedisEventSource subscribes to the assist events pub/sub channel
type RedisEventSource struct {
	rdb *redis.Client
}

// NewRedisEventSource creates an event source over the given Redis client
func NewRedisEventSource(rdb *redis.Client) *RedisEventSource {
	return &RedisEventSource{rdb: rdb}
}

func (es *RedisEventSource) Subscribe(ctx context.Context) (<-chan assist.Event, func(), error) {
	sub := es.rdb.Subscribe(ctx, assist.EventsChannel)

	// Force the SUBSCRIBE round trip so a dead Redis fails here, not
	// silently inside the receive loop.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, err
	}

	events := make(chan assist.Event, 16)
	done := make(chan struct{})

	go func() {
		defer close(events)
		ch := sub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev assist.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.Debug("discarding malformed assist event", "error", err)
					continue
				}
				select {
				case events <- ev:
				default:
					slog.Debug("dropping assist event, subscriber too slow", "type", ev.Type)
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			sub.Close()
		})
	}

	return events, cancel, nil
}

type queueWatchMessage struct {
	Type        string `json:"type"`
	TicketID    string `json:"ticket_id,omitempty"`
	ChallengeID string `json:"challenge_id,omitempty"`
	Data        string `json:"data,omitempty"`
}

func (s *Server) handleQueueWatch(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		respondError(w, http.StatusServiceUnavailable, "unavailable", "queue watch is not enabled")
		return
	}

	user := UserFromContext(r.Context())

	events, release, err := s.events.Subscribe(r.Context())
	if err != nil {
		slog.Error("failed to subscribe to queue events", "error", err, "user", user.ID)
		respondError(w, http.StatusServiceUnavailable, "unavailable", "could not subscribe to queue events")
		return
	}
	defer release()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("queue watch connected", "user", user.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.sendQueueMessage(conn, queueWatchMessage{
		Type: "connected",
		Data: "Watching the assist queue",
	})

	var wg sync.WaitGroup

	// Events -> WebSocket
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := s.sendQueueMessage(conn, queueWatchMessage{
					Type:        ev.Type,
					TicketID:    ev.TicketID,
					ChallengeID: ev.ChallengeID,
				}); err != nil {
					return
				}
			}
		}
	}()

	// Drain the WebSocket so close frames and pings are processed. The
	// stream is one way, inbound payloads are ignored.
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	wg.Wait()
	slog.Info("queue watch disconnected", "user", user.ID)
}

func (s *Server) sendQueueMessage(conn *websocket.Conn, msg queueWatchMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal queue message", "error", err)
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send queue message", "error", err)
		return err
	}
	return nil
}
