package models

import "time"

// TicketKind distinguishes an instantly-resolved hint request from a
// queued mentor request.
type TicketKind string

const (
	KindSnippetRequest TicketKind = "snippet_request"
	KindPeerRequest    TicketKind = "peer_request"
)

// TicketStatus represents the lifecycle state of an assist ticket
type TicketStatus string

const (
	TicketOpen    TicketStatus = "open"    // Queued, waiting for a mentor
	TicketClaimed TicketStatus = "claimed" // A mentor owns it
	TicketClosed  TicketStatus = "closed"  // Resolved or logged-only
)

// AssistTicket represents either a logged hint request or a queued
// peer-help request. Snippet requests are born closed and exist purely as
// audit entries; peer requests are born open and wait in the queue.
type AssistTicket struct {
	ID          string       `json:"id"`
	RequesterID string       `json:"requester_id"`
	ChallengeID string       `json:"challenge_id"`
	Kind        TicketKind   `json:"kind"`
	Status      TicketStatus `json:"status"`
	ClaimedBy   string       `json:"claimed_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	ClaimedAt   *time.Time   `json:"claimed_at,omitempty"`
}

// InitialStatus returns the status a freshly created ticket of this kind
// must start in.
func (k TicketKind) InitialStatus() TicketStatus {
	if k == KindSnippetRequest {
		return TicketClosed
	}
	return TicketOpen
}

// IsValid reports whether the kind is one of the known values
func (k TicketKind) IsValid() bool {
	return k == KindSnippetRequest || k == KindPeerRequest
}

// IsTerminal returns true if the ticket can no longer transition
func (s TicketStatus) IsTerminal() bool {
	return s == TicketClaimed || s == TicketClosed
}
