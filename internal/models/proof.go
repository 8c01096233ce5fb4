package models

import "time"

// ProofRecord is durable evidence that a user completed a challenge,
// including how many assists (snippet + peer) were consumed on the way.
// Records are created exactly once per successful submission and never
// mutated; repeated submissions create independent records.
type ProofRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ChallengeID string    `json:"challenge_id"`
	AssistsUsed int       `json:"assists_used"`
	CreatedAt   time.Time `json:"created_at"`
}
