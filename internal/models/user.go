package models

// UserIdentity is the authenticated identity returned by the identity
// provider. Only the id matters to the core; email is carried for logging.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
