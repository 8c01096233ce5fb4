package models

// DocumentChunk is one embedded slice of a course document, retrieved by
// vector similarity to ground the tutor's questions.
type DocumentChunk struct {
	ID       int64             `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
