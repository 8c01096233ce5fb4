package models

// Request/response bodies for the HTTP surface.

// ChatMessage is one turn of tutor chat history
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TutorRequest is the body of POST /tutor/ask
type TutorRequest struct {
	Prompt      string        `json:"prompt"`
	ChatHistory []ChatMessage `json:"chat_history,omitempty"`
}

// TutorResponse is returned by POST /tutor/ask
type TutorResponse struct {
	Response string `json:"response"`
}

// SnippetRequest is the body of POST /tutor/get-snippet
type SnippetRequest struct {
	ChallengeID string `json:"challenge_id"`
}

// SnippetResponse is returned by POST /tutor/get-snippet
type SnippetResponse struct {
	Snippet string `json:"snippet"`
}

// SubmitRequest is the body of POST /sandbox/submit
type SubmitRequest struct {
	Code        string `json:"code"`
	ChallengeID string `json:"challenge_id"`
	AssistsUsed int    `json:"assists_used"`
}

// SubmitResponse is returned by POST /sandbox/submit
type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ProofID string `json:"proof_id,omitempty"`
}

// AssistRequest is the body of POST /assist/request
type AssistRequest struct {
	ChallengeID string `json:"challenge_id"`
}

// AssistResponse is returned by the assist request and claim endpoints
type AssistResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	AssistID string `json:"assist_id,omitempty"`
}

// QueueResponse is returned by GET /assist/queue
type QueueResponse struct {
	Success bool            `json:"success"`
	Queue   []*AssistTicket `json:"queue"`
}
