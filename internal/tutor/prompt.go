package tutor

import (
	"strings"

	"github.com/terra-clan/mentor-engine/internal/models"
)

// systemPrompt frames the model as a Socratic tutor: questions only,
// grounded in the retrieved context. The retrieved material and history
// are substituted into the marked sections.
const systemPrompt = `You are a Socratic tutor for a hands-on cybersecurity course.
Your one goal is to help a student solve a problem without ever giving them the answer.
You must only respond with guiding questions.

RULES:
1. DO NOT write code.
2. DO NOT give direct, declarative answers.
3. ONLY ask one or two guiding, open-ended questions in response.
4. You must use the [PROVIDED CONTEXT] to inform your questions.
---
[PROVIDED CONTEXT]:
%CONTEXT%
---
[CHAT HISTORY]:
%HISTORY%
---
[STUDENT QUESTION]:
%QUESTION%
`

const noContextFallback = "No specific context found. Use general knowledge."

// buildPrompt assembles the full prompt from retrieved chunks, chat
// history, and the student's question.
func buildPrompt(chunks []*models.DocumentChunk, history []models.ChatMessage, question string) string {
	contextText := noContextFallback
	if len(chunks) > 0 {
		parts := make([]string, 0, len(chunks))
		for _, c := range chunks {
			parts = append(parts, c.Content)
		}
		contextText = strings.Join(parts, "\n---\n")
	}

	var hb strings.Builder
	for _, msg := range history {
		role := msg.Role
		if role == "" {
			role = "user"
		}
		hb.WriteString(role)
		hb.WriteString(": ")
		hb.WriteString(msg.Content)
		hb.WriteByte('\n')
	}

	prompt := strings.Replace(systemPrompt, "%CONTEXT%", contextText, 1)
	prompt = strings.Replace(prompt, "%HISTORY%", strings.TrimRight(hb.String(), "\n"), 1)
	prompt = strings.Replace(prompt, "%QUESTION%", question, 1)
	return prompt
}
