package openai

import (
	"fmt"
	"strings"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const (
	systemPrompt = "You are a resume review engine. Follow the instructions exactly and answer with the requested JSON object only."
	// maxResumeChars bounds the resume text placed in the prompt.
	maxResumeChars = 60000
)

// BuildPrompt creates the chat messages for a feedback request.
func BuildPrompt(instructions string, resumeText string) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(instructions, resumeText)},
	}
}

func buildUserPrompt(instructions, resumeText string) string {
	text := strings.TrimSpace(resumeText)
	if text == "" {
		text = "(no extractable text)"
	}
	if len(text) > maxResumeChars {
		text = text[:maxResumeChars]
	}
	return fmt.Sprintf("%s\n\nResume Text:\n%s", strings.TrimSpace(instructions), text)
}
