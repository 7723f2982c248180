package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts inference providers that review a stored resume.
type Client interface {
	// Feedback evaluates the file stored at fileRef following prompt.
	Feedback(ctx context.Context, fileRef string, prompt string) (*Response, error)
}

// Response is the chat-style envelope returned by providers.
type Response struct {
	Message Message `json:"message"`
}

// Message carries the model output. Content is either a JSON string or an
// array of parts; providers differ and callers normalise through Text.
type Message struct {
	Role    string          `json:"role,omitempty"`
	Content json.RawMessage `json:"content"`
}

// Part is one element of an array-shaped content.
type Part struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

var (
	// ErrNotImplemented is returned by the placeholder client.
	ErrNotImplemented = errors.New("LLM not implemented")
	// ErrNoContent means the envelope carried no usable content.
	ErrNoContent = errors.New("response has no content")
	// ErrMalformedContent means content is neither text nor a non-empty list of parts.
	ErrMalformedContent = errors.New("response content has an unsupported shape")
)

// TextResponse wraps plain text in an envelope.
func TextResponse(text string) *Response {
	raw, _ := json.Marshal(text)
	return &Response{Message: Message{Role: "assistant", Content: raw}}
}

// PartsResponse wraps content parts in an envelope.
func PartsResponse(parts ...Part) *Response {
	if parts == nil {
		parts = []Part{}
	}
	raw, _ := json.Marshal(parts)
	return &Response{Message: Message{Role: "assistant", Content: raw}}
}

// HasContent reports whether the envelope carries any content at all. Null,
// false, zero and the empty string count as absent.
func (r *Response) HasContent() bool {
	if r == nil {
		return false
	}
	c := bytes.TrimSpace(r.Message.Content)
	switch string(c) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// Text normalises the content into a single string. A string is returned as
// is; for a list the first part is used, taking its text field when it is an
// object. Any other shape yields ErrMalformedContent.
func (r *Response) Text() (string, error) {
	if !r.HasContent() {
		return "", ErrNoContent
	}
	content := bytes.TrimSpace(r.Message.Content)

	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		return text, nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(content, &parts); err != nil || len(parts) == 0 {
		return "", ErrMalformedContent
	}
	first := parts[0]
	if err := json.Unmarshal(first, &text); err == nil {
		return text, nil
	}
	var part struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(first, &part); err == nil && part.Text != nil {
		return *part.Text, nil
	}
	return "", nil
}

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Feedback returns ErrNotImplemented.
func (PlaceholderClient) Feedback(context.Context, string, string) (*Response, error) {
	return nil, ErrNotImplemented
}
