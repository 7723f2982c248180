package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestResponseText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{name: "plain string", content: `"{\"overallScore\":1}"`, want: `{"overallScore":1}`},
		{name: "parts with text", content: `[{"type":"text","text":"hello"},{"text":"ignored"}]`, want: "hello"},
		{name: "parts of strings", content: `["first","second"]`, want: "first"},
		{name: "part without text", content: `[{"type":"image"}]`, want: ""},
		{name: "empty array", content: `[]`, wantErr: ErrMalformedContent},
		{name: "object", content: `{"text":"x"}`, wantErr: ErrMalformedContent},
		{name: "number", content: `42`, wantErr: ErrMalformedContent},
		{name: "null", content: `null`, wantErr: ErrNoContent},
		{name: "empty string", content: `""`, wantErr: ErrNoContent},
		{name: "missing", content: ``, wantErr: ErrNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &Response{Message: Message{Content: json.RawMessage(tt.content)}}
			got, err := resp.Text()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestNilResponseHasNoContent(t *testing.T) {
	var resp *Response
	if resp.HasContent() {
		t.Fatalf("nil response must not have content")
	}
	if _, err := resp.Text(); !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestConstructors(t *testing.T) {
	text, err := TextResponse("ok").Text()
	if err != nil || text != "ok" {
		t.Fatalf("TextResponse round trip: %q %v", text, err)
	}
	text, err = PartsResponse(Part{Type: "text", Text: "part"}).Text()
	if err != nil || text != "part" {
		t.Fatalf("PartsResponse round trip: %q %v", text, err)
	}
	if _, err := PartsResponse().Text(); !errors.Is(err, ErrMalformedContent) {
		t.Fatalf("expected empty parts to be malformed, got %v", err)
	}
}

func TestFeedbackPrompt(t *testing.T) {
	p := FeedbackPrompt("Engineer", "Build things")
	if !strings.Contains(p, "Job title: Engineer") || !strings.Contains(p, "Job description: Build things") {
		t.Fatalf("prompt missing job context:\n%s", p)
	}
	if strings.Contains(p, "{{") {
		t.Fatalf("prompt has unreplaced placeholders")
	}

	blank := FeedbackPrompt(" ", "")
	if !strings.Contains(blank, "Job title: N/A") {
		t.Fatalf("expected N/A for blank title")
	}
}

func TestPlaceholderClient(t *testing.T) {
	if _, err := (PlaceholderClient{}).Feedback(context.Background(), "ref", "p"); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}
