package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"resumind/internal/extract"
	"resumind/internal/llm"
	"resumind/internal/shared/storage/object"
	"resumind/internal/shared/telemetry"
)

const defaultModel = "gemini-2.5-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Client on the Gemini API. The PDF is attached inline
// so the model reads the original layout rather than extracted text.
type Client struct {
	models contentGenerator
	model  string
	files  object.ObjectStore
}

// NewClient creates a Gemini client reading resumes from files.
func NewClient(ctx context.Context, apiKey, model string, files object.ObjectStore) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if files == nil {
		return nil, errors.New("object store is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newClient(client.Models, model, files), nil
}

func newClient(models contentGenerator, model string, files object.ObjectStore) *Client {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Client{models: models, model: model, files: files}
}

// Feedback sends the stored PDF and the instructions in one user turn and
// returns the text parts of the first candidate.
func (c *Client) Feedback(ctx context.Context, fileRef string, prompt string) (*llm.Response, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("prompt must not be empty")
	}

	data, err := extract.ReadObject(ctx, c.files, fileRef)
	if err != nil {
		return nil, fmt.Errorf("gemini feedback: %w", err)
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: data}},
			{Text: prompt},
		},
	}}
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := candidateText(resp)
	if text == "" {
		return nil, errors.New("gemini api returned empty response")
	}
	if resp.UsageMetadata != nil {
		telemetry.Info("llm.response", map[string]any{
			"model":        c.model,
			"total_tokens": resp.UsageMetadata.TotalTokenCount,
		})
	}
	return llm.TextResponse(text), nil
}

// candidateText joins the answer parts of the first candidate that has any.
// Gemini may split one JSON document across parts, so fragments are
// concatenated untrimmed.
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text
		}
	}
	return ""
}

var _ llm.Client = (*Client)(nil)
