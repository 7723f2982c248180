package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resumind/internal/extract"
	"resumind/internal/llm"
	"resumind/internal/shared/storage/object"
	"resumind/internal/shared/telemetry"
)

var apiURL = "https://api.openai.com/v1/chat/completions"

// Client implements llm.Client using OpenAI Chat Completions. Chat completions
// cannot read our blob store, so the PDF text is extracted locally and sent
// inline.
type Client struct {
	apiKey     string
	model      string
	files      object.ObjectStore
	httpClient *http.Client
}

const defaultTimeout = 2 * time.Minute

// NewClient constructs a new OpenAI client reading resumes from files. A
// non-positive timeout falls back to two minutes.
func NewClient(apiKey, model string, timeout time.Duration, files object.ObjectStore) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if files == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		files:      files,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Feedback extracts the resume text and asks the model for an evaluation.
func (c *Client) Feedback(ctx context.Context, fileRef string, prompt string) (*llm.Response, error) {
	resumeText, err := extract.Text(ctx, c.files, fileRef)
	if err != nil {
		return nil, fmt.Errorf("openai feedback: %w", err)
	}

	content, err := c.complete(ctx, BuildPrompt(prompt, resumeText))
	if err != nil {
		return nil, err
	}
	return llm.TextResponse(content), nil
}

func (c *Client) complete(ctx context.Context, messages []Message) (string, error) {
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := chatRequest{
		Model:          c.model,
		Messages:       reqMessages,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	if !isGPT5(c.model) {
		temp := float32(0)
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}
	logUsage(c.model, parsed)
	return content, nil
}

func logUsage(model string, parsed chatResponse) {
	fields := map[string]any{"model": model, "response_id": parsed.ID}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
