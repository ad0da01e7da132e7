package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-wardrobe/internal/config"
	"ai-wardrobe/internal/shared"
)

const (
	openAIAPIURL = "https://api.openai.com/v1/chat/completions"
	openAIModel  = "gpt-4o"
)

// openAIClient is a client for the OpenAI chat completions API. Any
// OpenAI-compatible endpoint works by overriding the URL.
type openAIClient struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewOpenAIClient creates a new OpenAI API client.
func NewOpenAIClient(cfg *config.Config) *openAIClient {
	return &openAIClient{
		apiKey: cfg.OpenAIAPIKey,
		apiURL: openAIAPIURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GenerateContent sends a text-only prompt and returns the generated text.
func (c *openAIClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	parts := []map[string]any{
		{"type": "text", "text": prompt},
	}
	return c.complete(ctx, parts, 500)
}

// AnalyzeImage sends the prompt with the image attached as a base64 data URL,
// the shape the chat completions API expects for vision requests.
func (c *openAIClient) AnalyzeImage(ctx context.Context, prompt string, img ImagePayload) (ContentResponse, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MIME, base64.StdEncoding.EncodeToString(img.Data))
	parts := []map[string]any{
		{"type": "text", "text": prompt},
		{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
	}
	return c.complete(ctx, parts, 500)
}

// Probe makes a minimal call to confirm the API key is accepted.
func (c *openAIClient) Probe(ctx context.Context) error {
	parts := []map[string]any{
		{"type": "text", "text": "Hi"},
	}
	_, err := c.complete(ctx, parts, 5)
	return err
}

func (c *openAIClient) complete(ctx context.Context, content []map[string]any, maxTokens int) (ContentResponse, error) {
	reqBody := map[string]any{
		"model": openAIModel,
		"messages": []map[string]any{
			{
				"role":    "user",
				"content": content,
			},
		},
		"temperature": 0.1,
		"max_tokens":  maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ContentResponse{}, fmt.Errorf("%w: status=%d", ErrUnauthorized, resp.StatusCode)
		case http.StatusTooManyRequests:
			return ContentResponse{}, fmt.Errorf("%w: status=%d", ErrRateLimited, resp.StatusCode)
		default:
			return ContentResponse{}, &APIError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
		}
	}

	var openAIResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&openAIResp); err != nil {
		return ContentResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(openAIResp.Choices) == 0 {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	return ContentResponse{
		Content: openAIResp.Choices[0].Message.Content,
		Usage: shared.TokenUsage{
			PromptTokens:     openAIResp.Usage.PromptTokens,
			CompletionTokens: openAIResp.Usage.CompletionTokens,
			TotalTokens:      openAIResp.Usage.TotalTokens,
			Model:            openAIModel,
		},
	}, nil
}
