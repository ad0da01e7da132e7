package llm

import (
	"context"
	"errors"
	"fmt"

	"ai-wardrobe/internal/shared"
)

// Sentinel errors for the failure modes callers need to tell apart.
var (
	// ErrUnauthorized indicates a rejected or missing API credential.
	ErrUnauthorized = errors.New("model api: invalid or missing credential")
	// ErrRateLimited indicates the provider's rate or quota limit was hit.
	ErrRateLimited = errors.New("model api: rate limit exceeded")
)

// APIError is returned for non-OK provider responses that are not
// credential or quota failures.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ImagePayload carries raw image bytes plus their MIME type.
type ImagePayload struct {
	Data []byte
	MIME string
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// VisionAnalyzer is an interface for describing an image according to a prompt.
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, prompt string, img ImagePayload) (ContentResponse, error)
}

// Prober is an interface for validating a credential with a minimal call.
type Prober interface {
	Probe(ctx context.Context) error
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
