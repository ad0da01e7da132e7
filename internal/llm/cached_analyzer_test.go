package llm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

type countingAnalyzer struct {
	calls int
	resp  ContentResponse
	err   error
}

func (c *countingAnalyzer) AnalyzeImage(ctx context.Context, prompt string, img ImagePayload) (ContentResponse, error) {
	c.calls++
	return c.resp, c.err
}

func TestCachedAnalyzerHitsCacheOnRepeat(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	real := &countingAnalyzer{resp: ContentResponse{Content: `{"category": "Top"}`}}

	cached, err := NewCachedVisionAnalyzer(real, cachePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img := ImagePayload{Data: []byte("photo-bytes"), MIME: "image/jpeg"}

	first, err := cached.AnalyzeImage(context.Background(), "prompt", img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cached.AnalyzeImage(context.Background(), "prompt", img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if real.calls != 1 {
		t.Errorf("expected 1 real call, got %d", real.calls)
	}
	if first.Content != second.Content {
		t.Errorf("cache returned different content: %q vs %q", first.Content, second.Content)
	}
}

func TestCachedAnalyzerDistinguishesPromptAndImage(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	real := &countingAnalyzer{resp: ContentResponse{Content: "result"}}

	cached, err := NewCachedVisionAnalyzer(real, cachePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	cached.AnalyzeImage(ctx, "prompt-a", ImagePayload{Data: []byte("img")})
	cached.AnalyzeImage(ctx, "prompt-b", ImagePayload{Data: []byte("img")})
	cached.AnalyzeImage(ctx, "prompt-a", ImagePayload{Data: []byte("other")})

	if real.calls != 3 {
		t.Errorf("expected 3 real calls for distinct inputs, got %d", real.calls)
	}
}

func TestCachedAnalyzerSurvivesReload(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	real := &countingAnalyzer{resp: ContentResponse{Content: "persisted"}}

	cached, err := NewCachedVisionAnalyzer(real, cachePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img := ImagePayload{Data: []byte("photo"), MIME: "image/jpeg"}
	if _, err := cached.AnalyzeImage(context.Background(), "prompt", img); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cached.SaveCache(); err != nil {
		t.Fatalf("failed to save cache: %v", err)
	}

	reloaded, err := NewCachedVisionAnalyzer(real, cachePath)
	if err != nil {
		t.Fatalf("failed to reload cache: %v", err)
	}
	resp, err := reloaded.AnalyzeImage(context.Background(), "prompt", img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if real.calls != 1 {
		t.Errorf("expected reload to serve from disk cache, real calls = %d", real.calls)
	}
	if resp.Content != "persisted" {
		t.Errorf("expected persisted content, got %q", resp.Content)
	}
}

func TestCachedAnalyzerDoesNotCacheErrors(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	real := &countingAnalyzer{err: errors.New("model down")}

	cached, err := NewCachedVisionAnalyzer(real, cachePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img := ImagePayload{Data: []byte("photo")}
	if _, err := cached.AnalyzeImage(context.Background(), "prompt", img); err == nil {
		t.Fatal("expected an error")
	}

	real.err = nil
	real.resp = ContentResponse{Content: "recovered"}
	resp, err := cached.AnalyzeImage(context.Background(), "prompt", img)
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if resp.Content != "recovered" {
		t.Errorf("expected fresh result after error, got %q", resp.Content)
	}
	if real.calls != 2 {
		t.Errorf("expected 2 real calls, got %d", real.calls)
	}
}
