package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CachedVisionAnalyzer wraps a VisionAnalyzer to cache results keyed by a
// hash of the prompt and image bytes, so re-analyzing the same photo does
// not cost another API call.
type CachedVisionAnalyzer struct {
	realGen       VisionAnalyzer
	cache         map[string]string
	cacheFilePath string
	mu            sync.Mutex
}

// NewCachedVisionAnalyzer creates a new CachedVisionAnalyzer.
// It attempts to load the cache from the specified file path.
func NewCachedVisionAnalyzer(realGen VisionAnalyzer, cacheFilePath string) (*CachedVisionAnalyzer, error) {
	c := &CachedVisionAnalyzer{
		realGen:       realGen,
		cache:         make(map[string]string),
		cacheFilePath: cacheFilePath,
	}

	// Ensure the directory for the cache file exists
	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	// Try to load existing cache
	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}

	if err := json.Unmarshal(data, &c.cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}

	return c, nil
}

// AnalyzeImage checks the cache first. If the result is not found, it calls
// the real analyzer, stores the result in the cache, and returns it.
// Cache hits report zero token usage.
func (c *CachedVisionAnalyzer) AnalyzeImage(ctx context.Context, prompt string, img ImagePayload) (ContentResponse, error) {
	key := cacheKey(prompt, img)

	c.mu.Lock()
	if content, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return ContentResponse{Content: content}, nil
	}
	c.mu.Unlock()

	resp, err := c.realGen.AnalyzeImage(ctx, prompt, img)
	if err != nil {
		return ContentResponse{}, err
	}

	c.mu.Lock()
	c.cache[key] = resp.Content
	c.mu.Unlock()
	return resp, nil
}

// SaveCache persists the current in-memory cache to the file system.
func (c *CachedVisionAnalyzer) SaveCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(c.cacheFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.cacheFilePath, err)
	}

	return nil
}

func cacheKey(prompt string, img ImagePayload) string {
	h := sha256.New()
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write(img.Data)
	return hex.EncodeToString(h.Sum(nil))
}
