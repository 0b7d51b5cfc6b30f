package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CachedTextGenerator wraps a TextGenerator and remembers replies by prompt.
// Normalizing the same item twice then costs a single API call. When a cache
// file is configured the cache survives restarts via SaveCache.
type CachedTextGenerator struct {
	realGen       TextGenerator
	cache         map[string]string
	cacheFilePath string
	mu            sync.Mutex
}

// NewCachedTextGenerator creates a new CachedTextGenerator. An empty
// cacheFilePath keeps the cache in memory only.
func NewCachedTextGenerator(realGen TextGenerator, cacheFilePath string) (*CachedTextGenerator, error) {
	c := &CachedTextGenerator{
		realGen:       realGen,
		cache:         make(map[string]string),
		cacheFilePath: cacheFilePath,
	}
	if cacheFilePath == "" {
		return c, nil
	}

	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

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

// GenerateContent returns the cached reply for prompt if there is one. Cache
// hits report zero token usage.
func (c *CachedTextGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	c.mu.Lock()
	if content, ok := c.cache[prompt]; ok {
		c.mu.Unlock()
		return ContentResponse{Content: content}, nil
	}
	c.mu.Unlock()

	resp, err := c.realGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ContentResponse{}, err
	}

	c.mu.Lock()
	c.cache[prompt] = resp.Content
	c.mu.Unlock()
	return resp, nil
}

// Forget drops a cached reply, e.g. after it turned out to be unusable.
func (c *CachedTextGenerator) Forget(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, prompt)
}

// Len returns the number of cached replies.
func (c *CachedTextGenerator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// SaveCache persists the current in-memory cache to the file system.
func (c *CachedTextGenerator) SaveCache() error {
	if c.cacheFilePath == "" {
		return nil
	}
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

// Close saves the cache and closes the wrapped generator when it holds resources.
func (c *CachedTextGenerator) Close() error {
	if err := c.SaveCache(); err != nil {
		return err
	}
	if closer, ok := c.realGen.(Closer); ok {
		return closer.Close()
	}
	return nil
}
