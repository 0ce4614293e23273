package pipeline

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cgogen/internal/decl"
)

// cacheVersion is bumped when the cache entry format changes; old entries
// then miss and get rewritten.
const cacheVersion = "1.0.0"

type cacheEntry struct {
	Key       string                 `json:"key"`
	Frontend  string                 `json:"frontend"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Decls     []decl.Decl[decl.Info] `json:"decls"`
}

// Cache memoizes per-file discovery results on disk. Keys cover the input
// bytes, the frontend, and the format version, so edited inputs and upgraded
// tools miss naturally instead of needing invalidation.
type Cache struct {
	dir     string
	enabled bool

	mu     sync.Mutex
	hits   int
	misses int
}

// NewCache opens the cache under $CGOGEN_CACHE_DIR, falling back to
// ~/.cache/cgogen/decls. Any setup failure yields a disabled cache rather
// than an error: caching is an optimization, never a requirement.
func NewCache() *Cache {
	cacheDir := os.Getenv("CGOGEN_CACHE_DIR")
	if cacheDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return &Cache{}
		}
		cacheDir = filepath.Join(homeDir, ".cache", "cgogen", "decls")
	}
	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		return &Cache{}
	}
	return &Cache{dir: cacheDir, enabled: true}
}

// NewCacheDisabled creates a no-op cache for --no-cache runs.
func NewCacheDisabled() *Cache {
	return &Cache{}
}

// cacheKey identifies one discovery result by input content and frontend.
func cacheKey(content []byte, frontendName string) string {
	h := sha256.New()
	h.Write(content)
	io.WriteString(h, frontendName)
	io.WriteString(h, cacheVersion)
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

// Get retrieves a cached batch if present and current.
func (c *Cache) Get(key, frontendName string) ([]decl.Decl[decl.Info], bool) {
	if !c.enabled {
		return nil, false
	}

	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		c.miss(key)
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.miss(key)
		return nil, false
	}
	if entry.Version != cacheVersion || entry.Frontend != frontendName || entry.Key != key {
		c.miss(key)
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	Debugf("[cache] HIT: %s", key)
	return entry.Decls, true
}

// Put stores a discovery batch. Failures are silent; the next run simply
// rediscovers.
func (c *Cache) Put(key, frontendName string, decls []decl.Decl[decl.Info]) {
	if !c.enabled {
		return
	}

	entry := cacheEntry{
		Key:       key,
		Frontend:  frontendName,
		Version:   cacheVersion,
		Timestamp: time.Now(),
		Decls:     decls,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(c.entryPath(key), data, 0o600)
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *Cache) miss(key string) {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	Debugf("[cache] MISS: %s", key)
}

// Stats returns cache hit/miss counts for the current process.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear removes all cached entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}
