package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cuemby/hearty/internal/heartypb"
	"github.com/cuemby/hearty/pkg/log"
	"github.com/cuemby/hearty/pkg/metrics"
)

// DefaultMaxCacheSize bounds the number of cached objects when no
// override is configured.
const DefaultMaxCacheSize = 8

// storeBackend is the subset of StoreClient the cache depends on, factored
// out so tests can substitute a fake server without a real gRPC dial.
type storeBackend interface {
	Put(ctx context.Context, storeName, filePath string, content []byte) (*heartypb.PutResponse, error)
	Get(ctx context.Context, storeName, fileID string) ([]byte, error)
	Cache(ctx context.Context, fileID string) (*heartypb.CacheResponse, error)
}

const indexFilename = "all_caches.caches"

// entry is the local record of one cached object. It is also the line
// shape persisted to the index file, one JSON object per line in FIFO
// order, so a file_path containing spaces or delimiters round-trips
// correctly.
type entry struct {
	StoreID   string `json:"store_id"`
	ObjectID  string `json:"object_id"`
	FilePath  string `json:"file_path"`
	IsDirty   bool   `json:"is_dirty"`
	Timestamp int64  `json:"timestamp"`
}

// Cache is the client-side write-back cache: a bounded, FIFO-ordered
// map keyed by object id, backed by one file per object plus a persisted
// index, and a StoreClient used for write-through, write-back, and
// coherence confirmation.
type Cache struct {
	dir     string
	maxSize int
	store   storeBackend

	mu      sync.Mutex
	entries map[string]*entry
	fifo    []string // object ids, oldest first
}

// NewCache returns a Cache rooted at dir, persisting at most maxSize
// entries (default 8) and talking to store for write-through,
// write-back and ownership confirmation. The cache directory is created if
// absent and any previously persisted index is loaded.
func NewCache(dir string, maxSize int, store storeBackend) (*Cache, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxCacheSize
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cache: create %s: %w", dir, err)
	}
	c := &Cache{
		dir:     dir,
		maxSize: maxSize,
		store:   store,
		entries: make(map[string]*entry),
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) objectPath(objectID string) string {
	return filepath.Join(c.dir, objectID)
}

func (c *Cache) indexPath() string {
	return filepath.Join(c.dir, indexFilename)
}

// load reads the persisted index, restoring FIFO order exactly as written.
// A missing index is treated as an empty cache (e.g. first run).
func (c *Cache) load() error {
	f, err := os.Open(c.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cache: open index: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e entry
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("cache: parse index line: %w", err)
		}
		ec := e
		c.entries[e.ObjectID] = &ec
		c.fifo = append(c.fifo, e.ObjectID)
	}
	return scanner.Err()
}

// persistIndex rewrites the index file from the current FIFO order after
// every mutation, so a restart restores entries in insertion order.
func (c *Cache) persistIndex() error {
	tmp := c.indexPath() + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cache: write index: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, id := range c.fifo {
		e := c.entries[id]
		line, err := json.Marshal(e)
		if err != nil {
			f.Close()
			return fmt.Errorf("cache: encode index entry: %w", err)
		}
		if _, err := w.Write(line); err != nil {
			f.Close()
			return fmt.Errorf("cache: write index entry: %w", err)
		}
		if _, err := w.WriteString("\n"); err != nil {
			f.Close()
			return fmt.Errorf("cache: write index entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("cache: flush index: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cache: close index: %w", err)
	}
	return os.Rename(tmp, c.indexPath())
}

func (c *Cache) idForPath(filePath string) (string, bool) {
	for _, id := range c.fifo {
		if c.entries[id].FilePath == filePath {
			return id, true
		}
	}
	return "", false
}

// insert adds or replaces an entry and evicts the FIFO head if this insert
// would exceed maxSize. Caller holds c.mu.
func (c *Cache) insert(ctx context.Context, storeID, objectID, filePath string, content []byte, dirty bool) error {
	if err := os.WriteFile(c.objectPath(objectID), content, 0644); err != nil {
		return fmt.Errorf("cache: write %s: %w", objectID, err)
	}
	if _, exists := c.entries[objectID]; !exists {
		c.evictIfNeeded(ctx)
		c.fifo = append(c.fifo, objectID)
	}
	c.entries[objectID] = &entry{
		StoreID:   storeID,
		ObjectID:  objectID,
		FilePath:  filePath,
		IsDirty:   dirty,
		Timestamp: time.Now().Unix(),
	}
	return c.persistIndex()
}

// evictIfNeeded pops the FIFO head when the cache is at capacity, writing
// back a dirty entry before dropping it. Caller holds c.mu.
func (c *Cache) evictIfNeeded(ctx context.Context) {
	if len(c.fifo) < c.maxSize {
		return
	}
	victim := c.fifo[0]
	c.fifo = c.fifo[1:]
	e, ok := c.entries[victim]
	if !ok {
		return
	}
	if e.IsDirty {
		if err := c.writeBack(ctx, e); err != nil {
			logger := log.WithObjectID(victim)
			logger.Warn().Err(err).Msg("eviction write-back failed, dropping cache entry anyway")
		}
	}
	os.Remove(c.objectPath(victim))
	delete(c.entries, victim)
}

func (c *Cache) writeBack(ctx context.Context, e *entry) error {
	content, err := os.ReadFile(c.objectPath(e.ObjectID))
	if err != nil {
		return fmt.Errorf("cache: read dirty content for %s: %w", e.ObjectID, err)
	}
	resp, err := c.store.Put(ctx, e.StoreID, e.FilePath, content)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("write-back rejected: %s", resp.Message)
	}
	metrics.CacheHitsTotal.WithLabelValues("writeback").Inc()
	return nil
}

// CacheableGet serves objectID through the cache: if it is cached,
// confirm ownership with the server before trusting the local copy;
// otherwise (or on a rejected confirmation) fetch from the server and
// cache the result.
func (c *Cache) CacheableGet(ctx context.Context, storeID, objectID string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	filePath := ""
	if e, ok := c.entries[objectID]; ok {
		filePath = e.FilePath
		resp, err := c.store.Cache(ctx, objectID)
		if err == nil && resp.Success {
			if content, rerr := os.ReadFile(c.objectPath(objectID)); rerr == nil {
				metrics.CacheHitsTotal.WithLabelValues("hit").Inc()
				return content, nil
			}
		}
	}
	metrics.CacheHitsTotal.WithLabelValues("miss").Inc()

	content, err := c.store.Get(ctx, storeID, objectID)
	if err != nil {
		return nil, err
	}
	// Re-caching a known object keeps its file_path association, so a
	// later put to that path still finds the entry.
	if err := c.insert(ctx, storeID, objectID, filePath, content, false); err != nil {
		return nil, err
	}
	return content, nil
}

// CacheablePut writes filePath through the cache: if it is already cached
// under some object id, confirm ownership and mark the local copy dirty
// instead of writing through; otherwise write through immediately and
// cache the id the server assigns.
func (c *Cache) CacheablePut(ctx context.Context, storeID, filePath string, content []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if objectID, ok := c.idForPath(filePath); ok {
		resp, err := c.store.Cache(ctx, objectID)
		if err == nil && resp.Success {
			if err := os.WriteFile(c.objectPath(objectID), content, 0644); err != nil {
				return "", fmt.Errorf("cache: update dirty content for %s: %w", objectID, err)
			}
			c.entries[objectID].IsDirty = true
			c.entries[objectID].Timestamp = time.Now().Unix()
			if err := c.persistIndex(); err != nil {
				return "", err
			}
			metrics.CacheHitsTotal.WithLabelValues("hit").Inc()
			return objectID, nil
		}
		metrics.CacheHitsTotal.WithLabelValues("miss").Inc()
	} else {
		metrics.CacheHitsTotal.WithLabelValues("miss").Inc()
	}

	resp, err := c.store.Put(ctx, storeID, filePath, content)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("put rejected: %s", resp.Message)
	}
	if err := c.insert(ctx, storeID, resp.FileID, filePath, content, false); err != nil {
		return "", err
	}
	return resp.FileID, nil
}

// Len reports the current number of cached entries, for tests and metrics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fifo)
}

// Evict drops objectID from the cache, writing back first if dirty. It is
// the operation the eviction listener invokes when the server demands
// ownership back. Evicting an object not present is a no-op success.
func (c *Cache) Evict(ctx context.Context, objectID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[objectID]
	if !ok {
		return nil
	}
	if e.IsDirty {
		if err := c.writeBack(ctx, e); err != nil {
			return err
		}
	}
	os.Remove(c.objectPath(objectID))
	for i, id := range c.fifo {
		if id == objectID {
			c.fifo = append(c.fifo[:i], c.fifo[i+1:]...)
			break
		}
	}
	delete(c.entries, objectID)
	return c.persistIndex()
}
