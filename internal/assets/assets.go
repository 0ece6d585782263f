// Package assets fetches and decodes mesh geometry from local files or
// http(s) URLs.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitscene/internal/logger"
)

// Loader fetches and decodes one mesh.
type Loader interface {
	Load(ctx context.Context, path string) (*Geometry, error)
}

// Fetcher returns the raw bytes behind a path or URL.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Manager is the default Loader. Relative paths resolve against Root.
// Decoded geometry is cached per path, so a model shared by several
// aliases is fetched once.
type Manager struct {
	Root   string
	client *http.Client
	cache  *Cache

	mu       sync.Mutex
	inflight map[string]*call
}

type call struct {
	done chan struct{}
	geom *Geometry
	err  error
}

var (
	_ Loader  = (*Manager)(nil)
	_ Fetcher = (*Manager)(nil)
)

// NewManager creates a new asset manager.
func NewManager(root string) *Manager {
	return &Manager{
		Root:     root,
		client:   &http.Client{Timeout: 30 * time.Second},
		cache:    NewCache(),
		inflight: make(map[string]*call),
	}
}

// Cache exposes the geometry cache.
func (m *Manager) Cache() *Cache { return m.cache }

// Load returns the geometry for path. Concurrent loads of the same path
// share one fetch. Errors are *LoadError and are not cached.
func (m *Manager) Load(ctx context.Context, path string) (*Geometry, error) {
	// Check cache first
	if g, ok := m.cache.Get(path); ok {
		return g, nil
	}

	m.mu.Lock()
	if c, ok := m.inflight[path]; ok {
		m.mu.Unlock()
		select {
		case <-c.done:
			return c.geom, c.err
		case <-ctx.Done():
			return nil, &LoadError{Path: path, Err: ctx.Err()}
		}
	}
	c := &call{done: make(chan struct{})}
	m.inflight[path] = c
	m.mu.Unlock()

	start := time.Now()
	c.geom, c.err = m.load(ctx, path)
	if c.err != nil {
		c.err = &LoadError{Path: path, Err: c.err}
	} else {
		m.cache.Set(path, c.geom)
		logger.Debug("mesh loaded",
			zap.String("path", path),
			zap.Int("vertices", len(c.geom.Positions)),
			zap.Int("triangles", len(c.geom.Indices)),
			zap.Duration("took", time.Since(start)))
	}

	m.mu.Lock()
	delete(m.inflight, path)
	m.mu.Unlock()
	close(c.done)

	return c.geom, c.err
}

func (m *Manager) load(ctx context.Context, path string) (*Geometry, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	// A local .gltf may reference sibling buffer files, which only the
	// file-based opener resolves.
	if !isRemote(path) && format != FormatJSON {
		return OpenGLTF(m.resolve(path))
	}

	data, err := m.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return DecodeJSON(data)
	default:
		return DecodeGLB(data)
	}
}

// Fetch returns the raw bytes of a local file or http(s) URL. It bypasses
// the geometry cache.
func (m *Manager) Fetch(ctx context.Context, path string) ([]byte, error) {
	if !isRemote(path) {
		return os.ReadFile(m.resolve(path))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (m *Manager) resolve(path string) string {
	if m.Root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.Root, path)
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Close drops cached geometry.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Cache is a simple in-memory cache of decoded geometry.
type Cache struct {
	data map[string]*Geometry
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*Geometry),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*Geometry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return g, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, g *Geometry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = g
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*Geometry)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
