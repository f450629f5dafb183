package notion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CachedDatabase is a locally cached database schema.
type CachedDatabase struct {
	ID         string                     `json:"id"`
	Title      string                     `json:"title"`
	Properties map[string]json.RawMessage `json:"properties"`
	CachedAt   time.Time                  `json:"cached_at"`
}

// CachedPageBlocks are locally cached page blocks.
type CachedPageBlocks struct {
	PageID   string    `json:"page_id"`
	Blocks   []Block   `json:"blocks"`
	CachedAt time.Time `json:"cached_at"`
}

type cacheData struct {
	Databases  map[string]CachedDatabase   `json:"databases,omitempty"`
	PageBlocks map[string]CachedPageBlocks `json:"page_blocks,omitempty"`
}

// Cache is a JSON file cache for database schemas and page blocks.
type Cache struct {
	path string
}

// NewCache creates a cache rooted at dir. An empty dir places the
// cache under the user cache directory.
func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("notion: resolving cache dir: %w", err)
		}
		dir = filepath.Join(base, "tracktolib", "notion")
	}
	return &Cache{path: filepath.Join(dir, "cache.json")}, nil
}

func (c *Cache) load() (*cacheData, error) {
	raw, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return &cacheData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("notion: reading cache: %w", err)
	}
	var data cacheData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("notion: decoding cache: %w", err)
	}
	return &data, nil
}

// save writes atomically: the data goes to a temp file first which is
// then renamed over the cache file.
func (c *Cache) save(data *cacheData) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("notion: creating cache dir: %w", err)
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("notion: encoding cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("notion: writing cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("notion: replacing cache: %w", err)
	}
	return nil
}

// Database returns a cached database, or nil when absent.
func (c *Cache) Database(databaseID string) (*CachedDatabase, error) {
	data, err := c.load()
	if err != nil {
		return nil, err
	}
	if entry, ok := data.Databases[databaseID]; ok {
		return &entry, nil
	}
	return nil, nil
}

// Databases returns every cached database keyed by ID.
func (c *Cache) Databases() (map[string]CachedDatabase, error) {
	data, err := c.load()
	if err != nil {
		return nil, err
	}
	return data.Databases, nil
}

// SetDatabase caches a database schema from an API response.
func (c *Cache) SetDatabase(db *Database) (*CachedDatabase, error) {
	title := ""
	if len(db.Title) > 0 {
		title = db.Title[0].PlainText
	}
	entry := CachedDatabase{
		ID:         db.ID,
		Title:      title,
		Properties: db.Properties,
		CachedAt:   time.Now(),
	}

	data, err := c.load()
	if err != nil {
		return nil, err
	}
	if data.Databases == nil {
		data.Databases = make(map[string]CachedDatabase)
	}
	data.Databases[db.ID] = entry
	if err := c.save(data); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteDatabase removes a database from the cache.
func (c *Cache) DeleteDatabase(databaseID string) error {
	data, err := c.load()
	if err != nil {
		return err
	}
	if _, ok := data.Databases[databaseID]; !ok {
		return nil
	}
	delete(data.Databases, databaseID)
	return c.save(data)
}

// PageBlocks returns the cached blocks of a page, or nil when absent.
func (c *Cache) PageBlocks(pageID string) ([]Block, error) {
	data, err := c.load()
	if err != nil {
		return nil, err
	}
	if entry, ok := data.PageBlocks[pageID]; ok {
		return entry.Blocks, nil
	}
	return nil, nil
}

// SetPageBlocks caches the blocks of a page.
func (c *Cache) SetPageBlocks(pageID string, blocks []Block) (*CachedPageBlocks, error) {
	entry := CachedPageBlocks{
		PageID:   pageID,
		Blocks:   blocks,
		CachedAt: time.Now(),
	}

	data, err := c.load()
	if err != nil {
		return nil, err
	}
	if data.PageBlocks == nil {
		data.PageBlocks = make(map[string]CachedPageBlocks)
	}
	data.PageBlocks[pageID] = entry
	if err := c.save(data); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeletePageBlocks removes a page's cached blocks.
func (c *Cache) DeletePageBlocks(pageID string) error {
	data, err := c.load()
	if err != nil {
		return err
	}
	if _, ok := data.PageBlocks[pageID]; !ok {
		return nil
	}
	delete(data.PageBlocks, pageID)
	return c.save(data)
}

// Clear removes the cache file.
func (c *Cache) Clear() error {
	err := os.Remove(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
