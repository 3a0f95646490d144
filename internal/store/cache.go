package store

import (
	"bufio"
	"encoding/gob"
	"os"
	"sync"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// Cache is the optional on-disk symbol name -> id map.
// It exists purely to skip a FindSymbolsByName round-trip through SQLite
// for hot lookups; the Store remains the source of truth.
type Cache struct {
	mu   sync.RWMutex
	path string
	ids  map[string][]symbol.ID
}

// NewCache creates an empty in-memory cache, not yet bound to a file.
func NewCache() *Cache {
	return &Cache{ids: make(map[string][]symbol.ID)}
}

// LoadCache reads a gob-encoded symbol_cache.bin from disk. A missing file
// is not an error: the cache simply starts empty.
func LoadCache(path string) (*Cache, error) {
	c := &Cache{path: path, ids: make(map[string][]symbol.ID)}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	defer f.Close()
	dec := gob.NewDecoder(bufio.NewReader(f))
	if err := dec.Decode(&c.ids); err != nil {
		return nil, err
	}
	return c, nil
}

// Put records name -> id, appending if name already has entries.
func (c *Cache) Put(name string, id symbol.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.ids[name] {
		if existing == id {
			return
		}
	}
	c.ids[name] = append(c.ids[name], id)
}

// Get returns every id cached under name.
func (c *Cache) Get(name string) ([]symbol.ID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids, ok := c.ids[name]
	return ids, ok
}

// Remove drops one cached id from a symbol name's entries, deleting the
// name once none remain (used when a file is re-indexed and its old
// symbols are purged).
func (c *Cache) Remove(name string, id symbol.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.ids[name][:0]
	for _, existing := range c.ids[name] {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	if len(kept) == 0 {
		delete(c.ids, name)
	} else {
		c.ids[name] = kept
	}
}

// Save persists the cache back to its bound path (a no-op if the cache was
// never bound to a file via LoadCache).
func (c *Cache) Save() error {
	if c.path == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, err := os.Create(c.path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	enc := gob.NewEncoder(w)
	if err := enc.Encode(c.ids); err != nil {
		return err
	}
	return w.Flush()
}
