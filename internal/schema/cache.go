package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Cache persists raw module sources across connection cycles so SCHEMA_ONE
// can skip re-fetching a module it already holds (spec.md §4.3 edge rule:
// "a module already present in the local schema cache is skipped"; §6
// persisted state: "schema cache: directory of <name>@<revision>.yang
// files, shared across devices, read-only after a module is written").
type Cache interface {
	Get(ref ModuleRef) ([]byte, bool)
	Put(ref ModuleRef, body []byte) error
}

// FileCache is the reference Cache backed by a flat directory of
// "<name>@<revision>.yang" files. A single mutex serializes writes so two
// devices discovering the same module concurrently never interleave
// partial writes (spec.md §6: "writes are single-writer per (name,
// revision) pair").
type FileCache struct {
	dir string
	mu  sync.Mutex
}

// NewFileCache returns a cache rooted at dir. The directory is created on
// first write if it does not already exist.
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) fileName(ref ModuleRef) string {
	return filepath.Join(c.dir, ref.String()+".yang")
}

// Get reports whether ref is already cached, returning its body if so.
func (c *FileCache) Get(ref ModuleRef) ([]byte, bool) {
	data, err := os.ReadFile(c.fileName(ref))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put writes ref's body to the cache, creating the cache directory if
// needed. Writing an already-cached module is a no-op (module bodies are
// immutable once published at a given revision).
func (c *FileCache) Put(ref ModuleRef, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.Get(ref); ok {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("schema: creating cache dir %s: %w", c.dir, err)
	}
	if err := os.WriteFile(c.fileName(ref), body, 0o644); err != nil {
		return fmt.Errorf("schema: writing cached module %s: %w", ref, err)
	}
	return nil
}
