// Package filecache is the zero-dependency cache backend used by the poster
// CLI. One entry per file under a cache directory, written atomically so a
// crashed render never leaves a torn payload behind.
package filecache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store implements ports.CacheStore on the local filesystem.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// New creates the cache directory if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Get returns the stored payload, or (nil, nil) when the key is absent.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry %q: %w", key, err)
	}
	return data, nil
}

// Set writes the payload under key. File entries never expire, so ttlSeconds
// is ignored; expiring entries belong on the valkey or postgres backends.
func (s *Store) Set(_ context.Context, key string, value []byte, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("write cache entry %q: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit cache entry %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry. Deleting an absent key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cache entry %q: %w", key, err)
	}
	return nil
}

// path maps a semantic key to a file name. Keys contain place names, so path
// separators and drive syntax are neutralized before hitting the filesystem.
func (s *Store) path(key string) string {
	safe := strings.NewReplacer("/", "-", "\\", "-", ":", "-").Replace(key)
	return filepath.Join(s.dir, safe+".json")
}
