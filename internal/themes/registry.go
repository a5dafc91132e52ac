// Package themes resolves palette names to color mappings. Built-in palettes
// ship embedded in the binary; a themes directory on disk can override or
// extend them without a rebuild.
package themes

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

//go:embed palettes/*.json
var builtin embed.FS

// DefaultTheme is used when a request does not name one.
const DefaultTheme = "terracotta"

// Registry loads themes by name. Directory palettes shadow built-ins with the
// same name.
type Registry struct {
	dir string
}

// NewRegistry returns a registry reading overrides from dir. An empty dir
// serves built-ins only.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir}
}

// Available returns the sorted names of every loadable theme.
func (r *Registry) Available() ([]string, error) {
	names := map[string]struct{}{}

	entries, err := builtin.ReadDir("palettes")
	if err != nil {
		return nil, fmt.Errorf("read embedded palettes: %w", err)
	}
	for _, e := range entries {
		names[strings.TrimSuffix(e.Name(), ".json")] = struct{}{}
	}

	if r.dir != "" {
		disk, err := os.ReadDir(r.dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read themes dir %s: %w", r.dir, err)
		}
		for _, e := range disk {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			names[strings.TrimSuffix(e.Name(), ".json")] = struct{}{}
		}
	}

	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Load reads and validates the named theme.
func (r *Registry) Load(name string) (*domain.Theme, error) {
	data, err := r.read(name)
	if err != nil {
		return nil, err
	}

	var theme domain.Theme
	if err := json.Unmarshal(data, &theme); err != nil {
		return nil, fmt.Errorf("parse theme %q: %w", name, err)
	}
	if theme.Name == "" {
		theme.Name = name
	}
	if err := theme.Validate(); err != nil {
		return nil, err
	}
	return &theme, nil
}

// List loads every available theme, sorted by name.
func (r *Registry) List() ([]*domain.Theme, error) {
	names, err := r.Available()
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Theme, 0, len(names))
	for _, name := range names {
		t, err := r.Load(name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *Registry) read(name string) ([]byte, error) {
	if r.dir != "" {
		data, err := os.ReadFile(filepath.Join(r.dir, name+".json"))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read theme %q: %w", name, err)
		}
	}

	data, err := builtin.ReadFile("palettes/" + name + ".json")
	if err != nil {
		available, availErr := r.Available()
		if availErr != nil {
			return nil, fmt.Errorf("theme %q not found", name)
		}
		return nil, fmt.Errorf("theme %q not found (available: %s)", name, strings.Join(available, ", "))
	}
	return data, nil
}
