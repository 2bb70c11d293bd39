// Package render turns a normalized catalog into text documents.
package render

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Renderer produces one output format.
type Renderer interface {
	// Name is the value accepted by --format.
	Name() string
	// Extension is the default output file extension, without the dot.
	Extension() string
	Render(doc *Document) ([]byte, error)
}

var (
	mu        sync.RWMutex
	renderers = make(map[string]Renderer)
)

// Register adds a renderer to the global registry.
func Register(r Renderer) {
	mu.Lock()
	defer mu.Unlock()
	renderers[r.Name()] = r
}

// Get returns a renderer by format name, case-insensitively.
func Get(name string) (Renderer, error) {
	mu.RLock()
	defer mu.RUnlock()
	r, ok := renderers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q (supported: %s)", name, strings.Join(formatsLocked(), ", "))
	}
	return r, nil
}

// Formats returns all registered format names, sorted.
func Formats() []string {
	mu.RLock()
	defer mu.RUnlock()
	return formatsLocked()
}

func formatsLocked() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultOutput is the file a format is written to when no path is given.
func DefaultOutput(r Renderer) string {
	return "or_models." + r.Extension()
}
