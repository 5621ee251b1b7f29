package render

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// aliases maps output file extensions onto the built-in renderer names so
// `-r txt` and `-r text` behave the same.
var aliases = map[string]string{
	"txt":  "text",
	"ansi": "terminal",
	"tty":  "terminal",
	"htm":  "html",
}

// Registry is a concurrency-safe lookup of renderers keyed by lower-case name.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
	order     []string
}

// NewRegistry panics on duplicate or unnamed renderers.
func NewRegistry(renderers ...Renderer) *Registry {
	r := &Registry{renderers: make(map[string]Renderer, len(renderers))}
	for _, renderer := range renderers {
		r.MustRegister(renderer)
	}
	return r
}

func normalizeName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if target, ok := aliases[key]; ok {
		return target
	}
	return key
}

// Register adds renderer under its Name().
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return errors.New("render: nil renderer")
	}
	key := normalizeName(renderer.Name())
	if key == "" {
		return errors.New("render: renderer name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.renderers[key]; dup {
		return fmt.Errorf("render: %q registered twice", key)
	}
	r.renderers[key] = renderer
	r.order = append(r.order, key)
	return nil
}

func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// Get looks name up case-insensitively, accepting extension aliases.
func (r *Registry) Get(name string) (Renderer, error) {
	key := normalizeName(name)
	r.mu.RLock()
	renderer, ok := r.renderers[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, name)
	}
	return renderer, nil
}

// Resolve returns the renderer for name, or fallback when name is blank.
func (r *Registry) Resolve(name, fallback string) (Renderer, error) {
	if strings.TrimSpace(name) == "" {
		name = fallback
	}
	return r.Get(name)
}

// List returns registered names sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	names := slices.Clone(r.order)
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}
