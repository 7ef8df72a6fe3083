package provider

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Sentinel assignment values shown alongside backend names.
const (
	NoneChoice      = "<None>"
	MediaInfoChoice = "Use MediaInfo Data"
)

// ErrBackendNotFound is returned by FindByName for unknown names.
var ErrBackendNotFound = errors.New("backend not found")

// Registry holds the closed set of backends available to scrape runs. It is
// populated at startup and only read afterwards.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates a registry holding the given backends.
func NewRegistry(backends ...Backend) (*Registry, error) {
	r := &Registry{backends: make(map[string]Backend, len(backends))}
	for _, b := range backends {
		if err := r.Register(b); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a backend to the registry. Names are unique ignoring case and
// every declared field must be backed by its capability interface.
func (r *Registry) Register(b Backend) error {
	if b == nil {
		return fmt.Errorf("register backend: nil backend")
	}
	desc := b.Descriptor()
	name := strings.TrimSpace(desc.Name)
	if name == "" {
		return fmt.Errorf("register backend: empty name")
	}
	if name == NoneChoice || name == MediaInfoChoice {
		return fmt.Errorf("register backend: %q is a reserved name", name)
	}
	for _, f := range desc.Fields {
		if !f.Valid() {
			return fmt.Errorf("register backend %s: invalid field %v", name, f)
		}
		if !Implements(b, f) {
			return fmt.Errorf("register backend %s: declares %s without implementing it", name, f)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if _, exists := r.backends[key]; exists {
		return fmt.Errorf("backend %s already registered", name)
	}
	r.backends[key] = b
	return nil
}

// FindByName returns the backend with the given name, ignoring case.
func (r *Registry) FindByName(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, name)
	}
	return b, nil
}

// ListAll returns every backend sorted by name.
func (r *Registry) ListAll() []Backend {
	return r.list(func(Backend) bool { return true })
}

// ListSupporting returns the backends declaring f, sorted by name.
func (r *Registry) ListSupporting(f Field) []Backend {
	return r.list(func(b Backend) bool { return b.Descriptor().Supports(f) })
}

// Names returns every backend name sorted.
func (r *Registry) Names() []string {
	return names(r.ListAll())
}

// Choices returns the selectable assignment values for a field: the none
// sentinel first when requested, backend names supporting the field in
// order, and the media-info sentinel last when requested.
func (r *Registry) Choices(f Field, addNone, addMediaInfo bool) []string {
	out := make([]string, 0)
	if addNone {
		out = append(out, NoneChoice)
	}
	out = append(out, names(r.ListSupporting(f))...)
	if addMediaInfo {
		out = append(out, MediaInfoChoice)
	}
	return out
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.backends)
}

func (r *Registry) list(keep func(Backend) bool) []Backend {
	r.mu.RLock()
	out := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		if keep(b) {
			out = append(out, b)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Descriptor().Name < out[j].Descriptor().Name
	})
	return out
}

func names(backends []Backend) []string {
	out := make([]string, 0, len(backends))
	for _, b := range backends {
		out = append(out, b.Descriptor().Name)
	}
	return out
}
