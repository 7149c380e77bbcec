// Package registry maps dialects to providers and turns loosely shaped
// connection input into a connected client.
package registry

import (
	"slices"
	"strings"
	"sync"

	"sqlbridge/internal/core"
)

// Registry is a dialect → provider map safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[core.Dialect]core.Provider
}

// Default is the process-wide registry used by the package-level functions.
var Default = New()

// New returns an empty registry.
func New() *Registry {
	return &Registry{providers: make(map[core.Dialect]core.Provider)}
}

// Register stores p under its dialect, replacing any earlier provider.
func (r *Registry) Register(p core.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Dialect()] = p
}

func (r *Registry) RegisterAll(ps ...core.Provider) {
	for _, p := range ps {
		r.Register(p)
	}
}

func (r *Registry) Get(d core.Dialect) (core.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[d]
	return p, ok
}

func (r *Registry) Has(d core.Dialect) bool {
	_, ok := r.Get(d)
	return ok
}

// List returns the registered dialects in sorted order.
func (r *Registry) List() []core.Dialect {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Dialect, 0, len(r.providers))
	for d := range r.providers {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Require returns the provider for d or an ErrNotFound error naming what is
// registered.
func (r *Registry) Require(d core.Dialect) (core.Provider, error) {
	if p, ok := r.Get(d); ok {
		return p, nil
	}
	registered := "(none registered)"
	if ds := r.List(); len(ds) > 0 {
		names := make([]string, len(ds))
		for i, x := range ds {
			names[i] = string(x)
		}
		registered = strings.Join(names, ", ")
	}
	name := string(d)
	if name == "" {
		name = "unknown"
	}
	return nil, core.NewError(core.ErrNotFound, d, "require",
		"no provider registered for dialect "+name+"; registered: "+registered, nil)
}

func Register(p core.Provider)                      { Default.Register(p) }
func RegisterAll(ps ...core.Provider)               { Default.RegisterAll(ps...) }
func Get(d core.Dialect) (core.Provider, bool)      { return Default.Get(d) }
func Has(d core.Dialect) bool                       { return Default.Has(d) }
func List() []core.Dialect                          { return Default.List() }
func Require(d core.Dialect) (core.Provider, error) { return Default.Require(d) }
