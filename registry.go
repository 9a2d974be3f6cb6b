package factory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// Constructor instantiates a provider. It is called each time a resolution
// scans the registry.
type Constructor func() (Provider, error)

type entry struct {
	name string
	new  Constructor
}

// Registry is an ordered, append-only list of provider constructors.
// Resolution visits providers in registration order, so the order is part of
// the registry's behavior.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry holds the providers registered by package init functions.
var DefaultRegistry = NewRegistry()

// Register appends a provider constructor to DefaultRegistry.
func Register(name string, c Constructor) {
	DefaultRegistry.Register(name, c)
}

// Register appends a provider constructor under name.
func (r *Registry) Register(name string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{name: name, new: c})
}

// RegisterProvider appends an already constructed provider.
func (r *Registry) RegisterProvider(name string, p Provider) {
	r.Register(name, func() (Provider, error) { return p, nil })
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

type namedProvider struct {
	name string
	Provider
}

// providers instantiates every entry in order. Entries that fail to
// instantiate are logged and skipped.
func (r *Registry) providers() []namedProvider {
	r.mu.RLock()
	entries := make([]entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.RUnlock()

	var ps []namedProvider
	for _, e := range entries {
		p, err := instantiate(e)
		if err != nil {
			glog.Warningf("skipping driver provider %q: %v", e.name, err)
			continue
		}
		ps = append(ps, namedProvider{name: e.name, Provider: p})
	}
	return ps
}

func instantiate(e entry) (p Provider, err error) {
	if e.new == nil {
		return nil, errors.New("no constructor")
	}
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("constructor panicked: %v", r)
		}
	}()
	p, err = e.new()
	if err == nil && p == nil {
		err = errors.New("constructor returned no provider")
	}
	return p, err
}

// Claimant returns the name of the first provider that claims uri, without
// building a driver.
func (r *Registry) Claimant(uri string) (string, bool) {
	for _, p := range r.providers() {
		if p.CanHandle(uri) {
			return p.name, true
		}
	}
	return "", false
}
