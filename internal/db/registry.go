package db

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tablekit/tablekit/internal/engine"
)

// Registry tracks open databases by logical name. It is safe for
// concurrent use; the server and CLI share one registry.
type Registry struct {
	mu      sync.RWMutex
	engines *engine.Registry
	open    map[string]*Database
}

// NewRegistry returns a registry that builds engines from the given
// engine registry.
func NewRegistry(engines *engine.Registry) *Registry {
	return &Registry{
		engines: engines,
		open:    make(map[string]*Database),
	}
}

// Open connects a database under the given logical name. Opening a name
// that is already open is an error; Close it first.
func (r *Registry) Open(name string, cfg engine.Config, logger zerolog.Logger) (*Database, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.open[name]; ok {
		return nil, fmt.Errorf("database %q is already open", name)
	}

	eng, err := r.engines.New(cfg.Driver)
	if err != nil {
		return nil, err
	}
	d, err := Open(eng, cfg, logger)
	if err != nil {
		return nil, err
	}

	r.open[name] = d
	return d, nil
}

// Get returns the open database registered under name.
func (r *Registry) Get(name string) (*Database, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.open[name]
	if !ok {
		return nil, fmt.Errorf("no open database named %q", name)
	}
	return d, nil
}

// Names returns the sorted logical names of all open databases.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.open))
	for name := range r.open {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close disconnects and removes the named database.
func (r *Registry) Close(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.open[name]
	if !ok {
		return fmt.Errorf("no open database named %q", name)
	}
	delete(r.open, name)
	return d.Disconnect()
}

// CloseAll disconnects every open database, returning the first error
// encountered.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, d := range r.open {
		if err := d.Disconnect(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.open, name)
	}
	return firstErr
}
