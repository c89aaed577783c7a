package engine

import (
	"fmt"
	"sync"
)

// Factory is a function that creates a new Engine instance.
type Factory func() Engine

// Registry maps driver names to engine factories. It is safe for concurrent
// use.
type Registry struct {
	mu        sync.RWMutex
	factories map[Driver]Factory
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Driver]Factory)}
}

// Register registers an engine factory for a driver.
func (r *Registry) Register(driver Driver, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[driver] = factory
}

// New creates an unconnected engine for the given driver.
func (r *Registry) New(driver Driver) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver: %s (available: %v)", driver, r.drivers())
	}
	return factory(), nil
}

// Drivers returns the registered driver names.
func (r *Registry) Drivers() []Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.drivers()
}

func (r *Registry) drivers() []Driver {
	drivers := make([]Driver, 0, len(r.factories))
	for d := range r.factories {
		drivers = append(drivers, d)
	}
	return drivers
}
