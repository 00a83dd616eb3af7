package plugins

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps plugin names to the values the host registered for them.
//
// Values are stored untyped: whether a value is a usable compiler is decided
// by ValidateCompiler when the preprocessor resolves it, so a stale or
// mismatched plugin surfaces as an incompatibility rather than a panic.
type Registry struct {
	plugins map[string]any
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]any),
	}
}

// Register adds a plugin value under a name
func (r *Registry) Register(name string, plugin any) error {
	if name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if plugin == nil {
		return fmt.Errorf("cannot register nil plugin: %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}

	r.plugins[name] = plugin
	return nil
}

// RegisterCompiler registers a compiler under its manifest ID
func (r *Registry) RegisterCompiler(plugin CompilerPlugin) error {
	if plugin == nil {
		return fmt.Errorf("cannot register nil plugin")
	}
	manifest := plugin.Manifest()
	if manifest == nil {
		return fmt.Errorf("plugin has nil manifest")
	}
	return r.Register(manifest.ID, plugin)
}

// Unregister removes a plugin by name
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	delete(r.plugins, name)
	return nil
}

// Lookup resolves a plugin value by name
func (r *Registry) Lookup(name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, exists := r.plugins[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return plugin, nil
}

// Has checks if a plugin is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.plugins[name]
	return exists
}

// Names returns the registered plugin names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered plugins
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.plugins)
}
