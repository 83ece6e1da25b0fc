package dive

import "sync"

var (
	defaultMu       sync.RWMutex
	defaultRegistry = NewRegistry()
)

// Default returns the process-wide Registry. It exists for ergonomic
// parity with ambient-container usage; tests should prefer isolated
// registries from NewRegistry over rebinding the default one.
func Default() *Registry {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultRegistry
}

// SetDefault replaces the process-wide Registry, similar to
// slog.SetDefault. Passing nil panics.
func SetDefault(r *Registry) {
	if r == nil {
		panic("dive: SetDefault called with nil registry")
	}
	defaultMu.Lock()
	defaultRegistry = r
	defaultMu.Unlock()
}
