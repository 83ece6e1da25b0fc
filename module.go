package dive

import (
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Module is a named, immutable grouping of provider bindings plus
// metadata about the modules it composes with. A module starts out
// declared — pure data, nothing bound — and transitions to registered
// exactly once, when Register binds its own providers into a Registry.
//
// Imports and exports are organizational metadata only: registering a
// module never registers the modules it imports. Whoever assembles the
// application registers every module that contributes bindings.
//
//	var storageModule = dive.NewModule("storage",
//	    dive.Provides(
//	        dive.To[KeyStore](NewMemoryKeyStore),
//	        dive.Self(NewBlobIndex),
//	    ),
//	)
//
//	var appModule = dive.NewModule("app",
//	    dive.Imports(storageModule),
//	    dive.Provides(dive.InjectedTo[Server](NewServer)),
//	)
//
//	func main() {
//	    reg := dive.NewRegistry()
//	    for _, m := range []*dive.Module{storageModule, appModule} {
//	        if err := m.Register(reg); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
type Module struct {
	name      string
	id        string
	imports   []*Module
	providers []Binding
	exports   []Binding

	mu       sync.Mutex
	registry *Registry // set once by Register
}

// ModuleOption configures a module at declaration time.
type ModuleOption func(*Module)

// Imports records the modules this module composes with. Imported
// modules are metadata; their providers are not registered through the
// importer.
func Imports(modules ...*Module) ModuleOption {
	return func(m *Module) {
		m.imports = append(m.imports, modules...)
	}
}

// Provides declares the bindings this module owns. They are bound, in
// declaration order, when the module is registered.
func Provides(bindings ...Binding) ModuleOption {
	return func(m *Module) {
		m.providers = append(m.providers, bindings...)
	}
}

// Exports records which of the module's bindings it considers public.
// Exports are metadata for consumers and tooling; resolution is never
// restricted to them.
func Exports(bindings ...Binding) ModuleOption {
	return func(m *Module) {
		m.exports = append(m.exports, bindings...)
	}
}

// NewModule declares a module. The declaration is immutable: the
// imports, providers, and exports sequences are fixed here.
func NewModule(name string, opts ...ModuleOption) *Module {
	m := &Module{
		name: name,
		id:   uuid.NewString(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m
}

// Name returns the module's declared name.
func (m *Module) Name() string { return m.name }

// ID returns the module's unique identity.
func (m *Module) ID() string { return m.id }

// ImportedModules returns the declared imports.
func (m *Module) ImportedModules() []*Module {
	out := make([]*Module, len(m.imports))
	copy(out, m.imports)
	return out
}

// ProviderBindings returns the module's own bindings in declaration
// order.
func (m *Module) ProviderBindings() []Binding {
	out := make([]Binding, len(m.providers))
	copy(out, m.providers)
	return out
}

// Exported returns the declared exports.
func (m *Module) Exported() []Binding {
	out := make([]Binding, len(m.exports))
	copy(out, m.exports)
	return out
}

// Register binds the module's own providers into the registry, in
// declaration order, and marks the module registered. Registration is
// irreversible and happens at most once; a second Register fails with
// ErrModuleRegistered. Imported modules are not registered.
func (m *Module) Register(r *Registry) error {
	if r == nil {
		return ModuleError{Module: m.name, Cause: ErrRegistryNil}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registry != nil {
		return ModuleError{Module: m.name, Cause: ErrModuleRegistered}
	}
	if err := r.BindAll(m.providers...); err != nil {
		return ModuleError{Module: m.name, Cause: err}
	}

	m.registry = r
	return nil
}

// RegisterDefault registers the module into the process-wide registry.
func (m *Module) RegisterDefault() error {
	return m.Register(Default())
}

// Registry returns the registry the module was registered into, or nil
// while the module is still only declared.
func (m *Module) Registry() *Registry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry
}

// Get resolves an interface key through the registry this module was
// registered into. Lookup is not restricted to the module's own or
// imported bindings; anything bound in the registry resolves.
func (m *Module) Get(key reflect.Type) (any, error) {
	r := m.Registry()
	if r == nil {
		return nil, ModuleError{Module: m.name, Cause: ErrModuleNotRegistered}
	}
	return r.Get(key)
}
