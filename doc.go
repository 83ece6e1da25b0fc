// Package dive provides a small dependency-injection container for Go
// applications: a binding registry, a reflection-based injection engine,
// and a declarative module system for composing bindings. Its sibling
// package result reifies success/failure outcomes as values.
//
// # Overview
//
// The container binds interface keys to providers and resolves them as
// process-lifetime singletons:
//   - Interface keys are reflect.Type values, obtained with KeyOf[I]()
//   - Providers are plain factory functions, func() T or func() (T, error)
//   - Constructors with dependencies opt in to injection via Injected
//   - Modules group bindings and register them as a unit
//
// # Basic Usage
//
// Construct a registry, bind providers, and resolve:
//
//	reg := dive.NewRegistry()
//	reg.Bind(dive.KeyOf[Clock](), NewSystemClock)
//	reg.Add(NewMemoryKeyStore)
//
//	clock, err := dive.Get[Clock](reg)
//
// A process-wide registry is available through Default for applications
// that want ambient bindings; tests should construct isolated registries
// instead.
//
// # Singleton Semantics
//
// The first Get for a key invokes its provider once and memoizes the
// instance; every later Get returns the identical instance. Rebinding a
// key replaces the provider and discards the memoized instance. There
// are no finer-grained lifetimes: a binding is either resolved through
// the registry (singleton) or invoked directly by the caller.
//
// # Injection
//
// Callables declare dependencies as parameters. Invoke resolves each
// parameter from the registry, with explicitly supplied arguments taking
// precedence:
//
//	err := reg.Call(func(clock Clock, store KeyStore) {
//	    // both resolved from the registry
//	})
//
// Constructors bound with Injected get the same treatment when their
// binding is resolved. Constructors with many dependencies can take a
// single parameter object embedding dive.In.
//
// # Modules
//
// NewModule declares a named group of bindings. Register binds the
// module's providers into a registry in declaration order. Imports are
// compositional metadata only — registering a module never registers
// the modules it imports.
//
// # Concurrency
//
// Registry operations are safe for concurrent use; concurrent first
// resolutions of one key construct a single instance. Providers run
// outside the registry's table lock, so a provider may resolve other
// keys freely. Construction is serialized per binding, however, and
// the container does not detect cycles: a provider that resolves its
// own key, directly or through a cycle of providers, deadlocks.
package dive
