package dive

import (
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/driftlab/dive/internal/reflection"
)

// Registry is the binding table at the heart of the container. It maps
// interface keys (reflect.Type values) to providers and memoizes the
// instance each provider produces, giving every binding singleton scope
// for the registry's lifetime.
//
// A Registry is safe for concurrent use. Binding is last-write-wins:
// rebinding a key silently replaces the previous provider and discards
// any instance it had already produced.
//
// Most applications use the process-wide registry returned by Default,
// but a Registry is an ordinary value; tests construct isolated
// instances with NewRegistry instead of rebinding shared state.
//
// Example:
//
//	reg := dive.NewRegistry()
//	if err := reg.Bind(dive.KeyOf[Clock](), NewSystemClock); err != nil {
//	    log.Fatal(err)
//	}
//
//	clock, err := dive.Get[Clock](reg)
type Registry struct {
	id       string
	analyzer *reflection.Analyzer

	mu       sync.RWMutex
	bindings map[reflect.Type]*binding
}

// binding holds one interface→provider association along with the
// memoized instance once it has been constructed.
type binding struct {
	key    reflect.Type
	source any // provider exactly as registered, for introspection

	// The analyzer caches ConstructorInfo per signature, so each binding
	// carries the reflect.Value of its own callable; two closures with the
	// same type share an info but never a function value.
	kind     bindingKind
	info     *reflection.ConstructorInfo // kindPlain, kindInjected
	fn       reflect.Value
	elems    []*reflection.ConstructorInfo // kindMany
	elemFns  []reflect.Value               // kindMany, per element
	elemKind []bindingKind                 // kindMany, per element

	mu       sync.Mutex
	built    bool
	instance any
}

type bindingKind int

const (
	kindPlain bindingKind = iota
	kindInjected
	kindMany
)

// NewRegistry creates an empty, isolated Registry.
func NewRegistry() *Registry {
	return &Registry{
		id:       uuid.NewString(),
		analyzer: reflection.New(),
		bindings: make(map[reflect.Type]*binding),
	}
}

// ID returns the registry's unique identity. It appears in resolution
// errors so failures from isolated registries can be told apart.
func (r *Registry) ID() string { return r.id }

// Bind associates a provider with an interface key, replacing any
// previous binding for that key. The provider must be a function
// returning a value assignable to the key, optionally with a trailing
// error; it must take no parameters unless wrapped with Injected.
//
// Bind never fails because the key is already bound. It fails only when
// the key or provider is malformed.
func (r *Registry) Bind(key reflect.Type, provider any) error {
	b, err := r.newBinding(key, provider)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.bindings[key] = b
	r.mu.Unlock()
	return nil
}

// Add binds a provider to its own result type. It is shorthand for
// Bind(T, provider) where T is the provider's first non-error return.
func (r *Registry) Add(provider any) error {
	if provider == nil {
		return RegistrationError{Cause: ErrProviderNil}
	}
	ctor := provider
	if ip, ok := provider.(injectedProvider); ok {
		ctor = ip.constructor
	}
	info, err := r.analyzer.Analyze(ctor)
	if err != nil {
		return RegistrationError{Cause: err}
	}
	if info.ResultType == nil {
		return RegistrationError{Cause: ErrProviderShape}
	}
	return r.Bind(info.ResultType, provider)
}

// BindAll applies a batch of bindings in order. It stops at the first
// failure; earlier bindings remain applied.
func (r *Registry) BindAll(bindings ...Binding) error {
	for _, b := range bindings {
		var err error
		if b.Key == nil {
			err = r.Add(b.Provider)
		} else {
			err = r.Bind(b.Key, b.Provider)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Get resolves an interface key to its instance. The first Get for a
// key invokes the bound provider once; every later Get returns that
// same instance. Provider failures propagate to the caller and are not
// memoized, so a later Get retries construction.
func (r *Registry) Get(key reflect.Type) (any, error) {
	if key == nil {
		return nil, ResolutionError{RegistryID: r.id, Cause: ErrKeyNil}
	}

	r.mu.RLock()
	b, ok := r.bindings[key]
	r.mu.RUnlock()
	if !ok {
		return nil, ResolutionError{Key: key, RegistryID: r.id, Cause: ErrNotBound}
	}

	instance, err := b.resolve(r)
	if err != nil {
		return nil, ResolutionError{Key: key, RegistryID: r.id, Cause: err}
	}
	return instance, nil
}

// Contains reports whether a key is currently bound.
func (r *Registry) Contains(key reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[key]
	return ok
}

// Count returns the number of bound keys.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Bindings returns a copy of the binding table, mapping each key to the
// provider exactly as it was registered.
func (r *Registry) Bindings() map[reflect.Type]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[reflect.Type]any, len(r.bindings))
	for key, b := range r.bindings {
		out[key] = b.source
	}
	return out
}

// newBinding validates the provider against the key and builds the
// internal binding record.
func (r *Registry) newBinding(key reflect.Type, provider any) (*binding, error) {
	if key == nil {
		return nil, RegistrationError{Cause: ErrKeyNil}
	}
	if provider == nil {
		return nil, RegistrationError{Key: key, Cause: ErrProviderNil}
	}

	b := &binding{key: key, source: provider}

	switch p := provider.(type) {
	case manyProvider:
		if key.Kind() != reflect.Slice {
			return nil, RegistrationError{Key: key, Cause: ErrProviderShape}
		}
		for _, elem := range p.providers {
			info, fn, kind, err := r.analyzeProvider(key.Elem(), elem)
			if err != nil {
				return nil, err
			}
			b.elems = append(b.elems, info)
			b.elemFns = append(b.elemFns, fn)
			b.elemKind = append(b.elemKind, kind)
		}
		b.kind = kindMany

	default:
		info, fn, kind, err := r.analyzeProvider(key, provider)
		if err != nil {
			return nil, err
		}
		b.info = info
		b.fn = fn
		b.kind = kind
	}

	return b, nil
}

// analyzeProvider validates a single provider (plain or Injected)
// producing a value assignable to key. It returns the provider's own
// reflect.Value alongside the shared signature info.
func (r *Registry) analyzeProvider(key reflect.Type, provider any) (*reflection.ConstructorInfo, reflect.Value, bindingKind, error) {
	kind := kindPlain
	ctor := provider
	if ip, ok := provider.(injectedProvider); ok {
		kind = kindInjected
		ctor = ip.constructor
	}
	if ctor == nil {
		return nil, reflect.Value{}, 0, RegistrationError{Key: key, Cause: ErrProviderNil}
	}

	info, err := r.analyzer.Analyze(ctor)
	if err != nil {
		return nil, reflect.Value{}, 0, RegistrationError{Key: key, Cause: err}
	}
	if info.ResultType == nil {
		return nil, reflect.Value{}, 0, RegistrationError{Key: key, Cause: ErrProviderShape}
	}
	if !info.ResultType.AssignableTo(key) {
		return nil, reflect.Value{}, 0, RegistrationError{Key: key, Cause: TypeMismatchError{Expected: key, Actual: info.ResultType}}
	}
	if kind == kindPlain && requiredParams(info) > 0 {
		return nil, reflect.Value{}, 0, RegistrationError{Key: key, Cause: ErrProviderParams}
	}

	return info, reflect.ValueOf(ctor), kind, nil
}

// requiredParams counts parameters a caller must supply, ignoring a
// trailing variadic parameter.
func requiredParams(info *reflection.ConstructorInfo) int {
	n := len(info.Params)
	if info.Type.IsVariadic() {
		n--
	}
	return n
}

// resolve returns the memoized instance, constructing it on first use.
// Construction is serialized per binding so concurrent first resolutions
// observe a single instance. Cyclic provider graphs are not detected.
func (b *binding) resolve(r *Registry) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return b.instance, nil
	}

	instance, err := b.construct(r)
	if err != nil {
		return nil, err
	}

	b.instance = instance
	b.built = true
	return instance, nil
}

func (b *binding) construct(r *Registry) (any, error) {
	if b.kind != kindMany {
		return r.invokeProvider(b.info, b.fn, b.kind)
	}

	slice := reflect.MakeSlice(b.key, 0, len(b.elems))
	for i, info := range b.elems {
		value, err := r.invokeProvider(info, b.elemFns[i], b.elemKind[i])
		if err != nil {
			return nil, err
		}
		if value == nil {
			slice = reflect.Append(slice, reflect.Zero(b.key.Elem()))
			continue
		}
		slice = reflect.Append(slice, reflect.ValueOf(value))
	}
	return slice.Interface(), nil
}

// invokeProvider runs a single provider, injecting its parameters from
// the registry when it was bound via Injected.
func (r *Registry) invokeProvider(info *reflection.ConstructorInfo, fn reflect.Value, kind bindingKind) (any, error) {
	var args []reflect.Value
	if kind == kindInjected {
		var err error
		args, err = r.buildArgs(info, nil)
		if err != nil {
			return nil, err
		}
	}

	results, err := reflection.Call(info, fn, args)
	if err != nil {
		return nil, err
	}
	values, err := reflection.SplitError(info, results)
	if err != nil {
		return nil, err
	}

	if len(values) == 0 {
		return nil, nil
	}
	return values[0].Interface(), nil
}
