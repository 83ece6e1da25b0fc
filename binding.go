package dive

import (
	"reflect"
)

// Binding pairs an interface key with a provider. Bindings are applied
// in order by Registry.BindAll and Module registration; order matters
// only for Many providers, where it fixes the element sequence.
type Binding struct {
	// Key is the interface the provider is bound to. A nil Key means
	// the provider is bound to its own result type.
	Key reflect.Type

	// Provider is the factory function, possibly wrapped by Injected
	// or produced by Many.
	Provider any
}

// KeyOf returns the interface key for a type parameter. It works for
// interface types, concrete types, and slice types alike:
//
//	dive.KeyOf[Clock]()    // the Clock interface
//	dive.KeyOf[[]Codec]()  // the []Codec collection key
func KeyOf[I any]() reflect.Type {
	return reflect.TypeOf((*I)(nil)).Elem()
}

// To builds a Binding of the interface I to the given provider.
//
//	dive.To[Clock](NewSystemClock)
func To[I any](provider any) Binding {
	return Binding{Key: KeyOf[I](), Provider: provider}
}

// Self builds a Binding of a provider to its own result type, the
// functional equivalent of Registry.Add.
func Self(provider any) Binding {
	return Binding{Provider: provider}
}

// Many builds a Binding of the collection key []I to a synthetic
// provider that instantiates each element provider in declaration order
// and returns them as a []I. This lets one logical interface resolve to
// several implementations; resolution preserves the declared order.
//
//	dive.Many[Codec](NewJSONCodec, NewGobCodec)
func Many[I any](providers ...any) Binding {
	return Binding{
		Key:      reflect.SliceOf(KeyOf[I]()),
		Provider: manyProvider{providers: providers},
	}
}

// Injected marks a constructor with dependency parameters as
// injectable: when the binding is resolved, each parameter is resolved
// from the resolving registry before the constructor runs. Without this
// marker a provider must take no parameters; dependency resolution is
// never applied implicitly.
//
//	reg.Bind(dive.KeyOf[Notifier](), dive.Injected(NewEmailNotifier))
//
// where
//
//	func NewEmailNotifier(clock Clock, store KeyStore) Notifier
func Injected(constructor any) any {
	return injectedProvider{constructor: constructor}
}

// InjectedTo combines To and Injected.
func InjectedTo[I any](constructor any) Binding {
	return Binding{Key: KeyOf[I](), Provider: Injected(constructor)}
}

// injectedProvider tags a constructor for parameter injection. The
// registry unwraps it at bind time.
type injectedProvider struct {
	constructor any
}

// manyProvider carries the element providers of a Many binding.
type manyProvider struct {
	providers []any
}
