package dive

import (
	"fmt"
	"reflect"
)

// Get resolves the interface I from the registry and asserts the result
// to I. It is the typed companion of Registry.Get:
//
//	clock, err := dive.Get[Clock](reg)
func Get[I any](r *Registry) (I, error) {
	var zero I

	instance, err := r.Get(KeyOf[I]())
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}

	typed, ok := instance.(I)
	if !ok {
		return zero, ResolutionError{
			Key:        KeyOf[I](),
			RegistryID: r.ID(),
			Cause:      TypeMismatchError{Expected: KeyOf[I](), Actual: reflect.TypeOf(instance)},
		}
	}
	return typed, nil
}

// MustGet is Get panicking on error, for composition roots where a
// missing binding is a programming error.
func MustGet[I any](r *Registry) I {
	instance, err := Get[I](r)
	if err != nil {
		panic(fmt.Sprintf("dive: %v", err))
	}
	return instance
}

// BindTo binds a provider under the interface I, the typed companion of
// Registry.Bind:
//
//	err := dive.BindTo[Clock](reg, NewSystemClock)
func BindTo[I any](r *Registry, provider any) error {
	return r.Bind(KeyOf[I](), provider)
}
