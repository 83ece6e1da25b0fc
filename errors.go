package dive

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/driftlab/dive/internal/reflection"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are always wrapped in one of the typed
// errors below before being returned, so callers can match broad
// categories with errors.Is and still read useful context.

var (
	// Resolution errors.
	ErrNotBound = errors.New("interface not bound")
	ErrKeyNil   = errors.New("interface key cannot be nil")

	// Registration errors.
	ErrProviderNil    = errors.New("provider cannot be nil")
	ErrProviderParams = errors.New("provider must take no parameters unless marked Injected")
	ErrProviderShape  = errors.New("provider must return a value, optionally with a trailing error")

	// Invocation errors.
	ErrMissingArgument = errors.New("missing argument")
	ErrUnusedArgument  = errors.New("explicit argument matches no parameter")
	ErrNotFunc         = errors.New("target must be a function")

	// Module errors.
	ErrModuleRegistered    = errors.New("module already registered")
	ErrModuleNotRegistered = errors.New("module not registered")
	ErrRegistryNil         = errors.New("registry cannot be nil")
)

var (
	_ error = ResolutionError{}
	_ error = RegistrationError{}
	_ error = TypeMismatchError{}
	_ error = InvocationError{}
	_ error = ModuleError{}
	_ error = ConstructorPanicError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// ResolutionError indicates that resolving an interface key failed,
// either because nothing is bound to it or because its provider failed.
type ResolutionError struct {
	Key        reflect.Type
	RegistryID string
	Cause      error
}

func (e ResolutionError) Error() string {
	if e.RegistryID != "" {
		return fmt.Sprintf("resolving %s (registry %s): %v", formatType(e.Key), e.RegistryID, e.Cause)
	}
	return fmt.Sprintf("resolving %s: %v", formatType(e.Key), e.Cause)
}

func (e ResolutionError) Unwrap() error { return e.Cause }

// RegistrationError indicates a provider could not be bound.
type RegistrationError struct {
	Key   reflect.Type
	Cause error
}

func (e RegistrationError) Error() string {
	return fmt.Sprintf("binding %s: %v", formatType(e.Key), e.Cause)
}

func (e RegistrationError) Unwrap() error { return e.Cause }

// TypeMismatchError indicates a provider's result is not assignable to
// the interface key it is being bound to.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("provider result %s is not assignable to %s", formatType(e.Actual), formatType(e.Expected))
}

// InvocationError indicates that invoking a callable through the
// injection engine failed before or during the call.
type InvocationError struct {
	Fn    reflect.Type
	Param reflect.Type // parameter that could not be supplied, when relevant
	Cause error
}

func (e InvocationError) Error() string {
	if e.Param != nil {
		return fmt.Sprintf("invoking %s: parameter %s: %v", formatType(e.Fn), formatType(e.Param), e.Cause)
	}
	return fmt.Sprintf("invoking %s: %v", formatType(e.Fn), e.Cause)
}

func (e InvocationError) Unwrap() error { return e.Cause }

// ModuleError wraps a failure while registering or using a module.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error { return e.Cause }

// ConstructorPanicError reifies a panic raised inside a provider or an
// invoked callable. The panic is recovered and reported as an error; it
// is never re-raised by the container.
type ConstructorPanicError = reflection.PanicError

// formatType renders a type for error messages, tolerating nil.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
