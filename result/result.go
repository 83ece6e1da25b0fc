// Package result provides a two-variant outcome value, Result, that
// reifies success or failure as data instead of control flow, plus
// adapters that lift conventional (value, error) returns — and the
// panics Go uses for unrecoverable failures — into Result values.
package result

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidResult is returned by New when a Result is constructed
// claiming to be ok while carrying a non-nil error. This is a contract
// violation, never silently corrected.
var ErrInvalidResult = errors.New("result cannot be both ok and error")

// Result is an immutable value that is exactly one of two variants: ok,
// carrying a value, or error, carrying an error. The zero Result is the
// ok variant of the zero value.
type Result[T any] struct {
	value T
	err   error
	isErr bool
}

// Ok builds the success variant carrying v.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err builds the failure variant carrying err. A nil err still yields
// the failure variant.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err, isErr: true}
}

// Errf builds the failure variant from a message, coercing the plain
// string into an error. Formatting verbs work as in fmt.Errorf, so %w
// wraps an underlying error.
func Errf[T any](format string, args ...any) Result[T] {
	return Err[T](fmt.Errorf(format, args...))
}

// New builds a Result from its raw parts, validating the variant
// contract: an ok Result cannot carry a non-nil error.
func New[T any](value T, err error, ok bool) (Result[T], error) {
	if ok && err != nil {
		return Result[T]{}, ErrInvalidResult
	}
	if ok {
		return Ok(value), nil
	}
	return Err[T](err), nil
}

// IsOk reports whether r is the success variant.
func (r Result[T]) IsOk() bool { return !r.isErr }

// IsErr reports whether r is the failure variant.
func (r Result[T]) IsErr() bool { return r.isErr }

// Value returns the carried value. On the failure variant it returns
// the zero value of T.
func (r Result[T]) Value() T {
	if r.isErr {
		var zero T
		return zero
	}
	return r.value
}

// Err returns the carried error. On the success variant it returns nil.
func (r Result[T]) Err() error {
	if !r.isErr {
		return nil
	}
	return r.err
}

// Unpack converts r back to Go's (value, error) convention.
func (r Result[T]) Unpack() (T, error) {
	return r.Value(), r.Err()
}

func (r Result[T]) String() string {
	if r.isErr {
		return fmt.Sprintf("Error(%v)", r.err)
	}
	return fmt.Sprintf("Ok(%v)", r.value)
}

// Equal reports whether two Results are the same variant with equal
// contents. Values compare with reflect.DeepEqual. Errors compare equal
// when both are nil, identical, or of the same dynamic type with the
// same message — so two separately constructed errors of one type and
// text compare equal.
func (r Result[T]) Equal(other Result[T]) bool {
	if r.isErr != other.isErr {
		return false
	}
	if !equalErrors(r.err, other.err) {
		return false
	}
	return reflect.DeepEqual(r.value, other.value)
}

func equalErrors(a, b error) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	// Identity comparison via == is avoided: dynamic error types are not
	// guaranteed comparable. Same type and same message is the contract.
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return a.Error() == b.Error()
}
