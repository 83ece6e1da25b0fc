package reflection

import (
	"fmt"
	"reflect"
)

// PanicError reifies a panic raised while a callable was running. It is
// re-exported by the root package as dive.ConstructorPanicError.
type PanicError struct {
	Fn    reflect.Type
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Fn, e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

var _ error = PanicError{}

// Call invokes fn, whose signature info describes, with args, recovering
// panics. The callable arrives as its own reflect.Value because info is a
// shared per-signature shape and carries no function identity. Call returns
// the raw results; a trailing error return is NOT split off here so callers
// can decide how to surface it.
func Call(info *ConstructorInfo, fn reflect.Value, args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = PanicError{Fn: info.Type, Value: r}
		}
	}()
	return fn.Call(args), nil
}

// SplitError separates a callable's results into values and a trailing
// error, per the analyzed signature.
func SplitError(info *ConstructorInfo, results []reflect.Value) ([]reflect.Value, error) {
	if !info.HasErrorReturn || len(results) == 0 {
		return results, nil
	}
	last := results[len(results)-1]
	values := results[:len(results)-1]
	if last.IsNil() {
		return values, nil
	}
	return values, last.Interface().(error)
}
