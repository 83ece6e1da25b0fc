package dive

import (
	"errors"
	"reflect"

	"go.uber.org/dig"

	"github.com/driftlab/dive/internal/reflection"
)

// In marks a struct as a parameter object. When a constructor or
// invoked callable takes a single struct parameter embedding dive.In,
// the injection engine populates each exported field from the registry
// instead of resolving the struct itself.
//
// In is dig's marker type, so parameter structs written for dig work
// unchanged:
//
//	type serverParams struct {
//	    dive.In
//
//	    Clock Clock
//	    Audit AuditSink `optional:"true"`
//	}
//
//	func NewServer(p serverParams) *Server
//
// Fields tagged `optional:"true"` are left at their zero value when
// nothing is bound to their type, instead of failing the call.
type In = dig.In

// Invoke calls fn with its parameters supplied by the engine. Each
// parameter is filled from the explicit arguments first — the first
// unconsumed explicit value assignable to the parameter wins — and
// otherwise resolved from the registry. A parameter that is neither
// supplied nor bound fails the call with ErrMissingArgument; an
// explicit argument no parameter consumes (including a nil) fails it
// with ErrUnusedArgument rather than being dropped.
//
// fn's non-error return values are returned as a slice; a trailing
// error return is split off and returned as the error. Failures inside
// fn propagate unchanged; panics are recovered and reported as a
// ConstructorPanicError.
func (r *Registry) Invoke(fn any, explicit ...any) ([]any, error) {
	if fn == nil {
		return nil, InvocationError{Cause: ErrNotFunc}
	}

	info, err := r.analyzer.Analyze(fn)
	if err != nil {
		return nil, InvocationError{Fn: reflect.TypeOf(fn), Cause: err}
	}

	pool := newArgPool(explicit)
	args, err := r.buildArgsFrom(info, pool)
	if err != nil {
		return nil, err
	}
	if leftover, ok := pool.unconsumed(); ok {
		return nil, InvocationError{Fn: info.Type, Param: leftover, Cause: ErrUnusedArgument}
	}

	results, err := reflection.Call(info, reflect.ValueOf(fn), args)
	if err != nil {
		return nil, err
	}
	values, callErr := reflection.SplitError(info, results)

	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v.Interface()
	}
	return out, callErr
}

// Call is Invoke discarding fn's non-error results.
func (r *Registry) Call(fn any, explicit ...any) error {
	_, err := r.Invoke(fn, explicit...)
	return err
}

// buildArgs assembles the argument list for an analyzed callable,
// merging explicit values with registry resolutions.
func (r *Registry) buildArgs(info *reflection.ConstructorInfo, explicit []any) ([]reflect.Value, error) {
	return r.buildArgsFrom(info, newArgPool(explicit))
}

func (r *Registry) buildArgsFrom(info *reflection.ConstructorInfo, pool *argPool) ([]reflect.Value, error) {
	if info.IsParamObject {
		obj, err := r.buildParamObject(info, pool)
		if err != nil {
			return nil, err
		}
		return []reflect.Value{obj}, nil
	}

	n := requiredParams(info)
	args := make([]reflect.Value, 0, n)
	for _, param := range info.Params[:n] {
		if v, ok := pool.take(param.Type); ok {
			args = append(args, v)
			continue
		}

		instance, err := r.Get(param.Type)
		if err != nil {
			if errors.Is(err, ErrNotBound) {
				return nil, InvocationError{Fn: info.Type, Param: param.Type, Cause: ErrMissingArgument}
			}
			return nil, err
		}
		args = append(args, valueOf(instance, param.Type))
	}
	return args, nil
}

// buildParamObject fills a dive.In struct field by field.
func (r *Registry) buildParamObject(info *reflection.ConstructorInfo, pool *argPool) (reflect.Value, error) {
	paramType := info.Type.In(0)
	obj := reflect.New(paramType).Elem()

	for _, field := range info.ParamFields {
		if v, ok := pool.take(field.Type); ok {
			obj.Field(field.Index).Set(v)
			continue
		}

		instance, err := r.Get(field.Type)
		if err != nil {
			if errors.Is(err, ErrNotBound) {
				if field.Optional {
					continue
				}
				return reflect.Value{}, InvocationError{Fn: info.Type, Param: field.Type, Cause: ErrMissingArgument}
			}
			return reflect.Value{}, err
		}
		obj.Field(field.Index).Set(valueOf(instance, field.Type))
	}
	return obj, nil
}

// argPool hands out explicit arguments by assignability, consuming each
// at most once so one value cannot satisfy two parameters.
type argPool struct {
	values []reflect.Value
	used   []bool
}

func newArgPool(explicit []any) *argPool {
	p := &argPool{
		values: make([]reflect.Value, len(explicit)),
		used:   make([]bool, len(explicit)),
	}
	for i, e := range explicit {
		p.values[i] = reflect.ValueOf(e)
	}
	return p
}

func (p *argPool) take(t reflect.Type) (reflect.Value, bool) {
	for i, v := range p.values {
		if p.used[i] {
			continue
		}
		if !v.IsValid() {
			continue
		}
		if v.Type().AssignableTo(t) {
			p.used[i] = true
			return v, true
		}
	}
	return reflect.Value{}, false
}

// unconsumed reports the first explicit argument no parameter took. A
// nil argument can never be taken, so it always surfaces here; its type
// is unknown and reported as nil.
func (p *argPool) unconsumed() (reflect.Type, bool) {
	for i, v := range p.values {
		if p.used[i] {
			continue
		}
		if !v.IsValid() {
			return nil, true
		}
		return v.Type(), true
	}
	return nil, false
}

// valueOf converts a resolved instance to a reflect.Value of the target
// type, tolerating nil instances from providers of nilable types.
func valueOf(instance any, t reflect.Type) reflect.Value {
	if instance == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(instance)
}
