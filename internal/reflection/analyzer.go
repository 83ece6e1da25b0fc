// Package reflection performs the reflect-based analysis the container
// relies on: classifying provider and callable signatures, detecting
// parameter objects, and invoking constructors with panic recovery.
package reflection

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/dig"
)

var (
	inType  = reflect.TypeOf(dig.In{})
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

var (
	ErrNotFunc     = errors.New("provider must be a function")
	ErrNilFunc     = errors.New("provider function cannot be nil")
	ErrNoReturn    = errors.New("provider must return at least one non-error value")
	ErrBadOptional = errors.New(`optional tag must be "true" or "false"`)
)

// Analyzer inspects callables and caches the result per function type.
// The cache holds signature shape only, never a function value: distinct
// closures share one code pointer (and one type) while capturing
// different state, so the value to invoke must always come from the
// caller, not from here.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[reflect.Type]*ConstructorInfo
}

// ConstructorInfo is the analyzed shape of a callable. It describes the
// signature; it deliberately does not carry the callable itself.
type ConstructorInfo struct {
	Type reflect.Type

	// Params holds one entry per declared parameter. For parameter
	// objects it instead describes the single struct parameter; the
	// per-field breakdown lives in ParamFields.
	Params []Param

	// Returns holds every return type, including a trailing error.
	Returns []reflect.Type

	// ResultType is the first non-error return, or nil when the
	// callable returns nothing useful.
	ResultType reflect.Type

	// HasErrorReturn reports whether the last return value is an error.
	HasErrorReturn bool

	// IsParamObject reports that the callable takes exactly one struct
	// parameter embedding dig.In, described field-by-field in ParamFields.
	IsParamObject bool
	ParamFields   []Field
}

// Param describes a declared parameter of a plain callable.
type Param struct {
	Type  reflect.Type
	Index int
}

// Field describes an exported field of a parameter object.
type Field struct {
	Name     string
	Type     reflect.Type
	Index    int
	Optional bool
}

// New creates an Analyzer with an empty cache.
func New() *Analyzer {
	return &Analyzer{cache: make(map[reflect.Type]*ConstructorInfo)}
}

// Analyze classifies fn and returns its cached ConstructorInfo.
func (a *Analyzer) Analyze(fn any) (*ConstructorInfo, error) {
	if fn == nil {
		return nil, ErrNilFunc
	}

	val := reflect.ValueOf(fn)
	typ := val.Type()
	if typ.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w, got %s", ErrNotFunc, typ)
	}
	if val.IsNil() {
		return nil, ErrNilFunc
	}

	a.mu.RLock()
	cached, ok := a.cache[typ]
	a.mu.RUnlock()
	if ok {
		return cached, nil
	}

	info, err := analyze(typ)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	// A concurrent Analyze may have stored an equivalent entry; keeping
	// the first one preserves pointer stability for callers.
	if existing, ok := a.cache[typ]; ok {
		info = existing
	} else {
		a.cache[typ] = info
	}
	a.mu.Unlock()

	return info, nil
}

func analyze(typ reflect.Type) (*ConstructorInfo, error) {
	info := &ConstructorInfo{
		Type: typ,
	}

	for i := 0; i < typ.NumIn(); i++ {
		info.Params = append(info.Params, Param{Type: typ.In(i), Index: i})
	}

	for i := 0; i < typ.NumOut(); i++ {
		info.Returns = append(info.Returns, typ.Out(i))
	}
	if n := typ.NumOut(); n > 0 && typ.Out(n-1) == errType {
		info.HasErrorReturn = true
	}
	for _, out := range info.Returns {
		if out != errType {
			info.ResultType = out
			break
		}
	}

	if typ.NumIn() == 1 && !typ.IsVariadic() && IsParamObject(typ.In(0)) {
		fields, err := paramFields(typ.In(0))
		if err != nil {
			return nil, err
		}
		info.IsParamObject = true
		info.ParamFields = fields
	}

	return info, nil
}

// IsParamObject reports whether t is a struct embedding dig.In.
func IsParamObject(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == inType {
			return true
		}
	}
	return false
}

func paramFields(t reflect.Type) ([]Field, error) {
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == inType {
			continue
		}
		if !f.IsExported() {
			continue
		}

		optional := false
		if tag, ok := f.Tag.Lookup("optional"); ok {
			switch tag {
			case "true":
				optional = true
			case "false":
			default:
				return nil, fmt.Errorf("field %s.%s: %w, got %q", t, f.Name, ErrBadOptional, tag)
			}
		}

		fields = append(fields, Field{
			Name:     f.Name,
			Type:     f.Type,
			Index:    i,
			Optional: optional,
		})
	}
	return fields, nil
}
