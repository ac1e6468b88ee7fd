package guest

import (
	"fmt"
	"sync"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/engine"
	"github.com/wippyai/smartmodule/errors"
	"github.com/wippyai/smartmodule/memory"
	"github.com/wippyai/smartmodule/record"
)

type registry struct {
	mu       sync.RWMutex
	engine   *engine.Engine
	variants map[smartmodule.Kind]engine.Variant
}

var modules = newRegistry()

func newRegistry() *registry {
	return &registry{
		engine:   engine.New(),
		variants: make(map[smartmodule.Kind]engine.Variant),
	}
}

// Register installs v as the transform for its kind. A kind can be
// registered once.
func Register(v engine.Variant) error {
	return modules.register(v)
}

func (r *registry) register(v engine.Variant) error {
	if !v.Kind.Valid() {
		return registrationError(v.Kind, "invalid kind")
	}
	if v.Bind == nil {
		return registrationError(v.Kind, "variant has no bind function")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.variants[v.Kind]; exists {
		return registrationError(v.Kind, "already registered")
	}
	r.variants[v.Kind] = v
	return nil
}

func (r *registry) lookup(kind smartmodule.Kind) (engine.Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[kind]
	return v, ok
}

// Registered reports whether a transform is installed for kind.
func Registered(kind smartmodule.Kind) bool {
	_, ok := modules.lookup(kind)
	return ok
}

// Invoke runs the transform registered for kind over an encoded request,
// publishing the response to sink. It returns the success count or a
// negative sentinel.
func Invoke(kind smartmodule.Kind, input []byte, sink memory.Sink) int32 {
	return modules.invoke(kind, input, sink)
}

func (r *registry) invoke(kind smartmodule.Kind, input []byte, sink memory.Sink) int32 {
	v, ok := r.lookup(kind)
	if !ok {
		return errors.Failure(errors.UnknownError).Code()
	}
	return r.engine.Execute(v, input, sink).Code()
}

// Filter registers a filter transform. It panics if one is already
// registered.
func Filter(fn engine.FilterFunc) {
	mustRegister(engine.Filter(fn))
}

// Map registers a map transform.
func Map(fn engine.MapFunc) {
	mustRegister(engine.Map(fn))
}

// FilterMap registers a filter-map transform.
func FilterMap(fn engine.FilterMapFunc) {
	mustRegister(engine.FilterMap(fn))
}

// ArrayMap registers an array-map transform.
func ArrayMap(fn engine.ArrayMapFunc) {
	mustRegister(engine.ArrayMap(fn))
}

// Join registers a join transform.
func Join(fn engine.JoinFunc) {
	mustRegister(engine.Join(fn))
}

// FilterWithParams registers a filter transform with typed parameters.
func FilterWithParams[P any](fn func(rec *record.Record, params *P) (bool, error)) {
	mustRegister(engine.FilterWithParams(fn))
}

// MapWithParams registers a map transform with typed parameters.
func MapWithParams[P any](fn func(rec *record.Record, params *P) ([]byte, []byte, error)) {
	mustRegister(engine.MapWithParams(fn))
}

// FilterMapWithParams registers a filter-map transform with typed parameters.
func FilterMapWithParams[P any](fn func(rec *record.Record, params *P) ([]byte, []byte, bool, error)) {
	mustRegister(engine.FilterMapWithParams(fn))
}

// ArrayMapWithParams registers an array-map transform with typed parameters.
func ArrayMapWithParams[P any](fn func(rec *record.Record, params *P) ([]engine.Pair, error)) {
	mustRegister(engine.ArrayMapWithParams(fn))
}

// JoinWithParams registers a join transform with typed parameters.
func JoinWithParams[P any](fn func(rec, right *record.Record, params *P) ([]byte, []byte, error)) {
	mustRegister(engine.JoinWithParams(fn))
}

func mustRegister(v engine.Variant) {
	if err := Register(v); err != nil {
		panic(err)
	}
}

func registrationError(kind smartmodule.Kind, detail string) error {
	return errors.New(errors.PhaseValidate, errors.KindRegistration).
		Value(kind).
		Detail(fmt.Sprintf("register %s: %s", kind, detail)).
		Build()
}
