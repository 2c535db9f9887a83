package physics

import (
	"sort"

	"github.com/notargets/dgflow/types"
)

// Params are the numeric construction parameters of a function, boundary or source
type Params map[string]float64

// Get returns the named parameter or its default
func (p Params) Get(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

type Constructor[T any] func(p Params) (T, error)

// Registry maps configuration names to constructors, resolved once at setup
type Registry[T any] map[string]Constructor[T]

func (r Registry[T]) New(name string, params Params) (obj T, err error) {
	ctor, ok := r[name]
	if !ok {
		return obj, types.Unsupported("%q", name)
	}
	return ctor(params)
}

func (r Registry[T]) Names() (names []string) {
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return
}

// Value wraps a parameterless value as a constructor
func Value[T any](v T) Constructor[T] {
	return func(Params) (T, error) { return v, nil }
}
