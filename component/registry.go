// Package component assigns process-wide ids to component types and stores component values in
// typed, individually lockable columns.
package component

import (
	"reflect"
	"sync"
)

// ID identifies a component type. IDs are assigned in first-use order and are shared by every world
// in the process, so archetypes of different worlds with the same types have the same id lists.
type ID uint32

// Named components report their own name in logs and errors instead of the Go type name.
type Named interface {
	Name() string
}

type registry struct {
	mu    sync.RWMutex
	ids   map[reflect.Type]ID
	names []string
}

var registered = &registry{ids: make(map[reflect.Type]ID)}

// IDOf returns the id of T, registering T on first use.
func IDOf[T any]() ID {
	typ := reflect.TypeFor[T]()
	registered.mu.RLock()
	id, ok := registered.ids[typ]
	registered.mu.RUnlock()
	if ok {
		return id
	}

	registered.mu.Lock()
	defer registered.mu.Unlock()
	if id, ok = registered.ids[typ]; ok {
		return id
	}
	id = ID(len(registered.names))
	registered.ids[typ] = id
	registered.names = append(registered.names, nameOf[T](typ))
	return id
}

func nameOf[T any](typ reflect.Type) string {
	var zero T
	if n, ok := any(zero).(Named); ok && typ.Kind() != reflect.Pointer {
		return n.Name()
	}
	return typ.String()
}

// Name returns the registered name of id.
func Name(id ID) string {
	registered.mu.RLock()
	defer registered.mu.RUnlock()
	if int(id) >= len(registered.names) {
		return "unknown"
	}
	return registered.names[id]
}

// NameOf is Name(IDOf[T]()).
func NameOf[T any]() string {
	return Name(IDOf[T]())
}

// Names maps ids to their registered names.
func Names(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = Name(id)
	}
	return out
}
