package component

import (
	"fmt"
	"reflect"
	"sync"

	"pkg.world.dev/world-engine/strata/entity"
)

// Channel is the type-erased view of one component column inside one archetype. The archetype store
// only talks to columns through this interface.
type Channel interface {
	ID() ID
	Len() int
	// New returns an empty channel of the same component type.
	New() Channel
	// SwapRemove deletes row by moving the last value into it.
	SwapRemove(row int)
	// MoveTo appends the value at row to dst and swap-removes it here. dst must hold the same type.
	MoveTo(row int, dst Channel)
	// Append copies every value of src to the end of this channel. src must hold the same type.
	Append(src Channel)
	// Clone deep copies the channel, rewriting entity links of Cloner values through m.
	Clone(m *entity.Migrator) Channel
	Value(row int) any

	TryRLock() bool
	RUnlock()
	TryLock() bool
	Unlock()
}

// Cloner is implemented by components that need more than a value copy when a world is cloned,
// usually because they hold entity handles.
type Cloner[T any] interface {
	Clone(m *entity.Migrator) T
}

// Column is the Channel implementation for values of type T.
type Column[T any] struct {
	mu     sync.RWMutex
	id     ID
	values []T
}

var _ Channel = (*Column[struct{}])(nil)

func NewColumn[T any]() *Column[T] {
	return &Column[T]{id: IDOf[T]()}
}

func (c *Column[T]) ID() ID {
	return c.id
}

func (c *Column[T]) Len() int {
	return len(c.values)
}

func (c *Column[T]) New() Channel {
	return &Column[T]{id: c.id}
}

// Slice exposes the backing values. Callers must hold the matching lock while using it.
func (c *Column[T]) Slice() []T {
	return c.values
}

func (c *Column[T]) At(row int) *T {
	return &c.values[row]
}

func (c *Column[T]) Push(v T) {
	c.values = append(c.values, v)
}

func (c *Column[T]) SwapRemove(row int) {
	last := len(c.values) - 1
	if row < 0 || row > last {
		panic(fmt.Sprintf("swap remove of row %d in %s column of length %d", row, Name(c.id), len(c.values)))
	}
	c.values[row] = c.values[last]
	var zero T
	c.values[last] = zero
	c.values = c.values[:last]
}

func (c *Column[T]) MoveTo(row int, dst Channel) {
	to := c.cast(dst)
	to.values = append(to.values, c.values[row])
	c.SwapRemove(row)
}

func (c *Column[T]) Append(src Channel) {
	c.values = append(c.values, c.cast(src).values...)
}

func (c *Column[T]) Clone(m *entity.Migrator) Channel {
	out := &Column[T]{id: c.id, values: make([]T, len(c.values))}
	if reflect.TypeFor[T]().Kind() == reflect.Interface {
		// the dynamic type decides per value
		for i, v := range c.values {
			if cl, ok := any(v).(Cloner[T]); ok {
				out.values[i] = cl.Clone(m)
			} else {
				out.values[i] = v
			}
		}
		return out
	}
	if _, ok := any(*new(T)).(Cloner[T]); !ok {
		copy(out.values, c.values)
		return out
	}
	for i, v := range c.values {
		out.values[i] = any(v).(Cloner[T]).Clone(m)
	}
	return out
}

func (c *Column[T]) Value(row int) any {
	return c.values[row]
}

func (c *Column[T]) TryRLock() bool { return c.mu.TryRLock() }
func (c *Column[T]) RUnlock()       { c.mu.RUnlock() }
func (c *Column[T]) TryLock() bool  { return c.mu.TryLock() }
func (c *Column[T]) Unlock()        { c.mu.Unlock() }

func (c *Column[T]) cast(other Channel) *Column[T] {
	col, ok := other.(*Column[T])
	if !ok {
		panic(fmt.Sprintf("channel type mismatch: %s and %s", Name(c.id), Name(other.ID())))
	}
	return col
}
