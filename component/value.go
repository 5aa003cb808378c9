package component

import "fmt"

// Value is a single component value waiting to be stored, as passed to spawn and add operations.
type Value interface {
	ID() ID
	// NewChannel creates an empty channel able to hold this value.
	NewChannel() Channel
	// Push appends the value to ch.
	Push(ch Channel)
	// Set overwrites row of ch with the value.
	Set(ch Channel, row int)
	Any() any
}

type value[T any] struct {
	id ID
	v  T
}

// New wraps v for storage.
func New[T any](v T) Value {
	return value[T]{id: IDOf[T](), v: v}
}

func (v value[T]) ID() ID { return v.id }

func (v value[T]) NewChannel() Channel {
	return NewColumn[T]()
}

func (v value[T]) Push(ch Channel) {
	v.column(ch).Push(v.v)
}

func (v value[T]) Set(ch Channel, row int) {
	*v.column(ch).At(row) = v.v
}

func (v value[T]) Any() any { return v.v }

func (v value[T]) column(ch Channel) *Column[T] {
	col, ok := ch.(*Column[T])
	if !ok {
		panic(fmt.Sprintf("cannot store %s in %s channel", Name(v.id), Name(ch.ID())))
	}
	return col
}
