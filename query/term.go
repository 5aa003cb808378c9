package query

import (
	"fmt"

	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/filter"
)

// Term is one element of a query: a fetched accessor (Read, Write, Optional, OptionalMut) or a
// filter-only term (With, Without).
type Term interface {
	filter() filter.Filter
	mutable() bool
	fetched() bool
	// bind attaches a fetched term to the query slot it reads from.
	bind(q *Query, slot int)
	// values unwraps the typed backing slice of ch.
	values(ch component.Channel) any
}

type binding struct {
	q    *Query
	slot int
}

func (b *binding) bind(q *Query, slot int) {
	if b.q != nil && b.q != q {
		panic("query term is already bound to another query")
	}
	b.q = q
	b.slot = slot
}

func (b *binding) column(row Row) any {
	if row.seg == nil || row.seg.q != b.q {
		panic("row does not belong to the query of this term")
	}
	return row.seg.values[b.slot]
}

type typed[T any] struct {
	binding
	id component.ID
}

func (t *typed[T]) values(ch component.Channel) any {
	col, ok := ch.(*component.Column[T])
	if !ok {
		panic(fmt.Sprintf("channel of %s does not hold %s", component.Name(ch.ID()), component.NameOf[T]()))
	}
	return col.Slice()
}

func (t *typed[T]) slice(row Row) []T {
	v := t.column(row)
	if v == nil {
		return nil
	}
	return v.([]T)
}

func (t *typed[T]) fetched() bool { return true }

// Ref reads T. Every matched entity has a T.
type Ref[T any] struct{ typed[T] }

func Read[T any]() *Ref[T] {
	return &Ref[T]{typed[T]{id: component.IDOf[T]()}}
}

func (r *Ref[T]) filter() filter.Filter { return filter.With(r.id) }
func (r *Ref[T]) mutable() bool         { return false }

func (r *Ref[T]) Get(row Row) T {
	return r.slice(row)[row.idx]
}

// Mut writes T in place.
type Mut[T any] struct{ typed[T] }

func Write[T any]() *Mut[T] {
	return &Mut[T]{typed[T]{id: component.IDOf[T]()}}
}

func (m *Mut[T]) filter() filter.Filter { return filter.With(m.id) }
func (m *Mut[T]) mutable() bool         { return true }

func (m *Mut[T]) Get(row Row) *T {
	return &m.slice(row)[row.idx]
}

// Opt reads T when the entity has one, without restricting the match.
type Opt[T any] struct{ typed[T] }

func Optional[T any]() *Opt[T] {
	return &Opt[T]{typed[T]{id: component.IDOf[T]()}}
}

func (o *Opt[T]) filter() filter.Filter { return filter.Optional(o.id) }
func (o *Opt[T]) mutable() bool         { return false }

func (o *Opt[T]) Get(row Row) (T, bool) {
	s := o.slice(row)
	if s == nil {
		var zero T
		return zero, false
	}
	return s[row.idx], true
}

// OptMut writes T in place when the entity has one.
type OptMut[T any] struct{ typed[T] }

func OptionalMut[T any]() *OptMut[T] {
	return &OptMut[T]{typed[T]{id: component.IDOf[T]()}}
}

func (o *OptMut[T]) filter() filter.Filter { return filter.Optional(o.id) }
func (o *OptMut[T]) mutable() bool         { return true }

func (o *OptMut[T]) Get(row Row) (*T, bool) {
	s := o.slice(row)
	if s == nil {
		return nil, false
	}
	return &s[row.idx], true
}

type only struct {
	f filter.Filter
}

func (o only) filter() filter.Filter        { return o.f }
func (o only) mutable() bool                { return false }
func (o only) fetched() bool                { return false }
func (o only) bind(*Query, int)             {}
func (o only) values(component.Channel) any { return nil }

// With restricts the query to entities holding T without fetching it.
func With[T any]() Term {
	return only{f: filter.With(component.IDOf[T]())}
}

// Without restricts the query to entities lacking T.
func Without[T any]() Term {
	return only{f: filter.Without(component.IDOf[T]())}
}
