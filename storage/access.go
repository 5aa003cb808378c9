package storage

import (
	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/types"
)

func column[T any](ch component.Channel) *component.Column[T] {
	col, ok := ch.(*component.Column[T])
	if !ok {
		panic("channel of " + component.Name(ch.ID()) + " does not hold " + component.NameOf[T]())
	}
	return col
}

// Get returns a pointer to the T of e. The pointer is invalidated by the next structural operation.
func Get[T any](s *Store, e types.Entity) (*T, error) {
	loc, err := s.locate(e)
	if err != nil {
		return nil, err
	}
	arch := s.archetypes[loc.Archetype]
	ci, ok := arch.ChannelIndex(component.IDOf[T]())
	if !ok {
		return nil, eris.Wrapf(types.ErrNoMatchingComponent, "%s has no %s", e, component.NameOf[T]())
	}
	return column[T](arch.channels[ci]).At(loc.Row), nil
}

// Remove detaches T from e and returns the removed value.
func Remove[T any](s *Store, e types.Entity) (T, error) {
	var out T
	err := s.removeFrom(e, component.IDOf[T](), func(ch component.Channel, row int) {
		out = *column[T](ch).At(row)
	})
	return out, err
}

// Singleton returns the T of the first entity, in archetype order, that holds one.
func Singleton[T any](s *Store) (*T, error) {
	id := component.IDOf[T]()
	it := s.index.Archetypes(id).Iterator()
	for it.HasNext() {
		arch := s.archetypes[it.Next()]
		if arch.Len() == 0 {
			continue
		}
		ci, _ := s.index.ChannelOf(arch.Index(), id)
		return column[T](arch.channels[ci]).At(0), nil
	}
	return nil, eris.Wrapf(types.ErrNoMatchingComponent, "no entity holds %s", component.NameOf[T]())
}
