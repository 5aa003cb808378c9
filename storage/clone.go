package storage

import (
	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/entity"
	"pkg.world.dev/world-engine/strata/types"
)

// Clone returns a deep copy of s together with the mapping from the entities of s to the entities
// of the copy.
func (s *Store) Clone() (*Store, *entity.Migrator) {
	dst := New()
	m := dst.Merge(s)
	return dst, m
}

// Merge copies every entity of src into s. Component values are cloned through the returned
// migrator so entity links inside src point at the new entities.
func (s *Store) Merge(src *Store) *entity.Migrator {
	if src == s {
		return s.mergeSelf()
	}
	s.MaterializeReserved()
	src.MaterializeReserved()

	m := entity.NewMigrator(src.Len())
	for _, arch := range src.archetypes {
		for _, e := range arch.entities {
			m.Set(e, s.entities.Alloc(types.Location{}))
		}
	}

	for _, arch := range src.archetypes {
		cloned := make([]component.Channel, len(arch.channels))
		for i, ch := range arch.channels {
			cloned[i] = ch.Clone(m)
		}
		idx := s.FindOrCreate(arch.ids, func(i int) component.Channel { return cloned[i].New() })
		dst := s.archetypes[idx]
		first := dst.Len()
		for i, ch := range dst.channels {
			ch.Append(cloned[i])
		}
		for row, e := range arch.entities {
			moved := m.Migrate(e)
			dst.entities = append(dst.entities, moved)
			s.entities.SetLocation(moved, types.Location{Archetype: idx, Row: first + row})
		}
	}
	return m
}

// mergeSelf merges a copy of s into s and maps the entities of s straight to their copies.
func (s *Store) mergeSelf() *entity.Migrator {
	snapshot, toSnapshot := s.Clone()
	toCopy := s.Merge(snapshot)
	m := entity.NewMigrator(toSnapshot.Len())
	for _, arch := range s.archetypes {
		for _, e := range arch.entities {
			if via, ok := toSnapshot.Lookup(e); ok {
				m.Set(e, toCopy.Migrate(via))
			}
		}
	}
	return m
}
