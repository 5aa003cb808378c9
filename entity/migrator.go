package entity

import "pkg.world.dev/world-engine/strata/types"

// Migrator remaps entities of a source world onto the entities that replaced them in a destination
// world. Components that store entity links use it while being cloned.
type Migrator struct {
	mapping map[types.Entity]types.Entity
}

func NewMigrator(size int) *Migrator {
	return &Migrator{mapping: make(map[types.Entity]types.Entity, size)}
}

func (m *Migrator) Set(from, to types.Entity) {
	m.mapping[from] = to
}

// Lookup returns the replacement of e when e was a live entity of the source world.
func (m *Migrator) Lookup(e types.Entity) (types.Entity, bool) {
	to, ok := m.mapping[e]
	return to, ok
}

// Migrate returns the replacement of e, or types.NullEntity when e did not survive the copy.
func (m *Migrator) Migrate(e types.Entity) types.Entity {
	if to, ok := m.mapping[e]; ok {
		return to
	}
	return types.NullEntity
}

func (m *Migrator) Len() int {
	return len(m.mapping)
}
