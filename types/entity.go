package types

import "fmt"

// Entity is a generational handle. Index is reused after despawn, Generation is bumped every time the
// index is freed so stale handles can be detected.
type Entity struct {
	Index      uint32
	Generation uint32
}

// NullEntity is the "no entity" sentinel used by components that store links to other entities.
var NullEntity = Entity{Index: ^uint32(0), Generation: ^uint32(0)}

func (e Entity) IsNull() bool {
	return e == NullEntity
}

func (e Entity) String() string {
	if e.IsNull() {
		return "entity(null)"
	}
	return fmt.Sprintf("entity(%d:%d)", e.Index, e.Generation)
}

// Less orders entities by index first, then generation.
func (e Entity) Less(other Entity) bool {
	if e.Index != other.Index {
		return e.Index < other.Index
	}
	return e.Generation < other.Generation
}

type ArchetypeIndex int

// EmptyArchetype is the archetype without components. It always exists and is where reserved
// entities are materialized.
const EmptyArchetype ArchetypeIndex = 0

// Location points at the row of an entity inside its archetype.
type Location struct {
	Archetype ArchetypeIndex
	Row       int
}
