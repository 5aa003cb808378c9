package storage

import (
	"fmt"
	"sort"

	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/types"
)

// Archetype stores every entity that has exactly the components in ids. Channels are ordered like ids,
// ascending by component id, and each channel has one value per entry of the entity column.
type Archetype struct {
	index    types.ArchetypeIndex
	ids      []component.ID
	entities []types.Entity
	channels []component.Channel
}

func newArchetype(index types.ArchetypeIndex, ids []component.ID, channels []component.Channel) *Archetype {
	return &Archetype{
		index:    index,
		ids:      ids,
		entities: make([]types.Entity, 0, 16),
		channels: channels,
	}
}

func (a *Archetype) Index() types.ArchetypeIndex {
	return a.index
}

// IDs returns the sorted component ids of the archetype. The slice must not be modified.
func (a *Archetype) IDs() []component.ID {
	return a.ids
}

// Entities returns the entity column. The slice must not be modified.
func (a *Archetype) Entities() []types.Entity {
	return a.entities
}

func (a *Archetype) Len() int {
	return len(a.entities)
}

func (a *Archetype) Channels() []component.Channel {
	return a.channels
}

func (a *Archetype) Channel(i int) component.Channel {
	return a.channels[i]
}

// ChannelIndex finds the position of the channel holding id.
func (a *Archetype) ChannelIndex(id component.ID) (int, bool) {
	i := sort.Search(len(a.ids), func(i int) bool { return a.ids[i] >= id })
	if i < len(a.ids) && a.ids[i] == id {
		return i, true
	}
	return 0, false
}

// removeEntity swap-removes row from the entity column and returns the entity that took its place.
func (a *Archetype) removeEntity(row int) (types.Entity, bool) {
	last := len(a.entities) - 1
	a.entities[row] = a.entities[last]
	a.entities = a.entities[:last]
	if row == last {
		return types.Entity{}, false
	}
	return a.entities[row], true
}

func (a *Archetype) checkRow(row int) {
	if row < 0 || row >= len(a.entities) {
		panic(fmt.Sprintf("row %d out of range for archetype %d with %d entities", row, a.index, len(a.entities)))
	}
}
