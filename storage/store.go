// Package storage holds the archetype tables of a world, the index used to match them against
// queries, and the structural operations that move entities between them.
package storage

import (
	"cmp"
	"encoding/binary"
	"slices"

	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/entity"
	"pkg.world.dev/world-engine/strata/filter"
	"pkg.world.dev/world-engine/strata/types"
)

// Store owns every archetype of a world.
//
// Structural methods (everything except Reserve, Archetype lookups and Location) need exclusive
// access to the store. Pending reservations are materialized before any of them runs.
type Store struct {
	archetypes []*Archetype
	byKey      map[string]types.ArchetypeIndex
	index      *Index
	entities   *entity.Table

	shapeVersion uint64
}

func New() *Store {
	s := &Store{
		byKey:    make(map[string]types.ArchetypeIndex),
		index:    NewIndex(),
		entities: entity.NewTable(),
	}
	s.FindOrCreate(nil, nil)
	return s
}

func archetypeKey(ids []component.ID) string {
	buf := make([]byte, 0, len(ids)*4)
	for _, id := range ids {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
	}
	return string(buf)
}

// FindOrCreate returns the archetype holding exactly ids, which must be sorted and unique. When it does
// not exist yet shape(i) supplies an empty channel for ids[i].
func (s *Store) FindOrCreate(ids []component.ID, shape func(i int) component.Channel) types.ArchetypeIndex {
	key := archetypeKey(ids)
	if idx, ok := s.byKey[key]; ok {
		return idx
	}
	idx := types.ArchetypeIndex(len(s.archetypes))
	channels := make([]component.Channel, len(ids))
	for i := range ids {
		channels[i] = shape(i)
	}
	ids = slices.Clone(ids)
	s.archetypes = append(s.archetypes, newArchetype(idx, ids, channels))
	s.byKey[key] = idx
	s.index.Register(idx, ids)
	s.shapeVersion++
	return idx
}

func (s *Store) Archetype(idx types.ArchetypeIndex) *Archetype {
	return s.archetypes[idx]
}

func (s *Store) Archetypes() []*Archetype {
	return s.archetypes
}

func (s *Store) ArchetypeCount() int {
	return len(s.archetypes)
}

// ShapeVersion changes every time an archetype is created. Schedules built against an older version
// do not know about the new archetype.
func (s *Store) ShapeVersion() uint64 {
	return s.shapeVersion
}

func (s *Store) Index() *Index {
	return s.index
}

// Match runs filters against the index.
func (s *Store) Match(filters []filter.Filter) []Match {
	return s.index.Match(filters)
}

func (s *Store) Entities() *entity.Table {
	return s.entities
}

func (s *Store) Location(e types.Entity) (types.Location, bool) {
	return s.entities.Location(e)
}

// Len is the number of live entities, not counting pending reservations.
func (s *Store) Len() int {
	return s.entities.Live()
}

// Reserve allocates an entity handle that becomes a component-less entity at the next structural
// operation. It is safe to call while systems are running.
func (s *Store) Reserve() types.Entity {
	return s.entities.Reserve()
}

// MaterializeReserved moves every pending reservation into the empty archetype.
func (s *Store) MaterializeReserved() []types.Entity {
	empty := s.archetypes[types.EmptyArchetype]
	placed := s.entities.MaterializeReserved(empty.Len())
	empty.entities = append(empty.entities, placed...)
	return placed
}

// bundle sorts values by component id, keeping the last value of each duplicated type.
func bundle(values []component.Value) []component.Value {
	out := slices.Clone(values)
	slices.SortStableFunc(out, func(a, b component.Value) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	deduped := out[:0]
	for i, v := range out {
		if i+1 < len(out) && out[i+1].ID() == v.ID() {
			continue
		}
		deduped = append(deduped, v)
	}
	return deduped
}

func idsOf(values []component.Value) []component.ID {
	out := make([]component.ID, len(values))
	for i, v := range values {
		out[i] = v.ID()
	}
	return out
}

// Spawn creates an entity holding values. Passing the same type twice keeps the last value.
func (s *Store) Spawn(values ...component.Value) types.Entity {
	s.MaterializeReserved()
	values = bundle(values)
	idx := s.FindOrCreate(idsOf(values), func(i int) component.Channel { return values[i].NewChannel() })
	arch := s.archetypes[idx]
	e := s.entities.Alloc(types.Location{Archetype: idx, Row: arch.Len()})
	arch.entities = append(arch.entities, e)
	for i, v := range values {
		v.Push(arch.channels[i])
	}
	return e
}

// Despawn removes e and all its components.
func (s *Store) Despawn(e types.Entity) error {
	s.MaterializeReserved()
	loc, err := s.entities.Free(e)
	if err != nil {
		return err
	}
	arch := s.archetypes[loc.Archetype]
	arch.checkRow(loc.Row)
	for _, ch := range arch.channels {
		ch.SwapRemove(loc.Row)
	}
	if moved, ok := arch.removeEntity(loc.Row); ok {
		s.entities.SetRow(moved, loc.Row)
	}
	return nil
}

func (s *Store) locate(e types.Entity) (types.Location, error) {
	loc, ok := s.entities.Location(e)
	if !ok {
		return types.Location{}, eris.Wrapf(types.ErrEntityMissing, "%s", e)
	}
	return loc, nil
}

// Add attaches value to e. When e already has a value of that type it is replaced in place.
func (s *Store) Add(e types.Entity, value component.Value) error {
	return s.AddComponents(e, value)
}

// AddComponents attaches every value to e with at most one archetype move.
func (s *Store) AddComponents(e types.Entity, values ...component.Value) error {
	s.MaterializeReserved()
	loc, err := s.locate(e)
	if err != nil {
		return err
	}
	src := s.archetypes[loc.Archetype]

	var added []component.Value
	for _, v := range bundle(values) {
		if ci, ok := src.ChannelIndex(v.ID()); ok {
			v.Set(src.channels[ci], loc.Row)
			continue
		}
		added = append(added, v)
	}
	if len(added) == 0 {
		return nil
	}

	newIDs := slices.Clone(src.ids)
	for _, v := range added {
		newIDs = append(newIDs, v.ID())
	}
	slices.Sort(newIDs)
	dstIdx := s.FindOrCreate(newIDs, func(i int) component.Channel {
		if ci, ok := src.ChannelIndex(newIDs[i]); ok {
			return src.channels[ci].New()
		}
		for _, v := range added {
			if v.ID() == newIDs[i] {
				return v.NewChannel()
			}
		}
		panic("unreachable")
	})
	dst := s.archetypes[dstIdx]
	s.migrate(e, loc, dst)
	for _, v := range added {
		ci, _ := dst.ChannelIndex(v.ID())
		v.Push(dst.channels[ci])
	}
	return nil
}

// removeFrom moves e to the archetype without id. read is called with the channel and row of the
// removed value before it is dropped.
func (s *Store) removeFrom(e types.Entity, id component.ID, read func(ch component.Channel, row int)) error {
	s.MaterializeReserved()
	loc, err := s.locate(e)
	if err != nil {
		return err
	}
	src := s.archetypes[loc.Archetype]
	ci, ok := src.ChannelIndex(id)
	if !ok {
		return eris.Wrapf(types.ErrNoMatchingComponent, "%s has no %s", e, component.Name(id))
	}
	if read != nil {
		read(src.channels[ci], loc.Row)
	}
	newIDs := slices.Delete(slices.Clone(src.ids), ci, ci+1)
	dstIdx := s.FindOrCreate(newIDs, func(i int) component.Channel {
		j, _ := src.ChannelIndex(newIDs[i])
		return src.channels[j].New()
	})
	s.migrate(e, loc, s.archetypes[dstIdx])
	return nil
}

// RemoveID drops the component id from e without returning its value.
func (s *Store) RemoveID(e types.Entity, id component.ID) error {
	return s.removeFrom(e, id, nil)
}

// migrate moves e from its archetype to dst. Channels both archetypes have move one value, channels
// only the source has lose the value, and channels only dst has must be pushed to by the caller.
func (s *Store) migrate(e types.Entity, loc types.Location, dst *Archetype) {
	src := s.archetypes[loc.Archetype]
	src.checkRow(loc.Row)
	i, j := 0, 0
	for i < len(src.ids) {
		switch {
		case j < len(dst.ids) && src.ids[i] == dst.ids[j]:
			src.channels[i].MoveTo(loc.Row, dst.channels[j])
			i++
			j++
		case j < len(dst.ids) && dst.ids[j] < src.ids[i]:
			j++
		default:
			src.channels[i].SwapRemove(loc.Row)
			i++
		}
	}
	row := dst.Len()
	dst.entities = append(dst.entities, e)
	if moved, ok := src.removeEntity(loc.Row); ok {
		s.entities.SetRow(moved, loc.Row)
	}
	s.entities.SetLocation(e, types.Location{Archetype: dst.index, Row: row})
}

// Has reports whether e is alive and holds id.
func (s *Store) Has(e types.Entity, id component.ID) bool {
	loc, ok := s.entities.Location(e)
	if !ok {
		return false
	}
	_, ok = s.archetypes[loc.Archetype].ChannelIndex(id)
	return ok
}

// Components lists the component ids of e.
func (s *Store) Components(e types.Entity) ([]component.ID, error) {
	loc, err := s.locate(e)
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.archetypes[loc.Archetype].ids), nil
}

// Values returns every component value of e, ordered like Components.
func (s *Store) Values(e types.Entity) ([]any, error) {
	loc, err := s.locate(e)
	if err != nil {
		return nil, err
	}
	arch := s.archetypes[loc.Archetype]
	out := make([]any, len(arch.channels))
	for i, ch := range arch.channels {
		out[i] = ch.Value(loc.Row)
	}
	return out, nil
}
