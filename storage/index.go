package storage

import (
	"github.com/RoaringBitmap/roaring/v2"

	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/filter"
	"pkg.world.dev/world-engine/strata/types"
)

// Index answers "which archetypes hold component X, and at which channel". Each component has a
// posting list of archetype indices.
type Index struct {
	all         *roaring.Bitmap
	byComponent map[component.ID]*roaring.Bitmap
	channels    []map[component.ID]int
}

func NewIndex() *Index {
	return &Index{
		all:         roaring.New(),
		byComponent: make(map[component.ID]*roaring.Bitmap),
	}
}

// Register records a new archetype. Archetypes must be registered in index order.
func (x *Index) Register(arch types.ArchetypeIndex, ids []component.ID) {
	x.all.Add(uint32(arch))
	lookup := make(map[component.ID]int, len(ids))
	for i, id := range ids {
		lookup[id] = i
		bm, ok := x.byComponent[id]
		if !ok {
			bm = roaring.New()
			x.byComponent[id] = bm
		}
		bm.Add(uint32(arch))
	}
	x.channels = append(x.channels, lookup)
}

// Archetypes returns a copy of the posting list of id.
func (x *Index) Archetypes(id component.ID) *roaring.Bitmap {
	if bm, ok := x.byComponent[id]; ok {
		return bm.Clone()
	}
	return roaring.New()
}

// ChannelOf returns the channel position of id inside arch.
func (x *Index) ChannelOf(arch types.ArchetypeIndex, id component.ID) (int, bool) {
	if int(arch) >= len(x.channels) {
		return 0, false
	}
	ch, ok := x.channels[arch][id]
	return ch, ok
}

func (x *Index) Len() int {
	return len(x.channels)
}

// Match is an archetype selected by a set of filters. Channels has one entry per filter, the
// position of the filtered component inside the archetype, or -1 when the archetype lacks it.
type Match struct {
	Archetype types.ArchetypeIndex
	Channels  []int
}

// Match returns every archetype satisfying filters, in ascending archetype order. Without any With
// filter every archetype is a candidate.
func (x *Index) Match(filters []filter.Filter) []Match {
	var with []*roaring.Bitmap
	for _, f := range filters {
		if f.Kind != filter.KindWith {
			continue
		}
		bm, ok := x.byComponent[f.Component]
		if !ok {
			return nil
		}
		with = append(with, bm)
	}

	var candidates *roaring.Bitmap
	switch len(with) {
	case 0:
		candidates = x.all.Clone()
	case 1:
		candidates = with[0].Clone()
	default:
		candidates = roaring.FastAnd(with...)
	}
	for _, f := range filters {
		if f.Kind != filter.KindWithout {
			continue
		}
		if bm, ok := x.byComponent[f.Component]; ok {
			candidates.AndNot(bm)
		}
	}

	out := make([]Match, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		arch := types.ArchetypeIndex(it.Next())
		m := Match{Archetype: arch, Channels: make([]int, len(filters))}
		for i, f := range filters {
			ch, ok := x.channels[arch][f.Component]
			if !ok || f.Kind == filter.KindWithout {
				ch = -1
			}
			m.Channels[i] = ch
		}
		out = append(out, m)
	}
	return out
}
