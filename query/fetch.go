package query

import (
	"iter"
	"sort"

	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/storage"
	"pkg.world.dev/world-engine/strata/types"
)

type lock struct {
	ch      component.Channel
	mutable bool
}

func (l lock) release() {
	if l.mutable {
		l.ch.Unlock()
	} else {
		l.ch.RUnlock()
	}
}

type segment struct {
	q         *Query
	archetype types.ArchetypeIndex
	entities  []types.Entity
	values    []any
}

// Fetch locks every channel named by md and returns a view over them. Locks are only tried, never
// waited on: if any channel is held in a conflicting mode the locks taken so far are released and
// ErrChannelExclusivelyLocked is returned. A single query locks only the first non-empty archetype
// and fails with ErrNoMatchingComponent when every matched archetype is empty.
func (q *Query) Fetch(s *storage.Store, md MetaData) (*View, error) {
	v := &View{q: q, store: s}
	matches := md.Matches
	if q.single {
		matches = nil
		for _, m := range md.Matches {
			if s.Archetype(m.Archetype).Len() > 0 {
				matches = []Match{m}
				break
			}
		}
		if matches == nil {
			return nil, eris.Wrap(types.ErrNoMatchingComponent, "single query matched no entity")
		}
	}

	for _, m := range matches {
		arch := s.Archetype(m.Archetype)
		seg := segment{
			q:         q,
			archetype: m.Archetype,
			entities:  arch.Entities(),
			values:    make([]any, len(m.Channels)),
		}
		for slot, ci := range m.Channels {
			if ci < 0 {
				continue
			}
			ch := arch.Channel(ci)
			l := lock{ch: ch, mutable: md.mutable[slot]}
			var ok bool
			if l.mutable {
				ok = ch.TryLock()
			} else {
				ok = ch.TryRLock()
			}
			if !ok {
				v.Release()
				return nil, eris.Wrapf(types.ErrChannelExclusivelyLocked,
					"%s in archetype %d", component.Name(ch.ID()), m.Archetype)
			}
			v.locks = append(v.locks, l)
			seg.values[slot] = q.terms[q.fetch[slot]].values(ch)
		}
		if len(seg.entities) > 0 {
			v.segments = append(v.segments, seg)
			v.len += len(seg.entities)
		}
	}
	return v, nil
}

// Row is one entity of a View. Accessor terms of the view's query read their value through it.
type Row struct {
	seg *segment
	idx int
}

func (r Row) Entity() types.Entity {
	return r.seg.entities[r.idx]
}

// View is the locked result of a fetch. It must be released once the caller is done with it.
type View struct {
	q        *Query
	store    *storage.Store
	segments []segment
	locks    []lock
	len      int
}

// Len is the number of rows in the view.
func (v *View) Len() int {
	if v.q.single && v.len > 0 {
		return 1
	}
	return v.len
}

// Rows yields every row, archetype by archetype. The sequence can be ranged over any number of times.
func (v *View) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for i := range v.segments {
			seg := &v.segments[i]
			n := len(seg.entities)
			if v.q.single {
				n = min(n, 1)
			}
			for idx := range n {
				if !yield(Row{seg: seg, idx: idx}) {
					return
				}
			}
		}
	}
}

// Entities yields the entity of every row.
func (v *View) Entities() iter.Seq[types.Entity] {
	return func(yield func(types.Entity) bool) {
		for row := range v.Rows() {
			if !yield(row.Entity()) {
				return
			}
		}
	}
}

// Get looks up the row of e, if e is matched by the view.
func (v *View) Get(e types.Entity) (Row, bool) {
	loc, ok := v.store.Location(e)
	if !ok {
		return Row{}, false
	}
	i := sort.Search(len(v.segments), func(i int) bool {
		return v.segments[i].archetype >= loc.Archetype
	})
	if i == len(v.segments) || v.segments[i].archetype != loc.Archetype {
		return Row{}, false
	}
	if v.q.single && loc.Row != 0 {
		return Row{}, false
	}
	return Row{seg: &v.segments[i], idx: loc.Row}, true
}

// Single returns the first row of the view.
func (v *View) Single() (Row, error) {
	for row := range v.Rows() {
		return row, nil
	}
	return Row{}, eris.Wrap(types.ErrNoMatchingComponent, "view is empty")
}

// Release unlocks every channel held by the view. Calling it again is a no-op.
func (v *View) Release() {
	for i := len(v.locks) - 1; i >= 0; i-- {
		v.locks[i].release()
	}
	v.locks = nil
}
