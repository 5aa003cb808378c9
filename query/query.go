// Package query matches archetypes against a list of terms and hands out locked, typed views over
// the matched component channels.
package query

import (
	"pkg.world.dev/world-engine/strata/filter"
	"pkg.world.dev/world-engine/strata/storage"
	"pkg.world.dev/world-engine/strata/types"
)

// Query is an immutable list of terms. Fetched terms double as accessors for the rows of a View
// produced by this query.
type Query struct {
	terms   []Term
	filters []filter.Filter
	// fetch holds the term index of every fetched slot.
	fetch  []int
	single bool
}

// New builds a query over terms. A fetched term can only belong to one query.
func New(terms ...Term) *Query {
	q := &Query{
		terms:   terms,
		filters: make([]filter.Filter, len(terms)),
	}
	for i, term := range terms {
		q.filters[i] = term.filter()
		if term.fetched() {
			term.bind(q, len(q.fetch))
			q.fetch = append(q.fetch, i)
		}
	}
	return q
}

// Single builds a query that fetches only the first entity it matches.
func Single(terms ...Term) *Query {
	q := New(terms...)
	q.single = true
	return q
}

func (q *Query) IsSingle() bool {
	return q.single
}

func (q *Query) Filters() []filter.Filter {
	return q.filters
}

// Access is one (archetype, channel) pair a query touches.
type Access struct {
	Archetype types.ArchetypeIndex
	Channel   int
	Mutable   bool
}

// Match is an archetype selected by a query. Channels has one entry per fetched slot, -1 for an
// optional component the archetype lacks.
type Match struct {
	Archetype types.ArchetypeIndex
	Channels  []int
}

// MetaData describes what a query reads and writes in a given shape of the store.
type MetaData struct {
	Matches []Match
	mutable []bool
	shape   uint64
}

// ShapeVersion is the store shape the metadata was computed against.
func (md MetaData) ShapeVersion() uint64 {
	return md.shape
}

// Accesses lists every channel the query may lock, deduplicated, with ascending archetypes.
func (md MetaData) Accesses() []Access {
	var out []Access
	for _, m := range md.Matches {
		start := len(out)
	slots:
		for slot, ch := range m.Channels {
			if ch < 0 {
				continue
			}
			for i := start; i < len(out); i++ {
				if out[i].Channel == ch {
					out[i].Mutable = out[i].Mutable || md.mutable[slot]
					continue slots
				}
			}
			out = append(out, Access{Archetype: m.Archetype, Channel: ch, Mutable: md.mutable[slot]})
		}
	}
	return out
}

// MetaData matches q against the current archetypes of s.
func (q *Query) MetaData(s *storage.Store) MetaData {
	md := MetaData{
		mutable: make([]bool, len(q.fetch)),
		shape:   s.ShapeVersion(),
	}
	for slot, ti := range q.fetch {
		md.mutable[slot] = q.terms[ti].mutable()
	}
	for _, m := range s.Match(q.filters) {
		channels := make([]int, len(q.fetch))
		for slot, ti := range q.fetch {
			channels[slot] = m.Channels[ti]
		}
		md.Matches = append(md.Matches, Match{Archetype: m.Archetype, Channels: channels})
	}
	return md
}

// Get computes fresh metadata and fetches it.
func (q *Query) Get(s *storage.Store) (*View, error) {
	return q.Fetch(s, q.MetaData(s))
}
