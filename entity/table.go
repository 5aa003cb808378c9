// Package entity keeps the generation and location of every entity index a world has handed out.
package entity

import (
	"sync/atomic"

	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/strata/types"
)

type slot struct {
	generation uint32
	alive      bool
	loc        types.Location
}

// Table maps entity indices to their current generation and location.
//
// Reserve may be called concurrently with itself and with the read methods. Every other method must
// only be called by the goroutine holding structural access to the world, and only after pending
// reservations have been materialized.
type Table struct {
	slots []slot
	free  []uint32
	live  int

	// available counts the free list entries not yet claimed by Reserve. It goes negative once
	// reservations start handing out brand new indices past the end of slots.
	available atomic.Int64
}

func NewTable() *Table {
	return &Table{}
}

// Reserve hands out an entity handle without touching the slot table. The entity has no location
// until MaterializeReserved runs.
func (t *Table) Reserve() types.Entity {
	n := t.available.Add(-1)
	if n >= 0 {
		idx := t.free[n]
		return types.Entity{Index: idx, Generation: t.slots[idx].generation}
	}
	return types.Entity{Index: uint32(int64(len(t.slots)) - n - 1)}
}

// Pending is the number of reserved entities waiting to be materialized.
func (t *Table) Pending() int {
	n := t.available.Load()
	if n >= 0 {
		return len(t.free) - int(n)
	}
	return len(t.free) + int(-n)
}

// MaterializeReserved gives every pending reservation a location in the empty archetype, at rows
// firstRow, firstRow+1, ... in reservation order. The returned entities must be appended to the empty
// archetype's entity column in the same order.
func (t *Table) MaterializeReserved(firstRow int) []types.Entity {
	pending := t.Pending()
	if pending == 0 {
		return nil
	}
	out := make([]types.Entity, 0, pending)
	n := int(t.available.Load())
	keep := max(n, 0)
	for i := len(t.free) - 1; i >= keep; i-- {
		idx := t.free[i]
		out = append(out, t.place(idx, types.Location{Archetype: types.EmptyArchetype, Row: firstRow + len(out)}))
	}
	t.free = t.free[:keep]
	for range max(-n, 0) {
		t.slots = append(t.slots, slot{})
		idx := uint32(len(t.slots) - 1)
		out = append(out, t.place(idx, types.Location{Archetype: types.EmptyArchetype, Row: firstRow + len(out)}))
	}
	t.available.Store(int64(len(t.free)))
	return out
}

// Alloc allocates an entity directly at loc, reusing a freed index when one is available.
func (t *Table) Alloc(loc types.Location) types.Entity {
	var idx uint32
	if len(t.free) > 0 {
		idx = t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
	} else {
		t.slots = append(t.slots, slot{})
		idx = uint32(len(t.slots) - 1)
	}
	t.available.Store(int64(len(t.free)))
	return t.place(idx, loc)
}

func (t *Table) place(idx uint32, loc types.Location) types.Entity {
	s := &t.slots[idx]
	s.alive = true
	s.loc = loc
	t.live++
	return types.Entity{Index: idx, Generation: s.generation}
}

// Free invalidates e and returns the location it occupied. The index goes back on the free list with
// a bumped generation so e never resolves again.
func (t *Table) Free(e types.Entity) (types.Location, error) {
	loc, ok := t.Location(e)
	if !ok {
		return types.Location{}, eris.Wrapf(types.ErrEntityMissing, "free %s", e)
	}
	s := &t.slots[e.Index]
	s.alive = false
	s.generation++
	s.loc = types.Location{}
	t.live--
	t.free = append(t.free, e.Index)
	t.available.Store(int64(len(t.free)))
	return loc, nil
}

// Location resolves e. Despawned, stale and not yet materialized entities have no location.
func (t *Table) Location(e types.Entity) (types.Location, bool) {
	if int(e.Index) >= len(t.slots) {
		return types.Location{}, false
	}
	s := t.slots[e.Index]
	if !s.alive || s.generation != e.Generation {
		return types.Location{}, false
	}
	return s.loc, true
}

func (t *Table) Contains(e types.Entity) bool {
	_, ok := t.Location(e)
	return ok
}

// SetLocation updates the location of a live entity without validating its generation.
func (t *Table) SetLocation(e types.Entity, loc types.Location) {
	t.slots[e.Index].loc = loc
}

// SetRow moves a live entity to another row of the same archetype.
func (t *Table) SetRow(e types.Entity, row int) {
	t.slots[e.Index].loc.Row = row
}

// Len is the number of slots ever allocated, live or not.
func (t *Table) Len() int {
	return len(t.slots)
}

// Live is the number of entities that currently have a location.
func (t *Table) Live() int {
	return t.live
}
