package entity_test

import (
	"sync"
	"testing"

	"pkg.world.dev/world-engine/strata/assert"
	"pkg.world.dev/world-engine/strata/entity"
	"pkg.world.dev/world-engine/strata/types"
)

func TestAllocAndFree(t *testing.T) {
	table := entity.NewTable()
	a := table.Alloc(types.Location{Row: 0})
	b := table.Alloc(types.Location{Row: 1})
	assert.Equal(t, a, types.Entity{Index: 0})
	assert.Equal(t, b, types.Entity{Index: 1})
	assert.Equal(t, table.Live(), 2)

	loc, err := table.Free(a)
	assert.NilError(t, err)
	assert.Equal(t, loc, types.Location{Row: 0})
	assert.False(t, table.Contains(a))

	_, err = table.Free(a)
	assert.ErrorIs(t, err, types.ErrEntityMissing)

	c := table.Alloc(types.Location{Row: 5})
	assert.Equal(t, c.Index, a.Index)
	assert.Equal(t, c.Generation, a.Generation+1)
	got, ok := table.Location(c)
	assert.True(t, ok)
	assert.Equal(t, got.Row, 5)
	assert.Equal(t, table.Len(), 2)
}

func TestGenerationIncreasesOnEveryReuse(t *testing.T) {
	table := entity.NewTable()
	e := table.Alloc(types.Location{})
	for range 10 {
		_, err := table.Free(e)
		assert.NilError(t, err)
		next := table.Alloc(types.Location{})
		assert.Equal(t, next.Index, e.Index)
		assert.Greater(t, next.Generation, e.Generation)
		e = next
	}
}

func TestReserveMixesFreeAndNewIndices(t *testing.T) {
	table := entity.NewTable()
	var live []types.Entity
	for i := range 4 {
		live = append(live, table.Alloc(types.Location{Row: i}))
	}
	_, err := table.Free(live[1])
	assert.NilError(t, err)
	_, err = table.Free(live[3])
	assert.NilError(t, err)

	r0 := table.Reserve()
	r1 := table.Reserve()
	r2 := table.Reserve()
	assert.Equal(t, table.Pending(), 3)

	// reserved entities are not resolvable until materialized
	assert.False(t, table.Contains(r0))

	assert.Equal(t, r0, types.Entity{Index: 3, Generation: 1})
	assert.Equal(t, r1, types.Entity{Index: 1, Generation: 1})
	assert.Equal(t, r2, types.Entity{Index: 4})

	placed := table.MaterializeReserved(7)
	assert.DeepEqual(t, placed, []types.Entity{r0, r1, r2})
	for i, e := range placed {
		loc, ok := table.Location(e)
		assert.True(t, ok)
		assert.Equal(t, loc, types.Location{Archetype: types.EmptyArchetype, Row: 7 + i})
	}
	assert.Equal(t, table.Pending(), 0)
	assert.Equal(t, table.Live(), 5)

	// the counter is back in sync with the free list
	next := table.Alloc(types.Location{})
	assert.Equal(t, next.Index, uint32(5))
}

func TestReserveIsSafeForConcurrentUse(t *testing.T) {
	table := entity.NewTable()
	for range 50 {
		e := table.Alloc(types.Location{})
		_, err := table.Free(e)
		assert.NilError(t, err)
		table.Alloc(types.Location{})
	}

	const workers, perWorker = 8, 100
	var mu sync.Mutex
	seen := map[uint32]bool{}
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				e := table.Reserve()
				mu.Lock()
				seen[e.Index] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	assert.Len(t, table.MaterializeReserved(0), workers*perWorker)
}

func TestMigrator(t *testing.T) {
	m := entity.NewMigrator(1)
	from := types.Entity{Index: 3, Generation: 2}
	to := types.Entity{Index: 9}
	m.Set(from, to)

	assert.Equal(t, m.Migrate(from), to)
	assert.Equal(t, m.Migrate(types.Entity{Index: 3}), types.NullEntity)
	_, ok := m.Lookup(types.NullEntity)
	assert.False(t, ok)
	assert.Equal(t, m.Len(), 1)
}
