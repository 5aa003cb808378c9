package component_test

import (
	"testing"

	"pkg.world.dev/world-engine/strata/assert"
	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/entity"
	"pkg.world.dev/world-engine/strata/types"
)

type Health struct {
	Value int
}

func (Health) Name() string { return "health" }

type Position struct {
	X, Y float64
}

type Target struct {
	Entity types.Entity
}

func (t Target) Clone(m *entity.Migrator) Target {
	return Target{Entity: m.Migrate(t.Entity)}
}

func TestIDsAreStablePerType(t *testing.T) {
	a := component.IDOf[Health]()
	b := component.IDOf[Position]()
	assert.NotEqual(t, a, b)
	assert.Equal(t, component.IDOf[Health](), a)
	assert.Equal(t, component.Name(a), "health")
	assert.Equal(t, component.NameOf[Position](), "component_test.Position")
	assert.Equal(t, component.Name(component.ID(1<<30)), "unknown")
}

func TestColumnSwapRemove(t *testing.T) {
	col := component.NewColumn[Health]()
	for i := range 4 {
		col.Push(Health{Value: i})
	}
	col.SwapRemove(1)
	assert.DeepEqual(t, col.Slice(), []Health{{0}, {3}, {2}})
	col.SwapRemove(2)
	assert.DeepEqual(t, col.Slice(), []Health{{0}, {3}})
	assert.Panics(t, func() { col.SwapRemove(2) })
}

func TestColumnMoveTo(t *testing.T) {
	src := component.NewColumn[Health]()
	src.Push(Health{Value: 1})
	src.Push(Health{Value: 2})
	dst := src.New()

	src.MoveTo(0, dst)
	assert.Equal(t, src.Len(), 1)
	assert.Equal(t, dst.Len(), 1)
	assert.Equal(t, dst.Value(0), any(Health{Value: 1}))
	assert.Equal(t, src.Value(0), any(Health{Value: 2}))

	assert.Panics(t, func() { src.MoveTo(0, component.NewColumn[Position]()) })
}

func TestColumnCloneRewritesEntityLinks(t *testing.T) {
	from := types.Entity{Index: 1}
	to := types.Entity{Index: 7}
	m := entity.NewMigrator(1)
	m.Set(from, to)

	targets := component.NewColumn[Target]()
	targets.Push(Target{Entity: from})
	targets.Push(Target{Entity: types.Entity{Index: 2}})
	cloned := targets.Clone(m).(*component.Column[Target])
	assert.DeepEqual(t, cloned.Slice(), []Target{{Entity: to}, {Entity: types.NullEntity}})

	healths := component.NewColumn[Health]()
	healths.Push(Health{Value: 5})
	copied := healths.Clone(m).(*component.Column[Health])
	copied.At(0).Value = 9
	assert.Equal(t, healths.At(0).Value, 5)
}

// Linker is stored as an interface; only some implementations carry entity links.
type Linker interface {
	Linked() types.Entity
}

type linkTo struct{ to types.Entity }

func (l linkTo) Linked() types.Entity { return l.to }

func (l linkTo) Clone(m *entity.Migrator) Linker { return linkTo{to: m.Migrate(l.to)} }

type unlinked struct{ to types.Entity }

func (u unlinked) Linked() types.Entity { return u.to }

func TestColumnCloneOfInterfaceComponent(t *testing.T) {
	from := types.Entity{Index: 3}
	to := types.Entity{Index: 8}
	m := entity.NewMigrator(1)
	m.Set(from, to)

	col := component.NewColumn[Linker]()
	col.Push(linkTo{to: from})
	col.Push(unlinked{to: from})
	col.Push(nil)
	cloned := col.Clone(m).(*component.Column[Linker])

	assert.Equal(t, cloned.Len(), 3)
	assert.Equal(t, cloned.At(0).Linked(), to)
	assert.Equal(t, cloned.At(1).Linked(), from)
	assert.Nil(t, *cloned.At(2))
}

func TestColumnLocks(t *testing.T) {
	col := component.NewColumn[Health]()
	assert.True(t, col.TryRLock())
	assert.True(t, col.TryRLock())
	assert.False(t, col.TryLock())
	col.RUnlock()
	col.RUnlock()
	assert.True(t, col.TryLock())
	assert.False(t, col.TryRLock())
	col.Unlock()
}

func TestValue(t *testing.T) {
	v := component.New(Health{Value: 3})
	assert.Equal(t, v.ID(), component.IDOf[Health]())
	ch := v.NewChannel()
	v.Push(ch)
	component.New(Health{Value: 4}).Set(ch, 0)
	assert.Equal(t, ch.Value(0), any(Health{Value: 4}))
	assert.Equal(t, v.Any(), any(Health{Value: 3}))
	assert.Panics(t, func() { v.Push(component.NewColumn[Position]()) })
}
