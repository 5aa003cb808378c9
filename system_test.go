package strata_test

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/strata"
	"pkg.world.dev/world-engine/strata/assert"
	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/query"
	"pkg.world.dev/world-engine/strata/types"
)

func noop(*strata.SystemContext) error { return nil }

func TestSystemNameDefaultsToFunction(t *testing.T) {
	s := strata.NewSystem(noop)
	assert.Equal(t, s.Name(), "strata_test.noop")
	assert.Contains(t, s.CallSite(), "system_test.go:")
	assert.Equal(t, s.Named("other").Name(), "other")
	assert.False(t, s.IsExclusive())
}

func TestRegisterSystemsRejectsDuplicates(t *testing.T) {
	w := newWorld(t)
	err := strata.RegisterSystems(w, strata.NewSystem(noop), strata.NewSystem(noop))
	assert.ErrorIs(t, err, types.ErrDuplicateSystemName)
	assert.Len(t, w.RegisteredSystems(), 0)

	assert.NilError(t, strata.RegisterSystems(w, strata.NewSystem(noop)))
	err = strata.RegisterSystems(w, strata.NewSystem(noop).Named("fresh"), strata.NewSystem(noop))
	assert.ErrorIs(t, err, types.ErrDuplicateSystemName)
	assert.DeepEqual(t, w.RegisteredSystems(), []string{"strata_test.noop"})
}

func TestTryRunReportsConflictingQueries(t *testing.T) {
	w := newWorld(t)
	w.Spawn(component.New(Position{}), component.New(Velocity{}))

	writer := query.New(query.Write[Position](), query.With[Velocity]())
	reader := query.New(query.Read[Position]())
	s := strata.NewSystem(func(*strata.SystemContext) error { return nil }, writer, reader)

	err := s.TryRun(context.Background(), w)
	assert.ErrorIs(t, err, types.ErrChannelExclusivelyLocked)
	assert.Panics(t, func() { s.Run(context.Background(), w) })

	// the failed run released what it had locked
	v, err := w.Query(query.New(query.Write[Position]()))
	assert.NilError(t, err)
	v.Release()
}

func TestDisjointQueriesInOneSystem(t *testing.T) {
	w := newWorld(t)
	w.Spawn(component.New(Position{}), component.New(Velocity{}))
	w.Spawn(component.New(Position{}))

	with := query.New(query.Write[Position](), query.With[Velocity]())
	without := query.New(query.Write[Position](), query.Without[Velocity]())
	s := strata.NewSystem(func(ctx *strata.SystemContext) error {
		if ctx.View(with).Len() != 1 || ctx.View(without).Len() != 1 {
			return eris.New("unexpected view sizes")
		}
		return nil
	}, with, without)
	assert.NilError(t, s.TryRun(context.Background(), w))
}

func TestUndeclaredQueryPanics(t *testing.T) {
	w := newWorld(t)
	s := strata.NewSystem(func(ctx *strata.SystemContext) error {
		ctx.View(query.New())
		return nil
	})
	assert.Panics(t, func() { _ = s.TryRun(context.Background(), w) })
}

func TestExclusiveSystemChangesStructure(t *testing.T) {
	w := newWorld(t, strata.WithWorkers(4))
	w.Spawn(component.New(Position{}))

	var running, overlapped atomic.Int32
	track := func() func() {
		if running.Add(1) > 1 {
			overlapped.Add(1)
		}
		return func() { running.Add(-1) }
	}

	var before, after int
	beforeQ := query.New(query.Read[Position]())
	afterQ := query.New(query.Read[Velocity]())
	register := []*strata.System{
		strata.NewSystem(func(ctx *strata.SystemContext) error {
			before = ctx.View(beforeQ).Len()
			return nil
		}, beforeQ).Named("before"),
		strata.NewExclusiveSystem(func(w *strata.World) error {
			defer track()()
			e := w.Spawn(component.New(Position{}))
			return w.AddComponent(e, component.New(Velocity{DX: 1}))
		}).Named("spawner"),
		strata.NewSystem(func(ctx *strata.SystemContext) error {
			defer track()()
			after = ctx.View(afterQ).Len()
			return nil
		}, afterQ).Named("after"),
	}
	assert.NilError(t, strata.RegisterSystems(w, register...))
	assert.DeepEqual(t, w.Plan().Waves(), [][]int{{0}, {1}, {2}})

	assert.NilError(t, w.Tick(context.Background()))
	assert.Equal(t, before, 1)
	// the plan was built before the velocity archetype existed
	assert.Equal(t, after, 0)
	assert.Equal(t, w.Len(), 2)

	assert.NilError(t, w.Tick(context.Background()))
	assert.Equal(t, after, 2)
	assert.Equal(t, overlapped.Load(), int32(0))
}

func TestReservedEntitiesAppearAfterTick(t *testing.T) {
	w := newWorld(t)
	var reserved types.Entity
	assert.NilError(t, strata.RegisterSystems(w, strata.NewSystem(func(ctx *strata.SystemContext) error {
		reserved = ctx.ReserveEntity()
		return nil
	}).Named("reserve")))

	assert.NilError(t, w.Tick(context.Background()))
	assert.Equal(t, w.Len(), 1)
	assert.NilError(t, w.AddComponent(reserved, component.New(Frozen{})))
	_, err := strata.GetComponent[Frozen](w, reserved)
	assert.NilError(t, err)
}

func TestTickStopsAtFirstError(t *testing.T) {
	w := newWorld(t)
	boom := eris.New("boom")
	ran := false
	assert.NilError(t, strata.RegisterSystems(w,
		strata.NewSystem(func(*strata.SystemContext) error { return boom }).Named("fails"),
		strata.NewExclusiveSystem(func(*strata.World) error {
			ran = true
			return nil
		}).Named("never"),
	))
	err := w.Tick(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "system fails generated an error")
	assert.False(t, ran)
	assert.Equal(t, w.CurrentTick(), uint64(0))
}

func TestPlanCache(t *testing.T) {
	w := newWorld(t, strata.WithPlanCache())
	w.Spawn(component.New(Position{}))
	q := query.New(query.Read[Position]())
	assert.NilError(t, strata.RegisterSystems(w, strata.NewSystem(noop, q)))

	first := w.Plan()
	assert.Same(t, w.Plan(), first)
	w.Spawn(component.New(Position{}))
	assert.Same(t, w.Plan(), first)

	w.Spawn(component.New(Position{}), component.New(Velocity{}))
	assert.NotSame(t, w.Plan(), first)

	uncached := newWorld(t)
	assert.NilError(t, strata.RegisterSystems(uncached, strata.NewSystem(noop)))
	assert.NotSame(t, uncached.Plan(), uncached.Plan())
}

func SystemLogMyName(ctx *strata.SystemContext) error {
	ctx.Logger().Log().Msg("wanted system name: SystemLogMyName")
	return nil
}

func TestSystemNamesAreInLogs(t *testing.T) {
	var buf bytes.Buffer
	w := newWorld(t, strata.WithLogger(zerolog.New(&buf)))
	assert.NilError(t, strata.RegisterSystems(w, strata.NewSystem(SystemLogMyName)))
	assert.NilError(t, w.Tick(context.Background()))

	found := false
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Count(line, "SystemLogMyName") == 2 {
			found = true
			break
		}
	}
	assert.Check(t, found, "unable to find log line naming the system twice")
}
