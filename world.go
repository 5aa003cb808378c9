// Package strata is an archetype based entity component store with a scheduler that runs systems in
// parallel whenever their component accesses do not conflict.
package strata

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/entity"
	"pkg.world.dev/world-engine/strata/log"
	"pkg.world.dev/world-engine/strata/query"
	"pkg.world.dev/world-engine/strata/scheduler"
	"pkg.world.dev/world-engine/strata/statsd"
	"pkg.world.dev/world-engine/strata/storage"
	"pkg.world.dev/world-engine/strata/types"
)

// World owns the entity store and the registered systems.
//
// Structural methods (Spawn, Despawn, AddComponent, RemoveComponent, CloneWorld, AddWorld) must not be
// called while a tick is running, except from inside an exclusive system.
type World struct {
	cfg      WorldConfig
	store    *storage.Store
	logger   *zerolog.Logger
	executor *scheduler.Executor

	systems []*System
	names   map[string]struct{}

	plan      *scheduler.Plan
	metas     [][]query.MetaData
	planShape uint64

	tick uint64
}

// NewWorld creates an empty world configured from the environment and opts.
func NewWorld(opts ...WorldOption) (*World, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	w := newWorld(cfg)
	for _, opt := range opts {
		opt(w)
	}
	if err := w.cfg.Validate(); err != nil {
		return nil, err
	}
	if w.logger == nil {
		if w.cfg.PrettyLog {
			w.logger = prettyLogger(w.cfg.level())
		} else {
			logger := zerologger.Logger.Level(w.cfg.level())
			w.logger = &logger
		}
	}
	if w.cfg.StatsdAddress != "" {
		if err := statsd.Init(w.cfg.StatsdAddress, w.cfg.StatsdTags); err != nil {
			return nil, err
		}
	}
	w.executor = scheduler.NewExecutor(w.cfg.Workers)
	return w, nil
}

func newWorld(cfg WorldConfig) *World {
	return &World{
		cfg:   cfg,
		store: storage.New(),
		names: make(map[string]struct{}),
	}
}

func (w *World) Logger() *zerolog.Logger {
	return w.logger
}

func (w *World) systemLogger(name string) *zerolog.Logger {
	return log.CreateSystemLogger(w.logger, name)
}

// Store exposes the underlying storage for packages building on top of the world.
func (w *World) Store() *storage.Store {
	return w.store
}

func (w *World) CurrentTick() uint64 {
	return w.tick
}

// Len is the number of live entities.
func (w *World) Len() int {
	return w.store.Len()
}

// RegisteredSystems lists system names in registration order.
func (w *World) RegisteredSystems() []string {
	out := make([]string, len(w.systems))
	for i, s := range w.systems {
		out[i] = s.name
	}
	return out
}

// RegisterSystems adds systems to the end of the schedule. If any system name is already taken none
// of the systems are registered.
func RegisterSystems(w *World, systems ...*System) error {
	seen := make(map[string]struct{}, len(systems))
	for _, s := range systems {
		if _, ok := w.names[s.name]; ok {
			return eris.Wrapf(types.ErrDuplicateSystemName, "system %q is already registered", s.name)
		}
		if _, ok := seen[s.name]; ok {
			return eris.Wrapf(types.ErrDuplicateSystemName, "duplicate system %q in slice", s.name)
		}
		seen[s.name] = struct{}{}
	}
	for _, s := range systems {
		w.names[s.name] = struct{}{}
		w.systems = append(w.systems, s)
	}
	w.plan = nil
	return nil
}

// Plan returns the schedule the next tick will use.
func (w *World) Plan() *scheduler.Plan {
	return w.schedule()
}

func (w *World) schedule() *scheduler.Plan {
	if w.cfg.PlanCache && w.plan != nil && w.planShape == w.store.ShapeVersion() {
		return w.plan
	}
	specs := make([]scheduler.Spec, len(w.systems))
	w.metas = make([][]query.MetaData, len(w.systems))
	for i, s := range w.systems {
		specs[i] = scheduler.Spec{Name: s.name, Exclusive: s.IsExclusive()}
		if s.IsExclusive() {
			continue
		}
		w.metas[i] = s.metaData(w)
		specs[i].Accesses = accessesOf(w.metas[i])
	}
	w.plan = scheduler.Build(specs)
	w.planShape = w.store.ShapeVersion()
	log.Plan(w.logger, w.plan, zerolog.DebugLevel)
	return w.plan
}

// Tick runs every registered system once. Non-exclusive systems run concurrently when their accesses
// allow it; the first error stops the tick once running systems have returned. Entities reserved during
// the tick are materialized before Tick returns.
func (w *World) Tick(ctx context.Context) error {
	span, ctx := tracer.StartSpanFromContext(ctx, "strata.span.tick", tracer.Measured())
	span.SetTag("tick", w.tick)
	start := time.Now()
	w.logger.Debug().Uint64("tick", w.tick).Msg("tick started")
	w.store.MaterializeReserved()

	plan := w.schedule()
	metas := w.metas
	err := w.executor.Execute(ctx, plan, func(ctx context.Context, i int) error {
		s := w.systems[i]
		systemSpan, ctx := tracer.StartSpanFromContext(ctx, "system.run."+s.name, tracer.Measured())
		systemSpan.SetTag("system", s.name)
		systemStart := time.Now()
		err := s.run(ctx, w, metas[i])
		statsd.EmitSystemStat(systemStart, s.name)
		if err != nil {
			err = eris.Wrapf(err, "system %s generated an error", s.name)
			systemSpan.Finish(tracer.WithError(err))
			return err
		}
		systemSpan.Finish()
		return nil
	})
	w.store.MaterializeReserved()
	statsd.EmitTickStat(start, "tick")
	if err != nil {
		span.Finish(tracer.WithError(err))
		w.logger.Error().Err(err).Uint64("tick", w.tick).Msg("tick failed")
		return err
	}
	span.Finish()
	w.logger.Debug().Uint64("tick", w.tick).Dur("duration", time.Since(start)).Msg("tick ended")
	w.tick++
	return nil
}

// Spawn creates an entity holding values.
func (w *World) Spawn(values ...component.Value) types.Entity {
	return w.store.Spawn(values...)
}

// Despawn removes e and its components.
func (w *World) Despawn(e types.Entity) error {
	return w.store.Despawn(e)
}

// ReserveEntity allocates an entity handle without structural access. It is safe to call from
// running systems; the entity appears without components at the next structural change.
func (w *World) ReserveEntity() types.Entity {
	return w.store.Reserve()
}

// AddComponent attaches value to e, replacing a value of the same type.
func (w *World) AddComponent(e types.Entity, value component.Value) error {
	return w.store.Add(e, value)
}

// AddComponents attaches every value to e.
func (w *World) AddComponents(e types.Entity, values ...component.Value) error {
	return w.store.AddComponents(e, values...)
}

// RemoveComponent detaches T from e and returns it.
func RemoveComponent[T any](w *World, e types.Entity) (T, error) {
	return storage.Remove[T](w.store, e)
}

// RemoveComponents detaches every component in ids from e without reading the values. It stops at the
// first id e does not hold.
func (w *World) RemoveComponents(e types.Entity, ids ...component.ID) error {
	for _, id := range ids {
		if err := w.store.RemoveID(e, id); err != nil {
			return err
		}
	}
	return nil
}

// GetComponent returns a pointer to the T of e, valid until the next structural change.
func GetComponent[T any](w *World, e types.Entity) (*T, error) {
	return storage.Get[T](w.store, e)
}

// Singleton returns the T of the first entity holding one.
func Singleton[T any](w *World) (*T, error) {
	return storage.Singleton[T](w.store)
}

// Query fetches q against the world. The caller must release the view.
func (w *World) Query(q *query.Query) (*query.View, error) {
	return q.Get(w.store)
}

// LogEntity writes the components of e to the world logger.
func (w *World) LogEntity(level zerolog.Level, e types.Entity) {
	log.Entity(w.logger, level, w.store, e)
}

// CloneWorld returns a world holding a deep copy of every entity. Systems are not copied. Entities get
// new handles in the clone; the returned migrator maps the entities of w to them.
func (w *World) CloneWorld() (*World, *entity.Migrator) {
	clone := newWorld(w.cfg)
	clone.logger = w.logger
	clone.executor = w.executor
	var m *entity.Migrator
	clone.store, m = w.store.Clone()
	return clone, m
}

// AddWorld copies every entity of other into w. The returned migrator maps the entities of other to
// their copies.
func (w *World) AddWorld(other *World) *entity.Migrator {
	return w.store.Merge(other.store)
}
