package strata

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/strata/query"
	"pkg.world.dev/world-engine/strata/types"
)

// SystemFunc is the body of a system that reads and writes components through its declared queries.
type SystemFunc func(ctx *SystemContext) error

// ExclusiveFunc is the body of a system that gets the whole world to itself.
type ExclusiveFunc func(w *World) error

// System is a unit of work run once per tick.
type System struct {
	name      string
	fn        SystemFunc
	exclusive ExclusiveFunc
	queries   []*query.Query
	caller    string
}

func funcName(fn any) string {
	return filepath.Base(runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name())
}

func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// NewSystem declares a system that accesses the world only through queries. The system is named after
// fn; use Named to pick another name.
func NewSystem(fn SystemFunc, queries ...*query.Query) *System {
	return &System{
		name:    funcName(fn),
		fn:      fn,
		queries: queries,
		caller:  callSite(1),
	}
}

// NewExclusiveSystem declares a system that may change the structure of the world. Nothing else runs
// while it does.
func NewExclusiveSystem(fn ExclusiveFunc) *System {
	return &System{
		name:      funcName(fn),
		exclusive: fn,
		caller:    callSite(1),
	}
}

func (s *System) Named(name string) *System {
	s.name = name
	return s
}

func (s *System) Name() string {
	return s.name
}

func (s *System) IsExclusive() bool {
	return s.exclusive != nil
}

// CallSite is the file and line the system was declared at.
func (s *System) CallSite() string {
	return s.caller
}

func (s *System) metaData(w *World) []query.MetaData {
	metas := make([]query.MetaData, len(s.queries))
	for i, q := range s.queries {
		metas[i] = q.MetaData(w.store)
	}
	return metas
}

func accessesOf(metas []query.MetaData) []query.Access {
	type key struct {
		archetype types.ArchetypeIndex
		channel   int
	}
	var out []query.Access
	seen := map[key]int{}
	for _, md := range metas {
		for _, a := range md.Accesses() {
			k := key{archetype: a.Archetype, channel: a.Channel}
			if i, ok := seen[k]; ok {
				out[i].Mutable = out[i].Mutable || a.Mutable
				continue
			}
			seen[k] = len(out)
			out = append(out, a)
		}
	}
	return out
}

// Accesses lists the channels the system touches in the current shape of w.
func (s *System) Accesses(w *World) []query.Access {
	if s.IsExclusive() {
		return nil
	}
	return accessesOf(s.metaData(w))
}

// TryRun runs the system once outside of a tick.
func (s *System) TryRun(ctx context.Context, w *World) error {
	if s.IsExclusive() {
		return s.exclusive(w)
	}
	return s.run(ctx, w, s.metaData(w))
}

// Run is TryRun that panics on error, naming where the system was declared.
func (s *System) Run(ctx context.Context, w *World) {
	if err := s.TryRun(ctx, w); err != nil {
		panic(eris.Wrapf(err, "system %s declared at %s failed", s.name, s.caller))
	}
}

func (s *System) run(ctx context.Context, w *World, metas []query.MetaData) error {
	if s.IsExclusive() {
		return s.exclusive(w)
	}
	sctx := &SystemContext{
		ctx:    ctx,
		world:  w,
		logger: w.systemLogger(s.name),
		views:  make(map[*query.Query]*query.View, len(s.queries)),
	}
	defer sctx.release()
	for i, q := range s.queries {
		v, err := q.Fetch(w.store, metas[i])
		if err != nil {
			return err
		}
		sctx.views[q] = v
	}
	return s.fn(sctx)
}

// SystemContext is what a running system sees of the world.
type SystemContext struct {
	ctx    context.Context
	world  *World
	logger *zerolog.Logger
	views  map[*query.Query]*query.View
}

func (c *SystemContext) Context() context.Context {
	return c.ctx
}

// View returns the fetched view of q, which must be one of the queries the system was declared with.
func (c *SystemContext) View(q *query.Query) *query.View {
	v, ok := c.views[q]
	if !ok {
		panic("query was not declared by this system")
	}
	return v
}

func (c *SystemContext) Logger() *zerolog.Logger {
	return c.logger
}

// ReserveEntity allocates an entity that appears, without components, once the tick ends.
func (c *SystemContext) ReserveEntity() types.Entity {
	return c.world.ReserveEntity()
}

func (c *SystemContext) release() {
	for _, v := range c.views {
		v.Release()
	}
}
