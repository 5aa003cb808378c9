package main

import (
	"math/rand"

	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/strata"
	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/hierarchy"
	"pkg.world.dev/world-engine/strata/query"
	"pkg.world.dev/world-engine/strata/types"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Velocity struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type Health struct {
	Points int `json:"points"`
}

func (Health) Name() string { return "health" }

type Dead struct{}

// Flock leads the replacements spawned by reap.
type Flock struct {
	Generation int `json:"generation"`
}

const flockSize = 10

const bounds = 100.0

func systems() []*strata.System {
	return []*strata.System{
		moveSystem(),
		bounceSystem(),
		damageSystem(),
		reapSystem(),
		strata.NewSystem(countSystem, countQuery),
	}
}

func moveSystem() *strata.System {
	pos, vel := query.Write[Position](), query.Read[Velocity]()
	q := query.New(pos, vel, query.Without[Dead]())
	return strata.NewSystem(func(ctx *strata.SystemContext) error {
		for row := range ctx.View(q).Rows() {
			p, v := pos.Get(row), vel.Get(row)
			p.X += v.DX
			p.Y += v.DY
		}
		return nil
	}, q).Named("move")
}

func bounceSystem() *strata.System {
	pos, vel := query.Read[Position](), query.Write[Velocity]()
	q := query.New(pos, vel)
	return strata.NewSystem(func(ctx *strata.SystemContext) error {
		for row := range ctx.View(q).Rows() {
			p, v := pos.Get(row), vel.Get(row)
			if p.X < 0 || p.X > bounds {
				v.DX = -v.DX
			}
			if p.Y < 0 || p.Y > bounds {
				v.DY = -v.DY
			}
		}
		return nil
	}, q).Named("bounce")
}

func damageSystem() *strata.System {
	health := query.Write[Health]()
	q := query.New(health)
	return strata.NewSystem(func(ctx *strata.SystemContext) error {
		for row := range ctx.View(q).Rows() {
			if rand.Intn(20) == 0 {
				health.Get(row).Points--
			}
		}
		return nil
	}, q).Named("damage")
}

// reapSystem marks entities out of health as dead and spawns a replacement into the current flock.
// A full flock is despawned together with its members.
func reapSystem() *strata.System {
	leader := types.NullEntity
	generation := 0
	return strata.NewExclusiveSystem(func(w *strata.World) error {
		if leader.IsNull() {
			generation++
			leader = w.Spawn(component.New(Flock{Generation: generation}))
		}

		health := query.Read[Health]()
		v, err := w.Query(query.New(health, query.Without[Dead]()))
		if err != nil {
			return eris.Wrap(err, "reap")
		}
		var dying []types.Entity
		for row := range v.Rows() {
			if health.Get(row).Points <= 0 {
				dying = append(dying, row.Entity())
			}
		}
		v.Release()

		for _, e := range dying {
			if err := w.AddComponent(e, component.New(Dead{})); err != nil {
				return err
			}
			if err := w.RemoveComponents(e, component.IDOf[Health]()); err != nil {
				return err
			}
			born := w.Spawn(
				component.New(Position{X: rand.Float64() * bounds, Y: rand.Float64() * bounds}),
				component.New(Velocity{DX: 1, DY: -1}),
				component.New(Health{Points: 3}),
			)
			if err := hierarchy.SetParent(w, leader, born); err != nil {
				return err
			}
		}
		if len(dying) > 0 {
			w.Logger().Debug().Int("dead", len(dying)).Msg("reaped entities")
		}

		members, err := hierarchy.Children(w, leader)
		if err != nil {
			return err
		}
		if len(members) >= flockSize {
			if err := hierarchy.DespawnHierarchy(w, leader); err != nil {
				return err
			}
			w.Logger().Info().Int("generation", generation).Msg("flock disbanded")
			leader = types.NullEntity
		}
		return nil
	}).Named("reap")
}

var countQuery = query.New(query.Read[Position](), query.With[Dead]())

func countSystem(ctx *strata.SystemContext) error {
	ctx.Logger().Debug().Int("dead", ctx.View(countQuery).Len()).Msg("dead entities")
	return nil
}
