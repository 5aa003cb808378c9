package log_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/strata/assert"
	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/log"
	"pkg.world.dev/world-engine/strata/query"
	"pkg.world.dev/world-engine/strata/scheduler"
	"pkg.world.dev/world-engine/strata/storage"
)

type Energy struct {
	Amount int `json:"amount"`
}

func (Energy) Name() string { return "energy" }

type fakeWorld struct {
	store   *storage.Store
	systems []string
}

func (w fakeWorld) RegisteredSystems() []string { return w.systems }
func (w fakeWorld) Store() *storage.Store       { return w.store }

func TestWorldLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	s := storage.New()
	s.Spawn(component.New(Energy{Amount: 3}))

	log.World(&logger, fakeWorld{store: s, systems: []string{"regen", "decay"}}, zerolog.InfoLevel)
	id := component.IDOf[Energy]()
	assert.JSONEq(t, fmt.Sprintf(`{
		"level": "info",
		"total_archetypes": 2,
		"total_entities": 1,
		"archetypes": [
			{"archetype_id": 0, "entities": 0, "components": []},
			{"archetype_id": 1, "entities": 1, "components": [
				{"component_id": %d, "component_name": "energy"}
			]}
		],
		"total_systems": 2,
		"systems": ["regen", "decay"]
	}`, id), buf.String())
}

func TestEntityLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	s := storage.New()
	e := s.Spawn(component.New(Energy{Amount: 7}))

	log.Entity(&logger, zerolog.DebugLevel, s, e)
	assert.JSONEq(t, fmt.Sprintf(`{
		"level": "debug",
		"entity_index": 0,
		"entity_generation": 0,
		"archetype_id": 1,
		"row": 0,
		"components": [
			{"component_id": %d, "component_name": "energy", "value": {"amount": 7}}
		]
	}`, component.IDOf[Energy]()), buf.String())

	buf.Reset()
	assert.NilError(t, s.Despawn(e))
	log.Entity(&logger, zerolog.DebugLevel, s, e)
	assert.JSONEq(t, `{"level":"debug","entity_index":0,"entity_generation":0,"alive":false}`, buf.String())
}

func TestPlanLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	s := storage.New()
	s.Spawn(component.New(Energy{}))
	md := query.New(query.Write[Energy]()).MetaData(s)
	plan := scheduler.Build([]scheduler.Spec{
		{Name: "regen", Accesses: md.Accesses()},
		{Name: "snapshot", Exclusive: true},
	})

	log.Plan(&logger, plan, zerolog.InfoLevel)
	assert.JSONEq(t, `{
		"level": "info",
		"total_systems": 2,
		"phases": 2,
		"waves": [
			{"wave": 0, "systems": ["regen"]},
			{"wave": 1, "systems": ["snapshot"]}
		],
		"message": "schedule built"
	}`, buf.String())
}

func TestSystemLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	log.CreateSystemLogger(&logger, "regen").Info().Msg("tick")
	assert.JSONEq(t, `{"level":"info","system":"regen","message":"tick"}`, buf.String())
}
