// Package log writes structured descriptions of worlds, entities and schedules to zerolog loggers.
package log

import (
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/strata/codec"
	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/scheduler"
	"pkg.world.dev/world-engine/strata/storage"
	"pkg.world.dev/world-engine/strata/types"
)

type Loggable interface {
	RegisteredSystems() []string
	Store() *storage.Store
}

func componentsArray(ids []component.ID) *zerolog.Array {
	arr := zerolog.Arr()
	for _, id := range ids {
		arr = arr.Dict(zerolog.Dict().
			Int("component_id", int(id)).
			Str("component_name", component.Name(id)))
	}
	return arr
}

func loadArchetypesToEvent(event *zerolog.Event, s *storage.Store) *zerolog.Event {
	arr := zerolog.Arr()
	for _, arch := range s.Archetypes() {
		arr = arr.Dict(zerolog.Dict().
			Int("archetype_id", int(arch.Index())).
			Int("entities", arch.Len()).
			Array("components", componentsArray(arch.IDs())))
	}
	event.Int("total_archetypes", s.ArchetypeCount())
	event.Int("total_entities", s.Len())
	return event.Array("archetypes", arr)
}

func loadSystemsToEvent(event *zerolog.Event, target Loggable) *zerolog.Event {
	systems := target.RegisteredSystems()
	event.Int("total_systems", len(systems))
	arr := zerolog.Arr()
	for _, name := range systems {
		arr = arr.Str(name)
	}
	return event.Array("systems", arr)
}

// Archetypes logs every archetype of the store with its components and entity count.
func Archetypes(logger *zerolog.Logger, s *storage.Store, level zerolog.Level) {
	loadArchetypesToEvent(logger.WithLevel(level), s).Send()
}

// Systems logs the registered system names.
func Systems(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	loadSystemsToEvent(logger.WithLevel(level), target).Send()
}

// World logs archetypes and systems in one event.
func World(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	event := loadArchetypesToEvent(logger.WithLevel(level), target.Store())
	loadSystemsToEvent(event, target).Send()
}

// Entity logs the location and component values of e. Values are encoded as JSON.
func Entity(logger *zerolog.Logger, level zerolog.Level, s *storage.Store, e types.Entity) {
	event := logger.WithLevel(level).Uint32("entity_index", e.Index).Uint32("entity_generation", e.Generation)
	loc, ok := s.Location(e)
	if !ok {
		event.Bool("alive", false).Send()
		return
	}
	arch := s.Archetype(loc.Archetype)
	values, _ := s.Values(e)
	arr := zerolog.Arr()
	for i, id := range arch.IDs() {
		arr = arr.Dict(zerolog.Dict().
			Int("component_id", int(id)).
			Str("component_name", component.Name(id)).
			RawJSON("value", codec.EncodeOrNull(values[i])))
	}
	event.Int("archetype_id", int(loc.Archetype)).Int("row", loc.Row).Array("components", arr).Send()
}

// Plan logs the waves of a schedule using system names.
func Plan(logger *zerolog.Logger, plan *scheduler.Plan, level zerolog.Level) {
	waves := zerolog.Arr()
	for i, wave := range plan.Waves() {
		names := make([]string, len(wave))
		for j, system := range wave {
			names[j] = plan.Name(system)
		}
		waves = waves.Dict(zerolog.Dict().Int("wave", i).Strs("systems", names))
	}
	logger.WithLevel(level).
		Int("total_systems", plan.Len()).
		Int("phases", len(plan.Phases())).
		Array("waves", waves).
		Msg("schedule built")
}

// CreateSystemLogger creates a sub logger with the entry {"system": systemName}.
func CreateSystemLogger(logger *zerolog.Logger, systemName string) *zerolog.Logger {
	newLogger := logger.With().Str("system", systemName).Logger()
	return &newLogger
}
