package strata

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// WorldOption changes how a World is set up. Options are applied after the environment config.
type WorldOption func(*World)

// WithWorkers sets the number of goroutines systems run on. Values below one use GOMAXPROCS.
func WithWorkers(workers int) WorldOption {
	return func(w *World) {
		w.cfg.Workers = max(workers, 0)
	}
}

// WithLogger replaces the world logger.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) {
		w.logger = &logger
	}
}

// WithPrettyLog writes human readable logs to stdout.
func WithPrettyLog() WorldOption {
	return func(w *World) {
		w.cfg.PrettyLog = true
	}
}

// WithPlanCache keeps the schedule between ticks until a new archetype is created. Without it the
// schedule is rebuilt every tick.
func WithPlanCache() WorldOption {
	return func(w *World) {
		w.cfg.PlanCache = true
	}
}

// WithConfig replaces the config read from the environment.
func WithConfig(cfg WorldConfig) WorldOption {
	return func(w *World) {
		w.cfg = cfg
	}
}

func prettyLogger(level zerolog.Level) *zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
	return &logger
}
