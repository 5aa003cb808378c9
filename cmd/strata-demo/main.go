package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JeremyLoy/config"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"pkg.world.dev/world-engine/strata"
	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/log"
)

type demoConfig struct {
	Entities int           `config:"DEMO_ENTITIES"`
	Ticks    int           `config:"DEMO_TICKS"`
	Interval time.Duration `config:"DEMO_INTERVAL"`
	Trace    bool          `config:"DEMO_TRACE"`
}

func loadDemoConfig() demoConfig {
	cfg := demoConfig{Entities: 1000, Ticks: 100, Interval: 50 * time.Millisecond}
	if err := config.FromEnv().To(&cfg); err != nil {
		zerologger.Fatal().Err(err).Msg("failed to read demo config")
	}
	return cfg
}

func main() {
	cfg := loadDemoConfig()
	if cfg.Trace {
		tracer.Start(tracer.WithService("strata-demo"), tracer.WithRuntimeMetrics())
		defer tracer.Stop()
	}
	world, err := strata.NewWorld(strata.WithPrettyLog(), strata.WithPlanCache())
	if err != nil {
		zerologger.Fatal().Err(err).Msg("failed to create world")
	}

	for i := range cfg.Entities {
		values := []component.Value{
			component.New(Position{X: float64(i % 100), Y: float64(i / 100)}),
			component.New(Velocity{DX: 1, DY: 0.5}),
		}
		if i%10 == 0 {
			values = append(values, component.New(Health{Points: 3}))
		}
		world.Spawn(values...)
	}

	if err := strata.RegisterSystems(world, systems()...); err != nil {
		zerologger.Fatal().Err(err).Msg("failed to register systems")
	}
	log.World(world.Logger(), world, zerolog.InfoLevel)
	log.Plan(world.Logger(), world.Plan(), zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, world, cfg); err != nil {
		world.Logger().Error().Err(err).Msg("demo stopped")
		tracer.Stop()
		os.Exit(1)
	}
	log.Archetypes(world.Logger(), world.Store(), zerolog.InfoLevel)
}

func run(ctx context.Context, world *strata.World, cfg demoConfig) error {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for world.CurrentTick() < uint64(cfg.Ticks) {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := world.Tick(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
