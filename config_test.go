package strata_test

import (
	"testing"

	"pkg.world.dev/world-engine/strata"
	"pkg.world.dev/world-engine/strata/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := strata.LoadConfig()
	assert.NilError(t, err)
	assert.Equal(t, cfg.Workers, 0)
	assert.Equal(t, cfg.LogLevel, "info")
	assert.False(t, cfg.PlanCache)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("STRATA_WORKERS", "3")
	t.Setenv("STRATA_LOG_LEVEL", "debug")
	t.Setenv("STRATA_PLAN_CACHE", "true")
	t.Setenv("STRATA_STATSD_TAGS", "env:test")

	cfg, err := strata.LoadConfig()
	assert.NilError(t, err)
	assert.Equal(t, cfg.Workers, 3)
	assert.Equal(t, cfg.LogLevel, "debug")
	assert.True(t, cfg.PlanCache)
	assert.DeepEqual(t, cfg.StatsdTags, []string{"env:test"})
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("STRATA_LOG_LEVEL", "loud")
	_, err := strata.LoadConfig()
	assert.ErrorContains(t, err, "invalid STRATA_LOG_LEVEL")

	t.Setenv("STRATA_LOG_LEVEL", "info")
	t.Setenv("STRATA_WORKERS", "-2")
	_, err = strata.LoadConfig()
	assert.ErrorContains(t, err, "must not be negative")

	_, err = strata.NewWorld()
	assert.IsError(t, err)
}

func TestOptionsOverrideEnv(t *testing.T) {
	t.Setenv("STRATA_WORKERS", "3")
	w, err := strata.NewWorld(strata.WithWorkers(1), strata.WithConfig(strata.WorldConfig{LogLevel: "warn"}))
	assert.NilError(t, err)
	assert.Equal(t, w.Logger().GetLevel().String(), "warn")
}
