package strata

import (
	"github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// WorldConfig is read from the environment by NewWorld. Options passed to NewWorld win over it.
type WorldConfig struct {
	// Workers is the size of the system worker pool. Zero means GOMAXPROCS.
	Workers       int      `config:"STRATA_WORKERS"`
	LogLevel      string   `config:"STRATA_LOG_LEVEL"`
	PrettyLog     bool     `config:"STRATA_PRETTY_LOG"`
	PlanCache     bool     `config:"STRATA_PLAN_CACHE"`
	StatsdAddress string   `config:"STRATA_STATSD_ADDRESS"`
	StatsdTags    []string `config:"STRATA_STATSD_TAGS"`
}

func defaultConfig() WorldConfig {
	return WorldConfig{
		LogLevel: zerolog.InfoLevel.String(),
	}
}

// LoadConfig reads WorldConfig from the environment, starting from the defaults.
func LoadConfig() (WorldConfig, error) {
	cfg := defaultConfig()
	if err := config.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to load config from environment")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c WorldConfig) Validate() error {
	if c.Workers < 0 {
		return eris.Errorf("STRATA_WORKERS must not be negative, got %d", c.Workers)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return eris.Wrapf(err, "invalid STRATA_LOG_LEVEL %q", c.LogLevel)
	}
	return nil
}

func (c WorldConfig) level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
