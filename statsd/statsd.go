// Package statsd wraps the datadog client used to report how long systems and ticks take. Until Init
// is called every metric goes to a no-op client.
package statsd

import (
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

var client ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}

func Client() ddstatsd.ClientInterface {
	return client
}

// SetClient replaces the global client. Tests use it to capture metrics.
func SetClient(c ddstatsd.ClientInterface) {
	client = c
}

func emit(name string, start time.Time, tags []string) {
	if err := Client().Timing(name, time.Since(start), tags, 1); err != nil {
		log.Logger.Warn().Err(err).Str("metric", name).Msg("failed to emit stat")
	}
}

// EmitSystemStat reports the run time of one system.
func EmitSystemStat(start time.Time, system string) {
	emit("system", start, []string{"system:" + system})
}

// EmitTickStat reports the run time of a whole schedule pass.
func EmitTickStat(start time.Time, stage string) {
	emit("tick", start, []string{"stage:" + stage})
}

func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}
	opts := []ddstatsd.Option{
		ddstatsd.WithNamespace("strata"),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return eris.Wrap(err, "failed to create statsd client")
	}
	client = newClient
	return nil
}
