// Package statsd is a helper package that wraps some common statsd methods.
// It hides the datadog dependency so if we decide to migrate away from datadog in the future, we only need to
// edit this single file.
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

// EmitArchetypeCreated counts newly created archetypes, tagged with whether the
// archetype carries a fragmenting value set.
func EmitArchetypeCreated(fragmenting bool) {
	tag := "fragmenting:false"
	if fragmenting {
		tag = "fragmenting:true"
	}
	if err := Client().Incr("archetype.created", []string{tag}, 1); err != nil {
		log.Logger.Warn().Msgf("failed to emit archetype stat: %v", err)
	}
}

// EmitInternLookup counts interning store lookups as hits or misses.
func EmitInternLookup(hit bool) {
	name := "intern.miss"
	if hit {
		name = "intern.hit"
	}
	if err := Client().Incr(name, nil, 1); err != nil {
		log.Logger.Warn().Msgf("failed to emit intern stat: %v", err)
	}
}

// EmitFlushStat reports how long a deferred-command flush took.
func EmitFlushStat(start time.Time, commands int) {
	duration := time.Since(start)
	if err := Client().Timing("flush", duration, nil, 1); err != nil {
		log.Logger.Warn().Msgf("failed to emit flush stat: %v", err)
	}
	if err := Client().Count("flush.commands", int64(commands), nil, 1); err != nil {
		log.Logger.Warn().Msgf("failed to emit flush stat: %v", err)
	}
}

func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}
	opts := []ddstatsd.Option{
		// The statsd namespace is the prefix of all metrics
		ddstatsd.WithNamespace("prism"),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return err
	}
	// Success! replace the global client
	client = newClient
	return nil
}
