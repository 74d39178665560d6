package prism

import (
	"github.com/JeremyLoy/config"
	"github.com/rs/zerolog/log"
)

// WorldConfig is the runtime configuration of a world, loaded from the
// environment on top of defaults.
type WorldConfig struct {
	// PrismNamespace is a label included in logs and metric tags so multiple
	// worlds can share observability infrastructure.
	PrismNamespace string `config:"PRISM_NAMESPACE"`
	// PrismLogLevel sets the zerolog level. One of zerolog's level strings
	// (trace, debug, info, warn, error, fatal, panic, disabled).
	PrismLogLevel string `config:"PRISM_LOG_LEVEL"`
	// PrismLogPretty enables human-readable console logging instead of JSON.
	PrismLogPretty bool `config:"PRISM_LOG_PRETTY"`
	// StatsdAddress is the address of a statsd agent. Metrics are disabled
	// when empty.
	StatsdAddress string `config:"STATSD_ADDRESS"`
	// TraceTags are extra tags attached to every emitted metric.
	TraceTags []string `config:"TRACE_TAGS"`
}

var defaultConfig = WorldConfig{
	PrismNamespace: "prism",
	PrismLogLevel:  "info",
	PrismLogPretty: false,
	StatsdAddress:  "",
}

// getWorldConfig loads the world configuration from environment variables,
// falling back to defaults for anything unset.
func getWorldConfig() WorldConfig {
	cfg := defaultConfig
	if err := config.FromEnv().To(&cfg); err != nil {
		log.Logger.Warn().Msgf("Failed to load config from environment: %v", err)
	}
	return cfg
}
