package prism

import (
	"github.com/rs/zerolog"
)

// WorldOption adjusts a world during NewWorld, after the environment config
// is loaded and before the state is built.
type WorldOption func(*World)

// WithLogger replaces the world's logger. The environment's log level and
// pretty-print settings are ignored when this option is used.
func WithLogger(logger *zerolog.Logger) WorldOption {
	return func(w *World) {
		w.Logger = logger
	}
}

// WithNamespace overrides the PRISM_NAMESPACE environment setting.
func WithNamespace(namespace string) WorldOption {
	return func(w *World) {
		w.config.PrismNamespace = namespace
	}
}

// WithLoggingLevel overrides the PRISM_LOG_LEVEL environment setting.
func WithLoggingLevel(level string) WorldOption {
	return func(w *World) {
		w.config.PrismLogLevel = level
	}
}

// WithStatsdAddress overrides the STATSD_ADDRESS environment setting.
func WithStatsdAddress(address string) WorldOption {
	return func(w *World) {
		w.config.StatsdAddress = address
	}
}
