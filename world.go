// Package prism is an archetype-based entity component engine with
// value-fragmenting components and component inheritance.
package prism

import (
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prismecs/prism/filter"
	"github.com/prismecs/prism/gamestate"
	ecslog "github.com/prismecs/prism/log"
	"github.com/prismecs/prism/search"
	"github.com/prismecs/prism/statsd"
)

// World owns a component registry and the entity state built over it. A
// World is not safe for concurrent mutation.
type World struct {
	instanceID string
	config     WorldConfig
	registry   *gamestate.Registry
	state      *gamestate.State

	Logger *zerolog.Logger
}

// NewWorld creates a world configured from the environment, with any options
// applied on top.
func NewWorld(opts ...WorldOption) (*World, error) {
	cfg := getWorldConfig()

	w := &World{
		instanceID: uuid.New().String(),
		config:     cfg,
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.Logger == nil {
		logger := newLogger(w.config)
		w.Logger = &logger
	}
	if w.config.StatsdAddress != "" {
		tags := append([]string{"namespace:" + w.config.PrismNamespace}, w.config.TraceTags...)
		if err := statsd.Init(w.config.StatsdAddress, tags); err != nil {
			w.Logger.Warn().Msgf("Failed to init statsd client: %v", err)
		}
	}

	w.registry = gamestate.NewRegistry()
	w.state = gamestate.NewState(w.registry, w.Logger)

	ecslog.WorldStarted(w.Logger, w.instanceID, w.config.PrismNamespace)
	return w, nil
}

func newLogger(cfg WorldConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.PrismLogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.PrismLogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().
		Timestamp().
		Str("namespace", cfg.PrismNamespace).
		Logger()
}

// InstanceID returns the unique id of this world instance.
func (w *World) InstanceID() string {
	return w.instanceID
}

// Namespace returns the configured namespace label.
func (w *World) Namespace() string {
	return w.config.PrismNamespace
}

// State exposes the underlying entity state for packages layered on top of
// the world, like search.
func (w *World) State() *gamestate.State {
	return w.state
}

// Flush runs every deferred command enqueued since the last flush, including
// the inheritance bookkeeping triggered by component hooks.
func (w *World) Flush() error {
	return w.state.Flush()
}

// Search creates a read-only search: the filter sees each entity's own
// components plus anything it inherits.
func (w *World) Search(compFilter filter.ComponentFilter) *search.Search {
	return search.New(w.state, compFilter)
}

// SearchMutable creates a search whose filter sees owned components only.
// Use it when the matched components will be written.
func (w *World) SearchMutable(compFilter filter.ComponentFilter) *search.Search {
	return search.NewMutable(w.state, compFilter)
}
