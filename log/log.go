// Package log holds the structured logging helpers shared by the engine
// packages, so log field names stay consistent across call sites.
package log

import (
	"github.com/rs/zerolog"

	"github.com/prismecs/prism/types"
)

// WorldStarted logs a world coming up.
func WorldStarted(logger *zerolog.Logger, instanceID, namespace string) {
	logger.Info().
		Str("instance_id", instanceID).
		Str("namespace", namespace).
		Msg("world started")
}

// ComponentRegistered logs a component registration.
func ComponentRegistered(logger *zerolog.Logger, name string, id types.ComponentID, storage types.StorageKind) {
	logger.Debug().
		Str("component_name", name).
		Int("component_id", int(id)).
		Bool("sparse", storage == types.StorageSparseSet).
		Msg("registered component")
}

// EntityCreated logs entity creation at the world API level.
func EntityCreated(logger *zerolog.Logger, id types.EntityID, componentCount int) {
	logger.Debug().
		Uint64("entity_id", uint64(id)).
		Int("component_count", componentCount).
		Msg("created entity")
}
