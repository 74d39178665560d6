package gamestate

import "errors"

var (
	// ErrEntityDoesNotExist is returned when an operation addresses a despawned or
	// never-spawned entity. Deferred commands routinely race with despawns, so
	// callers that expect the race recover from this error locally.
	ErrEntityDoesNotExist = errors.New("entity does not exist")

	// ErrComponentNotRegistered is returned when a component id or metadata is not
	// present in this world's registry.
	ErrComponentNotRegistered = errors.New("component not registered")

	// ErrComponentNotOnEntity is returned when an operation requires a component
	// that the entity does not have (own or inherited, depending on the operation).
	ErrComponentNotOnEntity = errors.New("component not on entity")

	// ErrComponentAlreadyOnEntity is returned when a component is added to an
	// entity that already owns it.
	ErrComponentAlreadyOnEntity = errors.New("component already on entity")

	// ErrComponentMismatchedRegistry is returned when component metadata from a
	// different world/registry instance is used with this one.
	ErrComponentMismatchedRegistry = errors.New("component registered with a different registry instance")
)
