package types

// EntityID is a unique identifier for an entity within a single world.
// IDs are allocated densely and are never reused while the world is alive.
type EntityID uint64
