package types

// ArchetypeID identifies a unique combination of component ids, optionally
// keyed by a fragmenting value set. Archetypes are append-only: once an ID is
// assigned it is never reused or destroyed for the lifetime of the world.
type ArchetypeID int

// TableID identifies the physical column storage shared by every archetype
// with the same table-stored component set. Archetypes that differ only in
// sparse-set components share a table.
type TableID int
