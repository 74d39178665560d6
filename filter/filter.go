package filter

import (
	"github.com/prismecs/prism/types"
)

// ComponentFilter is a filter that filters archetypes based on their components.
type ComponentFilter interface {
	// MatchesComponents returns true if the component set matches the filter.
	MatchesComponents(components []types.ComponentMetadata) bool
}
