package filter

import (
	"github.com/prismecs/prism/types"
)

type exact struct {
	components []types.ComponentMetadata
}

// Exact matches archetypes that contain exactly the same components specified.
func Exact(components ...types.ComponentMetadata) ComponentFilter {
	return exact{
		components: components,
	}
}

func (f exact) MatchesComponents(components []types.ComponentMetadata) bool {
	if len(components) != len(f.components) {
		return false
	}
	for _, componentType := range components {
		if !MatchComponentMetadata(f.components, componentType) {
			return false
		}
	}
	return true
}
