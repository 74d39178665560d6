package filter

import (
	"github.com/prismecs/prism/types"
)

type contains struct {
	components []types.ComponentMetadata
}

// Contains matches archetypes that contain all the components specified.
func Contains(components ...types.ComponentMetadata) ComponentFilter {
	return &contains{components: components}
}

func (f *contains) MatchesComponents(components []types.ComponentMetadata) bool {
	for _, componentType := range f.components {
		if !MatchComponentMetadata(components, componentType) {
			return false
		}
	}
	return true
}
