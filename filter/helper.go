package filter

import (
	"github.com/prismecs/prism/types"
)

// MatchComponentMetadata returns true if the given component is in the given list of components.
// Components are compared by ID.
func MatchComponentMetadata(
	components []types.ComponentMetadata,
	cType types.ComponentMetadata,
) bool {
	for _, c := range components {
		if cType.ID() == c.ID() {
			return true
		}
	}
	return false
}
