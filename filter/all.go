package filter

import (
	"github.com/prismecs/prism/types"
)

type all struct{}

func All() ComponentFilter {
	return &all{}
}

func (f *all) MatchesComponents(_ []types.ComponentMetadata) bool {
	return true
}
