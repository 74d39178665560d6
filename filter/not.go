package filter

import (
	"github.com/prismecs/prism/types"
)

func Not(filter ComponentFilter) ComponentFilter {
	return &not{filter: filter}
}

type not struct {
	filter ComponentFilter
}

func (f *not) MatchesComponents(components []types.ComponentMetadata) bool {
	return !f.filter.MatchesComponents(components)
}
