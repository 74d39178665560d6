// Package search provides the read surface over world state: iterate the
// entities whose archetype matches a component filter.
package search

import (
	"github.com/rotisserie/eris"

	"github.com/prismecs/prism/filter"
	"github.com/prismecs/prism/gamestate"
	"github.com/prismecs/prism/types"
)

// CallbackFn is the function signature for Each. Returning false stops the
// iteration early.
type CallbackFn func(types.EntityID) bool

// Search iterates the entities whose archetype matches the given filter.
//
// A read-only search matches against everything an entity can read: its own
// components plus its inherited overlay. A mutable search matches against
// owned components only, since inherited data cannot be written through the
// inheriting entity.
type Search struct {
	state      *gamestate.State
	compFilter filter.ComponentFilter
	mutable    bool
}

// New creates a read-only search over the given state.
func New(state *gamestate.State, compFilter filter.ComponentFilter) *Search {
	return &Search{state: state, compFilter: compFilter}
}

// NewMutable creates a search that matches owned components only, for callers
// that intend to write to what they match.
func NewMutable(state *gamestate.State, compFilter filter.ComponentFilter) *Search {
	return &Search{state: state, compFilter: compFilter, mutable: true}
}

// Each iterates over every entity matching the filter, in archetype order.
// The entity set is snapshotted per archetype, so the callback may mutate the
// entities it is handed.
func (q *Search) Each(callback CallbackFn) error {
	for _, arch := range q.state.Archetypes() {
		comps, err := q.matchComponents(arch)
		if err != nil {
			return err
		}
		if !q.compFilter.MatchesComponents(comps) {
			continue
		}
		entities := make([]types.EntityID, arch.Count())
		copy(entities, arch.Entities())
		for _, id := range entities {
			if !callback(id) {
				return nil
			}
		}
	}
	return nil
}

// Count returns the number of entities matching the filter.
func (q *Search) Count() (int, error) {
	n := 0
	for _, arch := range q.state.Archetypes() {
		comps, err := q.matchComponents(arch)
		if err != nil {
			return 0, err
		}
		if q.compFilter.MatchesComponents(comps) {
			n += arch.Count()
		}
	}
	return n, nil
}

// First returns the first entity matching the filter.
func (q *Search) First() (types.EntityID, error) {
	found := false
	var first types.EntityID
	err := q.Each(func(id types.EntityID) bool {
		first, found = id, true
		return false
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, eris.New("no entity matches the search")
	}
	return first, nil
}

// MustFirst returns the first entity matching the filter, panicking when
// nothing matches.
func (q *Search) MustFirst() types.EntityID {
	id, err := q.First()
	if err != nil {
		panic("no entity matches the search")
	}
	return id
}

// matchComponents returns the component set the filter is evaluated against
// for one archetype.
func (q *Search) matchComponents(arch *gamestate.Archetype) ([]types.ComponentMetadata, error) {
	own := arch.Components()
	if q.mutable {
		return own, nil
	}
	return q.state.ReadableComponents(arch)
}
