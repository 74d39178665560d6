package search_test

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/prismecs/prism/assert"
	"github.com/prismecs/prism/component"
	"github.com/prismecs/prism/filter"
	"github.com/prismecs/prism/gamestate"
	"github.com/prismecs/prism/search"
	"github.com/prismecs/prism/types"
)

type Health struct {
	HP int `json:"hp"`
}

func (Health) Name() string { return "health" }

type Armor struct {
	Rating int `json:"rating"`
}

func (Armor) Name() string { return "armor" }

type fixture struct {
	state  *gamestate.State
	health types.ComponentMetadata
	armor  types.ComponentMetadata
}

func newFixture(t *testing.T) *fixture {
	registry := gamestate.NewRegistry()
	logger := zerolog.Nop()
	state := gamestate.NewState(registry, &logger)
	f := &fixture{state: state}

	healthMeta, err := component.NewComponentMetadata[Health]()
	assert.NilError(t, err)
	_, err = registry.Register(healthMeta)
	assert.NilError(t, err)
	f.health = healthMeta

	armorMeta, err := component.NewComponentMetadata[Armor]()
	assert.NilError(t, err)
	_, err = registry.Register(armorMeta)
	assert.NilError(t, err)
	f.armor = armorMeta
	return f
}

func (f *fixture) spawn(t *testing.T, values ...gamestate.ComponentValue) types.EntityID {
	id, err := f.state.CreateEntity(values...)
	assert.NilError(t, err)
	return id
}

func TestSearchCountAndEach(t *testing.T) {
	f := newFixture(t)

	f.spawn(t, gamestate.ComponentValue{Metadata: f.health, Value: Health{HP: 10}})
	f.spawn(t, gamestate.ComponentValue{Metadata: f.health, Value: Health{HP: 20}})
	f.spawn(t, gamestate.ComponentValue{Metadata: f.armor, Value: Armor{Rating: 1}})

	count, err := search.New(f.state, filter.Contains(f.health)).Count()
	assert.NilError(t, err)
	assert.Equal(t, count, 2)

	seen := 0
	err = search.New(f.state, filter.Contains(f.health)).Each(func(types.EntityID) bool {
		seen++
		return true
	})
	assert.NilError(t, err)
	assert.Equal(t, seen, 2)
}

func TestSearchEarlyExit(t *testing.T) {
	f := newFixture(t)
	f.spawn(t, gamestate.ComponentValue{Metadata: f.health, Value: Health{}})
	f.spawn(t, gamestate.ComponentValue{Metadata: f.health, Value: Health{}})

	seen := 0
	err := search.New(f.state, filter.Contains(f.health)).Each(func(types.EntityID) bool {
		seen++
		return false
	})
	assert.NilError(t, err)
	assert.Equal(t, seen, 1)
}

func TestMutableSearchExcludesInheritedComponents(t *testing.T) {
	f := newFixture(t)

	base := f.spawn(t, gamestate.ComponentValue{Metadata: f.health, Value: Health{HP: 100}})
	child := f.spawn(t, gamestate.ComponentValue{
		Metadata: f.state.InheritFromMetadata(),
		Value:    gamestate.InheritFrom{Base: base},
	})
	assert.NilError(t, f.state.Flush())

	readable, err := search.New(f.state, filter.Contains(f.health)).Count()
	assert.NilError(t, err)
	assert.Equal(t, readable, 2)

	mutable := map[types.EntityID]bool{}
	err = search.NewMutable(f.state, filter.Contains(f.health)).Each(func(id types.EntityID) bool {
		mutable[id] = true
		return true
	})
	assert.NilError(t, err)
	assert.True(t, mutable[base])
	assert.False(t, mutable[child])
}

func TestSearchFirst(t *testing.T) {
	f := newFixture(t)

	_, err := search.New(f.state, filter.Contains(f.armor)).First()
	assert.ErrorContains(t, err, "no entity matches")

	want := f.spawn(t, gamestate.ComponentValue{Metadata: f.armor, Value: Armor{Rating: 2}})
	got, err := search.New(f.state, filter.Contains(f.armor)).First()
	assert.NilError(t, err)
	assert.Equal(t, got, want)
}
