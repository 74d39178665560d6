package gamestate_test

import (
	"testing"

	"github.com/prismecs/prism/assert"
	"github.com/prismecs/prism/component"
	"github.com/prismecs/prism/gamestate"
	"github.com/prismecs/prism/types"
)

type dupA struct {
	Value int `json:"value"`
}

func (dupA) Name() string { return "dup" }

type dupB struct {
	Other string `json:"other"`
}

func (dupB) Name() string { return "dup" }

func TestRegisterIsIdempotentPerSignature(t *testing.T) {
	registry := gamestate.NewRegistry()

	first, err := component.NewComponentMetadata[Position]()
	assert.NilError(t, err)
	id1, err := registry.Register(first)
	assert.NilError(t, err)

	second, err := component.NewComponentMetadata[Position]()
	assert.NilError(t, err)
	id2, err := registry.Register(second)
	assert.NilError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, registry.Len(), 1)
}

func TestRegisterRejectsConflictingSchema(t *testing.T) {
	registry := gamestate.NewRegistry()

	a, err := component.NewComponentMetadata[dupA]()
	assert.NilError(t, err)
	_, err = registry.Register(a)
	assert.NilError(t, err)

	b, err := component.NewComponentMetadata[dupB]()
	assert.NilError(t, err)
	_, err = registry.Register(b)
	assert.ErrorIs(t, err, types.ErrComponentSchemaMismatch)
}

func TestLookupUnknownComponent(t *testing.T) {
	registry := gamestate.NewRegistry()

	_, err := registry.GetComponentInfo(42)
	assert.ErrorIs(t, err, gamestate.ErrComponentNotRegistered)

	_, err = registry.GetComponentByName("nope")
	assert.ErrorIs(t, err, gamestate.ErrComponentNotRegistered)
}

func TestRegisteredIDsAreDense(t *testing.T) {
	registry := gamestate.NewRegistry()

	pos, err := component.NewComponentMetadata[Position]()
	assert.NilError(t, err)
	posID, err := registry.Register(pos)
	assert.NilError(t, err)

	score, err := component.NewComponentMetadata[Score]()
	assert.NilError(t, err)
	scoreID, err := registry.Register(score)
	assert.NilError(t, err)

	assert.Equal(t, int(posID), 0)
	assert.Equal(t, int(scoreID), 1)

	got, err := registry.GetComponentInfo(posID)
	assert.NilError(t, err)
	assert.Equal(t, got.Name(), "position")
}
