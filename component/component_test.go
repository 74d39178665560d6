package component_test

import (
	"testing"

	"github.com/prismecs/prism/assert"
	"github.com/prismecs/prism/component"
	"github.com/prismecs/prism/types"
)

type Energy struct {
	Amount int `json:"amount"`
	Cap    int `json:"cap"`
}

func (Energy) Name() string { return "energy" }

type Faction struct {
	Label string `json:"label"`
}

func (Faction) Name() string { return "faction" }

func (Faction) FragmentByValue() {}

type Invisible struct{}

func (Invisible) Name() string { return "invisible" }

func (Invisible) SparseStorage() {}

func TestStorageKindFollowsMarkerInterfaces(t *testing.T) {
	energy, err := component.NewComponentMetadata[Energy]()
	assert.NilError(t, err)
	assert.Equal(t, energy.StorageKind(), types.StorageTable)
	assert.Nil(t, energy.Vtable())

	invisible, err := component.NewComponentMetadata[Invisible]()
	assert.NilError(t, err)
	assert.Equal(t, invisible.StorageKind(), types.StorageSparseSet)

	faction, err := component.NewComponentMetadata[Faction]()
	assert.NilError(t, err)
	assert.NotNil(t, faction.Vtable())
}

func TestVtableEqualityHashAndCloneAgree(t *testing.T) {
	faction, err := component.NewComponentMetadata[Faction]()
	assert.NilError(t, err)
	vt := faction.Vtable()

	a := Faction{Label: "red"}
	b := Faction{Label: "red"}
	c := Faction{Label: "blue"}

	assert.True(t, vt.Equals(a, b))
	assert.False(t, vt.Equals(a, c))
	assert.Equal(t, vt.Hash(a), vt.Hash(b))
	assert.NotEqual(t, vt.Hash(a), vt.Hash(c))

	cloned, err := vt.Clone(a)
	assert.NilError(t, err)
	assert.True(t, vt.Equals(a, cloned))
	assert.Equal(t, vt.Hash(a), vt.Hash(cloned))
}

func TestComponentIDCanOnlyBeSetOnce(t *testing.T) {
	energy, err := component.NewComponentMetadata[Energy]()
	assert.NilError(t, err)
	assert.NilError(t, energy.SetID(5))
	assert.NilError(t, energy.SetID(5))
	err = energy.SetID(6)
	assert.ErrorContains(t, err, "already set")
}

func TestDefaultValue(t *testing.T) {
	energy, err := component.NewComponentMetadata[Energy](
		component.WithDefault(Energy{Amount: 10, Cap: 100}),
	)
	assert.NilError(t, err)
	bz, err := energy.New()
	assert.NilError(t, err)
	value, err := energy.Decode(bz)
	assert.NilError(t, err)
	assert.Equal(t, value.(Energy), Energy{Amount: 10, Cap: 100})
}

func TestValidateAgainstSchema(t *testing.T) {
	energy, err := component.NewComponentMetadata[Energy]()
	assert.NilError(t, err)
	faction, err := component.NewComponentMetadata[Faction]()
	assert.NilError(t, err)

	assert.NilError(t, component.ValidateAgainstSchema(energy.GetSchema(), energy.GetSchema()))
	err = component.ValidateAgainstSchema(energy.GetSchema(), faction.GetSchema())
	assert.ErrorIs(t, err, types.ErrComponentSchemaMismatch)
}

func TestDynamicComponentMetadata(t *testing.T) {
	meta, err := component.NewDynamicComponentMetadata(types.ComponentDescriptor{
		Name:    "runtime_marker",
		Storage: types.StorageTable,
	})
	assert.NilError(t, err)
	assert.Equal(t, meta.Name(), "runtime_marker")
	assert.Nil(t, meta.GetSchema())

	_, err = component.NewDynamicComponentMetadata(types.ComponentDescriptor{})
	assert.ErrorContains(t, err, "must have a name")
}
