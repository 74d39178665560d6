package prism_test

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/prismecs/prism"
	"github.com/prismecs/prism/assert"
	"github.com/prismecs/prism/filter"
	"github.com/prismecs/prism/gamestate"
	"github.com/prismecs/prism/types"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (Position) Name() string { return "position" }

type Health struct {
	HP int `json:"hp"`
}

func (Health) Name() string { return "health" }

type Faction struct {
	Label string `json:"label"`
}

func (Faction) Name() string { return "faction" }

func (Faction) FragmentByValue() {}

func newWorldForTest(t *testing.T) *prism.World {
	logger := zerolog.Nop()
	world, err := prism.NewWorld(prism.WithLogger(&logger), prism.WithNamespace("test"))
	assert.NilError(t, err)
	assert.NilError(t, prism.RegisterComponent[Position](world))
	assert.NilError(t, prism.RegisterComponent[Health](world))
	assert.NilError(t, prism.RegisterComponent[Faction](world))
	return world
}

func TestWorldOptions(t *testing.T) {
	logger := zerolog.Nop()
	world, err := prism.NewWorld(prism.WithLogger(&logger), prism.WithNamespace("custom"))
	assert.NilError(t, err)
	assert.Equal(t, world.Namespace(), "custom")
	assert.NotEqual(t, world.InstanceID(), "")
}

func TestCreateAndAccessComponents(t *testing.T) {
	world := newWorldForTest(t)

	id, err := prism.Create(world, Position{X: 1, Y: 2}, Health{HP: 10})
	assert.NilError(t, err)

	pos, err := prism.GetComponent[Position](world, id)
	assert.NilError(t, err)
	assert.Equal(t, *pos, Position{X: 1, Y: 2})

	assert.NilError(t, prism.SetComponent(world, id, &Position{X: 3, Y: 4}))
	pos, err = prism.GetComponent[Position](world, id)
	assert.NilError(t, err)
	assert.Equal(t, pos.X, 3.0)

	err = prism.UpdateComponent(world, id, func(h *Health) *Health {
		h.HP -= 4
		return h
	})
	assert.NilError(t, err)
	health, err := prism.GetComponent[Health](world, id)
	assert.NilError(t, err)
	assert.Equal(t, health.HP, 6)
}

func TestComponentsListsOwnedOnly(t *testing.T) {
	world := newWorldForTest(t)

	base, err := prism.Create(world, Position{X: 1}, Health{HP: 5})
	assert.NilError(t, err)
	child, err := prism.Create(world, Health{HP: 3})
	assert.NilError(t, err)
	assert.NilError(t, prism.InheritFrom(world, child, base))
	assert.NilError(t, world.Flush())

	names := map[string]bool{}
	comps, err := prism.Components(world, child)
	assert.NilError(t, err)
	for _, c := range comps {
		names[c.Name()] = true
	}
	// health is owned; position is only inherited and stays out of the list.
	assert.True(t, names["health"])
	assert.False(t, names["position"])
}

func TestAddAndRemoveComponent(t *testing.T) {
	world := newWorldForTest(t)

	id, err := prism.Create(world, Position{})
	assert.NilError(t, err)

	assert.NilError(t, prism.AddComponentTo[Health](world, id))
	err = prism.AddComponentTo[Health](world, id)
	assert.ErrorIs(t, err, prism.ErrComponentAlreadyOnEntity)

	assert.NilError(t, prism.RemoveComponentFrom[Health](world, id))
	_, err = prism.GetComponent[Health](world, id)
	assert.ErrorIs(t, err, prism.ErrComponentNotOnEntity)
}

func TestRemoveEntity(t *testing.T) {
	world := newWorldForTest(t)

	id, err := prism.Create(world, Position{})
	assert.NilError(t, err)
	assert.NilError(t, prism.Remove(world, id))

	_, err = prism.GetComponent[Position](world, id)
	assert.ErrorIs(t, err, prism.ErrEntityDoesNotExist)
}

func TestFragmentingComponentsSplitArchetypes(t *testing.T) {
	world := newWorldForTest(t)

	red1, err := prism.Create(world, Faction{Label: "red"})
	assert.NilError(t, err)
	red2, err := prism.Create(world, Faction{Label: "red"})
	assert.NilError(t, err)
	blue, err := prism.Create(world, Faction{Label: "blue"})
	assert.NilError(t, err)

	state := world.State()
	a1, err := state.GetArchetypeForEntity(red1)
	assert.NilError(t, err)
	a2, err := state.GetArchetypeForEntity(red2)
	assert.NilError(t, err)
	a3, err := state.GetArchetypeForEntity(blue)
	assert.NilError(t, err)
	assert.Equal(t, a1.ID(), a2.ID())
	assert.NotEqual(t, a1.ID(), a3.ID())
}

func TestWorldInheritance(t *testing.T) {
	world := newWorldForTest(t)

	base, err := prism.Create(world, Position{X: 6})
	assert.NilError(t, err)
	child, err := prism.Create(world, Health{HP: 1})
	assert.NilError(t, err)

	assert.NilError(t, prism.InheritFrom(world, child, base))
	assert.NilError(t, world.Flush())

	got, err := prism.InheritanceBase(world, child)
	assert.NilError(t, err)
	assert.Equal(t, got, base)

	source, own, err := prism.ComponentSource[Position](world, child)
	assert.NilError(t, err)
	assert.Equal(t, source, base)
	assert.False(t, own)

	pos, err := prism.GetComponent[Position](world, child)
	assert.NilError(t, err)
	assert.Equal(t, pos.X, 6.0)

	// inherited components reject writes through the child.
	err = prism.SetComponent(world, child, &Position{X: 9})
	assert.ErrorIs(t, err, prism.ErrComponentNotOnEntity)
	err = prism.UpdateComponent(world, child, func(p *Position) *Position { return p })
	assert.ErrorIs(t, err, prism.ErrComponentNotOnEntity)

	assert.NilError(t, prism.StopInheriting(world, child))
	assert.NilError(t, world.Flush())
	_, err = prism.GetComponent[Position](world, child)
	assert.ErrorIs(t, err, prism.ErrComponentNotOnEntity)
}

func TestWorldSearchMatchesInheritedReadOnly(t *testing.T) {
	world := newWorldForTest(t)

	base, err := prism.Create(world, Position{X: 6})
	assert.NilError(t, err)
	child, err := prism.Create(world, Health{HP: 1})
	assert.NilError(t, err)
	assert.NilError(t, prism.InheritFrom(world, child, base))
	assert.NilError(t, world.Flush())

	posMeta, err := world.GetComponentByName("position")
	assert.NilError(t, err)

	readable, err := world.Search(filter.Contains(posMeta)).Count()
	assert.NilError(t, err)
	assert.Equal(t, readable, 2)

	mutable, err := world.SearchMutable(filter.Contains(posMeta)).Count()
	assert.NilError(t, err)
	assert.Equal(t, mutable, 1)
}

func TestComponentHooksAndDefer(t *testing.T) {
	world := newWorldForTest(t)

	var removed []types.EntityID
	err := prism.SetComponentHooks[Health](world, prism.ComponentHooks{
		OnRemove: func(ctx prism.HookContext) {
			entity := ctx.Entity
			ctx.World.Defer(func(*prism.World) error {
				removed = append(removed, entity)
				return nil
			})
		},
	})
	assert.NilError(t, err)

	id, err := prism.Create(world, Health{HP: 5})
	assert.NilError(t, err)
	assert.NilError(t, prism.RemoveComponentFrom[Health](world, id))
	assert.Len(t, removed, 0)
	assert.NilError(t, world.Flush())
	assert.DeepEqual(t, removed, []types.EntityID{id})
}

func TestDynamicComponents(t *testing.T) {
	world := newWorldForTest(t)

	meta, err := prism.RegisterComponentWithDescriptor(world, types.ComponentDescriptor{
		Name:    "loot_table",
		Storage: types.StorageSparseSet,
	})
	assert.NilError(t, err)

	id, err := prism.Create(world, Position{})
	assert.NilError(t, err)
	err = world.State().AddComponentsToEntity(id, gamestate.ComponentValue{
		Metadata: meta,
		Value:    map[string]any{"gold": float64(5)},
	})
	assert.NilError(t, err)

	value, err := world.State().GetComponentForEntity(id, meta)
	assert.NilError(t, err)
	assert.DeepEqual(t, value, map[string]any{"gold": float64(5)})
}

func TestCreateMany(t *testing.T) {
	world := newWorldForTest(t)

	ids, err := prism.CreateMany(world, 4, Position{}, Faction{Label: "red"})
	assert.NilError(t, err)
	assert.Len(t, ids, 4)
	for _, id := range ids {
		faction, err := prism.GetComponent[Faction](world, id)
		assert.NilError(t, err)
		assert.Equal(t, faction.Label, "red")
	}
}
