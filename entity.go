package prism

import (
	"github.com/rotisserie/eris"

	"github.com/prismecs/prism/gamestate"
	ecslog "github.com/prismecs/prism/log"
	"github.com/prismecs/prism/types"
)

// Create makes a single entity carrying the given components and returns its
// id. Every component type must already be registered with the world.
func Create(w *World, components ...types.Component) (types.EntityID, error) {
	ids, err := CreateMany(w, 1, components...)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// CreateMany makes num entities, each carrying the given components. All of
// them land in the same archetype.
func CreateMany(w *World, num int, components ...types.Component) ([]types.EntityID, error) {
	values, err := toComponentValues(w, components)
	if err != nil {
		return nil, err
	}
	ids, err := w.state.CreateManyEntities(num, values...)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		ecslog.EntityCreated(w.Logger, id, len(components))
	}
	return ids, nil
}

func toComponentValues(w *World, components []types.Component) ([]gamestate.ComponentValue, error) {
	values := make([]gamestate.ComponentValue, 0, len(components))
	for _, c := range components {
		meta, err := w.registry.GetComponentByName(c.Name())
		if err != nil {
			return nil, err
		}
		values = append(values, gamestate.ComponentValue{Metadata: meta, Value: c})
	}
	return values, nil
}

// Components returns the components the entity owns, in registration order.
// Components it merely inherits are not included.
func Components(w *World, id types.EntityID) ([]types.Component, error) {
	arch, err := w.state.GetArchetypeForEntity(id)
	if err != nil {
		return nil, err
	}
	return types.ConvertComponentMetadatasToComponents(arch.Components()), nil
}

// Remove destroys the given entity. Components it owns fire their OnRemove
// hooks; inheritance relationships it participates in are torn down at the
// next flush.
func Remove(w *World, id types.EntityID) error {
	return w.state.RemoveEntity(id)
}

// AddComponentTo adds the component type T, with its default value, to the
// given entity. Adding a component the entity already owns is an error; an
// inherited component may be added, and the entity's own copy then shadows
// the inherited one.
func AddComponentTo[T types.Component](w *World, id types.EntityID) error {
	meta, err := getComponentMetadata[T](w)
	if err != nil {
		return err
	}
	_, own, err := w.state.ResolveComponent(id, meta.ID())
	if err == nil && own {
		return eris.Wrapf(gamestate.ErrComponentAlreadyOnEntity, "component %q on entity %d", meta.Name(), id)
	}
	if err != nil && !eris.Is(eris.Cause(err), gamestate.ErrComponentNotOnEntity) {
		return err
	}
	bz, err := meta.New()
	if err != nil {
		return err
	}
	value, err := meta.Decode(bz)
	if err != nil {
		return err
	}
	return w.state.AddComponentsToEntity(id, gamestate.ComponentValue{Metadata: meta, Value: value})
}

// SetComponent writes the given component value onto the entity. The entity
// must own the component; a component it merely inherits is read-only through
// it. Writing a new value to a fragmenting component moves the entity to the
// archetype keyed by that value.
func SetComponent[T types.Component](w *World, id types.EntityID, comp *T) error {
	meta, err := getComponentMetadata[T](w)
	if err != nil {
		return err
	}
	return w.state.SetComponentForEntity(id, meta, *comp)
}

// GetComponent returns the entity's view of the component type T: its own
// value when it owns one, otherwise the value of the base entity providing it
// through inheritance.
func GetComponent[T types.Component](w *World, id types.EntityID) (*T, error) {
	meta, err := getComponentMetadata[T](w)
	if err != nil {
		return nil, err
	}
	value, err := w.state.GetComponentForEntity(id, meta)
	if err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case T:
		return &v, nil
	case *T:
		return v, nil
	default:
		// values placed through the untyped API round-trip through the codec.
		bz, err := meta.Encode(value)
		if err != nil {
			return nil, err
		}
		decoded, err := meta.Decode(bz)
		if err != nil {
			return nil, err
		}
		t, ok := decoded.(T)
		if !ok {
			return nil, eris.Errorf("component %q has unexpected type %T", meta.Name(), value)
		}
		return &t, nil
	}
}

// UpdateComponent reads the entity's own copy of T, applies fn, and writes
// the result back. Entities that only inherit T cannot be updated through it.
func UpdateComponent[T types.Component](w *World, id types.EntityID, fn func(*T) *T) error {
	meta, err := getComponentMetadata[T](w)
	if err != nil {
		return err
	}
	if _, own, err := w.state.ResolveComponent(id, meta.ID()); err != nil {
		return err
	} else if !own {
		return eris.Wrapf(gamestate.ErrComponentNotOnEntity,
			"component %q is inherited by entity %d and cannot be updated through it", meta.Name(), id)
	}
	value, err := GetComponent[T](w, id)
	if err != nil {
		return err
	}
	updated := fn(value)
	return SetComponent(w, id, updated)
}

// RemoveComponentFrom strips the component type T from the entity. The entity
// must own the component.
func RemoveComponentFrom[T types.Component](w *World, id types.EntityID) error {
	meta, err := getComponentMetadata[T](w)
	if err != nil {
		return err
	}
	return w.state.RemoveComponentsFromEntity(id, meta)
}

// ComponentSource reports where the entity's view of T comes from: the
// entity itself (own == true) or the base providing it through inheritance.
func ComponentSource[T types.Component](w *World, id types.EntityID) (source types.EntityID, own bool, err error) {
	meta, err := getComponentMetadata[T](w)
	if err != nil {
		return 0, false, err
	}
	return w.state.ResolveComponent(id, meta.ID())
}
