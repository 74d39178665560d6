package gamestate

import (
	"github.com/rotisserie/eris"

	"github.com/prismecs/prism/component"
	"github.com/prismecs/prism/types"
)

// Registry assigns dense ComponentIDs to component metadata. Components are
// immortal: there is no removal operation, matching the append-only archetype
// design. Registration is idempotent per component signature; re-registering a
// name with a different schema is an error.
type Registry struct {
	components []types.ComponentMetadata
	byName     map[string]types.ComponentMetadata
}

// NewRegistry creates an empty component registry.
func NewRegistry() *Registry {
	return &Registry{
		components: make([]types.ComponentMetadata, 0),
		byName:     map[string]types.ComponentMetadata{},
	}
}

// Register assigns a ComponentID to the given metadata. If metadata with the
// same name and schema was already registered, the existing ID is returned.
func (r *Registry) Register(meta types.ComponentMetadata) (types.ComponentID, error) {
	if existing, ok := r.byName[meta.Name()]; ok {
		// dynamically-registered components carry no schema; their signature is
		// the name alone.
		if meta.GetSchema() != nil || existing.GetSchema() != nil {
			if err := component.ValidateAgainstSchema(meta.GetSchema(), existing.GetSchema()); err != nil {
				return 0, eris.Wrapf(err, "component %q already registered with a different signature", meta.Name())
			}
		}
		// Idempotent re-registration. Stamp the ID onto the caller's metadata so
		// both instances agree.
		if err := meta.SetID(existing.ID()); err != nil {
			return 0, err
		}
		return existing.ID(), nil
	}

	id := types.ComponentID(len(r.components))
	if err := meta.SetID(id); err != nil {
		return 0, err
	}
	r.components = append(r.components, meta)
	r.byName[meta.Name()] = meta
	return id, nil
}

// GetComponentInfo returns the metadata registered for the given id.
func (r *Registry) GetComponentInfo(id types.ComponentID) (types.ComponentMetadata, error) {
	if id < 0 || int(id) >= len(r.components) {
		return nil, eris.Wrapf(ErrComponentNotRegistered, "component id %d", id)
	}
	return r.components[int(id)], nil
}

// GetComponentByName returns the metadata registered under the given name.
func (r *Registry) GetComponentByName(name string) (types.ComponentMetadata, error) {
	meta, ok := r.byName[name]
	if !ok {
		return nil, eris.Wrapf(ErrComponentNotRegistered, "component %q", name)
	}
	return meta, nil
}

// validate returns an error when the given metadata was not registered with
// this registry instance. IDs minted by another world's registry are rejected
// even when they happen to be in range.
func (r *Registry) validate(meta types.ComponentMetadata) error {
	id := meta.ID()
	if id < 0 || int(id) >= len(r.components) {
		return eris.Wrapf(ErrComponentNotRegistered, "component %q (id %d)", meta.Name(), id)
	}
	if r.components[int(id)] != meta {
		return eris.Wrapf(ErrComponentMismatchedRegistry, "component %q (id %d)", meta.Name(), id)
	}
	return nil
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	return len(r.components)
}
