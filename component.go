package prism

import (
	"github.com/rotisserie/eris"

	"github.com/prismecs/prism/component"
	ecslog "github.com/prismecs/prism/log"
	"github.com/prismecs/prism/types"
)

// RegisterComponent registers the component type T with the world.
// Registration is idempotent per component signature; registering a different
// type under the same name is an error. Storage and fragmenting behavior
// follow the marker interfaces T implements.
func RegisterComponent[T types.Component](w *World, opts ...component.Option[T]) error {
	meta, err := component.NewComponentMetadata[T](opts...)
	if err != nil {
		return err
	}
	id, err := w.registry.Register(meta)
	if err != nil {
		return eris.Wrapf(err, "failed to register component %q", meta.Name())
	}
	ecslog.ComponentRegistered(w.Logger, meta.Name(), id, meta.StorageKind())
	return nil
}

// RegisterComponentWithDescriptor registers a component whose shape is only
// known at runtime. The returned metadata is the handle for placing and
// reading the component, since there is no Go type to look it up by.
func RegisterComponentWithDescriptor(w *World, desc types.ComponentDescriptor) (types.ComponentMetadata, error) {
	meta, err := component.NewDynamicComponentMetadata(desc)
	if err != nil {
		return nil, err
	}
	id, err := w.registry.Register(meta)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to register component %q", desc.Name)
	}
	ecslog.ComponentRegistered(w.Logger, meta.Name(), id, meta.StorageKind())
	return meta, nil
}

// GetComponentByName returns the metadata registered under the given name.
func (w *World) GetComponentByName(name string) (types.ComponentMetadata, error) {
	return w.registry.GetComponentByName(name)
}

// getComponentMetadata resolves the registered metadata for the component
// type T.
func getComponentMetadata[T types.Component](w *World) (types.ComponentMetadata, error) {
	var t T
	return w.registry.GetComponentByName(t.Name())
}
