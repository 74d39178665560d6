package component

import (
	"github.com/rotisserie/eris"

	"github.com/prismecs/prism/codec"
	"github.com/prismecs/prism/types"
)

var _ types.ComponentMetadata = (*dynamicMetadata)(nil)

// dynamicMetadata backs components registered from a ComponentDescriptor at
// runtime rather than from a Go type. The engine uses it for the synthesized
// per-base marker components; callers can use it for components whose shape is
// only known at runtime.
type dynamicMetadata struct {
	isIDSet bool
	id      types.ComponentID
	desc    types.ComponentDescriptor
}

// NewDynamicComponentMetadata creates component metadata from a descriptor.
// Dynamic components have no schema; their values round-trip through the
// generic codec.
func NewDynamicComponentMetadata(desc types.ComponentDescriptor) (types.ComponentMetadata, error) {
	if desc.Name == "" {
		return nil, eris.New("component descriptor must have a name")
	}
	return &dynamicMetadata{desc: desc}, nil
}

func (c *dynamicMetadata) SetID(id types.ComponentID) error {
	if c.isIDSet {
		if id == c.id {
			return nil
		}
		return eris.Errorf("id for component %q is already set to %v, cannot change to %v", c.desc.Name, c.id, id)
	}
	c.id = id
	c.isIDSet = true
	return nil
}

func (c *dynamicMetadata) ID() types.ComponentID {
	return c.id
}

func (c *dynamicMetadata) Name() string {
	return c.desc.Name
}

func (c *dynamicMetadata) StorageKind() types.StorageKind {
	return c.desc.Storage
}

func (c *dynamicMetadata) Vtable() *types.ValueVtable {
	return c.desc.Vtable
}

func (c *dynamicMetadata) GetSchema() []byte {
	return nil
}

func (c *dynamicMetadata) New() ([]byte, error) {
	return codec.Encode(struct{}{})
}

func (c *dynamicMetadata) Encode(v any) ([]byte, error) {
	return codec.Encode(v)
}

func (c *dynamicMetadata) Decode(bz []byte) (any, error) {
	return codec.Decode[any](bz)
}
