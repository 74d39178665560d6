package component

import (
	"bytes"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
	"github.com/wI2L/jsondiff"

	"github.com/prismecs/prism/codec"
	"github.com/prismecs/prism/types"
)

// Interface guard
var _ types.ComponentMetadata = (*componentMetadata[types.Component])(nil)

// Option is a type that can be passed to NewComponentMetadata to augment the creation
// of the component type.
type Option[T types.Component] func(c *componentMetadata[T])

// WithDefault sets the default value of the component when an entity is created without an
// explicit value.
func WithDefault[T types.Component](defaultVal T) Option[T] {
	return func(c *componentMetadata[T]) {
		c.defaultVal = defaultVal
	}
}

// componentMetadata represents a type of component. It is used to identify
// a component when getting or setting the component of an entity.
type componentMetadata[T types.Component] struct {
	isIDSet    bool
	id         types.ComponentID
	compType   reflect.Type
	name       string
	schema     []byte
	storage    types.StorageKind
	vtable     *types.ValueVtable
	defaultVal types.Component
}

// NewComponentMetadata creates a new component type. The component's storage
// kind and fragmenting vtable are derived from the marker interfaces the
// component type implements (types.SparseComponent, types.FragmentingComponent).
func NewComponentMetadata[T types.Component](opts ...Option[T]) (
	types.ComponentMetadata, error,
) {
	var t T
	compType := reflect.TypeOf(t)

	schema, err := jsonschema.ReflectFromType(compType).MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "component must be json serializable")
	}

	compMetadata := &componentMetadata[T]{
		compType: compType,
		name:     t.Name(),
		schema:   schema,
		storage:  types.StorageTable,
	}
	if _, ok := any(t).(types.SparseComponent); ok {
		compMetadata.storage = types.StorageSparseSet
	}
	if _, ok := any(t).(types.FragmentingComponent); ok {
		compMetadata.vtable = valueVtable[T]()
	}
	for _, opt := range opts {
		opt(compMetadata)
	}

	return compMetadata, nil
}

// valueVtable builds the default value operations for a fragmenting component:
// equality and hashing over the component's canonical encoding, cloning by an
// encode/decode round trip. The three functions agree by construction.
func valueVtable[T types.Component]() *types.ValueVtable {
	return &types.ValueVtable{
		Equals: func(a, b any) bool {
			ab, err := codec.Encode(a)
			if err != nil {
				return false
			}
			bb, err := codec.Encode(b)
			if err != nil {
				return false
			}
			return bytes.Equal(ab, bb)
		},
		Hash: func(v any) uint64 {
			bz, err := codec.Encode(v)
			if err != nil {
				return 0
			}
			return xxhash.Sum64(bz)
		},
		Clone: func(v any) (any, error) {
			bz, err := codec.Encode(v)
			if err != nil {
				return nil, err
			}
			return codec.Decode[T](bz)
		},
	}
}

func (c *componentMetadata[T]) GetSchema() []byte {
	return c.schema
}

// SetID sets this component's ID. It must be unique across the world object.
func (c *componentMetadata[T]) SetID(id types.ComponentID) error {
	if c.isIDSet {
		// Components are only initialized one time per world. In tests, it's often useful to use
		// the same component in multiple worlds. This check allows for re-initialization of
		// components, as long as the ID doesn't change.
		if id == c.id {
			return nil
		}
		return eris.Errorf("id for component %v is already set to %v, cannot change to %v", c, c.id, id)
	}
	c.id = id
	c.isIDSet = true
	return nil
}

// String returns the component type name.
func (c *componentMetadata[T]) String() string {
	return c.name
}

// Name returns the component type name.
func (c *componentMetadata[T]) Name() string {
	return c.name
}

// ID returns the component type id.
func (c *componentMetadata[T]) ID() types.ComponentID {
	return c.id
}

func (c *componentMetadata[T]) StorageKind() types.StorageKind {
	return c.storage
}

func (c *componentMetadata[T]) Vtable() *types.ValueVtable {
	return c.vtable
}

func (c *componentMetadata[T]) New() ([]byte, error) {
	if c.defaultVal != nil {
		return codec.Encode(c.defaultVal)
	}
	var t T
	return codec.Encode(t)
}

func (c *componentMetadata[T]) Encode(v any) ([]byte, error) {
	return codec.Encode(v)
}

func (c *componentMetadata[T]) Decode(bz []byte) (any, error) {
	return codec.Decode[T](bz)
}

// ValidateAgainstSchema compares this component's schema against a previously
// registered schema. A non-empty diff means the signatures do not match.
func ValidateAgainstSchema(schema, targetSchema []byte) error {
	diff, err := jsondiff.CompareJSON(schema, targetSchema)
	if err != nil {
		return eris.Wrap(err, "failed to compare component schema")
	}

	if diff.String() != "" {
		return eris.Wrap(types.ErrComponentSchemaMismatch, diff.String())
	}

	return nil
}
