package types

import (
	"errors"
)

// ComponentID is a densely-allocated identifier for a registered component
// type. It is unique per (type, storage kind, key type) signature and is
// never reused while any archetype references it.
type ComponentID int

// StorageKind describes where a component's data lives.
type StorageKind int

const (
	// StorageTable components live in the contiguous column storage shared by
	// every archetype with the same table component set.
	StorageTable StorageKind = iota
	// StorageSparseSet components live in per-entity sparse storage and do not
	// affect table identity.
	StorageSparseSet
)

var (
	ErrComponentSchemaMismatch = errors.New("component schema does not match target schema")
)

// Component is the interface that the user needs to implement to create a new component type.
type Component interface {
	// Name returns the name of the component.
	Name() string
}

// FragmentingComponent marks a component whose value, not just its type,
// determines which archetype an entity occupies. Fragmenting components are
// immutable after insert; value-identical instances collapse into a single
// interned copy shared by every archetype keyed on it.
type FragmentingComponent interface {
	Component
	// FragmentByValue is a marker method; implementations are empty.
	FragmentByValue()
}

// SparseComponent marks a component stored in per-entity sparse storage
// instead of the archetype's table.
type SparseComponent interface {
	Component
	// SparseStorage is a marker method; implementations are empty.
	SparseStorage()
}

// ValueVtable bundles the value operations required of a fragmenting
// component. All three functions must agree: if Equals(a, b) then
// Hash(a) == Hash(b), and Clone must produce a value Equals to its input.
type ValueVtable struct {
	Equals func(a, b any) bool
	Hash   func(v any) uint64
	Clone  func(v any) (any, error)
}

// ComponentDescriptor describes a dynamically-registered component. It is
// owned by the registry and immutable after registration.
type ComponentDescriptor struct {
	Name    string
	Storage StorageKind
	// Vtable is non-nil only for components that fragment by value.
	Vtable *ValueVtable
}

// ComponentMetadata wraps the user-defined Component struct and provides functionalities that are
// used internally in the engine.
type ComponentMetadata interface { //revive:disable-line:exported
	// SetID sets the ComponentID of this component. It must only be set once.
	SetID(ComponentID) error
	// ID returns the ComponentID of the component.
	ID() ComponentID
	// StorageKind returns where this component's data lives.
	StorageKind() StorageKind
	// Vtable returns the value operations for fragmenting components, or nil
	// when the component does not fragment by value.
	Vtable() *ValueVtable
	// New returns the marshaled bytes of the default value for the component struct.
	New() ([]byte, error)
	Encode(any) ([]byte, error)
	Decode([]byte) (any, error)
	GetSchema() []byte

	Component
}

// ConvertComponentMetadatasToComponents casts an array of ComponentMetadata into an array of Component.
func ConvertComponentMetadatasToComponents(comps []ComponentMetadata) []Component {
	ret := make([]Component, len(comps))
	for i, comp := range comps {
		ret[i] = comp
	}
	return ret
}
