package gamestate

import (
	"sync/atomic"

	"github.com/rotisserie/eris"

	"github.com/prismecs/prism/statsd"
	"github.com/prismecs/prism/types"
)

// FragmentingValue is an immutable, reference-counted, type-erased canonical
// copy of one fragmenting component's value. The interning store owns the
// first copy; every other holder is a cheap handle to the same instance, so
// handle identity (pointer equality) is value identity.
type FragmentingValue struct {
	compID types.ComponentID
	hash   uint64
	// seq is a dense sequence number assigned at intern time. It gives value
	// sets an exact, collision-free map key without relying on the content hash.
	seq    uint64
	value  any
	vtable *types.ValueVtable
	// refs only needs to be race-free with respect to concurrent readers holding
	// a handle; mutators are already serialized by world access.
	refs atomic.Int64
}

// ComponentID returns the id of the component this value belongs to.
func (v *FragmentingValue) ComponentID() types.ComponentID {
	return v.compID
}

// Hash returns the 64-bit content hash computed at intern time.
func (v *FragmentingValue) Hash() uint64 {
	return v.hash
}

// Value returns the canonical owned copy. Callers must treat it as immutable.
func (v *FragmentingValue) Value() any {
	return v.value
}

func (v *FragmentingValue) retain() *FragmentingValue {
	v.refs.Add(1)
	return v
}

// BorrowedValue is a lightweight comparison key for one fragmenting component
// value: component id, content hash and the caller's (not cloned) value. It
// compares equal to an owned FragmentingValue without incurring a clone.
type BorrowedValue struct {
	CompID types.ComponentID
	Hash   uint64
	Value  any
	vtable *types.ValueVtable
}

type internKey struct {
	compID types.ComponentID
	hash   uint64
}

// ValueInterner is the content-addressed store of canonical fragmenting
// values. Two byte-equal values (as defined by the component's own equality
// vtable) interned for the same component id always yield the identical
// handle, regardless of call order.
type ValueInterner struct {
	// values buckets canonical entries by (component id, hash); hash collisions
	// are resolved by scanning the bucket with the vtable's equality.
	values  map[internKey][]*FragmentingValue
	nextSeq uint64
}

func newValueInterner() *ValueInterner {
	return &ValueInterner{
		values: map[internKey][]*FragmentingValue{},
	}
}

// Borrow returns a comparison key for the given component value, or false when
// the component does not fragment by value.
func (i *ValueInterner) Borrow(meta types.ComponentMetadata, value any) (BorrowedValue, bool) {
	vtable := meta.Vtable()
	if vtable == nil {
		return BorrowedValue{}, false
	}
	return BorrowedValue{
		CompID: meta.ID(),
		Hash:   vtable.Hash(value),
		Value:  value,
		vtable: vtable,
	}, true
}

// Intern looks up the canonical entry for the borrowed value. On a hit the
// existing handle's reference count is incremented and returned; on a miss the
// value is cloned via the vtable, wrapped in a fresh handle and inserted.
func (i *ValueInterner) Intern(bv BorrowedValue) (*FragmentingValue, error) {
	key := internKey{compID: bv.CompID, hash: bv.Hash}
	for _, existing := range i.values[key] {
		if bv.vtable.Equals(bv.Value, existing.value) {
			statsd.EmitInternLookup(true)
			return existing.retain(), nil
		}
	}

	statsd.EmitInternLookup(false)
	cloned, err := bv.vtable.Clone(bv.Value)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to clone fragmenting value for component %d", bv.CompID)
	}
	owned := &FragmentingValue{
		compID: bv.CompID,
		hash:   bv.Hash,
		seq:    i.nextSeq,
		value:  cloned,
		vtable: bv.vtable,
	}
	i.nextSeq++
	owned.refs.Store(1)
	i.values[key] = append(i.values[key], owned)
	return owned, nil
}

// release drops one reference. When the last reference drops, the canonical
// entry is evicted from the store.
func (i *ValueInterner) release(v *FragmentingValue) {
	if v.refs.Add(-1) > 0 {
		return
	}
	key := internKey{compID: v.compID, hash: v.hash}
	bucket := i.values[key]
	for idx, existing := range bucket {
		if existing == v {
			bucket[idx] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
	}
	if len(bucket) == 0 {
		delete(i.values, key)
	} else {
		i.values[key] = bucket
	}
}

// count returns the number of canonical entries currently interned for the
// given component id.
func (i *ValueInterner) count(compID types.ComponentID) int {
	n := 0
	for key, bucket := range i.values {
		if key.compID == compID {
			n += len(bucket)
		}
	}
	return n
}
