package gamestate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/prismecs/prism/types"
)

// FragmentingValueSet is a sorted collection of interned fragmenting values,
// at most one per component id. Together with the component id set it keys an
// archetype. Sets compare equal independent of insertion order because
// entries are kept sorted by component id.
type FragmentingValueSet struct {
	values []*FragmentingValue
}

var emptyValueSet = &FragmentingValueSet{}

// Len returns the number of fragmenting values in the set.
func (s *FragmentingValueSet) Len() int {
	return len(s.values)
}

// Get returns the interned value for the given component id, if present.
func (s *FragmentingValueSet) Get(compID types.ComponentID) (*FragmentingValue, bool) {
	idx := sort.Search(len(s.values), func(i int) bool {
		return s.values[i].compID >= compID
	})
	if idx < len(s.values) && s.values[idx].compID == compID {
		return s.values[idx], true
	}
	return nil, false
}

// Key renders the set's identity as a string: "cid:seq|cid:seq|..." in
// component id order, empty string for the empty set. Equal sets render equal
// keys and vice versa, since interned handles are canonical.
func (s *FragmentingValueSet) Key() string {
	if len(s.values) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, v := range s.values {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(strconv.Itoa(int(v.compID)))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatUint(v.seq, 10))
	}
	return sb.String()
}

// retain increments the reference count of every value in the set and returns
// the receiver.
func (s *FragmentingValueSet) retain() *FragmentingValueSet {
	for _, v := range s.values {
		v.retain()
	}
	return s
}

// release drops one reference from every value in the set.
func (s *FragmentingValueSet) release(interner *ValueInterner) {
	for _, v := range s.values {
		interner.release(v)
	}
}

// with returns a new set that is the receiver plus the given interned value,
// replacing any existing entry for the same component id. The returned set
// holds fresh references for every entry; the caller's reference to v is
// consumed. The replaced entry, if any, is returned so the caller can release
// it once the transition commits.
func (s *FragmentingValueSet) with(v *FragmentingValue) (*FragmentingValueSet, *FragmentingValue) {
	out := make([]*FragmentingValue, 0, len(s.values)+1)
	var replaced *FragmentingValue
	inserted := false
	for _, existing := range s.values {
		switch {
		case existing.compID == v.compID:
			replaced = existing
			out = append(out, v)
			inserted = true
		case existing.compID > v.compID && !inserted:
			out = append(out, v)
			out = append(out, existing.retain())
			inserted = true
		default:
			out = append(out, existing.retain())
		}
	}
	if !inserted {
		out = append(out, v)
	}
	return &FragmentingValueSet{values: out}, replaced
}

// without returns a new set that is the receiver minus any entries whose
// component id is in drop. Every retained entry gets a fresh reference.
func (s *FragmentingValueSet) without(drop map[types.ComponentID]bool) *FragmentingValueSet {
	out := make([]*FragmentingValue, 0, len(s.values))
	for _, existing := range s.values {
		if drop[existing.compID] {
			continue
		}
		out = append(out, existing.retain())
	}
	if len(out) == 0 {
		return emptyValueSet
	}
	return &FragmentingValueSet{values: out}
}

// cloneValueSet returns a copy of the set holding fresh references for every
// entry. The empty set is a shared singleton with no references to manage.
func cloneValueSet(s *FragmentingValueSet) *FragmentingValueSet {
	if len(s.values) == 0 {
		return emptyValueSet
	}
	out := make([]*FragmentingValue, len(s.values))
	for i, v := range s.values {
		out[i] = v.retain()
	}
	return &FragmentingValueSet{values: out}
}

// newValueSet builds a set from the given interned values, taking ownership of
// the caller's references. Values must have distinct component ids.
func newValueSet(values []*FragmentingValue) *FragmentingValueSet {
	if len(values) == 0 {
		return emptyValueSet
	}
	sorted := make([]*FragmentingValue, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].compID < sorted[j].compID
	})
	return &FragmentingValueSet{values: sorted}
}
