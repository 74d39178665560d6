package gamestate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/prismecs/prism/types"
)

// Location addresses one live entity: the archetype it lives in and its row
// within that archetype.
type Location struct {
	ArchID types.ArchetypeID
	Row    int
}

// InheritedComponent describes a component an archetype exposes through
// inheritance rather than owning it: the entity whose storage holds the data
// and the storage kind it lives in there.
type InheritedComponent struct {
	Source  types.EntityID
	Storage types.StorageKind
}

type edgeKey struct {
	bundle string
	values string
}

// archetypeEdges caches component-transition targets. Insert edges are keyed
// by the inserted bundle AND the resulting fragmenting-value identities, since
// the same bundle with different values lands in different archetypes. Edges
// accumulate for the lifetime of the graph.
type archetypeEdges struct {
	insertBundle     map[edgeKey]types.ArchetypeID
	removeComponents map[string]types.ArchetypeID
}

func newArchetypeEdges() *archetypeEdges {
	return &archetypeEdges{
		insertBundle:     map[edgeKey]types.ArchetypeID{},
		removeComponents: map[string]types.ArchetypeID{},
	}
}

// Archetype groups all entities carrying exactly the same component id set
// with exactly the same fragmenting values. Rows are swap-removed, so row
// order is not stable across removals.
type Archetype struct {
	id       types.ArchetypeID
	tableID  types.TableID
	compIDs  []types.ComponentID
	comps    []types.ComponentMetadata
	values   *FragmentingValueSet
	entities []types.EntityID
	edges    *archetypeEdges
	// inherited maps component ids this archetype can read but does not own to
	// the base entity whose storage holds the data.
	inherited map[types.ComponentID]InheritedComponent
}

// ID returns the archetype's id.
func (a *Archetype) ID() types.ArchetypeID {
	return a.id
}

// TableID returns the id of the table backing this archetype's table-storage
// columns.
func (a *Archetype) TableID() types.TableID {
	return a.tableID
}

// Components returns the metadata of the components every entity in this
// archetype owns.
func (a *Archetype) Components() []types.ComponentMetadata {
	return a.comps
}

// Values returns the fragmenting-value set shared by every entity in this
// archetype.
func (a *Archetype) Values() *FragmentingValueSet {
	return a.values
}

// Count returns the number of entities currently in the archetype.
func (a *Archetype) Count() int {
	return len(a.entities)
}

// Entities returns the entities currently in the archetype, indexed by row.
func (a *Archetype) Entities() []types.EntityID {
	return a.entities
}

// HasComponent reports whether the archetype owns the given component.
func (a *Archetype) HasComponent(compID types.ComponentID) bool {
	idx := sort.Search(len(a.compIDs), func(i int) bool {
		return a.compIDs[i] >= compID
	})
	return idx < len(a.compIDs) && a.compIDs[idx] == compID
}

// InheritedSource returns the base entity providing the given component
// through inheritance, if the archetype inherits it.
func (a *Archetype) InheritedSource(compID types.ComponentID) (types.EntityID, bool) {
	ic, ok := a.inherited[compID]
	return ic.Source, ok
}

// InsertEdgeCount returns how many cached insert edges lead out of this
// archetype. Edges accumulate per (bundle, resulting value set) and are never
// evicted.
func (a *Archetype) InsertEdgeCount() int {
	return len(a.edges.insertBundle)
}

// pushRow appends the entity and returns its row.
func (a *Archetype) pushRow(id types.EntityID) int {
	a.entities = append(a.entities, id)
	return len(a.entities) - 1
}

// swapRemoveRow removes the given row, moving the last row into its place.
// It returns the entity that moved into the vacated row, if any.
func (a *Archetype) swapRemoveRow(row int) (moved types.EntityID, ok bool) {
	last := len(a.entities) - 1
	if row != last {
		a.entities[row] = a.entities[last]
		moved, ok = a.entities[row], true
	}
	a.entities = a.entities[:last]
	return moved, ok
}

// Table backs the table-storage columns of one or more archetypes. Archetypes
// that differ only in sparse-set components or fragmenting values share a
// table.
type Table struct {
	id      types.TableID
	compIDs []types.ComponentID
	// archetypes lists every archetype backed by this table.
	archetypes []types.ArchetypeID
	// inherited maps table-storage components inherited by this table's
	// archetypes to the providing base entity. Sparse-set inherited
	// components are tracked per archetype instead.
	inherited map[types.ComponentID]types.EntityID
}

// ID returns the table's id.
func (t *Table) ID() types.TableID {
	return t.id
}

// ArchetypeCount returns how many archetypes share this table.
func (t *Table) ArchetypeCount() int {
	return len(t.archetypes)
}

func (t *Table) addArchetype(archID types.ArchetypeID) {
	t.archetypes = append(t.archetypes, archID)
}

// compsKey renders a sorted component id slice as a stable string key.
func compsKey(compIDs []types.ComponentID) string {
	var sb strings.Builder
	for i, id := range compIDs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(id)))
	}
	return sb.String()
}

// sortedCompIDs returns the component ids of the given metadata, sorted and
// deduplicated.
func sortedCompIDs(comps []types.ComponentMetadata) []types.ComponentID {
	ids := make([]types.ComponentID, 0, len(comps))
	for _, c := range comps {
		ids = append(ids, c.ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return out
}
