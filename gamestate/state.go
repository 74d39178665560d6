package gamestate

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/prismecs/prism/statsd"
	"github.com/prismecs/prism/types"
)

// ComponentValue pairs a component's metadata with a concrete value, ready to
// be placed on an entity.
type ComponentValue struct {
	Metadata types.ComponentMetadata
	Value    any
}

// ArchetypeRecord says where a component's data sits relative to one
// archetype: the column in the backing table for table storage (-1 for
// sparse-set storage), and whether the archetype merely inherits the
// component from a base entity.
type ArchetypeRecord struct {
	Column      int
	IsInherited bool
}

type compKey struct {
	compID   types.ComponentID
	entityID types.EntityID
}

// State is the authoritative world state: the entity allocator, the archetype
// graph with its cached edges, the component index, the value interning store
// and the deferred command queue. It is not safe for concurrent mutation.
type State struct {
	registry *Registry
	interner *ValueInterner
	logger   *zerolog.Logger

	nextEntityID types.EntityID
	locations    map[types.EntityID]Location

	archetypes []*Archetype
	archByKey  map[string]types.ArchetypeID
	tables     []*Table
	tableByKey map[string]types.TableID

	// componentIndex answers "which archetypes involve component C" without
	// scanning the graph; inherited involvement is flagged on the record.
	componentIndex map[types.ComponentID]map[types.ArchetypeID]ArchetypeRecord

	compValues map[compKey]any

	hooks    map[types.ComponentID]Hooks
	commands []Command
	flushing bool

	inherit *inheritIndex
}

// NewState creates an empty world state over the given component registry.
// The empty archetype (no components, no fragmenting values) always exists
// and is the spawn point of every entity.
func NewState(registry *Registry, logger *zerolog.Logger) *State {
	s := &State{
		registry:       registry,
		interner:       newValueInterner(),
		logger:         logger,
		locations:      map[types.EntityID]Location{},
		archByKey:      map[string]types.ArchetypeID{},
		tableByKey:     map[string]types.TableID{},
		componentIndex: map[types.ComponentID]map[types.ArchetypeID]ArchetypeRecord{},
		compValues:     map[compKey]any{},
		hooks:          map[types.ComponentID]Hooks{},
	}
	s.inherit = newInheritIndex(s)
	// archetype 0 / table 0: the empty archetype.
	if _, err := s.getOrMakeArchetype(nil, nil, emptyValueSet); err != nil {
		panic(eris.ToString(err, true))
	}
	return s
}

// Registry returns the component registry this state was built over.
func (s *State) Registry() *Registry {
	return s.registry
}

// Logger returns the state's logger.
func (s *State) Logger() *zerolog.Logger {
	return s.logger
}

// Archetypes returns every archetype created so far, indexed by id.
func (s *State) Archetypes() []*Archetype {
	return s.archetypes
}

// ArchetypeCount returns the number of archetypes created so far, including
// the empty archetype.
func (s *State) ArchetypeCount() int {
	return len(s.archetypes)
}

// TableCount returns the number of tables created so far.
func (s *State) TableCount() int {
	return len(s.tables)
}

// InternedValueCount returns how many distinct canonical values are currently
// interned for the given component.
func (s *State) InternedValueCount(compID types.ComponentID) int {
	return s.interner.count(compID)
}

// EntityExists reports whether the given entity is alive.
func (s *State) EntityExists(id types.EntityID) bool {
	_, ok := s.locations[id]
	return ok
}

// GetArchetypeForEntity returns the archetype the entity currently lives in.
func (s *State) GetArchetypeForEntity(id types.EntityID) (*Archetype, error) {
	loc, ok := s.locations[id]
	if !ok {
		return nil, eris.Wrapf(ErrEntityDoesNotExist, "entity %d", id)
	}
	return s.archetypes[loc.ArchID], nil
}

// ReadableComponents returns everything an entity in the given archetype can
// read: its own components followed by its inherited overlay.
func (s *State) ReadableComponents(a *Archetype) ([]types.ComponentMetadata, error) {
	if len(a.inherited) == 0 {
		return a.comps, nil
	}
	out := make([]types.ComponentMetadata, 0, len(a.comps)+len(a.inherited))
	out = append(out, a.comps...)
	for compID := range a.inherited {
		meta, err := s.registry.GetComponentInfo(compID)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

// ArchetypesWith returns the index records for every archetype that involves
// the given component, keyed by archetype id. Inherited involvement carries
// IsInherited on the record.
func (s *State) ArchetypesWith(compID types.ComponentID) map[types.ArchetypeID]ArchetypeRecord {
	return s.componentIndex[compID]
}

// CreateEntity makes a single entity carrying the given components and
// returns its id.
func (s *State) CreateEntity(values ...ComponentValue) (types.EntityID, error) {
	ids, err := s.CreateManyEntities(1, values...)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// CreateManyEntities makes num entities, each carrying the given components.
// All spawned entities land in the same archetype.
func (s *State) CreateManyEntities(num int, values ...ComponentValue) ([]types.EntityID, error) {
	out := make([]types.EntityID, 0, num)
	for i := 0; i < num; i++ {
		id := s.nextEntityID
		s.nextEntityID++
		// every entity starts in the empty archetype, so the spawn bundle
		// travels the same cached edge as any later insert of that bundle.
		empty := s.archetypes[0]
		row := empty.pushRow(id)
		s.locations[id] = Location{ArchID: 0, Row: row}
		out = append(out, id)
		if len(values) > 0 {
			if err := s.AddComponentsToEntity(id, values...); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// AddComponentsToEntity places the given component values on the entity.
// Components the entity already owns get their value replaced (firing
// OnReplace); new components fire OnInsert. Inserting a fragmenting component
// with a different value moves the entity to the archetype keyed by the new
// value.
func (s *State) AddComponentsToEntity(id types.EntityID, values ...ComponentValue) error {
	if len(values) == 0 {
		return nil
	}
	loc, ok := s.locations[id]
	if !ok {
		return eris.Wrapf(ErrEntityDoesNotExist, "entity %d", id)
	}
	for _, cv := range values {
		if err := s.registry.validate(cv.Metadata); err != nil {
			return err
		}
	}
	from := s.archetypes[loc.ArchID]

	target, err := s.insertTarget(from, values)
	if err != nil {
		return err
	}

	// hooks fire around the value write: OnReplace before an overwrite,
	// OnInsert after a fresh component lands.
	var fresh []types.ComponentMetadata
	for _, cv := range values {
		key := compKey{compID: cv.Metadata.ID(), entityID: id}
		if _, owned := s.compValues[key]; owned {
			s.fireOnReplace(id, cv.Metadata)
		} else {
			fresh = append(fresh, cv.Metadata)
		}
		s.compValues[key] = cv.Value
	}

	if target != from {
		s.moveEntity(id, target)
	}
	for _, meta := range fresh {
		s.fireOnInsert(id, meta)
	}
	return nil
}

// insertTarget resolves the archetype an entity in `from` lands in after
// inserting the given bundle, consulting and populating the cached insert
// edges.
func (s *State) insertTarget(from *Archetype, values []ComponentValue) (*Archetype, error) {
	metas := make([]types.ComponentMetadata, len(values))
	for i, cv := range values {
		metas[i] = cv.Metadata
	}
	bundleKey := compsKey(sortedCompIDs(metas))

	// fold the inserted fragmenting values into the source archetype's set.
	candidate := from.values
	for _, cv := range values {
		bv, fragmenting := s.interner.Borrow(cv.Metadata, cv.Value)
		if !fragmenting {
			continue
		}
		owned, err := s.interner.Intern(bv)
		if err != nil {
			return nil, err
		}
		next, _ := candidate.with(owned)
		if candidate != from.values {
			candidate.release(s.interner)
		}
		candidate = next
	}
	releaseCandidate := func() {
		if candidate != from.values {
			candidate.release(s.interner)
		}
	}

	key := edgeKey{bundle: bundleKey, values: candidate.Key()}
	if archID, ok := from.edges.insertBundle[key]; ok {
		releaseCandidate()
		return s.archetypes[archID], nil
	}

	union := make([]types.ComponentMetadata, 0, len(from.comps)+len(metas))
	union = append(union, from.comps...)
	for _, m := range metas {
		if !from.HasComponent(m.ID()) {
			union = append(union, m)
		}
	}
	if candidate == from.values {
		// getOrMakeArchetype takes ownership of the set it is handed; the
		// source archetype keeps its own references.
		candidate = cloneValueSet(from.values)
	}
	target, err := s.getOrMakeArchetype(union, dedupMetas(union), candidate)
	if err != nil {
		return nil, err
	}
	from.edges.insertBundle[key] = target.id
	return target, nil
}

// RemoveComponentsFromEntity strips the given components from the entity.
// Every named component must be owned by the entity; components only
// reachable through inheritance cannot be removed from it.
func (s *State) RemoveComponentsFromEntity(id types.EntityID, metas ...types.ComponentMetadata) error {
	if len(metas) == 0 {
		return nil
	}
	loc, ok := s.locations[id]
	if !ok {
		return eris.Wrapf(ErrEntityDoesNotExist, "entity %d", id)
	}
	from := s.archetypes[loc.ArchID]
	drop := map[types.ComponentID]bool{}
	for _, m := range metas {
		if err := s.registry.validate(m); err != nil {
			return err
		}
		if !from.HasComponent(m.ID()) {
			return eris.Wrapf(ErrComponentNotOnEntity, "component %q on entity %d", m.Name(), id)
		}
		drop[m.ID()] = true
	}

	bundleKey := compsKey(sortedCompIDs(metas))
	var target *Archetype
	if archID, ok := from.edges.removeComponents[bundleKey]; ok {
		target = s.archetypes[archID]
	} else {
		remaining := make([]types.ComponentMetadata, 0, len(from.comps))
		for _, m := range from.comps {
			if !drop[m.ID()] {
				remaining = append(remaining, m)
			}
		}
		var err error
		target, err = s.getOrMakeArchetype(remaining, remaining, from.values.without(drop))
		if err != nil {
			return err
		}
		from.edges.removeComponents[bundleKey] = target.id
	}

	for _, m := range metas {
		s.fireOnRemove(id, m)
	}
	for _, m := range metas {
		delete(s.compValues, compKey{compID: m.ID(), entityID: id})
	}
	if target != from {
		s.moveEntity(id, target)
	}
	return nil
}

// RemoveEntity destroys the entity, firing OnRemove for every component it
// owns. Inherited relationships the entity participates in are torn down
// through those hooks at the next flush point.
func (s *State) RemoveEntity(id types.EntityID) error {
	loc, ok := s.locations[id]
	if !ok {
		return eris.Wrapf(ErrEntityDoesNotExist, "entity %d", id)
	}
	a := s.archetypes[loc.ArchID]
	for _, m := range a.comps {
		s.fireOnRemove(id, m)
	}
	for _, m := range a.comps {
		delete(s.compValues, compKey{compID: m.ID(), entityID: id})
	}
	if moved, ok := a.swapRemoveRow(loc.Row); ok {
		movedLoc := s.locations[moved]
		movedLoc.Row = loc.Row
		s.locations[moved] = movedLoc
	}
	delete(s.locations, id)
	s.logger.Debug().Uint64("entity_id", uint64(id)).Msg("removed entity")
	return nil
}

// ResolveComponent answers where an entity's view of a component comes from:
// the entity itself (own == true) or the base entity providing it through
// inheritance.
func (s *State) ResolveComponent(id types.EntityID, compID types.ComponentID) (source types.EntityID, own bool, err error) {
	loc, ok := s.locations[id]
	if !ok {
		return 0, false, eris.Wrapf(ErrEntityDoesNotExist, "entity %d", id)
	}
	a := s.archetypes[loc.ArchID]
	if a.HasComponent(compID) {
		return id, true, nil
	}
	if ic, ok := a.inherited[compID]; ok {
		return ic.Source, false, nil
	}
	return 0, false, eris.Wrapf(ErrComponentNotOnEntity, "component %d on entity %d", compID, id)
}

// GetComponentForEntity returns the entity's view of the component: its own
// value when it owns one, otherwise the providing base's value.
func (s *State) GetComponentForEntity(id types.EntityID, meta types.ComponentMetadata) (any, error) {
	if err := s.registry.validate(meta); err != nil {
		return nil, err
	}
	source, _, err := s.ResolveComponent(id, meta.ID())
	if err != nil {
		return nil, err
	}
	value, ok := s.compValues[compKey{compID: meta.ID(), entityID: source}]
	if !ok {
		return nil, eris.Wrapf(ErrComponentNotOnEntity, "component %q on entity %d", meta.Name(), id)
	}
	return value, nil
}

// SetComponentForEntity overwrites a component the entity owns. Writing to a
// component the entity only inherits is rejected; inherited data is read-only
// through the inheriting entity.
func (s *State) SetComponentForEntity(id types.EntityID, meta types.ComponentMetadata, value any) error {
	if err := s.registry.validate(meta); err != nil {
		return err
	}
	_, own, err := s.ResolveComponent(id, meta.ID())
	if err != nil {
		return err
	}
	if !own {
		return eris.Wrapf(ErrComponentNotOnEntity, "component %q is inherited by entity %d and cannot be written through it", meta.Name(), id)
	}
	return s.AddComponentsToEntity(id, ComponentValue{Metadata: meta, Value: value})
}

// Flush runs the deferred command queue to exhaustion: commands enqueued by
// commands run in the same flush. Commands addressing entities that no longer
// exist are dropped silently; any other command failure aborts the flush.
func (s *State) Flush() error {
	if s.flushing {
		return nil
	}
	s.flushing = true
	defer func() { s.flushing = false }()

	start := time.Now()
	executed := 0
	for len(s.commands) > 0 {
		cmd := s.commands[0]
		s.commands = s.commands[1:]
		if err := cmd(s); err != nil {
			if eris.Is(eris.Cause(err), ErrEntityDoesNotExist) {
				continue
			}
			return eris.Wrap(err, "failed to flush deferred commands")
		}
		executed++
	}
	statsd.EmitFlushStat(start, executed)
	return nil
}

// moveEntity relocates a live entity into the target archetype, patching the
// location of whichever entity got swapped into its old row. Component data
// does not move; it is keyed by entity, not by row.
func (s *State) moveEntity(id types.EntityID, target *Archetype) {
	loc := s.locations[id]
	from := s.archetypes[loc.ArchID]
	if moved, ok := from.swapRemoveRow(loc.Row); ok {
		movedLoc := s.locations[moved]
		movedLoc.Row = loc.Row
		s.locations[moved] = movedLoc
	}
	row := target.pushRow(id)
	s.locations[id] = Location{ArchID: target.id, Row: row}

	s.inherit.onEntityMoved(id, from, target)
}

// getOrMakeArchetype returns the archetype keyed by the given component set
// and fragmenting-value set, creating it (and its backing table) on first
// use. Ownership of the value set's references transfers to this call: a
// newly created archetype keeps them, a lookup hit releases them.
func (s *State) getOrMakeArchetype(
	comps []types.ComponentMetadata,
	dedup []types.ComponentMetadata,
	values *FragmentingValueSet,
) (*Archetype, error) {
	compIDs := sortedCompIDs(comps)
	key := compsKey(compIDs) + "#" + values.Key()
	if archID, ok := s.archByKey[key]; ok {
		values.release(s.interner)
		return s.archetypes[archID], nil
	}

	table := s.getOrMakeTable(dedup)
	a := &Archetype{
		id:        types.ArchetypeID(len(s.archetypes)),
		tableID:   table.id,
		compIDs:   compIDs,
		comps:     sortMetasByID(dedup),
		values:    values,
		edges:     newArchetypeEdges(),
		inherited: map[types.ComponentID]InheritedComponent{},
	}
	s.archetypes = append(s.archetypes, a)
	s.archByKey[key] = a.id
	table.addArchetype(a.id)

	for _, m := range a.comps {
		col := -1
		if m.StorageKind() == types.StorageTable {
			col = tableColumn(table, m.ID())
		}
		recs, ok := s.componentIndex[m.ID()]
		if !ok {
			recs = map[types.ArchetypeID]ArchetypeRecord{}
			s.componentIndex[m.ID()] = recs
		}
		recs[a.id] = ArchetypeRecord{Column: col}
	}

	if err := s.inherit.initArchetype(a); err != nil {
		return nil, err
	}

	statsd.EmitArchetypeCreated(values.Len() > 0)
	s.logger.Debug().
		Int("archetype_id", int(a.id)).
		Int("table_id", int(table.id)).
		Int("component_count", len(a.comps)).
		Int("fragmenting_value_count", values.Len()).
		Msg("created archetype")
	return a, nil
}

// getOrMakeTable returns the table backing the table-storage subset of the
// given components. Archetypes that differ only in sparse-set components or
// fragmenting values resolve to the same table.
func (s *State) getOrMakeTable(comps []types.ComponentMetadata) *Table {
	var tableComps []types.ComponentMetadata
	for _, m := range comps {
		if m.StorageKind() == types.StorageTable {
			tableComps = append(tableComps, m)
		}
	}
	sorted := sortedCompIDs(tableComps)
	key := compsKey(sorted)
	if tableID, ok := s.tableByKey[key]; ok {
		return s.tables[tableID]
	}
	t := &Table{
		id:        types.TableID(len(s.tables)),
		compIDs:   sorted,
		inherited: map[types.ComponentID]types.EntityID{},
	}
	s.tables = append(s.tables, t)
	s.tableByKey[key] = t.id
	return t
}

func tableColumn(t *Table, compID types.ComponentID) int {
	for i, id := range t.compIDs {
		if id == compID {
			return i
		}
	}
	return -1
}

func dedupMetas(metas []types.ComponentMetadata) []types.ComponentMetadata {
	seen := map[types.ComponentID]bool{}
	out := make([]types.ComponentMetadata, 0, len(metas))
	for _, m := range metas {
		if seen[m.ID()] {
			continue
		}
		seen[m.ID()] = true
		out = append(out, m)
	}
	return out
}

func sortMetasByID(metas []types.ComponentMetadata) []types.ComponentMetadata {
	out := make([]types.ComponentMetadata, len(metas))
	copy(out, metas)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].ID() > out[j].ID(); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
