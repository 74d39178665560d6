package gamestate

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/prismecs/prism/component"
	"github.com/prismecs/prism/types"
)

// InheritFrom establishes component inheritance. The entity carrying it (the
// child) can read every component of Base it does not own itself, including
// components Base in turn inherits. Inherited access is read-only through the
// child; writes go to the owning entity.
//
// InheritFrom fragments by value, so children of different bases occupy
// different archetypes even when their own component sets match.
//
// Inheritance cycles are not detected. Resolution under a cycle stays safe
// and terminates, but which entity sources a component both sides provide is
// unspecified.
type InheritFrom struct {
	Base types.EntityID `json:"base"`
}

func (InheritFrom) Name() string { return "inherit_from" }

func (InheritFrom) FragmentByValue() {}

// Inherited marks an entity as the base of at least one InheritFrom
// relationship. The engine maintains it: it appears when the first child
// attaches and disappears when the last child detaches. Removing it by hand
// severs every child.
type Inherited struct{}

func (Inherited) Name() string { return "inherited" }

func (Inherited) SparseStorage() {}

// inheritIndex tracks the base<->marker bijection behind component
// inheritance. Each base entity gets a synthesized zero-size table component
// (its marker); every child carries the base's marker, so "all children of
// base" is an ordinary component index lookup.
type inheritIndex struct {
	state           *State
	inheritFromMeta types.ComponentMetadata
	inheritedMeta   types.ComponentMetadata
	baseToMarker    map[types.EntityID]types.ComponentMetadata
	markerToBase    map[types.ComponentID]types.EntityID
}

func newInheritIndex(s *State) *inheritIndex {
	inheritFromMeta, err := component.NewComponentMetadata[InheritFrom]()
	if err != nil {
		panic(eris.ToString(err, true))
	}
	inheritedMeta, err := component.NewComponentMetadata[Inherited]()
	if err != nil {
		panic(eris.ToString(err, true))
	}
	if _, err := s.registry.Register(inheritFromMeta); err != nil {
		panic(eris.ToString(err, true))
	}
	if _, err := s.registry.Register(inheritedMeta); err != nil {
		panic(eris.ToString(err, true))
	}

	idx := &inheritIndex{
		state:           s,
		inheritFromMeta: inheritFromMeta,
		inheritedMeta:   inheritedMeta,
		baseToMarker:    map[types.EntityID]types.ComponentMetadata{},
		markerToBase:    map[types.ComponentID]types.EntityID{},
	}

	s.SetHooks(inheritFromMeta.ID(), Hooks{
		OnInsert: func(s *State, ctx HookContext) {
			s.Defer(idx.attachChild(ctx.Entity))
		},
		OnReplace: func(s *State, ctx HookContext) {
			// the old value is still readable here; capture the base being left
			// before the overwrite lands.
			if old, err := s.GetComponentForEntity(ctx.Entity, inheritFromMeta); err == nil {
				if rel, ok := old.(InheritFrom); ok {
					s.Defer(idx.detachChild(ctx.Entity, rel.Base))
				}
			}
			s.Defer(idx.attachChild(ctx.Entity))
		},
		OnRemove: func(s *State, ctx HookContext) {
			if old, err := s.GetComponentForEntity(ctx.Entity, inheritFromMeta); err == nil {
				if rel, ok := old.(InheritFrom); ok {
					s.Defer(idx.detachChild(ctx.Entity, rel.Base))
				}
			}
		},
	})
	s.SetHooks(inheritedMeta.ID(), Hooks{
		OnRemove: func(s *State, ctx HookContext) {
			s.Defer(idx.teardownBase(ctx.Entity))
		},
	})
	return idx
}

// InheritFromMetadata returns the metadata of the InheritFrom component.
func (s *State) InheritFromMetadata() types.ComponentMetadata {
	return s.inherit.inheritFromMeta
}

// InheritedMetadata returns the metadata of the Inherited marker component.
func (s *State) InheritedMetadata() types.ComponentMetadata {
	return s.inherit.inheritedMeta
}

// isBookkeeping reports whether the component exists to track inheritance
// itself. Bookkeeping components are never part of an inherited overlay.
func (idx *inheritIndex) isBookkeeping(compID types.ComponentID) bool {
	if compID == idx.inheritFromMeta.ID() || compID == idx.inheritedMeta.ID() {
		return true
	}
	_, isMarker := idx.markerToBase[compID]
	return isMarker
}

// markerFor returns the synthesized marker component for the given base,
// creating and registering it on first use and stamping the base with the
// Inherited component.
func (idx *inheritIndex) markerFor(base types.EntityID) (types.ComponentMetadata, error) {
	if m, ok := idx.baseToMarker[base]; ok {
		return m, nil
	}
	s := idx.state
	name := fmt.Sprintf("inherited_marker_%d", base)
	meta, err := s.registry.GetComponentByName(name)
	if err != nil {
		// registry ids are immortal, so a torn-down marker re-registers under
		// its old id when the same base gains children again.
		meta, err = component.NewDynamicComponentMetadata(types.ComponentDescriptor{
			Name:    name,
			Storage: types.StorageTable,
		})
		if err != nil {
			return nil, err
		}
		if _, err := s.registry.Register(meta); err != nil {
			return nil, err
		}
	}
	idx.baseToMarker[base] = meta
	idx.markerToBase[meta.ID()] = base

	baseArch, err := s.GetArchetypeForEntity(base)
	if err != nil {
		return nil, err
	}
	if !baseArch.HasComponent(idx.inheritedMeta.ID()) {
		if err := s.AddComponentsToEntity(base, ComponentValue{
			Metadata: idx.inheritedMeta,
			Value:    Inherited{},
		}); err != nil {
			return nil, err
		}
	}
	return meta, nil
}

// attachChild is the deferred half of InheritFrom insertion: it stamps the
// child with the base's marker component, which pulls the child into an
// archetype whose inherited overlay includes the base's components.
func (idx *inheritIndex) attachChild(child types.EntityID) Command {
	return func(s *State) error {
		rel, err := s.GetComponentForEntity(child, idx.inheritFromMeta)
		if err != nil {
			// the relationship was removed (or the child despawned) before the
			// flush; the matching detach command does the cleanup.
			if eris.Is(eris.Cause(err), ErrComponentNotOnEntity) {
				return nil
			}
			return err
		}
		inheritFrom, ok := rel.(InheritFrom)
		if !ok {
			return eris.Errorf("inherit_from on entity %d has unexpected type %T", child, rel)
		}
		// cycles, self-edges included, are allowed: the overlay only carries
		// components the archetype does not own, and move propagation keeps a
		// visited set, so resolution stays well-defined.
		base := inheritFrom.Base
		if !s.EntityExists(base) {
			return eris.Wrapf(ErrEntityDoesNotExist, "inheritance base %d of entity %d", base, child)
		}
		marker, err := idx.markerFor(base)
		if err != nil {
			return err
		}
		return s.AddComponentsToEntity(child, ComponentValue{Metadata: marker, Value: struct{}{}})
	}
}

// detachChild is the deferred half of InheritFrom removal: it strips the
// base's marker from the child and, when the last child detaches, removes the
// base's Inherited component, which tears down the bijection.
func (idx *inheritIndex) detachChild(child types.EntityID, base types.EntityID) Command {
	return func(s *State) error {
		marker, ok := idx.baseToMarker[base]
		if !ok {
			return nil
		}
		if s.EntityExists(child) {
			if arch, err := s.GetArchetypeForEntity(child); err == nil && arch.HasComponent(marker.ID()) {
				if err := s.RemoveComponentsFromEntity(child, marker); err != nil {
					return err
				}
			}
		}
		if idx.hasChildren(base) {
			return nil
		}
		if s.EntityExists(base) {
			if arch, err := s.GetArchetypeForEntity(base); err == nil && arch.HasComponent(idx.inheritedMeta.ID()) {
				return s.RemoveComponentsFromEntity(base, idx.inheritedMeta)
			}
		}
		return nil
	}
}

// teardownBase severs every remaining child of the base and deletes the
// base<->marker bijection. It runs when the base loses its Inherited
// component, whether by the last child detaching, an explicit removal, or the
// base's destruction.
func (idx *inheritIndex) teardownBase(base types.EntityID) Command {
	return func(s *State) error {
		marker, ok := idx.baseToMarker[base]
		if !ok {
			return nil
		}
		delete(idx.baseToMarker, base)
		delete(idx.markerToBase, marker.ID())

		var affected []*Archetype
		for archID, rec := range s.componentIndex[marker.ID()] {
			if rec.IsInherited {
				continue
			}
			affected = append(affected, s.archetypes[archID])
		}
		for _, a := range affected {
			// removal moves carriers out of the archetype; snapshot the rows.
			carriers := make([]types.EntityID, len(a.entities))
			copy(carriers, a.entities)
			for _, child := range carriers {
				toRemove := []types.ComponentMetadata{marker}
				if rel, err := s.GetComponentForEntity(child, idx.inheritFromMeta); err == nil {
					if inheritFrom, ok := rel.(InheritFrom); ok && inheritFrom.Base == base {
						toRemove = append(toRemove, idx.inheritFromMeta)
					}
				}
				if err := s.RemoveComponentsFromEntity(child, toRemove...); err != nil {
					return err
				}
			}
		}
		// the marker's archetypes are now unreachable; clear their stale
		// overlays so the component index stays truthful.
		tables := map[types.TableID]bool{}
		for _, a := range affected {
			idx.recomputeArchetype(a)
			tables[a.tableID] = true
		}
		for tableID := range tables {
			idx.rebuildTableOverlay(s.tables[tableID])
		}
		return nil
	}
}

// hasChildren reports whether any live entity still carries the base's
// marker component.
func (idx *inheritIndex) hasChildren(base types.EntityID) bool {
	marker, ok := idx.baseToMarker[base]
	if !ok {
		return false
	}
	for archID, rec := range idx.state.componentIndex[marker.ID()] {
		if rec.IsInherited {
			continue
		}
		if idx.state.archetypes[archID].Count() > 0 {
			return true
		}
	}
	return false
}

// initArchetype computes the inherited overlay of a freshly created
// archetype from the markers it owns.
func (idx *inheritIndex) initArchetype(a *Archetype) error {
	for _, compID := range a.compIDs {
		base, ok := idx.markerToBase[compID]
		if !ok {
			continue
		}
		idx.applyOverlay(a, base)
	}
	return nil
}

// applyOverlay merges the base's readable components into the archetype's
// inherited overlay: the base's own components plus everything the base in
// turn inherits. Components the archetype owns shadow the overlay; when two
// bases provide the same component, the first marker (lowest component id,
// i.e. earliest attachment) wins.
func (idx *inheritIndex) applyOverlay(a *Archetype, base types.EntityID) {
	s := idx.state
	baseArch, err := s.GetArchetypeForEntity(base)
	if err != nil {
		return
	}
	for _, m := range baseArch.comps {
		if idx.isBookkeeping(m.ID()) {
			continue
		}
		idx.addInherited(a, m.ID(), InheritedComponent{Source: base, Storage: m.StorageKind()})
	}
	for compID, ic := range baseArch.inherited {
		idx.addInherited(a, compID, ic)
	}
}

func (idx *inheritIndex) addInherited(a *Archetype, compID types.ComponentID, ic InheritedComponent) {
	if a.HasComponent(compID) {
		return
	}
	if _, taken := a.inherited[compID]; taken {
		return
	}
	a.inherited[compID] = ic

	s := idx.state
	recs, ok := s.componentIndex[compID]
	if !ok {
		recs = map[types.ArchetypeID]ArchetypeRecord{}
		s.componentIndex[compID] = recs
	}
	if _, owned := recs[a.id]; !owned {
		recs[a.id] = ArchetypeRecord{Column: -1, IsInherited: true}
	}
	if ic.Storage == types.StorageTable {
		t := s.tables[a.tableID]
		if _, ok := t.inherited[compID]; !ok {
			t.inherited[compID] = ic.Source
		}
	}
}

// recomputeArchetype rebuilds the archetype's inherited overlay from scratch
// and fixes up the component index for overlay entries that disappeared.
func (idx *inheritIndex) recomputeArchetype(a *Archetype) {
	old := a.inherited
	a.inherited = map[types.ComponentID]InheritedComponent{}
	for _, compID := range a.compIDs {
		base, ok := idx.markerToBase[compID]
		if !ok {
			continue
		}
		idx.applyOverlay(a, base)
	}
	for compID := range old {
		if _, still := a.inherited[compID]; still {
			continue
		}
		if recs, ok := idx.state.componentIndex[compID]; ok {
			if rec, present := recs[a.id]; present && rec.IsInherited {
				delete(recs, a.id)
			}
		}
	}
}

// rebuildTableOverlay recomputes a table's inherited table-storage components
// from the archetypes that share it.
func (idx *inheritIndex) rebuildTableOverlay(t *Table) {
	s := idx.state
	t.inherited = map[types.ComponentID]types.EntityID{}
	for _, archID := range t.archetypes {
		for compID, ic := range s.archetypes[archID].inherited {
			if ic.Storage != types.StorageTable {
				continue
			}
			if _, ok := t.inherited[compID]; !ok {
				t.inherited[compID] = ic.Source
			}
		}
	}
}

// onEntityMoved propagates archetype moves of base entities to their
// children: every archetype carrying the base's marker recomputes its
// overlay, and children that are themselves bases propagate further,
// breadth-first with a visited set so diamond-shaped inheritance terminates.
func (idx *inheritIndex) onEntityMoved(id types.EntityID, from, to *Archetype) {
	if _, isBase := idx.baseToMarker[id]; !isBase {
		return
	}
	s := idx.state
	frontier := []types.EntityID{id}
	processed := map[types.EntityID]bool{}
	tables := map[types.TableID]bool{}
	updateTables := from.tableID != to.tableID

	for len(frontier) > 0 {
		base := frontier[0]
		frontier = frontier[1:]
		if processed[base] {
			continue
		}
		processed[base] = true
		marker, ok := idx.baseToMarker[base]
		if !ok {
			continue
		}
		for archID, rec := range s.componentIndex[marker.ID()] {
			if rec.IsInherited {
				continue
			}
			a := s.archetypes[archID]
			idx.recomputeArchetype(a)
			tables[a.tableID] = true
			for _, child := range a.entities {
				if _, childIsBase := idx.baseToMarker[child]; childIsBase {
					frontier = append(frontier, child)
				}
			}
		}
	}
	if updateTables {
		for tableID := range tables {
			idx.rebuildTableOverlay(s.tables[tableID])
		}
	}
}
