package prism

import (
	"github.com/prismecs/prism/gamestate"
	"github.com/prismecs/prism/types"
)

// InheritFrom makes child inherit from base: child can read every component
// of base it does not own itself, including components base in turn
// inherits. The relationship takes effect at the next flush. A child
// inherits from at most one base; calling InheritFrom again rebases it.
func InheritFrom(w *World, child, base types.EntityID) error {
	meta := w.state.InheritFromMetadata()
	return w.state.AddComponentsToEntity(child, gamestate.ComponentValue{
		Metadata: meta,
		Value:    gamestate.InheritFrom{Base: base},
	})
}

// StopInheriting severs the child's inheritance relationship. The inherited
// components disappear from the child at the next flush; when the child was
// the base's last child, the base stops being a base.
func StopInheriting(w *World, child types.EntityID) error {
	return w.state.RemoveComponentsFromEntity(child, w.state.InheritFromMetadata())
}

// InheritanceBase returns the base the child currently inherits from.
func InheritanceBase(w *World, child types.EntityID) (types.EntityID, error) {
	value, err := w.state.GetComponentForEntity(child, w.state.InheritFromMetadata())
	if err != nil {
		return 0, err
	}
	return value.(gamestate.InheritFrom).Base, nil
}
