package gamestate

import (
	"github.com/prismecs/prism/types"
)

// HookContext carries the entity and component a lifecycle hook fired for.
type HookContext struct {
	Entity    types.EntityID
	Component types.ComponentMetadata
}

// Hooks are per-component lifecycle observers. They run synchronously inside
// the mutation that triggered them, so they must not mutate entity state
// directly; instead they enqueue work with State.Defer, which runs at the
// next flush point.
type Hooks struct {
	// OnInsert fires after a component is first added to an entity.
	OnInsert func(s *State, ctx HookContext)
	// OnReplace fires before an existing component's value is overwritten.
	OnReplace func(s *State, ctx HookContext)
	// OnRemove fires before a component is removed from an entity, including
	// removal through entity destruction.
	OnRemove func(s *State, ctx HookContext)
}

// Command is a unit of deferred work executed at a flush point.
type Command func(s *State) error

// SetHooks installs lifecycle hooks for the given component, replacing any
// previously installed set.
func (s *State) SetHooks(compID types.ComponentID, h Hooks) {
	s.hooks[compID] = h
}

// Defer enqueues a command to run at the next flush point. Safe to call from
// hooks and from commands themselves; commands enqueued during a flush run in
// the same flush.
func (s *State) Defer(cmd Command) {
	s.commands = append(s.commands, cmd)
}

func (s *State) fireOnInsert(id types.EntityID, meta types.ComponentMetadata) {
	if h, ok := s.hooks[meta.ID()]; ok && h.OnInsert != nil {
		h.OnInsert(s, HookContext{Entity: id, Component: meta})
	}
}

func (s *State) fireOnReplace(id types.EntityID, meta types.ComponentMetadata) {
	if h, ok := s.hooks[meta.ID()]; ok && h.OnReplace != nil {
		h.OnReplace(s, HookContext{Entity: id, Component: meta})
	}
}

func (s *State) fireOnRemove(id types.EntityID, meta types.ComponentMetadata) {
	if h, ok := s.hooks[meta.ID()]; ok && h.OnRemove != nil {
		h.OnRemove(s, HookContext{Entity: id, Component: meta})
	}
}
