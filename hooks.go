package prism

import (
	"github.com/prismecs/prism/gamestate"
	"github.com/prismecs/prism/types"
)

// HookContext identifies the entity and component a lifecycle hook fired for.
type HookContext struct {
	World     *World
	Entity    types.EntityID
	Component types.ComponentMetadata
}

// ComponentHooks observe a component's lifecycle on every entity. Hooks run
// synchronously inside the mutation that triggered them; they must not
// mutate entities directly but may enqueue work with World.Defer.
type ComponentHooks struct {
	// OnInsert fires after the component is first added to an entity.
	OnInsert func(ctx HookContext)
	// OnReplace fires before an existing value is overwritten.
	OnReplace func(ctx HookContext)
	// OnRemove fires before the component is removed, including removal
	// through entity destruction.
	OnRemove func(ctx HookContext)
}

// SetComponentHooks installs lifecycle hooks for the component type T,
// replacing any previously installed set.
func SetComponentHooks[T types.Component](w *World, hooks ComponentHooks) error {
	meta, err := getComponentMetadata[T](w)
	if err != nil {
		return err
	}
	w.state.SetHooks(meta.ID(), gamestate.Hooks{
		OnInsert: func(_ *gamestate.State, ctx gamestate.HookContext) {
			if hooks.OnInsert != nil {
				hooks.OnInsert(HookContext{World: w, Entity: ctx.Entity, Component: ctx.Component})
			}
		},
		OnReplace: func(_ *gamestate.State, ctx gamestate.HookContext) {
			if hooks.OnReplace != nil {
				hooks.OnReplace(HookContext{World: w, Entity: ctx.Entity, Component: ctx.Component})
			}
		},
		OnRemove: func(_ *gamestate.State, ctx gamestate.HookContext) {
			if hooks.OnRemove != nil {
				hooks.OnRemove(HookContext{World: w, Entity: ctx.Entity, Component: ctx.Component})
			}
		},
	})
	return nil
}

// Defer enqueues work to run at the next flush point. Commands addressing
// entities that no longer exist are dropped silently.
func (w *World) Defer(cmd func(w *World) error) {
	w.state.Defer(func(*gamestate.State) error {
		return cmd(w)
	})
}
