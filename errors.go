package prism

import (
	"github.com/prismecs/prism/gamestate"
)

// Sentinel errors surfaced by the world API. Test with eris.Is against
// eris.Cause of the returned error.
var (
	ErrEntityDoesNotExist          = gamestate.ErrEntityDoesNotExist
	ErrComponentNotRegistered      = gamestate.ErrComponentNotRegistered
	ErrComponentNotOnEntity        = gamestate.ErrComponentNotOnEntity
	ErrComponentAlreadyOnEntity    = gamestate.ErrComponentAlreadyOnEntity
	ErrComponentMismatchedRegistry = gamestate.ErrComponentMismatchedRegistry
)
