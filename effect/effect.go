// Package effect implements one interpreter per effect category. Each
// interpreter is a pure step: given the current state, an expected effect
// descriptor and the next observed event, it either consumes the event
// (mutating state and narrowing possibility sets) or rejects it untouched.
// Rejection is never an error; it is how optional and secondary effects
// terminate. Only a genuine contradiction produces an error.
package effect

import (
	"fmt"

	"pokewatch/dex"
	"pokewatch/events"
	"pokewatch/game"
)

// Outcome of interpreting one event against one expected effect.
type Outcome int

const (
	Rejected Outcome = iota
	Consumed
)

// Contradiction is the fatal error kind: an observed event (or the absence
// of a guaranteed one) is logically incompatible with every remaining
// hypothesis.
type Contradiction struct {
	Event    events.Event
	Expected string
	Err      error
}

func (c *Contradiction) Error() string {
	if c.Err != nil {
		return fmt.Sprintf("inference contradiction: %s: %v", c.Expected, c.Err)
	}
	return fmt.Sprintf("inference contradiction: %s", c.Expected)
}

func (c *Contradiction) Unwrap() error { return c.Err }

// Context names the actors of the move or trigger being interpreted. It
// resolves combatants through the state on every call, so the same context
// fields stay valid across trial clones of the snapshot.
type Context struct {
	State    *game.BattleState
	Cat      *dex.Catalogue
	UserSide string
	MoveID   string
}

// User returns the acting combatant.
func (c *Context) User() *game.Pokemon {
	return c.State.Team(c.UserSide).ActivePokemon()
}

// Foe returns the opposing combatant.
func (c *Context) Foe() *game.Pokemon {
	return c.State.Opponent(c.UserSide).ActivePokemon()
}

// SideFor resolves an effect target to a side id.
func (c *Context) SideFor(t dex.Target) string {
	if t == dex.Foe {
		return game.OpponentSide(c.UserSide)
	}
	return c.UserSide
}

// PokemonFor resolves an effect target to a combatant.
func (c *Context) PokemonFor(t dex.Target) *game.Pokemon {
	return c.State.Team(c.SideFor(t)).ActivePokemon()
}
