package parser

import (
	"pokewatch/game"
)

// ActionKind discriminates legal actions at a decision point.
type ActionKind string

const (
	ActionMove   ActionKind = "move"
	ActionSwitch ActionKind = "switch"
)

// Action is one legal choice the agent may submit.
type Action struct {
	Kind   ActionKind
	Move   string // catalogue move id for ActionMove
	Switch string // species id for ActionSwitch
}

// Actions derives the legal action set for a side at the current decision
// point: usable moves (or Struggle when none), plus bench switches. After a
// faint or a pending self-switch only switches remain; a locked rampage or
// charge move leaves exactly that move.
func (p *BattleParser) Actions(side string) []Action {
	team := p.state.Team(side)
	if team == nil {
		return nil
	}
	var acts []Action

	active := team.ActivePokemon()
	mustSwitch := active == nil || active.Fainted || team.Status.PendingSwitch
	trapped := false
	if !mustSwitch {
		acts = append(acts, moveActions(active)...)
		trapped = active.Vol.Trapped || active.Vol.RampageMove != "" || active.Vol.ChargeMove != ""
	}
	if !trapped {
		for _, member := range team.Roster {
			if member.Fainted || member == active {
				continue
			}
			acts = append(acts, Action{Kind: ActionSwitch, Switch: member.Species})
		}
	}
	return acts
}

func moveActions(active *game.Pokemon) []Action {
	if locked := active.Vol.RampageMove; locked != "" {
		return []Action{{Kind: ActionMove, Move: locked}}
	}
	if charging := active.Vol.ChargeMove; charging != "" {
		return []Action{{Kind: ActionMove, Move: charging}}
	}
	var acts []Action
	for _, slot := range active.Moves.Slots {
		if slot.PP <= 0 || slot.ID == active.Vol.DisabledMove {
			continue
		}
		acts = append(acts, Action{Kind: ActionMove, Move: slot.ID})
	}
	// With unrevealed slots remaining the opponent-model cannot rule moves
	// out, and our own side always has its full set revealed; an empty list
	// of usable moves means Struggle either way.
	if len(acts) == 0 {
		acts = append(acts, Action{Kind: ActionMove, Move: "struggle"})
	}
	return acts
}
