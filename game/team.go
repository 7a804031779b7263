package game

import (
	"fmt"

	"pokewatch/dex"
	"pokewatch/utils"
)

// MaxRoster is the largest roster a team can reveal.
const MaxRoster = 6

// TempCondition is a ticking side or room condition. TurnsLeft -1 means the
// duration is unknown or indefinite.
type TempCondition struct {
	Active    bool
	TurnsLeft int
}

// Start activates the condition with the given duration.
func (c *TempCondition) Start(turns int) {
	c.Active = true
	c.TurnsLeft = turns
}

// End deactivates the condition.
func (c *TempCondition) End() {
	*c = TempCondition{}
}

// Tick counts one turn down; expiry is only ever confirmed by an end event,
// so TurnsLeft may reach 0 while the condition stays active.
func (c *TempCondition) Tick() {
	if c.Active && c.TurnsLeft > 0 {
		c.TurnsLeft--
	}
}

// TeamStatus is team-wide state: screens, hazards and pending effects.
type TeamStatus struct {
	Reflect     TempCondition
	LightScreen TempCondition

	Spikes      int // layers 0-3
	ToxicSpikes int // layers 0-2
	StealthRock bool

	WishTurns     int // countdown to a pending Wish heal, 0 inactive
	PendingSwitch bool
}

// Team is one player's side: the revealed roster, the active slot and the
// team-wide status.
type Team struct {
	Side   string
	Roster []*Pokemon
	// Size is the authoritative roster size once learned at first reveal,
	// 0 while still unknown.
	Size   int
	Active int // roster index, -1 during the switch transition
	Status TeamStatus
	// LastMove is the catalogue id of the last move this side used, used to
	// validate mirror-style call effects.
	LastMove string
}

// NewTeam creates an empty side.
func NewTeam(side string) *Team {
	return &Team{Side: side, Active: -1}
}

// ActivePokemon returns the combatant currently on the field, nil mid-switch.
func (t *Team) ActivePokemon() *Pokemon {
	if t.Active < 0 || t.Active >= len(t.Roster) {
		return nil
	}
	return t.Roster[t.Active]
}

// Find returns the roster member for a species, nil if never revealed.
func (t *Team) Find(species string) *Pokemon {
	for _, p := range t.Roster {
		if p.Species == species {
			return p
		}
	}
	return nil
}

// SwitchIn brings a combatant onto the field, creating it on first reveal.
// The outgoing combatant loses its volatile state; the incoming one starts
// from a fresh bundle whether or not it has fought before.
func (t *Team) SwitchIn(sp dex.Species, level int, gender string, cat *dex.Catalogue) (*Pokemon, error) {
	if prev := t.ActivePokemon(); prev != nil {
		prev.SwitchOut()
	}
	t.Active = -1

	p := t.Find(sp.ID)
	if p == nil {
		limit := t.Size
		if limit == 0 {
			limit = MaxRoster
		}
		if len(t.Roster) >= limit {
			return nil, fmt.Errorf("team %s: roster already has %d members, cannot add %s", t.Side, limit, sp.ID)
		}
		p = NewPokemon(sp, level, gender, cat)
		t.Roster = append(t.Roster, p)
	}
	p.Vol.Reset()
	t.Active = utils.FindIndex(t.Roster, p)
	t.Status.PendingSwitch = false
	return p, nil
}

// FaintActive marks the active combatant fainted and forces a switch.
func (t *Team) FaintActive() error {
	p := t.ActivePokemon()
	if p == nil {
		return fmt.Errorf("team %s: faint with no active combatant", t.Side)
	}
	p.Fainted = true
	p.HP.Cur = 0
	p.SwitchOut()
	t.Active = -1
	t.Status.PendingSwitch = true
	return nil
}

// AllFainted reports whether every revealed member is down and the roster is
// fully revealed.
func (t *Team) AllFainted() bool {
	if t.Size == 0 || len(t.Roster) < t.Size {
		return false
	}
	for _, p := range t.Roster {
		if !p.Fainted {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (t *Team) Clone() *Team {
	out := *t
	out.Roster = make([]*Pokemon, len(t.Roster))
	for i, p := range t.Roster {
		out.Roster[i] = p.Clone()
	}
	return &out
}
