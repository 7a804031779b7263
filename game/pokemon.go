package game

import (
	"fmt"

	"golang.org/x/exp/slices"

	"pokewatch/dex"
)

// BoostStats are the boostable stat ids, in display order.
var BoostStats = []string{"atk", "def", "spa", "spd", "spe", "accuracy", "evasion"}

// HP is a current/max pair. Percent marks an opponent whose true maximum is
// displayed only as a percentage; Max is then 100 and may never become exact.
type HP struct {
	Cur     int
	Max     int
	Percent bool
}

// Pct returns current HP as a percentage of max.
func (h HP) Pct() int {
	if h.Max <= 0 {
		return 100
	}
	return h.Cur * 100 / h.Max
}

// MoveSlot is one revealed move: identity, remaining and maximum uses.
type MoveSlot struct {
	ID    string
	PP    int
	MaxPP int
}

// Moveset holds the revealed move slots of a combatant, in reveal order.
// Slots beyond the revealed ones stay latent; MaxSlots bounds the total.
type Moveset struct {
	Slots []*MoveSlot
}

// MaxSlots is the move-set capacity of a single combatant.
const MaxSlots = 4

// Get returns the slot for a move id, nil when unrevealed.
func (m *Moveset) Get(id string) *MoveSlot {
	for _, s := range m.Slots {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Reveal records that the combatant knows the move, without spending PP.
// Revealing an already-known move returns the existing slot.
func (m *Moveset) Reveal(id string, maxPP int) (*MoveSlot, error) {
	if s := m.Get(id); s != nil {
		return s, nil
	}
	if len(m.Slots) >= MaxSlots {
		return nil, fmt.Errorf("moveset: cannot reveal %s: all %d slots known", id, MaxSlots)
	}
	s := &MoveSlot{ID: id, PP: maxPP, MaxPP: maxPP}
	m.Slots = append(m.Slots, s)
	return s, nil
}

// Use reveals the move if needed and deducts one PP.
func (m *Moveset) Use(id string, maxPP int) (*MoveSlot, error) {
	s, err := m.Reveal(id, maxPP)
	if err != nil {
		return nil, err
	}
	if s.PP > 0 {
		s.PP--
	}
	return s, nil
}

// Clone returns a deep copy.
func (m *Moveset) Clone() Moveset {
	out := Moveset{Slots: make([]*MoveSlot, len(m.Slots))}
	for i, s := range m.Slots {
		cp := *s
		out.Slots[i] = &cp
	}
	return out
}

// MajorStatus is the at-most-one persistent condition: brn, par, psn, tox,
// slp or frz. Turns counts turns since infliction and is meaningful only
// while Current is non-empty. MinLeft/MaxLeft bound the remaining sleep
// duration while it is still uncertain.
type MajorStatus struct {
	Current string
	Turns   int
	MinLeft int
	MaxLeft int
}

// Active reports whether a status is in force.
func (s *MajorStatus) Active() bool { return s.Current != "" }

// Set inflicts a status, resetting the counter. Sleep gets the standard 1-3
// turn duration window; Rest-induced sleep is fixed by the caller afterward.
func (s *MajorStatus) Set(status string) {
	s.Current = status
	s.Turns = 0
	s.MinLeft, s.MaxLeft = 0, 0
	if status == "slp" {
		s.MinLeft, s.MaxLeft = 1, 3
	}
}

// Cure clears the status and its counter.
func (s *MajorStatus) Cure() {
	*s = MajorStatus{}
}

// Tick advances the counter by one turn and tightens duration bounds.
func (s *MajorStatus) Tick() {
	if !s.Active() {
		return
	}
	s.Turns++
	if s.MaxLeft > 0 {
		if s.MinLeft > 0 {
			s.MinLeft--
		}
		s.MaxLeft--
	}
}

// Volatile is the per-combatant state wiped on every switch-out.
type Volatile struct {
	Confused       bool
	ConfusionTurns int
	SubstituteHP   int
	Taunted        bool
	TauntTurns     int
	Encore         string
	EncoreTurns    int
	DisabledMove   string
	DisableTurns   int
	ChargeMove     string // two-turn move prepared and awaiting release
	Recharging     bool
	RampageMove    string
	RampageTurns   int
	LeechSeed      bool
	Trapped        bool
	Flinched       bool
	TypeOverride   []string // non-nil when a type-change effect is active

	Boosts map[string]int // stage -6..+6 per stat
}

// NewVolatile returns the empty bundle every switch-in starts from.
func NewVolatile() Volatile {
	return Volatile{Boosts: make(map[string]int)}
}

// Reset restores the fresh switch-in state.
func (v *Volatile) Reset() {
	*v = NewVolatile()
}

// Clone returns a deep copy.
func (v *Volatile) Clone() Volatile {
	out := *v
	out.Boosts = make(map[string]int, len(v.Boosts))
	for k, n := range v.Boosts {
		out.Boosts[k] = n
	}
	out.TypeOverride = slices.Clone(v.TypeOverride)
	return out
}

// Pokemon is one combatant. Identity fields are certain from the switch-in
// event; Ability and Item stay possibility sets until evidence confirms
// them.
type Pokemon struct {
	Species string
	Level   int
	Gender  string
	Types   []string

	Ability  *Possibility[dex.Ability]
	Item     *Possibility[dex.Item]
	LastItem *Possibility[dex.Item] // most recently consumed item

	Moves   Moveset
	HP      HP
	Status  MajorStatus
	Vol     Volatile
	Fainted bool
}

// NewPokemon creates a combatant on its first switch-in. The ability
// possibility is seeded from the species' legal pool, the item possibility
// from the full item table.
func NewPokemon(sp dex.Species, level int, gender string, cat *dex.Catalogue) *Pokemon {
	return &Pokemon{
		Species: sp.ID,
		Level:   level,
		Gender:  gender,
		Types:   slices.Clone(sp.Types),
		Ability: NewPossibility(cat.AbilityDomain(sp.Abilities)),
		Item:    NewPossibility(cat.ItemDomain()),
		Vol:     NewVolatile(),
		HP:      HP{Cur: 100, Max: 100, Percent: true},
	}
}

// CurrentTypes returns the effective types, honoring an active type-change.
func (p *Pokemon) CurrentTypes() []string {
	if p.Vol.TypeOverride != nil {
		return p.Vol.TypeOverride
	}
	return p.Types
}

// SwitchOut wipes volatile state. Major status, PP and HP persist.
func (p *Pokemon) SwitchOut() {
	p.Vol.Reset()
}

// ConfirmAbility narrows the ability set to a single observed ability.
func (p *Pokemon) ConfirmAbility(id string) error {
	return p.Ability.Narrow(id)
}

// ConfirmItem narrows the held-item set to a single observed item.
func (p *Pokemon) ConfirmItem(id string) error {
	return p.Item.Narrow(id)
}

// Clone returns a deep copy.
func (p *Pokemon) Clone() *Pokemon {
	out := *p
	out.Types = slices.Clone(p.Types)
	out.Ability = p.Ability.Clone()
	out.Item = p.Item.Clone()
	out.LastItem = p.LastItem.Clone()
	out.Moves = p.Moves.Clone()
	out.Vol = p.Vol.Clone()
	return &out
}
