// Package dex holds the static rule catalogue: every move, ability and item
// the parser can reason about, each mapped to an ordered list of effect
// descriptors. The catalogue is immutable after load and is passed explicitly
// into the parser; there is no ambient global table.
package dex

import (
	"strings"
	"unicode"
)

// EffectKind is the closed set of effect categories. The interpreter
// dispatcher switches over this exhaustively; an unknown kind is a load-time
// error, never a runtime surprise.
type EffectKind string

const (
	EffStatus      EffectKind = "status"
	EffBoost       EffectKind = "boost"
	EffSetBoost    EffectKind = "setBoost"
	EffSwapBoosts  EffectKind = "swapBoosts"
	EffClearBoosts EffectKind = "clearBoosts"
	EffHeal        EffectKind = "heal"
	EffDrain       EffectKind = "drain"
	EffRecoil      EffectKind = "recoil"
	EffSide        EffectKind = "side"
	EffField       EffectKind = "field"
	EffWeather     EffectKind = "weather"
	EffVolatile    EffectKind = "volatile"
	EffTypeChange  EffectKind = "typeChange"
	EffDisable     EffectKind = "disable"
	EffTwoTurn     EffectKind = "twoTurn"
	EffCall        EffectKind = "call"
	EffSelfSwitch  EffectKind = "selfSwitch"
	EffSelfFaint   EffectKind = "selfFaint"
	EffWish        EffectKind = "wish"
	EffRampage     EffectKind = "rampage"
	EffRecharge    EffectKind = "recharge"
)

// Target says which side of the interaction an effect lands on.
type Target string

const (
	Self Target = "self"
	Foe  Target = "foe"
)

// CallKind classifies move-calling moves. For "self" and "target" calls the
// called move belongs to a real move-set, but its PP is never deducted from
// the caller's slots.
type CallKind string

const (
	CallAny    CallKind = "any"    // metronome: any move at all
	CallSelf   CallKind = "self"   // sleep talk: one of the user's own moves
	CallTarget CallKind = "target" // mirror move: the move last used against the user
	CallLast   CallKind = "last"   // copycat: the last move used in the battle
)

// Condition gates an effect. A zero Condition is always satisfied.
type Condition struct {
	HPBelow    int    `yaml:"hpBelow,omitempty"`    // percent of max HP, exclusive
	TargetType string `yaml:"targetType,omitempty"` // effect requires the target to have this type
	Unaffected bool   `yaml:"unaffected,omitempty"` // 100% only while the target is not already affected
}

// Effect is one catalogue entry consequence: category, target, activation
// chance and payload. Chance 0 is shorthand for 100 (guaranteed).
type Effect struct {
	Kind   EffectKind `yaml:"kind"`
	Target Target     `yaml:"target,omitempty"`
	Chance int        `yaml:"chance,omitempty"`

	Status   string   `yaml:"status,omitempty"`
	Stat     string   `yaml:"stat,omitempty"`
	Stages   int      `yaml:"stages,omitempty"`
	Volatile string   `yaml:"volatile,omitempty"`
	Side     string   `yaml:"side,omitempty"`
	Field    string   `yaml:"field,omitempty"`
	Weather  string   `yaml:"weather,omitempty"`
	Fraction int      `yaml:"fraction,omitempty"` // percent of max HP, or of damage dealt for drain/recoil
	Types    []string `yaml:"types,omitempty"`
	Call     CallKind `yaml:"call,omitempty"`

	Cond *Condition `yaml:"cond,omitempty"`
}

// Guaranteed reports whether the effect always fires when its precondition
// holds. Absence of a guaranteed effect's event is itself evidence.
func (e Effect) Guaranteed() bool {
	return e.Chance == 0 || e.Chance >= 100
}

// TargetOrDefault resolves the effect target; damage-adjacent effects default
// to the foe, everything else to self.
func (e Effect) TargetOrDefault() Target {
	if e.Target != "" {
		return e.Target
	}
	switch e.Kind {
	case EffStatus, EffVolatile, EffDisable, EffTypeChange, EffSwapBoosts:
		return Foe
	}
	return Self
}

// Move is one catalogue move entry. Effects are ordered the way their events
// appear on the wire.
type Move struct {
	ID      string   `yaml:"-"`
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Class   string   `yaml:"class"` // physical | special | status
	Power   int      `yaml:"power,omitempty"`
	PP      int      `yaml:"pp"`
	Effects []Effect `yaml:"effects,omitempty"`
}

// Damaging reports whether the move deals direct damage.
func (m Move) Damaging() bool { return m.Class != "status" }

// Ability describes what an ability can block or cause; that is all the
// inference engine needs from it.
type Ability struct {
	ID   string `yaml:"-"`
	Name string `yaml:"name"`

	BlocksStatus    []string `yaml:"blocksStatus,omitempty"`
	BlocksVolatile  []string `yaml:"blocksVolatile,omitempty"`
	BlocksBoostDrop bool     `yaml:"blocksBoostDrop,omitempty"`
	ImmuneType      string   `yaml:"immuneType,omitempty"`
	OnEntryWeather  string   `yaml:"onEntryWeather,omitempty"`
}

// BlocksMajorStatus reports whether the ability prevents the given major
// status from being applied to its holder.
func (a Ability) BlocksMajorStatus(status string) bool {
	for _, s := range a.BlocksStatus {
		if s == status {
			return true
		}
	}
	return false
}

// BlocksVolatileStatus reports whether the ability prevents the given
// volatile status.
func (a Ability) BlocksVolatileStatus(v string) bool {
	for _, s := range a.BlocksVolatile {
		if s == v {
			return true
		}
	}
	return false
}

// Item is one catalogue item entry, reduced to the behaviors the parser must
// infer from events.
type Item struct {
	ID   string `yaml:"-"`
	Name string `yaml:"name"`

	Berry          bool   `yaml:"berry,omitempty"`
	ShortensCharge bool   `yaml:"shortensCharge,omitempty"` // power herb
	ExtendsScreens bool   `yaml:"extendsScreens,omitempty"` // light clay
	ExtendsWeather string `yaml:"extendsWeather,omitempty"` // damp rock and friends
}

// Species carries the revealed-on-sight facts plus the legal ability pool,
// which seeds a fresh combatant's ability possibility set.
type Species struct {
	ID        string   `yaml:"-"`
	Name      string   `yaml:"name"`
	Types     []string `yaml:"types"`
	Abilities []string `yaml:"abilities"`
	BaseHP    int      `yaml:"baseHP,omitempty"`
}

// statusTypeImmunity lists the types inherently immune to each major status.
var statusTypeImmunity = map[string][]string{
	"psn": {"poison", "steel"},
	"tox": {"poison", "steel"},
	"brn": {"fire"},
	"par": {"electric"},
	"frz": {"ice"},
}

// StatusTypeImmune reports whether a combatant with the given types cannot
// receive the given major status, regardless of ability.
func StatusTypeImmune(status string, types []string) bool {
	for _, immune := range statusTypeImmunity[status] {
		for _, t := range types {
			if t == immune {
				return true
			}
		}
	}
	return false
}

// typeImmunity lists defender types fully immune to each attacking type.
var typeImmunity = map[string][]string{
	"normal":   {"ghost"},
	"fighting": {"ghost"},
	"ground":   {"flying"},
	"electric": {"ground"},
	"poison":   {"steel"},
	"psychic":  {"dark"},
	"ghost":    {"normal"},
}

// TypeImmune reports whether a defender with the given types takes no damage
// from moves of the given type, before abilities are considered.
func TypeImmune(moveType string, defenderTypes []string) bool {
	for _, immune := range typeImmunity[moveType] {
		for _, t := range defenderTypes {
			if t == immune {
				return true
			}
		}
	}
	return false
}

// ToID normalizes a display name into a catalogue identifier: lowercase,
// letters and digits only. "Swords Dance" -> "swordsdance".
func ToID(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
