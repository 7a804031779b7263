package dex

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultData []byte

var (
	defaultOnce sync.Once
	defaultCat  *Catalogue
)

// Catalogue is the loaded rule table. Read-only after load.
type Catalogue struct {
	moves     map[string]Move
	abilities map[string]Ability
	items     map[string]Item
	species   map[string]Species
}

type catalogueFile struct {
	Moves     map[string]Move    `yaml:"moves"`
	Abilities map[string]Ability `yaml:"abilities"`
	Items     map[string]Item    `yaml:"items"`
	Species   map[string]Species `yaml:"species"`
}

var validKinds = map[EffectKind]bool{
	EffStatus: true, EffBoost: true, EffSetBoost: true, EffSwapBoosts: true,
	EffClearBoosts: true, EffHeal: true, EffDrain: true, EffRecoil: true,
	EffSide: true, EffField: true, EffWeather: true, EffVolatile: true,
	EffTypeChange: true, EffDisable: true, EffTwoTurn: true, EffCall: true,
	EffSelfSwitch: true, EffSelfFaint: true, EffWish: true, EffRampage: true,
	EffRecharge: true,
}

// Load reads a catalogue from a YAML file.
func Load(path string) (*Catalogue, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse builds a catalogue from YAML bytes, validating every effect kind and
// target so interpreter dispatch never meets an unknown category.
func Parse(b []byte) (*Catalogue, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("catalogue: %w", err)
	}
	c := &Catalogue{
		moves:     make(map[string]Move, len(f.Moves)),
		abilities: make(map[string]Ability, len(f.Abilities)),
		items:     make(map[string]Item, len(f.Items)),
		species:   make(map[string]Species, len(f.Species)),
	}
	for id, m := range f.Moves {
		m.ID = id
		for i, eff := range m.Effects {
			if !validKinds[eff.Kind] {
				return nil, fmt.Errorf("catalogue: move %s effect %d: unknown kind %q", id, i, eff.Kind)
			}
			if eff.Target != "" && eff.Target != Self && eff.Target != Foe {
				return nil, fmt.Errorf("catalogue: move %s effect %d: unknown target %q", id, i, eff.Target)
			}
		}
		c.moves[id] = m
	}
	for id, a := range f.Abilities {
		a.ID = id
		c.abilities[id] = a
	}
	for id, it := range f.Items {
		it.ID = id
		c.items[id] = it
	}
	for id, sp := range f.Species {
		sp.ID = id
		c.species[id] = sp
	}
	return c, nil
}

// Default returns the embedded catalogue, parsed once.
func Default() *Catalogue {
	defaultOnce.Do(func() {
		c, err := Parse(defaultData)
		if err != nil {
			panic("dex: embedded catalogue is invalid: " + err.Error())
		}
		defaultCat = c
	})
	return defaultCat
}

// Move looks up a move by id.
func (c *Catalogue) Move(id string) (Move, bool) {
	m, ok := c.moves[id]
	return m, ok
}

// Ability looks up an ability by id.
func (c *Catalogue) Ability(id string) (Ability, bool) {
	a, ok := c.abilities[id]
	return a, ok
}

// Item looks up an item by id.
func (c *Catalogue) Item(id string) (Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

// Species looks up a species by id.
func (c *Catalogue) Species(id string) (Species, bool) {
	sp, ok := c.species[id]
	return sp, ok
}

// EffectsFor returns the ordered effect list for a move id, nil when the
// catalogue has no entry.
func (c *Catalogue) EffectsFor(id string) []Effect {
	m, ok := c.moves[id]
	if !ok {
		return nil
	}
	return m.Effects
}

// GuaranteeContext carries the target-side facts needed to evaluate effect
// preconditions without reaching into the battle state.
type GuaranteeContext struct {
	TargetTypes    []string
	TargetHPPct    int
	TargetStatused bool
}

// GuaranteedEffects returns the subset of a move's effects aimed at the given
// target that are unconditional in the given context. The parser uses this to
// decide whether the absence of an event is itself informative.
func (c *Catalogue) GuaranteedEffects(id string, target Target, gctx GuaranteeContext) []Effect {
	var out []Effect
	for _, eff := range c.EffectsFor(id) {
		if eff.TargetOrDefault() != target || !eff.Guaranteed() {
			continue
		}
		if CondSatisfied(eff.Cond, gctx) {
			out = append(out, eff)
		}
	}
	return out
}

// CondSatisfied evaluates an effect precondition against target-side facts.
func CondSatisfied(cond *Condition, gctx GuaranteeContext) bool {
	if cond == nil {
		return true
	}
	if cond.HPBelow > 0 && gctx.TargetHPPct >= cond.HPBelow {
		return false
	}
	if cond.TargetType != "" && !slices.Contains(gctx.TargetTypes, cond.TargetType) {
		return false
	}
	if cond.Unaffected && gctx.TargetStatused {
		return false
	}
	return true
}

// AbilityDomain returns a fresh id->Ability map restricted to the given ids,
// suitable for seeding a possibility set. Unknown ids are skipped.
func (c *Catalogue) AbilityDomain(ids []string) map[string]Ability {
	dom := make(map[string]Ability, len(ids))
	for _, id := range ids {
		if a, ok := c.abilities[id]; ok {
			dom[id] = a
		}
	}
	if len(dom) == 0 {
		return maps.Clone(c.abilities)
	}
	return dom
}

// ItemDomain returns a fresh copy of the full item table for seeding a
// possibility set.
func (c *Catalogue) ItemDomain() map[string]Item {
	return maps.Clone(c.items)
}

// StatusBlockers lists ability ids that prevent the given major status,
// sorted for deterministic narrowing.
func (c *Catalogue) StatusBlockers(status string) []string {
	var out []string
	for id, a := range c.abilities {
		if a.BlocksMajorStatus(status) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// VolatileBlockers lists ability ids that prevent the given volatile status.
func (c *Catalogue) VolatileBlockers(v string) []string {
	var out []string
	for id, a := range c.abilities {
		if a.BlocksVolatileStatus(v) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// BoostDropBlockers lists ability ids that prevent stat drops inflicted by
// an opponent.
func (c *Catalogue) BoostDropBlockers() []string {
	var out []string
	for id, a := range c.abilities {
		if a.BlocksBoostDrop {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// TypeBlockers lists ability ids granting immunity to moves of the given
// type.
func (c *Catalogue) TypeBlockers(moveType string) []string {
	var out []string
	for id, a := range c.abilities {
		if a.ImmuneType == moveType {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// WeatherExtenders lists item ids that extend the given weather, used to
// infer a held item from an over-long weather duration.
func (c *Catalogue) WeatherExtenders(weather string) []string {
	var out []string
	for id, it := range c.items {
		if it.ExtendsWeather == weather {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
