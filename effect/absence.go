package effect

import (
	"fmt"

	"pokewatch/dex"
	"pokewatch/events"
	"pokewatch/game"
)

// ExplainAbsence is called when a guaranteed effect's event never arrived.
// It exhausts the alternative explanations before declaring a contradiction:
// a type-based immunity, a stat already at its cap, a status slot already
// occupied, or an ability that blocks the effect. In the ability case every
// plausible blocker is kept (the possibility set is narrowed to the whole
// blocker intersection, not to a single pick); the contradiction arises only
// when no remaining candidate can block.
func ExplainAbsence(ctx *Context, eff dex.Effect) error {
	switch eff.Kind {
	case dex.EffStatus:
		return explainMissingStatus(ctx, eff)
	case dex.EffBoost:
		return explainMissingBoost(ctx, eff)
	case dex.EffVolatile:
		return explainMissingVolatile(ctx, eff)
	case dex.EffHeal:
		target := ctx.PokemonFor(eff.TargetOrDefault())
		if target != nil && target.HP.Cur < target.HP.Max {
			return &Contradiction{Expected: fmt.Sprintf("guaranteed heal on %s never arrived", target.Species)}
		}
		return nil
	case dex.EffWeather:
		if ctx.State.Room.Weather.Kind == eff.Weather {
			return nil // already up, setting it again fails silently
		}
		return &Contradiction{Expected: fmt.Sprintf("guaranteed weather %q never arrived", eff.Weather)}
	case dex.EffSide:
		return explainMissingSide(ctx, eff)
	case dex.EffField:
		return nil // re-setting an active room effect fails without an event
	case dex.EffSetBoost, dex.EffSwapBoosts, dex.EffClearBoosts,
		dex.EffTypeChange, dex.EffDisable:
		// These fail without events for reasons the observer cannot always
		// distinguish (substitute, already-applied state); absence is not
		// evidence.
		return nil
	case dex.EffDrain, dex.EffRecoil:
		return nil // proportional to damage dealt; no damage, no event
	case dex.EffTwoTurn, dex.EffRecharge, dex.EffSelfFaint,
		dex.EffCall, dex.EffSelfSwitch, dex.EffWish, dex.EffRampage:
		return nil // resolved by their own events or at move declaration
	}
	return fmt.Errorf("effect: unhandled category %q in absence check", eff.Kind)
}

func explainMissingStatus(ctx *Context, eff dex.Effect) error {
	target := ctx.PokemonFor(eff.TargetOrDefault())
	if target == nil {
		return nil
	}
	if target.Status.Active() {
		return nil // one major status at a time
	}
	if dex.StatusTypeImmune(eff.Status, target.CurrentTypes()) {
		return nil
	}
	if eff.TargetOrDefault() == dex.Self {
		return &Contradiction{Expected: fmt.Sprintf("guaranteed self-status %s never arrived", eff.Status)}
	}
	return narrowToBlockers(target, ctx.Cat.StatusBlockers(eff.Status),
		fmt.Sprintf("guaranteed %s on %s missing with no blocking ability", eff.Status, target.Species))
}

func explainMissingBoost(ctx *Context, eff dex.Effect) error {
	target := ctx.PokemonFor(eff.TargetOrDefault())
	if target == nil {
		return nil
	}
	cur := target.Vol.Boosts[eff.Stat]
	if (eff.Stages > 0 && cur >= 6) || (eff.Stages < 0 && cur <= -6) {
		return nil // already at the cap
	}
	if eff.TargetOrDefault() == dex.Self || eff.Stages > 0 {
		return &Contradiction{Expected: fmt.Sprintf("guaranteed %+d %s never arrived", eff.Stages, eff.Stat)}
	}
	return narrowToBlockers(target, ctx.Cat.BoostDropBlockers(),
		fmt.Sprintf("guaranteed %s drop on %s missing with no blocking ability", eff.Stat, target.Species))
}

func explainMissingVolatile(ctx *Context, eff dex.Effect) error {
	target := ctx.PokemonFor(eff.TargetOrDefault())
	if target == nil {
		return nil
	}
	if volatileAlreadyActive(target, eff.Volatile) {
		return nil
	}
	if eff.TargetOrDefault() == dex.Self {
		return &Contradiction{Expected: fmt.Sprintf("guaranteed self-volatile %s never arrived", eff.Volatile)}
	}
	return narrowToBlockers(target, ctx.Cat.VolatileBlockers(eff.Volatile),
		fmt.Sprintf("guaranteed %s on %s missing with no blocking ability", eff.Volatile, target.Species))
}

func explainMissingSide(ctx *Context, eff dex.Effect) error {
	status := ctx.State.Team(ctx.SideFor(eff.TargetOrDefault())).Status
	switch eff.Side {
	case "reflect":
		if status.Reflect.Active {
			return nil
		}
	case "lightscreen":
		if status.LightScreen.Active {
			return nil
		}
	case "spikes":
		if status.Spikes >= 3 {
			return nil
		}
	case "toxicspikes":
		if status.ToxicSpikes >= 2 {
			return nil
		}
	case "stealthrock":
		if status.StealthRock {
			return nil
		}
	}
	return &Contradiction{Expected: fmt.Sprintf("guaranteed side condition %s never arrived", eff.Side)}
}

func volatileAlreadyActive(p *game.Pokemon, v string) bool {
	switch v {
	case "confusion":
		return p.Vol.Confused
	case "substitute":
		return p.Vol.SubstituteHP > 0
	case "taunt":
		return p.Vol.Taunted
	case "leechseed":
		return p.Vol.LeechSeed
	case "trapped":
		return p.Vol.Trapped
	}
	return false
}

func narrowToBlockers(target *game.Pokemon, blockers []string, expected string) error {
	if len(blockers) == 0 {
		return &Contradiction{Expected: expected}
	}
	if err := target.Ability.Narrow(blockers...); err != nil {
		return &Contradiction{Expected: expected, Err: err}
	}
	return nil
}

// ExplainImmune handles an observed immunity announcement: either the
// target's types already explain it, or an immunity-granting ability must be
// in the possibility set.
func ExplainImmune(ctx *Context, moveType string, ev events.Event) error {
	target := ctx.Foe()
	if target == nil {
		return nil
	}
	if dex.TypeImmune(moveType, target.CurrentTypes()) {
		return nil
	}
	blockers := ctx.Cat.TypeBlockers(moveType)
	if len(blockers) == 0 {
		return &Contradiction{
			Event:    ev,
			Expected: fmt.Sprintf("%s immune to %s with no type or ability explanation", target.Species, moveType),
		}
	}
	if err := target.Ability.Narrow(blockers...); err != nil {
		return &Contradiction{
			Event:    ev,
			Expected: fmt.Sprintf("%s immune to %s, but no blocking ability remains possible", target.Species, moveType),
			Err:      err,
		}
	}
	return nil
}
