package effect

import (
	"fmt"

	"pokewatch/dex"
	"pokewatch/events"
	"pokewatch/game"
	"pokewatch/utils"
)

// Apply interprets one observed event against one expected effect. Consumed
// means the event was the effect's manifestation and state has been updated;
// Rejected means this effect does not explain the event and state is
// untouched. The switch is exhaustive over the catalogue's category enum.
func Apply(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	switch eff.Kind {
	case dex.EffStatus:
		return applyStatus(ctx, eff, ev)
	case dex.EffBoost:
		return applyBoost(ctx, eff, ev)
	case dex.EffSetBoost:
		return applySetBoost(ctx, eff, ev)
	case dex.EffSwapBoosts:
		return applySwapBoosts(ctx, eff, ev)
	case dex.EffClearBoosts:
		return applyClearBoosts(ctx, eff, ev)
	case dex.EffHeal:
		return applyHeal(ctx, eff, ev)
	case dex.EffDrain:
		return applyDrain(ctx, eff, ev)
	case dex.EffRecoil:
		return applyRecoil(ctx, eff, ev)
	case dex.EffSide:
		return applySide(ctx, eff, ev)
	case dex.EffField:
		return applyField(ctx, eff, ev)
	case dex.EffWeather:
		return applyWeather(ctx, eff, ev)
	case dex.EffVolatile:
		return applyVolatile(ctx, eff, ev)
	case dex.EffTypeChange:
		return applyTypeChange(ctx, eff, ev)
	case dex.EffDisable:
		return applyDisable(ctx, eff, ev)
	case dex.EffTwoTurn:
		return applyTwoTurn(ctx, eff, ev)
	case dex.EffRecharge:
		return applyRecharge(ctx, eff, ev)
	case dex.EffSelfFaint:
		return applySelfFaint(ctx, eff, ev)
	case dex.EffCall, dex.EffSelfSwitch, dex.EffWish, dex.EffRampage:
		// Call effects open child parse contexts; the others are declared
		// state applied at move time. Neither consumes events here.
		return Rejected, nil
	}
	return Rejected, fmt.Errorf("effect: unhandled category %q", eff.Kind)
}

// ApplyImmediate applies the state-only effects that fire at move
// declaration rather than through a later event: rampage locks, wish
// countdowns and pending self-switches. Reports whether the effect was one
// of those.
func ApplyImmediate(ctx *Context, eff dex.Effect) bool {
	switch eff.Kind {
	case dex.EffRampage:
		u := ctx.User()
		if u.Vol.RampageMove == "" {
			u.Vol.RampageMove = ctx.MoveID
			u.Vol.RampageTurns = 0
		}
		u.Vol.RampageTurns++
		return true
	case dex.EffWish:
		ctx.State.Team(ctx.UserSide).Status.WishTurns = 2
		return true
	case dex.EffSelfSwitch:
		ctx.State.Team(ctx.UserSide).Status.PendingSwitch = true
		return true
	}
	return false
}

func applyStatus(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.SetStatus || ev.Side != ctx.SideFor(eff.TargetOrDefault()) || ev.Status != eff.Status {
		return Rejected, nil
	}
	target := ctx.PokemonFor(eff.TargetOrDefault())
	if target == nil {
		return Rejected, nil
	}
	if ev.From == "rest" {
		// Rest replaces whatever status the user had with a fixed two-turn
		// sleep; the full heal follows as its own event.
		target.Status.Cure()
		target.Status.Set(ev.Status)
		target.Status.MinLeft, target.Status.MaxLeft = 2, 2
		return Consumed, nil
	}
	if target.Status.Active() {
		return Rejected, &Contradiction{
			Event:    ev,
			Expected: fmt.Sprintf("%s already has major status %s", target.Species, target.Status.Current),
		}
	}
	target.Status.Set(ev.Status)
	// The status landed, so the target's ability cannot be one that blocks
	// it.
	if blockers := ctx.Cat.StatusBlockers(ev.Status); len(blockers) > 0 {
		if err := target.Ability.Remove(blockers...); err != nil {
			return Rejected, &Contradiction{
				Event:    ev,
				Expected: fmt.Sprintf("%s received %s despite a status-blocking ability", target.Species, ev.Status),
				Err:      err,
			}
		}
	}
	return Consumed, nil
}

func applyBoost(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.Boost || ev.Side != ctx.SideFor(eff.TargetOrDefault()) || ev.Stat != eff.Stat {
		return Rejected, nil
	}
	target := ctx.PokemonFor(eff.TargetOrDefault())
	if target == nil {
		return Rejected, nil
	}
	cur := target.Vol.Boosts[ev.Stat]
	switch {
	case ev.Amount == 0:
		// No-op at a stage cap is legitimate; anywhere else it means the
		// expected change silently failed.
		if (eff.Stages > 0 && cur >= 6) || (eff.Stages < 0 && cur <= -6) {
			return Consumed, nil
		}
		return Rejected, nil
	case (ev.Amount > 0) != (eff.Stages > 0):
		return Rejected, nil
	}
	target.Vol.Boosts[ev.Stat] = utils.Clamp(cur+ev.Amount, -6, 6)
	// An opposing stat drop that landed rules out drop-blocking abilities.
	if eff.TargetOrDefault() == dex.Foe && ev.Amount < 0 {
		if blockers := ctx.Cat.BoostDropBlockers(); len(blockers) > 0 {
			if err := target.Ability.Remove(blockers...); err != nil {
				return Rejected, &Contradiction{
					Event:    ev,
					Expected: fmt.Sprintf("%s lost %s despite a drop-blocking ability", target.Species, ev.Stat),
					Err:      err,
				}
			}
		}
	}
	return Consumed, nil
}

func applySetBoost(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.SetBoost || ev.Side != ctx.SideFor(eff.TargetOrDefault()) || ev.Stat != eff.Stat {
		return Rejected, nil
	}
	target := ctx.PokemonFor(eff.TargetOrDefault())
	if target == nil {
		return Rejected, nil
	}
	target.Vol.Boosts[ev.Stat] = utils.Clamp(ev.Amount, -6, 6)
	return Consumed, nil
}

func applySwapBoosts(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.SwapBoosts {
		return Rejected, nil
	}
	user, foe := ctx.User(), ctx.Foe()
	if user == nil || foe == nil {
		return Rejected, nil
	}
	user.Vol.Boosts, foe.Vol.Boosts = foe.Vol.Boosts, user.Vol.Boosts
	return Consumed, nil
}

func applyClearBoosts(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.ClearBoosts {
		return Rejected, nil
	}
	if ev.Side != "" {
		if p := ctx.State.Team(ev.Side).ActivePokemon(); p != nil {
			p.Vol.Boosts = make(map[string]int)
		}
		return Consumed, nil
	}
	for _, side := range game.Sides {
		if p := ctx.State.Team(side).ActivePokemon(); p != nil {
			p.Vol.Boosts = make(map[string]int)
		}
	}
	return Consumed, nil
}

func applyHeal(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.Heal || ev.Side != ctx.SideFor(eff.TargetOrDefault()) {
		return Rejected, nil
	}
	target := ctx.PokemonFor(eff.TargetOrDefault())
	if target == nil {
		return Rejected, nil
	}
	SetHPFromEvent(target, ev)
	return Consumed, nil
}

func applyDrain(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	// Drain shows up as a heal on the user after the damage event.
	if ev.Kind != events.Heal || ev.Side != ctx.UserSide {
		return Rejected, nil
	}
	user := ctx.User()
	if user == nil {
		return Rejected, nil
	}
	SetHPFromEvent(user, ev)
	return Consumed, nil
}

func applyRecoil(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.TakeDamage || ev.Side != ctx.UserSide {
		return Rejected, nil
	}
	user := ctx.User()
	if user == nil {
		return Rejected, nil
	}
	SetHPFromEvent(user, ev)
	return Consumed, nil
}

func applySide(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.SideStart || ev.Side != ctx.SideFor(eff.TargetOrDefault()) || ev.Cond != eff.Side {
		return Rejected, nil
	}
	status := &ctx.State.Team(ev.Side).Status
	switch ev.Cond {
	case "reflect":
		status.Reflect.Start(screenTurns(ctx))
	case "lightscreen":
		status.LightScreen.Start(screenTurns(ctx))
	case "spikes":
		if status.Spikes >= 3 {
			return Rejected, &Contradiction{Event: ev, Expected: "spikes beyond three layers"}
		}
		status.Spikes++
	case "toxicspikes":
		if status.ToxicSpikes >= 2 {
			return Rejected, &Contradiction{Event: ev, Expected: "toxic spikes beyond two layers"}
		}
		status.ToxicSpikes++
	case "stealthrock":
		status.StealthRock = true
	default:
		return Rejected, nil
	}
	return Consumed, nil
}

// screenTurns is the screen duration, honoring a confirmed extending item
// on the setter.
func screenTurns(ctx *Context) int {
	if u := ctx.User(); u != nil && u.Item != nil {
		if it, ok := u.Item.Confirmed(); ok && it.ExtendsScreens {
			return 8
		}
	}
	return 5
}

func applyField(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.FieldStart || ev.Field != eff.Field {
		return Rejected, nil
	}
	switch ev.Field {
	case "trickroom":
		ctx.State.Room.TrickRoom.Start(5)
	case "gravity":
		ctx.State.Room.Gravity.Start(5)
	default:
		return Rejected, nil
	}
	return Consumed, nil
}

func applyWeather(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.Weather || ev.Weather != eff.Weather {
		return Rejected, nil
	}
	w := game.WeatherStatus{
		Kind:         ev.Weather,
		TurnsLeft:    5,
		SummonerSide: ctx.UserSide,
	}
	if u := ctx.User(); u != nil {
		w.SummonerSpecies = u.Species
	}
	ctx.State.Room.Weather = w
	return Consumed, nil
}

func applyVolatile(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.StartVolatile || ev.Side != ctx.SideFor(eff.TargetOrDefault()) || ev.Volatile != eff.Volatile {
		return Rejected, nil
	}
	target := ctx.PokemonFor(eff.TargetOrDefault())
	if target == nil {
		return Rejected, nil
	}
	StartVolatile(target, ev.Volatile)
	if eff.TargetOrDefault() == dex.Foe {
		if blockers := ctx.Cat.VolatileBlockers(ev.Volatile); len(blockers) > 0 {
			if err := target.Ability.Remove(blockers...); err != nil {
				return Rejected, &Contradiction{
					Event:    ev,
					Expected: fmt.Sprintf("%s received %s despite a blocking ability", target.Species, ev.Volatile),
					Err:      err,
				}
			}
		}
	}
	return Consumed, nil
}

// StartVolatile flips the tracker for a named volatile status.
func StartVolatile(p *game.Pokemon, v string) {
	switch v {
	case "confusion":
		p.Vol.Confused = true
		p.Vol.ConfusionTurns = 0
	case "substitute":
		p.Vol.SubstituteHP = p.HP.Max / 4
	case "taunt":
		p.Vol.Taunted = true
		p.Vol.TauntTurns = 0
	case "leechseed":
		p.Vol.LeechSeed = true
	case "trapped":
		p.Vol.Trapped = true
	case "flinch":
		p.Vol.Flinched = true
	}
}

// EndVolatile clears the tracker for a named volatile status.
func EndVolatile(p *game.Pokemon, v string) {
	switch v {
	case "confusion":
		p.Vol.Confused = false
		p.Vol.ConfusionTurns = 0
	case "substitute":
		p.Vol.SubstituteHP = 0
	case "taunt":
		p.Vol.Taunted = false
		p.Vol.TauntTurns = 0
	case "leechseed":
		p.Vol.LeechSeed = false
	case "trapped":
		p.Vol.Trapped = false
	case "flinch":
		p.Vol.Flinched = false
	case "disable":
		p.Vol.DisabledMove = ""
		p.Vol.DisableTurns = 0
	case "lockedmove":
		p.Vol.RampageMove = ""
		p.Vol.RampageTurns = 0
	}
}

func applyTypeChange(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.ChangeType || ev.Side != ctx.SideFor(eff.TargetOrDefault()) {
		return Rejected, nil
	}
	target := ctx.PokemonFor(eff.TargetOrDefault())
	if target == nil {
		return Rejected, nil
	}
	target.Vol.TypeOverride = ev.Types
	return Consumed, nil
}

func applyDisable(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.DisableMove || ev.Side != ctx.SideFor(eff.TargetOrDefault()) {
		return Rejected, nil
	}
	target := ctx.PokemonFor(eff.TargetOrDefault())
	if target == nil {
		return Rejected, nil
	}
	id := dex.ToID(ev.Move)
	// A disabled move must be one the target actually knows; learning it
	// here is itself a reveal.
	if _, err := target.Moves.Reveal(id, movePP(ctx.Cat, id)); err != nil {
		return Rejected, &Contradiction{Event: ev, Expected: "disable of an unknowable move", Err: err}
	}
	target.Vol.DisabledMove = id
	target.Vol.DisableTurns = 4
	return Consumed, nil
}

func applyTwoTurn(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.PrepareMove || ev.Side != ctx.UserSide || dex.ToID(ev.Move) != ctx.MoveID {
		return Rejected, nil
	}
	user := ctx.User()
	if user == nil {
		return Rejected, nil
	}
	user.Vol.ChargeMove = ctx.MoveID
	return Consumed, nil
}

func applyRecharge(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.MustRecharge || ev.Side != ctx.UserSide {
		return Rejected, nil
	}
	user := ctx.User()
	if user == nil {
		return Rejected, nil
	}
	user.Vol.Recharging = true
	return Consumed, nil
}

func applySelfFaint(ctx *Context, eff dex.Effect, ev events.Event) (Outcome, error) {
	if ev.Kind != events.Faint || ev.Side != ctx.UserSide {
		return Rejected, nil
	}
	if err := ctx.State.Team(ctx.UserSide).FaintActive(); err != nil {
		return Rejected, &Contradiction{Event: ev, Expected: "self-faint with an active user", Err: err}
	}
	return Consumed, nil
}

// SetHPFromEvent applies an observed hp pair, preserving the exact-vs-percent
// display asymmetry: a percentage event never overwrites a known exact max.
func SetHPFromEvent(p *game.Pokemon, ev events.Event) {
	if ev.Percent {
		if p.HP.Percent {
			p.HP.Cur = ev.HP
			p.HP.Max = 100
		} else if p.HP.Max > 0 {
			p.HP.Cur = ev.HP * p.HP.Max / 100
		}
		return
	}
	p.HP = game.HP{Cur: ev.HP, Max: ev.MaxHP}
}

// ConsumeItem records that the combatant used up the named item: the held
// item is confirmed, moved to the last-used slot and the hand emptied.
func ConsumeItem(ctx *Context, p *game.Pokemon, itemID string, ev events.Event) error {
	if p.Item != nil {
		if err := p.Item.Narrow(itemID); err != nil {
			return &Contradiction{
				Event:    ev,
				Expected: fmt.Sprintf("%s consumed %s, which was already ruled out", p.Species, itemID),
				Err:      err,
			}
		}
	}
	if it, ok := ctx.Cat.Item(itemID); ok {
		p.LastItem = game.NewPossibility(map[string]dex.Item{itemID: it})
	}
	p.Item = nil
	return nil
}

func movePP(cat *dex.Catalogue, id string) int {
	if m, ok := cat.Move(id); ok {
		return m.PP
	}
	return 5
}
