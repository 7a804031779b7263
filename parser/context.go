package parser

import (
	"fmt"

	"pokewatch/dex"
	"pokewatch/effect"
	"pokewatch/events"
	"pokewatch/game"
)

// ctxState is the lifecycle of a parse context.
type ctxState int

const (
	ctxAwaiting ctxState = iota
	ctxDone
	ctxFailed
)

// Outcome of feeding one event to a parse context.
type outcome int

const (
	eventConsumed outcome = iota
	eventUnclaimed
)

// parseContext is one resumable unit of the sub-parser tree: a move use, a
// called move or a switch-in. It pulls events one at a time; an event it
// cannot claim is handed back unconsumed to its parent, which is the normal
// way optional and secondary effects terminate. Contexts hold sides and move
// ids rather than entity pointers, so they stay valid across the trial
// clones used for all-or-nothing application.
type parseContext interface {
	feed(trial *game.BattleState, ev events.Event, push func(parseContext)) (outcome, error)
	// finish runs the absence checks owed by the context when it closes;
	// a guaranteed effect that never produced an event must be explained
	// here or the whole parse fails.
	finish(trial *game.BattleState) error
}

// moveContext parses the event run produced by a single move use.
type moveContext struct {
	cat      *dex.Catalogue
	userSide string
	move     dex.Move
	pending  []dex.Effect

	damageExpected bool
	whiffed        bool // missed, failed or hit an immunity: expectations waived
	releasing      bool // release phase of a two-turn move
	prepared       bool // this context consumed the prepare event

	// last-move facts captured before this move overwrote them, used to
	// validate call-effect legality.
	battleLastMove string
	foeLastMove    string

	state ctxState
}

// newMoveContext opens a context for a UseMove event, handling PP
// accounting. A move invoked through a call effect never deducts PP from
// the user's own slots.
func newMoveContext(cat *dex.Catalogue, trial *game.BattleState, ev events.Event, fromCall bool) (*moveContext, error) {
	id := dex.ToID(ev.Move)
	move, ok := cat.Move(id)
	if !ok {
		return nil, &GapError{Event: ev}
	}
	team := trial.Team(ev.Side)
	if team == nil {
		return nil, &GapError{Event: ev}
	}
	user := team.ActivePokemon()
	if user == nil {
		return nil, &effect.Contradiction{Event: ev, Expected: "move use with no active combatant"}
	}

	mc := &moveContext{
		cat:            cat,
		userSide:       ev.Side,
		move:           move,
		battleLastMove: trial.LastMove,
		foeLastMove:    trial.Opponent(ev.Side).LastMove,
	}

	releasing := user.Vol.ChargeMove == id
	continuing := user.Vol.RampageMove == id && user.Vol.RampageTurns > 0
	switch {
	case fromCall, releasing, continuing, id == "struggle":
		// No PP spent: called moves, the release turn of a two-turn move
		// and rampage continuations all reuse the original deduction.
		if fromCall || id == "struggle" {
			// Struggle occupies no slot; a called move is revealed later
			// by the caller when its semantics say so.
		} else if _, err := user.Moves.Reveal(id, move.PP); err != nil {
			return nil, &effect.Contradiction{Event: ev, Expected: "move outside the four known slots", Err: err}
		}
	default:
		if _, err := user.Moves.Use(id, move.PP); err != nil {
			return nil, &effect.Contradiction{Event: ev, Expected: "move outside the four known slots", Err: err}
		}
	}

	cctx := mc.effectContext(trial)
	for _, eff := range move.Effects {
		if effect.ApplyImmediate(cctx, eff) {
			continue
		}
		mc.pending = append(mc.pending, eff)
	}

	if releasing {
		mc.releasing = true
		user.Vol.ChargeMove = ""
		mc.pending = dropKind(mc.pending, dex.EffTwoTurn)
	}
	mc.damageExpected = move.Damaging() && (mc.releasing || !hasKind(move.Effects, dex.EffTwoTurn))

	trial.LastMove = id
	team.LastMove = id
	return mc, nil
}

func (mc *moveContext) effectContext(trial *game.BattleState) *effect.Context {
	return &effect.Context{
		State:    trial,
		Cat:      mc.cat,
		UserSide: mc.userSide,
		MoveID:   mc.move.ID,
	}
}

func (mc *moveContext) feed(trial *game.BattleState, ev events.Event, push func(parseContext)) (outcome, error) {
	cctx := mc.effectContext(trial)
	foeSide := game.OpponentSide(mc.userSide)

	switch ev.Kind {
	case events.Miss, events.Fail:
		if ev.Side == mc.userSide {
			mc.whiffed = true
			return eventConsumed, nil
		}
	case events.Immune:
		if ev.Side == foeSide {
			if err := effect.ExplainImmune(cctx, mc.move.Type, ev); err != nil {
				mc.state = ctxFailed
				return eventUnclaimed, err
			}
			mc.whiffed = true
			return eventConsumed, nil
		}
	case events.TakeDamage:
		if mc.damageExpected && ev.Side == foeSide {
			if foe := cctx.Foe(); foe != nil {
				effect.SetHPFromEvent(foe, ev)
			}
			mc.damageExpected = false
			return eventConsumed, nil
		}
	case events.RemoveItem:
		// A charge-shortening item consumed between phases turns the
		// prepare turn into the release turn; the hit follows immediately.
		if mc.prepared && ev.Side == mc.userSide && ev.Item != "" {
			if it, ok := mc.cat.Item(ev.Item); ok && it.ShortensCharge {
				user := cctx.User()
				if err := effect.ConsumeItem(cctx, user, ev.Item, ev); err != nil {
					mc.state = ctxFailed
					return eventUnclaimed, err
				}
				user.Vol.ChargeMove = ""
				mc.releasing = true
				mc.prepared = false
				mc.damageExpected = mc.move.Damaging()
				return eventConsumed, nil
			}
		}
	}

	for i, eff := range mc.pending {
		if eff.Kind == dex.EffCall {
			out, err := mc.feedCall(trial, eff, ev, push)
			if err != nil {
				mc.state = ctxFailed
				return eventUnclaimed, err
			}
			if out == eventConsumed {
				if err := mc.explainSkipped(trial, mc.pending[:i]); err != nil {
					mc.state = ctxFailed
					return eventUnclaimed, err
				}
				mc.pending = mc.pending[i+1:]
				return eventConsumed, nil
			}
			continue
		}
		out, err := effect.Apply(cctx, eff, ev)
		if err != nil {
			mc.state = ctxFailed
			return eventUnclaimed, err
		}
		if out == effect.Consumed {
			// Guaranteed effects skipped over must be explainable now:
			// event order is fixed, so they will not show up later.
			if err := mc.explainSkipped(trial, mc.pending[:i]); err != nil {
				mc.state = ctxFailed
				return eventUnclaimed, err
			}
			if eff.Kind == dex.EffTwoTurn {
				mc.prepared = true
			}
			mc.pending = mc.pending[i+1:]
			return eventConsumed, nil
		}
	}

	mc.state = ctxDone
	return eventUnclaimed, nil
}

// feedCall matches a nested UseMove event against a call effect, validating
// legality by caller category, and opens the child context.
func (mc *moveContext) feedCall(trial *game.BattleState, eff dex.Effect, ev events.Event, push func(parseContext)) (outcome, error) {
	if ev.Kind != events.UseMove || ev.Side != mc.userSide {
		return eventUnclaimed, nil
	}
	calledID := dex.ToID(ev.Move)
	switch eff.Call {
	case dex.CallAny:
		// Anything goes.
	case dex.CallLast:
		if mc.battleLastMove != "" && calledID != mc.battleLastMove {
			return eventUnclaimed, &effect.Contradiction{
				Event:    ev,
				Expected: fmt.Sprintf("call of last battle move %s, saw %s", mc.battleLastMove, calledID),
			}
		}
	case dex.CallTarget:
		if mc.foeLastMove != "" && calledID != mc.foeLastMove {
			return eventUnclaimed, &effect.Contradiction{
				Event:    ev,
				Expected: fmt.Sprintf("mirror of the foe's move %s, saw %s", mc.foeLastMove, calledID),
			}
		}
	case dex.CallSelf:
		// The called move belongs to the user's own move-set: a reveal,
		// but never a PP deduction.
		user := trial.Team(mc.userSide).ActivePokemon()
		maxPP := 5
		if m, ok := mc.cat.Move(calledID); ok {
			maxPP = m.PP
		}
		if _, err := user.Moves.Reveal(calledID, maxPP); err != nil {
			return eventUnclaimed, &effect.Contradiction{
				Event:    ev,
				Expected: "called move outside the four known slots",
				Err:      err,
			}
		}
	}
	child, err := newMoveContext(mc.cat, trial, ev, true)
	if err != nil {
		return eventUnclaimed, err
	}
	push(child)
	return eventConsumed, nil
}

// explainSkipped verifies that every guaranteed effect jumped over by a
// later match has a benign explanation.
func (mc *moveContext) explainSkipped(trial *game.BattleState, skipped []dex.Effect) error {
	cctx := mc.effectContext(trial)
	for _, eff := range skipped {
		if !eff.Guaranteed() || !mc.condHolds(trial, eff) {
			continue
		}
		if err := effect.ExplainAbsence(cctx, eff); err != nil {
			return err
		}
	}
	return nil
}

func (mc *moveContext) condHolds(trial *game.BattleState, eff dex.Effect) bool {
	target := trial.Team(mc.effectContext(trial).SideFor(eff.TargetOrDefault())).ActivePokemon()
	gctx := dex.GuaranteeContext{}
	if target != nil {
		gctx = dex.GuaranteeContext{
			TargetTypes:    target.CurrentTypes(),
			TargetHPPct:    target.HP.Pct(),
			TargetStatused: target.Status.Active(),
		}
	}
	return dex.CondSatisfied(eff.Cond, gctx)
}

func (mc *moveContext) finish(trial *game.BattleState) error {
	if mc.whiffed {
		return nil
	}
	return mc.explainSkipped(trial, mc.pending)
}

// switchContext parses the optional event run right after a switch-in:
// hazard chip, ability announcements and their fallout.
type switchContext struct {
	cat  *dex.Catalogue
	side string
	// set after an entry-weather ability announcement, when a weather event
	// must follow.
	expectWeather string
	state         ctxState
}

func (sc *switchContext) feed(trial *game.BattleState, ev events.Event, push func(parseContext)) (outcome, error) {
	team := trial.Team(sc.side)
	incoming := team.ActivePokemon()
	if incoming == nil {
		sc.state = ctxDone
		return eventUnclaimed, nil
	}

	switch ev.Kind {
	case events.TakeDamage:
		if ev.Side == sc.side && (ev.From == "spikes" || ev.From == "stealthrock") {
			effect.SetHPFromEvent(incoming, ev)
			return eventConsumed, nil
		}
	case events.SetStatus:
		if ev.Side == sc.side && ev.From == "toxicspikes" {
			incoming.Status.Set(ev.Status)
			return eventConsumed, nil
		}
	case events.ActivateAbility:
		if ev.Side == sc.side {
			id := dex.ToID(ev.Ability)
			if err := incoming.ConfirmAbility(id); err != nil {
				sc.state = ctxFailed
				return eventUnclaimed, &effect.Contradiction{
					Event:    ev,
					Expected: fmt.Sprintf("%s revealed ability %s, which was already ruled out", incoming.Species, id),
					Err:      err,
				}
			}
			if a, ok := sc.cat.Ability(id); ok && a.OnEntryWeather != "" {
				sc.expectWeather = a.OnEntryWeather
			}
			return eventConsumed, nil
		}
	case events.Weather:
		if sc.expectWeather != "" && ev.Weather == sc.expectWeather {
			trial.Room.Weather = game.WeatherStatus{
				Kind:            ev.Weather,
				TurnsLeft:       5,
				SummonerSide:    sc.side,
				SummonerSpecies: incoming.Species,
			}
			sc.expectWeather = ""
			return eventConsumed, nil
		}
	case events.Boost:
		// Intimidate-style entry drops arrive attributed to the incoming
		// combatant.
		if ev.Of == sc.side && ev.Side == game.OpponentSide(sc.side) && ev.Amount < 0 {
			cctx := &effect.Context{State: trial, Cat: sc.cat, UserSide: sc.side}
			eff := dex.Effect{Kind: dex.EffBoost, Target: dex.Foe, Stat: ev.Stat, Stages: ev.Amount}
			out, err := effect.Apply(cctx, eff, ev)
			if err != nil {
				sc.state = ctxFailed
				return eventUnclaimed, err
			}
			if out == effect.Consumed {
				return eventConsumed, nil
			}
		}
	case events.RevealItem:
		if ev.Side == sc.side {
			if err := incoming.ConfirmItem(dex.ToID(ev.Item)); err != nil {
				sc.state = ctxFailed
				return eventUnclaimed, &effect.Contradiction{
					Event:    ev,
					Expected: fmt.Sprintf("%s revealed item %s, which was already ruled out", incoming.Species, ev.Item),
					Err:      err,
				}
			}
			return eventConsumed, nil
		}
	}

	sc.state = ctxDone
	return eventUnclaimed, nil
}

func (sc *switchContext) finish(trial *game.BattleState) error {
	if sc.expectWeather != "" {
		return &effect.Contradiction{
			Expected: fmt.Sprintf("entry ability weather %q never arrived", sc.expectWeather),
		}
	}
	return nil
}

func hasKind(effs []dex.Effect, kind dex.EffectKind) bool {
	for _, e := range effs {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func dropKind(effs []dex.Effect, kind dex.EffectKind) []dex.Effect {
	out := effs[:0]
	for _, e := range effs {
		if e.Kind != kind {
			out = append(out, e)
		}
	}
	return out
}
