// Package parser turns an ordered stream of typed battle events into a
// continuously verified battle snapshot. The top-level parser owns the
// snapshot and drives a tree of resumable parse contexts; consumers see the
// snapshot only at decision points and must treat it as read-only.
package parser

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"

	"pokewatch/dex"
	"pokewatch/effect"
	"pokewatch/events"
	"pokewatch/game"
	"pokewatch/utils"
)

// Signal tells the caller what to do after feeding an event.
type Signal int

const (
	// Continue: the event was absorbed; feed the next one.
	Continue Signal = iota
	// Decide: the stream reached a decision point; read the snapshot and
	// legal actions, then resume feeding once the choice plays out.
	Decide
	// GameOver: terminal event observed; the parser accepts nothing more.
	GameOver
)

// BattleParser is the top-level parser for one battle.
type BattleParser struct {
	cat    *dex.Catalogue
	state  *game.BattleState
	stack  []parseContext
	strict bool

	finished bool
	failed   bool
	winner   string
}

// Option configures a BattleParser.
type Option func(*BattleParser)

// Strict makes protocol gaps fatal instead of logged skips. Used in tests to
// catch catalogue gaps.
func Strict() Option {
	return func(p *BattleParser) { p.strict = true }
}

// New creates a parser over the given catalogue. The catalogue is shared and
// immutable; the battle state is owned by the parser for its whole lifetime.
func New(cat *dex.Catalogue, opts ...Option) *BattleParser {
	p := &BattleParser{
		cat:   cat,
		state: game.NewBattleState(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot exposes the current battle state. Callers must not mutate it;
// inference correctness depends on mutation happening only inside effect
// interpreters.
func (p *BattleParser) Snapshot() *game.BattleState { return p.state }

// Winner returns the winning side's id after GameOver.
func (p *BattleParser) Winner() string { return p.winner }

// Feed applies one event. Application is all-or-nothing: on any error the
// snapshot is exactly what it was before this event. A returned error of
// kind Contradiction or (in strict mode) GapError aborts the battle; every
// later Feed fails.
func (p *BattleParser) Feed(ev events.Event) (Signal, error) {
	if p.finished {
		return GameOver, fmt.Errorf("parser: battle is over (winner %q)", p.winner)
	}
	if p.failed {
		return Continue, fmt.Errorf("parser: battle parse already failed")
	}

	if ev.Kind == events.Halt {
		switch ev.Reason {
		case events.HaltDecide:
			return Decide, nil
		case events.HaltWait:
			return Continue, nil
		case events.HaltGameOver:
			p.finished = true
			p.winner = ev.Winner
			return GameOver, nil
		}
		return Continue, p.handleGap(&GapError{Event: ev}, ev)
	}

	trial := p.state.Clone()
	stack, err := p.route(trial, slices.Clone(p.stack), ev)
	if err != nil {
		return Continue, p.handleGap(err, ev)
	}
	p.state = trial
	p.stack = stack
	return Continue, nil
}

// handleGap resolves a routing error: a protocol gap outside strict mode is
// logged and swallowed, anything else latches the failure.
func (p *BattleParser) handleGap(err error, ev events.Event) error {
	if IsGap(err) && !p.strict {
		log.Warn().Str("event", string(ev.Kind)).Msgf("skipping unrecognized event: %v", err)
		return nil
	}
	p.failed = true
	return err
}

// Close abandons the battle mid-parse: every open context is drained and
// discarded and the snapshot stays at its last committed event.
func (p *BattleParser) Close() {
	p.stack = nil
	p.finished = true
}

// route offers the event to the innermost open context first; a context
// that cannot claim it closes (running its absence checks) and hands the
// event to its parent, down to the root dispatch. It works on a private
// copy of the context stack so that a failed event rolls back the pops and
// pushes together with the trial state.
func (p *BattleParser) route(trial *game.BattleState, stack []parseContext, ev events.Event) ([]parseContext, error) {
	push := func(c parseContext) { stack = append(stack, c) }
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		out, err := top.feed(trial, ev, push)
		if err != nil {
			return stack, err
		}
		if out == eventConsumed {
			return stack, nil
		}
		if err := top.finish(trial); err != nil {
			return stack, err
		}
		stack = stack[:len(stack)-1]
	}
	return stack, p.rootDispatch(trial, ev, push)
}

// rootDispatch handles events no open context claimed: new moves and
// switches, residual chip, reveals and turn upkeep.
func (p *BattleParser) rootDispatch(trial *game.BattleState, ev events.Event, push func(parseContext)) error {
	switch ev.Kind {
	case events.UseMove:
		mc, err := newMoveContext(p.cat, trial, ev, false)
		if err != nil {
			return err
		}
		push(mc)
		return nil

	case events.SwitchIn, events.Drag:
		return p.applySwitch(trial, ev, push)

	case events.Faint:
		return trial.Team(ev.Side).FaintActive()

	case events.Turn:
		trial.TickTurn(ev.Turn)
		p.inferWeatherItem(trial)
		return nil

	case events.TakeDamage:
		target := trial.Team(ev.Side).ActivePokemon()
		if target == nil {
			return &GapError{Event: ev}
		}
		effect.SetHPFromEvent(target, ev)
		if ev.From == "item" && ev.Item != "" {
			return p.confirmItem(target, ev)
		}
		return nil

	case events.Heal:
		team := trial.Team(ev.Side)
		target := team.ActivePokemon()
		if target == nil {
			return &GapError{Event: ev}
		}
		effect.SetHPFromEvent(target, ev)
		switch {
		case ev.From == "wish":
			team.Status.WishTurns = 0
		case ev.From == "item" && ev.Item != "":
			return p.confirmItem(target, ev)
		}
		return nil

	case events.SetHP:
		target := trial.Team(ev.Side).ActivePokemon()
		if target == nil {
			return &GapError{Event: ev}
		}
		target.HP = game.HP{Cur: ev.HP, Max: ev.MaxHP}
		return nil

	case events.SetStatus:
		return p.applyStatus(trial, ev)

	case events.CureStatus:
		target := trial.Team(ev.Side).ActivePokemon()
		if target == nil {
			return &GapError{Event: ev}
		}
		target.Status.Cure()
		if ev.From == "item" && ev.Item != "" {
			cctx := &effect.Context{State: trial, Cat: p.cat, UserSide: ev.Side}
			return effect.ConsumeItem(cctx, target, dex.ToID(ev.Item), ev)
		}
		return nil

	case events.Boost, events.SetBoost:
		return p.applyBoost(trial, ev)

	case events.SwapBoosts, events.ClearBoosts:
		cctx := &effect.Context{State: trial, Cat: p.cat, UserSide: orDefault(ev.Side, "p1")}
		kind := dex.EffSwapBoosts
		if ev.Kind == events.ClearBoosts {
			kind = dex.EffClearBoosts
		}
		_, err := effect.Apply(cctx, dex.Effect{Kind: kind}, ev)
		return err

	case events.StartVolatile:
		target := trial.Team(ev.Side).ActivePokemon()
		if target == nil {
			return &GapError{Event: ev}
		}
		effect.StartVolatile(target, ev.Volatile)
		return nil

	case events.EndVolatile:
		target := trial.Team(ev.Side).ActivePokemon()
		if target == nil {
			return &GapError{Event: ev}
		}
		effect.EndVolatile(target, ev.Volatile)
		return nil

	case events.ActivateAbility:
		target := trial.Team(ev.Side).ActivePokemon()
		if target == nil {
			return &GapError{Event: ev}
		}
		id := dex.ToID(ev.Ability)
		if err := target.ConfirmAbility(id); err != nil {
			return &effect.Contradiction{
				Event:    ev,
				Expected: fmt.Sprintf("%s revealed ability %s, which was already ruled out", target.Species, id),
				Err:      err,
			}
		}
		return nil

	case events.RevealItem:
		target := trial.Team(ev.Side).ActivePokemon()
		if target == nil {
			return &GapError{Event: ev}
		}
		return p.confirmItem(target, ev)

	case events.RemoveItem:
		target := trial.Team(ev.Side).ActivePokemon()
		if target == nil {
			return &GapError{Event: ev}
		}
		if ev.Item == "" {
			target.Item = nil // knocked off: gone, but never consumed
			return nil
		}
		cctx := &effect.Context{State: trial, Cat: p.cat, UserSide: ev.Side}
		return effect.ConsumeItem(cctx, target, dex.ToID(ev.Item), ev)

	case events.Weather:
		return p.applyWeather(trial, ev)

	case events.FieldStart:
		switch ev.Field {
		case "trickroom":
			trial.Room.TrickRoom.Start(5)
		case "gravity":
			trial.Room.Gravity.Start(5)
		default:
			return &GapError{Event: ev}
		}
		return nil

	case events.FieldEnd:
		switch ev.Field {
		case "trickroom":
			trial.Room.TrickRoom.End()
		case "gravity":
			trial.Room.Gravity.End()
		default:
			return &GapError{Event: ev}
		}
		return nil

	case events.SideStart:
		return p.applySideStart(trial, ev)

	case events.SideEnd:
		return p.applySideEnd(trial, ev)

	case events.DisableMove:
		target := trial.Team(ev.Side).ActivePokemon()
		if target == nil {
			return &GapError{Event: ev}
		}
		target.Vol.DisabledMove = dex.ToID(ev.Move)
		target.Vol.DisableTurns = 4
		return nil

	case events.ChangeType:
		target := trial.Team(ev.Side).ActivePokemon()
		if target == nil {
			return &GapError{Event: ev}
		}
		target.Vol.TypeOverride = ev.Types
		return nil

	case events.Cant:
		target := trial.Team(ev.Side).ActivePokemon()
		if target == nil {
			return &GapError{Event: ev}
		}
		switch ev.Reason {
		case "recharge":
			target.Vol.Recharging = false
		case "flinch":
			target.Vol.Flinched = false
		}
		return nil

	case events.Miss, events.Fail, events.Immune:
		// Stray outcome markers outside any move context carry no state.
		log.Debug().Str("event", string(ev.Kind)).Msg("outcome marker outside a move context")
		return nil
	}

	return &GapError{Event: ev}
}

func (p *BattleParser) applySwitch(trial *game.BattleState, ev events.Event, push func(parseContext)) error {
	team := trial.Team(ev.Side)
	if team == nil {
		return &GapError{Event: ev}
	}
	speciesID := dex.ToID(ev.Species)
	sp, ok := p.cat.Species(speciesID)
	if !ok {
		return &GapError{Event: ev}
	}
	incoming, err := team.SwitchIn(sp, ev.Level, ev.Gender, p.cat)
	if err != nil {
		return &effect.Contradiction{Event: ev, Expected: "switch-in within the revealed roster size", Err: err}
	}
	if ev.HP > 0 {
		effect.SetHPFromEvent(incoming, ev)
	}
	push(&switchContext{cat: p.cat, side: ev.Side})
	return nil
}

func (p *BattleParser) applyStatus(trial *game.BattleState, ev events.Event) error {
	target := trial.Team(ev.Side).ActivePokemon()
	if target == nil {
		return &GapError{Event: ev}
	}
	if target.Status.Active() {
		return &effect.Contradiction{
			Event:    ev,
			Expected: fmt.Sprintf("%s already has major status %s", target.Species, target.Status.Current),
		}
	}
	target.Status.Set(ev.Status)
	if blockers := p.cat.StatusBlockers(ev.Status); len(blockers) > 0 {
		if err := target.Ability.Remove(blockers...); err != nil {
			return &effect.Contradiction{
				Event:    ev,
				Expected: fmt.Sprintf("%s received %s despite a status-blocking ability", target.Species, ev.Status),
				Err:      err,
			}
		}
	}
	return nil
}

func (p *BattleParser) applyBoost(trial *game.BattleState, ev events.Event) error {
	target := trial.Team(ev.Side).ActivePokemon()
	if target == nil {
		return &GapError{Event: ev}
	}
	if ev.Kind == events.SetBoost {
		target.Vol.Boosts[ev.Stat] = utils.Clamp(ev.Amount, -6, 6)
		return nil
	}
	target.Vol.Boosts[ev.Stat] = utils.Clamp(target.Vol.Boosts[ev.Stat]+ev.Amount, -6, 6)
	return nil
}

func (p *BattleParser) applyWeather(trial *game.BattleState, ev events.Event) error {
	switch {
	case ev.Weather == "":
		trial.Room.Weather = game.WeatherStatus{}
	case ev.Weather == trial.Room.Weather.Kind:
		// Upkeep announcement; nothing changes.
	default:
		trial.Room.Weather = game.WeatherStatus{Kind: ev.Weather, TurnsLeft: 5, SummonerSide: ev.Side}
	}
	return nil
}

func (p *BattleParser) applySideStart(trial *game.BattleState, ev events.Event) error {
	status := &trial.Team(ev.Side).Status
	switch ev.Cond {
	case "reflect":
		status.Reflect.Start(5)
	case "lightscreen":
		status.LightScreen.Start(5)
	case "spikes":
		if status.Spikes < 3 {
			status.Spikes++
		}
	case "toxicspikes":
		if status.ToxicSpikes < 2 {
			status.ToxicSpikes++
		}
	case "stealthrock":
		status.StealthRock = true
	default:
		return &GapError{Event: ev}
	}
	return nil
}

func (p *BattleParser) applySideEnd(trial *game.BattleState, ev events.Event) error {
	status := &trial.Team(ev.Side).Status
	switch ev.Cond {
	case "reflect":
		status.Reflect.End()
	case "lightscreen":
		status.LightScreen.End()
	case "spikes":
		status.Spikes = 0
	case "toxicspikes":
		status.ToxicSpikes = 0
	case "stealthrock":
		status.StealthRock = false
	default:
		return &GapError{Event: ev}
	}
	return nil
}

func (p *BattleParser) confirmItem(target *game.Pokemon, ev events.Event) error {
	id := dex.ToID(ev.Item)
	if target.Item == nil {
		return &effect.Contradiction{
			Event:    ev,
			Expected: fmt.Sprintf("%s revealed item %s after its item was already gone", target.Species, id),
		}
	}
	if err := target.ConfirmItem(id); err != nil {
		return &effect.Contradiction{
			Event:    ev,
			Expected: fmt.Sprintf("%s revealed item %s, which was already ruled out", target.Species, id),
			Err:      err,
		}
	}
	return nil
}

// inferWeatherItem narrows the summoner's held item once the weather has
// outlived its base five turns: only an extending item explains that.
func (p *BattleParser) inferWeatherItem(trial *game.BattleState) {
	w := &trial.Room.Weather
	if !w.Active() || w.TurnsLeft != 0 || w.SourceItem != "" || w.SummonerSpecies == "" {
		return
	}
	extenders := p.cat.WeatherExtenders(w.Kind)
	if len(extenders) == 0 {
		return
	}
	summoner := trial.Team(w.SummonerSide).Find(w.SummonerSpecies)
	if summoner == nil || summoner.Item == nil {
		return
	}
	possible := false
	for _, id := range extenders {
		if summoner.Item.Has(id) {
			possible = true
			break
		}
	}
	if !possible {
		// Overlong weather with no extending item left is surprising but
		// not fatal; log and stop inferring.
		log.Warn().Str("weather", w.Kind).Msg("weather outlived its duration with no extending item")
		w.TurnsLeft = -1
		return
	}
	if err := summoner.Item.Narrow(extenders...); err != nil {
		w.TurnsLeft = -1
		return
	}
	if id, ok := summoner.Item.ConfirmedID(); ok {
		w.SourceItem = id
	}
	w.TurnsLeft = 3 // eight turns total
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
