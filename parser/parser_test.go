package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pokewatch/dex"
	"pokewatch/events"
)

func switchIn(side, species string) events.Event {
	return events.Event{Kind: events.SwitchIn, Side: side, Species: species, Level: 50}
}

// feedAll drives a sequence of events, failing the test on the first error.
func feedAll(t *testing.T, p *BattleParser, evs ...events.Event) {
	t.Helper()
	for _, ev := range evs {
		_, err := p.Feed(ev)
		require.NoError(t, err, "event %s", ev.Kind)
	}
}

func TestGuaranteedEffectAbsence(t *testing.T) {
	t.Run("a hidden blocking ability absorbs the missing effect", func(t *testing.T) {
		p := New(dex.Default(), Strict())
		feedAll(t, p,
			switchIn("p1", "venusaur"),
			switchIn("p2", "dragonite"),
			events.Event{Kind: events.UseMove, Side: "p1", Move: "spore"},
			events.Event{Kind: events.Turn, Turn: 2},
		)

		foe := p.Snapshot().Team("p2").ActivePokemon()
		require.False(t, foe.Status.Active(), "sleep never landed")
		id, ok := foe.Ability.ConfirmedID()
		require.True(t, ok, "the missing sleep pins down the ability")
		require.Equal(t, "insomnia", id)

		slot := p.Snapshot().Team("p1").ActivePokemon().Moves.Get("spore")
		require.NotNil(t, slot)
		require.Equal(t, slot.MaxPP-1, slot.PP)
	})

	t.Run("no possible blocker is a fatal contradiction", func(t *testing.T) {
		p := New(dex.Default(), Strict())
		feedAll(t, p,
			switchIn("p1", "venusaur"),
			switchIn("p2", "pikachu"),
			events.Event{Kind: events.UseMove, Side: "p1", Move: "spore"},
		)

		_, err := p.Feed(events.Event{Kind: events.Turn, Turn: 2})
		require.Error(t, err)
		require.True(t, IsContradiction(err))

		// The failure latches: nothing is accepted afterwards.
		_, err = p.Feed(events.Event{Kind: events.Turn, Turn: 3})
		require.Error(t, err)
	})
}

func TestTwoTurnMove(t *testing.T) {
	t.Run("charge and release spend one PP total", func(t *testing.T) {
		p := New(dex.Default(), Strict())
		feedAll(t, p,
			switchIn("p1", "venusaur"),
			switchIn("p2", "slowbro"),
			events.Event{Kind: events.UseMove, Side: "p1", Move: "solarbeam"},
			events.Event{Kind: events.PrepareMove, Side: "p1", Move: "solarbeam"},
		)
		user := p.Snapshot().Team("p1").ActivePokemon()
		require.Equal(t, "solarbeam", user.Vol.ChargeMove)

		feedAll(t, p,
			events.Event{Kind: events.Turn, Turn: 2},
			events.Event{Kind: events.UseMove, Side: "p1", Move: "solarbeam"},
			events.Event{Kind: events.TakeDamage, Side: "p2", HP: 42, Percent: true},
			events.Event{Kind: events.Turn, Turn: 3},
		)

		user = p.Snapshot().Team("p1").ActivePokemon()
		require.Empty(t, user.Vol.ChargeMove)
		slot := user.Moves.Get("solarbeam")
		require.NotNil(t, slot)
		require.Equal(t, slot.MaxPP-1, slot.PP, "the release turn reuses the charge turn's deduction")
		require.Equal(t, 42, p.Snapshot().Team("p2").ActivePokemon().HP.Cur)
	})

	t.Run("a charge-shortening item turns preparation into release", func(t *testing.T) {
		p := New(dex.Default(), Strict())
		feedAll(t, p,
			switchIn("p1", "venusaur"),
			switchIn("p2", "slowbro"),
			events.Event{Kind: events.UseMove, Side: "p1", Move: "solarbeam"},
			events.Event{Kind: events.PrepareMove, Side: "p1", Move: "solarbeam"},
			events.Event{Kind: events.RemoveItem, Side: "p1", Item: "powerherb"},
			events.Event{Kind: events.TakeDamage, Side: "p2", HP: 42, Percent: true},
			events.Event{Kind: events.Turn, Turn: 2},
		)

		user := p.Snapshot().Team("p1").ActivePokemon()
		require.Empty(t, user.Vol.ChargeMove)
		require.Nil(t, user.Item, "the herb is spent")
		last, ok := user.LastItem.ConfirmedID()
		require.True(t, ok)
		require.Equal(t, "powerherb", last)
		slot := user.Moves.Get("solarbeam")
		require.Equal(t, slot.MaxPP-1, slot.PP)
		require.Equal(t, 42, p.Snapshot().Team("p2").ActivePokemon().HP.Cur)
	})
}

func TestCalledMove(t *testing.T) {
	p := New(dex.Default(), Strict())
	feedAll(t, p,
		switchIn("p1", "snorlax"),
		switchIn("p2", "slowbro"),
		events.Event{Kind: events.UseMove, Side: "p1", Move: "sleeptalk"},
		events.Event{Kind: events.UseMove, Side: "p1", Move: "bodyslam"},
		events.Event{Kind: events.TakeDamage, Side: "p2", HP: 55, Percent: true},
		events.Event{Kind: events.Turn, Turn: 2},
	)

	user := p.Snapshot().Team("p1").ActivePokemon()
	require.Len(t, user.Moves.Slots, 2)

	talk := user.Moves.Get("sleeptalk")
	require.NotNil(t, talk)
	require.Equal(t, talk.MaxPP-1, talk.PP, "the caller pays its PP")

	called := user.Moves.Get("bodyslam")
	require.NotNil(t, called, "the called move is revealed")
	require.Equal(t, called.MaxPP, called.PP, "the called move costs nothing")

	require.Equal(t, 55, p.Snapshot().Team("p2").ActivePokemon().HP.Cur)
}

func TestCallAfterGuaranteedEffect(t *testing.T) {
	// A move whose guaranteed status precedes its call effect: the nested
	// move use must not swallow the missing status silently.
	cat, err := dex.Parse([]byte(`
moves:
  echoshock:
    name: Echo Shock
    type: electric
    class: status
    pp: 10
    effects:
      - kind: status
        target: foe
        status: par
      - kind: call
        call: any
  tackle:
    name: Tackle
    type: normal
    class: physical
    power: 40
    pp: 35
abilities:
  static:
    name: Static
  limber:
    name: Limber
    blocksStatus: [par]
species:
  pikachu:
    name: Pikachu
    types: [electric]
    abilities: [static]
  marowak:
    name: Marowak
    types: [ground]
    abilities: [static]
`))
	require.NoError(t, err)

	p := New(cat, Strict())
	feedAll(t, p,
		switchIn("p1", "pikachu"),
		switchIn("p2", "marowak"),
		events.Event{Kind: events.UseMove, Side: "p1", Move: "echoshock"},
	)

	// The paralysis never arrived and marowak cannot block it, so the called
	// move cannot be accepted.
	_, err = p.Feed(events.Event{Kind: events.UseMove, Side: "p1", Move: "tackle"})
	require.Error(t, err)
	require.True(t, IsContradiction(err))
}

func TestAllOrNothingApplication(t *testing.T) {
	p := New(dex.Default(), Strict())
	feedAll(t, p,
		switchIn("p1", "venusaur"),
		switchIn("p2", "slowbro"),
	)
	before := p.Snapshot()

	// Slowbro's only legal ability is owntempo, so this reveal is impossible.
	_, err := p.Feed(events.Event{Kind: events.ActivateAbility, Side: "p2", Ability: "static"})
	require.Error(t, err)
	require.True(t, IsContradiction(err))

	require.Same(t, before, p.Snapshot(), "a failed event leaves the snapshot untouched")
	foe := p.Snapshot().Team("p2").ActivePokemon()
	require.False(t, foe.Ability.Overnarrowed())
	require.Equal(t, []string{"owntempo"}, foe.Ability.Possible())
}

func TestProtocolGaps(t *testing.T) {
	t.Run("an unknown move is skipped outside strict mode", func(t *testing.T) {
		p := New(dex.Default())
		feedAll(t, p,
			switchIn("p1", "venusaur"),
			switchIn("p2", "slowbro"),
		)

		sig, err := p.Feed(events.Event{Kind: events.UseMove, Side: "p1", Move: "splash"})
		require.NoError(t, err)
		require.Equal(t, Continue, sig)

		// The parser keeps going.
		feedAll(t, p,
			events.Event{Kind: events.UseMove, Side: "p1", Move: "tackle"},
			events.Event{Kind: events.TakeDamage, Side: "p2", HP: 80, Percent: true},
			events.Event{Kind: events.Turn, Turn: 2},
		)
		require.Equal(t, 80, p.Snapshot().Team("p2").ActivePokemon().HP.Cur)
	})

	t.Run("a soft skip drops only the gap event, never pending evidence", func(t *testing.T) {
		p := New(dex.Default())
		feedAll(t, p,
			switchIn("p1", "venusaur"),
			switchIn("p2", "snorlax"),
			events.Event{Kind: events.UseMove, Side: "p1", Move: "toxic"},
		)

		// The unknown move is skipped; the open toxic context must survive
		// so its missing guaranteed effect still gets explained on Turn.
		sig, err := p.Feed(events.Event{Kind: events.UseMove, Side: "p1", Move: "splash"})
		require.NoError(t, err)
		require.Equal(t, Continue, sig)

		feedAll(t, p, events.Event{Kind: events.Turn, Turn: 2})

		foe := p.Snapshot().Team("p2").ActivePokemon()
		id, ok := foe.Ability.ConfirmedID()
		require.True(t, ok, "the missing toxic still pins down the ability")
		require.Equal(t, "immunity", id)
	})

	t.Run("an unknown halt reason follows the same gap rules", func(t *testing.T) {
		p := New(dex.Default())
		feedAll(t, p, switchIn("p1", "venusaur"), switchIn("p2", "slowbro"))

		sig, err := p.Feed(events.Event{Kind: events.Halt, Reason: "teatime"})
		require.NoError(t, err)
		require.Equal(t, Continue, sig)

		strict := New(dex.Default(), Strict())
		feedAll(t, strict, switchIn("p1", "venusaur"), switchIn("p2", "slowbro"))

		_, err = strict.Feed(events.Event{Kind: events.Halt, Reason: "teatime"})
		require.Error(t, err)
		require.True(t, IsGap(err))
		_, err = strict.Feed(events.Event{Kind: events.Turn, Turn: 2})
		require.Error(t, err, "a strict gap latches the failure")
	})

	t.Run("strict mode makes the gap fatal", func(t *testing.T) {
		p := New(dex.Default(), Strict())
		feedAll(t, p, switchIn("p1", "venusaur"), switchIn("p2", "slowbro"))

		_, err := p.Feed(events.Event{Kind: events.UseMove, Side: "p1", Move: "splash"})
		require.Error(t, err)
		require.True(t, IsGap(err))

		_, err = p.Feed(events.Event{Kind: events.Turn, Turn: 2})
		require.Error(t, err)
	})
}

func TestDecisionPoints(t *testing.T) {
	p := New(dex.Default(), Strict())
	feedAll(t, p,
		switchIn("p1", "venusaur"),
		switchIn("p2", "slowbro"),
		events.Event{Kind: events.UseMove, Side: "p1", Move: "tackle"},
		events.Event{Kind: events.TakeDamage, Side: "p2", HP: 80, Percent: true},
		events.Event{Kind: events.Turn, Turn: 2},
	)

	sig, err := p.Feed(events.Event{Kind: events.Halt, Reason: events.HaltDecide})
	require.NoError(t, err)
	require.Equal(t, Decide, sig)

	acts := p.Actions("p1")
	require.Contains(t, acts, Action{Kind: ActionMove, Move: "tackle"})

	sig, err = p.Feed(events.Event{Kind: events.Halt, Reason: events.HaltWait})
	require.NoError(t, err)
	require.Equal(t, Continue, sig)
}

func TestGameOver(t *testing.T) {
	p := New(dex.Default(), Strict())
	feedAll(t, p,
		switchIn("p1", "venusaur"),
		switchIn("p2", "slowbro"),
	)

	sig, err := p.Feed(events.Event{Kind: events.Halt, Reason: events.HaltGameOver, Winner: "p1"})
	require.NoError(t, err)
	require.Equal(t, GameOver, sig)
	require.Equal(t, "p1", p.Winner())

	sig, err = p.Feed(events.Event{Kind: events.Turn, Turn: 9})
	require.Error(t, err)
	require.Equal(t, GameOver, sig)
}

func TestEntryWeatherAbility(t *testing.T) {
	t.Run("the announced weather follows the switch-in", func(t *testing.T) {
		p := New(dex.Default(), Strict())
		feedAll(t, p,
			switchIn("p1", "venusaur"),
			switchIn("p2", "politoed"),
			events.Event{Kind: events.ActivateAbility, Side: "p2", Ability: "drizzle"},
			events.Event{Kind: events.Weather, Weather: "rain"},
			events.Event{Kind: events.Turn, Turn: 2},
		)

		w := p.Snapshot().Room.Weather
		require.Equal(t, "rain", w.Kind)
		require.Equal(t, "p2", w.SummonerSide)
		require.Equal(t, "politoed", w.SummonerSpecies)
	})

	t.Run("an announced entry weather that never starts fails", func(t *testing.T) {
		p := New(dex.Default(), Strict())
		feedAll(t, p,
			switchIn("p1", "venusaur"),
			switchIn("p2", "politoed"),
			events.Event{Kind: events.ActivateAbility, Side: "p2", Ability: "drizzle"},
		)

		_, err := p.Feed(events.Event{Kind: events.Turn, Turn: 2})
		require.Error(t, err)
		require.True(t, IsContradiction(err))
	})
}

func TestRestOverwritesStatus(t *testing.T) {
	p := New(dex.Default(), Strict())
	feedAll(t, p,
		switchIn("p1", "snorlax"),
		switchIn("p2", "slowbro"),
		events.Event{Kind: events.SetStatus, Side: "p1", Status: "brn"},
		events.Event{Kind: events.UseMove, Side: "p1", Move: "rest"},
		events.Event{Kind: events.SetStatus, Side: "p1", Status: "slp", From: "rest"},
		events.Event{Kind: events.Heal, Side: "p1", HP: 100, Percent: true},
	)

	user := p.Snapshot().Team("p1").ActivePokemon()
	require.Equal(t, "slp", user.Status.Current, "rest trades the burn for sleep")
	require.Equal(t, 2, user.Status.MinLeft, "rest sleep has a fixed duration")
	require.Equal(t, 2, user.Status.MaxLeft)
	require.Equal(t, 100, user.HP.Cur)
}

func TestSwitchInHazards(t *testing.T) {
	p := New(dex.Default(), Strict())
	feedAll(t, p,
		switchIn("p1", "venusaur"),
		switchIn("p2", "slowbro"),
		events.Event{Kind: events.UseMove, Side: "p1", Move: "stealthrock"},
		events.Event{Kind: events.SideStart, Side: "p2", Cond: "stealthrock"},
		events.Event{Kind: events.Turn, Turn: 2},
		switchIn("p2", "pikachu"),
		events.Event{Kind: events.TakeDamage, Side: "p2", HP: 88, Percent: true, From: "stealthrock"},
		events.Event{Kind: events.Turn, Turn: 3},
	)

	foeTeam := p.Snapshot().Team("p2")
	require.True(t, foeTeam.Status.StealthRock)
	require.Equal(t, "pikachu", foeTeam.ActivePokemon().Species)
	require.Equal(t, 88, foeTeam.ActivePokemon().HP.Cur)
	require.Len(t, foeTeam.Roster, 2)
}

func TestRampageLocksActions(t *testing.T) {
	p := New(dex.Default(), Strict())
	feedAll(t, p,
		switchIn("p1", "dragonite"),
		switchIn("p2", "slowbro"),
		events.Event{Kind: events.UseMove, Side: "p1", Move: "outrage"},
		events.Event{Kind: events.TakeDamage, Side: "p2", HP: 30, Percent: true},
		events.Event{Kind: events.Turn, Turn: 2},
		events.Event{Kind: events.Halt, Reason: events.HaltDecide},
	)

	acts := p.Actions("p1")
	require.Equal(t, []Action{{Kind: ActionMove, Move: "outrage"}}, acts,
		"a rampaging combatant can neither switch nor pick another move")
}

func TestSelfSwitchForcesSwitch(t *testing.T) {
	p := New(dex.Default(), Strict())
	feedAll(t, p,
		switchIn("p1", "venusaur"),
		switchIn("p2", "slowbro"),
		events.Event{Kind: events.UseMove, Side: "p1", Move: "uturn"},
		events.Event{Kind: events.TakeDamage, Side: "p2", HP: 70, Percent: true},
		events.Event{Kind: events.Halt, Reason: events.HaltDecide},
	)

	require.True(t, p.Snapshot().Team("p1").Status.PendingSwitch)
	for _, a := range p.Actions("p1") {
		require.Equal(t, ActionSwitch, a.Kind)
	}

	// The incoming replacement clears the pending flag.
	feedAll(t, p, switchIn("p1", "snorlax"), events.Event{Kind: events.Turn, Turn: 2})
	require.False(t, p.Snapshot().Team("p1").Status.PendingSwitch)
	require.Equal(t, "snorlax", p.Snapshot().Team("p1").ActivePokemon().Species)
}
