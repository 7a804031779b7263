package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pokewatch/dex"
)

func TestBattleStateClone(t *testing.T) {
	cat := dex.Default()
	pika, _ := cat.Species("pikachu")

	state := NewBattleState()
	p, err := state.Team("p1").SwitchIn(pika, 50, "M", cat)
	require.NoError(t, err)
	_, err = p.Moves.Use("thunderbolt", 15)
	require.NoError(t, err)
	state.Room.Weather = WeatherStatus{Kind: "rain", TurnsLeft: 5}

	clone := state.Clone()

	t.Run("clone equals the original at copy time", func(t *testing.T) {
		cp := clone.Team("p1").ActivePokemon()
		require.Equal(t, "pikachu", cp.Species)
		require.Equal(t, 14, cp.Moves.Get("thunderbolt").PP)
		require.Equal(t, "rain", clone.Room.Weather.Kind)
	})

	t.Run("mutating the clone never touches the original", func(t *testing.T) {
		cp := clone.Team("p1").ActivePokemon()
		cp.Status.Set("par")
		cp.Vol.Boosts["atk"] = 3
		cp.Moves.Get("thunderbolt").PP = 0
		require.NoError(t, cp.Ability.Narrow("static"))
		clone.Room.Weather.Kind = "sun"

		orig := state.Team("p1").ActivePokemon()
		require.False(t, orig.Status.Active())
		require.Zero(t, orig.Vol.Boosts["atk"])
		require.Equal(t, 14, orig.Moves.Get("thunderbolt").PP)
		require.Equal(t, "rain", state.Room.Weather.Kind)
	})
}

func TestTickTurn(t *testing.T) {
	cat := dex.Default()
	lax, _ := cat.Species("snorlax")

	state := NewBattleState()
	p, err := state.Team("p2").SwitchIn(lax, 50, "F", cat)
	require.NoError(t, err)
	p.Status.Set("tox")
	state.Team("p2").Status.Reflect.Start(5)
	state.Team("p2").Status.WishTurns = 2

	state.TickTurn(7)

	require.Equal(t, 7, state.Turn)
	require.Equal(t, 1, p.Status.Turns)
	require.Equal(t, 4, state.Team("p2").Status.Reflect.TurnsLeft)
	require.Equal(t, 1, state.Team("p2").Status.WishTurns)
}
