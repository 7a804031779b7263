package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pokewatch/dex"
)

func testPokemon(t *testing.T, species string) *Pokemon {
	t.Helper()
	cat := dex.Default()
	sp, ok := cat.Species(species)
	require.True(t, ok, "species %s must be in the default catalogue", species)
	return NewPokemon(sp, 50, "M", cat)
}

func TestMoveset(t *testing.T) {
	t.Run("use reveals the move and spends one pp", func(t *testing.T) {
		p := testPokemon(t, "pikachu")
		slot, err := p.Moves.Use("thunderbolt", 15)
		require.NoError(t, err)
		require.Equal(t, 14, slot.PP)
		require.Equal(t, 15, slot.MaxPP)
	})

	t.Run("reveal without use spends nothing", func(t *testing.T) {
		p := testPokemon(t, "pikachu")
		slot, err := p.Moves.Reveal("thunderbolt", 15)
		require.NoError(t, err)
		require.Equal(t, 15, slot.PP)
	})

	t.Run("a fifth distinct move contradicts the slot limit", func(t *testing.T) {
		p := testPokemon(t, "pikachu")
		for _, id := range []string{"thunderbolt", "tackle", "growl", "substitute"} {
			_, err := p.Moves.Reveal(id, 10)
			require.NoError(t, err)
		}
		_, err := p.Moves.Reveal("toxic", 10)
		require.Error(t, err)
	})
}

func TestSwitchOutResetsVolatileOnly(t *testing.T) {
	p := testPokemon(t, "snorlax")
	_, err := p.Moves.Use("bodyslam", 15)
	require.NoError(t, err)
	p.Status.Set("brn")
	p.Vol.Confused = true
	p.Vol.Boosts["atk"] = 2
	p.Vol.SubstituteHP = 40

	p.SwitchOut()

	t.Run("volatile bundle matches a fresh switch-in", func(t *testing.T) {
		require.Equal(t, NewVolatile(), p.Vol)
	})
	t.Run("major status and pp persist", func(t *testing.T) {
		require.Equal(t, "brn", p.Status.Current)
		require.Equal(t, 14, p.Moves.Get("bodyslam").PP)
	})
	t.Run("switching out twice is idempotent", func(t *testing.T) {
		p.SwitchOut()
		require.Equal(t, NewVolatile(), p.Vol)
	})
}

func TestMajorStatus(t *testing.T) {
	t.Run("counter is active only while a status is set", func(t *testing.T) {
		var s MajorStatus
		s.Tick()
		require.Zero(t, s.Turns)

		s.Set("tox")
		s.Tick()
		s.Tick()
		require.Equal(t, 2, s.Turns)

		s.Cure()
		require.False(t, s.Active())
		require.Zero(t, s.Turns)
	})

	t.Run("sleep carries a duration window that tightens per turn", func(t *testing.T) {
		var s MajorStatus
		s.Set("slp")
		require.Equal(t, 1, s.MinLeft)
		require.Equal(t, 3, s.MaxLeft)
		s.Tick()
		require.Equal(t, 0, s.MinLeft)
		require.Equal(t, 2, s.MaxLeft)
	})
}

func TestTeamRoster(t *testing.T) {
	cat := dex.Default()
	pika, _ := cat.Species("pikachu")
	lax, _ := cat.Species("snorlax")

	t.Run("switch-in creates on first reveal and reuses afterwards", func(t *testing.T) {
		team := NewTeam("p1")
		first, err := team.SwitchIn(pika, 50, "M", cat)
		require.NoError(t, err)
		_, err = team.SwitchIn(lax, 50, "F", cat)
		require.NoError(t, err)
		again, err := team.SwitchIn(pika, 50, "M", cat)
		require.NoError(t, err)
		require.Same(t, first, again)
		require.Len(t, team.Roster, 2)
	})

	t.Run("authoritative roster size caps reveals", func(t *testing.T) {
		team := NewTeam("p1")
		team.Size = 1
		_, err := team.SwitchIn(pika, 50, "M", cat)
		require.NoError(t, err)
		_, err = team.SwitchIn(lax, 50, "F", cat)
		require.Error(t, err)
	})

	t.Run("faint forces a pending switch", func(t *testing.T) {
		team := NewTeam("p1")
		p, err := team.SwitchIn(pika, 50, "M", cat)
		require.NoError(t, err)
		require.NoError(t, team.FaintActive())
		require.True(t, p.Fainted)
		require.Nil(t, team.ActivePokemon())
		require.True(t, team.Status.PendingSwitch)
	})
}
