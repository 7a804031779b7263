package game

import "fmt"

// Sides lists the two side ids in order.
var Sides = []string{"p1", "p2"}

// BattleState is the full snapshot: both teams, the shared room state and
// the last move used (needed for move-calling inference). It is owned by the
// top-level parser and mutated only inside effect interpreters; external
// consumers must treat it as read-only.
type BattleState struct {
	Teams    map[string]*Team
	Room     RoomStatus
	LastMove string // catalogue id of the last move used by either side
	Turn     int
}

// NewBattleState creates an empty two-side battle.
func NewBattleState() *BattleState {
	return &BattleState{
		Teams: map[string]*Team{
			"p1": NewTeam("p1"),
			"p2": NewTeam("p2"),
		},
	}
}

// Team returns a side's team.
func (s *BattleState) Team(side string) *Team {
	return s.Teams[side]
}

// Opponent returns the other side's team.
func (s *BattleState) Opponent(side string) *Team {
	return s.Teams[OpponentSide(side)]
}

// OpponentSide maps a side id to the other side's.
func OpponentSide(side string) string {
	if side == "p1" {
		return "p2"
	}
	return "p1"
}

// Clone returns a deep copy sharing nothing mutable with s. Event
// application works on a clone and commits only on success, so a failed
// event never leaks a partial mutation into the exposed snapshot.
func (s *BattleState) Clone() *BattleState {
	out := *s
	out.Teams = make(map[string]*Team, len(s.Teams))
	for side, t := range s.Teams {
		out.Teams[side] = t.Clone()
	}
	return &out
}

// TickTurn advances per-turn counters on entry to a new turn.
func (s *BattleState) TickTurn(turn int) {
	s.Turn = turn
	s.Room.Tick()
	for _, t := range s.Teams {
		t.Status.Reflect.Tick()
		t.Status.LightScreen.Tick()
		if t.Status.WishTurns > 0 {
			t.Status.WishTurns--
		}
		if p := t.ActivePokemon(); p != nil {
			p.Status.Tick()
		}
	}
}

func (s *BattleState) String() string {
	return fmt.Sprintf("turn %d: p1 active %s, p2 active %s, weather %q",
		s.Turn, activeName(s.Teams["p1"]), activeName(s.Teams["p2"]), s.Room.Weather.Kind)
}

func activeName(t *Team) string {
	if p := t.ActivePokemon(); p != nil {
		return p.Species
	}
	return "(none)"
}
