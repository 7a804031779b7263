package game

// WeatherStatus is the active weather plus what the parser has inferred
// about its source. A weather that outlives its base duration implies an
// extending item on the summoner.
type WeatherStatus struct {
	Kind      string // "" for none
	TurnsLeft int    // -1 unknown
	// Item id inferred to be extending the duration, "" when unknown.
	SourceItem      string
	SummonerSide    string // side that set the weather, "" for unknown
	SummonerSpecies string
}

// Active reports whether any weather is up.
func (w *WeatherStatus) Active() bool { return w.Kind != "" }

// RoomStatus is the shared field state: weather plus room-wide effects.
type RoomStatus struct {
	Weather   WeatherStatus
	Gravity   TempCondition
	TrickRoom TempCondition
}

// Tick advances every room duration by one turn.
func (r *RoomStatus) Tick() {
	if r.Weather.Active() && r.Weather.TurnsLeft > 0 {
		r.Weather.TurnsLeft--
	}
	r.Gravity.Tick()
	r.TrickRoom.Tick()
}
