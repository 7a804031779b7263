// Package events defines the typed battle event records consumed by the
// parser. Producing these records from the simulator's wire protocol is the
// transport layer's job; the parser only ever sees this shape.
package events

// Kind discriminates event records.
type Kind string

const (
	UseMove         Kind = "useMove"
	SwitchIn        Kind = "switchIn"
	Drag            Kind = "drag" // forced switch (whirlwind, roar)
	TakeDamage      Kind = "takeDamage"
	Heal            Kind = "heal"
	SetHP           Kind = "setHP"
	SetStatus       Kind = "setStatus"
	CureStatus      Kind = "cureStatus"
	Boost           Kind = "boost"
	SetBoost        Kind = "setBoost"
	SwapBoosts      Kind = "swapBoosts"
	ClearBoosts     Kind = "clearBoosts"
	ActivateAbility Kind = "activateAbility"
	RevealItem      Kind = "revealItem"
	RemoveItem      Kind = "removeItem"
	PrepareMove     Kind = "prepareMove"
	MustRecharge    Kind = "mustRecharge"
	StartVolatile   Kind = "startVolatile"
	EndVolatile     Kind = "endVolatile"
	Weather         Kind = "weather"
	FieldStart      Kind = "fieldStart"
	FieldEnd        Kind = "fieldEnd"
	SideStart       Kind = "sideStart"
	SideEnd         Kind = "sideEnd"
	Faint           Kind = "faint"
	ChangeType      Kind = "changeType"
	DisableMove     Kind = "disableMove"
	Immune          Kind = "immune"
	Miss            Kind = "miss"
	Fail            Kind = "fail"
	Cant            Kind = "cant"
	Turn            Kind = "turn"
	Halt            Kind = "halt"
)

// HaltReason qualifies a Halt event.
type HaltReason string

const (
	HaltDecide   HaltReason = "decide"
	HaltWait     HaltReason = "wait"
	HaltGameOver HaltReason = "gameOver"
)

// Event is a single observed battle event. It is a flat record: Kind selects
// which fields are meaningful. Side is always the subject of the event (the
// actor for UseMove, the recipient for TakeDamage, and so on); Of names the
// other side when an event has a distinct source.
type Event struct {
	Kind Kind   `json:"type"`
	Side string `json:"side,omitempty"` // "p1" or "p2"
	Of   string `json:"of,omitempty"`   // source side, when distinct

	// Switch-in identity. Revealed facts, certain immediately.
	Species string `json:"species,omitempty"`
	Level   int    `json:"level,omitempty"`
	Gender  string `json:"gender,omitempty"`

	Move    string `json:"move,omitempty"`
	Ability string `json:"ability,omitempty"`
	Item    string `json:"item,omitempty"` // RemoveItem: "" when knocked off rather than consumed

	// HP events. MaxHP 100 with Percent set means a percentage display.
	HP      int  `json:"hp,omitempty"`
	MaxHP   int  `json:"maxhp,omitempty"`
	Percent bool `json:"percent,omitempty"`

	Status   string   `json:"status,omitempty"`
	Stat     string   `json:"stat,omitempty"`
	Amount   int      `json:"amount,omitempty"`
	Volatile string   `json:"volatile,omitempty"`
	Weather  string   `json:"weather,omitempty"` // "" means weather ended
	Field    string   `json:"field,omitempty"`
	Cond     string   `json:"cond,omitempty"` // side condition id
	Types    []string `json:"types,omitempty"`

	// From attributes an event to a rule source outside the current move,
	// e.g. hazard damage on switch-in or residual status damage.
	From string `json:"from,omitempty"`

	Reason HaltReason `json:"reason,omitempty"` // Halt, Cant
	Turn   int        `json:"turn,omitempty"`
	Winner string     `json:"winner,omitempty"` // Halt(gameOver)
}
