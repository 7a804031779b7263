package parser

import (
	"errors"
	"fmt"

	"pokewatch/effect"
	"pokewatch/events"
)

// GapError marks an event the catalogue has no rule for. In non-strict mode
// it is logged and skipped; in strict mode it aborts the battle, which is
// how catalogue gaps get caught during testing.
type GapError struct {
	Event events.Event
}

func (e *GapError) Error() string {
	return fmt.Sprintf("protocol gap: no rule for event %+v", e.Event)
}

// IsGap reports whether err is a protocol gap.
func IsGap(err error) bool {
	var g *GapError
	return errors.As(err, &g)
}

// IsContradiction reports whether err is an inference contradiction.
func IsContradiction(err error) bool {
	var c *effect.Contradiction
	return errors.As(err, &c)
}
