package game

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrInvalidNarrow is returned when a narrowing would empty the set. That is
// a caller bug (a hypothesis contradicting observed reality), never a game
// event, so the set stays marked overnarrowed and keeps failing.
var ErrInvalidNarrow = errors.New("possibility: narrow would empty the set")

// Possibility tracks the still-possible candidates for one hidden fact, e.g.
// the opponent's ability or held item. Candidates only ever get removed;
// once a single one remains the fact is confirmed.
type Possibility[T any] struct {
	domain       map[string]T
	alive        map[string]struct{}
	overnarrowed bool
}

// NewPossibility builds a full set over the given domain. The domain map is
// captured, not copied; callers hand over ownership.
func NewPossibility[T any](domain map[string]T) *Possibility[T] {
	alive := make(map[string]struct{}, len(domain))
	for id := range domain {
		alive[id] = struct{}{}
	}
	return &Possibility[T]{domain: domain, alive: alive}
}

// Size returns the number of still-possible candidates.
func (p *Possibility[T]) Size() int { return len(p.alive) }

// Has reports whether the candidate is still possible.
func (p *Possibility[T]) Has(id string) bool {
	_, ok := p.alive[id]
	return ok
}

// Overnarrowed reports whether a previous narrow emptied the set.
func (p *Possibility[T]) Overnarrowed() bool { return p.overnarrowed }

// Possible returns the still-possible candidate ids, sorted.
func (p *Possibility[T]) Possible() []string {
	ids := maps.Keys(p.alive)
	slices.Sort(ids)
	return ids
}

// Value returns the domain value for a candidate id.
func (p *Possibility[T]) Value(id string) (T, bool) {
	v, ok := p.domain[id]
	return v, ok
}

// Narrow keeps only the given candidates, dropping ids not currently alive.
// Narrowing to a candidate that is already the single survivor is a no-op.
func (p *Possibility[T]) Narrow(ids ...string) error {
	return p.NarrowFunc(func(id string, _ T) bool {
		return slices.Contains(ids, id)
	})
}

// NarrowFunc keeps only the candidates the predicate accepts.
func (p *Possibility[T]) NarrowFunc(keep func(id string, v T) bool) error {
	if p.overnarrowed {
		return ErrInvalidNarrow
	}
	next := make(map[string]struct{}, len(p.alive))
	for id := range p.alive {
		if keep(id, p.domain[id]) {
			next[id] = struct{}{}
		}
	}
	if len(next) == 0 {
		p.overnarrowed = true
		return fmt.Errorf("%w (was %v)", ErrInvalidNarrow, p.Possible())
	}
	p.alive = next
	return nil
}

// Remove eliminates the given candidates.
func (p *Possibility[T]) Remove(ids ...string) error {
	return p.NarrowFunc(func(id string, _ T) bool {
		return !slices.Contains(ids, id)
	})
}

// Confirmed returns the single remaining value once exactly one candidate
// is left.
func (p *Possibility[T]) Confirmed() (T, bool) {
	var zero T
	if len(p.alive) != 1 {
		return zero, false
	}
	for id := range p.alive {
		return p.domain[id], true
	}
	return zero, false
}

// ConfirmedID returns the single remaining candidate id, if any.
func (p *Possibility[T]) ConfirmedID() (string, bool) {
	if len(p.alive) != 1 {
		return "", false
	}
	for id := range p.alive {
		return id, true
	}
	return "", false
}

// Clone returns an independent copy sharing nothing mutable with p. The
// domain values themselves are immutable catalogue entries and are shared.
func (p *Possibility[T]) Clone() *Possibility[T] {
	if p == nil {
		return nil
	}
	return &Possibility[T]{
		domain:       p.domain,
		alive:        maps.Clone(p.alive),
		overnarrowed: p.overnarrowed,
	}
}
