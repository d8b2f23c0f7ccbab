// Package engine is the generic turn-based session abstraction shared by all
// game variants. A variant is a finite state machine expressed as a table of
// named actions over the loaded session graph; the dispatcher executes one
// action per inbound command inside a storage transaction and broadcasts the
// resulting snapshot on success.
package engine

import (
	"math/rand"
	"time"

	"github.com/quizhall/backend/internal/models"
)

// Context is the execution scope of a single action: the freshly loaded
// session graph, decoded parameters, and the wall-clock read used for every
// timer computation of this mutation.
type Context struct {
	Game   *models.Game
	Params Params
	Now    time.Time

	// IntN picks a uniform random int in [0, n); injected for tests.
	IntN func(n int) int

	intercoms []string
}

// NewContext builds an action context with default clock-independent helpers.
func NewContext(g *models.Game, params Params, now time.Time) *Context {
	return &Context{Game: g, Params: params, Now: now, IntN: rand.Intn}
}

// Intercom queues an out-of-band relay message (buzzer gong, reveal flash)
// to be published to the room after the mutation commits. It never touches
// session state.
func (c *Context) Intercom(message string) {
	c.intercoms = append(c.intercoms, message)
}

// Intercoms returns the relay messages queued during the action.
func (c *Context) Intercoms() []string { return c.intercoms }

// GuardFromState implements the compare-and-swap advance guard: when the
// caller supplied its assumed current state and the session has already
// moved on, the action is a no-op rather than an error, since it usually
// means another client won the race.
func (c *Context) GuardFromState() error {
	from, err := c.Params.OptString("from_state")
	if err != nil {
		return err
	}
	if from != "" && from != c.Game.State {
		return ErrNothingToDo
	}
	return nil
}

// ActionFunc mutates the session graph in memory or returns one of the
// three outcomes: nil (mutated, broadcast), ErrNothingToDo (silent drop)
// or a rejection (private error reply).
type ActionFunc func(*Context) error

// Action is one entry of a variant's command table.
type Action struct {
	// Exclusive actions run under a pessimistic row lock on the session:
	// first caller wins, concurrent callers observe a no-op. Used for
	// buzzer/button claim races where reload-and-compare is insufficient.
	Exclusive bool
	Run       ActionFunc
}

// Variant is one game's complete rule set: its closed state set, its
// registration policy and its command table.
type Variant struct {
	Name string

	// Registration policy. MaxPlayers == 0 means the variant has no
	// registered participants at all.
	MinPlayers int
	MaxPlayers int

	// InitialState is the waiting gate new sessions start in; registration
	// is only legal while the session remains there.
	InitialState string

	// TerminalState has no outgoing transitions.
	TerminalState string

	// States is the closed set of legal states, used for validation.
	States []string

	Actions map[string]Action

	// Snapshot maps the session graph to the wire representation sent to
	// every room member after an accepted mutation.
	Snapshot func(g *models.Game) any
}

// Action looks up a named command in the variant's table.
func (v *Variant) Action(name string) (Action, bool) {
	a, ok := v.Actions[name]
	return a, ok
}

// ValidState reports whether s belongs to the variant's closed state set.
func (v *Variant) ValidState(s string) bool {
	for _, known := range v.States {
		if known == s {
			return true
		}
	}
	return false
}
