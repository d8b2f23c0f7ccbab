package realtime

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/quizhall/backend/internal/engine"
	"github.com/quizhall/backend/internal/models"
)

// Command is one inbound client message: either a state machine action with
// parameters, or an intercom relay whose message is forwarded opaquely.
type Command struct {
	Method  string          `json:"method"`
	Params  engine.Params   `json:"params"`
	Message json.RawMessage `json:"message"`
}

// Event types sent to clients.
const (
	EventGame     = "game"
	EventIntercom = "intercom"
	EventError    = "error"
)

// GameStore is the persistence surface the dispatcher mutates through.
type GameStore interface {
	GetByToken(ctx context.Context, variant, token string) (*models.Game, error)
	Mutate(ctx context.Context, variant, token string, exclusive bool, fn func(*models.Game) error) (*models.Game, error)
}

// Broadcaster is the room fan-out surface (implemented by Hub).
type Broadcaster interface {
	BroadcastToRoomAndPublish(room, event string, payload interface{})
	SendToClient(room, clientID, event string, payload interface{})
}

// Dispatcher routes inbound commands to variant actions and fans out the
// results: an accepted mutation broadcasts the fresh snapshot to the whole
// room, a rejection is answered privately, a no-op is dropped.
type Dispatcher struct {
	store    GameStore
	variants map[string]*engine.Variant
	hub      Broadcaster
	logger   *zap.Logger

	// now and intN are injected for deterministic tests.
	now  func() time.Time
	intN func(n int) int
}

// NewDispatcher creates a command dispatcher over the variant catalogue.
func NewDispatcher(store GameStore, variants map[string]*engine.Variant, hub Broadcaster, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		store:    store,
		variants: variants,
		hub:      hub,
		logger:   logger,
		now:      time.Now,
	}
}

// Variant looks up a game variant by name.
func (d *Dispatcher) Variant(name string) (*engine.Variant, bool) {
	v, ok := d.variants[name]
	return v, ok
}

// Dispatch executes one client command against a session.
func (d *Dispatcher) Dispatch(ctx context.Context, v *engine.Variant, token, clientID string, cmd Command) {
	room := RoomKey(v.Name, token)

	if cmd.Method == "intercom" {
		d.hub.BroadcastToRoomAndPublish(room, EventIntercom, cmd.Message)
		return
	}

	action, ok := v.Action(cmd.Method)
	if !ok {
		d.hub.SendToClient(room, clientID, EventError, "unknown method "+cmd.Method)
		return
	}

	var intercoms []string
	g, err := d.store.Mutate(ctx, v.Name, token, action.Exclusive, func(g *models.Game) error {
		c := engine.NewContext(g, cmd.Params, d.now())
		if d.intN != nil {
			c.IntN = d.intN
		}
		if err := action.Run(c); err != nil {
			return err
		}
		intercoms = c.Intercoms()
		return nil
	})

	switch {
	case err == nil:
		d.hub.BroadcastToRoomAndPublish(room, EventGame, v.Snapshot(g))
		for _, m := range intercoms {
			d.hub.BroadcastToRoomAndPublish(room, EventIntercom, m)
		}
	case engine.IsNothingToDo(err):
		// Lost race or stale from_state; silently dropped.
	case engine.IsRejection(err):
		d.hub.SendToClient(room, clientID, EventError, err.Error())
		d.logger.Warn("command rejected",
			zap.String("room", room),
			zap.String("method", cmd.Method),
			zap.Error(err),
		)
	default:
		d.hub.SendToClient(room, clientID, EventError, "internal error")
		d.logger.Error("command failed",
			zap.String("room", room),
			zap.String("method", cmd.Method),
			zap.Error(err),
		)
	}
}

// Snapshot loads a session and renders its wire representation, used for the
// join snapshot on connect.
func (d *Dispatcher) Snapshot(ctx context.Context, v *engine.Variant, token string) (any, error) {
	g, err := d.store.GetByToken(ctx, v.Name, token)
	if err != nil {
		return nil, err
	}
	return v.Snapshot(g), nil
}
