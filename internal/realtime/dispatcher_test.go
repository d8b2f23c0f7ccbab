package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhall/backend/internal/engine"
	"github.com/quizhall/backend/internal/models"
)

// fakeStore runs mutations against an in-memory game, serializing exclusive
// calls through a mutex like the row lock would.
type fakeStore struct {
	mu   sync.Mutex
	game *models.Game

	mutateErr error
	getErr    error
}

func (s *fakeStore) GetByToken(ctx context.Context, variant, token string) (*models.Game, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.game, nil
}

func (s *fakeStore) Mutate(ctx context.Context, variant, token string, exclusive bool, fn func(*models.Game) error) (*models.Game, error) {
	if s.mutateErr != nil {
		return nil, s.mutateErr
	}
	if exclusive {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if err := fn(s.game); err != nil {
		return nil, err
	}
	return s.game, nil
}

type sentEvent struct {
	Room     string
	ClientID string
	Event    string
	Payload  interface{}
}

type fakeHub struct {
	mu        sync.Mutex
	broadcast []sentEvent
	private   []sentEvent
}

func (h *fakeHub) BroadcastToRoomAndPublish(room, event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast = append(h.broadcast, sentEvent{Room: room, Event: event, Payload: payload})
}

func (h *fakeHub) SendToClient(room, clientID, event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.private = append(h.private, sentEvent{Room: room, ClientID: clientID, Event: event, Payload: payload})
}

type demoSnapshot struct {
	State string `json:"state"`
	Score int    `json:"score"`
}

// demoVariant is a two-state machine exercising all dispatch outcomes.
func demoVariant() *engine.Variant {
	return &engine.Variant{
		Name:          "demo",
		InitialState:  "start",
		TerminalState: "end",
		States:        []string{"start", "end"},
		Actions: map[string]engine.Action{
			"finish": {Run: func(c *engine.Context) error {
				if c.Game.State == "end" {
					return engine.ErrNothingToDo
				}
				c.Game.State = "end"
				return nil
			}},
			"score": {Run: func(c *engine.Context) error {
				n, err := c.Params.Int("points")
				if err != nil {
					return err
				}
				c.Game.Score += n
				return nil
			}},
			"gong": {Run: func(c *engine.Context) error {
				c.Intercom("gong")
				return nil
			}},
			"claim": {Exclusive: true, Run: func(c *engine.Context) error {
				if c.Game.AnswererID != nil {
					return engine.ErrNothingToDo
				}
				id, err := c.Params.Int64("player_id")
				if err != nil {
					return err
				}
				c.Game.AnswererID = &id
				return nil
			}},
			"boom": {Run: func(c *engine.Context) error {
				return errors.New("backend exploded")
			}},
		},
		Snapshot: func(g *models.Game) any {
			return demoSnapshot{State: g.State, Score: g.Score}
		},
	}
}

func newTestDispatcher(g *models.Game) (*Dispatcher, *fakeStore, *fakeHub) {
	store := &fakeStore{game: g}
	hub := &fakeHub{}
	d := NewDispatcher(store, map[string]*engine.Variant{"demo": demoVariant()}, hub, nil)
	return d, store, hub
}

func TestDispatchBroadcastsSnapshotOnSuccess(t *testing.T) {
	d, _, hub := newTestDispatcher(&models.Game{State: "start"})
	v, ok := d.Variant("demo")
	require.True(t, ok)

	d.Dispatch(context.Background(), v, "ABC123", "client-1", Command{Method: "finish"})

	require.Len(t, hub.broadcast, 1)
	assert.Empty(t, hub.private)
	assert.Equal(t, RoomKey("demo", "ABC123"), hub.broadcast[0].Room)
	assert.Equal(t, EventGame, hub.broadcast[0].Event)
	assert.Equal(t, demoSnapshot{State: "end"}, hub.broadcast[0].Payload)
}

func TestDispatchDropsNoOpSilently(t *testing.T) {
	d, _, hub := newTestDispatcher(&models.Game{State: "end"})
	v, _ := d.Variant("demo")

	d.Dispatch(context.Background(), v, "ABC123", "client-1", Command{Method: "finish"})

	assert.Empty(t, hub.broadcast)
	assert.Empty(t, hub.private)
}

func TestDispatchAnswersRejectionPrivately(t *testing.T) {
	d, _, hub := newTestDispatcher(&models.Game{State: "start"})
	v, _ := d.Variant("demo")

	d.Dispatch(context.Background(), v, "ABC123", "client-1", Command{Method: "score"})

	assert.Empty(t, hub.broadcast, "rejected commands must not broadcast")
	require.Len(t, hub.private, 1)
	assert.Equal(t, "client-1", hub.private[0].ClientID)
	assert.Equal(t, EventError, hub.private[0].Event)
	assert.Equal(t, `missing parameter "points"`, hub.private[0].Payload)
}

func TestDispatchMasksInternalErrors(t *testing.T) {
	d, _, hub := newTestDispatcher(&models.Game{State: "start"})
	v, _ := d.Variant("demo")

	d.Dispatch(context.Background(), v, "ABC123", "client-1", Command{Method: "boom"})

	require.Len(t, hub.private, 1)
	assert.Equal(t, EventError, hub.private[0].Event)
	assert.Equal(t, "internal error", hub.private[0].Payload, "internal detail never reaches the client")
}

func TestDispatchUnknownMethod(t *testing.T) {
	d, _, hub := newTestDispatcher(&models.Game{State: "start"})
	v, _ := d.Variant("demo")

	d.Dispatch(context.Background(), v, "ABC123", "client-1", Command{Method: "teleport"})

	assert.Empty(t, hub.broadcast)
	require.Len(t, hub.private, 1)
	assert.Equal(t, "unknown method teleport", hub.private[0].Payload)
}

func TestDispatchRelaysIntercom(t *testing.T) {
	d, _, hub := newTestDispatcher(&models.Game{State: "start"})
	v, _ := d.Variant("demo")

	raw := json.RawMessage(`{"sound":"gong"}`)
	d.Dispatch(context.Background(), v, "ABC123", "client-1", Command{Method: "intercom", Message: raw})

	require.Len(t, hub.broadcast, 1)
	assert.Equal(t, EventIntercom, hub.broadcast[0].Event)
	assert.Equal(t, raw, hub.broadcast[0].Payload)
}

func TestDispatchPublishesQueuedIntercoms(t *testing.T) {
	d, _, hub := newTestDispatcher(&models.Game{State: "start"})
	v, _ := d.Variant("demo")

	d.Dispatch(context.Background(), v, "ABC123", "client-1", Command{Method: "gong"})

	require.Len(t, hub.broadcast, 2, "snapshot first, then the queued intercom")
	assert.Equal(t, EventGame, hub.broadcast[0].Event)
	assert.Equal(t, EventIntercom, hub.broadcast[1].Event)
	assert.Equal(t, "gong", hub.broadcast[1].Payload)
}

func TestDispatchExclusiveClaimRace(t *testing.T) {
	d, store, hub := newTestDispatcher(&models.Game{State: "start"})
	v, _ := d.Variant("demo")

	const racers = 16
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.Dispatch(context.Background(), v, "ABC123", "client", Command{
				Method: "claim",
				Params: engine.Params{"player_id": float64(id + 1)},
			})
		}(i)
	}
	wg.Wait()

	require.NotNil(t, store.game.AnswererID)
	winner := *store.game.AnswererID

	// Exactly one claim is accepted and broadcast; the rest are no-ops.
	require.Len(t, hub.broadcast, 1)
	assert.Empty(t, hub.private)
	assert.GreaterOrEqual(t, winner, int64(1))
	assert.LessOrEqual(t, winner, int64(racers))
}

func TestSnapshotLoadsThroughStore(t *testing.T) {
	d, store, _ := newTestDispatcher(&models.Game{State: "start", Score: 7})
	v, _ := d.Variant("demo")

	snap, err := d.Snapshot(context.Background(), v, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, demoSnapshot{State: "start", Score: 7}, snap)

	store.getErr = errors.New("gone")
	_, err = d.Snapshot(context.Background(), v, "ABC123")
	assert.Error(t, err)
}
