package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quizhall/backend/config"
	"github.com/quizhall/backend/internal/engine"
	"github.com/quizhall/backend/internal/models"
	"github.com/quizhall/backend/internal/store"
)

type fakeStore struct {
	game *models.Game
}

func (s *fakeStore) Create(ctx context.Context, g *models.Game) error {
	g.Token = "ABC123"
	s.game = g
	return nil
}

func (s *fakeStore) GetByToken(ctx context.Context, variant, token string) (*models.Game, error) {
	if s.game == nil || s.game.Token != token {
		return nil, store.ErrNotFound
	}
	return s.game, nil
}

func (s *fakeStore) Register(ctx context.Context, v *engine.Variant, token, name string) (*models.Game, *models.Player, bool, error) {
	if s.game == nil || s.game.Token != token {
		return nil, nil, false, store.ErrNotFound
	}
	if p := s.game.PlayerByName(name); p != nil {
		return s.game, p, false, nil
	}
	if len(s.game.Players) >= v.MaxPlayers {
		return nil, nil, false, engine.Reject("game is full")
	}
	p := &models.Player{ID: int64(len(s.game.Players) + 1), GameID: s.game.ID, Name: name}
	s.game.Players = append(s.game.Players, p)
	return s.game, p, true, nil
}

type fakeNotifier struct {
	broadcasts int
}

func (n *fakeNotifier) BroadcastToRoomAndPublish(room, event string, payload interface{}) {
	n.broadcasts++
}

func newTestRouter(st GameStore, hub Notifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	variants := map[string]*engine.Variant{
		"feud": {
			Name:         "feud",
			MinPlayers:   2,
			MaxPlayers:   2,
			InitialState: "waiting_for_teams",
			Snapshot: func(g *models.Game) any {
				return gin.H{"state": g.State, "players": len(g.Players)}
			},
		},
	}
	h := NewHandler(st, variants, hub, config.GameConfig{}, zap.NewNop())
	router := gin.New()
	h.RegisterRoutes(router, func(c *gin.Context) {})
	return router
}

func register(t *testing.T, router *gin.Engine, token, name string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"token":"` + token + `","name":"` + name + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/games/feud/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterBroadcastsOnlyNewParticipants(t *testing.T) {
	st := &fakeStore{game: &models.Game{ID: 1, Variant: "feud", Token: "ABC123", State: "waiting_for_teams"}}
	hub := &fakeNotifier{}
	router := newTestRouter(st, hub)

	w := register(t, router, "ABC123", "red")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, hub.broadcasts)
	require.Len(t, st.game.Players, 1)
	assert.Equal(t, "RED", st.game.Players[0].Name, "names are normalized to upper case")

	// Re-registering the same name reconnects without mutating anything,
	// so the room hears nothing.
	w = register(t, router, "ABC123", "Red")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, hub.broadcasts)
	assert.Len(t, st.game.Players, 1)

	w = register(t, router, "ABC123", "blue")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, hub.broadcasts)
}

func TestRegisterRejections(t *testing.T) {
	st := &fakeStore{game: &models.Game{ID: 1, Variant: "feud", Token: "ABC123", State: "waiting_for_teams"}}
	hub := &fakeNotifier{}
	router := newTestRouter(st, hub)

	w := register(t, router, "NOPE99", "red")
	assert.Equal(t, http.StatusNotFound, w.Code)

	register(t, router, "ABC123", "red")
	register(t, router, "ABC123", "blue")
	w = register(t, router, "ABC123", "green")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 2, hub.broadcasts, "rejected registrations never broadcast")
}

func TestGetUnknownTokenIs404(t *testing.T) {
	st := &fakeStore{}
	router := newTestRouter(st, &fakeNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/games/feud/XXXXXX", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
