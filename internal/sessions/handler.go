// Package sessions exposes the HTTP surface for game sessions: creating a
// session from an uploaded package, registering participants and fetching
// the current snapshot. Live play happens over the websocket endpoint.
package sessions

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quizhall/backend/config"
	"github.com/quizhall/backend/internal/content"
	"github.com/quizhall/backend/internal/engine"
	"github.com/quizhall/backend/internal/models"
	"github.com/quizhall/backend/internal/realtime"
	"github.com/quizhall/backend/internal/store"
	"github.com/quizhall/backend/pkg/response"
)

// RegisterRequest is the body for POST /api/v1/games/:variant/register.
type RegisterRequest struct {
	Token string `json:"token" binding:"required"`
	Name  string `json:"name" binding:"required"`
}

// GameStore is the persistence surface the session handlers use.
type GameStore interface {
	Create(ctx context.Context, g *models.Game) error
	GetByToken(ctx context.Context, variant, token string) (*models.Game, error)
	Register(ctx context.Context, v *engine.Variant, token, name string) (*models.Game, *models.Player, bool, error)
}

// Notifier pushes snapshots to a session's room (implemented by the hub).
type Notifier interface {
	BroadcastToRoomAndPublish(room, event string, payload interface{})
}

// Handler handles session HTTP endpoints.
type Handler struct {
	store    GameStore
	variants map[string]*engine.Variant
	hub      Notifier
	cfg      config.GameConfig
	logger   *zap.Logger
}

// NewHandler creates a sessions handler.
func NewHandler(st GameStore, variants map[string]*engine.Variant, hub Notifier, cfg config.GameConfig, logger *zap.Logger) *Handler {
	return &Handler{store: st, variants: variants, hub: hub, cfg: cfg, logger: logger}
}

// RegisterRoutes mounts the session endpoints.
func (h *Handler) RegisterRoutes(r gin.IRouter, ws gin.HandlerFunc) {
	games := r.Group("/api/v1/games/:variant")
	games.POST("", h.Create)
	games.POST("/register", h.Register)
	games.GET("/:token", h.Get)
	r.GET("/ws/:variant/:token", ws)
}

func (h *Handler) variant(c *gin.Context) (*engine.Variant, bool) {
	v, ok := h.variants[c.Param("variant")]
	if !ok {
		response.NotFound(c, "unknown game")
	}
	return v, ok
}

// Create handles POST /api/v1/games/:variant: uploads a question package and
// starts a session in its waiting state.
func (h *Handler) Create(c *gin.Context) {
	v, ok := h.variant(c)
	if !ok {
		return
	}

	file, err := c.FormFile("game")
	if err != nil {
		response.BadRequest(c, "game file required")
		return
	}
	src, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read game file")
		return
	}
	defer src.Close()

	var g *models.Game
	var pkg []byte
	if v.Name == models.VariantJeopardy {
		// SIGame packages are zip archives with media next to the scenario.
		pkg, err = io.ReadAll(src)
		if err != nil {
			response.Internal(c, "failed to read game file")
			return
		}
		g, err = content.ParseJeopardyArchive(bytes.NewReader(pkg), int64(len(pkg)))
	} else {
		g, err = content.Parse(v.Name, src)
	}
	if err != nil {
		if errors.Is(err, content.ErrBadFormat) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Internal(c, "failed to parse game file")
		return
	}

	g.State = v.InitialState
	if g.Round == 0 {
		g.Round = 1
	}
	g.Expired = time.Now().Add(h.cfg.SessionTTL)

	if err := h.store.Create(c.Request.Context(), g); err != nil {
		h.logger.Error("create game failed", zap.String("variant", v.Name), zap.Error(err))
		response.Internal(c, "failed to create game")
		return
	}

	if v.Name == models.VariantJeopardy {
		mediaDir := filepath.Join(h.cfg.MediaRoot, v.Name, g.Token)
		if err := content.ExtractMedia(bytes.NewReader(pkg), int64(len(pkg)), mediaDir); err != nil {
			h.logger.Warn("media extraction failed",
				zap.String("token", g.Token), zap.Error(err))
		}
	}

	response.Created(c, v.Snapshot(g))
}

// Register handles POST /api/v1/games/:variant/register: joins a named
// participant while the session is waiting. Registering an existing name
// returns the existing entry, so reconnects keep their identity.
func (h *Handler) Register(c *gin.Context) {
	v, ok := h.variant(c)
	if !ok {
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "token and name required")
		return
	}
	name := strings.ToUpper(strings.TrimSpace(req.Name))
	if name == "" {
		response.BadRequest(c, "name cannot be empty")
		return
	}

	g, p, created, err := h.store.Register(c.Request.Context(), v, req.Token, name)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(c, "game not found")
		return
	case engine.IsRejection(err):
		response.BadRequest(c, err.Error())
		return
	default:
		h.logger.Error("register failed", zap.String("variant", v.Name), zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	// Re-registering an existing name mutates nothing, so the room is not
	// notified.
	if created {
		h.hub.BroadcastToRoomAndPublish(realtime.RoomKey(v.Name, g.Token), realtime.EventGame, v.Snapshot(g))
	}
	response.OK(c, gin.H{"player_id": p.ID, "game": v.Snapshot(g)})
}

// Get handles GET /api/v1/games/:variant/:token.
func (h *Handler) Get(c *gin.Context) {
	v, ok := h.variant(c)
	if !ok {
		return
	}
	g, err := h.store.GetByToken(c.Request.Context(), v.Name, c.Param("token"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "game not found")
			return
		}
		h.logger.Error("get game failed", zap.String("variant", v.Name), zap.Error(err))
		response.Internal(c, "failed to load game")
		return
	}
	response.OK(c, v.Snapshot(g))
}
