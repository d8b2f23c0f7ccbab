package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/quizhall/backend/internal/engine"
	"github.com/quizhall/backend/internal/store"
	"github.com/quizhall/backend/internal/token"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope sent to clients.
type WSMessage struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message,omitempty"`
}

// Client represents a single WebSocket connection in a game room.
type Client struct {
	ID      string
	Room    string
	variant *engine.Variant
	token   string

	hub        *Hub
	dispatcher *Dispatcher
	conn       *websocket.Conn
	send       chan WSMessage
	logger     *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop. The route
// carries the variant and session token; an unknown token closes the
// connection after the handshake, mirroring a failed join.
func ServeWs(hub *Hub, dispatcher *Dispatcher, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := dispatcher.Variant(c.Param("variant"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown game"})
			return
		}
		tok := token.Normalize(c.Param("token"))

		snapshot, err := dispatcher.Snapshot(c.Request.Context(), v, tok)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		conn, upgradeErr := upgrader.Upgrade(c.Writer, c.Request, nil)
		if upgradeErr != nil {
			logger.Warn("websocket upgrade failed", zap.Error(upgradeErr))
			return
		}
		if err != nil {
			logger.Debug("bad token", zap.String("token", tok))
			_ = conn.Close()
			return
		}

		client := &Client{
			ID:         uuid.New().String(),
			Room:       RoomKey(v.Name, tok),
			variant:    v,
			token:      tok,
			hub:        hub,
			dispatcher: dispatcher,
			conn:       conn,
			send:       make(chan WSMessage, 256),
			logger:     logger,
		}
		hub.Register(client)
		go client.writePump()

		// Join snapshot: the connecting client alone gets the current state.
		if data, err := json.Marshal(snapshot); err == nil {
			client.send <- WSMessage{Type: EventGame, Message: data}
		}

		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		c.dispatcher.Dispatch(context.Background(), c.variant, c.token, c.ID, cmd)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
