package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler upgrades HTTP connections and subscribes them to the hub.
type Handler struct {
	hub          *Hub
	logger       *zap.Logger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

// NewHandler builds the upgrade handler.
func NewHandler(hub *Hub, writeTimeout time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		hub:          hub,
		logger:       logger,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP handles the /ws endpoint.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	id := h.hub.newConnID()
	ctx, cancel := context.WithCancel(context.Background())
	connection := NewConnection(id, conn, h.writeTimeout, h.logger, func(id int64) {
		h.hub.Remove(id)
		cancel()
	})
	h.hub.Add(connection)

	go connection.Start(ctx)
	h.logger.Info("client connected", zap.Int64("client_id", id))
}
