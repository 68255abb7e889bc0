package ws

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"battwatch/internal/models"
)

// Event types pushed to clients.
const (
	EventSessionStarted   = "session_started"
	EventSessionFinalized = "session_finalized"
	EventReportUpdated    = "report_updated"
)

// Event is the envelope every pushed message uses.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Hub fans battery events out to every connected client.
type Hub struct {
	mu     sync.RWMutex
	conns  map[int64]*Connection
	nextID int64
	logger *zap.Logger
}

// NewHub builds the hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[int64]*Connection),
		logger: logger,
	}
}

// Add registers new connection under a fresh id.
func (h *Hub) Add(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.ID()] = conn
}

// Remove removes connection.
func (h *Hub) Remove(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) newConnID() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	return h.nextID
}

// Broadcast pushes one event to all connected clients. Slow clients drop
// messages rather than stall the sender.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	payload, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.conns {
		conn.Send(payload)
	}
}

// SessionStarted pushes a session start event.
func (h *Hub) SessionStarted(session models.Session) {
	h.Broadcast(EventSessionStarted, session)
}

// SessionFinalized pushes a session end event.
func (h *Hub) SessionFinalized(session models.Session) {
	h.Broadcast(EventSessionFinalized, session)
}

// ReportUpdated pushes a freshly computed health report.
func (h *Hub) ReportUpdated(report *models.HealthReport) {
	h.Broadcast(EventReportUpdated, report)
}
