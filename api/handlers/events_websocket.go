package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yourusername/soundclip-go/api/middleware"
	"github.com/yourusername/soundclip-go/internal/domain"
	"go.uber.org/zap"
)

const (
	clientSendBuffer = 256
	pingInterval     = 30 * time.Second
	writeTimeout     = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return middleware.IsLocalOrigin(r.Header.Get("Origin"))
	},
}

// Event is the message pushed to websocket clients
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Stream  string      `json:"stream,omitempty"`
}

type eventClient struct {
	conn *websocket.Conn
	send chan []byte
}

// EventHub fans job and update events out to websocket clients.
// It implements domain.EventSink and domain.UpdateLogSink. Slow clients
// drop messages rather than stall the job.
type EventHub struct {
	logger  *zap.Logger
	clients map[*eventClient]struct{}
	mu      sync.RWMutex
}

// NewEventHub creates a new event hub
func NewEventHub(log *zap.Logger) *EventHub {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventHub{
		logger:  log,
		clients: make(map[*eventClient]struct{}),
	}
}

// OnProgress broadcasts a progress event
func (h *EventHub) OnProgress(percent float64) {
	h.Broadcast(Event{Event: domain.EventProgress, Payload: percent})
}

// OnLog broadcasts a log event
func (h *EventHub) OnLog(stream domain.Stream, line string) {
	h.Broadcast(Event{Event: domain.EventLog, Payload: line, Stream: string(stream)})
}

// OnComplete broadcasts the terminal outcome
func (h *EventHub) OnComplete(outcome domain.TerminalOutcome) {
	h.Broadcast(Event{Event: domain.EventComplete, Payload: outcome.String()})
}

// OnUpdateLog broadcasts an install progress message
func (h *EventHub) OnUpdateLog(message string) {
	h.Broadcast(Event{Event: domain.EventUpdateLog, Payload: message})
}

// Broadcast queues an event for every connected client
func (h *EventHub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("event", event.Event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("Dropping event for slow client", zap.String("event", event.Event))
		}
	}
}

// ClientCount returns the number of connected clients
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles GET /api/v1/events
func (h *EventHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	client := &eventClient{conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.register(client)
	defer h.unregister(client)

	h.logger.Info("Event client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	// Reads only detect the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			h.logger.Info("Event client disconnected", zap.String("remote_addr", c.Request.RemoteAddr))
			return
		case data := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("Event write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *EventHub) register(client *eventClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
}

func (h *EventHub) unregister(client *eventClient) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
}
