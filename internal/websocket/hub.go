package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tickviewer/internal/infrastructure"
	"tickviewer/pkg/contracts"
	"tickviewer/pkg/contracts/events"
)

// broadcastQueueSize bounds messages waiting for fan-out. Progress events
// are dropped rather than blocking a conversion when the queue is full.
const broadcastQueueSize = 256

type outbound struct {
	msgType string
	payload []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	running bool
	stopped bool
	quit    chan struct{}
	done    chan struct{}

	logger  *slog.Logger
	metrics *Metrics

	active           atomic.Int64
	totalConnections atomic.Int64
	messagesSent     atomic.Int64
	messagesDropped  atomic.Int64
}

// HubStats is a point-in-time view of the hub counters.
type HubStats struct {
	ActiveClients    int64 `json:"active_clients"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesDropped  int64 `json:"messages_dropped"`
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *Metrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan outbound, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
	}
}

// Start launches the hub loop. Calling it again, or after Stop, does nothing.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running || h.stopped {
		return
	}
	h.running = true
	go h.run()
}

// Stop closes every client and waits for the hub loop to exit.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.stopped = true
		h.mu.Unlock()
		return
	}
	h.running = false
	h.stopped = true
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			for client := range h.clients {
				h.remove(client)
			}
			h.logger.Info("hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.active.Add(1)
			h.totalConnections.Add(1)

			ctx := client.context()
			h.metrics.recordConnect(ctx)
			h.logger.InfoContext(ctx, "client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", len(h.clients)))

			h.greet(ctx, client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; !ok {
				continue
			}
			h.remove(client)
			h.logger.InfoContext(client.context(), "client unregistered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", len(h.clients)),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// remove must only be called from the hub loop.
func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.active.Add(-1)
	h.metrics.recordDisconnect(client.context(), time.Since(client.connectedAt))
}

func (h *Hub) greet(ctx context.Context, client *Client) {
	msg := events.NewMessage(events.MessageTypeConnect, events.ConnectData{
		ClientID:   client.id,
		APIVersion: contracts.APIVersion,
	})
	msg.ID = uuid.NewString()
	msg.TraceID = client.traceID

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal connect message", slog.String("error", err.Error()))
		return
	}

	select {
	case client.send <- payload:
	default:
		h.logger.WarnContext(ctx, "client buffer full, connect message not sent",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) fanOut(msg outbound) {
	ctx := context.Background()
	delivered := 0
	for client := range h.clients {
		select {
		case client.send <- msg.payload:
			delivered++
			h.metrics.recordSent(ctx, msg.msgType, len(msg.payload))
		default:
			h.messagesDropped.Add(1)
			h.metrics.recordDropped(ctx, "client_buffer_full")
			h.logger.WarnContext(client.context(), "client send buffer full, disconnecting",
				slog.String("client_id", client.id))
			h.remove(client)
		}
	}
	h.messagesSent.Add(int64(delivered))

	h.logger.Debug("broadcast",
		slog.String("type", msg.msgType),
		slog.Int("clients", delivered),
		slog.Int("size", len(msg.payload)))
}

// Broadcast queues msg for every connected client. A missing ID is filled in.
// It never blocks: when the queue is full the message is dropped.
func (h *Hub) Broadcast(msg events.WebSocketMessage) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal message",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- outbound{msgType: string(msg.Type), payload: payload}:
	default:
		h.messagesDropped.Add(1)
		h.metrics.recordDropped(context.Background(), "broadcast_queue_full")
		h.logger.Warn("broadcast queue full, message dropped",
			slog.String("type", string(msg.Type)))
	}
}

// BroadcastContext stamps the context's trace ID on a new message and
// broadcasts it.
func (h *Hub) BroadcastContext(ctx context.Context, msgType events.MessageType, data interface{}) {
	msg := events.NewMessage(msgType, data)
	msg.TraceID = infrastructure.GetTraceID(ctx)
	h.Broadcast(msg)
}

// Register adds a client. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes a client; unknown clients are ignored.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.active.Load())
}

// Stats returns the hub counters.
func (h *Hub) Stats() HubStats {
	return HubStats{
		ActiveClients:    h.active.Load(),
		TotalConnections: h.totalConnections.Load(),
		MessagesSent:     h.messagesSent.Load(),
		MessagesDropped:  h.messagesDropped.Load(),
	}
}
