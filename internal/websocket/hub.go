package websocket

import (
	"context"
	"encoding/json"
	"time"

	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/pkg/events"

	"github.com/redis/go-redis/v9"
)

const (
	hubModule = "Hub"

	// ClusterChannel carries feed messages between API instances.
	ClusterChannel = "notes_events"
)

// Message is what feed clients receive for every domain event.
type Message struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Hub pushes domain events to every connected feed client. With a redis
// client, events are relayed through ClusterChannel so that clients of every
// instance see them.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	deliver    chan []byte
	done       chan struct{}

	rdb    *redis.Client
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan []byte, 64),
		done:       make(chan struct{}),
		rdb:        rdb,
		logger:     log,
	}
}

// Run owns the client set until ctx is done. Client channels are closed on
// exit.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
			}
			clear(h.clients)
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Debug(hubModule, "Client registered", map[string]interface{}{"clients": len(h.clients)})

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case msg := <-h.deliver:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn(hubModule, "Client send buffer full, dropping client", nil)
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Publish implements events.Publisher. It never blocks the caller: when the
// local queue is full the event is dropped for this instance.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(Message{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return err
	}

	if h.rdb != nil {
		err := h.rdb.Publish(ctx, ClusterChannel, data).Err()
		if err == nil {
			return nil
		}
		h.logger.Warn(hubModule, "Redis publish failed, delivering locally", map[string]interface{}{"error": err.Error()})
	}

	h.enqueue(data)
	return nil
}

func (h *Hub) enqueue(data []byte) {
	select {
	case h.deliver <- data:
	default:
		h.logger.Warn(hubModule, "Delivery queue full, dropping event", nil)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.enqueue([]byte(msg.Payload))
		}
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
