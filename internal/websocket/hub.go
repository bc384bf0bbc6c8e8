package websocket

import (
	"context"
	"sync"

	"gator-social/internal/events"
	"gator-social/internal/logging"
	"gator-social/internal/models"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// outbound is an encoded event plus what the hub needs to route it.
type outbound struct {
	account uuid.UUID // set for direct delivery
	space   models.SpaceID
	payload []byte
}

// Hub maintains the set of active clients and fans committed events out to
// them. It implements events.Sink.
type Hub struct {
	// Registered clients. Maps account ID to a set of active client connections.
	Clients map[uuid.UUID]map[*Client]bool

	queue      chan outbound
	Register   chan *Client
	Unregister chan *Client

	done   chan struct{}
	mu     sync.RWMutex
	logger *zap.Logger
}

var _ events.Sink = (*Hub)(nil)

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		queue:      make(chan outbound, 512),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		Clients:    make(map[uuid.UUID]map[*Client]bool),
		logger:     logging.OrNop(logger).Named("ws-hub"),
	}
}

// Run starts the hub's processing loop; it returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.Clients[client.Account]; !ok {
				h.Clients[client.Account] = make(map[*Client]bool)
			}
			h.Clients[client.Account][client] = true
			h.logger.Debug("Client registered",
				zap.Stringer("account", client.Account),
				zap.Int("connections", len(h.Clients[client.Account])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if accountClients, ok := h.Clients[client.Account]; ok {
				if _, clientOk := accountClients[client]; clientOk {
					delete(accountClients, client)
					close(client.Send)
					if len(accountClients) == 0 {
						delete(h.Clients, client.Account)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.queue:
			h.mu.RLock()
			if msg.account != uuid.Nil {
				for client := range h.Clients[msg.account] {
					h.deliver(client, msg.payload)
				}
			} else {
				for _, accountClients := range h.Clients {
					for client := range accountClients {
						if client.Wants(msg.space) {
							h.deliver(client, msg.payload)
						}
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.logger.Warn("Send buffer full, message dropped", zap.Stringer("account", client.Account))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for account, accountClients := range h.Clients {
		for client := range accountClients {
			close(client.Send)
		}
		delete(h.Clients, account)
	}
}

// Join registers client. It reports false once the hub has stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters client; after shutdown it returns immediately.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Connections reports how many clients are registered for account.
func (h *Hub) Connections(account uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients[account])
}

// Publish broadcasts ev to every client subscribed to its space.
// ReputationChanged goes only to the affected account. Publish never blocks:
// when the hub is backed up the event is dropped.
func (h *Hub) Publish(ev events.Event) {
	payload, err := sonic.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}

	msg := outbound{space: ev.SpaceID, payload: payload}
	if ev.Type == events.ReputationChanged {
		msg = outbound{account: ev.Account, payload: payload}
	}
	select {
	case h.queue <- msg:
	default:
		h.logger.Warn("Hub queue full, event dropped", zap.String("type", string(ev.Type)))
	}
}
