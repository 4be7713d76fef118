package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"supportly-be/internal/dto"
	"supportly-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const ConversationEventsChannel = "conversation_events"

// Hub tracks live connections per tenant and relays conversation events
// between instances through Redis.
type Hub struct {
	// Registered clients: TenantID -> set of clients
	clients map[uuid.UUID]map[*Client]struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance communication, nil in single-node mode
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		rdb:     rdb,
		logger:  log,
	}
}

// Run relays Redis conversation events to local sessions until ctx is done.
// Without Redis it just waits.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		<-ctx.Done()
		return
	}

	pubsub := h.rdb.Subscribe(ctx, ConversationEventsChannel)
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
			var event dto.ConversationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Warn("Hub", "Dropping malformed conversation event", map[string]interface{}{"error": err.Error()})
				continue
			}
			if event.Type == dto.ConversationEventClosed {
				h.dropConversation(event.TenantId, event.ConversationId)
			}
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tenantId := c.session.TenantId()
	if h.clients[tenantId] == nil {
		h.clients[tenantId] = make(map[*Client]struct{})
	}
	h.clients[tenantId][c] = struct{}{}
	h.logger.Info("Hub", "Client registered", map[string]interface{}{
		"tenant_id":  tenantId,
		"visitor_id": c.session.VisitorId(),
	})
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tenantId := c.session.TenantId()
	clients, ok := h.clients[tenantId]
	if !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.clients, tenantId)
	}
	h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
		"tenant_id":  tenantId,
		"visitor_id": c.session.VisitorId(),
	})
}

// Count returns the number of live connections for tenantId.
func (h *Hub) Count(tenantId uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[tenantId])
}

// PublishConversationClosed drops the conversation from local sessions and
// tells other instances to do the same.
func (h *Hub) PublishConversationClosed(ctx context.Context, tenantId, conversationId uuid.UUID) {
	h.dropConversation(tenantId, conversationId)

	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(dto.ConversationEvent{
		Type:           dto.ConversationEventClosed,
		TenantId:       tenantId,
		ConversationId: conversationId,
	})
	if err := h.rdb.Publish(ctx, ConversationEventsChannel, payload).Err(); err != nil {
		h.logger.Error("Hub", "Failed to publish conversation event", map[string]interface{}{
			"tenant_id":       tenantId,
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
	}
}

func (h *Hub) dropConversation(tenantId, conversationId uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[tenantId] {
		if c.session.DropConversation(conversationId) {
			h.logger.Info("Hub", "Live session released closed conversation", map[string]interface{}{
				"tenant_id":       tenantId,
				"conversation_id": conversationId,
			})
		}
	}
}
