package websocket

import (
	"context"

	"supportly-be/internal/pkg/logger"
	"supportly-be/internal/pkg/serverutils"
	"supportly-be/pkg/rag/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	localTenant  = "ws_tenant_id"
	localVisitor = "ws_visitor_id"
)

// Handler authenticates widget connections and runs one Client per socket.
type Handler struct {
	hub      *Hub
	sessions *session.Manager
	secret   string
	logger   logger.ILogger
}

func NewHandler(hub *Hub, sessions *session.Manager, secret string, log logger.ILogger) *Handler {
	return &Handler{
		hub:      hub,
		sessions: sessions,
		secret:   secret,
		logger:   log,
	}
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", h.Authenticate, websocket.New(h.Serve))
}

// Authenticate verifies the widget token before the upgrade, so a bad or
// expired credential never reaches message processing.
func (h *Handler) Authenticate(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	tenantId, err := serverutils.ParseTenantToken(h.secret, ctx.Query("token"))
	if err != nil {
		h.logger.Warn("Handshake", "Rejected widget connection", map[string]interface{}{
			"ip":    ctx.IP(),
			"error": err.Error(),
		})
		return err
	}

	ctx.Locals(localTenant, tenantId)
	ctx.Locals(localVisitor, ctx.Query("visitorId"))
	return ctx.Next()
}

// Serve owns the connection for its whole life.
func (h *Handler) Serve(conn *websocket.Conn) {
	tenantId, ok := conn.Locals(localTenant).(uuid.UUID)
	if !ok {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthenticated"))
		return
	}
	visitorId, _ := conn.Locals(localVisitor).(string)

	sess := h.sessions.Open(tenantId, visitorId)
	client := newClient(context.Background(), h.hub, conn, sess, h.sessions.Fallback(), h.logger)
	h.hub.register(client)

	turnDone := make(chan struct{})
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		client.writePump()
	}()
	go func() {
		defer close(turnDone)
		client.turnLoop()
	}()

	client.readPump()

	// readPump has returned and cancelled the client context; the running
	// turn stops streaming and persists what it has.
	<-turnDone
	if err := sess.Close(client.ctx); err != nil {
		h.logger.Error("Handshake", "Failed to close conversation on disconnect", client.details(map[string]interface{}{"error": err.Error()}))
	}
	h.hub.unregister(client)
	close(client.send)

	// fiber recycles conn once Serve returns.
	<-writeDone
}
