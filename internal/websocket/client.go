package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"supportly-be/internal/dto"
	"supportly-be/internal/pkg/logger"
	"supportly-be/internal/pkg/serverutils"
	"supportly-be/pkg/rag/session"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024

	// inboundCapacity bounds visitor messages waiting behind the running turn.
	inboundCapacity = 4
	sendCapacity    = 256

	busyMessage    = "Please wait, I'm still answering your previous message."
	invalidMessage = "Sorry, I couldn't read that message."
)

// Client is one live widget connection. readPump feeds inbound, a single
// turn goroutine runs visitor messages one at a time, writePump drains send.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *session.Session
	logger  logger.ILogger

	fallback string

	ctx    context.Context
	cancel context.CancelFunc

	inbound chan dto.VisitorMessage
	send    chan []byte
}

func newClient(ctx context.Context, hub *Hub, conn *websocket.Conn, sess *session.Session, fallback string, log logger.ILogger) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		hub:      hub,
		conn:     conn,
		session:  sess,
		logger:   log,
		fallback: fallback,
		ctx:      ctx,
		cancel:   cancel,
		inbound:  make(chan dto.VisitorMessage, inboundCapacity),
		send:     make(chan []byte, sendCapacity),
	}
}

func (c *Client) details(extra map[string]interface{}) map[string]interface{} {
	d := map[string]interface{}{
		"tenant_id":       c.session.TenantId(),
		"conversation_id": c.session.ConversationId(),
	}
	for k, v := range extra {
		d[k] = v
	}
	return d
}

// readPump pumps frames from the connection into the turn queue.
func (c *Client) readPump() {
	defer c.cancel()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Client", "Connection dropped", c.details(map[string]interface{}{"error": err.Error()}))
			}
			return
		}
		c.accept(raw)
	}
}

// accept decodes one inbound frame and queues it, or answers right away when
// the frame is invalid or the queue is full.
func (c *Client) accept(raw []byte) {
	var msg dto.VisitorMessage
	if err := json.Unmarshal(raw, &msg); err != nil || serverutils.ValidateRequest(msg) != nil {
		c.logger.Warn("Client", "Rejected inbound frame", c.details(nil))
		c.offer(invalidMessage)
		return
	}

	select {
	case c.inbound <- msg:
	default:
		c.logger.Warn("Client", "Turn queue full, asking visitor to wait", c.details(nil))
		c.offer(busyMessage)
	}
}

// offer sends text without blocking; used from readPump.
func (c *Client) offer(text string) {
	data, _ := json.Marshal(dto.NewBotMessage(text))
	select {
	case c.send <- data:
	default:
	}
}

// deliver is the session's SendFunc. It blocks until the frame is queued or
// the connection is gone.
func (c *Client) deliver(text string) error {
	data, err := json.Marshal(dto.NewBotMessage(text))
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// turnLoop runs queued visitor messages serially until the connection ends.
func (c *Client) turnLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg := <-c.inbound:
			c.runTurn(msg)
		}
	}
}

func (c *Client) runTurn(msg dto.VisitorMessage) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Client", "Recovered panic in turn", c.details(map[string]interface{}{"panic": fmt.Sprint(r)}))
			_ = c.deliver(c.fallback)
		}
	}()

	err := c.session.HandleVisitorMessage(c.ctx, msg.BotId, msg.Text, c.deliver)
	if err != nil {
		c.logger.Error("Client", "Turn failed", c.details(map[string]interface{}{
			"bot_id": msg.BotId,
			"error":  err.Error(),
		}))
		return
	}
	c.logger.Info("Client", "Turn completed", c.details(map[string]interface{}{
		"bot_id":      msg.BotId,
		"duration_ms": time.Since(started).Milliseconds(),
	}))
}

// writePump pumps queued frames to the connection, one frame per message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
