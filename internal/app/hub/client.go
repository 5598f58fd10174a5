package hub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/logx"
	"gatherlocal/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed to wait for a Pong message from the UI.
	pongWait = 60 * time.Second

	// frequency at which Ping messages are sent.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the UI.
	maxMessageSize = 8192

	// number of queued outbound messages per client.
	sendBuffer = 256
)

// Client is one attached UI connection.
type Client struct {
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// connection id, unique per attachment.
	id string

	// a buffered channel of messages waiting to be written.
	send chan []byte

	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection.
func NewClient(h *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{
		hub:    h,
		conn:   conn,
		id:     id,
		send:   make(chan []byte, sendBuffer),
		logger: logx.Component("hub").With().Str("client_id", id).Logger(),
	}
}

// ReadPump reads messages from the UI until the connection closes, then detaches.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (UI close/going away)")
			}
			break
		}

		c.processInboundMessage(messageBytes)
	}
}

func (c *Client) cleanupOnDisconnect() {
	c.hub.unregisterClient(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundMessage handles a raw message from the UI. The only message a UI
// sends is the payment widget's answer.
func (c *Client) processInboundMessage(messageBytes []byte) {
	var inboundMsg struct {
		Type    MessageType     `json:"type"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	if err := json.Unmarshal(messageBytes, &inboundMsg); err != nil {
		c.logger.Warn().Err(err).Msg("UI sent invalid JSON")
		c.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	switch inboundMsg.Type {
	case TypeCheckoutResult:
		c.handleCheckoutResult(inboundMsg.Payload)
	default:
		c.logger.Warn().Str("msg_type", string(inboundMsg.Type)).Msg("UI sent unsupported message type")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
	}
}

func (c *Client) handleCheckoutResult(payloadBytes json.RawMessage) {
	var payload CheckoutResultPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	widget := c.hub.checkoutWidget()
	if widget == nil {
		c.SendError(errs.NewError(errs.ErrCheckoutNotFound))
		return
	}

	result, err := ParseResult(payload.Kind, payload.PaymentID, payload.Message)
	if err != nil {
		c.SendError(err)
		return
	}
	if err := widget.Resolve(payload.CheckoutID, result); err != nil {
		c.SendError(err)
	}
}

// WritePump writes queued messages and periodic pings until the queue closes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage reports whether WritePump should continue.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// sendMessage marshals a message of msgType and queues it for this client only.
func (c *Client) sendMessage(msgType MessageType, payload any) (err error) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error marshaling data for client")
		return err
	}

	defer func() {
		// The hub may have closed the queue after a detach.
		if recover() != nil {
			err = fmt.Errorf("client detached")
		}
	}()

	select {
	case c.send <- messageBytes:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping message")
		return fmt.Errorf("client send queue full")
	}
}

// SendError reports err to this client.
func (c *Client) SendError(err error) {
	customErr := errs.From(err)
	payload := ErrorPayload{Code: customErr.Code, Message: customErr.Message}

	if sendErr := c.sendMessage(TypeError, payload); sendErr != nil {
		c.logger.Error().Err(sendErr).Msg("Failed to queue error message")
	}
}

// SendInitData sends the current state to this client.
func (c *Client) SendInitData(payload any) error {
	if err := c.sendMessage(TypeInitData, payload); err != nil {
		c.logger.Error().Err(err).Msg("Failed to send init message.")
		return err
	}
	return nil
}

// Attach registers an upgraded connection and serves it until it closes.
func (h *Hub) Attach(conn *websocket.Conn) error {
	id, err := randx.ClientID()
	if err != nil {
		_ = conn.Close()
		return err
	}

	client := NewClient(h, conn, id)
	go client.WritePump()

	if !h.RegisterClient(client) {
		close(client.send)
		return fmt.Errorf("hub stopped")
	}

	client.ReadPump()
	return nil
}
