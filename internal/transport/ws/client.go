package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vedran77/minilid/internal/logger"
	"github.com/vedran77/minilid/internal/service"
)

const (
	writeWait    = 10 * time.Second
	checkTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// Client represents a single WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	// subscribedChannels tracks which channels this client listens to.
	subscribedChannels map[uuid.UUID]struct{}
	mu                 sync.RWMutex

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:                hub,
		conn:               conn,
		userID:             userID,
		subscribedChannels: make(map[uuid.UUID]struct{}),
		send:               make(chan []byte, sendBufSize),
		done:               make(chan struct{}),
	}
}

func (c *Client) IsSubscribed(channelID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscribedChannels[channelID]
	return ok
}

func (c *Client) Subscribe(channelID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribedChannels[channelID] = struct{}{}
}

func (c *Client) Unsubscribe(channelID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribedChannels, channelID)
}

// ReadPump reads events from the WebSocket until the connection closes.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(ctx, c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) == -1 {
				c.hub.log.Debugw("ws read failed", logger.FieldUserID, c.userID, logger.FieldError, err)
			}
			return
		}

		c.handleEvent(ctx, &event)
	}
}

// WritePump writes queued events to the WebSocket and keeps it alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.log.Debugw("ws write failed", logger.FieldUserID, c.userID, logger.FieldError, err)
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) handleEvent(ctx context.Context, event *Event) {
	switch event.Type {
	case EventTypeChannelSubscribe:
		channelID, ok := c.channelFrom(event)
		if !ok {
			return
		}
		if !c.authorized(ctx, channelID) {
			return
		}
		c.Subscribe(channelID)
		c.reply(EventTypeChannelSubscribed, &channelID, ChannelPayload{ChannelID: channelID})

	case EventTypeChannelUnsubscribe:
		channelID, ok := c.channelFrom(event)
		if !ok {
			return
		}
		c.Unsubscribe(channelID)

	case EventTypeTypingStart:
		channelID, ok := c.channelFrom(event)
		if !ok {
			return
		}
		c.forwardTyping(ctx, channelID)

	case EventTypeTypingStop:
		// clients time typing indicators out on their own

	case EventTypeMessageAck:
		channelID, ok := c.channelFrom(event)
		if !ok {
			return
		}
		actx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.hub.deliveries.MarkDelivered(actx, c.userID, channelID)
		cancel()
		if err != nil {
			c.denied(channelID, err)
		}

	case EventTypePing:
		c.reply(EventTypePong, nil, struct{}{})

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

// channelFrom takes the channel id from the envelope or, failing that, the payload.
func (c *Client) channelFrom(event *Event) (uuid.UUID, bool) {
	if event.ChannelID != nil {
		return *event.ChannelID, true
	}
	var p ChannelPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil || p.ChannelID == uuid.Nil {
		c.sendError("INVALID_PAYLOAD", "channel_id required for "+event.Type)
		return uuid.Nil, false
	}
	return p.ChannelID, true
}

func (c *Client) authorized(ctx context.Context, channelID uuid.UUID) bool {
	actx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if _, err := c.hub.guard.Authorize(actx, c.userID, channelID, service.IntentRead); err != nil {
		c.denied(channelID, err)
		return false
	}
	return true
}

// forwardTyping relays a typing indicator to the counterpart when both sides
// may still use the channel.
func (c *Client) forwardTyping(ctx context.Context, channelID uuid.UUID) {
	actx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	ch, err := c.hub.guard.Authorize(actx, c.userID, channelID, service.IntentWrite)
	if err != nil {
		c.denied(channelID, err)
		return
	}
	other := ch.Counterpart(c.userID)
	if _, err := c.hub.guard.Authorize(actx, other, channelID, service.IntentRead); err != nil {
		return
	}

	evt, err := NewEvent(EventTypeTyping, &channelID, TypingPayload{UserID: c.userID})
	if err != nil {
		return
	}
	c.hub.SendToUser(other, channelID, evt)
}

func (c *Client) denied(channelID uuid.UUID, err error) {
	c.hub.log.Infow("ws access denied",
		logger.FieldUserID, c.userID,
		logger.FieldChannelID, channelID,
		logger.FieldError, err,
	)
	c.Unsubscribe(channelID)
	c.sendError("NOT_ACCESSIBLE", "This resource is not accessible")
}

func (c *Client) reply(eventType string, channelID *uuid.UUID, payload any) {
	evt, err := NewEvent(eventType, channelID, payload)
	if err != nil {
		return
	}
	c.enqueue(evt)
}

func (c *Client) sendError(code, message string) {
	c.reply(EventTypeError, nil, ErrorPayload{Code: code, Message: message})
}

// send is never closed; done marks a client the hub has dropped.
func (c *Client) enqueue(evt *Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
	}
}
