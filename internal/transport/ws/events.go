package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vedran77/minilid/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeChannelSubscribe   = "channel.subscribe"
	EventTypeChannelUnsubscribe = "channel.unsubscribe"
	EventTypeTypingStart        = "typing.start"
	EventTypeTypingStop         = "typing.stop"
	EventTypeMessageAck         = "message.ack"
	EventTypePing               = "ping"
)

// Event types - Server → Client
const (
	EventTypeChannelSubscribed = "channel.subscribed"
	EventTypeMessageNew        = "message.new"
	EventTypeMessageUpdated    = "message.updated"
	EventTypeMessageDelivery   = "message.delivery"
	EventTypeTyping            = "typing"
	EventTypePong              = "pong"
	EventTypeError             = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	ChannelID *uuid.UUID      `json:"channel_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type ChannelPayload struct {
	ChannelID uuid.UUID `json:"channel_id"`
}

// --- Server → Client payloads ---

type MessagePayload struct {
	domain.Message
}

type DeliveryPayload struct {
	ReaderID uuid.UUID             `json:"reader_id"`
	Status   domain.DeliveryStatus `json:"status"`
}

type TypingPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, channelID *uuid.UUID, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		ChannelID: channelID,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
