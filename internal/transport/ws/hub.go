package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/minilid/internal/domain"
	"github.com/vedran77/minilid/internal/logger"
	"github.com/vedran77/minilid/internal/service"
)

// Authorizer is the channel access check; *service.AccessGuard satisfies it.
type Authorizer interface {
	Authorize(ctx context.Context, callerID, channelID uuid.UUID, intent service.Intent) (*domain.Channel, error)
}

// DeliveryMarker advances delivery status when a client acknowledges receipt.
type DeliveryMarker interface {
	MarkDelivered(ctx context.Context, callerID, channelID uuid.UUID) error
}

// Hub owns the set of connected clients. The clients map is only touched from
// the Run goroutine.
type Hub struct {
	clients map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	direct     chan *directMsg
	stopped    chan struct{}

	guard      Authorizer
	deliveries DeliveryMarker
	log        *zap.SugaredLogger
}

type directMsg struct {
	userID    uuid.UUID
	channelID uuid.UUID
	data      []byte
}

func NewHub(guard Authorizer, deliveries DeliveryMarker, log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = logger.Logger
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan *directMsg, 256),
		stopped:    make(chan struct{}),
		guard:      guard,
		deliveries: deliveries,
		log:        log,
	}
}

// Run is the Hub's event loop. It returns when ctx is cancelled, after closing
// every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for client := range conns {
					h.drop(client)
				}
			}
			return nil

		case client := <-h.register:
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID] = conns
			}
			conns[client] = struct{}{}
			h.log.Debugw("ws client connected", logger.FieldUserID, client.userID, "connections", len(conns))

		case client := <-h.unregister:
			if _, ok := h.clients[client.userID][client]; ok {
				h.drop(client)
				h.log.Debugw("ws client disconnected", logger.FieldUserID, client.userID)
			}

		case msg := <-h.direct:
			for client := range h.clients[msg.userID] {
				if !client.IsSubscribed(msg.channelID) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// buffer full
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	conns := h.clients[client.userID]
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	close(client.done)
}

// SendToUser queues an event for userID's clients subscribed to channelID.
// Callers are responsible for having authorized userID on the channel.
func (h *Hub) SendToUser(userID, channelID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Errorw("ws marshal failed", logger.FieldError, err)
		return
	}
	select {
	case h.direct <- &directMsg{userID: userID, channelID: channelID, data: data}:
	case <-h.stopped:
	default:
		h.log.Warnw("ws direct queue full, dropping event",
			logger.FieldUserID, userID,
			logger.FieldChannelID, channelID,
			"type", event.Type,
		)
	}
}

func (h *Hub) addClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) removeClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}
