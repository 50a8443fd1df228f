package ws

import (
	"context"

	"github.com/google/uuid"

	"github.com/vedran77/minilid/internal/domain"
	"github.com/vedran77/minilid/internal/logger"
	"github.com/vedran77/minilid/internal/service"
)

// HubNotifier implements service.Notifier using the WebSocket Hub. Every event
// re-runs the access check for each party, so a revoked party stops receiving
// events on the next one.
type HubNotifier struct {
	hub *Hub
}

var _ service.Notifier = (*HubNotifier)(nil)

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(ch *domain.Channel, msg *domain.Message) {
	n.fanOut(ch, EventTypeMessageNew, MessagePayload{Message: *msg})
}

func (n *HubNotifier) NotifyMessageUpdated(ch *domain.Channel, msg *domain.Message) {
	n.fanOut(ch, EventTypeMessageUpdated, MessagePayload{Message: *msg})
}

func (n *HubNotifier) NotifyDeliveryAdvanced(ch *domain.Channel, readerID uuid.UUID, status domain.DeliveryStatus) {
	n.fanOut(ch, EventTypeMessageDelivery, DeliveryPayload{ReaderID: readerID, Status: status})
}

func (n *HubNotifier) fanOut(ch *domain.Channel, eventType string, payload any) {
	evt, err := NewEvent(eventType, &ch.ID, payload)
	if err != nil {
		n.hub.log.Errorw("ws notifier marshal failed", logger.FieldError, err)
		return
	}

	for _, party := range []uuid.UUID{ch.ApplicantID, ch.RecruiterID} {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		_, err := n.hub.guard.Authorize(ctx, party, ch.ID, service.IntentRead)
		cancel()
		if err != nil {
			continue
		}
		n.hub.SendToUser(party, ch.ID, evt)
	}
}
