package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/vedran77/minilid/internal/domain"
	"github.com/vedran77/minilid/internal/repository"
)

type Intent string

const (
	IntentRead  Intent = "read"
	IntentWrite Intent = "write"
)

// AccessGuard decides whether a caller may use a channel right now. Nothing is
// cached: the bound application's status is read on every call.
type AccessGuard struct {
	channelRepo     repository.ChannelRepository
	applicationRepo repository.ApplicationRepository
}

func NewAccessGuard(channelRepo repository.ChannelRepository, applicationRepo repository.ApplicationRepository) *AccessGuard {
	return &AccessGuard{
		channelRepo:     channelRepo,
		applicationRepo: applicationRepo,
	}
}

// Authorize returns the channel when callerID is one of its parties and the bound
// application is engaged. A non-party gets ErrForbidden; a party whose application
// has left the engaged states gets ErrChannelClosed.
func (g *AccessGuard) Authorize(ctx context.Context, callerID, channelID uuid.UUID, intent Intent) (*domain.Channel, error) {
	ch, err := g.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, errors.Wrap(err, "loading channel")
	}
	if ch == nil {
		return nil, errors.Wrapf(ErrNotFound, "channel %s", channelID)
	}

	if !ch.HasParty(callerID) {
		return nil, errors.Wrapf(ErrForbidden, "%s access to channel %s", intent, channelID)
	}

	app, err := g.applicationRepo.GetByID(ctx, ch.ApplicationID)
	if err != nil {
		return nil, errors.Wrap(err, "loading application")
	}
	if app == nil || !app.Status.IsEngaged() {
		return nil, errors.Wrapf(ErrChannelClosed, "%s access to channel %s", intent, channelID)
	}

	return ch, nil
}
