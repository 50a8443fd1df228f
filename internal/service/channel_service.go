package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/minilid/internal/domain"
	"github.com/vedran77/minilid/internal/logger"
	"github.com/vedran77/minilid/internal/repository"
	"github.com/vedran77/minilid/pkg/validator"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
)

// Notifier broadcasts real-time channel events. Implementations must re-check
// access for every recipient; the channel is passed only to name its parties.
type Notifier interface {
	NotifyNewMessage(ch *domain.Channel, msg *domain.Message)
	NotifyMessageUpdated(ch *domain.Channel, msg *domain.Message)
	NotifyDeliveryAdvanced(ch *domain.Channel, readerID uuid.UUID, status domain.DeliveryStatus)
}

// RateLimiter throttles posted messages per (channel, sender) key.
type RateLimiter interface {
	Allow(key string) bool
}

// ChannelService creates application channels and owns every read and write of
// their message logs. All access goes through the AccessGuard.
type ChannelService struct {
	channelRepo     repository.ChannelRepository
	applicationRepo repository.ApplicationRepository
	jobRepo         repository.JobRepository
	messageRepo     repository.MessageRepository
	guard           *AccessGuard
	notifier        Notifier
	limiter         RateLimiter
	log             *zap.SugaredLogger
}

func NewChannelService(
	channelRepo repository.ChannelRepository,
	applicationRepo repository.ApplicationRepository,
	jobRepo repository.JobRepository,
	messageRepo repository.MessageRepository,
	guard *AccessGuard,
	log *zap.SugaredLogger,
) *ChannelService {
	if log == nil {
		log = logger.Logger
	}
	return &ChannelService{
		channelRepo:     channelRepo,
		applicationRepo: applicationRepo,
		jobRepo:         jobRepo,
		messageRepo:     messageRepo,
		guard:           guard,
		log:             log,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *ChannelService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetRateLimiter throttles PostMessage (optional dependency).
func (s *ChannelService) SetRateLimiter(l RateLimiter) {
	s.limiter = l
}

type CreateChannelResult struct {
	Channel       *domain.Channel `json:"channel"`
	AlreadyExists bool            `json:"already_exists"`
}

type ChannelView struct {
	Channel  *domain.Channel  `json:"channel"`
	Messages []domain.Message `json:"messages"`
	HasMore  bool             `json:"has_more"`
}

type PostMessageInput struct {
	Content string             `json:"content"`
	Kind    domain.MessageKind `json:"kind"`
}

// Create opens the channel for an engaged application. A second call for the
// same application, concurrent or not, returns the stored channel with
// AlreadyExists set.
func (s *ChannelService) Create(ctx context.Context, applicationID, recruiterID uuid.UUID) (*CreateChannelResult, error) {
	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, errors.Wrap(err, "loading application")
	}
	if app == nil {
		return nil, errors.Wrapf(ErrNotFound, "application %s", applicationID)
	}

	job, err := s.jobRepo.GetByID(ctx, app.JobID)
	if err != nil {
		return nil, errors.Wrap(err, "loading job")
	}
	if job == nil {
		return nil, errors.Wrapf(ErrJobNotFound, "job %s", app.JobID)
	}
	if job.RecruiterID != recruiterID {
		return nil, errors.Wrapf(ErrForbidden, "channel for application %s", applicationID)
	}

	if !app.Status.IsEngaged() {
		return nil, errors.Wrapf(ErrPreconditionFailed, "application %s is %s", applicationID, app.Status)
	}

	// timestamps come from the store, the same clock that stamps messages
	ch, created, err := s.channelRepo.CreateOrGet(ctx, &domain.Channel{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		ApplicantID:   app.ApplicantID,
		RecruiterID:   job.RecruiterID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating channel")
	}

	return &CreateChannelResult{Channel: ch, AlreadyExists: !created}, nil
}

// ListMine returns the caller's channels whose application is still engaged.
func (s *ChannelService) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.Channel, error) {
	channels, err := s.channelRepo.ListByParty(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "listing channels")
	}
	if len(channels) == 0 {
		return []domain.Channel{}, nil
	}

	ids := make([]uuid.UUID, len(channels))
	for i, ch := range channels {
		ids[i] = ch.ApplicationID
	}
	statuses, err := s.applicationRepo.StatusesByID(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "loading application statuses")
	}

	out := make([]domain.Channel, 0, len(channels))
	for _, ch := range channels {
		if status, ok := statuses[ch.ApplicationID]; ok && status.IsEngaged() {
			out = append(out, ch)
		}
	}
	return out, nil
}

// Get returns the channel and a page of its messages, oldest first. Reading
// advances the counterpart's messages to read.
func (s *ChannelService) Get(ctx context.Context, callerID, channelID uuid.UUID, before *uuid.UUID, limit int) (*ChannelView, error) {
	ch, err := s.guard.Authorize(ctx, callerID, channelID, IntentRead)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > maxMessageLimit {
		limit = defaultMessageLimit
	}

	// limit+1 tells us whether an older page exists
	messages, err := s.messageRepo.ListByChannel(ctx, ch.ID, before, limit+1)
	if err != nil {
		return nil, errors.Wrap(err, "listing messages")
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[len(messages)-limit:]
	}

	advanced, err := s.messageRepo.AdvanceDelivery(ctx, ch.ID, callerID, domain.DeliveryRead)
	if err != nil {
		return nil, errors.Wrap(err, "marking messages read")
	}
	for i := range messages {
		if messages[i].SenderID != callerID {
			messages[i].DeliveryStatus = domain.DeliveryRead
		}
	}
	if advanced > 0 && s.notifier != nil {
		s.notifier.NotifyDeliveryAdvanced(ch, callerID, domain.DeliveryRead)
	}

	return &ChannelView{Channel: ch, Messages: messages, HasMore: hasMore}, nil
}

// PostMessage appends a party-authored message. Interview requests can only be
// produced by the interview scheduler. The rate limit is only consulted once
// the caller may write to the channel, so limiter keys never name a channel
// the caller cannot reach.
func (s *ChannelService) PostMessage(ctx context.Context, callerID, channelID uuid.UUID, input PostMessageInput) (*domain.Message, error) {
	if errs := validator.ValidateMessage(string(input.Kind), input.Content); errs.HasErrors() {
		return nil, &ValidationError{Fields: errs}
	}

	if s.limiter != nil {
		ch, err := s.guard.Authorize(ctx, callerID, channelID, IntentWrite)
		if err != nil {
			return nil, err
		}
		if !s.limiter.Allow(ch.ID.String() + ":" + callerID.String()) {
			return nil, errors.Wrapf(ErrRateLimited, "channel %s", ch.ID)
		}
	}

	return s.appendMessage(ctx, callerID, channelID, input.Kind, input.Content)
}

// MarkDelivered advances the counterpart's sent messages to delivered once the
// caller's client has received them.
func (s *ChannelService) MarkDelivered(ctx context.Context, callerID, channelID uuid.UUID) error {
	ch, err := s.guard.Authorize(ctx, callerID, channelID, IntentRead)
	if err != nil {
		return err
	}

	advanced, err := s.messageRepo.AdvanceDelivery(ctx, ch.ID, callerID, domain.DeliveryDelivered)
	if err != nil {
		return errors.Wrap(err, "marking messages delivered")
	}
	if advanced > 0 && s.notifier != nil {
		s.notifier.NotifyDeliveryAdvanced(ch, callerID, domain.DeliveryDelivered)
	}
	return nil
}

// appendMessage is the single write path into a channel log. It authorizes the
// write on every call, including writes made by the interview scheduler.
func (s *ChannelService) appendMessage(ctx context.Context, senderID, channelID uuid.UUID, kind domain.MessageKind, content string) (*domain.Message, error) {
	ch, err := s.guard.Authorize(ctx, senderID, channelID, IntentWrite)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:                uuid.Must(uuid.NewV7()),
		ChannelID:         ch.ID,
		SenderID:          senderID,
		SenderIsRecruiter: senderID == ch.RecruiterID,
		Content:           content,
		Kind:              kind,
		DeliveryStatus:    domain.DeliverySent,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, errors.Wrap(err, "creating message")
	}

	snippet := domain.Snippet(kind, content)
	touched, err := s.channelRepo.Touch(ctx, ch.ID, snippet, msg.CreatedAt)
	switch {
	case err != nil:
		// message is stored; the snippet catches up on the next write
		s.log.Warnw("failed to update channel snippet",
			logger.FieldChannelID, ch.ID,
			logger.FieldMessageID, msg.ID,
			logger.FieldError, err,
		)
	case touched:
		ch.LastMessageSnippet = snippet
		at := msg.CreatedAt
		ch.LastMessageAt = &at
		if at.After(ch.UpdatedAt) {
			ch.UpdatedAt = at
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(ch, msg)
	}

	return msg, nil
}

// syncInterviewMessage copies the schedule's current status into the
// interview_request message in one store write, then notifies the parties.
// It returns (nil, nil) when the message is gone. A notifier failure does not
// undo the write and is only logged.
func (s *ChannelService) syncInterviewMessage(ctx context.Context, messageID, scheduleID uuid.UUID) (*domain.Message, error) {
	msg, err := s.messageRepo.SyncInterviewStatus(ctx, messageID, scheduleID)
	if err != nil {
		return nil, errors.Wrap(err, "syncing interview message")
	}
	if msg == nil || s.notifier == nil {
		return msg, nil
	}

	ch, err := s.channelRepo.GetByID(ctx, msg.ChannelID)
	if err != nil || ch == nil {
		s.log.Warnw("interview message updated without notification",
			logger.FieldChannelID, msg.ChannelID,
			logger.FieldMessageID, msg.ID,
			logger.FieldError, err,
		)
		return msg, nil
	}
	s.notifier.NotifyMessageUpdated(ch, msg)
	return msg, nil
}
