package repository

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/vedran77/minilid/internal/domain"
)

// ErrDuplicate is returned when an insert hits a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate key")

// Lookups return (nil, nil) when the row does not exist.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// JobRepository is the read-only view of job postings owned by the posting service.
type JobRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.JobPosting, error)
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.Application, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]domain.Application, error)
	StatusesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.ApplicationStatus, error)
	// UpdateStatus moves the row from -> to only if it still holds from.
	// It returns (nil, nil) when the row is missing or its status changed underneath.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ApplicationStatus, at time.Time) (*domain.Application, error)
	// DeleteIfStatus removes the row only while it holds status and reports whether it did.
	DeleteIfStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) (bool, error)
}

type ChannelRepository interface {
	// CreateOrGet inserts ch unless a channel already exists for ch.ApplicationID.
	// It returns the stored channel and whether this call created it.
	CreateOrGet(ctx context.Context, ch *domain.Channel) (*domain.Channel, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error)
	GetByApplication(ctx context.Context, applicationID uuid.UUID) (*domain.Channel, error)
	ListByParty(ctx context.Context, userID uuid.UUID) ([]domain.Channel, error)
	// Touch records the preview of a message created at `at` unless a newer one is
	// already recorded, and reports whether it wrote.
	Touch(ctx context.Context, id uuid.UUID, snippet string, at time.Time) (bool, error)
}

type MessageRepository interface {
	// Create appends msg; the store assigns CreatedAt.
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListByChannel returns up to limit messages older than before, in ascending order.
	ListByChannel(ctx context.Context, channelID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error)
	// SyncInterviewStatus rewrites the status of the interview_request message id to
	// the status scheduleID holds at write time. It returns (nil, nil) when either row is missing.
	SyncInterviewStatus(ctx context.Context, id, scheduleID uuid.UUID) (*domain.Message, error)
	// AdvanceDelivery raises the delivery status of messages in channelID not sent by
	// recipientID to `to`, never lowering it. It returns the number of rows changed.
	AdvanceDelivery(ctx context.Context, channelID, recipientID uuid.UUID, to domain.DeliveryStatus) (int64, error)
}

type InterviewRepository interface {
	Create(ctx context.Context, s *domain.InterviewSchedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InterviewSchedule, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InterviewStatus, at time.Time) (*domain.InterviewSchedule, error)
	ListByParty(ctx context.Context, userID uuid.UUID) ([]domain.InterviewSchedule, error)
}
