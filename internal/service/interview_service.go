package service

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/minilid/internal/domain"
	"github.com/vedran77/minilid/internal/logger"
	"github.com/vedran77/minilid/internal/repository"
	"github.com/vedran77/minilid/pkg/validator"
)

// Reconciliation warning codes.
const (
	WarnMessageNotFound  = "message_not_found"
	WarnKindMismatch     = "kind_mismatch"
	WarnPayloadMalformed = "payload_malformed"
	WarnScheduleMismatch = "schedule_mismatch"
	WarnPatchFailed      = "patch_failed"
)

// ReconciliationWarning reports that a schedule was updated but its mirror
// message could not be brought in line. The schedule stays authoritative.
type ReconciliationWarning struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

type ScheduleInput struct {
	JobID         uuid.UUID  `json:"job_id"`
	ApplicantID   uuid.UUID  `json:"applicant_id"`
	InterviewDate time.Time  `json:"interview_date"`
	Location      string     `json:"location"`
	ChannelID     *uuid.UUID `json:"channel_id,omitempty"`
}

type ScheduleResult struct {
	Schedule *domain.InterviewSchedule `json:"schedule"`
	Message  *domain.Message           `json:"message,omitempty"`
}

type UpdateStatusResult struct {
	Schedule *domain.InterviewSchedule `json:"schedule"`
	Warning  *ReconciliationWarning    `json:"warning,omitempty"`
}

// InterviewService keeps interview schedules and their interview_request
// messages. The two are written separately; the message payload only mirrors
// the schedule.
type InterviewService struct {
	interviewRepo repository.InterviewRepository
	jobRepo       repository.JobRepository
	channels      *ChannelService
	log           *zap.SugaredLogger
	now           func() time.Time
}

func NewInterviewService(
	interviewRepo repository.InterviewRepository,
	jobRepo repository.JobRepository,
	channels *ChannelService,
	log *zap.SugaredLogger,
) *InterviewService {
	if log == nil {
		log = logger.Logger
	}
	return &InterviewService{
		interviewRepo: interviewRepo,
		jobRepo:       jobRepo,
		channels:      channels,
		log:           log,
		now:           time.Now,
	}
}

// Schedule creates a pending interview. With a channel it also appends an
// interview_request message through the normal write path.
func (s *InterviewService) Schedule(ctx context.Context, recruiterID uuid.UUID, input ScheduleInput) (*ScheduleResult, error) {
	if errs := validator.ValidateSchedule(input.JobID, input.ApplicantID, input.InterviewDate, input.Location); errs.HasErrors() {
		return nil, &ValidationError{Fields: errs}
	}

	job, err := s.jobRepo.GetByID(ctx, input.JobID)
	if err != nil {
		return nil, errors.Wrap(err, "loading job")
	}
	if job == nil {
		return nil, invalid("job_id", "Job does not exist")
	}
	if job.RecruiterID != recruiterID {
		return nil, errors.Wrapf(ErrForbidden, "scheduling for job %s", input.JobID)
	}

	if input.ChannelID != nil {
		if err := s.checkChannel(ctx, recruiterID, *input.ChannelID, input); err != nil {
			return nil, err
		}
	}

	now := s.now()
	schedule := &domain.InterviewSchedule{
		ID:            uuid.New(),
		JobID:         job.ID,
		RecruiterID:   recruiterID,
		ApplicantID:   input.ApplicantID,
		InterviewDate: input.InterviewDate.UTC(),
		Location:      strings.TrimSpace(input.Location),
		Status:        domain.InterviewPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.interviewRepo.Create(ctx, schedule); err != nil {
		return nil, errors.Wrap(err, "creating interview schedule")
	}

	result := &ScheduleResult{Schedule: schedule}
	if input.ChannelID == nil {
		return result, nil
	}

	content, err := domain.NewInterviewPayload(schedule).Encode()
	if err != nil {
		return nil, errors.Wrap(err, "encoding interview payload")
	}
	msg, err := s.channels.appendMessage(ctx, recruiterID, *input.ChannelID, domain.KindInterviewRequest, content)
	if err != nil {
		return nil, errors.Wrapf(err, "posting interview request for schedule %s", schedule.ID)
	}
	result.Message = msg

	return result, nil
}

// checkChannel authorizes the write up front and confirms the channel belongs
// to the same recruiter, applicant and job as the interview.
func (s *InterviewService) checkChannel(ctx context.Context, recruiterID, channelID uuid.UUID, input ScheduleInput) error {
	ch, err := s.channels.guard.Authorize(ctx, recruiterID, channelID, IntentWrite)
	if err != nil {
		return err
	}
	if ch.ApplicantID != input.ApplicantID || ch.RecruiterID != recruiterID {
		return invalid("channel_id", "Channel does not belong to this applicant")
	}

	app, err := s.channels.applicationRepo.GetByID(ctx, ch.ApplicationID)
	if err != nil {
		return errors.Wrap(err, "loading application")
	}
	if app == nil || app.JobID != input.JobID {
		return invalid("channel_id", "Channel does not belong to this job")
	}
	return nil
}

// UpdateStatus sets the schedule status unconditionally, then tries to mirror it
// into the linked message. Mirroring problems come back as a warning.
func (s *InterviewService) UpdateStatus(ctx context.Context, callerID, scheduleID uuid.UUID, status domain.InterviewStatus, messageID *uuid.UUID) (*UpdateStatusResult, error) {
	if !status.IsResponse() {
		return nil, invalid("status", "Status must be accepted or declined")
	}

	schedule, err := s.interviewRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, errors.Wrap(err, "loading interview schedule")
	}
	if schedule == nil {
		return nil, errors.Wrapf(ErrNotFound, "interview schedule %s", scheduleID)
	}
	if !schedule.HasParty(callerID) {
		return nil, errors.Wrapf(ErrForbidden, "update of interview schedule %s", scheduleID)
	}

	updated, err := s.interviewRepo.UpdateStatus(ctx, schedule.ID, status, s.now())
	if err != nil {
		return nil, errors.Wrap(err, "updating interview schedule")
	}
	if updated == nil {
		return nil, errors.Wrapf(ErrNotFound, "interview schedule %s", scheduleID)
	}

	result := &UpdateStatusResult{Schedule: updated}
	if messageID == nil {
		return result, nil
	}

	if warning := s.reconcile(ctx, updated, *messageID); warning != nil {
		s.log.Warnw("interview reconciliation skipped",
			logger.FieldScheduleID, updated.ID,
			logger.FieldMessageID, *messageID,
			"code", warning.Code,
			"detail", warning.Detail,
		)
		result.Warning = warning
	}

	return result, nil
}

// reconcile checks that the message mirrors this schedule, then has the store
// copy the schedule's status at write time. Concurrent updates therefore all
// converge on whichever schedule write landed last.
func (s *InterviewService) reconcile(ctx context.Context, schedule *domain.InterviewSchedule, messageID uuid.UUID) *ReconciliationWarning {
	msg, err := s.channels.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return &ReconciliationWarning{Code: WarnPatchFailed, Detail: err.Error()}
	}
	if msg == nil {
		return &ReconciliationWarning{Code: WarnMessageNotFound, Detail: "message " + messageID.String() + " does not exist"}
	}
	if msg.Kind != domain.KindInterviewRequest {
		return &ReconciliationWarning{Code: WarnKindMismatch, Detail: "message kind is " + string(msg.Kind)}
	}

	payload, err := domain.DecodeInterviewPayload(msg.Content)
	if err != nil {
		return &ReconciliationWarning{Code: WarnPayloadMalformed, Detail: err.Error()}
	}
	if payload.ScheduleID != schedule.ID {
		return &ReconciliationWarning{Code: WarnScheduleMismatch, Detail: "message references schedule " + payload.ScheduleID.String()}
	}

	synced, err := s.channels.syncInterviewMessage(ctx, msg.ID, schedule.ID)
	if err != nil {
		return &ReconciliationWarning{Code: WarnPatchFailed, Detail: err.Error()}
	}
	if synced == nil {
		return &ReconciliationWarning{Code: WarnMessageNotFound, Detail: "message " + messageID.String() + " was removed"}
	}

	return nil
}

// ListMine returns schedules where userID is the recruiter or the applicant.
func (s *InterviewService) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.InterviewSchedule, error) {
	return s.interviewRepo.ListByParty(ctx, userID)
}
