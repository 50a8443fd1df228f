package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/vedran77/minilid/internal/domain"
	"github.com/vedran77/minilid/internal/identity"
	"github.com/vedran77/minilid/internal/repository"
)

// ApplicationService is the lifecycle state machine. It only ever moves an
// application along the edges in domain.AllowedTransitions and never creates
// channels itself.
type ApplicationService struct {
	applicationRepo repository.ApplicationRepository
	jobRepo         repository.JobRepository
	now             func() time.Time
}

func NewApplicationService(applicationRepo repository.ApplicationRepository, jobRepo repository.JobRepository) *ApplicationService {
	return &ApplicationService{
		applicationRepo: applicationRepo,
		jobRepo:         jobRepo,
		now:             time.Now,
	}
}

func (s *ApplicationService) Apply(ctx context.Context, caller identity.Caller, jobID uuid.UUID) (*domain.Application, error) {
	if caller.Role != domain.RoleApplicant {
		return nil, errors.Wrap(ErrForbidden, "only applicants can apply")
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, errors.Wrap(err, "loading job")
	}
	if job == nil {
		return nil, errors.Wrapf(ErrJobNotFound, "job %s", jobID)
	}

	now := s.now()
	app := &domain.Application{
		ID:          uuid.New(),
		JobID:       job.ID,
		ApplicantID: caller.ID,
		Status:      domain.StatusApplied,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.applicationRepo.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Wrapf(ErrAlreadyApplied, "job %s", jobID)
		}
		return nil, errors.Wrap(err, "creating application")
	}

	return app, nil
}

// Transition moves an application to target on behalf of actorID, who must own
// the job posting. The write is conditional on the status read here, so a
// concurrent transition makes this one fail instead of overwriting it.
func (s *ApplicationService) Transition(ctx context.Context, applicationID, actorID uuid.UUID, target domain.ApplicationStatus) (*domain.Application, error) {
	if !target.Valid() {
		return nil, invalid("status", "Status must be one of applied, interviewing, hired, rejected")
	}

	app, job, err := s.loadWithJob(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != actorID {
		return nil, errors.Wrapf(ErrForbidden, "transition of application %s", applicationID)
	}

	if !app.Status.CanTransitionTo(target) {
		return nil, &TransitionError{From: app.Status, To: target}
	}

	updated, err := s.applicationRepo.UpdateStatus(ctx, app.ID, app.Status, target, s.now())
	if err != nil {
		return nil, errors.Wrap(err, "updating application status")
	}
	if updated == nil {
		return nil, s.lostRace(ctx, app.ID, target)
	}

	return updated, nil
}

// Withdraw removes an application the caller submitted. Only applications that
// have not left the applied state can be removed.
func (s *ApplicationService) Withdraw(ctx context.Context, applicationID, callerID uuid.UUID) error {
	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return errors.Wrap(err, "loading application")
	}
	if app == nil {
		return errors.Wrapf(ErrNotFound, "application %s", applicationID)
	}
	if app.ApplicantID != callerID {
		return errors.Wrapf(ErrForbidden, "withdraw of application %s", applicationID)
	}
	if app.Status != domain.StatusApplied {
		return errors.Wrapf(ErrInvalidOperation, "cannot withdraw application in status %s", app.Status)
	}

	deleted, err := s.applicationRepo.DeleteIfStatus(ctx, app.ID, domain.StatusApplied)
	if err != nil {
		return errors.Wrap(err, "deleting application")
	}
	if !deleted {
		current, err := s.applicationRepo.GetByID(ctx, app.ID)
		if err != nil {
			return errors.Wrap(err, "reloading application")
		}
		if current == nil {
			return nil
		}
		return errors.Wrapf(ErrInvalidOperation, "cannot withdraw application in status %s", current.Status)
	}

	return nil
}

// Get returns an application to its applicant or to the recruiter owning its job.
func (s *ApplicationService) Get(ctx context.Context, applicationID, callerID uuid.UUID) (*domain.Application, error) {
	app, job, err := s.loadWithJob(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != callerID && job.RecruiterID != callerID {
		return nil, errors.Wrapf(ErrForbidden, "read of application %s", applicationID)
	}
	return app, nil
}

func (s *ApplicationService) ListMine(ctx context.Context, applicantID uuid.UUID) ([]domain.Application, error) {
	return s.applicationRepo.ListByApplicant(ctx, applicantID)
}

func (s *ApplicationService) ListForJob(ctx context.Context, jobID, recruiterID uuid.UUID) ([]domain.Application, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, errors.Wrap(err, "loading job")
	}
	if job == nil {
		return nil, errors.Wrapf(ErrJobNotFound, "job %s", jobID)
	}
	if job.RecruiterID != recruiterID {
		return nil, errors.Wrapf(ErrForbidden, "applications of job %s", jobID)
	}
	return s.applicationRepo.ListByJob(ctx, jobID)
}

func (s *ApplicationService) loadWithJob(ctx context.Context, applicationID uuid.UUID) (*domain.Application, *domain.JobPosting, error) {
	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading application")
	}
	if app == nil {
		return nil, nil, errors.Wrapf(ErrNotFound, "application %s", applicationID)
	}

	job, err := s.jobRepo.GetByID(ctx, app.JobID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading job")
	}
	if job == nil {
		return nil, nil, errors.Wrapf(ErrJobNotFound, "job %s", app.JobID)
	}

	return app, job, nil
}

// lostRace reports a conditional update that matched no row.
func (s *ApplicationService) lostRace(ctx context.Context, applicationID uuid.UUID, target domain.ApplicationStatus) error {
	current, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return errors.Wrap(err, "reloading application")
	}
	if current == nil {
		return errors.Wrapf(ErrNotFound, "application %s", applicationID)
	}
	return &TransitionError{From: current.Status, To: target}
}
