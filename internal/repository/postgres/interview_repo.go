package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedran77/minilid/internal/domain"
)

type InterviewRepo struct {
	pool *pgxpool.Pool
}

func NewInterviewRepo(pool *pgxpool.Pool) *InterviewRepo {
	return &InterviewRepo{pool: pool}
}

const interviewColumns = `id, job_id, recruiter_id, applicant_id, interview_date, location, status, created_at, updated_at`

func scanInterview(row pgx.Row, s *domain.InterviewSchedule) error {
	return row.Scan(&s.ID, &s.JobID, &s.RecruiterID, &s.ApplicantID,
		&s.InterviewDate, &s.Location, &s.Status, &s.CreatedAt, &s.UpdatedAt)
}

func (r *InterviewRepo) Create(ctx context.Context, s *domain.InterviewSchedule) error {
	query := `
		INSERT INTO interview_schedules (` + interviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		s.ID, s.JobID, s.RecruiterID, s.ApplicantID, s.InterviewDate, s.Location, s.Status, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *InterviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InterviewSchedule, error) {
	var s domain.InterviewSchedule
	err := scanInterview(r.pool.QueryRow(ctx,
		`SELECT `+interviewColumns+` FROM interview_schedules WHERE id = $1`, id), &s)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *InterviewRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InterviewStatus, at time.Time) (*domain.InterviewSchedule, error) {
	var s domain.InterviewSchedule
	err := scanInterview(r.pool.QueryRow(ctx, `
		UPDATE interview_schedules SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING `+interviewColumns, status, at, id), &s)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *InterviewRepo) ListByParty(ctx context.Context, userID uuid.UUID) ([]domain.InterviewSchedule, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+interviewColumns+` FROM interview_schedules
		WHERE recruiter_id = $1 OR applicant_id = $1
		ORDER BY interview_date`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []domain.InterviewSchedule
	for rows.Next() {
		var s domain.InterviewSchedule
		if err := scanInterview(rows, &s); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}
