package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedran77/minilid/internal/domain"
)

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobPosting, error) {
	var job domain.JobPosting
	err := r.pool.QueryRow(ctx,
		`SELECT id, recruiter_id, title FROM job_postings WHERE id = $1`, id,
	).Scan(&job.ID, &job.RecruiterID, &job.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}
