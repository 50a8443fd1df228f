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

type ApplicationRepo struct {
	pool *pgxpool.Pool
}

func NewApplicationRepo(pool *pgxpool.Pool) *ApplicationRepo {
	return &ApplicationRepo{pool: pool}
}

const applicationColumns = `id, job_id, applicant_id, status, created_at, updated_at`

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var a domain.Application
	err := row.Scan(&a.ID, &a.JobID, &a.ApplicantID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ApplicationRepo) Create(ctx context.Context, a *domain.Application) error {
	query := `
		INSERT INTO applications (id, job_id, applicant_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, a.ID, a.JobID, a.ApplicantID, a.Status, a.CreatedAt, a.UpdatedAt)
	return translate(err)
}

func (r *ApplicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	return scanApplication(r.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
}

func (r *ApplicationRepo) ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications
		WHERE applicant_id = $1 ORDER BY created_at DESC`, applicantID)
}

func (r *ApplicationRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]domain.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications
		WHERE job_id = $1 ORDER BY created_at`, jobID)
}

func (r *ApplicationRepo) list(ctx context.Context, query string, arg any) ([]domain.Application, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		var a domain.Application
		if err := rows.Scan(&a.ID, &a.JobID, &a.ApplicantID, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (r *ApplicationRepo) StatusesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.ApplicationStatus, error) {
	statuses := make(map[uuid.UUID]domain.ApplicationStatus, len(ids))
	if len(ids) == 0 {
		return statuses, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	rows, err := r.pool.Query(ctx, `SELECT id, status FROM applications WHERE id = ANY($1::uuid[])`, strIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var status domain.ApplicationStatus
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		statuses[id] = status
	}
	return statuses, rows.Err()
}

func (r *ApplicationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ApplicationStatus, at time.Time) (*domain.Application, error) {
	query := `
		UPDATE applications SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + applicationColumns
	return scanApplication(r.pool.QueryRow(ctx, query, to, at, id, from))
}

func (r *ApplicationRepo) DeleteIfStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM applications WHERE id = $1 AND status = $2`, id, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
