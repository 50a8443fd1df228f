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

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

const channelColumns = `id, application_id, applicant_id, recruiter_id, last_message_snippet, last_message_at, created_at, updated_at`

func scanChannel(row pgx.Row) (*domain.Channel, error) {
	var ch domain.Channel
	err := row.Scan(&ch.ID, &ch.ApplicationID, &ch.ApplicantID, &ch.RecruiterID,
		&ch.LastMessageSnippet, &ch.LastMessageAt, &ch.CreatedAt, &ch.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// CreateOrGet relies on the unique constraint on application_id: the losing
// insert of a concurrent pair does nothing and reads the winner's row.
// created_at and updated_at are assigned by the store.
func (r *ChannelRepo) CreateOrGet(ctx context.Context, ch *domain.Channel) (*domain.Channel, bool, error) {
	query := `
		INSERT INTO channels (id, application_id, applicant_id, recruiter_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (application_id) DO NOTHING
		RETURNING ` + channelColumns
	created, err := scanChannel(r.pool.QueryRow(ctx, query,
		ch.ID, ch.ApplicationID, ch.ApplicantID, ch.RecruiterID,
	))
	if err != nil {
		return nil, false, err
	}
	if created != nil {
		return created, true, nil
	}

	existing, err := r.GetByApplication(ctx, ch.ApplicationID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("channel insert conflicted but no row found")
	}
	return existing, false, nil
}

func (r *ChannelRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error) {
	return scanChannel(r.pool.QueryRow(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = $1`, id))
}

func (r *ChannelRepo) GetByApplication(ctx context.Context, applicationID uuid.UUID) (*domain.Channel, error) {
	return scanChannel(r.pool.QueryRow(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE application_id = $1`, applicationID))
}

func (r *ChannelRepo) ListByParty(ctx context.Context, userID uuid.UUID) ([]domain.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels
		WHERE applicant_id = $1 OR recruiter_id = $1
		ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.ID, &ch.ApplicationID, &ch.ApplicantID, &ch.RecruiterID,
			&ch.LastMessageSnippet, &ch.LastMessageAt, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// Touch records the latest message preview. The guard compares message times
// only, so an older write arriving late does not overwrite a newer snippet.
func (r *ChannelRepo) Touch(ctx context.Context, id uuid.UUID, snippet string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE channels
		SET last_message_snippet = $1, last_message_at = $2, updated_at = GREATEST(updated_at, $2)
		WHERE id = $3 AND (last_message_at IS NULL OR last_message_at <= $2)`,
		snippet, at, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
