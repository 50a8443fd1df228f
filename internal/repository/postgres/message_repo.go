package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedran77/minilid/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

const messageColumns = `id, channel_id, sender_id, sender_is_recruiter, content, kind, delivery_status, created_at`

func scanMessage(row pgx.Row, msg *domain.Message) error {
	return row.Scan(&msg.ID, &msg.ChannelID, &msg.SenderID, &msg.SenderIsRecruiter,
		&msg.Content, &msg.Kind, &msg.DeliveryStatus, &msg.CreatedAt)
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, channel_id, sender_id, sender_is_recruiter, content, kind, delivery_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		msg.ID, msg.ChannelID, msg.SenderID, msg.SenderIsRecruiter, msg.Content, msg.Kind, msg.DeliveryStatus,
	).Scan(&msg.CreatedAt)
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	var msg domain.Message
	err := scanMessage(r.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id), &msg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepo) ListByChannel(ctx context.Context, channelID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error) {
	var query string
	var args []any

	if before != nil {
		// Cursor on (created_at, id) of the "before" message.
		query = fmt.Sprintf(`
			SELECT %s FROM messages
			WHERE channel_id = $1
				AND (created_at, id) < (SELECT created_at, id FROM messages WHERE id = $2)
			ORDER BY created_at DESC, id DESC
			LIMIT %d`, messageColumns, limit)
		args = []any{channelID, *before}
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM messages
			WHERE channel_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT %d`, messageColumns, limit)
		args = []any{channelID}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := scanMessage(rows, &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order (query returns DESC)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// SyncInterviewStatus reads the schedule status inside the UPDATE itself. A stale
// writer blocked on the message row lock finishes first and is overwritten by
// the writer that saw the newer schedule.
func (r *MessageRepo) SyncInterviewStatus(ctx context.Context, id, scheduleID uuid.UUID) (*domain.Message, error) {
	query := `
		UPDATE messages m
		SET content = jsonb_set(m.content::jsonb, '{status}', to_jsonb(s.status))::text
		FROM interview_schedules s
		WHERE m.id = $1 AND s.id = $2 AND m.kind = 'interview_request'
		RETURNING m.id, m.channel_id, m.sender_id, m.sender_is_recruiter, m.content, m.kind, m.delivery_status, m.created_at`

	var msg domain.Message
	err := scanMessage(r.pool.QueryRow(ctx, query, id, scheduleID), &msg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepo) AdvanceDelivery(ctx context.Context, channelID, recipientID uuid.UUID, to domain.DeliveryStatus) (int64, error) {
	var lower []string
	for _, s := range []domain.DeliveryStatus{domain.DeliverySent, domain.DeliveryDelivered, domain.DeliveryRead} {
		if s.Rank() < to.Rank() {
			lower = append(lower, string(s))
		}
	}
	if len(lower) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE messages SET delivery_status = $1
		WHERE channel_id = $2 AND sender_id <> $3 AND delivery_status = ANY($4::text[])`,
		to, channelID, recipientID, lower)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
