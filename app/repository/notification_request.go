package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
)

type HandlerNotificationRepository struct{}

func NewHandlerNotificationRepository() *HandlerNotificationRepository {
	return &HandlerNotificationRepository{}
}

// Create enqueues an outbound webhook. ON CONFLICT DO NOTHING makes a replay
// after a crash-and-retry a no-op instead of an error.
func (r *HandlerNotificationRepository) Create(ctx context.Context, q DBTX, request *entity.HandlerNotificationRequest) error {
	query := `
		INSERT INTO handler_notification_request (id, handler_url, data, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := q.Exec(ctx, query,
		request.ID,
		request.HandlerURL,
		request.Data,
		request.CreatedAt,
		request.ProcessedAt,
	)
	return err
}

func (r *HandlerNotificationRepository) ClaimDue(ctx context.Context, q DBTX, olderThan time.Time) (*entity.HandlerNotificationRequest, error) {
	query := `
		SELECT id, handler_url, data, created_at, processed_at
		FROM handler_notification_request
		WHERE processed_at IS NULL OR processed_at < $1
		ORDER BY processed_at ASC NULLS FIRST
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	request := &entity.HandlerNotificationRequest{}
	err := q.QueryRow(ctx, query, olderThan).Scan(
		&request.ID,
		&request.HandlerURL,
		&request.Data,
		&request.CreatedAt,
		&request.ProcessedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return request, nil
}

func (r *HandlerNotificationRepository) MarkProcessed(ctx context.Context, q DBTX, id uuid.UUID, at time.Time) error {
	_, err := q.Exec(ctx, `UPDATE handler_notification_request SET processed_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *HandlerNotificationRepository) Delete(ctx context.Context, q DBTX, id uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM handler_notification_request WHERE id = $1`, id)
	return err
}
