package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
)

type RefundRequestRepository struct{}

func NewRefundRequestRepository() *RefundRequestRepository {
	return &RefundRequestRepository{}
}

func (r *RefundRequestRepository) Create(ctx context.Context, q DBTX, request *entity.RefundRequest) error {
	query := `
		INSERT INTO refund_request (id, refund_id, handler_url, extra_data, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		request.ID,
		request.RefundID,
		request.HandlerURL,
		request.ExtraData,
		request.CreatedAt,
		request.ProcessedAt,
	)
	return err
}

func (r *RefundRequestRepository) ClaimDue(ctx context.Context, q DBTX, olderThan time.Time) (*entity.RefundRequest, error) {
	query := `
		SELECT id, refund_id, handler_url, extra_data, created_at, processed_at
		FROM refund_request
		WHERE processed_at IS NULL OR processed_at < $1
		ORDER BY processed_at ASC NULLS FIRST
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	request := &entity.RefundRequest{}
	err := q.QueryRow(ctx, query, olderThan).Scan(
		&request.ID,
		&request.RefundID,
		&request.HandlerURL,
		&request.ExtraData,
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

func (r *RefundRequestRepository) MarkProcessed(ctx context.Context, q DBTX, id uuid.UUID, at time.Time) error {
	_, err := q.Exec(ctx, `UPDATE refund_request SET processed_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *RefundRequestRepository) Delete(ctx context.Context, q DBTX, id uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM refund_request WHERE id = $1`, id)
	return err
}
