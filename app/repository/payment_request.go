package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
)

type PaymentRequestRepository struct{}

func NewPaymentRequestRepository() *PaymentRequestRepository {
	return &PaymentRequestRepository{}
}

func (r *PaymentRequestRepository) Create(ctx context.Context, q DBTX, request *entity.PaymentRequest) error {
	query := `
		INSERT INTO payment_request (id, payment_id, handler_url, extra_data, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		request.ID,
		request.PaymentID,
		request.HandlerURL,
		request.ExtraData,
		request.CreatedAt,
		request.ProcessedAt,
	)
	return err
}

// ClaimDue locks a single request that has never been processed or whose last
// attempt is older than the cutoff. SKIP LOCKED keeps concurrent workers on
// disjoint rows; returns nil when nothing is due.
func (r *PaymentRequestRepository) ClaimDue(ctx context.Context, q DBTX, olderThan time.Time) (*entity.PaymentRequest, error) {
	query := `
		SELECT id, payment_id, handler_url, extra_data, created_at, processed_at
		FROM payment_request
		WHERE processed_at IS NULL OR processed_at < $1
		ORDER BY processed_at ASC NULLS FIRST
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	request := &entity.PaymentRequest{}
	err := q.QueryRow(ctx, query, olderThan).Scan(
		&request.ID,
		&request.PaymentID,
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

func (r *PaymentRequestRepository) MarkProcessed(ctx context.Context, q DBTX, id uuid.UUID, at time.Time) error {
	_, err := q.Exec(ctx, `UPDATE payment_request SET processed_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *PaymentRequestRepository) Delete(ctx context.Context, q DBTX, id uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM payment_request WHERE id = $1`, id)
	return err
}
