package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
)

var ErrRefundNotFound = errors.New("refund not found")

type RefundRepository struct{}

func NewRefundRepository() *RefundRepository {
	return &RefundRepository{}
}

func (r *RefundRepository) Create(ctx context.Context, q DBTX, refund *entity.Refund) error {
	query := `
		INSERT INTO refund (id, payment_id, external_id, amount, currency, status, external_cancellation_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		refund.ID,
		refund.PaymentID,
		refund.ExternalID,
		refund.Amount,
		refund.Currency,
		refund.Status,
		refund.ExternalCancellationReason,
		refund.CreatedAt,
	)
	return err
}

func (r *RefundRepository) FindByID(ctx context.Context, q DBTX, id uuid.UUID) (*entity.Refund, error) {
	query := `
		SELECT id, payment_id, external_id, amount, currency, status, external_cancellation_reason, created_at
		FROM refund
		WHERE id = $1
	`

	refund := &entity.Refund{}
	err := q.QueryRow(ctx, query, id).Scan(
		&refund.ID,
		&refund.PaymentID,
		&refund.ExternalID,
		&refund.Amount,
		&refund.Currency,
		&refund.Status,
		&refund.ExternalCancellationReason,
		&refund.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return refund, nil
}

// Complete records the provider's verdict: a terminal status plus the
// external id when the provider assigned one (400 rejections never carry it).
func (r *RefundRepository) Complete(ctx context.Context, q DBTX, id uuid.UUID, externalID *string, status string, cancellationReason *string) error {
	query := `
		UPDATE refund
		SET external_id = $2, status = $3, external_cancellation_reason = $4
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, id, externalID, status, cancellationReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRefundNotFound
	}

	return nil
}
