package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentAlreadyExists = errors.New("payment already exists")
)

type PaymentRepository struct{}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{}
}

func (r *PaymentRepository) Create(ctx context.Context, q DBTX, payment *entity.Payment) error {
	query := `
		INSERT INTO payment (id, external_id, user_id, amount, currency, status, external_cancellation_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		payment.ID,
		payment.ExternalID,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.ExternalCancellationReason,
		payment.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPaymentAlreadyExists
		}
		return err
	}

	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, q DBTX, id uuid.UUID) (*entity.Payment, error) {
	query := `
		SELECT id, external_id, user_id, amount, currency, status, external_cancellation_reason, created_at
		FROM payment
		WHERE id = $1
	`

	payment := &entity.Payment{}
	err := q.QueryRow(ctx, query, id).Scan(
		&payment.ID,
		&payment.ExternalID,
		&payment.UserID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.ExternalCancellationReason,
		&payment.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// SetTerminalStatus moves a payment out of "created". The UPDATE takes the
// row lock, so a broker publish issued later in the same transaction is
// ordered after the transition.
func (r *PaymentRepository) SetTerminalStatus(ctx context.Context, q DBTX, id uuid.UUID, status string, cancellationReason *string) error {
	query := `
		UPDATE payment
		SET status = $2, external_cancellation_reason = $3
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, id, status, cancellationReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}

	return nil
}
