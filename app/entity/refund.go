package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Refund struct {
	ID        uuid.UUID
	PaymentID uuid.UUID

	// ExternalID stays nil until the provider accepts the refund; once set,
	// the status is terminal.
	ExternalID *string

	Amount   decimal.Decimal
	Currency string

	Status                     string
	ExternalCancellationReason *string

	CreatedAt time.Time
}
