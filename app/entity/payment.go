package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusCreated   = "created"
	StatusSucceeded = "succeeded"
	StatusCancelled = "cancelled"
)

// TerminalStatus reports whether a payment or refund status is sticky.
func TerminalStatus(status string) bool {
	return status == StatusSucceeded || status == StatusCancelled
}

type Payment struct {
	ID         uuid.UUID
	ExternalID string
	UserID     uuid.UUID

	Amount   decimal.Decimal
	Currency string

	Status                     string
	ExternalCancellationReason *string

	CreatedAt time.Time
}
