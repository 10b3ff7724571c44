package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Request rows are the work queues: a row's presence means pending work, its
// absence means done. Workers claim single rows with FOR UPDATE SKIP LOCKED.

type PaymentRequest struct {
	ID        uuid.UUID
	PaymentID uuid.UUID

	HandlerURL *string
	ExtraData  json.RawMessage

	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type RefundRequest struct {
	ID       uuid.UUID
	RefundID uuid.UUID

	HandlerURL *string
	ExtraData  json.RawMessage

	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type HandlerNotificationRequest struct {
	ID uuid.UUID

	HandlerURL string
	Data       json.RawMessage

	CreatedAt   time.Time
	ProcessedAt *time.Time
}
