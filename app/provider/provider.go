package provider

import (
	"context"
	"errors"
)

// ErrUnavailable wraps connection-level failures. Protocol-level responses,
// 400 included, never surface as this error; callers branch on status codes.
var ErrUnavailable = errors.New("payment provider unavailable")

type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type Confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type CancellationDetails struct {
	Party  string `json:"party,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type CreatePaymentInput struct {
	Amount    Amount
	ReturnURL string
	Metadata  map[string]string
}

type CreatePaymentOutput struct {
	ID              string
	Status          string
	ConfirmationURL string
}

// PaymentState is the subset of the provider's payment object the polling
// worker acts on. Status is normalized to the local vocabulary.
type PaymentState struct {
	ID                  string
	Status              string
	CancellationDetails *CancellationDetails
}

type CreateRefundInput struct {
	PaymentExternalID string
	Amount            Amount
	Metadata          map[string]string
}

// RefundOutcome carries the provider response intact: 200 and 400 bodies are
// parsed, anything else keeps the raw body for logging. Only transport
// failures are reported through the error return.
type RefundOutcome struct {
	StatusCode int

	// 200 body.
	ID                  string
	Status              string
	CancellationDetails *CancellationDetails

	// 400 body.
	ErrorType   string
	ErrorCode   string
	Parameter   string
	Description string

	RawBody []byte
}

type Client interface {
	CreatePayment(ctx context.Context, input *CreatePaymentInput, idempotenceKey string) (*CreatePaymentOutput, error)
	GetPayment(ctx context.Context, externalID string) (*PaymentState, error)
	CreateRefund(ctx context.Context, input *CreateRefundInput, idempotenceKey string) (*RefundOutcome, error)
}
