package types

import (
	"encoding/json"
	"errors"
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	UserID     uuid.UUID       `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	ReturnURL  string          `json:"return_url"`
	HandlerURL string          `json:"handler_url,omitempty"`
	ExtraData  json.RawMessage `json:"extra_data,omitempty"`
}

func (r *ChargeRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return errors.New("user_id is required")
	}
	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if r.Currency == "" {
		return errors.New("currency is required")
	}
	if err := validateURL(r.ReturnURL); err != nil {
		return errors.New("return_url must be a valid http(s) url")
	}
	if r.HandlerURL != "" {
		if err := validateURL(r.HandlerURL); err != nil {
			return errors.New("handler_url must be a valid http(s) url")
		}
	}
	return nil
}

type ChargeResponse struct {
	PaymentID       uuid.UUID `json:"payment_id"`
	ConfirmationURL string    `json:"confirmation_url"`
}

type RefundCreateRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	HandlerURL string          `json:"handler_url,omitempty"`
	ExtraData  json.RawMessage `json:"extra_data,omitempty"`
}

func (r *RefundCreateRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if r.Currency == "" {
		return errors.New("currency is required")
	}
	if r.HandlerURL != "" {
		if err := validateURL(r.HandlerURL); err != nil {
			return errors.New("handler_url must be a valid http(s) url")
		}
	}
	return nil
}

type RefundCreateResponse struct {
	RefundID uuid.UUID `json:"refund_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("unsupported scheme")
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
