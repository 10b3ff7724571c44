package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const idempotenceKeyHeader = "Idempotence-Key"

type YookassaConfig struct {
	BaseURL     string
	ShopID      string
	SecretKey   string
	HTTPTimeout time.Duration
}

// YookassaClient talks to the YooKassa v3 API with BasicAuth. Every mutating
// request carries an Idempotence-Key supplied by the caller.
type YookassaClient struct {
	cfg    YookassaConfig
	client *http.Client
}

func NewYookassaClient(cfg YookassaConfig) *YookassaClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.yookassa.ru"
	}

	return &YookassaClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *YookassaClient) CreatePayment(ctx context.Context, input *CreatePaymentInput, idempotenceKey string) (*CreatePaymentOutput, error) {
	body := map[string]any{
		"amount": input.Amount,
		"confirmation": map[string]string{
			"type":       "redirect",
			"return_url": input.ReturnURL,
		},
		"capture": true,
	}
	if len(input.Metadata) > 0 {
		body["metadata"] = input.Metadata
	}

	statusCode, respBody, err := c.post(ctx, "/v3/payments", idempotenceKey, body)
	if err != nil {
		return nil, err
	}
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("yookassa create payment failed: status=%d body=%s", statusCode, respBody)
	}

	var payload struct {
		ID           string        `json:"id"`
		Status       string        `json:"status"`
		Confirmation *Confirmation `json:"confirmation"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, err
	}

	result := &CreatePaymentOutput{
		ID:     payload.ID,
		Status: normalizeStatus(payload.Status),
	}
	if payload.Confirmation != nil {
		result.ConfirmationURL = payload.Confirmation.ConfirmationURL
	}

	return result, nil
}

func (c *YookassaClient) GetPayment(ctx context.Context, externalID string) (*PaymentState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v3/payments/"+url.PathEscape(externalID), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.ShopID, c.cfg.SecretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yookassa get payment failed: status=%d body=%s", resp.StatusCode, respBody)
	}

	var payload struct {
		ID                  string               `json:"id"`
		Status              string               `json:"status"`
		CancellationDetails *CancellationDetails `json:"cancellation_details"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, err
	}

	return &PaymentState{
		ID:                  payload.ID,
		Status:              normalizeStatus(payload.Status),
		CancellationDetails: payload.CancellationDetails,
	}, nil
}

func (c *YookassaClient) CreateRefund(ctx context.Context, input *CreateRefundInput, idempotenceKey string) (*RefundOutcome, error) {
	body := map[string]any{
		"payment_id": input.PaymentExternalID,
		"amount":     input.Amount,
	}
	if len(input.Metadata) > 0 {
		body["metadata"] = input.Metadata
	}

	statusCode, respBody, err := c.post(ctx, "/v3/refunds", idempotenceKey, body)
	if err != nil {
		return nil, err
	}

	outcome := &RefundOutcome{
		StatusCode: statusCode,
		RawBody:    respBody,
	}

	switch statusCode {
	case http.StatusOK:
		var payload struct {
			ID                  string               `json:"id"`
			Status              string               `json:"status"`
			CancellationDetails *CancellationDetails `json:"cancellation_details"`
		}
		if err := json.Unmarshal(respBody, &payload); err != nil {
			return nil, err
		}
		outcome.ID = payload.ID
		outcome.Status = normalizeStatus(payload.Status)
		outcome.CancellationDetails = payload.CancellationDetails
	case http.StatusBadRequest:
		var payload struct {
			Type        string `json:"type"`
			Code        string `json:"code"`
			Parameter   string `json:"parameter"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(respBody, &payload); err != nil {
			return nil, err
		}
		outcome.ErrorType = payload.Type
		outcome.ErrorCode = payload.Code
		outcome.Parameter = payload.Parameter
		outcome.Description = payload.Description
	}

	return outcome, nil
}

func (c *YookassaClient) post(ctx context.Context, path, idempotenceKey string, body any) (int, []byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return 0, nil, err
	}
	req.SetBasicAuth(c.cfg.ShopID, c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotenceKeyHeader, idempotenceKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return resp.StatusCode, respBody, nil
}

// The provider spells terminal cancellation "canceled"; the local vocabulary
// uses "cancelled".
func normalizeStatus(status string) string {
	if status == "canceled" {
		return "cancelled"
	}
	return status
}
