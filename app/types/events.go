package types

import "encoding/json"

// Topic event payloads. The same bytes go to the topic and, verbatim, into
// the webhook outbox. A nil ExtraData marshals as JSON null.

type PaymentEvent struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	ExtraData json.RawMessage `json:"extra_data"`
}

type RefundEvent struct {
	ID                         string          `json:"id"`
	Status                     string          `json:"status"`
	ExternalCancellationReason *string         `json:"external_cancellation_reason"`
	ExtraData                  json.RawMessage `json:"extra_data"`
}
