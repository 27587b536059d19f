package model

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ProviderID accepts both JSON strings and numbers.
type ProviderID string

func (p *ProviderID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = ProviderID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = ProviderID(n.String())
	return nil
}

func (p ProviderID) String() string {
	return string(p)
}

type WebhookData struct {
	ID ProviderID `json:"id"`
}

// ProviderNotification is the body the payment provider POSTs to the webhook.
type ProviderNotification struct {
	Type   string      `json:"type"`
	Action string      `json:"action,omitempty"`
	Data   WebhookData `json:"data"`
}

// ProviderPayment is the subset of the provider's payment detail we consume.
type ProviderPayment struct {
	ID                ProviderID      `json:"id"`
	Status            string          `json:"status"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	PaymentMethodID   string          `json:"payment_method_id"`

	// Raw is the full response body, kept for audit.
	Raw []byte `json:"-"`
}
