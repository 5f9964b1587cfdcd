package paystack

import "encoding/json"

const StatusSuccess = "success"

// InitializeRequest opens a hosted checkout. Amount is in the currency's minor unit.
type InitializeRequest struct {
	Email       string          `json:"email"`
	Amount      int64           `json:"amount"`
	Reference   string          `json:"reference"`
	Currency    string          `json:"currency,omitempty"`
	CallbackURL string          `json:"callback_url,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Transaction struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Channel   string          `json:"channel"`
	PaidAt    string          `json:"paid_at"`
	Metadata  json.RawMessage `json:"metadata"`
}

// Successful reports whether the gateway settled the charge.
func (t *Transaction) Successful() bool {
	return t != nil && t.Status == StatusSuccess
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}
