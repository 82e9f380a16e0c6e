package response_models

// CheckoutResponse carries everything a frontend needs to render the
// auto-submitting POST form to the gateway.
type CheckoutResponse struct {
	TradeRef   string            `json:"trade_ref"`
	GatewayURL string            `json:"gateway_url"`
	Amount     int64             `json:"amount"`
	Fields     map[string]string `json:"fields"`
}

type ReconcileResponse struct {
	OK       bool   `json:"ok"`
	Status   string `json:"status"`
	Verified bool   `json:"verified"`
}

// OrderResultResponse is the read-only customer-facing lookup. Unresolved
// orders report a neutral message, never an error.
type OrderResultResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	TradeRef string `json:"trade_ref,omitempty"`
	Status   string `json:"status,omitempty"`
}
