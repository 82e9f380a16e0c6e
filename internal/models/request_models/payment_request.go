package request_models

import (
	"net/url"
	"strconv"
)

type CreateCheckoutRequest struct {
	PlanCode string `json:"plan_code" binding:"required"`
}

// GatewayNotification is the typed form of the gateway's server-to-server
// POST. Fields keeps every posted key/value pair verbatim for signature
// verification and the append-only log.
type GatewayNotification struct {
	MerchantTradeNo string
	RtnCode         int
	RtnMsg          string
	TradeNo         string
	TradeAmt        int64
	PaymentType     string
	ChargeFee       *int64
	PaymentDate     string
	SimulatePaid    bool
	CheckMacValue   string

	Fields map[string]string
}

// ParseGatewayNotification never fails: unparsable numerics collapse to zero
// values and are recorded as such, the same way a tampered payload would be.
// The one hard precondition, a present MerchantTradeNo, is the caller's
// missing-reference check.
func ParseGatewayNotification(form url.Values) *GatewayNotification {
	fields := make(map[string]string, len(form))
	for k := range form {
		fields[k] = form.Get(k)
	}

	n := &GatewayNotification{
		MerchantTradeNo: fields["MerchantTradeNo"],
		RtnMsg:          fields["RtnMsg"],
		TradeNo:         fields["TradeNo"],
		PaymentType:     fields["PaymentType"],
		PaymentDate:     fields["PaymentDate"],
		CheckMacValue:   fields["CheckMacValue"],
		SimulatePaid:    fields["SimulatePaid"] == "1",
		Fields:          fields,
	}

	if v, err := strconv.Atoi(fields["RtnCode"]); err == nil {
		n.RtnCode = v
	}
	if v, err := strconv.ParseInt(fields["TradeAmt"], 10, 64); err == nil {
		n.TradeAmt = v
	}
	if raw := fields["PaymentTypeChargeFee"]; raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			n.ChargeFee = &v
		}
	}
	return n
}
