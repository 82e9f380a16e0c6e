package db_models

import "github.com/google/uuid"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Payment is one checkout attempt and its resolution. PAID is terminal;
// FAILED may still move to PAID on a later successful delivery.
type Payment struct {
	BaseModel
	TradeRef  string    `gorm:"size:20;uniqueIndex"` // MerchantTradeNo
	AccountID uuid.UUID `gorm:"index"`
	PlanCode  string    `gorm:"index"`
	Amount    int64     // copied from the plan at creation, immutable

	Status PaymentStatus `gorm:"index;default:PENDING"`

	// Audit fields, overwritten with every delivery (last-write-wins; the
	// full history lives in notification_logs).
	GatewayReturnCode int
	GatewayMessage    string
	GatewayTradeNo    string
	PaymentMethod     string
	MethodFee         *int64
	RawPaymentDate    string
	ReceivedSignature string
	Simulated         bool

	// Verified is true only after an authenticated delivery reported a
	// successful result, or the reconciler applied a correction.
	Verified bool

	PaidAt *int64 // unix seconds, set exactly once on PENDING -> PAID

	Account Account `gorm:"foreignKey:AccountID"`
}

// ResultCodeSuccess is the gateway's RtnCode for a completed transaction.
const ResultCodeSuccess = 1

// IsSuccess mirrors the result-lookup semantics: a payment counts as
// successful once terminal PAID, or once a success code was recorded.
func (p *Payment) IsSuccess() bool {
	return p.Status == PaymentStatusPaid || p.GatewayReturnCode == ResultCodeSuccess
}
