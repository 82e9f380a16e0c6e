package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"ytsub/internal/models/db_models"
	"ytsub/internal/models/request_models"
	"ytsub/internal/models/response_models"
	"ytsub/internal/repositories"
	"ytsub/pkg/ecpay"
	"ytsub/pkg/utils"
)

// ECPayConfig carries the gateway credentials and endpoints. The secrets are
// opaque inputs supplied by the environment.
type ECPayConfig struct {
	MerchantID     string
	HashKey        string
	HashIV         string
	GatewayURL     string // AIO checkout endpoint
	ReturnURL      string // server-to-server notification endpoint
	OrderResultURL string // customer-facing result redirect
	TradePrefix    string // e.g. "YTT"
}

// NotificationOutcome is the machine-parsable token sent back to the
// gateway. Every path except the first two acknowledges the delivery so the
// gateway stops retrying, even when local processing ultimately failed.
type NotificationOutcome int

const (
	OutcomeAcknowledged NotificationOutcome = iota
	OutcomeMissingReference
	OutcomeUnknownReference
)

// Wire renders the plain-text response body the gateway expects.
func (o NotificationOutcome) Wire() string {
	switch o {
	case OutcomeMissingReference:
		return "0|Missing MerchantTradeNo"
	case OutcomeUnknownReference:
		return "0|Unknown MerchantTradeNo"
	default:
		return "1|OK"
	}
}

const pendingResultMessage = "Payment status not yet confirmed. The gateway callback may still be on its way."

type PaymentService interface {
	CreateCheckoutForPlan(ctx context.Context, accountID uuid.UUID, planCode string) (*response_models.CheckoutResponse, error)
	HandleNotification(ctx context.Context, n *request_models.GatewayNotification) NotificationOutcome
	Reconcile(ctx context.Context, tradeRef string) (*response_models.ReconcileResponse, error)
	OrderResult(ctx context.Context, tradeRef string) (*response_models.OrderResultResponse, error)
}

type paymentService struct {
	store  repositories.PaymentStore
	alerts AlertNotifier
	cfg    ECPayConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewPaymentService(store repositories.PaymentStore, alerts AlertNotifier, cfg ECPayConfig, logger *zap.Logger) PaymentService {
	return &paymentService{
		store:  store,
		alerts: alerts,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (p *paymentService) CreateCheckoutForPlan(ctx context.Context, accountID uuid.UUID, planCode string) (*response_models.CheckoutResponse, error) {
	plan, err := p.store.GetPlanByCode(ctx, planCode)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if plan == nil {
		// Rejected before anything is persisted.
		return nil, utils.ErrInvalidPlan
	}

	payment := &db_models.Payment{
		AccountID: accountID,
		PlanCode:  plan.Code,
		Amount:    plan.Amount,
		Status:    db_models.PaymentStatusPending,
	}

	// The unique index on trade_ref is the real uniqueness guarantee;
	// regenerate on the rare collision.
	for attempt := 0; ; attempt++ {
		payment.TradeRef = ecpay.NewTradeRef(p.cfg.TradePrefix)
		err = p.store.CreatePayment(ctx, payment)
		if err == nil {
			break
		}
		if repositories.IsDuplicateKey(err) && attempt < 2 {
			continue
		}
		p.logger.Error("failed to create payment", zap.String("plan", plan.Code), zap.Error(err))
		return nil, utils.ErrDatabaseError
	}

	fields := p.checkoutFields(payment, plan)
	fields[ecpay.MacField] = ecpay.Sign(fields, p.cfg.HashKey, p.cfg.HashIV)

	return &response_models.CheckoutResponse{
		TradeRef:   payment.TradeRef,
		GatewayURL: p.cfg.GatewayURL,
		Amount:     plan.Amount,
		Fields:     fields,
	}, nil
}

func (p *paymentService) checkoutFields(payment *db_models.Payment, plan *db_models.Plan) map[string]string {
	return map[string]string{
		"MerchantID":        p.cfg.MerchantID,
		"MerchantTradeNo":   payment.TradeRef,
		"MerchantTradeDate": utils.FormatGatewayTime(p.now()),
		"PaymentType":       "aio",
		"TotalAmount":       strconv.FormatInt(plan.Amount, 10),
		"TradeDesc":         plan.Name,
		"ItemName":          plan.ItemName,
		"ReturnURL":         p.cfg.ReturnURL,
		"OrderResultURL":    p.cfg.OrderResultURL,
		"ChoosePayment":     "ALL",
		"EncryptType":       "1",
	}
}

// HandleNotification is the gateway callback state machine. All payment and
// account writes happen in one transaction with the payment row locked, so
// two concurrent deliveries for the same reference cannot both grant the
// entitlement.
func (p *paymentService) HandleNotification(ctx context.Context, n *request_models.GatewayNotification) NotificationOutcome {
	if n == nil || n.MerchantTradeNo == "" {
		p.logger.Error("notification missing MerchantTradeNo")
		return OutcomeMissingReference
	}

	// Verification never crashes the handler: a broken payload is simply a
	// malformed verdict and is recorded like any other failed delivery.
	verdict := ecpay.Verify(n.Fields, n.CheckMacValue, p.cfg.HashKey, p.cfg.HashIV)

	outcome := OutcomeAcknowledged
	err := p.store.InTransaction(ctx, func(s repositories.PaymentStore) error {
		payment, err := s.GetPaymentByTradeRefLocked(ctx, n.MerchantTradeNo)
		if err != nil {
			return err
		}
		if payment == nil {
			outcome = OutcomeUnknownReference
			return nil
		}

		if err := s.AppendNotificationLog(ctx, notificationLogEntry(n, verdict)); err != nil {
			return err
		}

		// Already terminal: duplicate delivery. Acknowledge without touching
		// the audit state or the entitlement again.
		if payment.Status == db_models.PaymentStatusPaid {
			return nil
		}

		applyAudit(payment, n)

		if verdict != ecpay.SignatureValid || n.RtnCode != db_models.ResultCodeSuccess {
			payment.Status = db_models.PaymentStatusFailed
			payment.Verified = false
			return s.SavePayment(ctx, payment)
		}

		paidAt := utils.ParseGatewayTime(n.PaymentDate)
		if paidAt.IsZero() {
			paidAt = p.now()
		}
		paidAtUnix := paidAt.Unix()
		payment.Status = db_models.PaymentStatusPaid
		payment.PaidAt = &paidAtUnix
		payment.Verified = true
		if err := s.SavePayment(ctx, payment); err != nil {
			return err
		}

		return p.grantEntitlement(ctx, s, payment, paidAt)
	})

	if outcome == OutcomeUnknownReference {
		p.logger.Error("notification for unknown trade ref",
			zap.String("trade_ref", n.MerchantTradeNo))
		return outcome
	}

	if err != nil {
		// Acknowledge anyway: the gateway cannot fix this by retrying, the
		// reconciler can. The rollback left the order at its prior state.
		p.logger.Error("notification processing failed, left for reconciler",
			zap.String("trade_ref", n.MerchantTradeNo),
			zap.String("signature", verdict.String()),
			zap.Int("rtn_code", n.RtnCode),
			zap.Error(err))
		p.alert("payment processing failure",
			fmt.Sprintf("Order %s: processing failed (%v). Run reconcile.", n.MerchantTradeNo, err))
		return OutcomeAcknowledged
	}

	if verdict != ecpay.SignatureValid {
		p.logger.Error("notification failed signature verification",
			zap.String("trade_ref", n.MerchantTradeNo),
			zap.String("signature", verdict.String()))
		p.alert("check-mac mismatch",
			fmt.Sprintf("Order %s: signature verdict %s. Possible tampering, review the notification log.", n.MerchantTradeNo, verdict))
	}

	return OutcomeAcknowledged
}

func (p *paymentService) grantEntitlement(ctx context.Context, s repositories.PaymentStore, payment *db_models.Payment, paidAt time.Time) error {
	account, err := s.GetAccountByID(ctx, payment.AccountID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("account %s not found for paid order %s", payment.AccountID, payment.TradeRef)
	}
	plan, err := s.GetPlanByCode(ctx, payment.PlanCode)
	if err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("plan %s not found for paid order %s", payment.PlanCode, payment.TradeRef)
	}

	newExpiry := ExtendExpiry(account.SubscriptionExpiresAt, plan.Months, paidAt)
	account.SubscriptionExpiresAt = &newExpiry
	return s.SaveAccount(ctx, account)
}

// Reconcile repairs drift between the recorded delivery and the order/
// entitlement state. Safe to call repeatedly and concurrently with the
// callback handler; a PAID order with a covered entitlement is a no-op.
func (p *paymentService) Reconcile(ctx context.Context, tradeRef string) (*response_models.ReconcileResponse, error) {
	var resp *response_models.ReconcileResponse

	err := p.store.InTransaction(ctx, func(s repositories.PaymentStore) error {
		payment, err := s.GetPaymentByTradeRefLocked(ctx, tradeRef)
		if err != nil {
			return err
		}
		if payment == nil {
			return utils.ErrOrderNotFound
		}

		changed := false

		// A success delivery was recorded but the paid transition never
		// landed (crash between audit write and commit).
		if payment.GatewayReturnCode == db_models.ResultCodeSuccess && payment.Status != db_models.PaymentStatusPaid {
			paidAt := utils.ParseGatewayTime(payment.RawPaymentDate)
			if paidAt.IsZero() {
				paidAt = p.now()
			}
			if payment.PaidAt == nil {
				paidAtUnix := paidAt.Unix()
				payment.PaidAt = &paidAtUnix
			}
			payment.Status = db_models.PaymentStatusPaid
			changed = true
		}

		// The entitlement window does not yet cover this payment.
		if payment.GatewayReturnCode == db_models.ResultCodeSuccess {
			account, err := s.GetAccountByID(ctx, payment.AccountID)
			if err != nil {
				return err
			}
			if account != nil {
				paidAt := p.now()
				if payment.PaidAt != nil {
					paidAt = time.Unix(*payment.PaidAt, 0)
				}
				if account.SubscriptionExpiresAt == nil || *account.SubscriptionExpiresAt < paidAt.Unix() {
					plan, err := s.GetPlanByCode(ctx, payment.PlanCode)
					if err != nil {
						return err
					}
					if plan == nil {
						return fmt.Errorf("plan %s not found while reconciling %s", payment.PlanCode, tradeRef)
					}
					newExpiry := ExtendExpiry(account.SubscriptionExpiresAt, plan.Months, paidAt)
					account.SubscriptionExpiresAt = &newExpiry
					if err := s.SaveAccount(ctx, account); err != nil {
						return err
					}
					changed = true
				}
			}
		}

		if changed {
			payment.Verified = true
			if err := s.SavePayment(ctx, payment); err != nil {
				return err
			}
			p.logger.Info("reconciled order",
				zap.String("trade_ref", tradeRef),
				zap.String("status", string(payment.Status)))
		}

		resp = &response_models.ReconcileResponse{
			OK:       true,
			Status:   string(payment.Status),
			Verified: payment.Verified,
		}
		return nil
	})
	if err != nil {
		// Unlike the notification path, reconciliation callers may retry.
		return nil, err
	}
	return resp, nil
}

// OrderResult is the read-only customer lookup; it never mutates state and
// treats unknown or unresolved orders as "not yet confirmed".
func (p *paymentService) OrderResult(ctx context.Context, tradeRef string) (*response_models.OrderResultResponse, error) {
	if tradeRef == "" {
		return &response_models.OrderResultResponse{
			Success: false,
			Message: "Missing order reference (MerchantTradeNo).",
		}, nil
	}

	payment, err := p.store.GetPaymentByTradeRef(ctx, tradeRef)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if payment == nil {
		return &response_models.OrderResultResponse{
			Success:  false,
			Message:  pendingResultMessage,
			TradeRef: tradeRef,
		}, nil
	}

	if payment.IsSuccess() {
		return &response_models.OrderResultResponse{
			Success:  true,
			Message:  "Payment successful, your subscription is active.",
			TradeRef: payment.TradeRef,
			Status:   string(payment.Status),
		}, nil
	}

	message := payment.GatewayMessage
	if message == "" {
		message = pendingResultMessage
	}
	return &response_models.OrderResultResponse{
		Success:  false,
		Message:  message,
		TradeRef: payment.TradeRef,
		Status:   string(payment.Status),
	}, nil
}

func (p *paymentService) alert(subject, body string) {
	if p.alerts == nil {
		return
	}
	if err := p.alerts.PaymentAlert(subject, body); err != nil {
		p.logger.Warn("failed to send payment alert", zap.Error(err))
	}
}

func applyAudit(payment *db_models.Payment, n *request_models.GatewayNotification) {
	payment.GatewayReturnCode = n.RtnCode
	payment.GatewayMessage = n.RtnMsg
	payment.GatewayTradeNo = n.TradeNo
	payment.PaymentMethod = n.PaymentType
	payment.MethodFee = n.ChargeFee
	payment.RawPaymentDate = n.PaymentDate
	payment.ReceivedSignature = n.CheckMacValue
	payment.Simulated = n.SimulatePaid
}

func notificationLogEntry(n *request_models.GatewayNotification, verdict ecpay.Verdict) *db_models.NotificationLog {
	payload, _ := json.Marshal(n.Fields)
	return &db_models.NotificationLog{
		TradeRef: n.MerchantTradeNo,
		Verdict:  verdict.String(),
		Payload:  datatypes.JSON(payload),
	}
}
