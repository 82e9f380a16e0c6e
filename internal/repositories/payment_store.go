package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ytsub/internal/models/db_models"
)

// PaymentStore is the single persistence surface of the payment domain.
// InTransaction yields a store bound to one database transaction so a
// notification's status change and the entitlement grant commit or roll
// back together.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *db_models.Payment) error
	GetPaymentByTradeRef(ctx context.Context, tradeRef string) (*db_models.Payment, error)
	// GetPaymentByTradeRefLocked takes a FOR UPDATE row lock; only
	// meaningful inside InTransaction.
	GetPaymentByTradeRefLocked(ctx context.Context, tradeRef string) (*db_models.Payment, error)
	SavePayment(ctx context.Context, payment *db_models.Payment) error

	GetPlanByCode(ctx context.Context, code string) (*db_models.Plan, error)

	GetAccountByID(ctx context.Context, id uuid.UUID) (*db_models.Account, error)
	SaveAccount(ctx context.Context, account *db_models.Account) error

	AppendNotificationLog(ctx context.Context, entry *db_models.NotificationLog) error

	InTransaction(ctx context.Context, fn func(PaymentStore) error) error
}

type gormPaymentStore struct {
	db *gorm.DB
}

func NewPaymentStore(db *gorm.DB) PaymentStore {
	return &gormPaymentStore{db: db}
}

func (s *gormPaymentStore) CreatePayment(ctx context.Context, payment *db_models.Payment) error {
	return s.db.WithContext(ctx).Create(payment).Error
}

func (s *gormPaymentStore) GetPaymentByTradeRef(ctx context.Context, tradeRef string) (*db_models.Payment, error) {
	var payment db_models.Payment
	err := s.db.WithContext(ctx).First(&payment, "trade_ref = ?", tradeRef).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (s *gormPaymentStore) GetPaymentByTradeRefLocked(ctx context.Context, tradeRef string) (*db_models.Payment, error) {
	var payment db_models.Payment
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, "trade_ref = ?", tradeRef).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (s *gormPaymentStore) SavePayment(ctx context.Context, payment *db_models.Payment) error {
	return s.db.WithContext(ctx).Save(payment).Error
}

func (s *gormPaymentStore) GetPlanByCode(ctx context.Context, code string) (*db_models.Plan, error) {
	var plan db_models.Plan
	err := s.db.WithContext(ctx).
		Where("code = ? AND is_active = TRUE", code).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (s *gormPaymentStore) GetAccountByID(ctx context.Context, id uuid.UUID) (*db_models.Account, error) {
	var account db_models.Account
	err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (s *gormPaymentStore) SaveAccount(ctx context.Context, account *db_models.Account) error {
	return s.db.WithContext(ctx).Save(account).Error
}

func (s *gormPaymentStore) AppendNotificationLog(ctx context.Context, entry *db_models.NotificationLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *gormPaymentStore) InTransaction(ctx context.Context, fn func(PaymentStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormPaymentStore{db: tx})
	})
}

// IsDuplicateKey reports a unique-index violation, used to retry trade-ref
// generation on the (unlikely) collision.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
