package db_models

import "time"

type Account struct {
	BaseModel
	Name         string
	Email        string `gorm:"uniqueIndex"`
	PasswordHash string

	// End of the paid entitlement window (unix seconds). Nil means the
	// account has never held a subscription.
	SubscriptionExpiresAt *int64

	Payments []Payment
}

// IsSubscribedAt reports whether the entitlement window covers t.
func (a *Account) IsSubscribedAt(t time.Time) bool {
	return a.SubscriptionExpiresAt != nil && *a.SubscriptionExpiresAt > t.Unix()
}
