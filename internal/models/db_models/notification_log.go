package db_models

import "gorm.io/datatypes"

// NotificationLog is the append-only record of every gateway delivery,
// including duplicates and deliveries that failed verification. The mutable
// summary on Payment is derived from the latest entry.
type NotificationLog struct {
	BaseModel
	TradeRef string `gorm:"size:20;index"`
	Verdict  string // signature verification outcome at receive time
	Payload  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}
