package db_models

const (
	PlanMonthly = "MONTHLY"
	PlanYearly  = "YEARLY"
)

type Plan struct {
	BaseModel
	Code     string `gorm:"uniqueIndex"` // "MONTHLY" | "YEARLY"
	Name     string
	ItemName string // shown on the gateway checkout page
	Months   int    // entitlement length granted per successful payment
	Amount   int64  // whole TWD, copied onto the payment at creation
	IsActive bool   `gorm:"default:true"`
}
