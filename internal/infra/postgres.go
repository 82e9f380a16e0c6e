package infra

import (
	"errors"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ytsub/internal/models/db_models"
)

func InitPostgresql() *gorm.DB {
	dsn := os.Getenv("POSTGRES_URL")

	// TranslateError turns driver unique-violation errors into
	// gorm.ErrDuplicatedKey, which the trade-ref retry relies on.
	connectionPool, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Printf("Error connecting to database: %v", err)
		log.Fatal("Error connecting to database")
	}

	return connectionPool
}

func ClosePostgresql(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting database instance: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}
}

// Migrate creates the schema and seeds the two subscription plans when they
// are missing. Amounts are whole TWD per the public pricing page.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&db_models.Account{},
		&db_models.Plan{},
		&db_models.Payment{},
		&db_models.NotificationLog{},
	); err != nil {
		return err
	}

	seed := []db_models.Plan{
		{Code: db_models.PlanMonthly, Name: "Monthly subscription", ItemName: "Transcript+AI monthly (1 month)", Months: 1, Amount: 129, IsActive: true},
		{Code: db_models.PlanYearly, Name: "Yearly subscription", ItemName: "Transcript+AI yearly (12 months)", Months: 12, Amount: 1188, IsActive: true},
	}
	for _, plan := range seed {
		var existing db_models.Plan
		err := db.Where("code = ?", plan.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&plan).Error; err != nil {
			return err
		}
	}
	return nil
}
