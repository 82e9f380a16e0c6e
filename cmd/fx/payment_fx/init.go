package payment_fx

import (
	"os"
	"strconv"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ytsub/internal/api/controllers"
	"ytsub/internal/repositories"
	"ytsub/internal/services"
)

var Module = fx.Provide(
	providePaymentStore, provideAlertNotifier, providePaymentService, controllers.NewPaymentController,
)

func providePaymentStore(db *gorm.DB) repositories.PaymentStore {
	return repositories.NewPaymentStore(db)
}

// Alerts fall back to log-only when SMTP is not configured.
func provideAlertNotifier() services.AlertNotifier {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return services.NewNoopAlertNotifier()
	}
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return services.NewSMTPAlertNotifier(services.SMTPConfig{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
		To:       os.Getenv("ALERT_MAIL_TO"),
		AppName:  getenvDefault("APP_NAME", "ytsub"),
	})
}

func providePaymentService(store repositories.PaymentStore, alerts services.AlertNotifier, logger *zap.Logger) services.PaymentService {
	cfg := services.ECPayConfig{
		MerchantID:     os.Getenv("ECPAY_MERCHANT_ID"),
		HashKey:        os.Getenv("ECPAY_HASH_KEY"),
		HashIV:         os.Getenv("ECPAY_HASH_IV"),
		GatewayURL:     getenvDefault("ECPAY_SERVICE_URL", "https://payment.ecpay.com.tw/Cashier/AioCheckOut/V5"),
		ReturnURL:      os.Getenv("ECPAY_RETURN_URL"),
		OrderResultURL: os.Getenv("ECPAY_ORDER_RESULT_URL"),
		TradePrefix:    getenvDefault("ECPAY_TRADE_PREFIX", "YTT"),
	}
	return services.NewPaymentService(store, alerts, cfg, logger)
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
