package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ytsub/cmd/fx/account_fx"
	"ytsub/cmd/fx/db_fx"
	"ytsub/cmd/fx/logger_fx"
	"ytsub/cmd/fx/payment_fx"
	"ytsub/internal/api/controllers"
	"ytsub/internal/infra"
	"ytsub/pkg/logger"
	"ytsub/pkg/middleware"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	app := fx.New(
		logger_fx.Module,
		db_fx.Module,
		account_fx.Module,
		payment_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(RunMigrations),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func RunMigrations(db *gorm.DB, log *zap.Logger) {
	if err := infra.Migrate(db); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, db *gorm.DB, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := os.Getenv("PORT")
				if port == "" {
					port = "8080"
				}
				log.Info("starting HTTP server", zap.String("port", port))
				if err := engine.Run(":" + port); err != nil {
					log.Fatal("failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			infra.ClosePostgresql(db)
			return nil
		},
	})
}

func ProvideRouter(
	accountController *controllers.AccountController,
	paymentController *controllers.PaymentController,
	log *zap.Logger) *gin.Engine {

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(logger.RequestLogger(log))

	RegisterRoutes(r, accountController, paymentController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	accountController *controllers.AccountController,
	paymentController *controllers.PaymentController) {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	authGroup.POST("/signup", accountController.SignUp)
	authGroup.POST("/login", accountController.Login)

	payGroup := r.Group("/ecpay")
	payGroup.POST("/create", middleware.JWTAuthMiddleware(), paymentController.CreateCheckout)
	payGroup.POST("/return", paymentController.HandleNotification)
	payGroup.POST("/reconcile/:tradeRef", paymentController.Reconcile)
	payGroup.GET("/order_result", paymentController.OrderResult)
	payGroup.POST("/order_result", paymentController.OrderResult)
}
