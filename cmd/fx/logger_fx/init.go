package logger_fx

import (
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"ytsub/pkg/logger"
)

var Module = fx.Provide(provideLogger)

func provideLogger() (*zap.Logger, error) {
	return logger.New(os.Getenv("APP_ENV"))
}
