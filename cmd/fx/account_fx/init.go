package account_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"ytsub/internal/api/controllers"
	"ytsub/internal/repositories"
	"ytsub/internal/services"
)

var Module = fx.Provide(
	provideAccountRepo, provideAccountService, controllers.NewAccountController,
)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideAccountService(accountRepo repositories.AccountRepository) services.AccountService {
	return services.NewAccountService(accountRepo)
}
