package router

import (
	userapp "usermanagement/internal/application"
	"usermanagement/internal/container"
	pginfra "usermanagement/internal/infrastructure/postgres"
	handlers "usermanagement/internal/interface/http"
	"usermanagement/internal/router/modules"
)

func buildService() *userapp.Service {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	svc := userapp.NewService(repo, container.GetTokens(), container.GetLogger())
	svc.Redis = container.GetRedis()
	svc.ES = container.GetES()
	svc.ESUsersIndex = cfg.ESUsersIndex
	svc.GCS = container.GetGCS()
	svc.GCSBucket = cfg.GCSBucket
	svc.Pub = container.GetRabbitPub()
	svc.MailEnabled = cfg.MailSendEnabled
	return svc
}

// InitModules builds the service and registers all feature modules.
// Called once during startup.
func InitModules(r *Registry) {
	svc := buildService()
	logger := container.GetLogger()
	tokens := container.GetTokens()

	r.Add(modules.NewUserModule(handlers.NewUserHandler(svc, logger), tokens))
	r.Add(modules.NewAdminModule(handlers.NewAdminHandler(svc, logger), tokens))
}
