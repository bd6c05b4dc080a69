package app

import (
	"github.com/vocaquiz/vocaquiz-backend/internal/middleware"
	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, s.Auth),
	}
}
