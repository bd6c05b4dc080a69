package app

import (
	"github.com/gin-gonic/gin"

	"github.com/vocaquiz/vocaquiz-backend/internal/server"
)

func wireRouter(cfg Config, h Handlers, m Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:     m.Auth,
		QuizHandler:        h.Quiz,
		ProgressionHandler: h.Progression,
		RewardHandler:      h.Reward,
		AllowOrigins:       cfg.AllowOrigins,
	})
}
