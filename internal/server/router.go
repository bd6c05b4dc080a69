package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vocaquiz/vocaquiz-backend/internal/handlers"
	"github.com/vocaquiz/vocaquiz-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware     *middleware.AuthMiddleware
	QuizHandler        *handlers.QuizHandler
	ProgressionHandler *handlers.ProgressionHandler
	RewardHandler      *handlers.RewardHandler
	AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Guest-Key"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	// Quiz-taking routes accept either a signed-in learner or a guest key;
	// the services enforce the per-mode guest rules.
	public := router.Group("/api")
	public.Use(cfg.AuthMiddleware.OptionalAuth())
	{
		public.POST("/quiz/attempts", cfg.QuizHandler.StartAttempt)
		public.GET("/quiz/attempts/:id/questions/:cursor", cfg.QuizHandler.GetQuestion)
		public.POST("/quiz/attempts/:id/questions/:cursor/submit", cfg.QuizHandler.SubmitAnswer)
		public.POST("/quiz/attempts/:id/finish", cfg.QuizHandler.FinishAttempt)
		public.POST("/quiz/attempts/:id/abandon", cfg.QuizHandler.AbandonAttempt)
		public.GET("/quiz/attempts/:id/review", cfg.QuizHandler.ReviewAttempt)
		public.GET("/rewards/roadmap", cfg.RewardHandler.Roadmap)
	}

	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.GET("/quiz/attempts", cfg.QuizHandler.AttemptHistory)
		protected.POST("/quiz/attempts/:id/next-batch", cfg.QuizHandler.NextBatch)
		protected.GET("/progression", cfg.ProgressionHandler.GetProgression)
		protected.POST("/rewards/inbox/:inboxId/claim", cfg.RewardHandler.Claim)
	}

	return router
}
