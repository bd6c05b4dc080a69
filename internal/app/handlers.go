package app

import (
	"github.com/vocaquiz/vocaquiz-backend/internal/handlers"
	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
)

type Handlers struct {
	Quiz        *handlers.QuizHandler
	Progression *handlers.ProgressionHandler
	Reward      *handlers.RewardHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Quiz:        handlers.NewQuizHandler(log, s.Attempt),
		Progression: handlers.NewProgressionHandler(log, s.Progression),
		Reward:      handlers.NewRewardHandler(log, s.Reward),
	}
}
