package app

import (
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/cache"
	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Scheduler   services.SchedulerService
	Progression services.ProgressionService
	Attempt     services.AttemptService
	Reward      services.RewardService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, catalogCache *cache.CatalogCache) Services {
	log.Info("Wiring services...")

	auth := services.NewAuthService(log, cfg.JWTSecretKey)
	scheduler := services.NewSchedulerService(db, log, r.Word, r.WordProgress)
	progression := services.NewProgressionService(
		db, log,
		r.User, r.Effect, r.Activity, r.Streak, r.Rank,
		r.RankHistory, r.RewardInbox, r.QuizAttempt, r.WordProgress,
		catalogCache,
	)
	attempt := services.NewAttemptService(
		db, log,
		r.Topic, r.Word, r.Question, r.AnswerOption,
		r.QuizAttempt, r.AttemptAnswer,
		scheduler, progression,
	)
	reward := services.NewRewardService(
		db, log,
		r.Rank, r.Streak, r.RewardInbox, r.Inventory,
		catalogCache,
	)

	return Services{
		Auth:        auth,
		Scheduler:   scheduler,
		Progression: progression,
		Attempt:     attempt,
		Reward:      reward,
	}
}
