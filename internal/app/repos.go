package app

import (
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/repos"
)

type Repos struct {
	User         repos.UserRepo
	Topic        repos.TopicRepo
	Word         repos.WordRepo
	Question     repos.QuestionRepo
	AnswerOption repos.AnswerOptionRepo
	QuizAttempt  repos.QuizAttemptRepo
	AttemptAnswer repos.AttemptAnswerRepo
	WordProgress repos.WordProgressRepo
	Rank         repos.RankRepo
	Streak       repos.StreakRepo
	RewardInbox  repos.RewardInboxRepo
	RankHistory  repos.RankHistoryRepo
	Activity     repos.ActivityRepo
	Effect       repos.EffectRepo
	Inventory    repos.InventoryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		Topic:         repos.NewTopicRepo(db, log),
		Word:          repos.NewWordRepo(db, log),
		Question:      repos.NewQuestionRepo(db, log),
		AnswerOption:  repos.NewAnswerOptionRepo(db, log),
		QuizAttempt:   repos.NewQuizAttemptRepo(db, log),
		AttemptAnswer: repos.NewAttemptAnswerRepo(db, log),
		WordProgress:  repos.NewWordProgressRepo(db, log),
		Rank:          repos.NewRankRepo(db, log),
		Streak:        repos.NewStreakRepo(db, log),
		RewardInbox:   repos.NewRewardInboxRepo(db, log),
		RankHistory:   repos.NewRankHistoryRepo(db, log),
		Activity:      repos.NewActivityRepo(db, log),
		Effect:        repos.NewEffectRepo(db, log),
		Inventory:     repos.NewInventoryRepo(db, log),
	}
}
