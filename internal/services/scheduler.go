package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/repos"
	"github.com/vocaquiz/vocaquiz-backend/internal/requestdata"
)

// reviewIntervalDays maps a study level to the days until the next
// review. Levels past the end stay at the longest interval.
var reviewIntervalDays = []int{0, 1, 2, 3, 5, 10, 30, 60}

// SchedulerService owns the per-word spaced repetition state: which words
// a quiz should pull next and how a graded result moves the review
// schedule.
type SchedulerService interface {
	// SelectDueWords returns up to limit word IDs for one topic level,
	// most urgent first. Guests get a stable slice of the word list since
	// they carry no review state.
	SelectDueWords(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, topicID uuid.UUID, level, limit int) ([]uuid.UUID, error)
	// ApplyResult folds one graded word into the schedule. Overdue words
	// first lose one level per fully elapsed overdue day (never below
	// zero), then a wrong answer resets the level and a right answer
	// raises it by one.
	ApplyResult(ctx context.Context, tx *gorm.DB, userID, wordID uuid.UUID, wasWrong bool, now time.Time) error
}

type schedulerService struct {
	db               *gorm.DB
	log              *logger.Logger
	wordRepo         repos.WordRepo
	wordProgressRepo repos.WordProgressRepo
}

func NewSchedulerService(
	db *gorm.DB,
	log *logger.Logger,
	wordRepo repos.WordRepo,
	wordProgressRepo repos.WordProgressRepo,
) SchedulerService {
	return &schedulerService{
		db:               db,
		log:              log.With("service", "SchedulerService"),
		wordRepo:         wordRepo,
		wordProgressRepo: wordProgressRepo,
	}
}

func (ss *schedulerService) SelectDueWords(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, topicID uuid.UUID, level, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		return nil, nil
	}
	if rd.IsRegistered() {
		return ss.wordRepo.ListDueIDs(ctx, tx, rd.UserID, topicID, level, limit)
	}
	return ss.wordRepo.ListIDsByTopicLevel(ctx, tx, topicID, level, limit)
}

func (ss *schedulerService) ApplyResult(ctx context.Context, tx *gorm.DB, userID, wordID uuid.UUID, wasWrong bool, now time.Time) error {
	if err := ss.wordProgressRepo.EnsureExists(ctx, tx, userID, wordID); err != nil {
		return fmt.Errorf("ensure word progress: %w", err)
	}
	progress, err := ss.wordProgressRepo.GetByUserWord(ctx, tx, userID, wordID)
	if err != nil {
		return fmt.Errorf("load word progress: %w", err)
	}

	level := progress.StudyLevel
	if progress.NextReviewDate != nil && now.After(*progress.NextReviewDate) {
		overdueDays := int(now.Sub(*progress.NextReviewDate).Hours() / 24)
		if overdueDays > 0 {
			penalty := overdueDays
			if penalty > level {
				penalty = level
			}
			level -= penalty
		}
	}

	if wasWrong {
		level = 0
	} else {
		level++
	}

	next := now.AddDate(0, 0, intervalDaysFor(level))
	progress.StudyLevel = level
	progress.LastReviewDate = &now
	progress.NextReviewDate = &next
	if err := ss.wordProgressRepo.UpdateSchedule(ctx, tx, progress); err != nil {
		return fmt.Errorf("update word progress: %w", err)
	}
	return nil
}

func intervalDaysFor(level int) int {
	if level < 0 {
		level = 0
	}
	if level >= len(reviewIntervalDays) {
		return reviewIntervalDays[len(reviewIntervalDays)-1]
	}
	return reviewIntervalDays[level]
}
