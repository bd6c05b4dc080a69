package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type StreakRepo interface {
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.StreakMilestone, error)
	GetByDayNumber(ctx context.Context, tx *gorm.DB, dayNumber int) (*types.StreakMilestone, error)
	ListRewardsByStreakIDs(ctx context.Context, tx *gorm.DB, streakIDs []uuid.UUID) ([]*types.StreakReward, error)
}

type streakRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStreakRepo(db *gorm.DB, baseLog *logger.Logger) StreakRepo {
	return &streakRepo{db: db, log: baseLog.With("repo", "StreakRepo")}
}

func (r *streakRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.StreakMilestone, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.StreakMilestone
	if err := transaction.WithContext(ctx).
		Order("day_number ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *streakRepo) GetByDayNumber(ctx context.Context, tx *gorm.DB, dayNumber int) (*types.StreakMilestone, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var streak types.StreakMilestone
	err := transaction.WithContext(ctx).
		Where("day_number = ?", dayNumber).
		First(&streak).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *streakRepo) ListRewardsByStreakIDs(ctx context.Context, tx *gorm.DB, streakIDs []uuid.UUID) ([]*types.StreakReward, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.StreakReward
	if len(streakIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Preload("Item").
		Where("streak_id IN ?", streakIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
