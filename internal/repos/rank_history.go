package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type RankHistoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.UserRankHistory) error
	GetCurrentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserRankHistory, error)
	// Close clears the open marker; the (user, current) unique index then
	// admits the successor entry.
	Close(ctx context.Context, tx *gorm.DB, entryID uuid.UUID, endedAt time.Time) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserRankHistory, error)
}

type rankHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRankHistoryRepo(db *gorm.DB, baseLog *logger.Logger) RankHistoryRepo {
	return &rankHistoryRepo{db: db, log: baseLog.With("repo", "RankHistoryRepo")}
}

func (r *rankHistoryRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.UserRankHistory) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(entry).Error
}

func (r *rankHistoryRepo) GetCurrentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserRankHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var entry types.UserRankHistory
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND current = ?", userID, true).
		First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *rankHistoryRepo) Close(ctx context.Context, tx *gorm.DB, entryID uuid.UUID, endedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.UserRankHistory{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"current":  nil,
			"ended_at": endedAt,
		}).Error
}

func (r *rankHistoryRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserRankHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.UserRankHistory
	if err := transaction.WithContext(ctx).
		Preload("Rank").
		Where("user_id = ?", userID).
		Order("achieved_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
