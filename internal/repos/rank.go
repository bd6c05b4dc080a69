package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type RankRepo interface {
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Rank, error)
	GetByID(ctx context.Context, tx *gorm.DB, rankID uuid.UUID) (*types.Rank, error)
	GetByLevel(ctx context.Context, tx *gorm.DB, level int) (*types.Rank, error)
	ListRewardsByRankIDs(ctx context.Context, tx *gorm.DB, rankIDs []uuid.UUID) ([]*types.RankReward, error)
}

type rankRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRankRepo(db *gorm.DB, baseLog *logger.Logger) RankRepo {
	return &rankRepo{db: db, log: baseLog.With("repo", "RankRepo")}
}

func (r *rankRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Rank, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Rank
	if err := transaction.WithContext(ctx).
		Order("rank_level ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *rankRepo) GetByID(ctx context.Context, tx *gorm.DB, rankID uuid.UUID) (*types.Rank, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rank types.Rank
	if err := transaction.WithContext(ctx).
		Where("id = ?", rankID).
		First(&rank).Error; err != nil {
		return nil, err
	}
	return &rank, nil
}

func (r *rankRepo) GetByLevel(ctx context.Context, tx *gorm.DB, level int) (*types.Rank, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rank types.Rank
	err := transaction.WithContext(ctx).
		Where("rank_level = ?", level).
		First(&rank).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rank, nil
}

func (r *rankRepo) ListRewardsByRankIDs(ctx context.Context, tx *gorm.DB, rankIDs []uuid.UUID) ([]*types.RankReward, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.RankReward
	if len(rankIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Preload("Item").
		Where("rank_id IN ?", rankIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
