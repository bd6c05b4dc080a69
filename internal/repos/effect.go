package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type EffectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, effects []*types.UserEffect) ([]*types.UserEffect, error)
	// ListActiveByUser returns effects of one type that are switched on
	// and not yet expired at the given instant.
	ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, effectType string, at time.Time) ([]*types.UserEffect, error)
}

type effectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEffectRepo(db *gorm.DB, baseLog *logger.Logger) EffectRepo {
	return &effectRepo{db: db, log: baseLog.With("repo", "EffectRepo")}
}

func (r *effectRepo) Create(ctx context.Context, tx *gorm.DB, effects []*types.UserEffect) ([]*types.UserEffect, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(effects) == 0 {
		return []*types.UserEffect{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&effects).Error; err != nil {
		return nil, err
	}
	return effects, nil
}

func (r *effectRepo) ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, effectType string, at time.Time) ([]*types.UserEffect, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.UserEffect
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND effect_type = ? AND is_active = ?", userID, effectType, true).
		Where("end_at IS NULL OR end_at > ?", at).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
