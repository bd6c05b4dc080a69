package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type ActivityRepo interface {
	// CreateIgnoreDuplicate stamps a study day; re-stamping the same day
	// is a no-op thanks to the (user, activity_date) unique index.
	CreateIgnoreDuplicate(ctx context.Context, tx *gorm.DB, activity *types.UserActivity) error
	CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (r *activityRepo) CreateIgnoreDuplicate(ctx context.Context, tx *gorm.DB, activity *types.UserActivity) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(activity).Error
}

func (r *activityRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.UserActivity{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
