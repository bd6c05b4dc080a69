package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type WordProgressRepo interface {
	// EnsureExists lazily creates the zero-state row for (user, word);
	// losing the insert race to a concurrent finish is fine.
	EnsureExists(ctx context.Context, tx *gorm.DB, userID, wordID uuid.UUID) error
	GetByUserWord(ctx context.Context, tx *gorm.DB, userID, wordID uuid.UUID) (*types.UserWordProgress, error)
	UpdateSchedule(ctx context.Context, tx *gorm.DB, progress *types.UserWordProgress) error
	CountStudiedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type wordProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWordProgressRepo(db *gorm.DB, baseLog *logger.Logger) WordProgressRepo {
	return &wordProgressRepo{db: db, log: baseLog.With("repo", "WordProgressRepo")}
}

func (r *wordProgressRepo) EnsureExists(ctx context.Context, tx *gorm.DB, userID, wordID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row := types.UserWordProgress{
		ID:         uuid.New(),
		UserID:     userID,
		WordID:     wordID,
		StudyLevel: 0,
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (r *wordProgressRepo) GetByUserWord(ctx context.Context, tx *gorm.DB, userID, wordID uuid.UUID) (*types.UserWordProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var progress types.UserWordProgress
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND word_id = ?", userID, wordID).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *wordProgressRepo) UpdateSchedule(ctx context.Context, tx *gorm.DB, progress *types.UserWordProgress) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.UserWordProgress{}).
		Where("id = ?", progress.ID).
		Updates(map[string]interface{}{
			"study_level":      progress.StudyLevel,
			"last_review_date": progress.LastReviewDate,
			"next_review_date": progress.NextReviewDate,
		}).Error
}

func (r *wordProgressRepo) CountStudiedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.UserWordProgress{}).
		Where("user_id = ? AND study_level > 0", userID).
		Count(&count).Error
	return count, err
}
