package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type WordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, words []*types.Word) ([]*types.Word, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, wordIDs []uuid.UUID) ([]*types.Word, error)
	// ListIDsByTopicLevel returns active word IDs in stable id order; this
	// is the guest selection path, which carries no scheduler state.
	ListIDsByTopicLevel(ctx context.Context, tx *gorm.DB, topicID uuid.UUID, level, limit int) ([]uuid.UUID, error)
	// ListDueIDs orders a learner's words by review urgency: words without
	// progress first, then earliest next_review_date, lowest study_level,
	// id as the final tiebreak.
	ListDueIDs(ctx context.Context, tx *gorm.DB, userID, topicID uuid.UUID, level, limit int) ([]uuid.UUID, error)
}

type wordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWordRepo(db *gorm.DB, baseLog *logger.Logger) WordRepo {
	return &wordRepo{db: db, log: baseLog.With("repo", "WordRepo")}
}

func (r *wordRepo) Create(ctx context.Context, tx *gorm.DB, words []*types.Word) ([]*types.Word, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(words) == 0 {
		return []*types.Word{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&words).Error; err != nil {
		return nil, err
	}
	return words, nil
}

func (r *wordRepo) GetByIDs(ctx context.Context, tx *gorm.DB, wordIDs []uuid.UUID) ([]*types.Word, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Word
	if len(wordIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", wordIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *wordRepo) ListIDsByTopicLevel(ctx context.Context, tx *gorm.DB, topicID uuid.UUID, level, limit int) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Word{}).
		Where("topic_id = ? AND level = ? AND is_active = ?", topicID, level, true).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *wordRepo) ListDueIDs(ctx context.Context, tx *gorm.DB, userID, topicID uuid.UUID, level, limit int) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	err := transaction.WithContext(ctx).
		Table("word").
		Select("word.id").
		Joins("LEFT JOIN user_word_progress p ON p.word_id = word.id AND p.user_id = ?", userID).
		Where("word.topic_id = ? AND word.level = ? AND word.is_active = ? AND word.deleted_at IS NULL", topicID, level, true).
		Order("p.next_review_date ASC NULLS FIRST").
		Order("p.study_level ASC NULLS FIRST").
		Order("word.id ASC").
		Limit(limit).
		Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
