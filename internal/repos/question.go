package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type QuestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error)
	GetByID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (*types.Question, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Question, error)
	// ListActiveByWordIDs returns every active question attached to the
	// given words; the caller picks one per word.
	ListActiveByWordIDs(ctx context.Context, tx *gorm.DB, wordIDs []uuid.UUID) ([]*types.Question, error)
	// RandomActive samples the whole active pool, topic-agnostic
	// questions included, outside the exclusion set.
	RandomActive(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID, limit int) ([]*types.Question, error)
	// RandomActiveWithWord samples active word-bearing questions outside
	// the exclusion set.
	RandomActiveWithWord(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID, limit int) ([]*types.Question, error)
	// UnseenActive lists active questions outside the exclusion set in id
	// order; this feeds endless-mode batch extension deterministically.
	UnseenActive(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID, limit int) ([]*types.Question, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) Create(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(questions) == 0 {
		return []*types.Question{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) GetByID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var question types.Question
	if err := transaction.WithContext(ctx).
		Where("id = ?", questionID).
		First(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Question
	if len(questionIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", questionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) ListActiveByWordIDs(ctx context.Context, tx *gorm.DB, wordIDs []uuid.UUID) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Question
	if len(wordIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("word_id IN ? AND is_active = ?", wordIDs, true).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) RandomActive(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID, limit int) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Question
	if limit <= 0 {
		return results, nil
	}
	query := transaction.WithContext(ctx).
		Where("is_active = ?", true)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	if err := query.Order("RANDOM()").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) RandomActiveWithWord(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID, limit int) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Question
	if limit <= 0 {
		return results, nil
	}
	query := transaction.WithContext(ctx).
		Where("word_id IS NOT NULL AND is_active = ?", true)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	// RANDOM() exists on both Postgres and sqlite.
	if err := query.Order("RANDOM()").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) UnseenActive(ctx context.Context, tx *gorm.DB, excludeIDs []uuid.UUID, limit int) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Question
	if limit <= 0 {
		return results, nil
	}
	query := transaction.WithContext(ctx).
		Where("is_active = ?", true)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	if err := query.Order("id ASC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
