package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type AnswerOptionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, options []*types.AnswerOption) ([]*types.AnswerOption, error)
	ListActiveByQuestionID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) ([]*types.AnswerOption, error)
	ListActiveByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.AnswerOption, error)
}

type answerOptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnswerOptionRepo(db *gorm.DB, baseLog *logger.Logger) AnswerOptionRepo {
	return &answerOptionRepo{db: db, log: baseLog.With("repo", "AnswerOptionRepo")}
}

func (r *answerOptionRepo) Create(ctx context.Context, tx *gorm.DB, options []*types.AnswerOption) ([]*types.AnswerOption, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(options) == 0 {
		return []*types.AnswerOption{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&options).Error; err != nil {
		return nil, err
	}
	return options, nil
}

func (r *answerOptionRepo) ListActiveByQuestionID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) ([]*types.AnswerOption, error) {
	return r.ListActiveByQuestionIDs(ctx, tx, []uuid.UUID{questionID})
}

func (r *answerOptionRepo) ListActiveByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.AnswerOption, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AnswerOption
	if len(questionIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("question_id IN ? AND is_active = ?", questionIDs, true).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
