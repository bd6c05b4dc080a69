package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type AttemptAnswerRepo interface {
	// CreateIgnoreDuplicates pre-creates answer slots; rows colliding on
	// (attempt, question) or (attempt, position) are silently skipped, which
	// is what makes slot creation safe to replay.
	CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, answers []*types.AttemptAnswer) error
	ListByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) ([]*types.AttemptAnswer, error)
	GetByAttemptPosition(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID, position int) (*types.AttemptAnswer, error)
	UpdateResult(ctx context.Context, tx *gorm.DB, answer *types.AttemptAnswer) error
	CountByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) (int64, error)
}

type attemptAnswerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AttemptAnswerRepo {
	return &attemptAnswerRepo{db: db, log: baseLog.With("repo", "AttemptAnswerRepo")}
}

func (r *attemptAnswerRepo) CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, answers []*types.AttemptAnswer) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(answers) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&answers).Error
}

func (r *attemptAnswerRepo) ListByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) ([]*types.AttemptAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AttemptAnswer
	if err := transaction.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *attemptAnswerRepo) GetByAttemptPosition(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID, position int) (*types.AttemptAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var answer types.AttemptAnswer
	if err := transaction.WithContext(ctx).
		Where("attempt_id = ? AND position = ?", attemptID, position).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *attemptAnswerRepo) UpdateResult(ctx context.Context, tx *gorm.DB, answer *types.AttemptAnswer) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.AttemptAnswer{}).
		Where("id = ?", answer.ID).
		Updates(map[string]interface{}{
			"selected_option_id": answer.SelectedOptionID,
			"answer_text":        answer.AnswerText,
			"is_correct":         answer.IsCorrect,
			"answered_at":        answer.AnsweredAt,
		}).Error
}

func (r *attemptAnswerRepo) CountByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.AttemptAnswer{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	return count, err
}
