package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type AttemptHistoryFilter struct {
	UserID   uuid.UUID
	Mode     string
	TopicID  *uuid.UUID
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type QuizAttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *types.QuizAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) (*types.QuizAttempt, error)
	GetActiveByOwnerKey(ctx context.Context, tx *gorm.DB, ownerKey string) (*types.QuizAttempt, error)
	Update(ctx context.Context, tx *gorm.DB, attempt *types.QuizAttempt) error
	ListHistory(ctx context.Context, tx *gorm.DB, filter AttemptHistoryFilter) ([]*types.QuizAttempt, int64, error)
	CountFinishedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	// SumAnswersByUser totals questions and correct answers across the
	// learner's finished attempts for the accuracy stat.
	SumAnswersByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (total int64, correct int64, err error)
}

type quizAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
	return &quizAttemptRepo{db: db, log: baseLog.With("repo", "QuizAttemptRepo")}
}

func (r *quizAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *types.QuizAttempt) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(attempt).Error
}

func (r *quizAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) (*types.QuizAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var attempt types.QuizAttempt
	if err := transaction.WithContext(ctx).
		Where("id = ?", attemptID).
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *quizAttemptRepo) GetActiveByOwnerKey(ctx context.Context, tx *gorm.DB, ownerKey string) (*types.QuizAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if ownerKey == "" {
		return nil, nil
	}
	var attempt types.QuizAttempt
	err := transaction.WithContext(ctx).
		Where("active_owner_key = ?", ownerKey).
		First(&attempt).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *quizAttemptRepo) Update(ctx context.Context, tx *gorm.DB, attempt *types.QuizAttempt) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	// Save with Select so the NULLable owner key is written even when nil.
	return transaction.WithContext(ctx).
		Model(&types.QuizAttempt{}).
		Where("id = ?", attempt.ID).
		Select("total_questions", "correct_answers", "earned_xp", "status", "active_owner_key", "finished_at").
		Updates(attempt).Error
}

func (r *quizAttemptRepo) ListHistory(ctx context.Context, tx *gorm.DB, filter AttemptHistoryFilter) ([]*types.QuizAttempt, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Model(&types.QuizAttempt{}).
		Where("user_id = ?", filter.UserID)
	if filter.Mode != "" {
		query = query.Where("mode = ?", filter.Mode)
	}
	if filter.TopicID != nil {
		query = query.Where("topic_id = ?", *filter.TopicID)
	}
	if filter.From != nil {
		query = query.Where("started_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("started_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.QuizAttempt
	offset := (filter.Page - 1) * filter.PageSize
	if err := query.
		Order("started_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *quizAttemptRepo) CountFinishedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.QuizAttempt{}).
		Where("user_id = ? AND status = ?", userID, types.AttemptStatusFinished).
		Count(&count).Error
	return count, err
}

func (r *quizAttemptRepo) SumAnswersByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sums struct {
		Total   int64
		Correct int64
	}
	err := transaction.WithContext(ctx).
		Model(&types.QuizAttempt{}).
		Select("COALESCE(SUM(total_questions), 0) AS total, COALESCE(SUM(correct_answers), 0) AS correct").
		Where("user_id = ? AND status = ?", userID, types.AttemptStatusFinished).
		Scan(&sums).Error
	if err != nil {
		return 0, 0, err
	}
	return sums.Total, sums.Correct, nil
}
