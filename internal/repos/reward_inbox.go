package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type RewardInboxRepo interface {
	// CreateIgnoreDuplicate inserts one earned-reward row and reports
	// whether it actually landed. A duplicate on (user, rank) or
	// (user, streak) means the reward was granted before; inserted is
	// false and no error is returned.
	CreateIgnoreDuplicate(ctx context.Context, tx *gorm.DB, inbox *types.RewardInbox) (inserted bool, err error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, inboxID, userID uuid.UUID) (*types.RewardInbox, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sourceType string) ([]*types.RewardInbox, error)
	MarkClaimed(ctx context.Context, tx *gorm.DB, inboxID uuid.UUID, claimedAt time.Time) error
}

type rewardInboxRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRewardInboxRepo(db *gorm.DB, baseLog *logger.Logger) RewardInboxRepo {
	return &rewardInboxRepo{db: db, log: baseLog.With("repo", "RewardInboxRepo")}
}

func (r *rewardInboxRepo) CreateIgnoreDuplicate(ctx context.Context, tx *gorm.DB, inbox *types.RewardInbox) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	result := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(inbox)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *rewardInboxRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, inboxID, userID uuid.UUID) (*types.RewardInbox, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var inbox types.RewardInbox
	err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", inboxID, userID).
		First(&inbox).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inbox, nil
}

func (r *rewardInboxRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sourceType string) ([]*types.RewardInbox, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).
		Where("user_id = ?", userID)
	if sourceType != "" {
		query = query.Where("source_type = ?", sourceType)
	}
	var results []*types.RewardInbox
	if err := query.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *rewardInboxRepo) MarkClaimed(ctx context.Context, tx *gorm.DB, inboxID uuid.UUID, claimedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.RewardInbox{}).
		Where("id = ?", inboxID).
		Update("claimed_at", claimedAt).Error
}
