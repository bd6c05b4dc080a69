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

type InventoryRepo interface {
	// UpsertAdd grants quantity of an item, stacking onto an existing row
	// when the learner already owns some.
	UpsertAdd(ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID, quantity int, sourceInboxID *uuid.UUID, at time.Time) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Inventory, error)
	GetByUserItem(ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID) (*types.Inventory, error)
}

type inventoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInventoryRepo(db *gorm.DB, baseLog *logger.Logger) InventoryRepo {
	return &inventoryRepo{db: db, log: baseLog.With("repo", "InventoryRepo")}
}

func (r *inventoryRepo) UpsertAdd(ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID, quantity int, sourceInboxID *uuid.UUID, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row := types.Inventory{
		ID:            uuid.New(),
		UserID:        userID,
		ItemID:        itemID,
		Quantity:      quantity,
		AcquiredAt:    at,
		SourceInboxID: sourceInboxID,
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":        gorm.Expr("quantity + excluded.quantity"),
				"acquired_at":     at,
				"source_inbox_id": sourceInboxID,
			}),
		}).
		Create(&row).Error
}

func (r *inventoryRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Inventory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Inventory
	if err := transaction.WithContext(ctx).
		Preload("Item").
		Where("user_id = ?", userID).
		Order("acquired_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *inventoryRepo) GetByUserItem(ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID) (*types.Inventory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Inventory
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
