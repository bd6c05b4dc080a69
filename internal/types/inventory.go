package types

import (
	"time"

	"github.com/google/uuid"
)

type Inventory struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_user_item,unique" json:"user_id"`
	User          *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ItemID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_user_item,unique" json:"item_id"`
	Item          *Item      `gorm:"constraint:OnDelete:CASCADE;foreignKey:ItemID;references:ID" json:"item,omitempty"`
	Quantity      int        `gorm:"not null;default:0;column:quantity" json:"quantity"`
	AcquiredAt    time.Time  `gorm:"not null;column:acquired_at" json:"acquired_at"`
	SourceInboxID *uuid.UUID `gorm:"type:uuid;column:source_inbox_id" json:"source_inbox_id,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

func (Inventory) TableName() string {
	return "inventory"
}
