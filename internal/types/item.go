package types

import (
	"time"

	"github.com/google/uuid"
)

type Item struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ItemName    string    `gorm:"uniqueIndex;not null;column:item_name" json:"item_name"`
	ItemType    string    `gorm:"not null;column:item_type" json:"item_type"`
	ImageURL    string    `gorm:"column:image_url" json:"image_url"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Item) TableName() string {
	return "item"
}
