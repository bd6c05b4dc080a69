package types

import (
	"time"

	"github.com/google/uuid"
)

type StreakMilestone struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DayNumber int       `gorm:"uniqueIndex;not null;column:day_number" json:"day_number"`
	Title     string    `gorm:"not null;column:title" json:"title"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (StreakMilestone) TableName() string {
	return "streak_milestone"
}

type StreakReward struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StreakID  uuid.UUID        `gorm:"type:uuid;not null;index:idx_streak_item,unique" json:"streak_id"`
	Streak    *StreakMilestone `gorm:"constraint:OnDelete:CASCADE;foreignKey:StreakID;references:ID" json:"streak,omitempty"`
	ItemID    uuid.UUID        `gorm:"type:uuid;not null;index:idx_streak_item,unique" json:"item_id"`
	Item      *Item            `gorm:"constraint:OnDelete:CASCADE;foreignKey:ItemID;references:ID" json:"item,omitempty"`
	Quantity  int              `gorm:"not null;default:1;column:quantity" json:"quantity"`
	CreatedAt time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null" json:"updated_at"`
}

func (StreakReward) TableName() string {
	return "streak_reward"
}
