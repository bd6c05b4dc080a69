package types

import (
	"time"

	"github.com/google/uuid"
)

const EffectTypeXPMultiplier = "XP_MULTIPLIER"

// UserEffect is a timed buff acquired from an inventory item. An effect
// counts as active when IsActive is set and EndAt is nil or in the future.
type UserEffect struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	SourceItemID *uuid.UUID `gorm:"type:uuid;column:source_item_id" json:"source_item_id,omitempty"`
	EffectType   string     `gorm:"not null;index;column:effect_type" json:"effect_type"`
	EffectValue  float64    `gorm:"not null;default:1;column:effect_value" json:"effect_value"`
	StartAt      time.Time  `gorm:"not null;column:start_at" json:"start_at"`
	EndAt        *time.Time `gorm:"column:end_at" json:"end_at,omitempty"`
	IsActive     bool       `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (UserEffect) TableName() string {
	return "user_effect"
}
