package types

import (
	"time"

	"github.com/google/uuid"
)

// UserActivity is the idempotent one-row-per-study-day marker. The stored
// instant is midnight of the day in the ledger's reference offset, so the
// unique index makes repeated finishes on the same day no-ops.
type UserActivity struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index:idx_user_activity_date,unique" json:"user_id"`
	User         *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ActivityDate time.Time `gorm:"not null;index:idx_user_activity_date,unique" json:"activity_date"`
	WasFrozen    bool      `gorm:"not null;default:false;column:was_frozen" json:"was_frozen"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (UserActivity) TableName() string {
	return "user_activity"
}
