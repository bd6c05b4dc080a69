package types

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	AvatarURL string    `gorm:"column:avatar_url" json:"avatar_url"`
	Role      string    `gorm:"not null;default:'USER';column:role" json:"role"`
	Status    string    `gorm:"not null;default:'ACTIVE';column:status" json:"status"`

	// Progression state maintained by the ledger. XP is the remainder
	// inside the current rank, not a lifetime total.
	CurrentXP     int        `gorm:"not null;default:0;column:current_xp" json:"current_xp"`
	CurrentStreak int        `gorm:"not null;default:0;column:current_streak" json:"current_streak"`
	LongestStreak int        `gorm:"not null;default:0;column:longest_streak" json:"longest_streak"`
	LastStudyDate *time.Time `gorm:"column:last_study_date" json:"last_study_date,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
