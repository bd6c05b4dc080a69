package types

import (
	"time"

	"github.com/google/uuid"
)

// UserWordProgress is the per-learner scheduler state for one word.
// NextReviewDate nil means the word was never reviewed; such words sort
// ahead of everything with a date.
type UserWordProgress struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_user_word,unique" json:"user_id"`
	User           *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	WordID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_user_word,unique" json:"word_id"`
	Word           *Word      `gorm:"constraint:OnDelete:CASCADE;foreignKey:WordID;references:ID" json:"word,omitempty"`
	StudyLevel     int        `gorm:"not null;default:0;column:study_level" json:"study_level"`
	LastReviewDate *time.Time `gorm:"column:last_review_date" json:"last_review_date,omitempty"`
	NextReviewDate *time.Time `gorm:"index;column:next_review_date" json:"next_review_date,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (UserWordProgress) TableName() string {
	return "user_word_progress"
}
