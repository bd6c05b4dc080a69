package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// For FILL_BLANK questions the marked-correct options act as the list of
// accepted spellings rather than clickable choices.
type AnswerOption struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID      `gorm:"type:uuid;not null;index;column:question_id" json:"question_id"`
	Question   *Question      `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"question,omitempty"`
	Content    string         `gorm:"not null;column:content" json:"content"`
	IsCorrect  bool           `gorm:"not null;default:false;column:is_correct" json:"is_correct"`
	IsActive   bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AnswerOption) TableName() string {
	return "answer_option"
}
