package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionTypeMultipleChoice = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      = "TRUE_FALSE"
	QuestionTypeFillBlank      = "FILL_BLANK"
)

// Question belongs to a word for scheduler-driven selection. WordID is
// nullable: the random pools may also hold topic-agnostic filler items.
type Question struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WordID       *uuid.UUID     `gorm:"type:uuid;index;column:word_id" json:"word_id,omitempty"`
	Word         *Word          `gorm:"constraint:OnDelete:CASCADE;foreignKey:WordID;references:ID" json:"word,omitempty"`
	Content      string         `gorm:"not null;column:content" json:"content"`
	QuestionType string         `gorm:"not null;column:question_type" json:"question_type"`
	IsActive     bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	Metadata     datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Question) TableName() string {
	return "question"
}
