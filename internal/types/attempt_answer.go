package types

import (
	"time"

	"github.com/google/uuid"
)

// AttemptAnswer rows are pre-created when questions join an attempt, one
// per cursor position. AnsweredAt doubles as the idempotence marker: a
// non-nil value means the graded result is final and replays must return
// it unchanged.
type AttemptAnswer struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID        uuid.UUID    `gorm:"type:uuid;not null;index:idx_attempt_question,unique;index:idx_attempt_position,unique" json:"attempt_id"`
	Attempt          *QuizAttempt `gorm:"constraint:OnDelete:CASCADE;foreignKey:AttemptID;references:ID" json:"attempt,omitempty"`
	QuestionID       uuid.UUID    `gorm:"type:uuid;not null;index:idx_attempt_question,unique" json:"question_id"`
	Question         *Question    `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"question,omitempty"`
	Position         int          `gorm:"not null;index:idx_attempt_position,unique" json:"position"`
	SelectedOptionID *uuid.UUID   `gorm:"type:uuid;column:selected_option_id" json:"selected_option_id,omitempty"`
	AnswerText       *string      `gorm:"column:answer_text" json:"answer_text,omitempty"`
	IsCorrect        *bool        `gorm:"column:is_correct" json:"is_correct,omitempty"`
	AnsweredAt       *time.Time   `gorm:"column:answered_at" json:"answered_at,omitempty"`
	CreatedAt        time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null" json:"updated_at"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answer"
}
