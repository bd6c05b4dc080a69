package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	AttemptModeTopic    = "TOPIC"
	AttemptModeRandom   = "RANDOM"
	AttemptModeInfinite = "INFINITE"
	AttemptModeLearn    = "LEARN"
)

const (
	AttemptStatusInProgress = "IN_PROGRESS"
	AttemptStatusFinished   = "FINISHED"
	AttemptStatusAbandoned  = "ABANDONED"
)

// QuizAttempt is owned either by a registered learner (UserID) or by a
// guest device (GuestKey); exactly one of the two is set.
//
// ActiveOwnerKey holds the owner key while the attempt is IN_PROGRESS and
// is NULLed on finish/abandon. The unique index on it is what enforces at
// most one attempt in flight per owner, on Postgres and sqlite alike.
type QuizAttempt struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         *uuid.UUID `gorm:"type:uuid;index;column:user_id" json:"user_id,omitempty"`
	User           *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	GuestKey       *string    `gorm:"index;column:guest_key" json:"guest_key,omitempty"`
	Mode           string     `gorm:"not null;column:mode" json:"mode"`
	TopicID        *uuid.UUID `gorm:"type:uuid;index;column:topic_id" json:"topic_id,omitempty"`
	Topic          *Topic     `gorm:"constraint:OnDelete:SET NULL;foreignKey:TopicID;references:ID" json:"topic,omitempty"`
	Level          *int       `gorm:"column:level" json:"level,omitempty"`
	TotalQuestions int        `gorm:"not null;default:0;column:total_questions" json:"total_questions"`
	CorrectAnswers int        `gorm:"not null;default:0;column:correct_answers" json:"correct_answers"`
	EarnedXP       int        `gorm:"not null;default:0;column:earned_xp" json:"earned_xp"`
	Status         string     `gorm:"not null;index;column:status" json:"status"`
	ActiveOwnerKey *string    `gorm:"uniqueIndex;column:active_owner_key" json:"-"`
	StartedAt      time.Time  `gorm:"not null;column:started_at" json:"started_at"`
	FinishedAt     *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempt"
}

func ValidAttemptMode(mode string) bool {
	switch mode {
	case AttemptModeTopic, AttemptModeRandom, AttemptModeInfinite, AttemptModeLearn:
		return true
	}
	return false
}
