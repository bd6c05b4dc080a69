package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RewardSourceRank   = "RANK"
	RewardSourceStreak = "STREAK"
)

// RewardInbox records that a learner earned the rewards of one rank or one
// streak milestone; exactly one of RankID/StreakID is set. The composite
// unique indexes never collide on their NULL halves, so together they give
// at-most-once delivery per (learner, rank) and per (learner, milestone).
type RewardInbox struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID        `gorm:"type:uuid;not null;index;index:idx_inbox_user_rank,unique;index:idx_inbox_user_streak,unique" json:"user_id"`
	User       *User            `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	SourceType string           `gorm:"not null;column:source_type" json:"source_type"`
	RankID     *uuid.UUID       `gorm:"type:uuid;index:idx_inbox_user_rank,unique" json:"rank_id,omitempty"`
	Rank       *Rank            `gorm:"constraint:OnDelete:CASCADE;foreignKey:RankID;references:ID" json:"rank,omitempty"`
	StreakID   *uuid.UUID       `gorm:"type:uuid;index:idx_inbox_user_streak,unique" json:"streak_id,omitempty"`
	Streak     *StreakMilestone `gorm:"constraint:OnDelete:CASCADE;foreignKey:StreakID;references:ID" json:"streak,omitempty"`
	ClaimedAt  *time.Time       `gorm:"column:claimed_at" json:"claimed_at,omitempty"`
	CreatedAt  time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"not null" json:"updated_at"`
}

func (RewardInbox) TableName() string {
	return "reward_inbox"
}
