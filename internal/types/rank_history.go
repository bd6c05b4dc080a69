package types

import (
	"time"

	"github.com/google/uuid"
)

// UserRankHistory tracks which rank a learner held and when. The open
// entry has Current = true; closed entries set it back to NULL so the
// (user_id, current) unique index only ever admits one open row.
type UserRankHistory struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index;index:idx_rank_history_current,unique" json:"user_id"`
	User       *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	RankID     uuid.UUID  `gorm:"type:uuid;not null" json:"rank_id"`
	Rank       *Rank      `gorm:"constraint:OnDelete:CASCADE;foreignKey:RankID;references:ID" json:"rank,omitempty"`
	AchievedAt time.Time  `gorm:"not null;column:achieved_at" json:"achieved_at"`
	EndedAt    *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
	Current    *bool      `gorm:"index:idx_rank_history_current,unique;column:current" json:"current,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

func (UserRankHistory) TableName() string {
	return "user_rank_history"
}
