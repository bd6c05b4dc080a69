package types

import (
	"time"

	"github.com/google/uuid"
)

// NeededXP is the incremental cost of entering this rank from the one
// below it. Roll-forward subtracts it as each threshold is crossed.
type Rank struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RankLevel int       `gorm:"uniqueIndex;not null;column:rank_level" json:"rank_level"`
	RankName  string    `gorm:"not null;column:rank_name" json:"rank_name"`
	NeededXP  int       `gorm:"not null;default:0;column:needed_xp" json:"needed_xp"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Rank) TableName() string {
	return "rank"
}

type RankReward struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RankID    uuid.UUID `gorm:"type:uuid;not null;index:idx_rank_item,unique" json:"rank_id"`
	Rank      *Rank     `gorm:"constraint:OnDelete:CASCADE;foreignKey:RankID;references:ID" json:"rank,omitempty"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index:idx_rank_item,unique" json:"item_id"`
	Item      *Item     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ItemID;references:ID" json:"item,omitempty"`
	Quantity  int       `gorm:"not null;default:1;column:quantity" json:"quantity"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (RankReward) TableName() string {
	return "rank_reward"
}
