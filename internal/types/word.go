package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Word struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_topic_term,unique" json:"topic_id"`
	Topic         *Topic         `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"topic,omitempty"`
	Term          string         `gorm:"not null;column:term;index:idx_topic_term,unique" json:"term"`
	Pronunciation string         `gorm:"column:pronunciation" json:"pronunciation"`
	MeaningEN     string         `gorm:"column:meaning_en" json:"meaning_en"`
	MeaningVN     string         `gorm:"column:meaning_vn" json:"meaning_vn"`
	Example       string         `gorm:"column:example" json:"example"`
	Level         int            `gorm:"not null;default:1;index;column:level" json:"level"`
	IsActive      bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	Metadata      datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Word) TableName() string {
	return "word"
}
