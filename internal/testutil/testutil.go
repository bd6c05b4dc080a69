// Package testutil gives repo and service tests a real database: a fresh
// in-memory sqlite instance per test, migrated to the production schema.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/db"
	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

var dbCounter atomic.Int64

func NewLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

// NewDB opens an isolated in-memory database. The named shared-cache DSN
// keeps the database alive across the pooled connections of one test
// while staying invisible to every other test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return gdb
}

func SeedUser(t *testing.T, gdb *gorm.DB, email string) *types.User {
	t.Helper()
	user := &types.User{
		ID:    uuid.New(),
		Email: email,
		Name:  "Test Learner",
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return user
}

func SeedTopic(t *testing.T, gdb *gorm.DB, name string, maxLevel int) *types.Topic {
	t.Helper()
	topic := &types.Topic{
		ID:       uuid.New(),
		Name:     name,
		MaxLevel: maxLevel,
		IsActive: true,
	}
	if err := gdb.Create(topic).Error; err != nil {
		t.Fatalf("seed topic %s: %v", name, err)
	}
	return topic
}

func SeedWord(t *testing.T, gdb *gorm.DB, topicID uuid.UUID, term string, level int) *types.Word {
	t.Helper()
	word := &types.Word{
		ID:       uuid.New(),
		TopicID:  topicID,
		Term:     term,
		Level:    level,
		IsActive: true,
	}
	if err := gdb.Create(word).Error; err != nil {
		t.Fatalf("seed word %s: %v", term, err)
	}
	return word
}

// SeedChoiceQuestion creates a multiple choice question with one correct
// and the given number of wrong options. The correct option is returned
// alongside the question.
func SeedChoiceQuestion(t *testing.T, gdb *gorm.DB, wordID *uuid.UUID, content string, wrongOptions int) (*types.Question, *types.AnswerOption) {
	t.Helper()
	question := &types.Question{
		ID:           uuid.New(),
		WordID:       wordID,
		Content:      content,
		QuestionType: types.QuestionTypeMultipleChoice,
		IsActive:     true,
	}
	if err := gdb.Create(question).Error; err != nil {
		t.Fatalf("seed question %q: %v", content, err)
	}
	correct := SeedOption(t, gdb, question.ID, "correct answer", true)
	for i := 0; i < wrongOptions; i++ {
		SeedOption(t, gdb, question.ID, fmt.Sprintf("wrong answer %d", i+1), false)
	}
	return question, correct
}

func SeedFillBlankQuestion(t *testing.T, gdb *gorm.DB, wordID *uuid.UUID, content string, accepted ...string) *types.Question {
	t.Helper()
	question := &types.Question{
		ID:           uuid.New(),
		WordID:       wordID,
		Content:      content,
		QuestionType: types.QuestionTypeFillBlank,
		IsActive:     true,
	}
	if err := gdb.Create(question).Error; err != nil {
		t.Fatalf("seed question %q: %v", content, err)
	}
	for _, spelling := range accepted {
		SeedOption(t, gdb, question.ID, spelling, true)
	}
	return question
}

func SeedOption(t *testing.T, gdb *gorm.DB, questionID uuid.UUID, content string, isCorrect bool) *types.AnswerOption {
	t.Helper()
	option := &types.AnswerOption{
		ID:         uuid.New(),
		QuestionID: questionID,
		Content:    content,
		IsCorrect:  isCorrect,
		IsActive:   true,
	}
	if err := gdb.Create(option).Error; err != nil {
		t.Fatalf("seed option %q: %v", content, err)
	}
	return option
}

func SeedRank(t *testing.T, gdb *gorm.DB, level, neededXP int, name string) *types.Rank {
	t.Helper()
	rank := &types.Rank{
		ID:        uuid.New(),
		RankLevel: level,
		RankName:  name,
		NeededXP:  neededXP,
	}
	if err := gdb.Create(rank).Error; err != nil {
		t.Fatalf("seed rank %s: %v", name, err)
	}
	return rank
}

func SeedMilestone(t *testing.T, gdb *gorm.DB, day int, title string) *types.StreakMilestone {
	t.Helper()
	milestone := &types.StreakMilestone{
		ID:        uuid.New(),
		DayNumber: day,
		Title:     title,
	}
	if err := gdb.Create(milestone).Error; err != nil {
		t.Fatalf("seed milestone %s: %v", title, err)
	}
	return milestone
}

func SeedItem(t *testing.T, gdb *gorm.DB, name string) *types.Item {
	t.Helper()
	item := &types.Item{
		ID:       uuid.New(),
		ItemName: name,
		ItemType: "CONSUMABLE",
	}
	if err := gdb.Create(item).Error; err != nil {
		t.Fatalf("seed item %s: %v", name, err)
	}
	return item
}

func SeedRankReward(t *testing.T, gdb *gorm.DB, rankID, itemID uuid.UUID, quantity int) *types.RankReward {
	t.Helper()
	reward := &types.RankReward{
		ID:       uuid.New(),
		RankID:   rankID,
		ItemID:   itemID,
		Quantity: quantity,
	}
	if err := gdb.Create(reward).Error; err != nil {
		t.Fatalf("seed rank reward: %v", err)
	}
	return reward
}

func SeedStreakReward(t *testing.T, gdb *gorm.DB, streakID, itemID uuid.UUID, quantity int) *types.StreakReward {
	t.Helper()
	reward := &types.StreakReward{
		ID:       uuid.New(),
		StreakID: streakID,
		ItemID:   itemID,
		Quantity: quantity,
	}
	if err := gdb.Create(reward).Error; err != nil {
		t.Fatalf("seed streak reward: %v", err)
	}
	return reward
}
