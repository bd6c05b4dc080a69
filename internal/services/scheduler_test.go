package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/repos"
	"github.com/vocaquiz/vocaquiz-backend/internal/requestdata"
	"github.com/vocaquiz/vocaquiz-backend/internal/testutil"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

func newSchedulerForTest(t *testing.T) (SchedulerService, *gorm.DB) {
	t.Helper()
	gdb := testutil.NewDB(t)
	log := testutil.NewLogger(t)
	svc := NewSchedulerService(gdb, log, repos.NewWordRepo(gdb, log), repos.NewWordProgressRepo(gdb, log))
	return svc, gdb
}

func seedProgress(t *testing.T, gdb *gorm.DB, userID, wordID uuid.UUID, level int, next time.Time) {
	t.Helper()
	progress := &types.UserWordProgress{
		ID:             uuid.New(),
		UserID:         userID,
		WordID:         wordID,
		StudyLevel:     level,
		NextReviewDate: &next,
	}
	if err := gdb.Create(progress).Error; err != nil {
		t.Fatalf("seed word progress: %v", err)
	}
}

func loadProgress(t *testing.T, gdb *gorm.DB, userID, wordID uuid.UUID) *types.UserWordProgress {
	t.Helper()
	var progress types.UserWordProgress
	if err := gdb.Where("user_id = ? AND word_id = ?", userID, wordID).First(&progress).Error; err != nil {
		t.Fatalf("load word progress: %v", err)
	}
	return &progress
}

func TestApplyResultFirstRightAnswer(t *testing.T) {
	svc, gdb := newSchedulerForTest(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, gdb, "scheduler@test.dev")
	topic := testutil.SeedTopic(t, gdb, "Animals", 1)
	word := testutil.SeedWord(t, gdb, topic.ID, "capacious", 1)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := svc.ApplyResult(ctx, nil, user.ID, word.ID, false, now); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}

	progress := loadProgress(t, gdb, user.ID, word.ID)
	if progress.StudyLevel != 1 {
		t.Fatalf("study level: want=1 got=%d", progress.StudyLevel)
	}
	wantNext := now.AddDate(0, 0, 1)
	if progress.NextReviewDate == nil || !progress.NextReviewDate.Equal(wantNext) {
		t.Fatalf("next review: want=%v got=%v", wantNext, progress.NextReviewDate)
	}
}

func TestApplyResultWrongAnswerResets(t *testing.T) {
	svc, gdb := newSchedulerForTest(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, gdb, "scheduler@test.dev")
	topic := testutil.SeedTopic(t, gdb, "Animals", 1)
	word := testutil.SeedWord(t, gdb, topic.ID, "capacious", 1)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedProgress(t, gdb, user.ID, word.ID, 4, now.AddDate(0, 0, 2))

	if err := svc.ApplyResult(ctx, nil, user.ID, word.ID, true, now); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}

	progress := loadProgress(t, gdb, user.ID, word.ID)
	if progress.StudyLevel != 0 {
		t.Fatalf("study level after wrong answer: want=0 got=%d", progress.StudyLevel)
	}
	if progress.NextReviewDate == nil || !progress.NextReviewDate.Equal(now) {
		t.Fatalf("next review for level 0: want=%v got=%v", now, progress.NextReviewDate)
	}
}

func TestApplyResultOverduePenalty(t *testing.T) {
	svc, gdb := newSchedulerForTest(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, gdb, "scheduler@test.dev")
	topic := testutil.SeedTopic(t, gdb, "Animals", 1)
	word := testutil.SeedWord(t, gdb, topic.ID, "capacious", 1)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Two and a half days overdue drops two levels before the result is
	// applied: 3 -> 1, then the right answer raises it back to 2.
	seedProgress(t, gdb, user.ID, word.ID, 3, now.Add(-60*time.Hour))

	if err := svc.ApplyResult(ctx, nil, user.ID, word.ID, false, now); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}

	progress := loadProgress(t, gdb, user.ID, word.ID)
	if progress.StudyLevel != 2 {
		t.Fatalf("study level after overdue right answer: want=2 got=%d", progress.StudyLevel)
	}
	wantNext := now.AddDate(0, 0, 2)
	if progress.NextReviewDate == nil || !progress.NextReviewDate.Equal(wantNext) {
		t.Fatalf("next review: want=%v got=%v", wantNext, progress.NextReviewDate)
	}
}

func TestApplyResultPenaltyNeverBelowZero(t *testing.T) {
	svc, gdb := newSchedulerForTest(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, gdb, "scheduler@test.dev")
	topic := testutil.SeedTopic(t, gdb, "Animals", 1)
	word := testutil.SeedWord(t, gdb, topic.ID, "capacious", 1)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	// A year overdue at level 2: the penalty caps at the level itself, so a
	// right answer still lands on level 1.
	seedProgress(t, gdb, user.ID, word.ID, 2, now.AddDate(-1, 0, 0))

	if err := svc.ApplyResult(ctx, nil, user.ID, word.ID, false, now); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}

	progress := loadProgress(t, gdb, user.ID, word.ID)
	if progress.StudyLevel != 1 {
		t.Fatalf("study level: want=1 got=%d", progress.StudyLevel)
	}
}

func TestIntervalClampsAtLongest(t *testing.T) {
	if got := intervalDaysFor(len(reviewIntervalDays) + 5); got != 60 {
		t.Fatalf("interval past table end: want=60 got=%d", got)
	}
	if got := intervalDaysFor(0); got != 0 {
		t.Fatalf("interval at level 0: want=0 got=%d", got)
	}
}

func TestSelectDueWordsOrdering(t *testing.T) {
	svc, gdb := newSchedulerForTest(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, gdb, "scheduler@test.dev")
	topic := testutil.SeedTopic(t, gdb, "Animals", 1)

	fresh := testutil.SeedWord(t, gdb, topic.ID, "aardvark", 1)
	overdue := testutil.SeedWord(t, gdb, topic.ID, "badger", 1)
	later := testutil.SeedWord(t, gdb, topic.ID, "cassowary", 1)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedProgress(t, gdb, user.ID, overdue.ID, 1, now.AddDate(0, 0, -3))
	seedProgress(t, gdb, user.ID, later.ID, 2, now.AddDate(0, 0, 5))

	rd := &requestdata.RequestData{UserID: user.ID}
	ids, err := svc.SelectDueWords(ctx, nil, rd, topic.ID, 1, 10)
	if err != nil {
		t.Fatalf("SelectDueWords: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("due words: want=3 got=%d", len(ids))
	}
	// Never-reviewed first, then by earliest next review.
	if ids[0] != fresh.ID {
		t.Fatalf("first due word: want=%s got=%s", fresh.ID, ids[0])
	}
	if ids[1] != overdue.ID {
		t.Fatalf("second due word: want=%s got=%s", overdue.ID, ids[1])
	}
	if ids[2] != later.ID {
		t.Fatalf("third due word: want=%s got=%s", later.ID, ids[2])
	}
}

func TestSelectDueWordsGuestIgnoresProgress(t *testing.T) {
	svc, gdb := newSchedulerForTest(t)
	ctx := context.Background()

	topic := testutil.SeedTopic(t, gdb, "Animals", 1)
	testutil.SeedWord(t, gdb, topic.ID, "aardvark", 1)
	testutil.SeedWord(t, gdb, topic.ID, "badger", 1)
	testutil.SeedWord(t, gdb, topic.ID, "off-level", 2)

	rd := &requestdata.RequestData{GuestKey: "device-1"}
	ids, err := svc.SelectDueWords(ctx, nil, rd, topic.ID, 1, 10)
	if err != nil {
		t.Fatalf("SelectDueWords: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("guest due words: want=2 got=%d", len(ids))
	}
}
