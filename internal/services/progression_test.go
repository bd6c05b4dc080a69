package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/repos"
	"github.com/vocaquiz/vocaquiz-backend/internal/testutil"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

func newProgressionForTest(t *testing.T) (ProgressionService, *gorm.DB) {
	t.Helper()
	gdb := testutil.NewDB(t)
	log := testutil.NewLogger(t)
	svc := NewProgressionService(
		gdb, log,
		repos.NewUserRepo(gdb, log),
		repos.NewEffectRepo(gdb, log),
		repos.NewActivityRepo(gdb, log),
		repos.NewStreakRepo(gdb, log),
		repos.NewRankRepo(gdb, log),
		repos.NewRankHistoryRepo(gdb, log),
		repos.NewRewardInboxRepo(gdb, log),
		repos.NewQuizAttemptRepo(gdb, log),
		repos.NewWordProgressRepo(gdb, log),
		nil,
	)
	return svc, gdb
}

func seedRankLadder(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	testutil.SeedRank(t, gdb, 1, 0, "Wood")
	testutil.SeedRank(t, gdb, 2, 100, "Stone")
	testutil.SeedRank(t, gdb, 3, 150, "Bronze")
	testutil.SeedRank(t, gdb, 4, 500, "Silver")
}

func reloadUser(t *testing.T, gdb *gorm.DB, userID uuid.UUID) *types.User {
	t.Helper()
	var user types.User
	if err := gdb.Where("id = ?", userID).First(&user).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return &user
}

func TestApplyAwardsBaseAndPerfectBonus(t *testing.T) {
	svc, gdb := newProgressionForTest(t)
	ctx := context.Background()
	seedRankLadder(t, gdb)
	user := testutil.SeedUser(t, gdb, "ledger@test.dev")

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	result, err := svc.Apply(ctx, nil, user.ID, 10, 10, now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.AwardedXP != 150 {
		t.Fatalf("awarded xp for a perfect 10: want=150 got=%d", result.AwardedXP)
	}
	if result.CurrentStreak != 1 {
		t.Fatalf("first-day streak: want=1 got=%d", result.CurrentStreak)
	}
}

func TestApplyXPMultiplierUsesLargestOnly(t *testing.T) {
	svc, gdb := newProgressionForTest(t)
	ctx := context.Background()
	seedRankLadder(t, gdb)
	user := testutil.SeedUser(t, gdb, "ledger@test.dev")

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	endAt := now.Add(24 * time.Hour)
	effects := []*types.UserEffect{
		{ID: uuid.New(), UserID: user.ID, EffectType: types.EffectTypeXPMultiplier, EffectValue: 1.5, IsActive: true, EndAt: &endAt},
		{ID: uuid.New(), UserID: user.ID, EffectType: types.EffectTypeXPMultiplier, EffectValue: 2.0, IsActive: true, EndAt: &endAt},
	}
	for _, e := range effects {
		if err := gdb.Create(e).Error; err != nil {
			t.Fatalf("seed effect: %v", err)
		}
	}

	result, err := svc.Apply(ctx, nil, user.ID, 10, 5, now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// 5 correct = 50 base, doubled by the strongest multiplier, never
	// stacked with the weaker one.
	if result.AwardedXP != 100 {
		t.Fatalf("multiplied xp: want=100 got=%d", result.AwardedXP)
	}
}

func TestApplyMultiRankRollForward(t *testing.T) {
	svc, gdb := newProgressionForTest(t)
	ctx := context.Background()
	seedRankLadder(t, gdb)
	user := testutil.SeedUser(t, gdb, "ledger@test.dev")

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	// 26 correct of 30 earns 260 XP: enough for Stone (100) and Bronze
	// (150) in one sitting, with 10 left inside Bronze.
	result, err := svc.Apply(ctx, nil, user.ID, 30, 26, now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.CurrentRank == nil || result.CurrentRank.RankLevel != 3 {
		t.Fatalf("current rank after roll-forward: want=3 got=%+v", result.CurrentRank)
	}
	if result.CurrentXP != 10 {
		t.Fatalf("remainder xp: want=10 got=%d", result.CurrentXP)
	}
	if result.NextRank == nil || result.NextRank.RankLevel != 4 {
		t.Fatalf("next rank: want=4 got=%+v", result.NextRank)
	}
	if result.NextRank.RemainingXP != 490 {
		t.Fatalf("remaining xp to Silver: want=490 got=%d", result.NextRank.RemainingXP)
	}

	persisted := reloadUser(t, gdb, user.ID)
	if persisted.CurrentXP != 10 {
		t.Fatalf("persisted xp: want=10 got=%d", persisted.CurrentXP)
	}

	var openRows []types.UserRankHistory
	if err := gdb.Where("user_id = ? AND current = ?", user.ID, true).Find(&openRows).Error; err != nil {
		t.Fatalf("load rank history: %v", err)
	}
	if len(openRows) != 1 {
		t.Fatalf("open rank history rows: want=1 got=%d", len(openRows))
	}
}

func TestApplyRankRewardGrantedAtMostOnce(t *testing.T) {
	svc, gdb := newProgressionForTest(t)
	ctx := context.Background()
	testutil.SeedRank(t, gdb, 1, 0, "Wood")
	stone := testutil.SeedRank(t, gdb, 2, 100, "Stone")
	item := testutil.SeedItem(t, gdb, "XP Booster")
	testutil.SeedRankReward(t, gdb, stone.ID, item.ID, 1)
	user := testutil.SeedUser(t, gdb, "ledger@test.dev")

	// The Stone reward was already delivered in an earlier run.
	existing := &types.RewardInbox{
		ID:         uuid.New(),
		UserID:     user.ID,
		SourceType: types.RewardSourceRank,
		RankID:     &stone.ID,
	}
	if err := gdb.Create(existing).Error; err != nil {
		t.Fatalf("seed inbox row: %v", err)
	}

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	result, err := svc.Apply(ctx, nil, user.ID, 20, 15, now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.CurrentRank == nil || result.CurrentRank.RankLevel != 2 {
		t.Fatalf("current rank: want=2 got=%+v", result.CurrentRank)
	}
	for _, grant := range result.NewRewards {
		if grant.SourceType == types.RewardSourceRank {
			t.Fatalf("rank reward reported twice: %+v", grant)
		}
	}

	var count int64
	if err := gdb.Model(&types.RewardInbox{}).Where("user_id = ? AND rank_id = ?", user.ID, stone.ID).Count(&count).Error; err != nil {
		t.Fatalf("count inbox rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("inbox rows for stone: want=1 got=%d", count)
	}
}

func TestApplyStreakProgression(t *testing.T) {
	svc, gdb := newProgressionForTest(t)
	ctx := context.Background()
	seedRankLadder(t, gdb)
	milestone := testutil.SeedMilestone(t, gdb, 2, "Two In A Row")
	item := testutil.SeedItem(t, gdb, "Streak Shield")
	testutil.SeedStreakReward(t, gdb, milestone.ID, item.ID, 1)
	user := testutil.SeedUser(t, gdb, "ledger@test.dev")

	day1 := time.Date(2026, 4, 1, 10, 0, 0, 0, referenceZone)
	day1Later := time.Date(2026, 4, 1, 22, 0, 0, 0, referenceZone)
	day2 := time.Date(2026, 4, 2, 9, 0, 0, 0, referenceZone)
	day5 := time.Date(2026, 4, 5, 9, 0, 0, 0, referenceZone)

	if _, err := svc.Apply(ctx, nil, user.ID, 5, 3, day1); err != nil {
		t.Fatalf("Apply day1: %v", err)
	}
	if got := reloadUser(t, gdb, user.ID).CurrentStreak; got != 1 {
		t.Fatalf("streak after day1: want=1 got=%d", got)
	}

	// Same calendar day: no movement.
	if _, err := svc.Apply(ctx, nil, user.ID, 5, 3, day1Later); err != nil {
		t.Fatalf("Apply day1 again: %v", err)
	}
	if got := reloadUser(t, gdb, user.ID).CurrentStreak; got != 1 {
		t.Fatalf("streak after same-day repeat: want=1 got=%d", got)
	}

	result, err := svc.Apply(ctx, nil, user.ID, 5, 3, day2)
	if err != nil {
		t.Fatalf("Apply day2: %v", err)
	}
	if got := reloadUser(t, gdb, user.ID).CurrentStreak; got != 2 {
		t.Fatalf("streak after consecutive day: want=2 got=%d", got)
	}
	if len(result.NewRewards) != 1 || result.NewRewards[0].SourceType != types.RewardSourceStreak {
		t.Fatalf("day-2 milestone reward: want one streak grant, got=%+v", result.NewRewards)
	}

	// A gap resets to one but keeps the longest.
	if _, err := svc.Apply(ctx, nil, user.ID, 5, 3, day5); err != nil {
		t.Fatalf("Apply day5: %v", err)
	}
	after := reloadUser(t, gdb, user.ID)
	if after.CurrentStreak != 1 {
		t.Fatalf("streak after gap: want=1 got=%d", after.CurrentStreak)
	}
	if after.LongestStreak != 2 {
		t.Fatalf("longest streak: want=2 got=%d", after.LongestStreak)
	}

	var days int64
	if err := gdb.Model(&types.UserActivity{}).Where("user_id = ?", user.ID).Count(&days).Error; err != nil {
		t.Fatalf("count activity days: %v", err)
	}
	if days != 3 {
		t.Fatalf("activity day markers: want=3 got=%d", days)
	}
}

func TestSnapshotStats(t *testing.T) {
	svc, gdb := newProgressionForTest(t)
	ctx := context.Background()
	seedRankLadder(t, gdb)
	user := testutil.SeedUser(t, gdb, "ledger@test.dev")

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	if _, err := svc.Apply(ctx, nil, user.ID, 10, 8, now); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	finished := &types.QuizAttempt{
		ID:             uuid.New(),
		UserID:         &user.ID,
		Mode:           types.AttemptModeRandom,
		Status:         types.AttemptStatusFinished,
		TotalQuestions: 10,
		CorrectAnswers: 8,
		StartedAt:      now,
	}
	if err := gdb.Create(finished).Error; err != nil {
		t.Fatalf("seed finished attempt: %v", err)
	}

	snapshot, err := svc.Snapshot(ctx, user.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.Stats.FinishedAttempts != 1 {
		t.Fatalf("finished attempts: want=1 got=%d", snapshot.Stats.FinishedAttempts)
	}
	if snapshot.Stats.AccuracyPercent != 80.0 {
		t.Fatalf("accuracy: want=80.0 got=%v", snapshot.Stats.AccuracyPercent)
	}
	if snapshot.Stats.ActiveDays != 1 {
		t.Fatalf("active days: want=1 got=%d", snapshot.Stats.ActiveDays)
	}
	if snapshot.CurrentRank == nil {
		t.Fatalf("snapshot rank missing")
	}
	if snapshot.NextRank == nil || snapshot.NextRank.RemainingXP != snapshot.NextRank.NeededXP-snapshot.CurrentXP {
		t.Fatalf("next rank remaining mismatch: %+v currentXP=%d", snapshot.NextRank, snapshot.CurrentXP)
	}
}
