package services

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/apierr"
	"github.com/vocaquiz/vocaquiz-backend/internal/repos"
	"github.com/vocaquiz/vocaquiz-backend/internal/testutil"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

func newRewardForTest(t *testing.T) (RewardService, *gorm.DB) {
	t.Helper()
	gdb := testutil.NewDB(t)
	log := testutil.NewLogger(t)
	svc := NewRewardService(
		gdb, log,
		repos.NewRankRepo(gdb, log),
		repos.NewStreakRepo(gdb, log),
		repos.NewRewardInboxRepo(gdb, log),
		repos.NewInventoryRepo(gdb, log),
		nil,
	)
	return svc, gdb
}

func seedRewardCatalog(t *testing.T, gdb *gorm.DB) (stone *types.Rank, milestone *types.StreakMilestone, booster *types.Item) {
	t.Helper()
	testutil.SeedRank(t, gdb, 1, 0, "Wood")
	stone = testutil.SeedRank(t, gdb, 2, 100, "Stone")
	milestone = testutil.SeedMilestone(t, gdb, 7, "One Week Strong")
	booster = testutil.SeedItem(t, gdb, "XP Booster")
	testutil.SeedRankReward(t, gdb, stone.ID, booster.ID, 2)
	testutil.SeedStreakReward(t, gdb, milestone.ID, booster.ID, 1)
	return stone, milestone, booster
}

func TestRoadmapGuestAllLocked(t *testing.T) {
	svc, gdb := newRewardForTest(t)
	seedRewardCatalog(t, gdb)

	result, err := svc.Roadmap(guestCtx("device-1"), RoadmapInput{})
	if err != nil {
		t.Fatalf("Roadmap: %v", err)
	}
	// Wood carries no items and is not on the track.
	if len(result.Entries) != 2 {
		t.Fatalf("roadmap entries: want=2 got=%d", len(result.Entries))
	}
	for _, entry := range result.Entries {
		if entry.Status != RewardStatusLocked {
			t.Fatalf("guest entry status: want=LOCKED got=%s", entry.Status)
		}
		if entry.InboxID != nil {
			t.Fatalf("guest entry must not expose inbox state")
		}
	}
}

func TestRoadmapReflectsInboxState(t *testing.T) {
	svc, gdb := newRewardForTest(t)
	stone, _, _ := seedRewardCatalog(t, gdb)
	user := testutil.SeedUser(t, gdb, "rewards@test.dev")

	inbox := &types.RewardInbox{
		ID:         uuid.New(),
		UserID:     user.ID,
		SourceType: types.RewardSourceRank,
		RankID:     &stone.ID,
	}
	if err := gdb.Create(inbox).Error; err != nil {
		t.Fatalf("seed inbox row: %v", err)
	}

	result, err := svc.Roadmap(userCtx(user.ID), RoadmapInput{})
	if err != nil {
		t.Fatalf("Roadmap: %v", err)
	}
	var rankEntry, streakEntry *RoadmapEntry
	for i := range result.Entries {
		switch result.Entries[i].SourceType {
		case types.RewardSourceRank:
			rankEntry = &result.Entries[i]
		case types.RewardSourceStreak:
			streakEntry = &result.Entries[i]
		}
	}
	if rankEntry == nil || rankEntry.Status != RewardStatusClaimable {
		t.Fatalf("earned rank entry: want=CLAIMABLE got=%+v", rankEntry)
	}
	if rankEntry.InboxID == nil || *rankEntry.InboxID != inbox.ID {
		t.Fatalf("rank entry inbox id mismatch: %+v", rankEntry.InboxID)
	}
	if streakEntry == nil || streakEntry.Status != RewardStatusLocked {
		t.Fatalf("unearned streak entry: want=LOCKED got=%+v", streakEntry)
	}

	filtered, err := svc.Roadmap(userCtx(user.ID), RoadmapInput{Status: RewardStatusClaimable})
	if err != nil {
		t.Fatalf("Roadmap filtered: %v", err)
	}
	if len(filtered.Entries) != 1 || filtered.Entries[0].SourceType != types.RewardSourceRank {
		t.Fatalf("status filter: want just the rank entry, got=%+v", filtered.Entries)
	}
}

func TestClaimMovesRewardIntoInventory(t *testing.T) {
	svc, gdb := newRewardForTest(t)
	stone, _, booster := seedRewardCatalog(t, gdb)
	user := testutil.SeedUser(t, gdb, "rewards@test.dev")

	inbox := &types.RewardInbox{
		ID:         uuid.New(),
		UserID:     user.ID,
		SourceType: types.RewardSourceRank,
		RankID:     &stone.ID,
	}
	if err := gdb.Create(inbox).Error; err != nil {
		t.Fatalf("seed inbox row: %v", err)
	}

	result, err := svc.Claim(userCtx(user.ID), inbox.ID)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Quantity != 2 {
		t.Fatalf("claimed items: want one stack of 2, got=%+v", result.Items)
	}

	var row types.Inventory
	if err := gdb.Where("user_id = ? AND item_id = ?", user.ID, booster.ID).First(&row).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if row.Quantity != 2 {
		t.Fatalf("inventory quantity: want=2 got=%d", row.Quantity)
	}

	// Second claim is a conflict and must not stack again.
	_, err = svc.Claim(userCtx(user.ID), inbox.ID)
	if apiErr := apierr.From(err); apiErr.Status != 409 {
		t.Fatalf("double claim status: want=409 got=%d", apiErr.Status)
	}
	if err := gdb.Where("user_id = ? AND item_id = ?", user.ID, booster.ID).First(&row).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	if row.Quantity != 2 {
		t.Fatalf("inventory after double claim: want=2 got=%d", row.Quantity)
	}
}

func TestClaimStacksOntoExistingInventory(t *testing.T) {
	svc, gdb := newRewardForTest(t)
	stone, milestone, booster := seedRewardCatalog(t, gdb)
	user := testutil.SeedUser(t, gdb, "rewards@test.dev")

	rankInbox := &types.RewardInbox{
		ID: uuid.New(), UserID: user.ID,
		SourceType: types.RewardSourceRank, RankID: &stone.ID,
	}
	streakInbox := &types.RewardInbox{
		ID: uuid.New(), UserID: user.ID,
		SourceType: types.RewardSourceStreak, StreakID: &milestone.ID,
	}
	for _, row := range []*types.RewardInbox{rankInbox, streakInbox} {
		if err := gdb.Create(row).Error; err != nil {
			t.Fatalf("seed inbox row: %v", err)
		}
	}

	if _, err := svc.Claim(userCtx(user.ID), rankInbox.ID); err != nil {
		t.Fatalf("claim rank reward: %v", err)
	}
	if _, err := svc.Claim(userCtx(user.ID), streakInbox.ID); err != nil {
		t.Fatalf("claim streak reward: %v", err)
	}

	var row types.Inventory
	if err := gdb.Where("user_id = ? AND item_id = ?", user.ID, booster.ID).First(&row).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if row.Quantity != 3 {
		t.Fatalf("stacked quantity: want=3 got=%d", row.Quantity)
	}
}

func TestClaimForeignInboxNotFound(t *testing.T) {
	svc, gdb := newRewardForTest(t)
	stone, _, _ := seedRewardCatalog(t, gdb)
	owner := testutil.SeedUser(t, gdb, "owner@test.dev")
	other := testutil.SeedUser(t, gdb, "other@test.dev")

	inbox := &types.RewardInbox{
		ID:         uuid.New(),
		UserID:     owner.ID,
		SourceType: types.RewardSourceRank,
		RankID:     &stone.ID,
	}
	if err := gdb.Create(inbox).Error; err != nil {
		t.Fatalf("seed inbox row: %v", err)
	}

	_, err := svc.Claim(userCtx(other.ID), inbox.ID)
	if apiErr := apierr.From(err); apiErr.Status != 404 {
		t.Fatalf("foreign claim status: want=404 got=%d", apiErr.Status)
	}

	_, err = svc.Claim(guestCtx("device-1"), inbox.ID)
	if apiErr := apierr.From(err); apiErr.Status != 401 {
		t.Fatalf("guest claim status: want=401 got=%d", apiErr.Status)
	}
}
