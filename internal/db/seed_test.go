package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

func newServiceForTest(t *testing.T) *Service {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	t.Cleanup(log.Sync)
	return &Service{db: gdb, log: log}
}

func writeCatalogFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}
	return path
}

const testCatalog = `
ranks:
  - level: 1
    name: Wood
    needed_xp: 0
  - level: 2
    name: Stone
    needed_xp: 100
    rewards:
      - item: XP Booster
        quantity: 2
streaks:
  - day: 7
    title: One Week Strong
    rewards:
      - item: XP Booster
`

func TestSeedCatalogIdempotent(t *testing.T) {
	svc := newServiceForTest(t)
	ctx := context.Background()

	cat, err := LoadCatalog(writeCatalogFile(t, testCatalog))
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	if err := svc.SeedCatalog(ctx, cat); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := svc.SeedCatalog(ctx, cat); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var ranks, items, rankRewards, streakRewards int64
	svc.db.Model(&types.Rank{}).Count(&ranks)
	svc.db.Model(&types.Item{}).Count(&items)
	svc.db.Model(&types.RankReward{}).Count(&rankRewards)
	svc.db.Model(&types.StreakReward{}).Count(&streakRewards)
	if ranks != 2 || items != 1 || rankRewards != 1 || streakRewards != 1 {
		t.Fatalf("double seed duplicated rows: ranks=%d items=%d rankRewards=%d streakRewards=%d",
			ranks, items, rankRewards, streakRewards)
	}

	// Missing quantity defaults to one.
	var link types.StreakReward
	if err := svc.db.First(&link).Error; err != nil {
		t.Fatalf("load streak reward: %v", err)
	}
	if link.Quantity != 1 {
		t.Fatalf("default reward quantity: want=1 got=%d", link.Quantity)
	}
}

func TestSeedCatalogUpdatesChangedRanks(t *testing.T) {
	svc := newServiceForTest(t)
	ctx := context.Background()

	cat, err := LoadCatalog(writeCatalogFile(t, testCatalog))
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if err := svc.SeedCatalog(ctx, cat); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cat.Ranks[1].NeededXP = 120
	if err := svc.SeedCatalog(ctx, cat); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	var stone types.Rank
	if err := svc.db.Where("rank_level = ?", 2).First(&stone).Error; err != nil {
		t.Fatalf("load rank: %v", err)
	}
	if stone.NeededXP != 120 {
		t.Fatalf("updated needed xp: want=120 got=%d", stone.NeededXP)
	}
}

func TestLoadCatalogRejectsDuplicates(t *testing.T) {
	dup := `
ranks:
  - level: 2
    name: Stone
    needed_xp: 100
  - level: 2
    name: Copy
    needed_xp: 100
`
	if _, err := LoadCatalog(writeCatalogFile(t, dup)); err == nil {
		t.Fatalf("duplicate rank level must fail")
	}
}
