package db

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

// Catalog is the static progression definition shipped with the deploy:
// ranks with their XP costs, streak milestones, and the reward items each
// one grants. Seeding is idempotent, keyed on rank level, day number, and
// item name, so boot can apply the same file every time.
type Catalog struct {
	Ranks   []CatalogRank   `yaml:"ranks"`
	Streaks []CatalogStreak `yaml:"streaks"`
}

type CatalogRank struct {
	Level    int             `yaml:"level"`
	Name     string          `yaml:"name"`
	NeededXP int             `yaml:"needed_xp"`
	Rewards  []CatalogReward `yaml:"rewards"`
}

type CatalogStreak struct {
	Day     int             `yaml:"day"`
	Title   string          `yaml:"title"`
	Rewards []CatalogReward `yaml:"rewards"`
}

type CatalogReward struct {
	Item     string `yaml:"item"`
	ItemType string `yaml:"item_type"`
	ImageURL string `yaml:"image_url"`
	Quantity int    `yaml:"quantity"`
}

func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	seenLevels := map[int]bool{}
	for _, r := range cat.Ranks {
		if r.Level < 1 {
			return nil, fmt.Errorf("catalog rank %q has invalid level %d", r.Name, r.Level)
		}
		if seenLevels[r.Level] {
			return nil, fmt.Errorf("catalog rank level %d appears twice", r.Level)
		}
		seenLevels[r.Level] = true
	}
	seenDays := map[int]bool{}
	for _, s := range cat.Streaks {
		if s.Day < 1 {
			return nil, fmt.Errorf("catalog streak %q has invalid day %d", s.Title, s.Day)
		}
		if seenDays[s.Day] {
			return nil, fmt.Errorf("catalog streak day %d appears twice", s.Day)
		}
		seenDays[s.Day] = true
	}
	return &cat, nil
}

func (s *Service) SeedCatalog(ctx context.Context, cat *Catalog) error {
	if cat == nil {
		return nil
	}
	s.log.Info("Seeding progression catalog...", "ranks", len(cat.Ranks), "streaks", len(cat.Streaks))
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, cr := range cat.Ranks {
			rank, err := ensureRank(tx, cr)
			if err != nil {
				return err
			}
			for _, rw := range cr.Rewards {
				item, err := ensureItem(tx, rw)
				if err != nil {
					return err
				}
				link := types.RankReward{
					ID:       uuid.New(),
					RankID:   rank.ID,
					ItemID:   item.ID,
					Quantity: rewardQuantity(rw),
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
					return fmt.Errorf("seed rank reward %q/%q: %w", cr.Name, rw.Item, err)
				}
			}
		}
		for _, cs := range cat.Streaks {
			streak, err := ensureStreak(tx, cs)
			if err != nil {
				return err
			}
			for _, rw := range cs.Rewards {
				item, err := ensureItem(tx, rw)
				if err != nil {
					return err
				}
				link := types.StreakReward{
					ID:       uuid.New(),
					StreakID: streak.ID,
					ItemID:   item.ID,
					Quantity: rewardQuantity(rw),
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
					return fmt.Errorf("seed streak reward day %d/%q: %w", cs.Day, rw.Item, err)
				}
			}
		}
		return nil
	})
}

func ensureRank(tx *gorm.DB, cr CatalogRank) (*types.Rank, error) {
	var existing types.Rank
	err := tx.Where("rank_level = ?", cr.Level).First(&existing).Error
	if err == nil {
		if existing.RankName != cr.Name || existing.NeededXP != cr.NeededXP {
			existing.RankName = cr.Name
			existing.NeededXP = cr.NeededXP
			if err := tx.Save(&existing).Error; err != nil {
				return nil, fmt.Errorf("update rank level %d: %w", cr.Level, err)
			}
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup rank level %d: %w", cr.Level, err)
	}
	rank := types.Rank{
		ID:        uuid.New(),
		RankLevel: cr.Level,
		RankName:  cr.Name,
		NeededXP:  cr.NeededXP,
	}
	if err := tx.Create(&rank).Error; err != nil {
		return nil, fmt.Errorf("create rank level %d: %w", cr.Level, err)
	}
	return &rank, nil
}

func ensureStreak(tx *gorm.DB, cs CatalogStreak) (*types.StreakMilestone, error) {
	var existing types.StreakMilestone
	err := tx.Where("day_number = ?", cs.Day).First(&existing).Error
	if err == nil {
		if existing.Title != cs.Title {
			existing.Title = cs.Title
			if err := tx.Save(&existing).Error; err != nil {
				return nil, fmt.Errorf("update streak day %d: %w", cs.Day, err)
			}
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup streak day %d: %w", cs.Day, err)
	}
	streak := types.StreakMilestone{
		ID:        uuid.New(),
		DayNumber: cs.Day,
		Title:     cs.Title,
	}
	if err := tx.Create(&streak).Error; err != nil {
		return nil, fmt.Errorf("create streak day %d: %w", cs.Day, err)
	}
	return &streak, nil
}

func ensureItem(tx *gorm.DB, rw CatalogReward) (*types.Item, error) {
	var existing types.Item
	err := tx.Where("item_name = ?", rw.Item).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup item %q: %w", rw.Item, err)
	}
	item := types.Item{
		ID:       uuid.New(),
		ItemName: rw.Item,
		ItemType: rw.ItemType,
		ImageURL: rw.ImageURL,
	}
	if item.ItemType == "" {
		item.ItemType = "CONSUMABLE"
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create item %q: %w", rw.Item, err)
	}
	return &item, nil
}

func rewardQuantity(rw CatalogReward) int {
	if rw.Quantity < 1 {
		return 1
	}
	return rw.Quantity
}
