package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/cache"
	"github.com/vocaquiz/vocaquiz-backend/internal/platform/apierr"
	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/repos"
	"github.com/vocaquiz/vocaquiz-backend/internal/requestdata"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

const (
	defaultRoadmapPageSize = 10
	maxRoadmapPageSize     = 50

	RewardStatusLocked    = "LOCKED"
	RewardStatusClaimable = "CLAIMABLE"
	RewardStatusClaimed   = "CLAIMED"
)

type RewardItemDTO struct {
	ItemID      uuid.UUID `json:"item_id"`
	ItemName    string    `json:"item_name"`
	ItemType    string    `json:"item_type"`
	ImageURL    string    `json:"image_url,omitempty"`
	Description string    `json:"description,omitempty"`
	Quantity    int       `json:"quantity"`
}

// RoadmapEntry is one unlockable milestone on the reward track: a rank to
// reach or a streak length to hold, with the items it pays out and where
// the caller stands against it.
type RoadmapEntry struct {
	SourceType string          `json:"source_type"`
	RankLevel  int             `json:"rank_level,omitempty"`
	RankName   string          `json:"rank_name,omitempty"`
	DayNumber  int             `json:"day_number,omitempty"`
	Title      string          `json:"title,omitempty"`
	Status     string          `json:"status"`
	InboxID    *uuid.UUID      `json:"inbox_id,omitempty"`
	ClaimedAt  *time.Time      `json:"claimed_at,omitempty"`
	Items      []RewardItemDTO `json:"items"`
}

type RoadmapInput struct {
	SourceType string
	Status     string
	Page       int
	PageSize   int
}

type RoadmapResult struct {
	Entries    []RoadmapEntry `json:"entries"`
	Pagination Pagination     `json:"pagination"`
}

type ClaimResult struct {
	InboxID   uuid.UUID       `json:"inbox_id"`
	ClaimedAt time.Time       `json:"claimed_at"`
	Items     []RewardItemDTO `json:"items"`
}

// RewardService exposes the reward roadmap and turns earned inbox entries
// into inventory.
type RewardService interface {
	Roadmap(ctx context.Context, input RoadmapInput) (*RoadmapResult, error)
	Claim(ctx context.Context, inboxID uuid.UUID) (*ClaimResult, error)
}

type rewardService struct {
	db            *gorm.DB
	log           *logger.Logger
	rankRepo      repos.RankRepo
	streakRepo    repos.StreakRepo
	inboxRepo     repos.RewardInboxRepo
	inventoryRepo repos.InventoryRepo
	catalogCache  *cache.CatalogCache
}

func NewRewardService(
	db *gorm.DB,
	log *logger.Logger,
	rankRepo repos.RankRepo,
	streakRepo repos.StreakRepo,
	inboxRepo repos.RewardInboxRepo,
	inventoryRepo repos.InventoryRepo,
	catalogCache *cache.CatalogCache,
) RewardService {
	return &rewardService{
		db:            db,
		log:           log.With("service", "RewardService"),
		rankRepo:      rankRepo,
		streakRepo:    streakRepo,
		inboxRepo:     inboxRepo,
		inventoryRepo: inventoryRepo,
		catalogCache:  catalogCache,
	}
}

func (rs *rewardService) Roadmap(ctx context.Context, input RoadmapInput) (*RoadmapResult, error) {
	if input.SourceType != "" && input.SourceType != types.RewardSourceRank && input.SourceType != types.RewardSourceStreak {
		return nil, apierr.BadRequest("invalid_source_type", fmt.Errorf("unknown reward source %q", input.SourceType))
	}
	switch input.Status {
	case "", RewardStatusLocked, RewardStatusClaimable, RewardStatusClaimed:
	default:
		return nil, apierr.BadRequest("invalid_status", fmt.Errorf("unknown reward status %q", input.Status))
	}

	entries, err := rs.buildEntries(ctx, input.SourceType)
	if err != nil {
		return nil, err
	}

	// Guests see the full track but everything stays locked; inbox state
	// only exists for registered learners.
	rd := requestdata.GetRequestData(ctx)
	if rd != nil && rd.IsRegistered() {
		if err := rs.applyInboxState(ctx, rd.UserID, input.SourceType, entries); err != nil {
			return nil, err
		}
	}

	if input.Status != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Status == input.Status {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize < 1 {
		pageSize = defaultRoadmapPageSize
	}
	if pageSize > maxRoadmapPageSize {
		pageSize = maxRoadmapPageSize
	}

	total := int64(len(entries))
	start := (page - 1) * pageSize
	if start > len(entries) {
		start = len(entries)
	}
	end := start + pageSize
	if end > len(entries) {
		end = len(entries)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &RoadmapResult{
		Entries: entries[start:end],
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// buildEntries lists every catalog milestone that actually carries items,
// rank track first, each track in ascending order.
func (rs *rewardService) buildEntries(ctx context.Context, sourceType string) ([]RoadmapEntry, error) {
	var entries []RoadmapEntry

	if sourceType == "" || sourceType == types.RewardSourceRank {
		ranks, err := rs.listRanks(ctx)
		if err != nil {
			return nil, err
		}
		rankIDs := make([]uuid.UUID, 0, len(ranks))
		for _, r := range ranks {
			rankIDs = append(rankIDs, r.ID)
		}
		rewards, err := rs.rankRepo.ListRewardsByRankIDs(ctx, nil, rankIDs)
		if err != nil {
			return nil, fmt.Errorf("load rank rewards: %w", err)
		}
		itemsByRank := make(map[uuid.UUID][]RewardItemDTO)
		for _, rw := range rewards {
			itemsByRank[rw.RankID] = append(itemsByRank[rw.RankID], rewardItemDTO(rw.Item, rw.Quantity))
		}
		for _, r := range ranks {
			items := itemsByRank[r.ID]
			if len(items) == 0 {
				continue
			}
			entries = append(entries, RoadmapEntry{
				SourceType: types.RewardSourceRank,
				RankLevel:  r.RankLevel,
				RankName:   r.RankName,
				Status:     RewardStatusLocked,
				Items:      items,
			})
		}
	}

	if sourceType == "" || sourceType == types.RewardSourceStreak {
		milestones, err := rs.listMilestones(ctx)
		if err != nil {
			return nil, err
		}
		streakIDs := make([]uuid.UUID, 0, len(milestones))
		for _, m := range milestones {
			streakIDs = append(streakIDs, m.ID)
		}
		rewards, err := rs.streakRepo.ListRewardsByStreakIDs(ctx, nil, streakIDs)
		if err != nil {
			return nil, fmt.Errorf("load streak rewards: %w", err)
		}
		itemsByStreak := make(map[uuid.UUID][]RewardItemDTO)
		for _, rw := range rewards {
			itemsByStreak[rw.StreakID] = append(itemsByStreak[rw.StreakID], rewardItemDTO(rw.Item, rw.Quantity))
		}
		for _, m := range milestones {
			items := itemsByStreak[m.ID]
			if len(items) == 0 {
				continue
			}
			entries = append(entries, RoadmapEntry{
				SourceType: types.RewardSourceStreak,
				DayNumber:  m.DayNumber,
				Title:      m.Title,
				Status:     RewardStatusLocked,
				Items:      items,
			})
		}
	}
	return entries, nil
}

// applyInboxState marks the entries the learner has earned: CLAIMABLE when
// the inbox row is open, CLAIMED once it carries a claim timestamp.
func (rs *rewardService) applyInboxState(ctx context.Context, userID uuid.UUID, sourceType string, entries []RoadmapEntry) error {
	inbox, err := rs.inboxRepo.ListByUser(ctx, nil, userID, sourceType)
	if err != nil {
		return fmt.Errorf("load reward inbox: %w", err)
	}
	if len(inbox) == 0 {
		return nil
	}

	byRank := make(map[uuid.UUID]*types.RewardInbox)
	byStreak := make(map[uuid.UUID]*types.RewardInbox)
	for _, row := range inbox {
		if row.RankID != nil {
			byRank[*row.RankID] = row
		}
		if row.StreakID != nil {
			byStreak[*row.StreakID] = row
		}
	}

	rankIDByLevel := make(map[int]uuid.UUID)
	if ranks, err := rs.listRanks(ctx); err == nil {
		for _, r := range ranks {
			rankIDByLevel[r.RankLevel] = r.ID
		}
	} else {
		return err
	}
	streakIDByDay := make(map[int]uuid.UUID)
	if milestones, err := rs.listMilestones(ctx); err == nil {
		for _, m := range milestones {
			streakIDByDay[m.DayNumber] = m.ID
		}
	} else {
		return err
	}

	for i := range entries {
		var row *types.RewardInbox
		switch entries[i].SourceType {
		case types.RewardSourceRank:
			if id, ok := rankIDByLevel[entries[i].RankLevel]; ok {
				row = byRank[id]
			}
		case types.RewardSourceStreak:
			if id, ok := streakIDByDay[entries[i].DayNumber]; ok {
				row = byStreak[id]
			}
		}
		if row == nil {
			continue
		}
		inboxID := row.ID
		entries[i].InboxID = &inboxID
		if row.ClaimedAt != nil {
			entries[i].Status = RewardStatusClaimed
			entries[i].ClaimedAt = row.ClaimedAt
		} else {
			entries[i].Status = RewardStatusClaimable
		}
	}
	return nil
}

func (rs *rewardService) Claim(ctx context.Context, inboxID uuid.UUID) (*ClaimResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || !rd.IsRegistered() {
		return nil, apierr.Unauthorized("registered_only", fmt.Errorf("claiming rewards requires a registered learner"))
	}

	var result *ClaimResult
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := rs.inboxRepo.GetByIDForUser(ctx, tx, inboxID, rd.UserID)
		if err != nil {
			return fmt.Errorf("load inbox entry: %w", err)
		}
		if row == nil {
			return apierr.NotFound("reward_not_found", fmt.Errorf("no such earned reward for this learner"))
		}
		if row.ClaimedAt != nil {
			return apierr.Conflict("reward_already_claimed", fmt.Errorf("reward was claimed at %s", row.ClaimedAt.Format(time.RFC3339)))
		}

		items, err := rs.itemsForInbox(ctx, tx, row)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apierr.Internal("reward_catalog_empty", fmt.Errorf("inbox entry has no catalog rewards behind it"))
		}

		now := time.Now().UTC()
		for _, item := range items {
			if err := rs.inventoryRepo.UpsertAdd(ctx, tx, rd.UserID, item.ItemID, item.Quantity, &row.ID, now); err != nil {
				return fmt.Errorf("grant item %s: %w", item.ItemName, err)
			}
		}
		if err := rs.inboxRepo.MarkClaimed(ctx, tx, row.ID, now); err != nil {
			return fmt.Errorf("mark claimed: %w", err)
		}

		sort.Slice(items, func(i, j int) bool { return items[i].ItemName < items[j].ItemName })
		result = &ClaimResult{InboxID: row.ID, ClaimedAt: now, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (rs *rewardService) itemsForInbox(ctx context.Context, tx *gorm.DB, row *types.RewardInbox) ([]RewardItemDTO, error) {
	switch {
	case row.RankID != nil:
		rewards, err := rs.rankRepo.ListRewardsByRankIDs(ctx, tx, []uuid.UUID{*row.RankID})
		if err != nil {
			return nil, fmt.Errorf("load rank rewards: %w", err)
		}
		items := make([]RewardItemDTO, 0, len(rewards))
		for _, rw := range rewards {
			items = append(items, rewardItemDTO(rw.Item, rw.Quantity))
		}
		return items, nil
	case row.StreakID != nil:
		rewards, err := rs.streakRepo.ListRewardsByStreakIDs(ctx, tx, []uuid.UUID{*row.StreakID})
		if err != nil {
			return nil, fmt.Errorf("load streak rewards: %w", err)
		}
		items := make([]RewardItemDTO, 0, len(rewards))
		for _, rw := range rewards {
			items = append(items, rewardItemDTO(rw.Item, rw.Quantity))
		}
		return items, nil
	default:
		return nil, apierr.Internal("inbox_integrity", fmt.Errorf("inbox entry carries neither a rank nor a streak source"))
	}
}

func (rs *rewardService) listRanks(ctx context.Context) ([]*types.Rank, error) {
	if cached, ok := rs.catalogCache.GetRanks(ctx); ok {
		return cached, nil
	}
	ranks, err := rs.rankRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load rank catalog: %w", err)
	}
	rs.catalogCache.SetRanks(ctx, ranks)
	return ranks, nil
}

func (rs *rewardService) listMilestones(ctx context.Context) ([]*types.StreakMilestone, error) {
	if cached, ok := rs.catalogCache.GetMilestones(ctx); ok {
		return cached, nil
	}
	milestones, err := rs.streakRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load streak catalog: %w", err)
	}
	rs.catalogCache.SetMilestones(ctx, milestones)
	return milestones, nil
}

func rewardItemDTO(item *types.Item, quantity int) RewardItemDTO {
	dto := RewardItemDTO{Quantity: quantity}
	if item != nil {
		dto.ItemID = item.ID
		dto.ItemName = item.ItemName
		dto.ItemType = item.ItemType
		dto.ImageURL = item.ImageURL
		dto.Description = item.Description
	}
	return dto
}
