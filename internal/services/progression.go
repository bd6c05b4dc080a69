package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/cache"
	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/repos"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

const (
	xpPerCorrectAnswer = 10
	xpPerfectBonus     = 50
)

// referenceZone fixes the streak day boundary to UTC+7 for every learner,
// so "today" does not shift with the caller's device timezone.
var referenceZone = time.FixedZone("UTC+7", 7*60*60)

type RankInfo struct {
	RankLevel int    `json:"rank_level"`
	RankName  string `json:"rank_name"`
}

type NextRankInfo struct {
	RankLevel   int    `json:"rank_level"`
	RankName    string `json:"rank_name"`
	NeededXP    int    `json:"needed_xp"`
	RemainingXP int    `json:"remaining_xp"`
}

type RewardGrant struct {
	InboxID    uuid.UUID `json:"inbox_id"`
	SourceType string    `json:"source_type"`
	Name       string    `json:"name"`
}

type ProgressionResult struct {
	AwardedXP     int           `json:"awarded_xp"`
	CurrentXP     int           `json:"current_xp"`
	CurrentStreak int           `json:"current_streak"`
	LongestStreak int           `json:"longest_streak"`
	CurrentRank   *RankInfo     `json:"current_rank,omitempty"`
	NextRank      *NextRankInfo `json:"next_rank,omitempty"`
	NewRewards    []RewardGrant `json:"new_rewards"`
}

type ProgressionStats struct {
	FinishedAttempts int64   `json:"finished_attempts"`
	StudiedWords     int64   `json:"studied_words"`
	ActiveDays       int64   `json:"active_days"`
	AccuracyPercent  float64 `json:"accuracy_percent"`
}

type ProgressionSnapshot struct {
	CurrentXP     int              `json:"current_xp"`
	CurrentStreak int              `json:"current_streak"`
	LongestStreak int              `json:"longest_streak"`
	LastStudyDate *time.Time       `json:"last_study_date,omitempty"`
	CurrentRank   *RankInfo        `json:"current_rank,omitempty"`
	NextRank      *NextRankInfo    `json:"next_rank,omitempty"`
	Stats         ProgressionStats `json:"stats"`
}

// ProgressionService is the XP / streak / rank ledger. Apply runs inside
// the finishing transaction so a quiz either lands with all of its ledger
// effects or not at all.
type ProgressionService interface {
	Apply(ctx context.Context, tx *gorm.DB, userID uuid.UUID, totalQuestions, correctAnswers int, now time.Time) (*ProgressionResult, error)
	Snapshot(ctx context.Context, userID uuid.UUID) (*ProgressionSnapshot, error)
}

type progressionService struct {
	db              *gorm.DB
	log             *logger.Logger
	userRepo        repos.UserRepo
	effectRepo      repos.EffectRepo
	activityRepo    repos.ActivityRepo
	streakRepo      repos.StreakRepo
	rankRepo        repos.RankRepo
	rankHistoryRepo repos.RankHistoryRepo
	inboxRepo       repos.RewardInboxRepo
	attemptRepo     repos.QuizAttemptRepo
	progressRepo    repos.WordProgressRepo
	catalogCache    *cache.CatalogCache
}

func NewProgressionService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	effectRepo repos.EffectRepo,
	activityRepo repos.ActivityRepo,
	streakRepo repos.StreakRepo,
	rankRepo repos.RankRepo,
	rankHistoryRepo repos.RankHistoryRepo,
	inboxRepo repos.RewardInboxRepo,
	attemptRepo repos.QuizAttemptRepo,
	progressRepo repos.WordProgressRepo,
	catalogCache *cache.CatalogCache,
) ProgressionService {
	return &progressionService{
		db:              db,
		log:             log.With("service", "ProgressionService"),
		userRepo:        userRepo,
		effectRepo:      effectRepo,
		activityRepo:    activityRepo,
		streakRepo:      streakRepo,
		rankRepo:        rankRepo,
		rankHistoryRepo: rankHistoryRepo,
		inboxRepo:       inboxRepo,
		attemptRepo:     attemptRepo,
		progressRepo:    progressRepo,
		catalogCache:    catalogCache,
	}
}

func (ps *progressionService) Apply(ctx context.Context, tx *gorm.DB, userID uuid.UUID, totalQuestions, correctAnswers int, now time.Time) (*ProgressionResult, error) {
	user, err := ps.userRepo.GetByID(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	awarded, err := ps.computeXP(ctx, tx, userID, totalQuestions, correctAnswers, now)
	if err != nil {
		return nil, err
	}

	result := &ProgressionResult{
		AwardedXP:  awarded,
		NewRewards: []RewardGrant{},
	}

	streakChanged, err := ps.advanceStreak(ctx, tx, user, now)
	if err != nil {
		return nil, err
	}
	if streakChanged {
		grant, err := ps.grantStreakReward(ctx, tx, userID, user.CurrentStreak)
		if err != nil {
			return nil, err
		}
		if grant != nil {
			result.NewRewards = append(result.NewRewards, *grant)
		}
	}

	if err := ps.rollForwardRank(ctx, tx, user, awarded, now, result); err != nil {
		return nil, err
	}

	user.LastStudyDate = &now
	if err := ps.userRepo.UpdateProgression(ctx, tx, user); err != nil {
		return nil, fmt.Errorf("persist progression: %w", err)
	}

	result.CurrentXP = user.CurrentXP
	result.CurrentStreak = user.CurrentStreak
	result.LongestStreak = user.LongestStreak
	return result, nil
}

// computeXP scores the quiz and applies the single largest active XP
// multiplier. Multipliers never stack.
func (ps *progressionService) computeXP(ctx context.Context, tx *gorm.DB, userID uuid.UUID, totalQuestions, correctAnswers int, now time.Time) (int, error) {
	base := correctAnswers * xpPerCorrectAnswer
	if totalQuestions > 0 && correctAnswers == totalQuestions {
		base += xpPerfectBonus
	}
	if base == 0 {
		return 0, nil
	}
	effects, err := ps.effectRepo.ListActiveByUser(ctx, tx, userID, types.EffectTypeXPMultiplier, now)
	if err != nil {
		return 0, fmt.Errorf("load active effects: %w", err)
	}
	multiplier := 1.0
	for _, e := range effects {
		if e.EffectValue > multiplier {
			multiplier = e.EffectValue
		}
	}
	return int(math.Round(float64(base) * multiplier)), nil
}

// advanceStreak updates the consecutive-day counter and stamps today's
// activity marker. It reports whether the streak value moved.
func (ps *progressionService) advanceStreak(ctx context.Context, tx *gorm.DB, user *types.User, now time.Time) (bool, error) {
	today := dayStart(now)
	changed := false
	switch {
	case user.LastStudyDate == nil:
		user.CurrentStreak = 1
		changed = true
	default:
		lastDay := dayStart(*user.LastStudyDate)
		switch diffDays(lastDay, today) {
		case 0:
			// Already studied today.
		case 1:
			user.CurrentStreak++
			changed = true
		default:
			user.CurrentStreak = 1
			changed = true
		}
	}
	if user.CurrentStreak > user.LongestStreak {
		user.LongestStreak = user.CurrentStreak
	}

	marker := &types.UserActivity{
		ID:           uuid.New(),
		UserID:       user.ID,
		ActivityDate: today,
	}
	if err := ps.activityRepo.CreateIgnoreDuplicate(ctx, tx, marker); err != nil {
		return false, fmt.Errorf("stamp activity day: %w", err)
	}
	return changed, nil
}

// grantStreakReward delivers the milestone reward for the new streak
// value, at most once per (learner, milestone). A duplicate insert means
// the milestone was hit in an earlier streak run and is not re-reported.
func (ps *progressionService) grantStreakReward(ctx context.Context, tx *gorm.DB, userID uuid.UUID, streak int) (*RewardGrant, error) {
	milestone, err := ps.streakRepo.GetByDayNumber(ctx, tx, streak)
	if err != nil {
		return nil, fmt.Errorf("lookup streak milestone: %w", err)
	}
	if milestone == nil {
		return nil, nil
	}
	rewards, err := ps.streakRepo.ListRewardsByStreakIDs(ctx, tx, []uuid.UUID{milestone.ID})
	if err != nil {
		return nil, fmt.Errorf("lookup streak rewards: %w", err)
	}
	if len(rewards) == 0 {
		return nil, nil
	}
	inbox := &types.RewardInbox{
		ID:         uuid.New(),
		UserID:     userID,
		SourceType: types.RewardSourceStreak,
		StreakID:   &milestone.ID,
	}
	inserted, err := ps.inboxRepo.CreateIgnoreDuplicate(ctx, tx, inbox)
	if err != nil {
		return nil, fmt.Errorf("create streak reward inbox: %w", err)
	}
	if !inserted {
		return nil, nil
	}
	return &RewardGrant{
		InboxID:    inbox.ID,
		SourceType: types.RewardSourceStreak,
		Name:       milestone.Title,
	}, nil
}

// rollForwardRank adds the awarded XP and walks the rank ladder while the
// remainder still pays for the next rank. The loop is bounded by the
// catalog: it stops at the highest configured rank.
func (ps *progressionService) rollForwardRank(ctx context.Context, tx *gorm.DB, user *types.User, awarded int, now time.Time, result *ProgressionResult) error {
	ranksByLevel, err := ps.ranksByLevel(ctx, tx)
	if err != nil {
		return err
	}

	current, err := ps.rankHistoryRepo.GetCurrentByUser(ctx, tx, user.ID)
	if err != nil {
		return fmt.Errorf("load current rank: %w", err)
	}
	if current == nil {
		first, ok := ranksByLevel[1]
		if !ok {
			return fmt.Errorf("rank catalog has no level 1")
		}
		current = &types.UserRankHistory{
			ID:         uuid.New(),
			UserID:     user.ID,
			RankID:     first.ID,
			AchievedAt: now,
			Current:    boolPtr(true),
		}
		if err := ps.rankHistoryRepo.Create(ctx, tx, current); err != nil {
			return fmt.Errorf("open initial rank entry: %w", err)
		}
	}

	currentRank, err := ps.rankRepo.GetByID(ctx, tx, current.RankID)
	if err != nil {
		return fmt.Errorf("load rank row: %w", err)
	}

	xp := user.CurrentXP + awarded
	level := currentRank.RankLevel
	for {
		next, ok := ranksByLevel[level+1]
		if !ok || xp < next.NeededXP {
			break
		}
		xp -= next.NeededXP

		if err := ps.rankHistoryRepo.Close(ctx, tx, current.ID, now); err != nil {
			return fmt.Errorf("close rank entry: %w", err)
		}
		current = &types.UserRankHistory{
			ID:         uuid.New(),
			UserID:     user.ID,
			RankID:     next.ID,
			AchievedAt: now,
			Current:    boolPtr(true),
		}
		if err := ps.rankHistoryRepo.Create(ctx, tx, current); err != nil {
			return fmt.Errorf("open rank entry: %w", err)
		}

		grant, err := ps.grantRankReward(ctx, tx, user.ID, next)
		if err != nil {
			return err
		}
		if grant != nil {
			result.NewRewards = append(result.NewRewards, *grant)
		}

		level = next.RankLevel
		currentRank = next
	}

	user.CurrentXP = xp
	result.CurrentRank = &RankInfo{RankLevel: currentRank.RankLevel, RankName: currentRank.RankName}
	if next, ok := ranksByLevel[level+1]; ok {
		remaining := next.NeededXP - xp
		if remaining < 0 {
			remaining = 0
		}
		result.NextRank = &NextRankInfo{
			RankLevel:   next.RankLevel,
			RankName:    next.RankName,
			NeededXP:    next.NeededXP,
			RemainingXP: remaining,
		}
	}
	return nil
}

func (ps *progressionService) grantRankReward(ctx context.Context, tx *gorm.DB, userID uuid.UUID, rank *types.Rank) (*RewardGrant, error) {
	rewards, err := ps.rankRepo.ListRewardsByRankIDs(ctx, tx, []uuid.UUID{rank.ID})
	if err != nil {
		return nil, fmt.Errorf("lookup rank rewards: %w", err)
	}
	if len(rewards) == 0 {
		return nil, nil
	}
	inbox := &types.RewardInbox{
		ID:         uuid.New(),
		UserID:     userID,
		SourceType: types.RewardSourceRank,
		RankID:     &rank.ID,
	}
	inserted, err := ps.inboxRepo.CreateIgnoreDuplicate(ctx, tx, inbox)
	if err != nil {
		return nil, fmt.Errorf("create rank reward inbox: %w", err)
	}
	if !inserted {
		return nil, nil
	}
	return &RewardGrant{
		InboxID:    inbox.ID,
		SourceType: types.RewardSourceRank,
		Name:       rank.RankName,
	}, nil
}

func (ps *progressionService) Snapshot(ctx context.Context, userID uuid.UUID) (*ProgressionSnapshot, error) {
	snapshot := &ProgressionSnapshot{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		user, err := ps.userRepo.GetByID(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		snapshot.CurrentXP = user.CurrentXP
		snapshot.CurrentStreak = user.CurrentStreak
		snapshot.LongestStreak = user.LongestStreak
		snapshot.LastStudyDate = user.LastStudyDate
		return nil
	})

	g.Go(func() error {
		current, err := ps.rankHistoryRepo.GetCurrentByUser(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("load current rank: %w", err)
		}
		ranksByLevel, err := ps.ranksByLevel(gctx, nil)
		if err != nil {
			return err
		}
		level := 1
		if current != nil {
			rank, err := ps.rankRepo.GetByID(gctx, nil, current.RankID)
			if err != nil {
				return fmt.Errorf("load rank row: %w", err)
			}
			level = rank.RankLevel
			snapshot.CurrentRank = &RankInfo{RankLevel: rank.RankLevel, RankName: rank.RankName}
		} else if first, ok := ranksByLevel[1]; ok {
			snapshot.CurrentRank = &RankInfo{RankLevel: first.RankLevel, RankName: first.RankName}
		}
		if next, ok := ranksByLevel[level+1]; ok {
			snapshot.NextRank = &NextRankInfo{
				RankLevel: next.RankLevel,
				RankName:  next.RankName,
				NeededXP:  next.NeededXP,
			}
		}
		return nil
	})

	g.Go(func() error {
		finished, err := ps.attemptRepo.CountFinishedByUser(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("count finished attempts: %w", err)
		}
		snapshot.Stats.FinishedAttempts = finished

		total, correct, err := ps.attemptRepo.SumAnswersByUser(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("sum attempt answers: %w", err)
		}
		if total > 0 {
			snapshot.Stats.AccuracyPercent = math.Round(float64(correct)/float64(total)*1000) / 10
		}

		studied, err := ps.progressRepo.CountStudiedByUser(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("count studied words: %w", err)
		}
		snapshot.Stats.StudiedWords = studied

		days, err := ps.activityRepo.CountByUser(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("count active days: %w", err)
		}
		snapshot.Stats.ActiveDays = days
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if snapshot.NextRank != nil {
		remaining := snapshot.NextRank.NeededXP - snapshot.CurrentXP
		if remaining < 0 {
			remaining = 0
		}
		snapshot.NextRank.RemainingXP = remaining
	}
	return snapshot, nil
}

func (ps *progressionService) ranksByLevel(ctx context.Context, tx *gorm.DB) (map[int]*types.Rank, error) {
	var ranks []*types.Rank
	if cached, ok := ps.catalogCache.GetRanks(ctx); ok {
		ranks = cached
	} else {
		loaded, err := ps.rankRepo.ListAll(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("load rank catalog: %w", err)
		}
		ranks = loaded
		ps.catalogCache.SetRanks(ctx, ranks)
	}
	byLevel := make(map[int]*types.Rank, len(ranks))
	for _, r := range ranks {
		byLevel[r.RankLevel] = r
	}
	return byLevel, nil
}

func dayStart(t time.Time) time.Time {
	local := t.In(referenceZone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, referenceZone)
}

func diffDays(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

func boolPtr(v bool) *bool { return &v }
