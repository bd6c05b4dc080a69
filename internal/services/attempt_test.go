package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/apierr"
	"github.com/vocaquiz/vocaquiz-backend/internal/repos"
	"github.com/vocaquiz/vocaquiz-backend/internal/requestdata"
	"github.com/vocaquiz/vocaquiz-backend/internal/testutil"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

func newAttemptForTest(t *testing.T) (AttemptService, *gorm.DB) {
	t.Helper()
	gdb := testutil.NewDB(t)
	log := testutil.NewLogger(t)

	wordRepo := repos.NewWordRepo(gdb, log)
	progressRepo := repos.NewWordProgressRepo(gdb, log)
	scheduler := NewSchedulerService(gdb, log, wordRepo, progressRepo)
	progression := NewProgressionService(
		gdb, log,
		repos.NewUserRepo(gdb, log),
		repos.NewEffectRepo(gdb, log),
		repos.NewActivityRepo(gdb, log),
		repos.NewStreakRepo(gdb, log),
		repos.NewRankRepo(gdb, log),
		repos.NewRankHistoryRepo(gdb, log),
		repos.NewRewardInboxRepo(gdb, log),
		repos.NewQuizAttemptRepo(gdb, log),
		progressRepo,
		nil,
	)
	svc := NewAttemptService(
		gdb, log,
		repos.NewTopicRepo(gdb, log),
		wordRepo,
		repos.NewQuestionRepo(gdb, log),
		repos.NewAnswerOptionRepo(gdb, log),
		repos.NewQuizAttemptRepo(gdb, log),
		repos.NewAttemptAnswerRepo(gdb, log),
		scheduler,
		progression,
	)
	return svc, gdb
}

func guestCtx(key string) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{GuestKey: key})
}

func userCtx(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

// seedQuizPool creates a topic with level-1 words, one multiple choice
// question per word, and returns the correct option per question.
func seedQuizPool(t *testing.T, gdb *gorm.DB, words int) (*types.Topic, map[uuid.UUID]uuid.UUID) {
	t.Helper()
	topic := testutil.SeedTopic(t, gdb, "Verbs", 2)
	correctByQuestion := make(map[uuid.UUID]uuid.UUID, words)
	for i := 0; i < words; i++ {
		word := testutil.SeedWord(t, gdb, topic.ID, "word-"+uuid.NewString(), 1)
		question, correct := testutil.SeedChoiceQuestion(t, gdb, &word.ID, "pick the meaning", 3)
		correctByQuestion[question.ID] = correct.ID
	}
	return topic, correctByQuestion
}

func intPtr(v int) *int { return &v }

func TestGuestTopicStartAndSubmitIdempotent(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	topic, correctByQuestion := seedQuizPool(t, gdb, 3)
	ctx := guestCtx("device-1")

	started, err := svc.Start(ctx, StartAttemptInput{
		Mode:    types.AttemptModeTopic,
		TopicID: &topic.ID,
		Level:   intPtr(1),
		Size:    3,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Attempt.TotalQuestions != 3 {
		t.Fatalf("total questions: want=3 got=%d", started.Attempt.TotalQuestions)
	}
	if started.Page.Cursor != 0 || started.Page.Question == nil {
		t.Fatalf("first page malformed: %+v", started.Page)
	}

	questionID := started.Page.Question.QuestionID
	correctID := correctByQuestion[questionID]

	result, err := svc.Submit(ctx, started.Attempt.ID, 0, SubmitInput{SelectedOptionID: &correctID})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.IsCorrect || result.AlreadyAnswered {
		t.Fatalf("first submit: want correct fresh grade, got=%+v", result)
	}

	// Replaying with a different option returns the original grade and
	// does not change the stored answer.
	var wrongID uuid.UUID
	for _, id := range correctByQuestion {
		if id != correctID {
			wrongID = id
			break
		}
	}
	replay, err := svc.Submit(ctx, started.Attempt.ID, 0, SubmitInput{SelectedOptionID: &wrongID})
	if err != nil {
		t.Fatalf("Submit replay: %v", err)
	}
	if !replay.AlreadyAnswered || !replay.IsCorrect {
		t.Fatalf("replay: want already-answered correct, got=%+v", replay)
	}

	var stored types.AttemptAnswer
	if err := gdb.Where("attempt_id = ? AND position = ?", started.Attempt.ID, 0).First(&stored).Error; err != nil {
		t.Fatalf("load stored answer: %v", err)
	}
	if stored.SelectedOptionID == nil || *stored.SelectedOptionID != correctID {
		t.Fatalf("stored option changed by replay: %+v", stored.SelectedOptionID)
	}
}

func TestSubmitReturnsNextQuestion(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	topic, correctByQuestion := seedQuizPool(t, gdb, 3)
	ctx := guestCtx("device-1")

	started, err := svc.Start(ctx, StartAttemptInput{
		Mode:    types.AttemptModeTopic,
		TopicID: &topic.ID,
		Level:   intPtr(1),
		Size:    3,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	correctID := correctByQuestion[started.Page.Question.QuestionID]
	result, err := svc.Submit(ctx, started.Attempt.ID, 0, SubmitInput{SelectedOptionID: &correctID})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Next == nil || result.Next.Cursor != 1 || result.Next.Question == nil {
		t.Fatalf("submit must carry the next question page, got=%+v", result.Next)
	}
	if result.Next.Question.Answered {
		t.Fatalf("untouched next question reported as answered: %+v", result.Next.Question)
	}

	nextCorrect := correctByQuestion[result.Next.Question.QuestionID]
	if _, err := svc.Submit(ctx, started.Attempt.ID, 1, SubmitInput{SelectedOptionID: &nextCorrect}); err != nil {
		t.Fatalf("Submit position 1: %v", err)
	}

	// Replaying position 0 still returns the page at position 1, now
	// merged with the answer recorded there.
	replay, err := svc.Submit(ctx, started.Attempt.ID, 0, SubmitInput{SelectedOptionID: &correctID})
	if err != nil {
		t.Fatalf("Submit replay: %v", err)
	}
	if replay.Next == nil || replay.Next.Cursor != 1 {
		t.Fatalf("replay must carry the next question page, got=%+v", replay.Next)
	}
	if !replay.Next.Question.Answered || replay.Next.Question.IsCorrect == nil || !*replay.Next.Question.IsCorrect {
		t.Fatalf("replay next page missing the recorded answer: %+v", replay.Next.Question)
	}

	lastPage, err := svc.GetQuestion(ctx, started.Attempt.ID, 2)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	lastCorrect := correctByQuestion[lastPage.Question.QuestionID]
	last, err := svc.Submit(ctx, started.Attempt.ID, 2, SubmitInput{SelectedOptionID: &lastCorrect})
	if err != nil {
		t.Fatalf("Submit last: %v", err)
	}
	if !last.Finished || last.Next != nil {
		t.Fatalf("final submit: want finished with no next page, got=%+v", last)
	}
}

func TestRandomDrawsTopicAgnosticQuestions(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	// The whole pool carries no word attachment.
	correctByQuestion := make(map[uuid.UUID]uuid.UUID, 3)
	for i := 0; i < 3; i++ {
		question, correct := testutil.SeedChoiceQuestion(t, gdb, nil, "general knowledge", 3)
		correctByQuestion[question.ID] = correct.ID
	}
	ctx := guestCtx("device-1")

	started, err := svc.Start(ctx, StartAttemptInput{Mode: types.AttemptModeRandom, Size: 3})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Attempt.TotalQuestions != 3 {
		t.Fatalf("total questions: want=3 got=%d", started.Attempt.TotalQuestions)
	}

	correctID := correctByQuestion[started.Page.Question.QuestionID]
	result, err := svc.Submit(ctx, started.Attempt.ID, 0, SubmitInput{SelectedOptionID: &correctID})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.IsCorrect {
		t.Fatalf("wordless question should grade normally: %+v", result)
	}
}

func TestGuestLearnModeRejected(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	topic, _ := seedQuizPool(t, gdb, 2)
	ctx := guestCtx("device-1")

	_, err := svc.Start(ctx, StartAttemptInput{
		Mode:    types.AttemptModeLearn,
		TopicID: &topic.ID,
		Level:   intPtr(1),
	})
	if err == nil {
		t.Fatalf("guest LEARN start should fail")
	}
	apiErr := apierr.From(err)
	if apiErr.Status != 403 {
		t.Fatalf("guest LEARN status: want=403 got=%d", apiErr.Status)
	}
}

func TestSingleAttemptInFlightPerOwner(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	topic, _ := seedQuizPool(t, gdb, 2)
	ctx := guestCtx("device-1")

	input := StartAttemptInput{
		Mode:    types.AttemptModeTopic,
		TopicID: &topic.ID,
		Level:   intPtr(1),
		Size:    2,
	}
	first, err := svc.Start(ctx, input)
	if err != nil {
		t.Fatalf("first Start: %v", err)
	}

	_, err = svc.Start(ctx, input)
	var activeErr *ActiveAttemptError
	if !errors.As(err, &activeErr) {
		t.Fatalf("second Start: want ActiveAttemptError, got=%v", err)
	}
	if activeErr.Attempt == nil || activeErr.Attempt.ID != first.Attempt.ID {
		t.Fatalf("conflict should carry the existing attempt: %+v", activeErr.Attempt)
	}

	// A different guest is unaffected.
	if _, err := svc.Start(guestCtx("device-2"), input); err != nil {
		t.Fatalf("other guest Start: %v", err)
	}
}

func TestFinishRecomputesFromAnswers(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	topic, correctByQuestion := seedQuizPool(t, gdb, 3)
	ctx := guestCtx("device-1")

	started, err := svc.Start(ctx, StartAttemptInput{
		Mode:    types.AttemptModeTopic,
		TopicID: &topic.ID,
		Level:   intPtr(1),
		Size:    3,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Answer position 0 correctly, leave 1 and 2 unanswered.
	correctID := correctByQuestion[started.Page.Question.QuestionID]
	if _, err := svc.Submit(ctx, started.Attempt.ID, 0, SubmitInput{SelectedOptionID: &correctID}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	finished, err := svc.Finish(ctx, started.Attempt.ID)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if finished.Attempt.Status != types.AttemptStatusFinished {
		t.Fatalf("status: want=FINISHED got=%s", finished.Attempt.Status)
	}
	if finished.Attempt.TotalQuestions != 3 || finished.Attempt.CorrectAnswers != 1 {
		t.Fatalf("recomputed totals: want 3/1 got %d/%d", finished.Attempt.TotalQuestions, finished.Attempt.CorrectAnswers)
	}
	if finished.Progression != nil {
		t.Fatalf("guest attempt must not touch progression")
	}

	// The owner slot is free again.
	if _, err := svc.Start(ctx, StartAttemptInput{
		Mode:    types.AttemptModeTopic,
		TopicID: &topic.ID,
		Level:   intPtr(1),
		Size:    2,
	}); err != nil {
		t.Fatalf("Start after finish: %v", err)
	}

	// Finishing twice is a conflict.
	_, err = svc.Finish(ctx, started.Attempt.ID)
	if apiErr := apierr.From(err); apiErr.Status != 409 {
		t.Fatalf("double finish status: want=409 got=%d", apiErr.Status)
	}
}

func TestRegisteredFinishAppliesProgressionAndScheduler(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	topic, correctByQuestion := seedQuizPool(t, gdb, 2)
	testutil.SeedRank(t, gdb, 1, 0, "Wood")
	testutil.SeedRank(t, gdb, 2, 100, "Stone")
	user := testutil.SeedUser(t, gdb, "learner@test.dev")
	ctx := userCtx(user.ID)

	started, err := svc.Start(ctx, StartAttemptInput{
		Mode:    types.AttemptModeTopic,
		TopicID: &topic.ID,
		Level:   intPtr(1),
		Size:    2,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	correctID := correctByQuestion[started.Page.Question.QuestionID]
	if _, err := svc.Submit(ctx, started.Attempt.ID, 0, SubmitInput{SelectedOptionID: &correctID}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	finished, err := svc.Finish(ctx, started.Attempt.ID)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if finished.Progression == nil {
		t.Fatalf("registered finish must settle progression")
	}
	// One of two correct: 10 XP, no perfect bonus.
	if finished.Progression.AwardedXP != 10 {
		t.Fatalf("awarded xp: want=10 got=%d", finished.Progression.AwardedXP)
	}
	if finished.Attempt.EarnedXP != 10 {
		t.Fatalf("attempt earned xp: want=10 got=%d", finished.Attempt.EarnedXP)
	}

	// Every word in the attempt got scheduler state: the answered word
	// moved up, the unanswered one counts as wrong and stays at zero.
	var progressRows []types.UserWordProgress
	if err := gdb.Where("user_id = ?", user.ID).Find(&progressRows).Error; err != nil {
		t.Fatalf("load progress rows: %v", err)
	}
	if len(progressRows) != 2 {
		t.Fatalf("scheduler rows: want=2 got=%d", len(progressRows))
	}
	levels := map[int]int{}
	for _, p := range progressRows {
		levels[p.StudyLevel]++
	}
	if levels[0] != 1 || levels[1] != 1 {
		t.Fatalf("study levels: want one 0 and one 1, got=%v", levels)
	}
}

func TestAbandonClosesWithoutProgression(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	topic, _ := seedQuizPool(t, gdb, 2)
	testutil.SeedRank(t, gdb, 1, 0, "Wood")
	user := testutil.SeedUser(t, gdb, "learner@test.dev")
	ctx := userCtx(user.ID)

	started, err := svc.Start(ctx, StartAttemptInput{
		Mode:    types.AttemptModeTopic,
		TopicID: &topic.ID,
		Level:   intPtr(1),
		Size:    2,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	summary, err := svc.Abandon(ctx, started.Attempt.ID)
	if err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if summary.Status != types.AttemptStatusAbandoned {
		t.Fatalf("status: want=ABANDONED got=%s", summary.Status)
	}
	if got := reloadUser(t, gdb, user.ID).CurrentXP; got != 0 {
		t.Fatalf("abandon must not award xp, got=%d", got)
	}
}

func TestAttemptOwnershipEnforced(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	topic, _ := seedQuizPool(t, gdb, 2)

	started, err := svc.Start(guestCtx("device-1"), StartAttemptInput{
		Mode:    types.AttemptModeTopic,
		TopicID: &topic.ID,
		Level:   intPtr(1),
		Size:    2,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = svc.GetQuestion(guestCtx("device-2"), started.Attempt.ID, 0)
	if apiErr := apierr.From(err); apiErr.Status != 403 {
		t.Fatalf("foreign access status: want=403 got=%d", apiErr.Status)
	}
}

func TestInfiniteNextBatch(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	seedQuizPool(t, gdb, 15)
	user := testutil.SeedUser(t, gdb, "learner@test.dev")
	ctx := userCtx(user.ID)

	started, err := svc.Start(ctx, StartAttemptInput{Mode: types.AttemptModeInfinite})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Attempt.TotalQuestions != 10 {
		t.Fatalf("first batch: want=10 got=%d", started.Attempt.TotalQuestions)
	}

	batch, err := svc.NextBatch(ctx, started.Attempt.ID)
	if err != nil {
		t.Fatalf("NextBatch: %v", err)
	}
	if batch.Added != 5 || batch.TotalQuestions != 15 || batch.Exhausted {
		t.Fatalf("second batch: want 5/15 open, got=%+v", batch)
	}

	again, err := svc.NextBatch(ctx, started.Attempt.ID)
	if err != nil {
		t.Fatalf("NextBatch exhausted: %v", err)
	}
	if again.Added != 0 || !again.Exhausted {
		t.Fatalf("exhausted batch: want 0/exhausted, got=%+v", again)
	}

	// Past-the-batch cursors on finite attempts 404, on endless attempts
	// they ask for the next batch.
	_, err = svc.GetQuestion(ctx, started.Attempt.ID, 99)
	if apiErr := apierr.From(err); apiErr.Status != 409 {
		t.Fatalf("past-end cursor on endless attempt: want=409 got=%d", apiErr.Status)
	}
}

func TestFillBlankNormalization(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	topic := testutil.SeedTopic(t, gdb, "Spelling", 1)
	word := testutil.SeedWord(t, gdb, topic.ID, "Capacious", 1)
	testutil.SeedFillBlankQuestion(t, gdb, &word.ID, "type the word", "Capacious")
	ctx := guestCtx("device-1")

	started, err := svc.Start(ctx, StartAttemptInput{Mode: types.AttemptModeRandom, Size: 1})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(started.Page.Question.Options) != 0 {
		t.Fatalf("fill-blank page must not leak accepted spellings: %+v", started.Page.Question.Options)
	}

	answer := "  cAPACIOUS \t "
	result, err := svc.Submit(ctx, started.Attempt.ID, 0, SubmitInput{AnswerText: &answer})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.IsCorrect {
		t.Fatalf("normalized spelling should grade correct: %+v", result)
	}
}

func TestReviewRevealsCorrectness(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	topic, correctByQuestion := seedQuizPool(t, gdb, 2)
	ctx := guestCtx("device-1")

	started, err := svc.Start(ctx, StartAttemptInput{
		Mode:    types.AttemptModeTopic,
		TopicID: &topic.ID,
		Level:   intPtr(1),
		Size:    2,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	correctID := correctByQuestion[started.Page.Question.QuestionID]
	if _, err := svc.Submit(ctx, started.Attempt.ID, 0, SubmitInput{SelectedOptionID: &correctID}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Finish(ctx, started.Attempt.ID); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	review, err := svc.Review(ctx, started.Attempt.ID)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if len(review.Items) != 2 {
		t.Fatalf("review items: want=2 got=%d", len(review.Items))
	}
	sawCorrectFlag := false
	for _, opt := range review.Items[0].Options {
		if opt.IsCorrect {
			sawCorrectFlag = true
		}
	}
	if !sawCorrectFlag {
		t.Fatalf("review must reveal the correct option")
	}
	if review.Items[0].IsCorrect == nil || !*review.Items[0].IsCorrect {
		t.Fatalf("answered item grade missing: %+v", review.Items[0])
	}
	if review.Items[1].IsCorrect != nil {
		t.Fatalf("unanswered item should have no grade: %+v", review.Items[1])
	}
}

func TestHistoryPagination(t *testing.T) {
	svc, gdb := newAttemptForTest(t)
	topic, _ := seedQuizPool(t, gdb, 2)
	testutil.SeedRank(t, gdb, 1, 0, "Wood")
	user := testutil.SeedUser(t, gdb, "learner@test.dev")
	ctx := userCtx(user.ID)

	for i := 0; i < 3; i++ {
		started, err := svc.Start(ctx, StartAttemptInput{
			Mode:    types.AttemptModeTopic,
			TopicID: &topic.ID,
			Level:   intPtr(1),
			Size:    2,
		})
		if err != nil {
			t.Fatalf("Start %d: %v", i, err)
		}
		if _, err := svc.Finish(ctx, started.Attempt.ID); err != nil {
			t.Fatalf("Finish %d: %v", i, err)
		}
	}

	result, err := svc.History(ctx, HistoryInput{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if result.Pagination.Total != 3 || result.Pagination.TotalPages != 2 {
		t.Fatalf("pagination: want total=3 pages=2 got=%+v", result.Pagination)
	}
	if len(result.Items) != 2 {
		t.Fatalf("page items: want=2 got=%d", len(result.Items))
	}

	// Guests have no history endpoint.
	_, err = svc.History(guestCtx("device-1"), HistoryInput{})
	if apiErr := apierr.From(err); apiErr.Status != 401 {
		t.Fatalf("guest history status: want=401 got=%d", apiErr.Status)
	}
}
