package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/normalization"
	"github.com/vocaquiz/vocaquiz-backend/internal/platform/apierr"
	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/repos"
	"github.com/vocaquiz/vocaquiz-backend/internal/requestdata"
	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

const (
	defaultAttemptSize = 10
	maxAttemptSize     = 50
	infiniteBatchSize  = 10

	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
)

// ActiveAttemptError reports a start that collided with an attempt the
// owner still has in flight; the handler returns it as a 409 together
// with the existing attempt so clients can resume it.
type ActiveAttemptError struct {
	Attempt *AttemptSummary
}

func (e *ActiveAttemptError) Error() string {
	return "an attempt is already in progress for this owner"
}

// AttemptService drives a quiz attempt through its lifecycle:
// IN_PROGRESS until exactly one Finish or Abandon, with cursor-addressed
// questions and idempotent submission in between.
type AttemptService interface {
	Start(ctx context.Context, input StartAttemptInput) (*StartAttemptResult, error)
	GetQuestion(ctx context.Context, attemptID uuid.UUID, cursor int) (*QuestionPage, error)
	Submit(ctx context.Context, attemptID uuid.UUID, cursor int, input SubmitInput) (*SubmitResult, error)
	NextBatch(ctx context.Context, attemptID uuid.UUID) (*NextBatchResult, error)
	Finish(ctx context.Context, attemptID uuid.UUID) (*FinishResult, error)
	Abandon(ctx context.Context, attemptID uuid.UUID) (*AttemptSummary, error)
	Review(ctx context.Context, attemptID uuid.UUID) (*ReviewResult, error)
	History(ctx context.Context, input HistoryInput) (*HistoryResult, error)
}

type attemptService struct {
	db           *gorm.DB
	log          *logger.Logger
	topicRepo    repos.TopicRepo
	wordRepo     repos.WordRepo
	questionRepo repos.QuestionRepo
	optionRepo   repos.AnswerOptionRepo
	attemptRepo  repos.QuizAttemptRepo
	answerRepo   repos.AttemptAnswerRepo
	scheduler    SchedulerService
	progression  ProgressionService
}

func NewAttemptService(
	db *gorm.DB,
	log *logger.Logger,
	topicRepo repos.TopicRepo,
	wordRepo repos.WordRepo,
	questionRepo repos.QuestionRepo,
	optionRepo repos.AnswerOptionRepo,
	attemptRepo repos.QuizAttemptRepo,
	answerRepo repos.AttemptAnswerRepo,
	scheduler SchedulerService,
	progression ProgressionService,
) AttemptService {
	return &attemptService{
		db:           db,
		log:          log.With("service", "AttemptService"),
		topicRepo:    topicRepo,
		wordRepo:     wordRepo,
		questionRepo: questionRepo,
		optionRepo:   optionRepo,
		attemptRepo:  attemptRepo,
		answerRepo:   answerRepo,
		scheduler:    scheduler,
		progression:  progression,
	}
}

func (as *attemptService) Start(ctx context.Context, input StartAttemptInput) (*StartAttemptResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.OwnerKey() == "" {
		return nil, apierr.Unauthorized("missing_identity", fmt.Errorf("no learner or guest identity on request"))
	}

	if !types.ValidAttemptMode(input.Mode) {
		return nil, apierr.BadRequest("invalid_mode", fmt.Errorf("unknown quiz mode %q", input.Mode))
	}

	var topic *types.Topic
	level := 0
	if input.Mode == types.AttemptModeTopic || input.Mode == types.AttemptModeLearn {
		if input.TopicID == nil || input.Level == nil {
			return nil, apierr.BadRequest("topic_required", fmt.Errorf("mode %s requires topic_id and level", input.Mode))
		}
		var err error
		topic, err = as.topicRepo.GetByID(ctx, nil, *input.TopicID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("topic_not_found", fmt.Errorf("topic does not exist"))
		}
		if err != nil {
			return nil, fmt.Errorf("load topic: %w", err)
		}
		level = *input.Level
		if level < 1 || level > topic.MaxLevel {
			return nil, apierr.BadRequest("invalid_level", fmt.Errorf("level %d out of range 1..%d", level, topic.MaxLevel))
		}
	}

	if rd.IsGuest() {
		guestAllowed := input.Mode == types.AttemptModeRandom ||
			(input.Mode == types.AttemptModeTopic && level == 1)
		if !guestAllowed {
			return nil, apierr.Forbidden("guest_mode_not_allowed", fmt.Errorf("guests may only take RANDOM quizzes or TOPIC level 1"))
		}
	}

	size := clampAttemptSize(input.Size)
	if input.Mode == types.AttemptModeInfinite {
		size = infiniteBatchSize
	}

	if existing, err := as.attemptRepo.GetActiveByOwnerKey(ctx, nil, rd.OwnerKey()); err != nil {
		return nil, fmt.Errorf("check active attempt: %w", err)
	} else if existing != nil {
		return nil, &ActiveAttemptError{Attempt: summarizeAttempt(existing)}
	}

	now := time.Now().UTC()
	ownerKey := rd.OwnerKey()
	attempt := &types.QuizAttempt{
		ID:             uuid.New(),
		Mode:           input.Mode,
		Status:         types.AttemptStatusInProgress,
		ActiveOwnerKey: &ownerKey,
		StartedAt:      now,
	}
	if rd.IsRegistered() {
		userID := rd.UserID
		attempt.UserID = &userID
	} else {
		guestKey := rd.GuestKey
		attempt.GuestKey = &guestKey
	}
	if topic != nil {
		attempt.TopicID = &topic.ID
		attempt.Level = &level
	}

	var page *QuestionPage
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questions, err := as.selectQuestions(ctx, tx, rd, input.Mode, topic, level, size)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return apierr.NotFound("no_questions_available", fmt.Errorf("no active questions matched the request"))
		}
		attempt.TotalQuestions = len(questions)

		if err := as.attemptRepo.Create(ctx, tx, attempt); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ActiveAttemptError{}
			}
			return fmt.Errorf("create attempt: %w", err)
		}

		answers := make([]*types.AttemptAnswer, 0, len(questions))
		for i, q := range questions {
			answers = append(answers, &types.AttemptAnswer{
				ID:         uuid.New(),
				AttemptID:  attempt.ID,
				QuestionID: q.ID,
				Position:   i,
			})
		}
		if err := as.answerRepo.CreateIgnoreDuplicates(ctx, tx, answers); err != nil {
			return fmt.Errorf("create answer slots: %w", err)
		}

		page, err = as.buildQuestionPage(ctx, tx, attempt, answers[0])
		return err
	})
	if err != nil {
		var activeErr *ActiveAttemptError
		if errors.As(err, &activeErr) && activeErr.Attempt == nil {
			// Lost the uniqueness race to a concurrent start; surface the
			// winner the same way as the fast-path check.
			if existing, lookupErr := as.attemptRepo.GetActiveByOwnerKey(ctx, nil, ownerKey); lookupErr == nil && existing != nil {
				activeErr.Attempt = summarizeAttempt(existing)
			}
		}
		return nil, err
	}

	return &StartAttemptResult{Attempt: summarizeAttempt(attempt), Page: page}, nil
}

// selectQuestions picks the attempt's question list. Scheduler-backed
// modes take one random question per due word and backfill any shortfall
// from the general pool; pure random modes sample the pool directly.
func (as *attemptService) selectQuestions(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, mode string, topic *types.Topic, level, size int) ([]*types.Question, error) {
	if mode == types.AttemptModeRandom || mode == types.AttemptModeInfinite {
		questions, err := as.questionRepo.RandomActive(ctx, tx, nil, size)
		if err != nil {
			return nil, fmt.Errorf("sample random questions: %w", err)
		}
		return questions, nil
	}

	wordIDs, err := as.scheduler.SelectDueWords(ctx, tx, rd, topic.ID, level, size)
	if err != nil {
		return nil, fmt.Errorf("select due words: %w", err)
	}

	pool, err := as.questionRepo.ListActiveByWordIDs(ctx, tx, wordIDs)
	if err != nil {
		return nil, fmt.Errorf("load word questions: %w", err)
	}
	byWord := make(map[uuid.UUID][]*types.Question, len(wordIDs))
	for _, q := range pool {
		if q.WordID == nil {
			continue
		}
		byWord[*q.WordID] = append(byWord[*q.WordID], q)
	}

	picked := make([]*types.Question, 0, size)
	seen := make(map[uuid.UUID]bool, size)
	for _, wordID := range wordIDs {
		candidates := byWord[wordID]
		if len(candidates) == 0 {
			continue
		}
		q := candidates[rand.IntN(len(candidates))]
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		picked = append(picked, q)
	}

	if len(picked) < size {
		exclude := make([]uuid.UUID, 0, len(picked))
		for id := range seen {
			exclude = append(exclude, id)
		}
		backfill, err := as.questionRepo.RandomActiveWithWord(ctx, tx, exclude, size-len(picked))
		if err != nil {
			return nil, fmt.Errorf("backfill questions: %w", err)
		}
		for _, q := range backfill {
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			picked = append(picked, q)
		}
	}
	return picked, nil
}

func (as *attemptService) GetQuestion(ctx context.Context, attemptID uuid.UUID, cursor int) (*QuestionPage, error) {
	attempt, err := as.loadOwnedAttempt(ctx, nil, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != types.AttemptStatusInProgress {
		return nil, apierr.Conflict("attempt_not_in_progress", fmt.Errorf("attempt is %s", attempt.Status))
	}
	if cursor < 0 {
		return nil, apierr.BadRequest("cursor_out_of_range", fmt.Errorf("cursor must be non-negative"))
	}
	if cursor >= attempt.TotalQuestions {
		if attempt.Mode == types.AttemptModeInfinite {
			return nil, apierr.Conflict("need_next_batch", fmt.Errorf("cursor is past the current batch; request the next batch"))
		}
		return nil, apierr.NotFound("cursor_out_of_range", fmt.Errorf("cursor %d past last question", cursor))
	}

	answer, err := as.answerRepo.GetByAttemptPosition(ctx, nil, attemptID, cursor)
	if err != nil {
		return nil, fmt.Errorf("load answer slot: %w", err)
	}
	return as.buildQuestionPage(ctx, nil, attempt, answer)
}

func (as *attemptService) buildQuestionPage(ctx context.Context, tx *gorm.DB, attempt *types.QuizAttempt, answer *types.AttemptAnswer) (*QuestionPage, error) {
	question, err := as.questionRepo.GetByID(ctx, tx, answer.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	options, err := as.optionRepo.ListActiveByQuestionID(ctx, tx, question.ID)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}

	dto := &QuestionDTO{
		QuestionID:       question.ID,
		Position:         answer.Position,
		Content:          question.Content,
		QuestionType:     question.QuestionType,
		Options:          make([]OptionDTO, 0, len(options)),
		Answered:         answer.AnsweredAt != nil,
		SelectedOptionID: answer.SelectedOptionID,
		AnswerText:       answer.AnswerText,
	}
	if answer.AnsweredAt != nil {
		dto.IsCorrect = answer.IsCorrect
	}
	if question.QuestionType != types.QuestionTypeFillBlank {
		for _, o := range options {
			dto.Options = append(dto.Options, OptionDTO{ID: o.ID, Content: o.Content})
		}
	}
	if attempt.Mode == types.AttemptModeLearn && question.WordID != nil {
		words, err := as.wordRepo.GetByIDs(ctx, tx, []uuid.UUID{*question.WordID})
		if err != nil {
			return nil, fmt.Errorf("load word hint: %w", err)
		}
		if len(words) > 0 {
			dto.Word = wordHint(words[0])
		}
	}

	return &QuestionPage{
		AttemptID:      attempt.ID,
		Cursor:         answer.Position,
		TotalQuestions: attempt.TotalQuestions,
		CanPrev:        answer.Position > 0,
		CanNext:        answer.Position+1 < attempt.TotalQuestions || attempt.Mode == types.AttemptModeInfinite,
		Question:       dto,
	}, nil
}

func (as *attemptService) Submit(ctx context.Context, attemptID uuid.UUID, cursor int, input SubmitInput) (*SubmitResult, error) {
	var result *SubmitResult
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := as.loadOwnedAttempt(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if attempt.Status != types.AttemptStatusInProgress {
			return apierr.Conflict("attempt_not_in_progress", fmt.Errorf("attempt is %s", attempt.Status))
		}
		if cursor < 0 || cursor >= attempt.TotalQuestions {
			return apierr.BadRequest("cursor_out_of_range", fmt.Errorf("cursor %d outside 0..%d", cursor, attempt.TotalQuestions-1))
		}

		answer, err := as.answerRepo.GetByAttemptPosition(ctx, tx, attemptID, cursor)
		if err != nil {
			return apierr.Internal("answer_slot_missing", fmt.Errorf("no answer slot at position %d: %w", cursor, err))
		}

		question, err := as.questionRepo.GetByID(ctx, tx, answer.QuestionID)
		if err != nil {
			return apierr.Internal("question_integrity", fmt.Errorf("question for slot vanished: %w", err))
		}
		options, err := as.optionRepo.ListActiveByQuestionID(ctx, tx, question.ID)
		if err != nil {
			return fmt.Errorf("load options: %w", err)
		}

		correctOptionID, correctText, err := as.correctAnswerFor(ctx, tx, question, options)
		if err != nil {
			return err
		}

		if answer.AnsweredAt != nil {
			// Idempotent replay: the first grade stands; just repeat it.
			result = &SubmitResult{
				AlreadyAnswered:   true,
				IsCorrect:         answer.IsCorrect != nil && *answer.IsCorrect,
				CorrectOptionID:   correctOptionID,
				CorrectAnswerText: correctText,
				NextCursor:        cursor + 1,
				TotalQuestions:    attempt.TotalQuestions,
				Finished:          cursor+1 >= attempt.TotalQuestions && attempt.Mode != types.AttemptModeInfinite,
			}
		} else {
			isCorrect, err := as.grade(question, options, correctOptionID, correctText, input)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			answer.SelectedOptionID = input.SelectedOptionID
			answer.AnswerText = input.AnswerText
			answer.IsCorrect = &isCorrect
			answer.AnsweredAt = &now
			if err := as.answerRepo.UpdateResult(ctx, tx, answer); err != nil {
				return fmt.Errorf("store answer: %w", err)
			}

			if isCorrect {
				attempt.CorrectAnswers++
			}

			nextCursor := cursor + 1
			finished := nextCursor >= attempt.TotalQuestions
			if finished && attempt.Mode == types.AttemptModeInfinite {
				added, err := as.extendBatch(ctx, tx, attempt)
				if err != nil {
					return err
				}
				if added > 0 {
					finished = false
				}
			}
			if err := as.attemptRepo.Update(ctx, tx, attempt); err != nil {
				return fmt.Errorf("update attempt counters: %w", err)
			}

			result = &SubmitResult{
				IsCorrect:         isCorrect,
				CorrectOptionID:   correctOptionID,
				CorrectAnswerText: correctText,
				NextCursor:        nextCursor,
				TotalQuestions:    attempt.TotalQuestions,
				Finished:          finished,
			}
		}

		// The grade travels with the next question, merged with any answer
		// already recorded at that position.
		if result.NextCursor < attempt.TotalQuestions {
			nextSlot, err := as.answerRepo.GetByAttemptPosition(ctx, tx, attemptID, result.NextCursor)
			if err != nil {
				return fmt.Errorf("load next answer slot: %w", err)
			}
			result.Next, err = as.buildQuestionPage(ctx, tx, attempt, nextSlot)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// correctAnswerFor resolves what the right answer is before grading, so
// both fresh submissions and idempotent replays can echo it. For typed
// answers the accepted spelling falls back to the word's canonical term
// when no option is marked correct.
func (as *attemptService) correctAnswerFor(ctx context.Context, tx *gorm.DB, question *types.Question, options []*types.AnswerOption) (*uuid.UUID, string, error) {
	if question.QuestionType == types.QuestionTypeFillBlank {
		for _, o := range options {
			if o.IsCorrect {
				return nil, o.Content, nil
			}
		}
		if question.WordID == nil {
			return nil, "", apierr.Internal("question_integrity", fmt.Errorf("fill-blank question has no accepted answer"))
		}
		words, err := as.wordRepo.GetByIDs(ctx, tx, []uuid.UUID{*question.WordID})
		if err != nil || len(words) == 0 {
			return nil, "", apierr.Internal("question_integrity", fmt.Errorf("fill-blank question lost its word: %v", err))
		}
		return nil, words[0].Term, nil
	}

	var correct *types.AnswerOption
	for _, o := range options {
		if o.IsCorrect {
			if correct != nil {
				return nil, "", apierr.Internal("question_integrity", fmt.Errorf("question has multiple correct options"))
			}
			correct = o
		}
	}
	if correct == nil {
		return nil, "", apierr.Internal("question_integrity", fmt.Errorf("question has no correct option"))
	}
	id := correct.ID
	return &id, correct.Content, nil
}

func (as *attemptService) grade(question *types.Question, options []*types.AnswerOption, correctOptionID *uuid.UUID, correctText string, input SubmitInput) (bool, error) {
	if question.QuestionType == types.QuestionTypeFillBlank {
		if input.AnswerText == nil || normalization.ParseAnswerText(*input.AnswerText) == "" {
			return false, apierr.BadRequest("answer_text_required", fmt.Errorf("fill-blank questions need answer_text"))
		}
		given := normalization.ParseAnswerText(*input.AnswerText)
		for _, o := range options {
			if o.IsCorrect && normalization.ParseAnswerText(o.Content) == given {
				return true, nil
			}
		}
		return normalization.ParseAnswerText(correctText) == given, nil
	}

	if input.SelectedOptionID == nil {
		return false, apierr.BadRequest("option_required", fmt.Errorf("choice questions need selected_option_id"))
	}
	valid := false
	for _, o := range options {
		if o.ID == *input.SelectedOptionID {
			valid = true
			break
		}
	}
	if !valid {
		return false, apierr.BadRequest("option_not_in_question", fmt.Errorf("selected option does not belong to this question"))
	}
	return correctOptionID != nil && *input.SelectedOptionID == *correctOptionID, nil
}

// extendBatch appends the next slice of unseen active questions, id
// order, to an endless attempt. Concurrent extensions insert the same
// rows; the unique indexes absorb the duplicates and the recount keeps
// the total honest.
func (as *attemptService) extendBatch(ctx context.Context, tx *gorm.DB, attempt *types.QuizAttempt) (int, error) {
	existing, err := as.answerRepo.ListByAttemptID(ctx, tx, attempt.ID)
	if err != nil {
		return 0, fmt.Errorf("load existing slots: %w", err)
	}
	seen := make([]uuid.UUID, 0, len(existing))
	for _, a := range existing {
		seen = append(seen, a.QuestionID)
	}

	fresh, err := as.questionRepo.UnseenActive(ctx, tx, seen, infiniteBatchSize)
	if err != nil {
		return 0, fmt.Errorf("load unseen questions: %w", err)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	answers := make([]*types.AttemptAnswer, 0, len(fresh))
	for i, q := range fresh {
		answers = append(answers, &types.AttemptAnswer{
			ID:         uuid.New(),
			AttemptID:  attempt.ID,
			QuestionID: q.ID,
			Position:   len(existing) + i,
		})
	}
	if err := as.answerRepo.CreateIgnoreDuplicates(ctx, tx, answers); err != nil {
		return 0, fmt.Errorf("append answer slots: %w", err)
	}

	count, err := as.answerRepo.CountByAttemptID(ctx, tx, attempt.ID)
	if err != nil {
		return 0, fmt.Errorf("recount slots: %w", err)
	}
	attempt.TotalQuestions = int(count)
	return len(fresh), nil
}

func (as *attemptService) NextBatch(ctx context.Context, attemptID uuid.UUID) (*NextBatchResult, error) {
	var result *NextBatchResult
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := as.loadOwnedAttempt(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if attempt.Mode != types.AttemptModeInfinite {
			return apierr.BadRequest("not_infinite_mode", fmt.Errorf("next batch only applies to INFINITE attempts"))
		}
		if attempt.Status != types.AttemptStatusInProgress {
			return apierr.Conflict("attempt_not_in_progress", fmt.Errorf("attempt is %s", attempt.Status))
		}
		added, err := as.extendBatch(ctx, tx, attempt)
		if err != nil {
			return err
		}
		if added > 0 {
			if err := as.attemptRepo.Update(ctx, tx, attempt); err != nil {
				return fmt.Errorf("update attempt total: %w", err)
			}
		}
		result = &NextBatchResult{
			Added:          added,
			TotalQuestions: attempt.TotalQuestions,
			Exhausted:      added == 0,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (as *attemptService) Finish(ctx context.Context, attemptID uuid.UUID) (*FinishResult, error) {
	rd := requestdata.GetRequestData(ctx)
	var result *FinishResult
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := as.loadOwnedAttempt(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if attempt.Status != types.AttemptStatusInProgress {
			return apierr.Conflict("attempt_not_in_progress", fmt.Errorf("attempt is %s", attempt.Status))
		}

		answers, err := as.answerRepo.ListByAttemptID(ctx, tx, attempt.ID)
		if err != nil {
			return fmt.Errorf("load answers: %w", err)
		}

		// Totals are recomputed from the answer rows; the incremental
		// counters are advisory only.
		total := len(answers)
		correct := 0
		for _, a := range answers {
			if a.IsCorrect != nil && *a.IsCorrect {
				correct++
			}
		}

		now := time.Now().UTC()
		var progression *ProgressionResult
		if rd.IsRegistered() && attempt.Mode != types.AttemptModeLearn {
			progression, err = as.progression.Apply(ctx, tx, rd.UserID, total, correct, now)
			if err != nil {
				return err
			}
			attempt.EarnedXP = progression.AwardedXP
		}

		if rd.IsRegistered() && attempt.Mode == types.AttemptModeTopic {
			if err := as.applySpacedRepetition(ctx, tx, rd.UserID, answers, now); err != nil {
				return err
			}
		}

		attempt.Status = types.AttemptStatusFinished
		attempt.FinishedAt = &now
		attempt.TotalQuestions = total
		attempt.CorrectAnswers = correct
		attempt.ActiveOwnerKey = nil
		if err := as.attemptRepo.Update(ctx, tx, attempt); err != nil {
			return fmt.Errorf("finish attempt: %w", err)
		}

		result = &FinishResult{Attempt: summarizeAttempt(attempt), Progression: progression}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applySpacedRepetition folds the attempt into the word scheduler. A word
// counts as wrong if any of its questions was wrong or left unanswered.
func (as *attemptService) applySpacedRepetition(ctx context.Context, tx *gorm.DB, userID uuid.UUID, answers []*types.AttemptAnswer, now time.Time) error {
	questionIDs := make([]uuid.UUID, 0, len(answers))
	for _, a := range answers {
		questionIDs = append(questionIDs, a.QuestionID)
	}
	questions, err := as.questionRepo.GetByIDs(ctx, tx, questionIDs)
	if err != nil {
		return fmt.Errorf("load attempt questions: %w", err)
	}
	wordByQuestion := make(map[uuid.UUID]uuid.UUID, len(questions))
	for _, q := range questions {
		if q.WordID != nil {
			wordByQuestion[q.ID] = *q.WordID
		}
	}

	wasWrong := make(map[uuid.UUID]bool)
	order := make([]uuid.UUID, 0, len(answers))
	for _, a := range answers {
		wordID, ok := wordByQuestion[a.QuestionID]
		if !ok {
			continue
		}
		if _, known := wasWrong[wordID]; !known {
			wasWrong[wordID] = false
			order = append(order, wordID)
		}
		if a.IsCorrect == nil || !*a.IsCorrect {
			wasWrong[wordID] = true
		}
	}

	for _, wordID := range order {
		if err := as.scheduler.ApplyResult(ctx, tx, userID, wordID, wasWrong[wordID], now); err != nil {
			return err
		}
	}
	return nil
}

func (as *attemptService) Abandon(ctx context.Context, attemptID uuid.UUID) (*AttemptSummary, error) {
	var summary *AttemptSummary
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := as.loadOwnedAttempt(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if attempt.Status != types.AttemptStatusInProgress {
			return apierr.Conflict("attempt_not_in_progress", fmt.Errorf("attempt is %s", attempt.Status))
		}
		now := time.Now().UTC()
		attempt.Status = types.AttemptStatusAbandoned
		attempt.FinishedAt = &now
		attempt.ActiveOwnerKey = nil
		if err := as.attemptRepo.Update(ctx, tx, attempt); err != nil {
			return fmt.Errorf("abandon attempt: %w", err)
		}
		summary = summarizeAttempt(attempt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (as *attemptService) Review(ctx context.Context, attemptID uuid.UUID) (*ReviewResult, error) {
	attempt, err := as.loadOwnedAttempt(ctx, nil, attemptID)
	if err != nil {
		return nil, err
	}

	answers, err := as.answerRepo.ListByAttemptID(ctx, nil, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	questionIDs := make([]uuid.UUID, 0, len(answers))
	for _, a := range answers {
		questionIDs = append(questionIDs, a.QuestionID)
	}
	questions, err := as.questionRepo.GetByIDs(ctx, nil, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	questionByID := make(map[uuid.UUID]*types.Question, len(questions))
	wordIDs := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		questionByID[q.ID] = q
		if q.WordID != nil {
			wordIDs = append(wordIDs, *q.WordID)
		}
	}
	options, err := as.optionRepo.ListActiveByQuestionIDs(ctx, nil, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	optionsByQuestion := make(map[uuid.UUID][]*types.AnswerOption, len(questions))
	for _, o := range options {
		optionsByQuestion[o.QuestionID] = append(optionsByQuestion[o.QuestionID], o)
	}
	words, err := as.wordRepo.GetByIDs(ctx, nil, wordIDs)
	if err != nil {
		return nil, fmt.Errorf("load words: %w", err)
	}
	wordByID := make(map[uuid.UUID]*types.Word, len(words))
	for _, w := range words {
		wordByID[w.ID] = w
	}

	items := make([]ReviewItem, 0, len(answers))
	for _, a := range answers {
		q, ok := questionByID[a.QuestionID]
		if !ok {
			continue
		}
		item := ReviewItem{
			Position:         a.Position,
			QuestionID:       q.ID,
			Content:          q.Content,
			QuestionType:     q.QuestionType,
			SelectedOptionID: a.SelectedOptionID,
			AnswerText:       a.AnswerText,
			IsCorrect:        a.IsCorrect,
		}
		for _, o := range optionsByQuestion[q.ID] {
			item.Options = append(item.Options, ReviewOption{ID: o.ID, Content: o.Content, IsCorrect: o.IsCorrect})
		}
		if q.WordID != nil {
			if w, ok := wordByID[*q.WordID]; ok {
				item.Word = wordHint(w)
			}
		}
		items = append(items, item)
	}

	return &ReviewResult{Attempt: summarizeAttempt(attempt), Items: items}, nil
}

func (as *attemptService) History(ctx context.Context, input HistoryInput) (*HistoryResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if !rd.IsRegistered() {
		return nil, apierr.Unauthorized("registered_only", fmt.Errorf("attempt history requires a registered learner"))
	}
	if input.Mode != "" && !types.ValidAttemptMode(input.Mode) {
		return nil, apierr.BadRequest("invalid_mode", fmt.Errorf("unknown quiz mode %q", input.Mode))
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize < 1 {
		pageSize = defaultHistoryPageSize
	}
	if pageSize > maxHistoryPageSize {
		pageSize = maxHistoryPageSize
	}

	attempts, total, err := as.attemptRepo.ListHistory(ctx, nil, repos.AttemptHistoryFilter{
		UserID:   rd.UserID,
		Mode:     input.Mode,
		TopicID:  input.TopicID,
		From:     input.From,
		To:       input.To,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	items := make([]*AttemptSummary, 0, len(attempts))
	for _, a := range attempts {
		items = append(items, summarizeAttempt(a))
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &HistoryResult{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// loadOwnedAttempt fetches an attempt and rejects callers that do not own
// it: registered owners by user id, guest owners by guest key.
func (as *attemptService) loadOwnedAttempt(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) (*types.QuizAttempt, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.OwnerKey() == "" {
		return nil, apierr.Unauthorized("missing_identity", fmt.Errorf("no learner or guest identity on request"))
	}
	attempt, err := as.attemptRepo.GetByID(ctx, tx, attemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("attempt_not_found", fmt.Errorf("attempt does not exist"))
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	owned := false
	switch {
	case attempt.UserID != nil && rd.IsRegistered():
		owned = *attempt.UserID == rd.UserID
	case attempt.GuestKey != nil && rd.IsGuest():
		owned = *attempt.GuestKey == rd.GuestKey
	}
	if !owned {
		return nil, apierr.Forbidden("not_attempt_owner", fmt.Errorf("attempt belongs to a different owner"))
	}
	return attempt, nil
}

func clampAttemptSize(size int) int {
	if size == 0 {
		return defaultAttemptSize
	}
	if size < 1 {
		return 1
	}
	if size > maxAttemptSize {
		return maxAttemptSize
	}
	return size
}

func wordHint(w *types.Word) *WordHint {
	return &WordHint{
		Term:          w.Term,
		Pronunciation: w.Pronunciation,
		MeaningEN:     w.MeaningEN,
		MeaningVN:     w.MeaningVN,
		Example:       w.Example,
	}
}
